// Package estimate projects live balances and exhaustion times for a portfolio.
package estimate

import (
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mtlprog/dripstat/internal/domain"
	"github.com/mtlprog/dripstat/internal/drip"
	"github.com/mtlprog/dripstat/internal/portfolio"
)

// StreamProvider supplies the current stream set.
type StreamProvider interface {
	Owner() string
	Streams() []domain.Stream
}

// Snapshot is the estimate of a whole portfolio at one instant. A published
// snapshot is never modified.
type Snapshot struct {
	At              time.Time                  `json:"at"`
	CycleStart      time.Time                  `json:"cycleStart"`
	Streams         map[string]domain.Estimate `json:"streams"`
	TotalEarned     domain.Money               `json:"totalEarned"`
	EarnedThisCycle domain.Money               `json:"earnedThisCycle"`
	TotalSpent      domain.Money               `json:"totalSpent"`
}

// Observer receives every snapshot published by Tick.
type Observer func(Snapshot)

// Option configures an Estimator.
type Option func(*Estimator)

// WithClock overrides the time source used by Tick.
func WithClock(clock func() time.Time) Option {
	return func(e *Estimator) { e.clock = clock }
}

// WithCycleSecs sets the billing cycle length in seconds.
func WithCycleSecs(secs int64) Option {
	return func(e *Estimator) {
		e.cycleStart = func(now time.Time) time.Time { return domain.CycleStart(now, secs) }
	}
}

// Estimator recomputes live estimates for every stream of a portfolio.
type Estimator struct {
	streams    StreamProvider
	clock      func() time.Time
	cycleStart func(time.Time) time.Time

	tickMu sync.Mutex
	latest atomic.Pointer[Snapshot]

	obsMu     sync.Mutex
	observers map[int]Observer
	nextID    int
}

// DefaultCycleSecs is one week, the drips protocol cycle length.
const DefaultCycleSecs int64 = 7 * 24 * 60 * 60

// New creates an Estimator over streams.
func New(streams StreamProvider, opts ...Option) *Estimator {
	e := &Estimator{
		streams:   streams,
		clock:     time.Now,
		observers: make(map[int]Observer),
	}
	WithCycleSecs(DefaultCycleSecs)(e)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// EstimateStream computes the live state of one stream at now.
func EstimateStream(s domain.Stream, now time.Time) domain.Estimate {
	last, ok := drip.Last(s.History)
	if !ok {
		return domain.Estimate{CurrentBalance: domain.ZeroDAI(), RemainingBalance: domain.ZeroDAI()}
	}

	r := drip.Flatten(s.History, domain.WindowUntil(now))
	est := domain.Estimate{
		CurrentBalance:   r.Streamed,
		RemainingBalance: r.Remaining,
		Paused:           last.Paused(),
	}
	if until, ok := drip.ToppedUpUntil(last); ok {
		est.StreamingUntil = &until
		est.CurrentlyStreaming = until.After(now)
	}
	return est
}

// Recompute builds a snapshot at now without publishing it.
func (e *Estimator) Recompute(now time.Time) Snapshot {
	streams := e.streams.Streams()
	cycleStart := e.cycleStart(now)

	estimates := make(map[string]domain.Estimate, len(streams))
	for _, s := range streams {
		estimates[s.ID] = EstimateStream(s, now)
	}

	return Snapshot{
		At:              now,
		CycleStart:      cycleStart,
		Streams:         estimates,
		TotalEarned:     portfolio.TotalIn(streams, domain.DirectionIncoming, domain.WindowUntil(now)),
		EarnedThisCycle: portfolio.TotalIn(streams, domain.DirectionIncoming, domain.TimeWindow{From: cycleStart, To: now}),
		TotalSpent:      portfolio.TotalIn(streams, domain.DirectionOutgoing, domain.WindowUntil(now)),
	}
}

// Tick recomputes at the current clock time, stores the snapshot and notifies
// observers. Concurrent ticks run one at a time.
func (e *Estimator) Tick() Snapshot {
	e.tickMu.Lock()
	defer e.tickMu.Unlock()

	snap := e.Recompute(e.clock())
	e.latest.Store(&snap)

	for _, obs := range e.currentObservers() {
		obs(snap)
	}
	return snap
}

// Latest returns the most recently published snapshot.
func (e *Estimator) Latest() (Snapshot, bool) {
	p := e.latest.Load()
	if p == nil {
		return Snapshot{}, false
	}
	return *p, true
}

// Subscribe registers an observer and returns its id.
func (e *Estimator) Subscribe(obs Observer) int {
	e.obsMu.Lock()
	defer e.obsMu.Unlock()
	e.nextID++
	e.observers[e.nextID] = obs
	return e.nextID
}

// Unsubscribe removes an observer. It reports false when id is unknown.
func (e *Estimator) Unsubscribe(id int) bool {
	e.obsMu.Lock()
	defer e.obsMu.Unlock()
	if _, ok := e.observers[id]; !ok {
		return false
	}
	delete(e.observers, id)
	return true
}

func (e *Estimator) currentObservers() []Observer {
	e.obsMu.Lock()
	defer e.obsMu.Unlock()
	ids := make([]int, 0, len(e.observers))
	for id := range e.observers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]Observer, 0, len(ids))
	for _, id := range ids {
		out = append(out, e.observers[id])
	}
	return out
}
