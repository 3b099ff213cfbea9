package worker

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// ErrAlreadyRunning is returned by Start when the ticker loop is active.
var ErrAlreadyRunning = errors.New("ticker already running")

// DefaultTickInterval is the nominal period between callback rounds.
const DefaultTickInterval = time.Second

// Handle identifies a registered tick callback.
type Handle uint64

// TickFunc is invoked once per tick with the tick time.
type TickFunc func(now time.Time)

type registration struct {
	fn     TickFunc
	active atomic.Bool
}

// Ticker invokes registered callbacks sequentially on one goroutine, once per
// interval. No invocation starts after Deregister returns; an invocation already
// under way runs to completion, so a callback may deregister itself.
//
// A callback must not call Stop: Stop waits for the running round, which is the
// callback itself. To end the loop from a callback, cancel the context passed
// to Start or Run.
type Ticker struct {
	interval time.Duration

	mu    sync.Mutex
	regs  map[Handle]*registration
	order []Handle
	next  Handle

	cancel context.CancelFunc
	done   chan struct{}
}

// NewTicker creates a stopped ticker. A non-positive interval uses DefaultTickInterval.
func NewTicker(interval time.Duration) *Ticker {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &Ticker{
		interval: interval,
		regs:     make(map[Handle]*registration),
	}
}

// Register adds fn to the callback list and returns its handle.
func (t *Ticker) Register(fn TickFunc) Handle {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.next++
	reg := &registration{fn: fn}
	reg.active.Store(true)
	t.regs[t.next] = reg
	t.order = append(t.order, t.next)
	return t.next
}

// Deregister removes a callback. It reports false for an unknown or already
// removed handle.
func (t *Ticker) Deregister(h Handle) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	reg, ok := t.regs[h]
	if !ok {
		return false
	}
	reg.active.Store(false)
	delete(t.regs, h)
	t.order = slices.DeleteFunc(t.order, func(x Handle) bool { return x == h })
	return true
}

// Reset removes every callback.
func (t *Ticker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, reg := range t.regs {
		reg.active.Store(false)
	}
	t.regs = make(map[Handle]*registration)
	t.order = nil
}

// Len returns the number of registered callbacks.
func (t *Ticker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.regs)
}

// IsRunning reports whether the tick loop is active.
func (t *Ticker) IsRunning() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.done != nil
}

// Start launches the tick loop. The first round runs immediately.
func (t *Ticker) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done != nil {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	t.cancel = cancel
	t.done = done

	go func() {
		defer close(done)
		t.loop(ctx)
	}()
	return nil
}

// Stop ends the tick loop and waits for the current round to finish. Calling
// Stop on a stopped ticker is a no-op. Calling it from a tick callback
// deadlocks; cancel the loop context instead.
func (t *Ticker) Stop() {
	t.mu.Lock()
	cancel, done := t.cancel, t.done
	t.cancel, t.done = nil, nil
	t.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Run starts the loop and blocks until ctx is cancelled.
func (t *Ticker) Run(ctx context.Context) {
	if err := t.Start(ctx); err != nil {
		slog.Warn("Ticker: not started", "error", err)
		return
	}
	<-ctx.Done()
	t.Stop()
}

func (t *Ticker) loop(ctx context.Context) {
	slog.Info("Ticker: starting", "interval", t.interval)

	t.dispatch(time.Now())

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Ticker: shutting down")
			return
		case now := <-ticker.C:
			t.dispatch(now)
		}
	}
}

// dispatch invokes every callback registered at the start of the round, skipping
// those deregistered meanwhile.
func (t *Ticker) dispatch(now time.Time) {
	t.mu.Lock()
	round := make([]*registration, 0, len(t.order))
	for _, h := range t.order {
		round = append(round, t.regs[h])
	}
	t.mu.Unlock()

	for _, reg := range round {
		if !reg.active.Load() {
			continue
		}
		t.invoke(reg, now)
	}
}

func (t *Ticker) invoke(reg *registration, now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Ticker: callback panicked", "panic", r)
		}
	}()
	reg.fn(now)
}
