package portfolio

import (
	"slices"
	"sync"

	"github.com/mtlprog/dripstat/internal/domain"
)

// Portfolio holds the set of streams observed for one owner. Every mutation
// publishes a fresh slice; slices returned by Streams are never modified.
type Portfolio struct {
	owner string

	mu      sync.RWMutex
	streams []domain.Stream
	closed  bool
}

// New creates an empty portfolio for owner.
func New(owner string) *Portfolio {
	return &Portfolio{owner: owner, streams: []domain.Stream{}}
}

func (p *Portfolio) Owner() string {
	return p.owner
}

// Streams returns the current stream set.
func (p *Portfolio) Streams() []domain.Stream {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.streams
}

func (p *Portfolio) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.streams)
}

// Replace swaps in a new stream set. It is a no-op once the portfolio is closed.
func (p *Portfolio) Replace(streams []domain.Stream) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.streams = slices.Clone(streams)
	if p.streams == nil {
		p.streams = []domain.Stream{}
	}
}

// Get returns the stream with the given ID.
func (p *Portfolio) Get(id string) (domain.Stream, bool) {
	for _, s := range p.Streams() {
		if s.ID == id {
			return s, true
		}
	}
	return domain.Stream{}, false
}

// Close drops all streams. Later mutations are ignored.
func (p *Portfolio) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.streams = []domain.Stream{}
}
