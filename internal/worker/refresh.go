package worker

import (
	"context"
	"time"
)

// Refresher reloads stream histories from the event source.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// RefreshWorker periodically reloads the portfolio.
type RefreshWorker struct {
	refresher Refresher
	interval  time.Duration
}

// NewRefreshWorker creates a new RefreshWorker.
func NewRefreshWorker(refresher Refresher, interval time.Duration) *RefreshWorker {
	return &RefreshWorker{
		refresher: refresher,
		interval:  interval,
	}
}

// Run starts the refresh loop. It blocks until the context is cancelled.
func (w *RefreshWorker) Run(ctx context.Context) {
	runEvery(ctx, "RefreshWorker", w.interval, w.refresher.Refresh)
}
