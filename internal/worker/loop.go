package worker

import (
	"context"
	"log/slog"
	"time"
)

// runEvery calls fn immediately and then on every interval until ctx is done.
func runEvery(ctx context.Context, name string, interval time.Duration, fn func(context.Context) error) {
	slog.Info(name + ": starting")

	if err := fn(ctx); err != nil {
		slog.Error(name+": initial run failed", "error", err)
	} else {
		slog.Info(name + ": initial run completed")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info(name + ": shutting down")
			return
		case <-ticker.C:
			if err := fn(ctx); err != nil {
				slog.Error(name+": run failed", "error", err)
			} else {
				slog.Debug(name + ": run completed")
			}
		}
	}
}
