// Package drip reconstructs streamed and remaining amounts from a stream's
// rate-change history.
package drip

import (
	"time"

	"github.com/samber/lo"

	"github.com/mtlprog/dripstat/internal/domain"
)

// Result holds the amounts derived from one history over one window.
type Result struct {
	Streamed  domain.Money `json:"streamed"`
	Remaining domain.Money `json:"remaining"`
}

// Flatten returns how much flowed within window and how much is left after the
// last event that starts before window.To. History must be sorted ascending by
// timestamp; Validate checks that at the boundary where events enter the system.
//
// Funds never flow past exhaustion: each event streams for at most
// floor(balance/rate) seconds even if no later event stops it.
func Flatten(history []domain.DripHistoryEvent, window domain.TimeWindow) Result {
	streamed := domain.ZeroDAI()
	remaining := domain.ZeroDAI()

	filtered := lo.Filter(history, func(e domain.DripHistoryEvent, _ int) bool {
		return e.Timestamp.Before(window.To)
	})

	windowFrom := window.From.Unix()
	windowTo := window.To.Unix()

	for i, e := range filtered {
		last := i == len(filtered)-1

		validUntil := windowTo
		if !last {
			validUntil = filtered[i+1].Timestamp.Unix()
		}

		if e.Paused() {
			if last {
				remaining = e.Balance
			}
			continue
		}

		since := e.Timestamp.Unix()
		from := max(since, windowFrom)
		to := min(validUntil, windowTo, toppedUpUntilUnix(e))

		contribution := e.AmtPerSec.Mul(max(to-from, 0))
		streamed = streamed.Add(contribution)

		if last {
			remaining = e.Balance.Sub(contribution)
		}
	}

	return Result{Streamed: streamed, Remaining: remaining}
}

// FlattenNow evaluates history over [epoch, now).
func FlattenNow(history []domain.DripHistoryEvent) Result {
	return Flatten(history, domain.WindowUntil(time.Now()))
}

// ToppedUpUntil returns the instant e's balance runs out at its rate. It reports
// false for a paused event, which never runs out.
func ToppedUpUntil(e domain.DripHistoryEvent) (time.Time, bool) {
	if e.Paused() {
		return time.Time{}, false
	}
	return domain.UnixTime(toppedUpUntilUnix(e)), true
}

func toppedUpUntilUnix(e domain.DripHistoryEvent) int64 {
	return domain.AddSeconds(e.Timestamp.Unix(), e.Balance.DivFloor(e.AmtPerSec))
}

// Last returns the most recent event of a sorted history.
func Last(history []domain.DripHistoryEvent) (domain.DripHistoryEvent, bool) {
	if len(history) == 0 {
		return domain.DripHistoryEvent{}, false
	}
	return history[len(history)-1], true
}
