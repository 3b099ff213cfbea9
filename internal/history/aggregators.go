package history

import (
	"time"

	"github.com/mtlprog/dripstat/internal/domain"
	"github.com/mtlprog/dripstat/internal/drip"
)

// StreamStart emits one item at the first event of every provisioned stream.
func StreamStart(_ []Item, streams []domain.Stream, _ time.Time) []Item {
	var items []Item
	for _, s := range streams {
		if !s.HasHistory() {
			continue
		}
		items = append(items, streamItem(ItemStreamStart, s, s.History[0].Timestamp))
	}
	return items
}

// StreamPaused emits an item for every event that stops the flow.
func StreamPaused(_ []Item, streams []domain.Stream, _ time.Time) []Item {
	var items []Item
	for _, s := range streams {
		for _, e := range s.History {
			if e.Paused() {
				items = append(items, streamItem(ItemStreamPaused, s, e.Timestamp))
			}
		}
	}
	return items
}

// StreamUnpaused emits an item for every event that resumes a paused stream.
func StreamUnpaused(_ []Item, streams []domain.Stream, _ time.Time) []Item {
	var items []Item
	for _, s := range streams {
		for i := 1; i < len(s.History); i++ {
			if s.History[i-1].Paused() && !s.History[i].Paused() {
				items = append(items, streamItem(ItemStreamUnpaused, s, s.History[i].Timestamp))
			}
		}
	}
	return items
}

// StreamStartStop emits an out-of-funds item wherever a stream ran dry before
// its next event (or before now), and a topped-up item when that next event
// brought a non-zero balance.
func StreamStartStop(_ []Item, streams []domain.Stream, now time.Time) []Item {
	var outOfFunds, toppedUp []Item
	for _, s := range streams {
		for i, e := range s.History {
			until, ok := drip.ToppedUpUntil(e)
			if !ok {
				continue
			}

			next := now
			hasNext := i+1 < len(s.History)
			if hasNext {
				next = s.History[i+1].Timestamp
			}
			if until.After(next) {
				continue
			}

			outOfFunds = append(outOfFunds, streamItem(ItemStreamOutOfFunds, s, until))

			if hasNext && !s.History[i+1].Balance.IsZero() {
				item := streamItem(ItemStreamToppedUp, s, next)
				amount := s.History[i+1].Balance
				item.Amount = &amount
				toppedUp = append(toppedUp, item)
			}
		}
	}
	return append(outOfFunds, toppedUp...)
}

// StreamedInbetween inserts a summary between consecutive items when funds
// moved in that span. The summary sorts 1ms before the newer item.
func StreamedInbetween(queue []Item, streams []domain.Stream, _ time.Time) []Item {
	var items []Item
	for i := 0; i+1 < len(queue); i++ {
		window := domain.TimeWindow{From: queue[i+1].Timestamp, To: queue[i].Timestamp}
		sum := summarize(streams, window)
		if len(sum.Earned) == 0 && len(sum.Spent) == 0 {
			continue
		}
		items = append(items, Item{
			Type:      ItemStreamedInbetween,
			Timestamp: queue[i].Timestamp.Add(-time.Millisecond),
			Summary:   sum,
		})
	}
	return items
}

// MonthStartInbetween inserts a summary of the previous calendar month wherever
// two consecutive items fall in different months.
func MonthStartInbetween(queue []Item, streams []domain.Stream, _ time.Time) []Item {
	var items []Item
	for i := 0; i+1 < len(queue); i++ {
		newer, older := queue[i].Timestamp, queue[i+1].Timestamp
		monthEnd := domain.MonthStart(newer)
		if !older.Before(monthEnd) {
			continue
		}
		window := domain.TimeWindow{From: monthEnd.AddDate(0, -1, 0), To: monthEnd}
		items = append(items, Item{
			Type:      ItemMonthSummary,
			Timestamp: monthEnd,
			Summary:   summarize(streams, window),
		})
	}
	return items
}

// Today summarizes the month of the newest item up to now.
func Today(queue []Item, streams []domain.Stream, now time.Time) []Item {
	if len(queue) == 0 {
		return nil
	}
	window := domain.TimeWindow{From: domain.MonthStart(queue[0].Timestamp), To: now}
	return []Item{{
		Type:      ItemMonthSummary,
		Timestamp: now,
		Summary:   summarize(streams, window),
	}}
}
