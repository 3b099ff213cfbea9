// Package history derives an activity feed from stream histories.
package history

import (
	"slices"
	"time"

	"github.com/mtlprog/dripstat/internal/domain"
	"github.com/mtlprog/dripstat/internal/portfolio"
)

// ItemType classifies an activity item.
type ItemType string

const (
	ItemStreamStart       ItemType = "stream_start"
	ItemStreamPaused      ItemType = "stream_paused"
	ItemStreamUnpaused    ItemType = "stream_unpaused"
	ItemStreamOutOfFunds  ItemType = "stream_out_of_funds"
	ItemStreamToppedUp    ItemType = "stream_topped_up"
	ItemStreamedInbetween ItemType = "streamed_inbetween"
	ItemMonthSummary      ItemType = "month_summary"
)

// Summary totals what flowed in a window.
type Summary struct {
	Window      domain.TimeWindow        `json:"window"`
	Secs        int64                    `json:"secs"`
	EarnedTotal domain.Money             `json:"earnedTotal"`
	SpentTotal  domain.Money             `json:"spentTotal"`
	Earned      []portfolio.StreamAmount `json:"earned"`
	Spent       []portfolio.StreamAmount `json:"spent"`
}

// Item is one entry of the activity feed.
type Item struct {
	Type      ItemType      `json:"type"`
	Timestamp time.Time     `json:"timestamp"`
	StreamID  string        `json:"streamId,omitempty"`
	Direction string        `json:"direction,omitempty"`
	Amount    *domain.Money `json:"amount,omitempty"`
	Summary   *Summary      `json:"summary,omitempty"`
}

// Aggregator produces new items from the current queue (newest first) and the
// streams being described.
type Aggregator func(queue []Item, streams []domain.Stream, now time.Time) []Item

// Builder accumulates items from a sequence of aggregators.
type Builder struct {
	now     time.Time
	streams []domain.Stream
	queue   []Item
}

// NewBuilder creates a builder that treats now as the current time.
func NewBuilder(now time.Time) *Builder {
	return &Builder{now: now}
}

// SetStreams sets the streams passed to every following aggregator.
func (b *Builder) SetStreams(streams []domain.Stream) *Builder {
	b.streams = streams
	return b
}

// Add runs agg and merges its items into the queue, newest first.
func (b *Builder) Add(agg Aggregator) *Builder {
	b.queue = append(b.queue, agg(b.queue, b.streams, b.now)...)
	slices.SortStableFunc(b.queue, func(x, y Item) int {
		return y.Timestamp.Compare(x.Timestamp)
	})
	return b
}

// Flush returns the accumulated items and resets the builder.
func (b *Builder) Flush() []Item {
	items := b.queue
	if items == nil {
		items = []Item{}
	}
	b.queue = nil
	b.streams = nil
	return items
}

// Build runs every aggregator over streams in feed order.
func Build(streams []domain.Stream, now time.Time) []Item {
	return NewBuilder(now).
		SetStreams(streams).
		Add(StreamStart).
		Add(StreamPaused).
		Add(StreamUnpaused).
		Add(StreamStartStop).
		Add(StreamedInbetween).
		Add(MonthStartInbetween).
		Add(Today).
		Flush()
}

func streamItem(t ItemType, s domain.Stream, ts time.Time) Item {
	return Item{Type: t, Timestamp: ts, StreamID: s.ID, Direction: string(s.Direction)}
}

func summarize(streams []domain.Stream, window domain.TimeWindow) *Summary {
	split := portfolio.AmountsEarnedAndSpentBetween(streams, window)
	return &Summary{
		Window:      window,
		Secs:        window.Seconds(),
		EarnedTotal: portfolio.Total(split.Earned),
		SpentTotal:  portfolio.Total(split.Spent),
		Earned:      split.Earned,
		Spent:       split.Spent,
	}
}
