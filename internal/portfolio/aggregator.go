package portfolio

import (
	"github.com/samber/lo"

	"github.com/mtlprog/dripstat/internal/domain"
	"github.com/mtlprog/dripstat/internal/drip"
)

// StreamAmount is one stream's streamed and remaining amounts within a window.
type StreamAmount struct {
	Stream    domain.Stream `json:"stream"`
	Amount    domain.Money  `json:"amount"`
	Remaining domain.Money  `json:"remaining"`
}

// EarnedAndSpent splits streamed amounts by direction.
type EarnedAndSpent struct {
	Earned []StreamAmount `json:"earned"`
	Spent  []StreamAmount `json:"spent"`
}

// StreamedBetween returns one entry per stream, in input order. Streams without
// history report zero amounts.
func StreamedBetween(streams []domain.Stream, window domain.TimeWindow) []StreamAmount {
	if len(streams) == 0 {
		return []StreamAmount{}
	}
	return lo.Map(streams, func(s domain.Stream, _ int) StreamAmount {
		if !s.HasHistory() {
			return StreamAmount{Stream: s, Amount: domain.ZeroDAI(), Remaining: domain.ZeroDAI()}
		}
		r := drip.Flatten(s.History, window)
		return StreamAmount{Stream: s, Amount: r.Streamed, Remaining: r.Remaining}
	})
}

// AmountsEarnedAndSpentBetween groups the non-zero amounts streamed in window
// into incoming (earned) and outgoing (spent).
func AmountsEarnedAndSpentBetween(streams []domain.Stream, window domain.TimeWindow) EarnedAndSpent {
	amounts := StreamedBetween(streams, window)

	byDirection := func(d domain.Direction) []StreamAmount {
		return lo.Filter(amounts, func(a StreamAmount, _ int) bool {
			return a.Stream.Direction == d && !a.Amount.IsZero()
		})
	}

	return EarnedAndSpent{
		Earned: byDirection(domain.DirectionIncoming),
		Spent:  byDirection(domain.DirectionOutgoing),
	}
}

// Total sums the streamed amounts.
func Total(amounts []StreamAmount) domain.Money {
	return lo.Reduce(amounts, func(acc domain.Money, a StreamAmount, _ int) domain.Money {
		return acc.Add(a.Amount)
	}, domain.ZeroDAI())
}

// TotalIn sums what streams in direction d moved within window.
func TotalIn(streams []domain.Stream, d domain.Direction, window domain.TimeWindow) domain.Money {
	split := AmountsEarnedAndSpentBetween(streams, window)
	if d == domain.DirectionOutgoing {
		return Total(split.Spent)
	}
	return Total(split.Earned)
}
