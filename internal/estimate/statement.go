package estimate

import (
	"time"

	"github.com/samber/lo"

	"github.com/mtlprog/dripstat/internal/domain"
	"github.com/mtlprog/dripstat/internal/portfolio"
)

// Statement summarizes the portfolio for the UTC day containing date, as of the
// current clock time.
func (e *Estimator) Statement(date time.Time) domain.Statement {
	now := e.clock()
	snap := e.Recompute(now)
	day := domain.DayWindow(date)

	// Amounts for a day still in progress stop at now.
	window := day
	if now.Before(window.To) {
		window.To = now
	}

	streams := e.streams.Streams()
	split := portfolio.AmountsEarnedAndSpentBetween(streams, window)

	lines := lo.Map(portfolio.StreamedBetween(streams, window), func(a portfolio.StreamAmount, _ int) domain.StatementLine {
		return domain.StatementLine{
			StreamID:  a.Stream.ID,
			Direction: a.Stream.Direction,
			Streamed:  a.Amount,
			Estimate:  snap.Streams[a.Stream.ID],
		}
	})

	return domain.Statement{
		Owner:           e.streams.Owner(),
		Date:            day.From,
		GeneratedAt:     now,
		Window:          day,
		Earned:          portfolio.Total(split.Earned),
		Spent:           portfolio.Total(split.Spent),
		TotalEarned:     snap.TotalEarned,
		EarnedThisCycle: snap.EarnedThisCycle,
		Lines:           lines,
	}
}
