package subgraph

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/mtlprog/dripstat/internal/domain"
	"github.com/mtlprog/dripstat/internal/drip"
)

const pageSize = 1000

const dripsUpdatedEventsQuery = `query DripsUpdatedEvents($user: String!, $account: BigInt!, $first: Int!, $skip: Int!) {
  dripsUpdatedEvents(
    where: {user: $user, account: $account}
    orderBy: blockTimestamp
    orderDirection: asc
    first: $first
    skip: $skip
  ) {
    balance
    blockTimestamp
    receivers {
      receiver
      amtPerSec
    }
  }
}`

// Receiver is one entry of a DripsUpdated receiver list.
type Receiver struct {
	Receiver  string `json:"receiver"`
	AmtPerSec string `json:"amtPerSec"`
}

// DripsUpdatedEvent is a raw DripsUpdated event as indexed by the subgraph.
type DripsUpdatedEvent struct {
	Balance        string     `json:"balance"`
	BlockTimestamp string     `json:"blockTimestamp"`
	Receivers      []Receiver `json:"receivers"`
}

type dripsUpdatedEventsData struct {
	DripsUpdatedEvents []DripsUpdatedEvent `json:"dripsUpdatedEvents"`
}

// FetchDripsUpdatedEvents pages through every DripsUpdated event of a payer's
// sub-account in ascending block time.
func (c *Client) FetchDripsUpdatedEvents(ctx context.Context, payer, accountID string) ([]DripsUpdatedEvent, error) {
	var events []DripsUpdatedEvent
	for skip := 0; ; skip += pageSize {
		var data dripsUpdatedEventsData
		vars := map[string]any{
			"user":    strings.ToLower(payer),
			"account": accountID,
			"first":   pageSize,
			"skip":    skip,
		}
		if err := c.query(ctx, dripsUpdatedEventsQuery, vars, &data); err != nil {
			return nil, fmt.Errorf("fetching drips events for %s/%s: %w", payer, accountID, err)
		}
		events = append(events, data.DripsUpdatedEvents...)
		if len(data.DripsUpdatedEvents) < pageSize {
			return events, nil
		}
	}
}

// FetchRateChangeEvents returns the history of the stream from payer's
// sub-account to receiver.
func (c *Client) FetchRateChangeEvents(ctx context.Context, payer, accountID, receiver string) ([]domain.DripHistoryEvent, error) {
	raw, err := c.FetchDripsUpdatedEvents(ctx, payer, accountID)
	if err != nil {
		return nil, err
	}

	history, err := BuildHistory(raw, receiver)
	if err != nil {
		return nil, err
	}
	if err := drip.Validate(history); err != nil {
		return nil, fmt.Errorf("history for %s/%s -> %s: %w", payer, accountID, receiver, err)
	}
	return history, nil
}

// BuildHistory projects sub-account events onto one receiver. An event that does
// not list the receiver sets its rate to zero. Events in the same block second
// collapse into the last one.
func BuildHistory(events []DripsUpdatedEvent, receiver string) ([]domain.DripHistoryEvent, error) {
	history := make([]domain.DripHistoryEvent, 0, len(events))
	for _, e := range events {
		ev, err := projectEvent(e, receiver)
		if err != nil {
			return nil, err
		}
		if n := len(history); n > 0 && history[n-1].Timestamp.Equal(ev.Timestamp) {
			history[n-1] = ev
			continue
		}
		history = append(history, ev)
	}
	return history, nil
}

func projectEvent(e DripsUpdatedEvent, receiver string) (domain.DripHistoryEvent, error) {
	ts, err := strconv.ParseInt(e.BlockTimestamp, 10, 64)
	if err != nil {
		return domain.DripHistoryEvent{}, fmt.Errorf("parsing block timestamp %q: %w", e.BlockTimestamp, err)
	}

	balance, err := domain.ParseMoney(domain.CurrencyDAI, e.Balance)
	if err != nil {
		return domain.DripHistoryEvent{}, fmt.Errorf("parsing balance: %w", err)
	}

	rate := domain.ZeroDAI()
	if r, ok := lo.Find(e.Receivers, func(r Receiver) bool {
		return strings.EqualFold(r.Receiver, receiver)
	}); ok {
		rate, err = domain.ParseMoney(domain.CurrencyDAI, r.AmtPerSec)
		if err != nil {
			return domain.DripHistoryEvent{}, fmt.Errorf("parsing rate: %w", err)
		}
	}

	return domain.DripHistoryEvent{
		Balance:   balance,
		AmtPerSec: rate,
		Timestamp: domain.UnixTime(ts),
	}, nil
}
