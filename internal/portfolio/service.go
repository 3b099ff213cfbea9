package portfolio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mtlprog/dripstat/internal/domain"
	"github.com/mtlprog/dripstat/internal/drip"
)

// EventSource defines the subset of the on-chain data source used by the Service.
type EventSource interface {
	FetchRateChangeEvents(ctx context.Context, payer, accountID, receiver string) ([]domain.DripHistoryEvent, error)
}

// Invalidator is implemented by caching sources that can drop a stored history.
type Invalidator interface {
	Invalidate(ctx context.Context, payer, accountID, receiver string) error
}

// Service loads stream histories from an EventSource into a Portfolio.
type Service struct {
	source      EventSource
	portfolio   *Portfolio
	descriptors []domain.StreamDescriptor
}

// NewService creates a new portfolio loader for the given streams.
func NewService(source EventSource, portfolio *Portfolio, descriptors []domain.StreamDescriptor) *Service {
	return &Service{source: source, portfolio: portfolio, descriptors: descriptors}
}

// FetchStream retrieves and validates the history of one stream.
func (s *Service) FetchStream(ctx context.Context, d domain.StreamDescriptor) (domain.Stream, error) {
	history, err := s.source.FetchRateChangeEvents(ctx, d.Payer, d.AccountID, d.Receiver)
	if err != nil {
		return domain.Stream{}, fmt.Errorf("fetching history for %s: %w", d.ID(), err)
	}
	if err := drip.Validate(history); err != nil {
		return domain.Stream{}, fmt.Errorf("validating history for %s: %w", d.ID(), err)
	}
	return domain.NewStream(d, s.portfolio.Owner(), history), nil
}

// Refresh reloads every stream from upstream and replaces the portfolio
// content. Cached histories are dropped first so on-chain changes show up on
// the next refresh. A stream that fails to load keeps its previously loaded
// history; the failures are returned joined.
func (s *Service) Refresh(ctx context.Context) error {
	return s.load(ctx, true)
}

// Load fills the portfolio like Refresh but accepts cached histories.
func (s *Service) Load(ctx context.Context) error {
	return s.load(ctx, false)
}

func (s *Service) load(ctx context.Context, fresh bool) error {
	streams := make([]domain.Stream, 0, len(s.descriptors))
	var errs []error

	inv, cached := s.source.(Invalidator)
	for _, d := range s.descriptors {
		if fresh && cached {
			if err := inv.Invalidate(ctx, d.Payer, d.AccountID, d.Receiver); err != nil {
				slog.Warn("Portfolio: cache invalidation failed", "stream", d.ID(), "error", err)
			}
		}
		stream, err := s.FetchStream(ctx, d)
		if err != nil {
			errs = append(errs, err)
			if prev, ok := s.portfolio.Get(d.ID()); ok {
				slog.Warn("Portfolio: keeping stale history", "stream", d.ID(), "error", err)
				streams = append(streams, prev)
			} else {
				slog.Warn("Portfolio: stream not loaded", "stream", d.ID(), "error", err)
			}
			continue
		}
		streams = append(streams, stream)
	}

	s.portfolio.Replace(streams)
	slog.Info("Portfolio: refreshed", "streams", len(streams), "failed", len(errs))
	return errors.Join(errs...)
}
