package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/mtlprog/dripstat/internal/domain"
)

// StatementBuilder computes a statement for the UTC day containing date.
type StatementBuilder interface {
	Statement(date time.Time) domain.Statement
}

// Service manages statement generation and retrieval.
type Service struct {
	builder StatementBuilder
	repo    Repository
}

// NewService creates a new statement snapshot service.
func NewService(builder StatementBuilder, repo Repository) *Service {
	return &Service{builder: builder, repo: repo}
}

// Generate builds and stores the statement for the given portfolio slug and date.
func (s *Service) Generate(ctx context.Context, slug string, date time.Time) (domain.Statement, error) {
	portfolioID, err := s.repo.GetPortfolioID(ctx, slug)
	if err != nil {
		return domain.Statement{}, fmt.Errorf("getting portfolio: %w", err)
	}

	statement := s.builder.Statement(date)

	data, err := json.Marshal(statement)
	if err != nil {
		return domain.Statement{}, fmt.Errorf("marshaling statement: %w", err)
	}

	if err := s.repo.Save(ctx, portfolioID, statement.Date, data); err != nil {
		return domain.Statement{}, fmt.Errorf("saving statement: %w", err)
	}

	slog.Info("Snapshot: statement stored", "slug", slug, "date", statement.Date.Format(time.DateOnly), "lines", len(statement.Lines))
	return statement, nil
}

// GetLatest retrieves the most recent statement for the portfolio.
func (s *Service) GetLatest(ctx context.Context, slug string) (*Snapshot, error) {
	return s.repo.GetLatest(ctx, slug)
}

// GetByDate retrieves a statement for a specific date.
func (s *Service) GetByDate(ctx context.Context, slug string, date time.Time) (*Snapshot, error) {
	return s.repo.GetByDate(ctx, slug, date)
}

// List retrieves recent statements.
func (s *Service) List(ctx context.Context, slug string, limit int) ([]Snapshot, error) {
	return s.repo.List(ctx, slug, limit)
}

// Decode unmarshals a stored statement.
func (s Snapshot) Decode() (domain.Statement, error) {
	var st domain.Statement
	if err := json.Unmarshal(s.Data, &st); err != nil {
		return domain.Statement{}, fmt.Errorf("decoding statement %d: %w", s.ID, err)
	}
	return st, nil
}
