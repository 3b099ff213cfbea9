package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates that the requested statement was not found.
var ErrNotFound = errors.New("statement not found")

// Snapshot is a stored daily statement.
type Snapshot struct {
	ID            int             `json:"id"`
	PortfolioID   int             `json:"portfolioId"`
	StatementDate time.Time       `json:"statementDate"`
	Data          json.RawMessage `json:"data"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// Repository defines persistent storage for statements.
type Repository interface {
	Save(ctx context.Context, portfolioID int, date time.Time, data json.RawMessage) error
	GetLatest(ctx context.Context, slug string) (*Snapshot, error)
	GetByDate(ctx context.Context, slug string, date time.Time) (*Snapshot, error)
	List(ctx context.Context, slug string, limit int) ([]Snapshot, error)
	GetPortfolioID(ctx context.Context, slug string) (int, error)
	EnsurePortfolio(ctx context.Context, slug, owner string) (int, error)
}

// PgRepository implements Repository with PostgreSQL.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository creates a new PostgreSQL statement repository.
func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const selectStatement = `SELECT s.id, s.portfolio_id, s.statement_date, s.data, s.created_at
	 FROM statements s
	 JOIN portfolios p ON p.id = s.portfolio_id`

func scanSnapshot(row pgx.Row) (*Snapshot, error) {
	var s Snapshot
	if err := row.Scan(&s.ID, &s.PortfolioID, &s.StatementDate, &s.Data, &s.CreatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *PgRepository) Save(ctx context.Context, portfolioID int, date time.Time, data json.RawMessage) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO statements (portfolio_id, statement_date, data)
		 VALUES ($1, $2, $3::jsonb)
		 ON CONFLICT (portfolio_id, statement_date)
		 DO UPDATE SET data = $3::jsonb`,
		portfolioID, date, data)
	if err != nil {
		return fmt.Errorf("saving statement: %w", err)
	}
	return nil
}

func (r *PgRepository) GetLatest(ctx context.Context, slug string) (*Snapshot, error) {
	s, err := scanSnapshot(r.pool.QueryRow(ctx,
		selectStatement+`
		 WHERE p.slug = $1
		 ORDER BY s.statement_date DESC
		 LIMIT 1`, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting latest statement: %w", err)
	}
	return s, nil
}

func (r *PgRepository) GetByDate(ctx context.Context, slug string, date time.Time) (*Snapshot, error) {
	s, err := scanSnapshot(r.pool.QueryRow(ctx,
		selectStatement+`
		 WHERE p.slug = $1 AND s.statement_date = $2`, slug, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting statement by date: %w", err)
	}
	return s, nil
}

func (r *PgRepository) List(ctx context.Context, slug string, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = 30
	}

	rows, err := r.pool.Query(ctx,
		selectStatement+`
		 WHERE p.slug = $1
		 ORDER BY s.statement_date DESC
		 LIMIT $2`, slug, limit)
	if err != nil {
		return nil, fmt.Errorf("listing statements: %w", err)
	}
	defer rows.Close()

	var snapshots []Snapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning statement: %w", err)
		}
		snapshots = append(snapshots, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating statements: %w", err)
	}
	return snapshots, nil
}

func (r *PgRepository) GetPortfolioID(ctx context.Context, slug string) (int, error) {
	var id int
	err := r.pool.QueryRow(ctx,
		`SELECT id FROM portfolios WHERE slug = $1`, slug).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("getting portfolio ID for %s: %w", slug, err)
	}
	return id, nil
}

func (r *PgRepository) EnsurePortfolio(ctx context.Context, slug, owner string) (int, error) {
	var id int
	err := r.pool.QueryRow(ctx,
		`INSERT INTO portfolios (slug, owner)
		 VALUES ($1, $2)
		 ON CONFLICT (slug) DO UPDATE SET owner = $2
		 RETURNING id`,
		slug, owner).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ensuring portfolio %s: %w", slug, err)
	}
	return id, nil
}
