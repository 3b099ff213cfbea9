package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mtlprog/dripstat/internal/domain"
)

// StatementGenerator defines the interface for generating daily statements.
type StatementGenerator interface {
	Generate(ctx context.Context, slug string, date time.Time) (domain.Statement, error)
}

// AfterStatementHook is called after each successful statement generation.
type AfterStatementHook interface {
	Export(ctx context.Context, statement domain.Statement) error
}

// ReportWorker periodically generates daily statements.
type ReportWorker struct {
	generator StatementGenerator
	slug      string
	interval  time.Duration
	hook      AfterStatementHook // optional
	clock     func() time.Time
}

// NewReportWorker creates a new ReportWorker with an optional post-generation hook.
func NewReportWorker(generator StatementGenerator, slug string, interval time.Duration, hook AfterStatementHook) *ReportWorker {
	return &ReportWorker{
		generator: generator,
		slug:      slug,
		interval:  interval,
		hook:      hook,
		clock:     time.Now,
	}
}

// runHook calls the post-generation hook if one is configured.
func (w *ReportWorker) runHook(ctx context.Context, statement domain.Statement) {
	if w.hook == nil {
		return
	}
	if err := w.hook.Export(ctx, statement); err != nil {
		slog.Error("ReportWorker: export hook failed", "error", err)
	} else {
		slog.Info("ReportWorker: export hook completed")
	}
}

func (w *ReportWorker) generate(ctx context.Context) error {
	statement, err := w.generator.Generate(ctx, w.slug, domain.DayWindow(w.clock()).From)
	if err != nil {
		return fmt.Errorf("generating statement for %s: %w", w.slug, err)
	}
	w.runHook(ctx, statement)
	return nil
}

// Run starts the report worker loop. It blocks until the context is cancelled.
func (w *ReportWorker) Run(ctx context.Context) {
	runEvery(ctx, "ReportWorker", w.interval, w.generate)
}
