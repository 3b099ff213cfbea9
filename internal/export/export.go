package export

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mtlprog/dripstat/internal/domain"
)

// Sheet names shared by every writer.
const (
	SheetLines   = "LINES"
	SheetSummary = "SUMMARY"
	SheetHistory = "HISTORY"
)

// Report is a statement laid out as spreadsheet rows.
type Report struct {
	Lines         [][]any
	Summary       [][]any
	HistoryHeader []any
	HistoryRow    []any
}

// SheetWriter writes a report to a spreadsheet destination. LINES and SUMMARY
// are rewritten; the HISTORY row is appended.
type SheetWriter interface {
	Write(ctx context.Context, report Report) error
}

// Service lays out statements and delegates writing to a SheetWriter.
type Service struct {
	writer SheetWriter
}

// NewService creates a new export Service.
func NewService(writer SheetWriter) *Service {
	return &Service{writer: writer}
}

// Export writes one statement. Implements worker.AfterStatementHook.
func (s *Service) Export(ctx context.Context, statement domain.Statement) error {
	if err := s.writer.Write(ctx, BuildReport(statement)); err != nil {
		return fmt.Errorf("exporting statement for %s: %w", statement.Date.Format("2006-01-02"), err)
	}
	slog.Info("Export: statement written", "owner", statement.Owner, "lines", len(statement.Lines))
	return nil
}
