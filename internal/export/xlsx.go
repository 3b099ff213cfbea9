package export

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/xuri/excelize/v2"
)

// XLSXWriter implements SheetWriter by writing a local .xlsx workbook. An
// existing workbook keeps its HISTORY rows.
type XLSXWriter struct {
	path string
}

// NewXLSXWriter creates a writer for the workbook at path.
func NewXLSXWriter(path string) *XLSXWriter {
	return &XLSXWriter{path: path}
}

func (w *XLSXWriter) Write(_ context.Context, report Report) error {
	f, err := w.open()
	if err != nil {
		return err
	}
	defer f.Close()

	if err := replaceSheet(f, SheetLines, report.Lines); err != nil {
		return err
	}
	if err := replaceSheet(f, SheetSummary, report.Summary); err != nil {
		return err
	}
	if err := appendHistory(f, report); err != nil {
		return err
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("removing default sheet: %w", err)
	}
	if idx, err := f.GetSheetIndex(SheetSummary); err == nil && idx >= 0 {
		f.SetActiveSheet(idx)
	}

	if err := f.SaveAs(w.path); err != nil {
		return fmt.Errorf("saving %s: %w", w.path, err)
	}
	return nil
}

func (w *XLSXWriter) open() (*excelize.File, error) {
	f, err := excelize.OpenFile(w.path)
	if err == nil {
		return f, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return excelize.NewFile(), nil
	}
	return nil, fmt.Errorf("opening %s: %w", w.path, err)
}

// replaceSheet drops and recreates a sheet with rows starting at A1.
func replaceSheet(f *excelize.File, name string, rows [][]any) error {
	if idx, _ := f.GetSheetIndex(name); idx >= 0 {
		if err := f.DeleteSheet(name); err != nil {
			return fmt.Errorf("clearing sheet %s: %w", name, err)
		}
	}
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("creating sheet %s: %w", name, err)
	}
	return writeRows(f, name, 1, rows)
}

func appendHistory(f *excelize.File, report Report) error {
	idx, _ := f.GetSheetIndex(SheetHistory)
	if idx < 0 {
		if _, err := f.NewSheet(SheetHistory); err != nil {
			return fmt.Errorf("creating sheet %s: %w", SheetHistory, err)
		}
	}

	existing, err := f.GetRows(SheetHistory)
	if err != nil {
		return fmt.Errorf("reading sheet %s: %w", SheetHistory, err)
	}

	rows := [][]any{report.HistoryRow}
	if len(existing) == 0 {
		rows = [][]any{report.HistoryHeader, report.HistoryRow}
	}
	return writeRows(f, SheetHistory, len(existing)+1, rows)
}

func writeRows(f *excelize.File, sheet string, startRow int, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, startRow+i)
		if err != nil {
			return fmt.Errorf("resolving cell: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing %s row %d: %w", sheet, startRow+i, err)
		}
	}
	return nil
}
