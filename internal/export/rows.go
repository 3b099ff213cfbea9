package export

import (
	"time"

	"github.com/mtlprog/dripstat/internal/domain"
)

var linesHeader = []any{
	"Stream", "Direction", "Streamed", "Balance", "Remaining", "Streaming until", "Streaming", "Paused",
}

var historyHeader = []any{
	"Date", "Earned", "Spent", "Total earned", "Earned this cycle", "Streams",
}

// BuildReport lays out a statement as spreadsheet rows.
func BuildReport(st domain.Statement) Report {
	return Report{
		Lines:         buildLines(st),
		Summary:       buildSummary(st),
		HistoryHeader: historyHeader,
		HistoryRow:    buildHistoryRow(st),
	}
}

// buildLines builds the LINES sheet.
// Columns: Stream | Direction | Streamed | Balance | Remaining | Streaming until | Streaming | Paused
func buildLines(st domain.Statement) [][]any {
	data := make([][]any, 0, len(st.Lines)+1)
	data = append(data, linesHeader)

	for _, l := range st.Lines {
		var until any
		if l.StreamingUntil != nil {
			until = l.StreamingUntil.UTC().Format(time.DateTime)
		}
		data = append(data, []any{
			l.StreamID,
			string(l.Direction),
			toFloat(l.Streamed),
			toFloat(l.CurrentBalance),
			toFloat(l.RemainingBalance),
			until,
			boolFlag(l.CurrentlyStreaming),
			boolFlag(l.Paused),
		})
	}

	return data
}

// buildSummary builds the key/value SUMMARY sheet.
func buildSummary(st domain.Statement) [][]any {
	return [][]any{
		{"Owner", st.Owner},
		{"Date", st.Date.UTC().Format(time.DateOnly)},
		{"Generated at", st.GeneratedAt.UTC().Format(time.RFC3339)},
		{"Earned", toFloat(st.Earned)},
		{"Spent", toFloat(st.Spent)},
		{"Total earned", toFloat(st.TotalEarned)},
		{"Earned this cycle", toFloat(st.EarnedThisCycle)},
	}
}

// buildHistoryRow builds the row appended to HISTORY for each run.
func buildHistoryRow(st domain.Statement) []any {
	return []any{
		st.Date.UTC().Format("02.01.2006"),
		toFloat(st.Earned),
		toFloat(st.Spent),
		toFloat(st.TotalEarned),
		toFloat(st.EarnedThisCycle),
		float64(len(st.Lines)),
	}
}

func toFloat(m domain.Money) float64 {
	f, _ := m.Units().Float64()
	return f
}

func boolFlag(b bool) int {
	if b {
		return 1
	}
	return 0
}
