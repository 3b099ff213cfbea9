package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/mtlprog/dripstat/internal/snapshot"
)

// Handler provides HTTP endpoints for stored statements.
type Handler struct {
	snapshots *snapshot.Service
	slug      string
}

// NewHandler creates a new API handler for the portfolio identified by slug.
func NewHandler(snapshots *snapshot.Service, slug string) *Handler {
	return &Handler{snapshots: snapshots, slug: slug}
}

// GetLatestStatement handles GET /api/v1/statements/latest.
func (h *Handler) GetLatestStatement(w http.ResponseWriter, r *http.Request) {
	s, err := h.snapshots.GetLatest(r.Context(), h.slug)
	if err != nil {
		if errors.Is(err, snapshot.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no statements found")
			return
		}
		slog.Error("failed to get latest statement", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// GetStatementByDate handles GET /api/v1/statements/{date}.
func (h *Handler) GetStatementByDate(w http.ResponseWriter, r *http.Request) {
	dateStr := r.PathValue("date")
	date, err := time.Parse(time.DateOnly, dateStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format, expected YYYY-MM-DD")
		return
	}

	s, err := h.snapshots.GetByDate(r.Context(), h.slug, date)
	if err != nil {
		if errors.Is(err, snapshot.ErrNotFound) {
			writeError(w, http.StatusNotFound, "statement not found for date")
			return
		}
		slog.Error("failed to get statement by date", "date", dateStr, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// ListStatements handles GET /api/v1/statements.
func (h *Handler) ListStatements(w http.ResponseWriter, r *http.Request) {
	const maxLimit = 365
	limit := 30
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = min(n, maxLimit)
		}
	}

	statements, err := h.snapshots.List(r.Context(), h.slug, limit)
	if err != nil {
		slog.Error("failed to list statements", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if statements == nil {
		statements = []snapshot.Snapshot{}
	}
	writeJSON(w, http.StatusOK, statements)
}

// GenerateStatement handles POST /api/v1/statements/generate.
func (h *Handler) GenerateStatement(w http.ResponseWriter, r *http.Request) {
	date := time.Now().UTC()
	if d := r.URL.Query().Get("date"); d != "" {
		parsed, err := time.Parse(time.DateOnly, d)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date format, expected YYYY-MM-DD")
			return
		}
		date = parsed
	}

	st, err := h.snapshots.Generate(r.Context(), h.slug, date)
	if err != nil {
		if errors.Is(err, snapshot.ErrNotFound) {
			writeError(w, http.StatusNotFound, "portfolio not found")
			return
		}
		slog.Error("failed to generate statement", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to generate statement")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to marshal JSON response", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		slog.Warn("failed to write HTTP response body", "error", err)
		return
	}
	_, _ = w.Write([]byte("\n"))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
