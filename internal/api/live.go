package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/mtlprog/dripstat/internal/domain"
	"github.com/mtlprog/dripstat/internal/estimate"
	"github.com/mtlprog/dripstat/internal/history"
	"github.com/mtlprog/dripstat/internal/portfolio"
)

// EstimateSource exposes the most recent published estimate snapshot.
type EstimateSource interface {
	Latest() (estimate.Snapshot, bool)
}

// StreamProvider supplies the current stream set.
type StreamProvider interface {
	Streams() []domain.Stream
}

// LiveHandler serves endpoints computed from in-memory streams.
type LiveHandler struct {
	estimates EstimateSource
	streams   StreamProvider
	clock     func() time.Time
}

// NewLiveHandler creates a handler over the estimator and portfolio.
func NewLiveHandler(estimates EstimateSource, streams StreamProvider) *LiveHandler {
	return &LiveHandler{estimates: estimates, streams: streams, clock: time.Now}
}

// GetEstimates handles GET /api/v1/estimates.
func (h *LiveHandler) GetEstimates(w http.ResponseWriter, _ *http.Request) {
	snap, ok := h.estimates.Latest()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "estimates not ready")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type streamedResponse struct {
	Window domain.TimeWindow        `json:"window"`
	Earned domain.Money             `json:"earned"`
	Spent  domain.Money             `json:"spent"`
	Items  []portfolio.StreamAmount `json:"items"`
}

// GetStreamed handles GET /api/v1/streamed?from=&to=. Bounds are RFC 3339 or
// unix seconds and default to [epoch, now).
func (h *LiveHandler) GetStreamed(w http.ResponseWriter, r *http.Request) {
	window := domain.WindowUntil(h.clock())

	q := r.URL.Query()
	if v := q.Get("from"); v != "" {
		t, err := parseInstant(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid from, expected RFC 3339 or unix seconds")
			return
		}
		window.From = t
	}
	if v := q.Get("to"); v != "" {
		t, err := parseInstant(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid to, expected RFC 3339 or unix seconds")
			return
		}
		window.To = t
	}
	if window.To.Before(window.From) {
		writeError(w, http.StatusBadRequest, "to must not be before from")
		return
	}

	streams := h.streams.Streams()
	split := portfolio.AmountsEarnedAndSpentBetween(streams, window)
	writeJSON(w, http.StatusOK, streamedResponse{
		Window: window,
		Earned: portfolio.Total(split.Earned),
		Spent:  portfolio.Total(split.Spent),
		Items:  portfolio.StreamedBetween(streams, window),
	})
}

// GetHistory handles GET /api/v1/history.
func (h *LiveHandler) GetHistory(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, history.Build(h.streams.Streams(), h.clock()))
}

func parseInstant(s string) (time.Time, error) {
	if sec, err := strconv.ParseInt(s, 10, 64); err == nil {
		return domain.UnixTime(sec), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
