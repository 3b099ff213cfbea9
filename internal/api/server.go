package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/mtlprog/dripstat/internal/snapshot"
)

// NewServer creates an HTTP server with all routes configured. The estimates
// and broadcaster routes are only mounted when their dependencies are set.
func NewServer(port string, snapshots *snapshot.Service, slug string, live *LiveHandler, broadcaster *Broadcaster, adminAPIKey string) *http.Server {
	handler := NewHandler(snapshots, slug)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/statements/latest", handler.GetLatestStatement)
	mux.HandleFunc("GET /api/v1/statements/{date}", handler.GetStatementByDate)
	mux.HandleFunc("GET /api/v1/statements", handler.ListStatements)

	generateHandler := http.HandlerFunc(handler.GenerateStatement)
	if adminAPIKey != "" {
		mux.Handle("POST /api/v1/statements/generate", requireAuth(adminAPIKey, generateHandler))
	} else {
		mux.Handle("POST /api/v1/statements/generate", generateHandler)
	}

	if live != nil {
		mux.HandleFunc("GET /api/v1/estimates", live.GetEstimates)
		mux.HandleFunc("GET /api/v1/streamed", live.GetStreamed)
		mux.HandleFunc("GET /api/v1/history", live.GetHistory)
	}

	if broadcaster != nil {
		mux.HandleFunc("GET /ws", broadcaster.Handler())
	}

	return &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func requireAuth(apiKey string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		token := strings.TrimPrefix(auth, "Bearer ")
		if !strings.HasPrefix(auth, "Bearer ") || subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1 {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}
