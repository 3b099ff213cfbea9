package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
)

func newTestServer(t *testing.T, adminAPIKey string) (*http.Server, *mockSnapshotRepo) {
	t.Helper()
	repo := &mockSnapshotRepo{portfolioID: 1}
	live := newLive(t, stubEstimates{}, 4)
	return NewServer("0", newTestHandler(repo).snapshots, "main", live, NewBroadcaster(nil), adminAPIKey), repo
}

func TestGenerateRequiresBearerKey(t *testing.T) {
	tests := []struct {
		name      string
		header    string
		want      int
		wantSaved int
	}{
		{"valid key", "Bearer secret-key", http.StatusOK, 1},
		{"missing header", "", http.StatusUnauthorized, 0},
		{"wrong key", "Bearer wrong-key", http.StatusUnauthorized, 0},
		{"basic scheme", "Basic secret-key", http.StatusUnauthorized, 0},
		{"key without scheme", "secret-key", http.StatusUnauthorized, 0},
		{"key prefix only", "Bearer secret", http.StatusUnauthorized, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, repo := newTestServer(t, "secret-key")

			req := httptest.NewRequest(http.MethodPost, "/api/v1/statements/generate?date=2024-03-02", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			srv.Handler.ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
			if repo.saved != tt.wantSaved {
				t.Errorf("statements saved = %d, want %d", repo.saved, tt.wantSaved)
			}
		})
	}
}

func TestGenerateOpenWithoutAdminKey(t *testing.T) {
	srv, repo := newTestServer(t, "")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/statements/generate", nil)
	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if repo.saved != 1 {
		t.Errorf("statements saved = %d, want 1", repo.saved)
	}
}

func TestNewServerRoutes(t *testing.T) {
	srv, _ := newTestServer(t, "secret-key")

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/api/v1/statements/latest", http.StatusNotFound},
		{http.MethodGet, "/api/v1/statements", http.StatusOK},
		{http.MethodGet, "/api/v1/statements/bad", http.StatusBadRequest},
		{http.MethodGet, "/api/v1/statements/generate", http.StatusBadRequest},
		{http.MethodGet, "/api/v1/estimates", http.StatusServiceUnavailable},
		{http.MethodGet, "/api/v1/streamed", http.StatusOK},
		{http.MethodGet, "/api/v1/streamed?from=5&to=1", http.StatusBadRequest},
		{http.MethodGet, "/api/v1/history", http.StatusOK},
		{http.MethodPost, "/api/v1/estimates", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/v1/unknown", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			srv.Handler.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))

			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestNewServerWithoutLiveRoutes(t *testing.T) {
	repo := &mockSnapshotRepo{}
	srv := NewServer("0", newTestHandler(repo).snapshots, "main", nil, nil, "")

	for _, path := range []string{"/api/v1/estimates", "/api/v1/streamed", "/api/v1/history", "/ws"} {
		w := httptest.NewRecorder()
		srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusNotFound {
			t.Errorf("GET %s status = %d, want 404", path, w.Code)
		}
	}
}

func TestNewServerMountsWebSocket(t *testing.T) {
	srv, _ := newTestServer(t, "")
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)

	conn, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial /ws: %v", err)
	}
	defer conn.Close()
	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Errorf("status = %d, want 101", resp.StatusCode)
	}
}
