package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"valier/internal/api"
	"valier/internal/eventping"
	"valier/internal/logging"
	"valier/internal/testsupport"
)

type nopGateway struct{}

func (nopGateway) Open() error  { return nil }
func (nopGateway) Close() error { return nil }

func newTestServer(t *testing.T, token string) *apiServer {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithAPIToken(token))
	st := testsupport.MustOpenStore(t, cfg)
	registry := eventping.NewRegistry(context.Background(), eventping.RegistryDeps{Logger: logging.NewNop()})
	d, err := New(cfg, Dependencies{Store: st, Registry: registry, Gateway: nopGateway{}, Logger: logging.NewNop()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if d.api == nil {
		t.Fatal("expected an api server for a configured bind")
	}
	return d.api
}

func TestAPIServerHealthIsOpen(t *testing.T) {
	srv := newTestServer(t, "secret")

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	srv.routes().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
}

func TestAPIServerRequiresToken(t *testing.T) {
	srv := newTestServer(t, "secret")
	handler := srv.routes()

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong", "Bearer nope", http.StatusUnauthorized},
		{"basic", "Basic secret", http.StatusUnauthorized},
		{"valid", "Bearer secret", http.StatusOK},
		{"lowercase scheme", "bearer secret", http.StatusOK},
		{"empty credential", "Bearer ", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d", w.Code, tt.want)
			}
			if tt.want == http.StatusUnauthorized && w.Header().Get("WWW-Authenticate") == "" {
				t.Fatal("expected WWW-Authenticate challenge")
			}
		})
	}
}

func TestAPIServerHandleStatus(t *testing.T) {
	srv := newTestServer(t, "")

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	w := httptest.NewRecorder()
	srv.handleStatus(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
	var resp api.DaemonStatus
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Running {
		t.Fatal("daemon was never started")
	}
	if resp.PID == 0 || resp.DatabasePath == "" {
		t.Fatalf("unexpected status %+v", resp)
	}
	if !resp.Database.Exists || resp.Database.SchemaVersion == 0 {
		t.Fatalf("unexpected database health %+v", resp.Database)
	}
}

func TestAPIServerHandleSessionsEmpty(t *testing.T) {
	srv := newTestServer(t, "")

	req := httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
	w := httptest.NewRecorder()
	srv.handleSessions(w, req)

	var resp api.SessionListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Sessions) != 0 {
		t.Fatalf("expected no sessions, got %d", len(resp.Sessions))
	}
}

func TestAPIServerRejectsPost(t *testing.T) {
	srv := newTestServer(t, "")

	req := httptest.NewRequest(http.MethodPost, "/api/sessions", nil)
	w := httptest.NewRecorder()
	srv.handleSessions(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", w.Code)
	}
}

func TestAPIServerListens(t *testing.T) {
	srv := newTestServer(t, "")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := srv.start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer srv.stop()

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get("http://" + srv.addr() + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}
