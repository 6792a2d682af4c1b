package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/marcus/tasksync/internal/clock"
	"github.com/marcus/tasksync/internal/store"
)

// newTestServer creates a Server backed by a temp sqlite file.
func newTestServer(t *testing.T) (*Server, *store.Store) {
	return newTestServerWithConfig(t, nil)
}

// newTestServerWithConfig creates a test server with a custom config modifier.
func newTestServerWithConfig(t *testing.T, modCfg func(*Config)) (*Server, *store.Store) {
	t.Helper()

	st, err := store.Open(store.Config{Path: filepath.Join(t.TempDir(), "tasksync.db")})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	cfg := Config{
		ListenAddr:     ":0",
		AllowSignup:    true,
		TokenTTL:       time.Hour,
		RateLimitAuth:  100000,
		RateLimitPush:  100000,
		RateLimitPull:  100000,
		RateLimitOther: 100000,
	}
	if modCfg != nil {
		modCfg(&cfg)
	}

	srv, err := NewServer(cfg, st, clock.NewMonotonic())
	if err != nil {
		t.Fatalf("create server: %v", err)
	}
	return srv, st
}

// createTestUser creates a user and bearer token, returning both.
func createTestUser(t *testing.T, st *store.Store, email string) (string, string) {
	t.Helper()
	hash := "not-a-real-hash"
	user, err := st.CreateUser(email, &hash, nil, "")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	token, _, err := st.GenerateToken(user.ID, "test", time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return user.ID, token
}

func doRequest(srv *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}

	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	srv.routes().ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doRequest(srv, "GET", "/healthz", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	resp := decodeBody[map[string]any](t, w)
	if resp["status"] != "ok" {
		t.Fatalf("expected status ok, got %v", resp["status"])
	}
	if resp["time"] == nil {
		t.Fatal("expected server time in health response")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv, st := newTestServer(t)
	_, token := createTestUser(t, st, "metrics@example.com")

	doRequest(srv, "POST", "/v1/sync/push", token, PushRequest{Tasks: []TaskIn{
		{ID: "99999999-9999-4999-8999-999999999999", Title: "t", Version: int64Ptr(1)},
	}})
	doRequest(srv, "GET", "/v1/sync/pull", token, nil)

	w := doRequest(srv, "GET", "/metricz", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	snap := decodeBody[MetricsSnapshot](t, w)
	if snap.PushRequests != 1 || snap.PullRequests != 1 {
		t.Fatalf("push=%d pull=%d, want 1/1", snap.PushRequests, snap.PullRequests)
	}
	if snap.TasksApplied != 1 {
		t.Fatalf("tasks applied = %d, want 1", snap.TasksApplied)
	}
	if snap.ActiveUsers != 1 {
		t.Fatalf("active users = %d, want 1", snap.ActiveUsers)
	}
}

func TestRequestIDHeader(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doRequest(srv, "GET", "/healthz", "", nil)
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected X-Request-ID header")
	}
}

func TestSyncEndpointsRequireAuth(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, tc := range []struct{ method, path string }{
		{"POST", "/v1/sync/push"},
		{"GET", "/v1/sync/pull"},
		{"GET", "/v1/sync/status"},
	} {
		w := doRequest(srv, tc.method, tc.path, "", nil)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401, got %d", tc.method, tc.path, w.Code)
		}
	}
}

func TestGarbageTokenRejected(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doRequest(srv, "GET", "/v1/sync/pull", "ts_live_garbagegarbagegarbagegarbage", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	resp := decodeBody[ErrorResponse](t, w)
	if resp.Error.Code != ErrCodeUnauthorized {
		t.Fatalf("error code = %s", resp.Error.Code)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	srv, st := newTestServer(t)

	hash := "h"
	user, err := st.CreateUser("expired@example.com", &hash, nil, "")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	token, _, err := st.GenerateToken(user.ID, "old", time.Nanosecond)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	time.Sleep(time.Millisecond)

	w := doRequest(srv, "GET", "/v1/sync/pull", token, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestAuthRateLimit(t *testing.T) {
	srv, _ := newTestServerWithConfig(t, func(cfg *Config) {
		cfg.RateLimitAuth = 3
	})

	body := LoginRequest{Email: "x@example.com", Password: "wrong"}
	for i := 0; i < 3; i++ {
		w := doRequest(srv, "POST", "/v1/auth/login", "", body)
		if w.Code == http.StatusTooManyRequests {
			t.Fatalf("request %d rate limited too early", i)
		}
	}
	w := doRequest(srv, "POST", "/v1/auth/login", "", body)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	resp := decodeBody[ErrorResponse](t, w)
	if resp.Error.Code != ErrCodeRateLimited {
		t.Fatalf("error code = %s", resp.Error.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := newTestServerWithConfig(t, func(cfg *Config) {
		cfg.CORSAllowedOrigins = []string{"https://app.example.com"}
	})

	req := httptest.NewRequest("OPTIONS", "/v1/auth/login", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	srv.routes().ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "https://app.example.com" {
		t.Fatalf("missing CORS header: %v", w.Header())
	}
	if w.Header().Get("Access-Control-Max-Age") == "" {
		t.Fatal("preflight response not cacheable")
	}
	if w.Header().Get("Vary") != "Origin" {
		t.Fatalf("Vary = %q, want Origin", w.Header().Get("Vary"))
	}

	// Unlisted origins get no CORS headers.
	req = httptest.NewRequest("GET", "/healthz", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	srv.routes().ServeHTTP(w, req)
	if w.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatal("CORS header set for unlisted origin")
	}
}
