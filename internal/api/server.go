// Package api exposes the tasksync HTTP surface: token auth, the push/pull
// sync endpoints, and the health/metrics operational endpoints.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/marcus/tasksync/internal/clock"
	"github.com/marcus/tasksync/internal/store"
)

// Server is the HTTP API server for tasksyncd.
type Server struct {
	config      Config
	http        *http.Server
	store       *store.Store
	clock       clock.Clock
	metrics     *Metrics
	rateLimiter *RateLimiter
	cancel      context.CancelFunc
}

// NewServer creates a new Server with the given config, store, and clock.
func NewServer(cfg Config, st *store.Store, clk clock.Clock) (*Server, error) {
	s := &Server{
		config:      cfg,
		store:       st,
		clock:       clk,
		metrics:     NewMetrics(),
		rateLimiter: NewRateLimiter(),
	}

	s.http = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      s.routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// Start begins listening for HTTP requests (non-blocking).
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	go func() {
		if err := s.http.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("http server", "err", err)
		}
	}()

	// Periodically delete expired auth tokens
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("token purge panic", "panic", r)
			}
		}()
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := s.store.PurgeExpiredTokens(time.Now().UTC())
				if err != nil {
					slog.Error("purge expired tokens", "err", err)
				} else if n > 0 {
					slog.Info("purged expired tokens", "count", n)
				}
			}
		}
	}()

	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}
	return s.http.Shutdown(ctx)
}

// routes builds the HTTP handler with all routes and middleware.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	// Health & metrics
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /metricz", s.handleMetrics)

	// Auth (public, IP rate-limited by the global middleware)
	mux.HandleFunc("POST /v1/auth/register", s.handleRegister)
	mux.HandleFunc("POST /v1/auth/login", s.handleLogin)
	mux.HandleFunc("POST /v1/auth/apple", s.handleAppleSignIn)

	// Sync
	mux.HandleFunc("POST /v1/sync/push", s.requireAuth(s.withRateLimit(s.handlePush, s.config.RateLimitPush)))
	mux.HandleFunc("GET /v1/sync/pull", s.requireAuth(s.withRateLimit(s.handlePull, s.config.RateLimitPull)))
	mux.HandleFunc("GET /v1/sync/status", s.requireAuth(s.withRateLimit(s.handleStatus, s.config.RateLimitOther)))

	return chain(mux, recoveryMiddleware, requestIDMiddleware, loggerMiddleware, metricsMiddleware(s.metrics), loggingMiddleware, maxBytesMiddleware(10<<20), authRateLimitMiddleware(s.rateLimiter, s.config.RateLimitAuth), s.CORSMiddleware)
}

// handleHealth returns a health check response, pinging the store.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "degraded", "time": s.clock.Now()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "time": s.clock.Now()})
}

// handleMetrics returns a snapshot of server metrics.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.metrics.Snapshot())
}
