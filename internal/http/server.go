// Package http exposes the transaction API over JSON.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync"
	"time"

	"ledger/internal/cache"
	"ledger/internal/core"
	applog "ledger/internal/log"
	"ledger/internal/service"
)

type Server struct {
	http.Server
	svc         *service.Service
	logger      *applog.Logger
	rateLimiter *rateLimiter

	// summaryCache keys summary responses by raw query string and is purged
	// on every successful write.
	summaryCache     *cache.LRUCache[core.Summary]
	stopCacheCleanup chan struct{}

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, svc *service.Service, logger *applog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		svc:              svc,
		logger:           logger,
		rateLimiter:      newRateLimiter(),
		summaryCache:     cache.NewLRUCache[core.Summary](100, 5*time.Minute),
		stopCacheCleanup: make(chan struct{}),
	}

	go s.startCacheCleanup()

	mux.HandleFunc("POST /api/transactions", s.withMiddleware(s.handleCreate))
	mux.HandleFunc("GET /api/transactions", s.withMiddleware(s.handleList))
	mux.HandleFunc("GET /api/transactions/summary", s.withMiddleware(s.handleSummary))
	mux.HandleFunc("GET /api/transactions/{id}", s.withMiddleware(s.handleGet))
	mux.HandleFunc("PUT /api/transactions/{id}", s.withMiddleware(s.handleUpdate))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.withMiddleware(s.handleDelete))
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)

	return s
}

// Shutdown stops the rate limiter cleanup and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		close(s.stopCacheCleanup)
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// startCacheCleanup periodically drops expired summary entries.
func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.summaryCache.CleanExpired()
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// withMiddleware adds request IDs, logging, rate limiting and security
// headers around a handler. Rate limiting applies to mutating methods only.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)

		requestID := generateRequestID()
		ctx := r.Context()
		if s.logger != nil {
			ctx = applog.IntoContext(ctx, s.logger.With(applog.FieldRequestID, requestID))
		}
		r = r.WithContext(ctx)

		applog.HTTPStart(ctx, r, clientIP)

		if isMutating(r.Method) && !s.rateLimiter.allow(clientIP) {
			applog.FromContext(ctx).WithComponent(applog.ComponentRateLimit).
				WarnContext(ctx, "Rate limit exceeded",
					applog.FieldClientIP, clientIP,
					applog.FieldMethod, r.Method,
					applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeJSON(w, http.StatusTooManyRequests, errorEnvelope{
				Status:  "error",
				Message: "Rate limit exceeded. Please try again later.",
			})
			return
		}

		setSecurityHeaders(w)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		applog.HTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	}
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp if random fails
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Ready(r.Context()); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
