// Package http exposes the ledger as a local JSON API. The browser UI is a
// thin client of these routes; all validation and aggregation stays server
// side in the service layer.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync"
	"time"

	"registro/internal/log"
	"registro/internal/services"
)

type Server struct {
	http.Server
	svc         *services.LedgerService
	logger      *log.Logger
	rateLimiter *rateLimiter
	recentLimit int

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, svc *services.LedgerService, recentLimit int, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		svc:         svc,
		logger:      logger.WithComponent("http"),
		rateLimiter: newRateLimiter(),
		recentLimit: recentLimit,
	}

	mux.HandleFunc("GET /healthz", handleHealth)

	mux.HandleFunc("GET /api/transactions", s.withMiddleware(s.handleRecent))
	mux.HandleFunc("POST /api/transactions", s.withMiddleware(s.handleCommit))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.withMiddleware(s.handleDelete))
	mux.HandleFunc("POST /api/transactions/{id}/paid", s.withMiddleware(s.handleTogglePaid))

	mux.HandleFunc("GET /api/query", s.withMiddleware(s.handleQuery))
	mux.HandleFunc("GET /api/credit", s.withMiddleware(s.handleCredit))

	mux.HandleFunc("GET /api/categories", s.withMiddleware(s.handleListCategories))
	mux.HandleFunc("POST /api/categories", s.withMiddleware(s.handleAddCategory))
	mux.HandleFunc("DELETE /api/categories/{name}", s.withMiddleware(s.handleRemoveCategory))
	mux.HandleFunc("GET /api/categories/{name}/subcategories", s.withMiddleware(s.handleSubCategories))

	mux.HandleFunc("GET /api/export", s.withMiddleware(s.handleExport))
	mux.HandleFunc("POST /api/import", s.withMiddleware(s.handleImport))
	mux.HandleFunc("POST /api/purge", s.withMiddleware(s.handlePurge))

	return s
}

// Shutdown stops the rate limiter cleanup goroutine and the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withMiddleware adds security headers, rate limiting on mutations, a request
// ID and request logging.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		// Mutations are rate limited; reads are not.
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			s.logger.WarnContext(ctx, "Rate limit exceeded",
				"request_id", requestID, "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'self'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		s.logger.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", clientIP)
	}
}

type requestIDKey struct{}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
