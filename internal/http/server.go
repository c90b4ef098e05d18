// Package http exposes the expense ledger as a JSON API: record CRUD,
// receipt encoding, dashboard and report views, and backup import/export.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync"
	"time"

	"registro/internal/cache"
	"registro/internal/ledger"
	applog "registro/internal/log"
	"registro/internal/receipt"
)

type Server struct {
	http.Server

	ledger      *ledger.Ledger
	codec       *receipt.Codec
	rateLimiter *rateLimiter

	// viewCache holds rendered dashboard and report responses; any write to
	// the ledger flushes it wholesale.
	viewCache *cache.LRU[[]byte]

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once

	now func() time.Time
}

// Options tune the server's response cache.
type Options struct {
	CacheSize int
	CacheTTL  time.Duration
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, l *ledger.Ledger, opts Options) *Server {
	if opts.CacheSize <= 0 {
		opts.CacheSize = 64
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 30 * time.Second
	}

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		ledger:           l,
		codec:            receipt.NewCodec(),
		rateLimiter:      newRateLimiter(),
		viewCache:        cache.NewLRU[[]byte](opts.CacheSize, opts.CacheTTL),
		stopCacheCleanup: make(chan struct{}),
		now:              time.Now,
	}
	go s.startCacheCleanup()

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("GET /factories", s.with(s.handleListFactories))
	mux.HandleFunc("GET /settings", s.with(s.handleGetSettings))
	mux.HandleFunc("PUT /settings", s.with(s.handleSaveSettings))

	mux.HandleFunc("GET /expenses", s.with(s.handleListExpenses))
	mux.HandleFunc("POST /expenses", s.with(s.handleCreateExpense))
	mux.HandleFunc("GET /expenses/{id}", s.with(s.handleGetExpense))
	mux.HandleFunc("PUT /expenses/{id}", s.with(s.handleUpdateExpense))
	mux.HandleFunc("DELETE /expenses/{id}", s.with(s.handleDeleteExpense))
	mux.HandleFunc("GET /expenses/{id}/receipts/{attachmentId}", s.with(s.handleDownloadReceipt))

	mux.HandleFunc("POST /receipts/encode", s.with(s.handleEncodeReceipts))

	mux.HandleFunc("GET /dashboard", s.with(s.handleDashboard))
	mux.HandleFunc("GET /report", s.with(s.handleReport))
	mux.HandleFunc("GET /report.xlsx", s.with(s.handleReportXLSX))

	mux.HandleFunc("GET /backup/export", s.with(s.handleExportBackup))
	mux.HandleFunc("POST /backup/import", s.with(s.handleImportBackup))
	mux.HandleFunc("POST /reset", s.with(s.handleReset))

	logger := applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentHTTP)
	s.Server.Handler = applog.Middleware(logger)(mux)

	return s
}

// startCacheCleanup runs periodic cleanup for the response cache.
func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.viewCache.CleanExpired()
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// Shutdown gracefully shuts down the server and its cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		close(s.stopCacheCleanup)
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// with adds security headers, rate limiting for mutating methods, and
// request logging.
func (s *Server) with(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		if isMutating(r.Method) && !s.rateLimiter.allow(clientIP) {
			w.Header().Set("Retry-After", "60")
			writeError(w, r, http.StatusTooManyRequests, "rate_limited", "Rate limit exceeded. Please try again later.")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		logRequest(ctx, r, rw.statusCode, time.Since(start), clientIP)
	}
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodDelete:
		return true
	default:
		return false
	}
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

type contextKey string

const requestIDKey contextKey = "request_id"

// generateRequestID creates a unique request ID for tracing
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// flushViews drops every cached dashboard and report response. Called after
// each successful mutation.
func (s *Server) flushViews() {
	s.viewCache.Flush()
}
