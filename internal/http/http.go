package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"tradingdash/internal/config"
	"tradingdash/internal/http/middleware"
	"tradingdash/internal/logging"
	"tradingdash/internal/web"
	"tradingdash/resources"
)

// Pinger is the readiness dependency; *pgxpool.Pool satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewMux wires the dashboard routes. db may be nil when no database is configured.
func NewMux(cfg *config.Config, db Pinger) (*http.ServeMux, error) {
	mux := http.NewServeMux()

	rend, err := web.NewRenderer()
	if err != nil {
		return nil, err
	}

	mux.Handle("GET /{$}", &DashboardHandler{Config: cfg, TPL: rend})
	mux.Handle("GET /static/", http.StripPrefix("/static/", noDirListing(http.FileServerFS(resources.FS))))

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.Handle("GET /readyz", &ReadyHandler{DB: db})

	return mux, nil
}

// WithStandardMiddleware wraps next with logging, security headers and the
// per-client rate limiter. A nil limiter lets everything through.
func WithStandardMiddleware(next http.Handler, rl *middleware.RateLimiter) http.Handler {
	return requestLogger(securityHeaders(middleware.RateLimit(rl)(next)))
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := r.Header.Get("X-Request-ID")
		if !validRequestID(reqID) {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", reqID)

		l := slog.Default().With("request_id", reqID)
		ww := &wrapWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(ww, r.WithContext(logging.WithLogger(r.Context(), l)))
		l.Info("http.request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// noDirListing 404s directory paths so only files under resources are served.
func noDirListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const maxRequestIDLen = 128

// validRequestID accepts up to maxRequestIDLen of [A-Za-z0-9-].
func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-':
		default:
			return false
		}
	}
	return true
}

type wrapWriter struct {
	http.ResponseWriter
	status int
}

func (w *wrapWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
