package http

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradingdash/internal/config"
	"tradingdash/internal/http/middleware"
	"tradingdash/internal/logging"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

type failingRenderer struct{}

func (failingRenderer) Render(w io.Writer, _ string, _ any) error {
	_, _ = w.Write([]byte("<html><partial"))
	return errors.New("boom")
}

func defaultConfig() *config.Config {
	var cfg config.Config
	cfg.Defaults()
	return &cfg
}

func newServer(t *testing.T, db Pinger, rl *middleware.RateLimiter) *httptest.Server {
	t.Helper()
	mux, err := NewMux(defaultConfig(), db)
	require.NoError(t, err)
	srv := httptest.NewServer(WithStandardMiddleware(mux, rl))
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, srv *httptest.Server, path string) (*http.Response, string) {
	t.Helper()
	resp, err := srv.Client().Get(srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestDashboardPage(t *testing.T) {
	srv := newServer(t, nil, nil)

	resp, body := get(t, srv, "/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Contains(t, body, "Algorithmic Trading Platform")
	assert.Contains(t, body, `href="http://localhost:5000/health"`)
	assert.Contains(t, body, "Setting up the trading dashboard...")

	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	assert.Equal(t, "no-referrer", resp.Header.Get("Referrer-Policy"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestDashboardIsIdempotent(t *testing.T) {
	srv := newServer(t, nil, nil)

	_, first := get(t, srv, "/")
	_, second := get(t, srv, "/")
	assert.Equal(t, first, second)
}

func TestUnknownPathIsNotFound(t *testing.T) {
	srv := newServer(t, nil, nil)

	resp, _ := get(t, srv, "/orders")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStaticAssets(t *testing.T) {
	srv := newServer(t, nil, nil)

	resp, body := get(t, srv, "/static/app.css")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, ".App-header")
}

func TestHealthAndReady(t *testing.T) {
	srv := newServer(t, nil, nil)

	resp, body := get(t, srv, "/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body)

	resp, body = get(t, srv, "/readyz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ready", body)
}

func TestReadyReflectsDatabase(t *testing.T) {
	srv := newServer(t, fakePinger{}, nil)
	resp, _ := get(t, srv, "/readyz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	srv = newServer(t, fakePinger{err: errors.New("down")}, nil)
	resp, body := get(t, srv, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, body, "not ready")
}

func TestRequestIDIsEchoed(t *testing.T) {
	srv := newServer(t, nil, nil)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/healthz", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "abc-123")
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "abc-123", resp.Header.Get("X-Request-ID"))
}

func TestRateLimited(t *testing.T) {
	srv := newServer(t, nil, middleware.PerMinute(1))

	resp, _ := get(t, srv, "/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = get(t, srv, "/healthz")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestDashboardTemplateFailure(t *testing.T) {
	var logs bytes.Buffer
	l := logging.New(logging.Options{Output: &logs})
	h := &DashboardHandler{Config: defaultConfig(), TPL: failingRenderer{}}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(logging.WithLogger(req.Context(), l))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "template error\n", rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "partial")
	assert.NotEqual(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, logs.String(), `"level":"ERROR"`)
	assert.Contains(t, logs.String(), "boom")
}

func TestRequestIDRejectsUnsafeValues(t *testing.T) {
	srv := newServer(t, nil, nil)

	for _, id := range []string{strings.Repeat("a", 129), "abc def", "a;b=<x>"} {
		req, err := http.NewRequest(http.MethodGet, srv.URL+"/healthz", nil)
		require.NoError(t, err)
		req.Header.Set("X-Request-ID", id)
		resp, err := srv.Client().Do(req)
		require.NoError(t, err)
		resp.Body.Close()

		got := resp.Header.Get("X-Request-ID")
		assert.NotEqual(t, id, got)
		assert.Len(t, got, 36, "replaced with a uuid")
	}

	assert.True(t, validRequestID(strings.Repeat("A-9", 42)))
	assert.False(t, validRequestID(""))
}

func TestStaticDirectoryIsNotListed(t *testing.T) {
	srv := newServer(t, nil, nil)

	resp, body := get(t, srv, "/static/")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.NotContains(t, body, "app.css")
}
