package http

import (
	"bytes"
	"io"
	"net/http"

	"tradingdash/internal/config"
	"tradingdash/internal/logging"
	"tradingdash/internal/web"
)

// Renderer executes a named page; *web.Renderer satisfies it.
type Renderer interface {
	Render(w io.Writer, name string, data any) error
}

type DashboardHandler struct {
	Config *config.Config
	TPL    Renderer
}

func (h *DashboardHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	page := web.Dashboard(h.Config)

	var buf bytes.Buffer
	if err := h.TPL.Render(&buf, "dashboard", page); err != nil {
		logging.From(r.Context()).Error("could not render", "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
