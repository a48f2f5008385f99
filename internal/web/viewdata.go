package web

import "tradingdash/internal/config"

// HeaderData is rendered by the shared header partial on every page.
type HeaderData struct {
	Title      string
	BackendURL string // link text
	HealthURL  string // link destination; html/template still sanitizes unsafe schemes
}

// Page wraps shared Header + page-specific Content.
type Page[T any] struct {
	Header  HeaderData
	Content T
}

type DashboardContent struct {
	Status string
}

// Dashboard builds the dashboard view from configuration.
func Dashboard(cfg *config.Config) Page[DashboardContent] {
	return Page[DashboardContent]{
		Header: HeaderData{
			Title:      cfg.Dashboard.Title,
			BackendURL: cfg.Backend.URL,
			HealthURL:  cfg.Backend.HealthURL,
		},
		Content: DashboardContent{Status: cfg.Dashboard.Status},
	}
}

// DefaultDashboard is the dashboard with no configuration applied.
func DefaultDashboard() Page[DashboardContent] {
	var cfg config.Config
	cfg.Defaults()
	return Dashboard(&cfg)
}
