package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tradingdash/internal/config"
	"tradingdash/internal/db"
	apphttp "tradingdash/internal/http"
	"tradingdash/internal/http/middleware"
	"tradingdash/internal/logging"
)

func main() {
	cfgPath := "config.yaml"
	if p := os.Getenv("TRADINGDASH_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil && cfg == nil {
		panic(err)
	}

	l := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	slog.SetDefault(l)

	if err != nil {
		slog.Warn("Could not get config file. Will run with default values", "path", cfgPath, "err", err)
	}

	var ready apphttp.Pinger
	if cfg.Database.Enabled() {
		appURL, err := cfg.Database.AppURL()
		if err != nil {
			slog.Error("db.url", "err", err)
			os.Exit(1)
		}
		ctxpool, cancelpool := context.WithTimeout(context.Background(), 20*time.Second)
		pool, err := db.NewPool(ctxpool, appURL)
		cancelpool()
		if err != nil {
			slog.Error("db.pool", "err", err)
			os.Exit(1)
		}
		defer pool.Close()
		ready = pool
	}

	trusted, err := cfg.TrustedProxyPrefixes()
	if err != nil {
		slog.Error("http.trusted_proxies", "err", err)
		os.Exit(1)
	}
	limiter := middleware.PerMinute(cfg.RequestsPerMinute()).TrustProxies(trusted)

	mux, err := apphttp.NewMux(cfg, ready)
	if err != nil {
		slog.Error("Couldn't parse templates", "err", err)
		os.Exit(1)
	}
	srv := &http.Server{
		Addr:         cfg.HTTP.Address, // e.g. ":8080"
		Handler:      apphttp.WithStandardMiddleware(mux, limiter),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start
	go func() {
		slog.Info("http.starting", "addr", cfg.HTTP.Address, "backend", cfg.Backend.HealthURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http.listen", "err", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	slog.Info("http.shutting_down")
	_ = srv.Shutdown(ctx)
	slog.Info("http.stopped")
}
