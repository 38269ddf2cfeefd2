package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/use-agent/linkcard/api"
	"github.com/use-agent/linkcard/browser"
	"github.com/use-agent/linkcard/config"
	"github.com/use-agent/linkcard/engine"
	"github.com/use-agent/linkcard/fetcher"
	"github.com/use-agent/linkcard/metrics"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	slog.SetDefault(slog.New(cfg.Log.Handler(os.Stdout)))
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	slog.Info("linkcard starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"fetchMode", cfg.Fetch.Mode,
		"browser", cfg.Browser.Enabled,
	)

	// ── 3. Initialise engines ───────────────────────────────────────
	httpOpts := []engine.HTTPOption{engine.WithTimeout(cfg.Fetch.Timeout)}
	if cfg.Fetch.Proxy != "" {
		httpOpts = append(httpOpts, engine.WithProxy(cfg.Fetch.Proxy))
	}
	engines := []engine.Engine{engine.NewHTTPEngine(httpOpts...)}

	// ── 3b. Optional browser engine (launches Chrome) ───────────────
	if cfg.Browser.Enabled {
		b, err := browser.New(cfg.Browser)
		if err != nil {
			slog.Error("failed to launch browser", "error", err)
			os.Exit(1)
		}
		defer b.Close()

		// engine/ never imports browser/; the renderer is handed over as a func.
		engines = append(engines, engine.NewRodEngine(b.Render))
	}

	// ── 4. Initialise fetchers and metrics ──────────────────────────
	m := metrics.New()
	registry := engine.NewRegistry(cfg.Fetch.Mode, engines...)
	modes := fetcher.NewModes(registry, fetcher.WithMetrics(m))
	slog.Info("fetch engines ready", "modes", registry.Modes())

	// ── 5. Setup router ─────────────────────────────────────────────
	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	router := api.NewRouter(ctx, modes, cfg, m, time.Now())

	// ── 6. Start HTTP server ────────────────────────────────────────
	addr := cfg.Addr()
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 7. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	// Give in-flight requests 5 seconds to complete.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	slog.Info("linkcard stopped")
}
