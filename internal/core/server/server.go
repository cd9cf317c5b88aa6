package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mohammed-shakir/hexproximity/internal/core/config"
	"github.com/mohammed-shakir/hexproximity/internal/core/health"
	middleware "github.com/mohammed-shakir/hexproximity/internal/core/middleware"
	"github.com/mohammed-shakir/hexproximity/internal/core/router"
	"github.com/mohammed-shakir/hexproximity/internal/metrics"
)

type Options struct {
	Deps router.Deps
	// Metrics is served on the main listener unless it has its own address.
	Metrics *metrics.Provider
	// Ready lists the dependencies /readyz pings, by name.
	Ready map[string]health.Pinger
}

// Handler builds the full route tree.
func Handler(cfg config.Config, logger *slog.Logger, opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recover(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS())

	r.Get("/healthz", health.Liveness())
	r.Get("/readyz", health.Readiness(opts.Ready))
	if opts.Metrics != nil && cfg.MetricsEnabled && !opts.Metrics.Dedicated() {
		r.Get(opts.Metrics.Path(), opts.Metrics.Handler().ServeHTTP)
	}
	router.Mount(r, logger, cfg, opts.Deps)
	return r
}

// sets up http and starts serving
func Run(ctx context.Context, cfg config.Config, logger *slog.Logger, opts Options) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           Handler(cfg, logger, opts),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listen", "addr", cfg.Addr, "backend", opts.Deps.Grid.Name())
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
