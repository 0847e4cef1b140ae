package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"igreja/internal/backend"
	"igreja/internal/cache"
	"igreja/internal/cli"
	"igreja/internal/config"
	"igreja/internal/core"
	apphttp "igreja/internal/http"
	applog "igreja/internal/log"
	"igreja/internal/services"
)

func main() {
	cfg := cli.LoadAndValidateConfig((*config.Config).Validate)
	logger := cli.SetupLogger(cfg.LogLevel, cfg.LogFormat, applog.ComponentApp)

	ctx, stop := cli.SignalContext()
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.ErrorContext(ctx, "Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to initialize backend", applog.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.ErrorContext(context.Background(), "Backend cleanup failed", applog.FieldError, err)
		}
	}()

	caches := cache.NewManager(logger.Logger)
	var panels cache.Cache[int, core.AnnualPanel]
	if cfg.PanelCacheSize > 0 {
		lru := cache.NewLRUCache[int, core.AnnualPanel](cfg.PanelCacheSize, cfg.PanelCacheTTL)
		caches.Register(lru)
		panels = lru
	}

	reports := services.NewReportService(res.Store, panels)
	changes := services.Notifiers{reports, services.PublishNotifier(res.Publisher)}
	registry := services.NewRegistryService(res.Store, changes)
	ledger := services.NewLedgerService(res.Store, changes)

	srv := apphttp.NewServer(":"+cfg.Port, registry, ledger, reports, res.Store, apphttp.Options{
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             logger,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.InfoContext(gctx, "Starting igreja server", "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		caches.Run(gctx, time.Minute)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.InfoContext(context.Background(), "Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.ErrorContext(context.Background(), "Server error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.InfoContext(context.Background(), "Server stopped gracefully")
}
