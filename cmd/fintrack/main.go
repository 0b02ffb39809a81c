package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/backend"
	"fintrack/internal/cache"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	apphttp "fintrack/internal/http"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/services"
	"fintrack/internal/sources"
)

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentApp, os.Stdout)

	if err := run(cfg, logger); err != nil {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(cfg *config.Config, logger *log.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	factory := backend.NewFactory(logger)
	result, err := factory.CreateBackend(ctx, backendCfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := result.Close(); err != nil {
			logger.Error("Failed to close backend", log.FieldError, err)
		}
	}()
	be := result.Backend

	snapshots := cache.NewLRUCache[sources.Result](cfg.SnapshotCacheSize, cfg.SnapshotCacheTTL)
	cacheManager := cache.NewManager()
	cacheManager.Register(snapshots)
	cacheManager.StartCleanup(cfg.CacheCleanupInterval)
	defer cacheManager.Stop()

	loader := sources.NewLoader(sources.NewFetcher(be.Source, cfg.FetchTimeout), snapshots)

	pingers := map[string]sources.Pinger{}
	if be.Pinger != nil {
		pingers[be.Type.String()] = be.Pinger
	}

	var publisher services.Publisher
	if cfg.QueueEnabled() {
		if queue := factory.CreateQueue(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue); queue != nil {
			defer queue.Close()
			publisher = queue
			pingers["amqp"] = queue
		}
	}
	ingest := services.NewIngestService(be.Appender, publisher, loader)

	limiter := ratelimit.NewLimiter(ratelimit.Config{Requests: cfg.IngestRateLimit, Window: time.Minute})
	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Loader:   loader,
		Ingest:   ingest,
		Batches:  be.Batches,
		Limiter:  limiter,
		Pingers:  pingers,
		Currency: cfg.Currency,
		Logger:   logger,
	})
	srv.MaxHeaderBytes = 1 << 16

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting fintrack server",
			"port", cfg.Port, log.FieldBackend, be.Type, "queue", publisher != nil, "currency", cfg.Currency)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server", log.FieldOperation, log.OpShutdown)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
