package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/backend"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/sources"
	"fintrack/internal/storage"
	"fintrack/internal/worker"
)

// statsInterval is how often the worker logs its counters.
const statsInterval = 5 * time.Minute

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentWorker, os.Stdout)
	logger.Info("Starting fintrack-worker")

	if !cfg.QueueEnabled() {
		logger.Error("AMQP_URL is required to run the ingest worker")
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("Worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}

func run(cfg *config.Config, logger *log.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = log.NewContext(ctx, logger)

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return err
	}
	defer repo.Close()

	var mirror sources.RecordAppender
	if cfg.MirrorToSheets {
		backendCfg, err := backend.FromAppConfig(cfg)
		if err != nil {
			return err
		}
		sheets, err := backend.NewFactory(logger).CreateMirror(ctx, backendCfg)
		if err != nil {
			return err
		}
		mirror = sheets
	} else {
		logger.Info("Google Sheets mirror disabled")
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return err
	}
	defer client.Close()

	w := worker.NewIngestWorker(repo, mirror)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := client.Run(gctx, w.HandleRecordBatch)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		ticker := time.NewTicker(statsInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				logger.Info("Final worker stats", "stats", w.Stats())
				return nil
			case <-ticker.C:
				logger.Info("Worker stats", "stats", w.Stats())
			}
		}
	})
	return g.Wait()
}
