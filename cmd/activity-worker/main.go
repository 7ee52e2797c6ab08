package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"expensetracker/internal/amqp"
	"expensetracker/internal/config"
	applog "expensetracker/internal/log"
	"expensetracker/internal/storage"
	"expensetracker/internal/worker"
)

const statsInterval = time.Minute

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()
	logCfg := applog.DefaultConfig()
	logCfg.Format = cfg.LogFormat
	logCfg.Component = applog.ComponentWorker
	if level, err := applog.ParseLevel(cfg.LogLevel); err == nil {
		logCfg.Level = level
	}
	logger := applog.New(logCfg)
	applog.SetDefault(logger)

	logger.Info("Starting activity worker")

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the activity worker")
		os.Exit(1)
	}

	// The worker writes to the same database the API reads activity from.
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", applog.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w := worker.NewActivityWorker(repo)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return client.ConsumeActivity(gctx, w.HandleActivityMessage)
	})
	g.Go(func() error {
		ticker := time.NewTicker(statsInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				processed, failed := w.Stats()
				logger.Info("Activity worker stats", "processed", processed, "failed", failed)
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", applog.FieldError, err)
		os.Exit(1)
	}

	processed, failed := w.Stats()
	logger.Info("Activity worker stopped", "processed", processed, "failed", failed)
}
