package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"staffhub_backend/internal/events"
	"staffhub_backend/internal/notification"
	"staffhub_backend/internal/pipeline"
	"staffhub_backend/internal/roster"
	"staffhub_backend/internal/scheduler"
	"staffhub_backend/internal/tasks"
	"staffhub_backend/platform/clock"
	"staffhub_backend/platform/config"
	"staffhub_backend/platform/db"
	"staffhub_backend/platform/logger"
	"staffhub_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)

	val := validator.New()
	clk := clock.Real{}

	// Worker-side pipeline wiring (no HTTP handlers required).
	notificationModule := notification.NewModule(pool, eventBus, cfg, cfg, log)
	rosterModule := roster.NewModule(pool, val)
	pipelineModule := pipeline.NewModule(pool, rosterModule.Repository(), eventBus, clk, cfg, val, log)
	tasksModule := tasks.NewModule(pool, eventBus, clk, cfg, cfg, log)

	pipelineModule.Service().SetTaskPlanner(tasksModule.Service())
	tasksModule.Service().SetRedistributor(pipelineModule.Service())
	tasksModule.Service().SetNotifier(notificationModule.Service())

	retryClient, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		panic("failed to initialize scheduler client: " + err.Error())
	}
	defer func() { _ = retryClient.Close() }()
	pipelineModule.Service().SetRetryScheduler(retryClient)

	sweeper := scheduler.NewOverdueSweeper(tasksModule.Service(), log, cfg.GetOverdueSweepInterval())
	go sweeper.Run(ctx)

	worker, err := scheduler.NewWorker(cfg, pool, pipelineModule.Service(), eventBus, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
