// Command worker consumes queued batch run tasks and executes them.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sourcing_backend/internal/marketplace"
	"sourcing_backend/internal/notification"
	"sourcing_backend/internal/results"
	"sourcing_backend/internal/rfqlines"
	"sourcing_backend/internal/scheduler"
	"sourcing_backend/internal/sourcing"
	"sourcing_backend/internal/sourcing/selection"
	"sourcing_backend/platform/config"
	"sourcing_backend/platform/db"
	"sourcing_backend/platform/logger"
	"sourcing_backend/platform/pacing"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting worker", "env", cfg.Env)

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

	if err := db.RunMigrations(ctx, cfg, "migrations"); err != nil {
		log.Error("failed to run migrations", "error", err)
		panic("failed to run migrations: " + err.Error())
	}

	runner := scheduler.BatchRunnerFunc(func(ctx context.Context, batchID string, dryRun bool) error {
		r, err := buildRunner(ctx, cfg, pool, log, dryRun)
		if err != nil {
			return err
		}
		_, err = r.Run(ctx, batchID)
		return err
	})

	worker, err := scheduler.NewWorker(cfg, runner, log)
	if err != nil {
		log.Error("failed to initialize worker", "error", err)
		panic("failed to initialize worker: " + err.Error())
	}

	worker.Run(ctx)
}

// buildRunner wires a batch runner for one task. Dry run is a per-task
// property, so the runner is built per execution rather than once at boot.
func buildRunner(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, log *logger.Logger, dryRun bool) (*sourcing.Runner, error) {
	pipeline := selection.NewPipeline(selection.ParamsFromConfig(cfg), nil, log)

	orch, err := sourcing.NewOrchestrator(sourcing.Options{
		Marketplace: marketplace.NewClient(cfg, log),
		Sink:        results.NewRepository(pool),
		Pipeline:    pipeline,
		Sleeper:     pacing.New(cfg.GetJitterRange()),
		Logger:      log,
		WorkerCount: cfg.GetWorkerCount(),
		DryRun:      dryRun,
	})
	if err != nil {
		return nil, err
	}

	opts := sourcing.RunnerOptions{
		Lines:        rfqlines.NewRepository(pool, log),
		Orchestrator: orch,
		Reports:      results.NewReportWriter(cfg.GetOutputDir()),
		Logger:       log,
		LockDir:      cfg.GetLockDir(),
		DryRun:       dryRun,
	}

	if cfg.IsMinIOEnabled() {
		storage, err := results.NewStorage(cfg)
		if err != nil {
			return nil, err
		}
		if err := storage.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		opts.Uploader = storage
	}
	if cfg.GetEmailEnabled() {
		opts.Notifier = notification.NewSummarySender(cfg)
	}

	return sourcing.NewRunner(opts)
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
