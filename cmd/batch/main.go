// Command batch runs one sourcing batch from the command line, or queues it
// for the background worker with -enqueue.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
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
	"sourcing_backend/platform/apperr"
	"sourcing_backend/platform/config"
	"sourcing_backend/platform/db"
	"sourcing_backend/platform/logger"
	"sourcing_backend/platform/pacing"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "select offers but do not submit inquiries")
	enqueue := flag.Bool("enqueue", false, "queue the batch for the background worker instead of running it here")
	at := flag.String("at", "", "with -enqueue: RFC3339 time to run the batch at")
	reportOnly := flag.Bool("report-only", false, "rebuild the report from stored outcomes, no marketplace contact")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: batch [-dry-run] [-enqueue [-at <time>]] [-report-only] <batch-id>")
		os.Exit(2)
	}
	batchID := flag.Arg(0)

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	if *dryRun {
		cfg.DryRun = true
	}

	log := logger.New(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *enqueue {
		if err := enqueueBatch(ctx, cfg, batchID, *at); err != nil {
			log.Error("failed to enqueue batch", "batch_id", batchID, "error", err)
			os.Exit(1)
		}
		log.Info("batch queued", "batch_id", batchID, "dry_run", cfg.DryRun)
		return
	}

	log.Info("starting batch", "batch_id", batchID, "dry_run", cfg.DryRun)

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

	if *reportOnly {
		if err := rebuildReport(ctx, cfg, pool, batchID); err != nil {
			log.Error("report rebuild failed", "batch_id", batchID, "error", err)
			os.Exit(1)
		}
		log.Info("report rebuilt", "batch_id", batchID)
		return
	}

	runner, err := buildRunner(ctx, cfg, pool, log, cfg.DryRun)
	if err != nil {
		log.Error("failed to initialize batch runner", "error", err)
		panic("failed to initialize batch runner: " + err.Error())
	}

	if _, err := runner.Run(ctx, batchID); err != nil {
		if apperr.Is(err, apperr.KindConflict) {
			log.Warn("batch already running elsewhere", "batch_id", batchID)
			os.Exit(1)
		}
		log.Error("batch failed", "batch_id", batchID, "error", err)
		os.Exit(1)
	}
}

func rebuildReport(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, batchID string) error {
	outcomes, err := results.NewRepository(pool).ByBatch(ctx, batchID)
	if err != nil {
		return err
	}
	if len(outcomes) == 0 {
		return fmt.Errorf("no stored outcomes for batch %s", batchID)
	}
	_, err = results.NewReportWriter(cfg.GetOutputDir()).Write(batchID, outcomes)
	return err
}

func enqueueBatch(ctx context.Context, cfg *config.Config, batchID, at string) error {
	client, err := scheduler.NewClient(cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	payload := scheduler.BatchRunPayload{BatchID: batchID, DryRun: cfg.DryRun}
	if at == "" {
		return client.EnqueueBatchRun(ctx, payload)
	}
	runAt, err := time.Parse(time.RFC3339, at)
	if err != nil {
		return fmt.Errorf("invalid -at time: %w", err)
	}
	return client.ScheduleBatchRun(ctx, payload, runAt)
}

// buildRunner wires the full batch pipeline: marketplace sessions, selection
// parameters, outcome persistence, report output, optional archiving and the
// optional summary email.
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
