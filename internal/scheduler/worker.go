package scheduler

import (
	"context"
	"fmt"

	"sourcing_backend/platform/apperr"
	"sourcing_backend/platform/config"
	"sourcing_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// BatchRunner executes one sourcing batch end to end.
type BatchRunner interface {
	Run(ctx context.Context, batchID string, dryRun bool) error
}

// BatchRunnerFunc adapts a function to the BatchRunner interface.
type BatchRunnerFunc func(ctx context.Context, batchID string, dryRun bool) error

func (f BatchRunnerFunc) Run(ctx context.Context, batchID string, dryRun bool) error {
	return f(ctx, batchID, dryRun)
}

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	runner BatchRunner
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, runner BatchRunner, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 1
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		runner: runner,
		log:    log,
	}

	mux.HandleFunc(TaskBatchRun, w.handleBatchRun)

	return w, nil
}

func (w *Worker) handleBatchRun(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseBatchRunPayload(task)
	if err != nil {
		return err
	}
	if payload.BatchID == "" {
		return fmt.Errorf("batch run task without batch id")
	}

	w.log.Info("batch run task received", "batch_id", payload.BatchID, "dry_run", payload.DryRun)

	if err := w.runner.Run(ctx, payload.BatchID, payload.DryRun); err != nil {
		// Someone else holds the run lock for this batch; retrying
		// would only collide again.
		if apperr.Is(err, apperr.KindConflict) {
			w.log.Warn("batch already running", "batch_id", payload.BatchID)
			return nil
		}
		return err
	}
	return nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
