package sourcing

import (
	"context"
	"time"

	"sourcing_backend/internal/sourcing/domain"
	"sourcing_backend/internal/sourcing/ports"
	"sourcing_backend/platform/apperr"
	"sourcing_backend/platform/logger"
	"sourcing_backend/platform/runlock"
	"sourcing_backend/platform/validator"
)

// ReportWriter renders a finished batch to a report file.
type ReportWriter interface {
	Write(batchID string, outcomes []domain.SubmissionOutcome) (string, error)
}

// ReportUploader archives a report file in object storage.
type ReportUploader interface {
	UploadReport(ctx context.Context, batchID, path string) (string, error)
}

// SummaryNotifier delivers the batch summary to the purchasing team.
type SummaryNotifier interface {
	SendSummary(ctx context.Context, summary *Summary, dryRun bool, reportPath string) error
}

// Runner executes one complete batch: run lock, line loading, dispatch,
// report, archive and notification.
type Runner struct {
	lines        ports.LineSource
	orchestrator *Orchestrator
	reports      ReportWriter
	uploader     ReportUploader // nil disables archiving
	notifier     SummaryNotifier
	validate     *validator.Validator
	log          *logger.Logger
	lockDir      string
	dryRun       bool
}

// RunnerOptions configures a Runner. Uploader and Notifier are optional.
type RunnerOptions struct {
	Lines        ports.LineSource
	Orchestrator *Orchestrator
	Reports      ReportWriter
	Uploader     ReportUploader
	Notifier     SummaryNotifier
	Logger       *logger.Logger
	LockDir      string
	DryRun       bool
}

// NewRunner creates a batch runner.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.Lines == nil {
		return nil, apperr.Validation("line source is required")
	}
	if opts.Orchestrator == nil {
		return nil, apperr.Validation("orchestrator is required")
	}
	if opts.Reports == nil {
		return nil, apperr.Validation("report writer is required")
	}
	return &Runner{
		lines:        opts.Lines,
		orchestrator: opts.Orchestrator,
		reports:      opts.Reports,
		uploader:     opts.Uploader,
		notifier:     opts.Notifier,
		validate:     validator.New(),
		log:          opts.Logger,
		lockDir:      opts.LockDir,
		dryRun:       opts.DryRun,
	}, nil
}

// Run executes the batch end to end. A second concurrent run of the same
// batch fails with a conflict error; a lock left behind by a dead process is
// reclaimed. Report, archive and notification failures are logged but do not
// fail a batch whose dispatch completed.
func (r *Runner) Run(ctx context.Context, batchID string) (*Summary, error) {
	log := r.log
	if log != nil {
		log = log.WithBatch(batchID)
	}

	lock, err := runlock.Acquire(batchID, runlock.Options{Dir: r.lockDir})
	if err != nil {
		return nil, err
	}
	defer lock.Release()

	lines, err := r.lines.Lines(ctx, batchID)
	if err != nil {
		return nil, err
	}
	valid := lines[:0:0]
	for _, line := range lines {
		if err := r.validate.Struct(line); err != nil {
			if log != nil {
				log.Warn("dropping invalid line",
					"line", line.LineNumber,
					"part_number", line.PartNumber,
					"error", err.Error(),
				)
			}
			continue
		}
		valid = append(valid, line)
	}
	if len(valid) == 0 {
		return nil, apperr.Validation("no valid lines in batch " + batchID)
	}

	if log != nil {
		log.Info("batch starting",
			"lines", len(valid),
			"dry_run", r.dryRun,
		)
	}

	summary, runErr := r.orchestrator.Run(ctx, batchID, valid)

	reportPath := ""
	if len(summary.Outcomes) > 0 {
		reportPath, err = r.reports.Write(batchID, summary.Outcomes)
		if err != nil {
			if log != nil {
				log.Error("report write failed", "error", err.Error())
			}
		} else if r.uploader != nil {
			if key, upErr := r.uploader.UploadReport(ctx, batchID, reportPath); upErr != nil {
				if log != nil {
					log.Error("report upload failed", "error", upErr.Error())
				}
			} else if log != nil {
				log.Info("report archived", "object_key", key)
			}
		}
	}

	if r.notifier != nil && runErr == nil {
		if mailErr := r.notifier.SendSummary(ctx, summary, r.dryRun, reportPath); mailErr != nil {
			if log != nil {
				log.Error("summary email failed", "error", mailErr.Error())
			}
		}
	}

	if log != nil {
		log.Info("batch finished",
			"duration", summary.Duration().Round(time.Second).String(),
			"sent", summary.StatusCounts[domain.StatusSent],
			"failed", summary.StatusCounts[domain.StatusFailed],
			"omitted", summary.StatusCounts[domain.StatusOmitted],
			"no_suppliers", summary.StatusCounts[domain.StatusNoSuppliers],
		)
	}

	return summary, runErr
}
