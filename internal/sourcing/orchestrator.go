// Package sourcing coordinates a batch run: it fans request lines out to a
// fixed pool of workers, each owning one marketplace session, and funnels
// every submission outcome through a single collector.
package sourcing

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"sourcing_backend/internal/sourcing/domain"
	"sourcing_backend/internal/sourcing/ports"
	"sourcing_backend/internal/sourcing/selection"
	"sourcing_backend/platform/apperr"
	"sourcing_backend/platform/logger"
	"sourcing_backend/platform/pacing"
)

// europeComment is appended to inquiries sent to European suppliers.
const europeComment = "Please confirm country of origin."

// submitBaseDelay is the nominal pause between consecutive submissions from
// one worker, before jitter.
const submitBaseDelay = 2 * time.Second

// Orchestrator runs the dispatch phase of a batch.
type Orchestrator struct {
	marketplace ports.Marketplace
	sink        ports.OutcomeSink
	pipeline    *selection.Pipeline
	sleeper     *pacing.Sleeper
	log         *logger.Logger
	workerCount int
	dryRun      bool
}

// Options configures an Orchestrator.
type Options struct {
	Marketplace ports.Marketplace
	Sink        ports.OutcomeSink
	Pipeline    *selection.Pipeline
	Sleeper     *pacing.Sleeper
	Logger      *logger.Logger
	WorkerCount int
	DryRun      bool
}

// NewOrchestrator creates an orchestrator. WorkerCount must be at least 1.
func NewOrchestrator(opts Options) (*Orchestrator, error) {
	if opts.Marketplace == nil {
		return nil, apperr.Validation("marketplace adapter is required")
	}
	if opts.Sink == nil {
		return nil, apperr.Validation("outcome sink is required")
	}
	if opts.Pipeline == nil {
		return nil, apperr.Validation("selection pipeline is required")
	}
	if opts.WorkerCount < 1 {
		return nil, apperr.Validation("worker count must be at least 1")
	}
	return &Orchestrator{
		marketplace: opts.Marketplace,
		sink:        opts.Sink,
		pipeline:    opts.Pipeline,
		sleeper:     opts.Sleeper,
		log:         opts.Logger,
		workerCount: opts.WorkerCount,
		dryRun:      opts.DryRun,
	}, nil
}

// Summary aggregates a finished batch.
type Summary struct {
	BatchID      string
	Lines        int
	Outcomes     []domain.SubmissionOutcome
	StatusCounts map[domain.Status]int
	Started      time.Time
	Finished     time.Time
}

// Duration is the wall-clock time of the dispatch phase.
func (s *Summary) Duration() time.Duration {
	return s.Finished.Sub(s.Started)
}

// TopSuppliers returns up to n suppliers by number of sent inquiries,
// descending.
func (s *Summary) TopSuppliers(n int) []SupplierCount {
	counts := map[string]int{}
	for _, o := range s.Outcomes {
		if o.Status == domain.StatusSent && o.Supplier != "" {
			counts[o.Supplier]++
		}
	}
	out := make([]SupplierCount, 0, len(counts))
	for supplier, count := range counts {
		out = append(out, SupplierCount{Supplier: supplier, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Supplier < out[j].Supplier
	})
	if n < len(out) {
		out = out[:n]
	}
	return out
}

// SupplierCount pairs a supplier with its sent-inquiry count.
type SupplierCount struct {
	Supplier string
	Count    int
}

// Run dispatches all lines and blocks until every worker has drained the
// queue and every outcome has been collected. Lines are consumed from a
// shared channel: a free worker takes the next line without blocking on its
// peers. A per-line failure never stops the batch; only a context
// cancellation or a worker that cannot open a session aborts the run.
func (o *Orchestrator) Run(ctx context.Context, batchID string, lines []domain.RequestLine) (*Summary, error) {
	summary := &Summary{
		BatchID:      batchID,
		Lines:        len(lines),
		StatusCounts: map[domain.Status]int{},
		Started:      time.Now(),
	}

	queue := make(chan domain.RequestLine, len(lines))
	for _, line := range lines {
		queue <- line
	}
	close(queue)

	outcomes := make(chan domain.SubmissionOutcome, o.workerCount*4)

	collectorDone := make(chan struct{})
	go func() {
		defer close(collectorDone)
		for outcome := range outcomes {
			summary.Outcomes = append(summary.Outcomes, outcome)
			summary.StatusCounts[outcome.Status]++
			if err := o.sink.Record(ctx, outcome); err != nil && o.log != nil {
				o.log.Error("outcome record failed",
					"part_number", outcome.PartNumber,
					"supplier", outcome.Supplier,
					"error", err.Error(),
				)
			}
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	for workerID := 1; workerID <= o.workerCount; workerID++ {
		g.Go(func() error {
			return o.runWorker(gctx, workerID, batchID, queue, outcomes)
		})
	}

	err := g.Wait()
	close(outcomes)
	<-collectorDone

	sort.SliceStable(summary.Outcomes, func(i, j int) bool {
		if summary.Outcomes[i].LineNumber != summary.Outcomes[j].LineNumber {
			return summary.Outcomes[i].LineNumber < summary.Outcomes[j].LineNumber
		}
		return summary.Outcomes[i].Timestamp.Before(summary.Outcomes[j].Timestamp)
	})
	summary.Finished = time.Now()

	if err != nil {
		return summary, err
	}
	return summary, nil
}

func (o *Orchestrator) runWorker(ctx context.Context, workerID int, batchID string, queue <-chan domain.RequestLine, outcomes chan<- domain.SubmissionOutcome) error {
	log := o.log
	if log != nil {
		log = log.WithWorker(workerID)
	}

	session, err := o.marketplace.NewSession(ctx)
	if err != nil {
		return apperr.Wrap(apperr.KindFatal, fmt.Sprintf("worker %d: open marketplace session", workerID), err)
	}
	defer session.Close()

	for line := range queue {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		o.processLine(ctx, session, workerID, batchID, line, outcomes, log)
		o.pause(ctx)
	}
	return nil
}

// processLine runs search, selection and submission for one line. Every path
// emits at least one outcome; errors are contained to the offer or line they
// occurred on.
func (o *Orchestrator) processLine(ctx context.Context, session ports.Session, workerID int, batchID string, line domain.RequestLine, outcomes chan<- domain.SubmissionOutcome, log *logger.Logger) {
	rows, err := session.Search(ctx, line.PartNumber)
	if err != nil {
		if log != nil {
			log.Warn("search failed", "part_number", line.PartNumber, "error", err.Error())
		}
		outcomes <- o.newOutcome(batchID, workerID, line, nil, nil, domain.StatusFailed, fmt.Sprintf("search: %v", err))
		return
	}

	decision := o.pipeline.Select(line, rows)
	if len(decision.Chosen) == 0 {
		outcomes <- o.newOutcome(batchID, workerID, line, decision, nil, domain.StatusNoSuppliers, "")
		return
	}

	params := o.pipeline.Params()
	for i, chosen := range decision.Chosen {
		if ctx.Err() != nil {
			return
		}
		if i > 0 {
			o.pause(ctx)
		}

		offer := chosen.Offer

		// The minimum-order gate runs here, against a live lookup, so
		// the value reflects the supplier's profile at submission time.
		minOrder, lookupErr := session.MinOrderValue(ctx, offer.Supplier)
		if lookupErr != nil {
			if log != nil {
				log.Warn("min order lookup failed",
					"supplier", offer.Supplier,
					"error", lookupErr.Error(),
				)
			}
		} else {
			offer.MinOrderValue = minOrder
		}

		gate := selection.EvaluateMinOrder(offer, line.Reference, line.RequestedQty, params.MultiplierAbundant, params.MultiplierScarce)
		if gate.Omit {
			decision.Omitted = append(decision.Omitted, domain.Omission{
				Offer:          offer,
				MinOrderValue:  gate.MinOrderValue,
				EstimatedValue: gate.EstimatedValue,
				Multiplier:     gate.Multiplier,
				Reason:         gate.Reason,
			})
			outcome := o.newOutcome(batchID, workerID, line, decision, &chosen, domain.StatusOmitted, gate.Reason)
			outcome.MinOrderValue = &gate.MinOrderValue
			outcome.EstimatedValue = &gate.EstimatedValue
			outcomes <- outcome
			if log != nil {
				log.SubmissionResult(line.PartNumber, offer.Supplier, string(domain.StatusOmitted), nil)
			}
			continue
		}

		status := domain.StatusSent
		errText := ""
		if !o.dryRun {
			req := ports.SubmitRequest{
				PartNumber: line.PartNumber,
				Supplier:   offer.Supplier,
				Quantity:   chosen.AdjustedQty,
			}
			if offer.Region == domain.RegionEurope {
				req.Comment = europeComment
			}
			if submitErr := session.SubmitInquiry(ctx, req); submitErr != nil {
				status = domain.StatusFailed
				errText = submitErr.Error()
			}
		}

		outcome := o.newOutcome(batchID, workerID, line, decision, &chosen, status, errText)
		if offer.MinOrderValue != nil {
			outcome.MinOrderValue = offer.MinOrderValue
		}
		outcomes <- outcome
		if log != nil {
			var resultErr error
			if errText != "" {
				resultErr = fmt.Errorf("%s", errText)
			}
			log.SubmissionResult(line.PartNumber, offer.Supplier, string(status), resultErr)
		}
	}
}

func (o *Orchestrator) newOutcome(batchID string, workerID int, line domain.RequestLine, decision *domain.SelectionDecision, chosen *domain.ChosenOffer, status domain.Status, errText string) domain.SubmissionOutcome {
	outcome := domain.SubmissionOutcome{
		ID:           uuid.New(),
		BatchID:      batchID,
		LineNumber:   line.LineNumber,
		CategoryCode: line.CategoryCode,
		PartNumber:   line.PartNumber,
		RequestedQty: line.RequestedQty,
		Status:       status,
		Error:        errText,
		WorkerID:     workerID,
		DryRun:       o.dryRun,
		Timestamp:    time.Now(),
	}
	if decision != nil {
		outcome.QualifyingTotal = decision.QualifyingTotal()
		outcome.QualifyingAmericas = decision.QualifyingAmericas
		outcome.QualifyingEurope = decision.QualifyingEurope
		outcome.SelectedCount = decision.SelectedCount
	}
	if chosen != nil {
		outcome.Supplier = chosen.Offer.Supplier
		outcome.Region = chosen.Offer.Region
		outcome.SupplierQty = chosen.Offer.AvailableQty
		// The attempted quantity is recorded on failures too, so the
		// report shows what the inquiry asked for.
		if status == domain.StatusSent || status == domain.StatusFailed {
			outcome.SentQty = chosen.AdjustedQty
		}
	}
	return outcome
}

func (o *Orchestrator) pause(ctx context.Context) {
	if o.sleeper == nil {
		return
	}
	o.sleeper.Sleep(ctx, submitBaseDelay)
}
