// Package results persists, reports and archives submission outcomes.
package results

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"sourcing_backend/internal/sourcing/domain"
	"sourcing_backend/platform/apperr"
)

// Repository stores submission outcomes in Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an outcome repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const insertOutcomeQuery = `
	INSERT INTO sourcing_outcome (
		id, batch_id, line_number, category_code, part_number,
		requested_qty, sent_qty, supplier, region, supplier_qty,
		min_order_value, estimated_value,
		qualifying_total, qualifying_americas, qualifying_europe, selected_count,
		status, error, worker_id, dry_run, created_at
	) VALUES (
		$1, $2, $3, $4, $5,
		$6, $7, $8, $9, $10,
		$11, $12,
		$13, $14, $15, $16,
		$17, $18, $19, $20, $21
	)`

// Record inserts one outcome. Outcomes are immutable; there is no update
// path.
func (r *Repository) Record(ctx context.Context, o domain.SubmissionOutcome) error {
	_, err := r.pool.Exec(ctx, insertOutcomeQuery,
		o.ID, o.BatchID, o.LineNumber, o.CategoryCode, o.PartNumber,
		o.RequestedQty, o.SentQty, o.Supplier, string(o.Region), o.SupplierQty,
		o.MinOrderValue, o.EstimatedValue,
		o.QualifyingTotal, o.QualifyingAmericas, o.QualifyingEurope, o.SelectedCount,
		string(o.Status), o.Error, o.WorkerID, o.DryRun, o.Timestamp,
	)
	if err != nil {
		return apperr.Wrap(apperr.KindUnknown, "insert submission outcome", err)
	}
	return nil
}

const outcomesByBatchQuery = `
	SELECT
		id, batch_id, line_number, category_code, part_number,
		requested_qty, sent_qty, supplier, region, supplier_qty,
		min_order_value, estimated_value,
		qualifying_total, qualifying_americas, qualifying_europe, selected_count,
		status, error, worker_id, dry_run, created_at
	FROM sourcing_outcome
	WHERE batch_id = $1
	ORDER BY line_number, created_at`

// ByBatch returns all recorded outcomes of a batch in report order.
func (r *Repository) ByBatch(ctx context.Context, batchID string) ([]domain.SubmissionOutcome, error) {
	rows, err := r.pool.Query(ctx, outcomesByBatchQuery, batchID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnknown, "query batch outcomes", err)
	}
	defer rows.Close()

	var outcomes []domain.SubmissionOutcome
	for rows.Next() {
		var o domain.SubmissionOutcome
		var region, status string
		if err := rows.Scan(
			&o.ID, &o.BatchID, &o.LineNumber, &o.CategoryCode, &o.PartNumber,
			&o.RequestedQty, &o.SentQty, &o.Supplier, &region, &o.SupplierQty,
			&o.MinOrderValue, &o.EstimatedValue,
			&o.QualifyingTotal, &o.QualifyingAmericas, &o.QualifyingEurope, &o.SelectedCount,
			&status, &o.Error, &o.WorkerID, &o.DryRun, &o.Timestamp,
		); err != nil {
			return nil, apperr.Wrap(apperr.KindUnknown, "scan submission outcome", err)
		}
		o.Region = domain.Region(region)
		o.Status = domain.Status(status)
		outcomes = append(outcomes, o)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.KindUnknown, "iterate batch outcomes", err)
	}
	return outcomes, nil
}
