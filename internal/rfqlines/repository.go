// Package rfqlines loads the request lines of a batch from the ERP database
// and enriches them with franchise-channel reference pricing.
package rfqlines

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"sourcing_backend/internal/sourcing/domain"
	"sourcing_backend/platform/apperr"
	"sourcing_backend/platform/logger"
)

// Repository reads batch request lines from Postgres.
type Repository struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

// NewRepository creates a line repository backed by the given pool.
func NewRepository(pool *pgxpool.Pool, log *logger.Logger) *Repository {
	return &Repository{pool: pool, log: log}
}

const linesQuery = `
	SELECT
		l.line_number,
		m.part_number,
		l.quantity,
		COALESCE(l.category_code, ''),
		COALESCE(m.manufacturer, '')
	FROM chuboe_rfq r
	JOIN chuboe_rfq_line l ON l.chuboe_rfq_id = r.chuboe_rfq_id
	JOIN chuboe_rfq_line_mpn m ON m.chuboe_rfq_line_id = l.chuboe_rfq_line_id
	WHERE r.document_no = $1
	  AND l.is_active = 'Y'
	ORDER BY l.line_number`

const referencePricingQuery = `
	SELECT quantity, unit_price
	FROM franchise_price
	WHERE UPPER(part_number) = UPPER($1)
	ORDER BY updated DESC
	LIMIT 1`

// Lines returns the active request lines of a batch, ordered by line number.
// Lines whose part number is blank or whose quantity is not positive are
// skipped with a warning rather than failing the batch.
func (r *Repository) Lines(ctx context.Context, batchID string) ([]domain.RequestLine, error) {
	rows, err := r.pool.Query(ctx, linesQuery, batchID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnknown, "query batch lines", err)
	}
	defer rows.Close()

	var lines []domain.RequestLine
	for rows.Next() {
		var line domain.RequestLine
		if err := rows.Scan(&line.LineNumber, &line.PartNumber, &line.RequestedQty, &line.CategoryCode, &line.Manufacturer); err != nil {
			return nil, apperr.Wrap(apperr.KindUnknown, "scan batch line", err)
		}

		line.PartNumber = strings.TrimSpace(line.PartNumber)
		if line.PartNumber == "" || line.RequestedQty <= 0 {
			if r.log != nil {
				r.log.Warn("skipping invalid batch line",
					"batch_id", batchID,
					"line", line.LineNumber,
					"part_number", line.PartNumber,
					"quantity", line.RequestedQty,
				)
			}
			continue
		}

		ref, err := r.referencePricing(ctx, line.PartNumber)
		if err != nil {
			// Missing pricing only disables the minimum-order gate
			// for this line.
			if r.log != nil {
				r.log.DatabaseError("reference pricing lookup", err)
			}
		} else {
			line.Reference = ref
		}

		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.KindUnknown, "iterate batch lines", err)
	}

	if len(lines) == 0 {
		return nil, apperr.Validation("batch has no usable lines: " + batchID)
	}
	return lines, nil
}

// referencePricing returns the latest franchise-channel price point for a
// part, or nil when none is recorded.
func (r *Repository) referencePricing(ctx context.Context, partNumber string) (*domain.ReferencePricing, error) {
	var qty int
	var unitPrice decimal.Decimal

	err := r.pool.QueryRow(ctx, referencePricingQuery, partNumber).Scan(&qty, &unitPrice)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if qty <= 0 || !unitPrice.IsPositive() {
		return nil, nil
	}
	return &domain.ReferencePricing{Qty: qty, UnitPrice: unitPrice}, nil
}
