// Package ports defines the interfaces the sourcing orchestrator depends on.
// Concrete adapters (marketplace client, database repositories, report
// writers) live in their own packages and implement these.
package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"sourcing_backend/internal/sourcing/domain"
)

// SubmitRequest carries everything needed to send one purchase inquiry.
type SubmitRequest struct {
	PartNumber string
	Supplier   string
	Quantity   int
	Comment    string
}

// Session is one authenticated marketplace session. A session is owned by a
// single worker and is not safe for concurrent use.
type Session interface {
	// Search returns the raw supply rows for a part number, in page order.
	Search(ctx context.Context, partNumber string) ([]domain.RawRow, error)

	// MinOrderValue looks up the supplier's minimum order value. A nil
	// decimal with nil error means the supplier does not publish one.
	MinOrderValue(ctx context.Context, supplier string) (*decimal.Decimal, error)

	// SubmitInquiry sends a purchase inquiry to one supplier.
	SubmitInquiry(ctx context.Context, req SubmitRequest) error

	// Close releases the session. Safe to call more than once.
	Close() error
}

// Marketplace opens authenticated sessions against the supply marketplace.
type Marketplace interface {
	NewSession(ctx context.Context) (Session, error)
}

// LineSource yields the request lines for a batch.
type LineSource interface {
	Lines(ctx context.Context, batchID string) ([]domain.RequestLine, error)
}

// OutcomeSink records submission outcomes as they occur.
type OutcomeSink interface {
	Record(ctx context.Context, outcome domain.SubmissionOutcome) error
}
