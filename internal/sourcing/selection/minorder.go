package selection

import (
	"fmt"

	"github.com/shopspring/decimal"

	"sourcing_backend/internal/sourcing/domain"
)

// GateResult records a minimum-order-value decision with both operands so
// the report can show why an offer was or was not contacted.
type GateResult struct {
	Omit           bool
	Reason         string
	Multiplier     float64
	MinOrderValue  decimal.Decimal
	EstimatedValue decimal.Decimal
}

// EvaluateMinOrder decides whether an offer's purchase floor exceeds what
// the opportunity is worth. It applies only when reference pricing exists
// and the offer's minimum order value is known; otherwise the offer passes
// through unfiltered.
//
// The multiplier reflects leverage: when the reference channel can fully
// cover demand, a secondary offer must be clearly cheap to be worth
// bothering (multiplierAbundant); when it cannot, the secondary market has
// leverage and a higher floor is tolerated (multiplierScarce).
func EvaluateMinOrder(offer domain.Offer, ref *domain.ReferencePricing, requestedQty int, multiplierAbundant, multiplierScarce float64) GateResult {
	if ref == nil || !ref.UnitPrice.IsPositive() || offer.MinOrderValue == nil {
		return GateResult{Omit: false}
	}

	multiplier := multiplierScarce
	if ref.Qty >= requestedQty {
		multiplier = multiplierAbundant
	}

	estimated := ref.UnitPrice.
		Mul(decimal.NewFromInt(int64(offer.AvailableQty))).
		Mul(decimal.NewFromFloat(multiplier))

	result := GateResult{
		Multiplier:     multiplier,
		MinOrderValue:  *offer.MinOrderValue,
		EstimatedValue: estimated,
	}

	if offer.MinOrderValue.GreaterThan(estimated) {
		result.Omit = true
		result.Reason = fmt.Sprintf("min order %s exceeds estimated value %s (multiplier %.1f)",
			offer.MinOrderValue.StringFixed(2), estimated.StringFixed(2), multiplier)
	}

	return result
}
