package selection

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"sourcing_backend/internal/sourcing/domain"
)

func money(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func gateOffer(availableQty int, minOrder *decimal.Decimal) domain.Offer {
	return domain.Offer{
		Supplier:      "S",
		Region:        domain.RegionAmericas,
		AvailableQty:  availableQty,
		MinOrderValue: minOrder,
	}
}

func TestEvaluateMinOrderPassThrough(t *testing.T) {
	ref := &domain.ReferencePricing{Qty: 1000, UnitPrice: decimal.RequireFromString("0.50")}

	tests := []struct {
		name  string
		offer domain.Offer
		ref   *domain.ReferencePricing
	}{
		{name: "no reference pricing", offer: gateOffer(100, money("1000000")), ref: nil},
		{name: "zero unit price", offer: gateOffer(100, money("1000000")), ref: &domain.ReferencePricing{Qty: 1000}},
		{name: "no min order value", offer: gateOffer(100, nil), ref: ref},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EvaluateMinOrder(tt.offer, tt.ref, 1000, 0.2, 0.7)
			if got.Omit {
				t.Fatalf("expected pass-through, got omission: %s", got.Reason)
			}
		})
	}
}

func TestEvaluateMinOrderAbundantReference(t *testing.T) {
	// Reference channel covers the full request, so the strict multiplier
	// applies: estimated = 2.00 * 500 * 0.2 = 200.
	ref := &domain.ReferencePricing{Qty: 5000, UnitPrice: decimal.RequireFromString("2.00")}

	blocked := EvaluateMinOrder(gateOffer(500, money("250")), ref, 1000, 0.2, 0.7)
	if !blocked.Omit {
		t.Fatal("expected omission when min order exceeds estimated value")
	}
	if blocked.Multiplier != 0.2 {
		t.Fatalf("multiplier = %v, want 0.2", blocked.Multiplier)
	}
	if !strings.Contains(blocked.Reason, "250.00") || !strings.Contains(blocked.Reason, "200.00") {
		t.Fatalf("reason should carry both operands: %q", blocked.Reason)
	}

	allowed := EvaluateMinOrder(gateOffer(500, money("200")), ref, 1000, 0.2, 0.7)
	if allowed.Omit {
		t.Fatalf("min order equal to estimated value must pass: %s", allowed.Reason)
	}
}

func TestEvaluateMinOrderScarceReference(t *testing.T) {
	// Reference channel cannot cover the request: estimated =
	// 2.00 * 500 * 0.7 = 700, so a 250 floor passes.
	ref := &domain.ReferencePricing{Qty: 400, UnitPrice: decimal.RequireFromString("2.00")}

	got := EvaluateMinOrder(gateOffer(500, money("250")), ref, 1000, 0.2, 0.7)
	if got.Omit {
		t.Fatalf("expected pass under scarce multiplier: %s", got.Reason)
	}
	if got.Multiplier != 0.7 {
		t.Fatalf("multiplier = %v, want 0.7", got.Multiplier)
	}
}

func TestEvaluateMinOrderReferenceEqualToRequestIsAbundant(t *testing.T) {
	ref := &domain.ReferencePricing{Qty: 1000, UnitPrice: decimal.RequireFromString("1.00")}

	got := EvaluateMinOrder(gateOffer(100, money("50")), ref, 1000, 0.2, 0.7)
	if got.Multiplier != 0.2 {
		t.Fatalf("reference qty equal to request should use abundant multiplier, got %v", got.Multiplier)
	}
}
