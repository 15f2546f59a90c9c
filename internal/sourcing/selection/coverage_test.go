package selection

import (
	"testing"

	"sourcing_backend/internal/sourcing/domain"
)

func coverageOffer(supplier string, qty int) domain.Offer {
	return domain.Offer{Supplier: supplier, Region: domain.RegionAmericas, AvailableQty: qty}
}

func suppliers(offers []domain.Offer) []string {
	out := make([]string, 0, len(offers))
	for _, o := range offers {
		out = append(out, o.Supplier)
	}
	return out
}

func TestFilterByCoverageKeepsAllWhileShort(t *testing.T) {
	// Cumulative supply never reaches 80% of 10000, so every offer stays.
	offers := []domain.Offer{
		coverageOffer("A", 3000),
		coverageOffer("B", 2000),
		coverageOffer("C", 50),
	}

	kept := FilterByCoverage(offers, 10000, 0.80, 0.10)
	if len(kept) != 3 {
		t.Fatalf("expected all 3 offers kept, got %v", suppliers(kept))
	}
}

func TestFilterByCoverageDropsSmallOffersAfterThreshold(t *testing.T) {
	offers := []domain.Offer{
		coverageOffer("big", 900),
		coverageOffer("mid", 200),
		coverageOffer("tiny", 50),
	}

	// big alone reaches 80% of 1000. mid survives at 20% of the request,
	// tiny falls under the 10% floor.
	kept := FilterByCoverage(offers, 1000, 0.80, 0.10)
	got := suppliers(kept)
	if len(got) != 2 || got[0] != "big" || got[1] != "mid" {
		t.Fatalf("kept = %v, want [big mid]", got)
	}
}

func TestFilterByCoverageOffersConsideredLargestFirst(t *testing.T) {
	// Input order must not matter: the largest offer reaches the threshold
	// regardless of where it appears in the slice.
	offers := []domain.Offer{
		coverageOffer("tiny", 50),
		coverageOffer("big", 900),
	}

	kept := FilterByCoverage(offers, 1000, 0.80, 0.10)
	got := suppliers(kept)
	if len(got) != 1 || got[0] != "big" {
		t.Fatalf("kept = %v, want [big]", got)
	}
}

func TestFilterByCoverageExactThresholdCounts(t *testing.T) {
	offers := []domain.Offer{
		coverageOffer("A", 800),
		coverageOffer("B", 50),
	}

	kept := FilterByCoverage(offers, 1000, 0.80, 0.10)
	got := suppliers(kept)
	if len(got) != 1 || got[0] != "A" {
		t.Fatalf("kept = %v, want [A]: reaching exactly the threshold flips the filter", got)
	}
}

func TestFilterByCoverageIdempotent(t *testing.T) {
	offers := []domain.Offer{
		coverageOffer("big", 900),
		coverageOffer("mid", 200),
		coverageOffer("tiny", 50),
	}

	once := FilterByCoverage(offers, 1000, 0.80, 0.10)
	twice := FilterByCoverage(once, 1000, 0.80, 0.10)
	if len(once) != len(twice) {
		t.Fatalf("second application changed the result: %v -> %v", suppliers(once), suppliers(twice))
	}
	for i := range once {
		if once[i].Supplier != twice[i].Supplier {
			t.Fatalf("second application changed the result: %v -> %v", suppliers(once), suppliers(twice))
		}
	}
}

func TestFilterByCoverageDegenerateInputs(t *testing.T) {
	if got := FilterByCoverage(nil, 1000, 0.80, 0.10); len(got) != 0 {
		t.Fatalf("nil input should stay empty, got %v", got)
	}

	offers := []domain.Offer{coverageOffer("A", 100)}
	if got := FilterByCoverage(offers, 0, 0.80, 0.10); len(got) != 1 {
		t.Fatalf("non-positive request should pass offers through, got %v", suppliers(got))
	}
}
