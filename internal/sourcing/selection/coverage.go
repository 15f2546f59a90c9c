// Package selection implements the rule-driven supplier selection pipeline:
// coverage filtering, region slot balancing, quantity adjustment and the
// minimum-order-value gate, composed into one per-line decision.
package selection

import (
	"sort"

	"sourcing_backend/internal/sourcing/domain"
)

// FilterByCoverage trims offers once cumulative availability already covers
// the demand. Offers are considered largest first. Until cumulative quantity
// reaches requestedQty*threshold every offer is kept, maximizing piecing
// options when supply is scarce. Past that point an offer survives only if
// its own quantity is at least minIndividualPct of the request; smaller
// offers are immaterial.
//
// A non-positive request or an empty input is returned unchanged.
func FilterByCoverage(offers []domain.Offer, requestedQty int, threshold, minIndividualPct float64) []domain.Offer {
	if requestedQty <= 0 || len(offers) == 0 {
		return offers
	}

	sorted := make([]domain.Offer, len(offers))
	copy(sorted, offers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].AvailableQty > sorted[j].AvailableQty
	})

	kept := make([]domain.Offer, 0, len(sorted))
	cumulative := 0
	reached := false
	target := float64(requestedQty) * threshold

	for _, offer := range sorted {
		if reached {
			share := float64(offer.AvailableQty) / float64(requestedQty)
			if share < minIndividualPct {
				continue
			}
		}
		kept = append(kept, offer)
		cumulative += offer.AvailableQty
		if !reached && float64(cumulative) >= target {
			reached = true
		}
	}

	return kept
}
