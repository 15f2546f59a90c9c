// Package scoring ranks a region's offers for submission priority. A date
// code never rules an offer out, it only orders it behind better ones.
package scoring

import "sourcing_backend/internal/sourcing/domain"

// tierMultiplier keeps the tier dominant over any realistic quantity
// tiebreak in the combined score.
const tierMultiplier = 1_000_000_000

// Score computes a single comparable priority for an offer. Higher is
// better; offers sort descending by this value.
//
// Tiers, best first:
//
//	6 fresh date code, meets quantity
//	5 unknown date code, meets quantity (benefit of the doubt)
//	4 fresh date code, short
//	3 unknown date code, short
//	2 old date code, meets quantity
//	1 old date code, short
//
// Offers that meet the requested quantity are equal within their tier;
// short offers break ties by available quantity descending, which maximizes
// partial-fulfillment potential.
func Score(offer domain.Offer, requestedQty int) int64 {
	meets := offer.MeetsQuantity(requestedQty)

	var tier int64
	switch {
	case offer.Freshness == domain.FreshnessFresh && meets:
		tier = 6
	case offer.Freshness == domain.FreshnessUnknown && meets:
		tier = 5
	case offer.Freshness == domain.FreshnessFresh:
		tier = 4
	case offer.Freshness == domain.FreshnessUnknown:
		tier = 3
	case meets: // old
		tier = 2
	default: // old and short
		tier = 1
	}

	score := tier * tierMultiplier
	if !meets {
		score += int64(offer.AvailableQty)
	}
	return score
}
