package selection

// AdjustQuantity decides the quantity to put on an inquiry when the offer is
// short. A supplier who sees a number they can visibly fulfill is more likely
// to quote, so the available quantity is rounded down to a round figure
// appropriate to its magnitude. The rounding never drops below 90% of real
// stock; if it would, the exact stock is used instead. The result is clamped
// to [1, available].
func AdjustQuantity(requestedQty, availableQty int) (int, bool) {
	if availableQty >= requestedQty {
		return requestedQty, false
	}

	adjusted := availableQty
	switch {
	case availableQty >= 1000:
		adjusted = (availableQty / 100) * 100
	case availableQty >= 100:
		adjusted = (availableQty / 25) * 25
	case availableQty >= 50:
		adjusted = (availableQty / 10) * 10
	case availableQty >= 10:
		adjusted = (availableQty / 5) * 5
	}

	// Don't round so aggressively that the request understates their stock.
	if adjusted*10 < availableQty*9 {
		adjusted = availableQty
	}

	if adjusted > availableQty {
		adjusted = availableQty
	}
	if adjusted < 1 {
		adjusted = 1
	}

	return adjusted, true
}
