package selection

// RegionSlots allocates the total selection budget across the two covered
// regions. Both regions start at min(available, perRegionCap). A region that
// cannot fill its cap donates the shortfall to the other region, bounded by
// that region's own supply. If the combined total still exceeds the budget,
// the excess is trimmed from whichever region currently holds more slots.
// Slots are never negative and the sum never exceeds totalBudget.
func RegionSlots(americasAvail, europeAvail, perRegionCap, totalBudget int) (int, int) {
	if perRegionCap < 0 {
		perRegionCap = 0
	}
	if totalBudget < 0 {
		totalBudget = 0
	}

	americas := min(max(americasAvail, 0), perRegionCap)
	europe := min(max(europeAvail, 0), perRegionCap)

	// Donate shortfalls cross-region, based on the initial allocations.
	baseAmericas, baseEurope := americas, europe
	if baseAmericas < perRegionCap {
		europe = min(max(europeAvail, 0), baseEurope+(perRegionCap-baseAmericas))
	}
	if baseEurope < perRegionCap {
		americas = min(max(americasAvail, 0), baseAmericas+(perRegionCap-baseEurope))
	}

	for americas+europe > totalBudget {
		if americas >= europe && americas > 0 {
			americas--
		} else if europe > 0 {
			europe--
		} else {
			break
		}
	}

	return americas, europe
}
