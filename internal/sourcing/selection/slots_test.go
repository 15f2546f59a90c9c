package selection

import "testing"

func TestRegionSlots(t *testing.T) {
	tests := []struct {
		name         string
		americas     int
		europe       int
		cap          int
		budget       int
		wantAmericas int
		wantEurope   int
	}{
		{name: "both regions rich", americas: 10, europe: 10, cap: 3, budget: 6, wantAmericas: 3, wantEurope: 3},
		{name: "both exactly at cap", americas: 3, europe: 3, cap: 3, budget: 6, wantAmericas: 3, wantEurope: 3},
		{name: "europe short donates to americas", americas: 10, europe: 1, cap: 3, budget: 6, wantAmericas: 5, wantEurope: 1},
		{name: "americas short donates to europe", americas: 2, europe: 10, cap: 3, budget: 6, wantAmericas: 2, wantEurope: 4},
		{name: "donation bounded by supply", americas: 4, europe: 0, cap: 3, budget: 6, wantAmericas: 4, wantEurope: 0},
		{name: "one region empty", americas: 0, europe: 10, cap: 3, budget: 6, wantAmericas: 0, wantEurope: 6},
		{name: "both empty", americas: 0, europe: 0, cap: 3, budget: 6, wantAmericas: 0, wantEurope: 0},
		{name: "tight budget trims larger side", americas: 10, europe: 2, cap: 3, budget: 4, wantAmericas: 2, wantEurope: 2},
		{name: "zero budget", americas: 10, europe: 10, cap: 3, budget: 0, wantAmericas: 0, wantEurope: 0},
		{name: "negative availability treated as zero", americas: -5, europe: 10, cap: 3, budget: 6, wantAmericas: 0, wantEurope: 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			americas, europe := RegionSlots(tt.americas, tt.europe, tt.cap, tt.budget)
			if americas != tt.wantAmericas || europe != tt.wantEurope {
				t.Fatalf("RegionSlots(%d, %d, %d, %d) = (%d, %d), want (%d, %d)",
					tt.americas, tt.europe, tt.cap, tt.budget,
					americas, europe, tt.wantAmericas, tt.wantEurope)
			}
		})
	}
}

func TestRegionSlotsInvariants(t *testing.T) {
	const cap, budget = 3, 6
	for americas := 0; americas <= 8; americas++ {
		for europe := 0; europe <= 8; europe++ {
			a, e := RegionSlots(americas, europe, cap, budget)
			if a < 0 || e < 0 {
				t.Fatalf("negative slots for (%d, %d): (%d, %d)", americas, europe, a, e)
			}
			if a+e > budget {
				t.Fatalf("budget exceeded for (%d, %d): %d + %d > %d", americas, europe, a, e, budget)
			}
			if a > americas || e > europe {
				t.Fatalf("slots exceed supply for (%d, %d): (%d, %d)", americas, europe, a, e)
			}
		}
	}
}
