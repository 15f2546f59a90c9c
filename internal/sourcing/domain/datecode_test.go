package domain

import "testing"

func TestParseDateCode(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantYear  int
		wantNil   bool
		ambiguous bool
	}{
		{name: "year week", text: "2217", wantYear: 22},
		{name: "bare year", text: "25", wantYear: 25},
		{name: "year with plus marker", text: "22+", wantYear: 22, ambiguous: true},
		{name: "current decade four digit", text: "2022", wantYear: 20, ambiguous: true},
		{name: "decade edge low", text: "2020", wantYear: 20, ambiguous: true},
		{name: "decade edge high", text: "2029", wantYear: 20, ambiguous: true},
		{name: "past decade four digit", text: "2318", wantYear: 23},
		{name: "older four digit", text: "1845", wantYear: 18},
		{name: "leading pair with suffix", text: "23XYZ", wantYear: 23},
		{name: "leading pair of longer digits", text: "22175", wantYear: 22},
		{name: "whitespace trimmed", text: "  2217  ", wantYear: 22},
		{name: "empty", text: "", wantNil: true},
		{name: "non numeric", text: "N/A", wantNil: true},
		{name: "single digit", text: "7", wantNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			year, ambiguous := ParseDateCode(tt.text)
			if tt.wantNil {
				if year != nil {
					t.Fatalf("ParseDateCode(%q) = %d, want nil", tt.text, *year)
				}
				return
			}
			if year == nil {
				t.Fatalf("ParseDateCode(%q) = nil, want %d", tt.text, tt.wantYear)
			}
			if *year != tt.wantYear {
				t.Fatalf("ParseDateCode(%q) = %d, want %d", tt.text, *year, tt.wantYear)
			}
			if ambiguous != tt.ambiguous {
				t.Fatalf("ParseDateCode(%q) ambiguous = %v, want %v", tt.text, ambiguous, tt.ambiguous)
			}
		})
	}
}

func TestFreshness(t *testing.T) {
	year := func(y int) *int { return &y }

	tests := []struct {
		name      string
		year      *int
		ambiguous bool
		current   int
		window    int
		want      FreshnessClass
	}{
		{name: "no year", year: nil, current: 25, window: 2, want: FreshnessUnknown},
		{name: "at cutoff", year: year(23), current: 25, window: 2, want: FreshnessFresh},
		{name: "above cutoff", year: year(25), current: 25, window: 2, want: FreshnessFresh},
		{name: "below cutoff", year: year(22), current: 25, window: 2, want: FreshnessOld},
		{name: "ambiguous above cutoff still fresh", year: year(24), ambiguous: true, current: 25, window: 2, want: FreshnessFresh},
		{name: "ambiguous below cutoff", year: year(20), ambiguous: true, current: 25, window: 2, want: FreshnessUnknown},
		{name: "century wraparound", year: year(99), current: 1, window: 2, want: FreshnessFresh},
		{name: "century wraparound old", year: year(95), current: 1, window: 2, want: FreshnessOld},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Freshness(tt.year, tt.ambiguous, tt.current, tt.window)
			if got != tt.want {
				t.Fatalf("Freshness() = %q, want %q", got, tt.want)
			}
		})
	}
}
