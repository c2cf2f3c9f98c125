package domain

import (
	"fmt"
	"math"
	"time"
)

// Band is a half-open numeric range [Lower, Upper) mapped to a notification
// message and a per-(recipient, message) cooldown period.
type Band struct {
	Lower    float64
	Upper    float64
	Message  string
	Cooldown time.Duration
}

// Contains reports whether v falls inside the band's half-open range.
func (b Band) Contains(v float64) bool {
	return b.Lower <= v && v < b.Upper
}

// BandTable is an ordered sequence of bands. Lookup is first-match-wins, so
// earlier bands shadow later overlapping ones.
type BandTable []Band

// Match returns the first band containing v, if any.
func (t BandTable) Match(v float64) (Band, bool) {
	for _, b := range t {
		if b.Contains(v) {
			return b, true
		}
	}
	return Band{}, false
}

// Validate checks every band's internal invariants: a finite-or-infinite
// range with Lower < Upper and a non-negative cooldown. The returned error
// names the offending band index.
func (t BandTable) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("no bands configured")
	}
	for i, b := range t {
		if math.IsNaN(b.Lower) || math.IsNaN(b.Upper) {
			return fmt.Errorf("band %d: bounds must be numeric", i)
		}
		if b.Lower >= b.Upper {
			return fmt.Errorf("band %d: lower bound %g must be less than upper bound %g", i, b.Lower, b.Upper)
		}
		if b.Cooldown < 0 {
			return fmt.Errorf("band %d: cooldown must not be negative", i)
		}
	}
	return nil
}

// Overlaps returns a human-readable warning per pair of overlapping bands.
// Overlap is legal (first match wins) but usually a configuration mistake,
// so callers log these rather than rejecting the table.
func (t BandTable) Overlaps() []string {
	var warnings []string
	for i := 0; i < len(t); i++ {
		for j := i + 1; j < len(t); j++ {
			if t[i].Lower < t[j].Upper && t[j].Lower < t[i].Upper {
				warnings = append(warnings, fmt.Sprintf(
					"bands %d (%q) and %d (%q) overlap; band %d shadows the shared range",
					i, t[i].Message, j, t[j].Message, i))
			}
		}
	}
	return warnings
}
