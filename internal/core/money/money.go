// Package money converts between decimal major currency units, as entered by
// clients, and the integer minor units expenses are stored in.
package money

import (
	"fmt"
	"math"
)

// MinorPerMajor is the number of minor units (paise, cents) in one major unit.
const MinorPerMajor = 100

// MaxMajorUnits is the largest amount whose minor-unit form is still exactly
// representable as a float64.
const MaxMajorUnits = float64(1<<53) / MinorPerMajor

// ToMinorUnits rounds major*100 to the nearest integer, ties away from zero.
// The caller must have rejected NaN and infinities.
func ToMinorUnits(major float64) int64 {
	return int64(math.Round(major * MinorPerMajor))
}

// ToMajorUnits is exact for every value produced by ToMinorUnits.
func ToMajorUnits(minor int64) float64 {
	return float64(minor) / MinorPerMajor
}

// Format renders minor units as a fixed two-decimal string, e.g. 15050 -> "150.50".
func Format(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/MinorPerMajor, minor%MinorPerMajor)
}
