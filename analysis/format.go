// Package analysis implements the statistical procedures of the LabRat
// service. Each entry point takes a fully materialized table plus the
// column names its procedure requires, validates inputs, and returns an
// immutable structured result with a plain-language interpretation.
// Calls are pure and stateless; no component retains the table beyond
// the call.
package analysis

import (
	"math"
	"strconv"
)

// Alpha is the significance threshold applied to every test.
const Alpha = 0.05

// Round rounds to the given number of decimal places.
func Round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}

// Round4 rounds to 4 decimal places, the default report precision.
func Round4(v float64) float64 {
	return Round(v, 4)
}

// FloatPtr rounds a value and returns it as a nullable number,
// substituting null for NaN/Infinity so results stay serializable.
func FloatPtr(v float64, places int) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	r := Round(v, places)
	return &r
}

// FormatP renders a p-value for display; very small values print as
// "<0.0001" instead of a misleading 0.
func FormatP(p float64) string {
	if math.IsNaN(p) {
		return "1"
	}
	if p < 0.0001 {
		return "<0.0001"
	}
	return strconv.FormatFloat(Round4(p), 'g', -1, 64)
}

// clampP keeps a computed p-value inside [0, 1].
func clampP(p float64) float64 {
	if math.IsNaN(p) {
		return 1
	}
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
