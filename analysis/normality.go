package analysis

import (
	"math"
)

// normalityCostLimit guards the per-group normality check: above this
// sample size the check is skipped and reported as not computed.
const normalityCostLimit = 5000

// skewness computes the moment coefficient of skewness g1 = m3 / m2^1.5
// over population moments. NaN for a zero-variance series.
func skewness(data []float64) float64 {
	n := float64(len(data))
	if n < 1 {
		return math.NaN()
	}
	mean := 0.0
	for _, x := range data {
		mean += x
	}
	mean /= n

	var m2, m3 float64
	for _, x := range data {
		d := x - mean
		m2 += d * d
		m3 += d * d * d
	}
	m2 /= n
	m3 /= n
	if m2 == 0 {
		return math.NaN()
	}
	return m3 / math.Pow(m2, 1.5)
}

// kurtosis computes excess kurtosis g2 = m4 / m2^2 - 3 over population
// moments. NaN for a zero-variance series.
func kurtosis(data []float64) float64 {
	n := float64(len(data))
	if n < 1 {
		return math.NaN()
	}
	mean := 0.0
	for _, x := range data {
		mean += x
	}
	mean /= n

	var m2, m4 float64
	for _, x := range data {
		d := x - mean
		m2 += d * d
		m4 += d * d * d * d
	}
	m2 /= n
	m4 /= n
	if m2 == 0 {
		return math.NaN()
	}
	return m4/(m2*m2) - 3
}

// NormalityResult reports a per-group normality check. PValue is nil
// when the check was skipped (group too large or degenerate).
type NormalityResult struct {
	PValue *float64 `json:"normality_p"`
	Label  string   `json:"normality"`
}

// testNormality runs a moment-based omnibus normality check
// (Jarque-Bera statistic, chi-square with 2 degrees of freedom).
// Groups above normalityCostLimit observations are skipped to bound the
// engine's cost; the label then reads as not computed.
func testNormality(data []float64, dist *Distributions) NormalityResult {
	n := len(data)
	if n > normalityCostLimit {
		return NormalityResult{Label: "not computed (n > 5000)"}
	}
	if n < 3 {
		return NormalityResult{Label: "not computed (n < 3)"}
	}

	s := skewness(data)
	k := kurtosis(data)
	if math.IsNaN(s) || math.IsNaN(k) {
		// Zero-variance group: the moments are undefined.
		return NormalityResult{Label: "not computed (constant values)"}
	}

	jb := float64(n) / 6.0 * (s*s + k*k/4.0)
	p := dist.ChiSquarePValue(jb, 2)

	label := "non-normal"
	if p > Alpha {
		label = "normal"
	}
	rounded := Round4(p)
	return NormalityResult{PValue: &rounded, Label: label}
}

// isNormal reports whether a normality result allows a parametric test.
func (r NormalityResult) isNormal() bool {
	return r.Label == "normal"
}
