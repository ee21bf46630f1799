package analysis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

// Distributions provides unified access to the sampling distributions
// the procedures need, so p-value math lives in one place.
type Distributions struct{}

// NewDistributions creates a new distributions utility
func NewDistributions() *Distributions {
	return &Distributions{}
}

// TTestPValue computes the two-tailed p-value for a t-statistic using
// Student's t-distribution.
func (d *Distributions) TTestPValue(tStatistic float64, degreesOfFreedom float64) float64 {
	if degreesOfFreedom <= 0 || math.IsNaN(tStatistic) {
		return 1.0
	}
	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: degreesOfFreedom}
	return clampP(2 * (1 - tDist.CDF(math.Abs(tStatistic))))
}

// CorrelationPValue computes the two-tailed p-value for a correlation
// coefficient via the t transformation with n-2 degrees of freedom.
func (d *Distributions) CorrelationPValue(correlation float64, sampleSize int) float64 {
	if sampleSize < 3 {
		return 1.0
	}
	if math.Abs(correlation) >= 1 {
		return 0.0
	}
	df := float64(sampleSize - 2)
	tStatistic := correlation * math.Sqrt(df/(1-correlation*correlation))
	return d.TTestPValue(tStatistic, df)
}

// FTestPValue computes the upper-tail p-value for an F statistic
// (one-way ANOVA).
func (d *Distributions) FTestPValue(fStatistic float64, df1, df2 int) float64 {
	if df1 <= 0 || df2 <= 0 || math.IsNaN(fStatistic) {
		return 1.0
	}
	fDist := distuv.F{D1: float64(df1), D2: float64(df2)}
	return clampP(1 - fDist.CDF(fStatistic))
}

// ChiSquarePValue computes the upper-tail p-value for a chi-square
// statistic.
func (d *Distributions) ChiSquarePValue(chiSquare float64, degreesOfFreedom int) float64 {
	if degreesOfFreedom <= 0 || math.IsNaN(chiSquare) {
		return 1.0
	}
	chiDist := distuv.ChiSquared{K: float64(degreesOfFreedom)}
	return clampP(1 - chiDist.CDF(chiSquare))
}

// NormalCDF computes the cumulative distribution function of the
// standard normal.
func (d *Distributions) NormalCDF(x float64) float64 {
	return distuv.UnitNormal.CDF(x)
}

// MannWhitneyPValue computes the two-tailed p-value for a Mann-Whitney
// U statistic using the normal approximation with tie and continuity
// corrections. tieTerm is Σ(t³-t) over tie-group sizes in the pooled
// sample.
func (d *Distributions) MannWhitneyPValue(uStatistic float64, n1, n2 int, tieTerm float64) float64 {
	if n1 <= 0 || n2 <= 0 {
		return 1.0
	}
	nTotal := float64(n1 + n2)
	meanU := float64(n1*n2) / 2.0
	varU := (float64(n1*n2) / 12.0) * ((nTotal + 1) - tieTerm/(nTotal*(nTotal-1)))
	if varU <= 0 {
		return 1.0
	}
	// Continuity correction pulls the statistic toward the mean.
	num := math.Abs(uStatistic-meanU) - 0.5
	if num < 0 {
		num = 0
	}
	z := num / math.Sqrt(varU)
	return clampP(2 * (1 - d.NormalCDF(z)))
}

// KruskalWallisPValue computes the p-value for a Kruskal-Wallis H
// statistic via the chi-square approximation with k-1 degrees of
// freedom.
func (d *Distributions) KruskalWallisPValue(hStatistic float64, k int) float64 {
	if k < 2 {
		return 1.0
	}
	return d.ChiSquarePValue(hStatistic, k-1)
}

// Ranks converts values to ranks (1-based), averaging ties. It also
// returns Σ(t³-t) over tie groups for variance corrections.
func Ranks(data []float64) ([]float64, float64) {
	n := len(data)
	if n == 0 {
		return nil, 0
	}

	type pair struct {
		value float64
		index int
	}
	pairs := make([]pair, n)
	for i, v := range data {
		pairs[i] = pair{value: v, index: i}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].value < pairs[j].value })

	ranks := make([]float64, n)
	tieTerm := 0.0

	i := 0
	for i < n {
		j := i + 1
		for j < n && pairs[j].value == pairs[i].value {
			j++
		}
		groupSize := j - i
		avgRank := float64(i+1) + float64(groupSize-1)/2.0
		for k := i; k < j; k++ {
			ranks[pairs[k].index] = avgRank
		}
		if groupSize > 1 {
			g := float64(groupSize)
			tieTerm += g*g*g - g
		}
		i = j
	}

	return ranks, tieTerm
}
