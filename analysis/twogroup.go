package analysis

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"

	"labrat/domain/table"
	"labrat/internal/errors"
)

// GroupSummary describes one comparison group.
type GroupSummary struct {
	N          int      `json:"n"`
	Mean       float64  `json:"mean"`
	Median     float64  `json:"median"`
	Std        *float64 `json:"std"`
	NormalityP *float64 `json:"normality_p,omitempty"`
	Normality  string   `json:"normality,omitempty"`
}

// TestOutcome carries a test statistic with a display-formatted p-value.
type TestOutcome struct {
	Statistic   *float64 `json:"statistic"`
	PValue      string   `json:"p_value"`
	Significant bool     `json:"significant"`
}

// RankOutcome carries a rank-based statistic with a raw rounded p-value.
type RankOutcome struct {
	Statistic   *float64 `json:"statistic"`
	PValue      *float64 `json:"p_value"`
	Significant bool     `json:"significant"`
}

// TwoGroupResult is the output of the two-group comparison.
type TwoGroupResult struct {
	GroupColumn     string                  `json:"group_column"`
	ValueColumn     string                  `json:"value_column"`
	Groups          map[string]GroupSummary `json:"groups"`
	TTest           TestOutcome             `json:"t_test"`
	MannWhitney     RankOutcome             `json:"mann_whitney"`
	RecommendedTest string                  `json:"recommended_test"`
	Interpretation  string                  `json:"interpretation"`
}

// Kind identifies the result type for transport and export dispatch.
func (*TwoGroupResult) Kind() string { return "two_group" }

// TwoGroupComparison compares a numeric outcome between exactly two
// groups using an independent two-sample t-test (equal-variance,
// two-sided) and the Mann-Whitney U test, with a per-group normality
// check driving method selection. Textual group labels are
// case/whitespace-normalized before the group count so equivalent
// spellings merge into one group.
func TwoGroupComparison(t table.Table, groupCol, valueCol string) (*TwoGroupResult, error) {
	if !t.HasColumn(groupCol) || !t.HasColumn(valueCol) {
		return nil, errors.InvalidColumn("Columns '%s' or '%s' not found in dataset", groupCol, valueCol)
	}

	labels := table.DistinctGroups(t, groupCol)
	if len(labels) != 2 {
		return nil, errors.InvalidGroupCount(
			"Expected exactly 2 groups in '%s', found %d. Use One-Way ANOVA for 3+ groups.",
			groupCol, len(labels))
	}

	partition, _ := table.Partition(t, groupCol, valueCol)
	labelA, labelB := labels[0], labels[1]
	groupA, groupB := partition[labelA], partition[labelB]

	if len(groupA) < 3 || len(groupB) < 3 {
		return nil, errors.InsufficientData("Each group must have at least 3 observations to run this test.")
	}

	dist := NewDistributions()
	normA := testNormality(groupA, dist)
	normB := testNormality(groupB, dist)

	tStat, tP := studentTTest(groupA, groupB, dist)
	uStat, uP := mannWhitneyU(groupA, groupB, dist)

	tSignificant := tP < Alpha
	uSignificant := uP < Alpha
	bothNormal := normA.isNormal() && normB.isNormal()

	var recommended string
	var recommendedP float64
	var significant bool
	if bothNormal {
		recommended = "t-test"
		recommendedP = tP
		significant = tSignificant
	} else {
		recommended = "Mann-Whitney U"
		recommendedP = uP
		significant = uSignificant
	}

	var interpretation string
	if significant {
		rationale := "At least one group is non-normal, so Mann-Whitney U is recommended."
		if bothNormal {
			rationale = "Both groups appear normally distributed, so the t-test is appropriate."
		}
		interpretation = fmt.Sprintf(
			"There is a statistically significant difference in '%s' between %s and %s (p = %s, %s test). %s",
			valueCol, labelA, labelB, FormatP(recommendedP), recommended, rationale)
	} else {
		interpretation = fmt.Sprintf(
			"No statistically significant difference was found in '%s' between %s and %s (p = %s, %s test).",
			valueCol, labelA, labelB, FormatP(recommendedP), recommended)
	}

	return &TwoGroupResult{
		GroupColumn: groupCol,
		ValueColumn: valueCol,
		Groups: map[string]GroupSummary{
			labelA: summarizeGroup(groupA, normA),
			labelB: summarizeGroup(groupB, normB),
		},
		TTest: TestOutcome{
			Statistic:   FloatPtr(tStat, 4),
			PValue:      FormatP(tP),
			Significant: tSignificant,
		},
		MannWhitney: RankOutcome{
			Statistic:   FloatPtr(uStat, 4),
			PValue:      FloatPtr(uP, 4),
			Significant: uSignificant,
		},
		RecommendedTest: recommended,
		Interpretation:  interpretation,
	}, nil
}

func summarizeGroup(series []float64, norm NormalityResult) GroupSummary {
	mean, _ := stats.Mean(series)
	median, _ := stats.Median(series)
	std, _ := stats.StandardDeviationSample(series)
	return GroupSummary{
		N:          len(series),
		Mean:       Round4(mean),
		Median:     Round4(median),
		Std:        FloatPtr(std, 4),
		NormalityP: norm.PValue,
		Normality:  norm.Label,
	}
}

// studentTTest computes the equal-variance two-sample t statistic and
// its two-sided p-value. A zero pooled standard error yields p = 1 when
// the means agree and p = 0 when they differ; the statistic itself is
// undefined and reported as null.
func studentTTest(a, b []float64, dist *Distributions) (tStat, p float64) {
	n1, n2 := float64(len(a)), float64(len(b))
	mean1, _ := stats.Mean(a)
	mean2, _ := stats.Mean(b)
	var1, _ := stats.SampleVariance(a)
	var2, _ := stats.SampleVariance(b)

	df := n1 + n2 - 2
	pooled := ((n1-1)*var1 + (n2-1)*var2) / df
	se := math.Sqrt(pooled * (1/n1 + 1/n2))
	if se == 0 {
		if mean1 == mean2 {
			return 0, 1
		}
		return math.NaN(), 0
	}
	tStat = (mean1 - mean2) / se
	return tStat, dist.TTestPValue(tStat, df)
}

// mannWhitneyU computes the U statistic for the first group against the
// second, with its tie-corrected two-sided p-value.
func mannWhitneyU(a, b []float64, dist *Distributions) (uStat, p float64) {
	n1, n2 := len(a), len(b)
	pooled := make([]float64, 0, n1+n2)
	pooled = append(pooled, a...)
	pooled = append(pooled, b...)

	ranks, tieTerm := Ranks(pooled)
	rankSumA := 0.0
	for i := 0; i < n1; i++ {
		rankSumA += ranks[i]
	}

	uStat = rankSumA - float64(n1*(n1+1))/2.0
	return uStat, dist.MannWhitneyPValue(uStat, n1, n2, tieTerm)
}
