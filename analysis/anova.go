package analysis

import (
	"fmt"
	"strings"

	"github.com/montanaflynn/stats"

	"labrat/domain/table"
	"labrat/internal/errors"
)

// AnovaResult is the output of the N-group comparison.
type AnovaResult struct {
	GroupColumn    string                  `json:"group_column"`
	ValueColumn    string                  `json:"value_column"`
	NGroups        int                     `json:"n_groups"`
	SkippedGroups  []string                `json:"skipped_groups"`
	Groups         map[string]GroupSummary `json:"groups"`
	Anova          AnovaOutcome            `json:"anova"`
	KruskalWallis  KruskalOutcome          `json:"kruskal_wallis"`
	Interpretation string                  `json:"interpretation"`
}

// AnovaOutcome carries the one-way ANOVA F statistic.
type AnovaOutcome struct {
	FStatistic  *float64 `json:"f_statistic"`
	PValue      string   `json:"p_value"`
	Significant bool     `json:"significant"`
}

// KruskalOutcome carries the Kruskal-Wallis H statistic.
type KruskalOutcome struct {
	HStatistic  *float64 `json:"h_statistic"`
	PValue      string   `json:"p_value"`
	Significant bool     `json:"significant"`
}

// Kind identifies the result type for transport and export dispatch.
func (*AnovaResult) Kind() string { return "anova" }

// OneWayAnova compares a numeric outcome across three or more groups
// using one-way ANOVA and the Kruskal-Wallis test. Groups with fewer
// than 3 observations are skipped and named in the result; if fewer
// than 3 valid groups remain the call fails.
func OneWayAnova(t table.Table, groupCol, valueCol string) (*AnovaResult, error) {
	if !t.HasColumn(groupCol) || !t.HasColumn(valueCol) {
		return nil, errors.InvalidColumn("Columns '%s' or '%s' not found in dataset", groupCol, valueCol)
	}

	labels := table.DistinctGroups(t, groupCol)
	if len(labels) < 3 {
		return nil, errors.InvalidGroupCount(
			"Expected 3+ groups in '%s', found %d. Use t-test / Mann-Whitney for 2 groups.",
			groupCol, len(labels))
	}

	partition, order := table.Partition(t, groupCol, valueCol)

	var skipped []string
	var retained []string
	for _, label := range order {
		if len(partition[label]) < 3 {
			skipped = append(skipped, label)
		} else {
			retained = append(retained, label)
		}
	}

	if len(retained) < 3 {
		return nil, errors.TooFewValidGroups(
			"After removing small groups, fewer than 3 valid groups remain. Skipped groups: %s",
			strings.Join(skipped, ", "))
	}

	groupSeries := make([][]float64, 0, len(retained))
	for _, label := range retained {
		groupSeries = append(groupSeries, partition[label])
	}

	dist := NewDistributions()
	fStat, fP := oneWayF(groupSeries, dist)
	hStat, hP := kruskalWallisH(groupSeries, dist)

	fSignificant := fP < Alpha
	hSignificant := hP < Alpha

	summaries := make(map[string]GroupSummary, len(retained))
	for _, label := range retained {
		series := partition[label]
		mean, _ := stats.Mean(series)
		median, _ := stats.Median(series)
		std, _ := stats.StandardDeviationSample(series)
		summaries[label] = GroupSummary{
			N:      len(series),
			Mean:   Round4(mean),
			Median: Round4(median),
			Std:    FloatPtr(std, 4),
		}
	}

	var interpretation string
	if fSignificant {
		interpretation = fmt.Sprintf(
			"One-way ANOVA found a statistically significant difference in '%s' across %d groups of '%s' (F = %v, p = %s). Consider running post-hoc tests to identify which groups differ.",
			valueCol, len(retained), groupCol, Round4(fStat), FormatP(fP))
	} else {
		interpretation = fmt.Sprintf(
			"No statistically significant difference was found in '%s' across groups of '%s' (F = %v, p = %s).",
			valueCol, groupCol, Round4(fStat), FormatP(fP))
	}

	if skipped == nil {
		skipped = []string{}
	}

	return &AnovaResult{
		GroupColumn:   groupCol,
		ValueColumn:   valueCol,
		NGroups:       len(retained),
		SkippedGroups: skipped,
		Groups:        summaries,
		Anova: AnovaOutcome{
			FStatistic:  FloatPtr(fStat, 4),
			PValue:      FormatP(fP),
			Significant: fSignificant,
		},
		KruskalWallis: KruskalOutcome{
			HStatistic:  FloatPtr(hStat, 4),
			PValue:      FormatP(hP),
			Significant: hSignificant,
		},
		Interpretation: interpretation,
	}, nil
}

// oneWayF computes the equal-variance F statistic across group means.
func oneWayF(groups [][]float64, dist *Distributions) (fStat, p float64) {
	k := len(groups)
	totalN := 0
	grandSum := 0.0
	for _, g := range groups {
		totalN += len(g)
		for _, v := range g {
			grandSum += v
		}
	}
	grandMean := grandSum / float64(totalN)

	var ssBetween, ssWithin float64
	for _, g := range groups {
		mean, _ := stats.Mean(g)
		n := float64(len(g))
		d := mean - grandMean
		ssBetween += n * d * d
		for _, v := range g {
			dv := v - mean
			ssWithin += dv * dv
		}
	}

	df1 := k - 1
	df2 := totalN - k
	if ssWithin == 0 {
		if ssBetween == 0 {
			return 0, 1
		}
		// All within-group variance vanished while means differ.
		return 0, 0
	}
	fStat = (ssBetween / float64(df1)) / (ssWithin / float64(df2))
	return fStat, dist.FTestPValue(fStat, df1, df2)
}

// kruskalWallisH computes the tie-corrected H statistic across groups.
func kruskalWallisH(groups [][]float64, dist *Distributions) (hStat, p float64) {
	var pooled []float64
	for _, g := range groups {
		pooled = append(pooled, g...)
	}
	nTotal := float64(len(pooled))

	ranks, tieTerm := Ranks(pooled)

	h := 0.0
	offset := 0
	for _, g := range groups {
		n := len(g)
		rankSum := 0.0
		for i := 0; i < n; i++ {
			rankSum += ranks[offset+i]
		}
		h += rankSum * rankSum / float64(n)
		offset += n
	}
	h = 12.0/(nTotal*(nTotal+1))*h - 3*(nTotal+1)

	// Correction for ties in the pooled sample.
	correction := 1 - tieTerm/(nTotal*nTotal*nTotal-nTotal)
	if correction <= 0 {
		// Every observation tied: the rank test carries no information.
		return 0, 1
	}
	h /= correction

	return h, dist.KruskalWallisPValue(h, len(groups))
}
