package analysis

import (
	"fmt"
	"math"

	"labrat/domain/table"
	"labrat/internal/errors"
)

// ChiSquareOutcome carries the chi-square test of independence.
type ChiSquareOutcome struct {
	Statistic   *float64 `json:"statistic"`
	PValue      string   `json:"p_value"`
	DOF         int      `json:"dof"`
	Significant bool     `json:"significant"`
}

// FisherOutcome carries Fisher's exact test for 2x2 tables.
type FisherOutcome struct {
	OddsRatio   *float64 `json:"odds_ratio"`
	PValue      string   `json:"p_value"`
	Significant bool     `json:"significant"`
}

// ChiSquareResult is the output of the categorical association test.
type ChiSquareResult struct {
	ColA              string           `json:"col_a"`
	ColB              string           `json:"col_b"`
	N                 int              `json:"n"`
	ChiSquare         ChiSquareOutcome `json:"chi_square"`
	Fisher            *FisherOutcome   `json:"fisher"`
	AssumptionWarning *string          `json:"assumption_warning"`
	Interpretation    string           `json:"interpretation"`
}

// Kind identifies the result type for transport and export dispatch.
func (*ChiSquareResult) Kind() string { return "chi_square" }

// ContingencyTable is a cross-tabulation of two categorical columns.
type ContingencyTable struct {
	Rows   []string
	Cols   []string
	Counts [][]float64
	Total  float64
}

// Crosstab builds the contingency table over rows where both columns
// are non-missing. Row/column categories keep first-seen order.
func Crosstab(t table.Table, colA, colB string) ContingencyTable {
	rowIdx := map[string]int{}
	colIdx := map[string]int{}
	var rows, cols []string
	type cell struct{ r, c int }
	cellCounts := map[cell]float64{}
	total := 0.0

	for _, rec := range t {
		a, okA := table.StringValue(rec[colA])
		b, okB := table.StringValue(rec[colB])
		if !okA || !okB {
			continue
		}
		ri, ok := rowIdx[a]
		if !ok {
			ri = len(rows)
			rowIdx[a] = ri
			rows = append(rows, a)
		}
		ci, ok := colIdx[b]
		if !ok {
			ci = len(cols)
			colIdx[b] = ci
			cols = append(cols, b)
		}
		cellCounts[cell{ri, ci}]++
		total++
	}

	counts := make([][]float64, len(rows))
	for r := range counts {
		counts[r] = make([]float64, len(cols))
		for c := range counts[r] {
			counts[r][c] = cellCounts[cell{r, c}]
		}
	}
	return ContingencyTable{Rows: rows, Cols: cols, Counts: counts, Total: total}
}

// ChiSquare tests association between two categorical columns. The
// Yates continuity correction is applied for 2x2 tables; those also get
// Fisher's exact test. If more than 20% of expected cell counts fall
// below 5 an assumption warning is attached.
func ChiSquare(t table.Table, colA, colB string) (*ChiSquareResult, error) {
	if !t.HasColumn(colA) || !t.HasColumn(colB) {
		return nil, errors.InvalidColumn("Columns '%s' or '%s' not found in dataset", colA, colB)
	}

	ct := Crosstab(t, colA, colB)
	if len(ct.Rows) == 0 || len(ct.Cols) == 0 {
		return nil, errors.EmptyContingencyTable("Could not build contingency table — check column values.")
	}

	dist := NewDistributions()
	chi2, dof, expected := chiSquareStatistic(ct)
	chiP := dist.ChiSquarePValue(chi2, dof)
	if dof == 0 {
		// Single row or column: independence is untestable.
		chiP = 1
	}

	var fisher *FisherOutcome
	if len(ct.Rows) == 2 && len(ct.Cols) == 2 {
		oddsRatio, fisherP := fisherExact(ct.Counts)
		fisher = &FisherOutcome{
			OddsRatio:   FloatPtr(oddsRatio, 4),
			PValue:      FormatP(fisherP),
			Significant: fisherP < Alpha,
		}
	}

	lowExpected := 0.0
	cells := 0
	for _, row := range expected {
		for _, e := range row {
			cells++
			if e < 5 {
				lowExpected++
			}
		}
	}
	lowFraction := lowExpected / float64(cells)
	var warning *string
	if lowFraction > 0.2 {
		w := fmt.Sprintf(
			"%v%% of expected cell counts are below 5 — chi-square results may not be reliable. Consider Fisher's exact test if available.",
			Round(lowFraction*100, 1))
		warning = &w
	}

	significant := chiP < Alpha
	found := "did not find"
	if significant {
		found = "found"
	}
	interpretation := fmt.Sprintf(
		"Chi-square test %s a statistically significant association between '%s' and '%s' (χ² = %v, df = %d, p = %s).",
		found, colA, colB, Round4(chi2), dof, FormatP(chiP))

	return &ChiSquareResult{
		ColA: colA,
		ColB: colB,
		N:    int(ct.Total),
		ChiSquare: ChiSquareOutcome{
			Statistic:   FloatPtr(chi2, 4),
			PValue:      FormatP(chiP),
			DOF:         dof,
			Significant: significant,
		},
		Fisher:            fisher,
		AssumptionWarning: warning,
		Interpretation:    interpretation,
	}, nil
}

// chiSquareStatistic computes the test statistic, degrees of freedom,
// and expected counts under independence.
func chiSquareStatistic(ct ContingencyTable) (chi2 float64, dof int, expected [][]float64) {
	nRows, nCols := len(ct.Rows), len(ct.Cols)
	rowSums := make([]float64, nRows)
	colSums := make([]float64, nCols)
	for r := 0; r < nRows; r++ {
		for c := 0; c < nCols; c++ {
			rowSums[r] += ct.Counts[r][c]
			colSums[c] += ct.Counts[r][c]
		}
	}

	expected = make([][]float64, nRows)
	for r := range expected {
		expected[r] = make([]float64, nCols)
		for c := range expected[r] {
			expected[r][c] = rowSums[r] * colSums[c] / ct.Total
		}
	}

	dof = (nRows - 1) * (nCols - 1)
	yates := dof == 1

	for r := 0; r < nRows; r++ {
		for c := 0; c < nCols; c++ {
			e := expected[r][c]
			if e == 0 {
				continue
			}
			d := math.Abs(ct.Counts[r][c] - e)
			if yates {
				d -= 0.5
				if d < 0 {
					d = 0
				}
			}
			chi2 += d * d / e
		}
	}
	return chi2, dof, expected
}

// fisherExact computes the sample odds ratio and the two-sided exact
// p-value for a 2x2 table by enumerating the hypergeometric
// distribution over the fixed margins.
func fisherExact(counts [][]float64) (oddsRatio, p float64) {
	a := counts[0][0]
	b := counts[0][1]
	c := counts[1][0]
	d := counts[1][1]

	if b*c == 0 {
		oddsRatio = math.Inf(1)
		if a*d == 0 {
			oddsRatio = math.NaN()
		}
	} else {
		oddsRatio = (a * d) / (b * c)
	}

	row1 := int(a + b)
	row2 := int(c + d)
	col1 := int(a + c)
	n := row1 + row2

	lo := col1 - row2
	if lo < 0 {
		lo = 0
	}
	hi := col1
	if row1 < hi {
		hi = row1
	}

	logPObs := hypergeomLogPMF(int(a), row1, row2, col1, n)
	// Tables at least as extreme: point probability no larger than the
	// observed one, with a small slack for float comparisons.
	const slack = 1e-7
	p = 0
	for k := lo; k <= hi; k++ {
		logPk := hypergeomLogPMF(k, row1, row2, col1, n)
		if logPk <= logPObs+slack {
			p += math.Exp(logPk)
		}
	}
	return oddsRatio, clampP(p)
}

// hypergeomLogPMF is log P(X = k) for k successes in the first row
// under fixed margins.
func hypergeomLogPMF(k, row1, row2, col1, n int) float64 {
	return logChoose(row1, k) + logChoose(row2, col1-k) - logChoose(n, col1)
}

func logChoose(n, k int) float64 {
	if k < 0 || k > n {
		return math.Inf(-1)
	}
	ln1, _ := math.Lgamma(float64(n + 1))
	lk, _ := math.Lgamma(float64(k + 1))
	lnk, _ := math.Lgamma(float64(n - k + 1))
	return ln1 - lk - lnk
}
