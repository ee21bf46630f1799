// Package suggest recommends statistical tests based on column types
// AND actual data validation. Tests that are structurally possible but
// would produce unreliable results (e.g. comparison groups with n < 3)
// are flagged or disabled rather than silently offered.
package suggest

import (
	"fmt"
	"math"
	"strings"

	"github.com/montanaflynn/stats"

	"labrat/domain/table"
)

// Suggestion is one recommended (or explicitly ruled-out) test.
type Suggestion struct {
	Test          string `json:"test"`
	Reason        string `json:"reason"`
	ColumnsNeeded string `json:"columns_needed"`
	Tier          int    `json:"tier"`
	Warning       string `json:"warning,omitempty"`
	Disabled      bool   `json:"disabled"`
}

// Priority tiers: core tests first, advanced tests second.
const (
	TierCore     = 1
	TierAdvanced = 2
)

// Engine inspects column descriptors plus live data and ranks the
// applicable tests. It holds no state across calls; suggestions are
// computed fresh on every request.
type Engine struct{}

// NewEngine creates a suggestion engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Suggest returns the ordered suggestion list for a dataset. The table
// is read-only; the engine never mutates or retains it.
func (e *Engine) Suggest(columns []table.ColumnInfo, data table.Table) []Suggestion {
	var numeric, categorical []table.ColumnInfo
	for _, c := range columns {
		switch c.Type {
		case table.KindNumeric:
			numeric = append(numeric, c)
		case table.KindCategorical, table.KindBoolean:
			categorical = append(categorical, c)
		}
	}

	suggestions := []Suggestion{}
	if s := e.descriptive(numeric); s != nil {
		suggestions = append(suggestions, *s)
	}
	if s := e.twoGroup(categorical, numeric, data); s != nil {
		suggestions = append(suggestions, *s)
	}
	if s := e.anova(categorical, numeric, data); s != nil {
		suggestions = append(suggestions, *s)
	}
	if s := e.correlation(numeric, data); s != nil {
		suggestions = append(suggestions, *s)
	}
	if s := e.regression(numeric, data); s != nil {
		suggestions = append(suggestions, *s)
	}
	if s := e.chiSquare(categorical, data); s != nil {
		suggestions = append(suggestions, *s)
	}
	if s := e.doseResponse(numeric, data); s != nil {
		suggestions = append(suggestions, *s)
	}
	suggestions = append(suggestions, e.kaplanMeier(columns, data))

	return suggestions
}

func (e *Engine) descriptive(numeric []table.ColumnInfo) *Suggestion {
	if len(numeric) == 0 {
		return nil
	}
	return &Suggestion{
		Test:          "Descriptive Statistics",
		Reason:        fmt.Sprintf("Summarise the distribution of your %d numeric column(s)", len(numeric)),
		ColumnsNeeded: "Any numeric column",
		Tier:          TierCore,
	}
}

func (e *Engine) twoGroup(categorical, numeric []table.ColumnInfo, data table.Table) *Suggestion {
	if len(categorical) == 0 || len(numeric) == 0 {
		return nil
	}

	for _, cat := range categorical {
		if !data.HasColumn(cat.Name) {
			continue
		}
		counts, _ := valueCounts(data, cat.Name)
		if len(counts) != 2 {
			continue
		}
		warning := ""
		if minN := minCount(counts); minN < 5 {
			warning = fmt.Sprintf(
				"'%s' has groups with only %d observation(s). At least 5 per group is recommended.",
				cat.Name, minN)
		}
		return &Suggestion{
			Test:          "Independent t-test / Mann-Whitney U",
			Reason:        fmt.Sprintf("Compare '%s' between the 2 groups in '%s'", numeric[0].Name, cat.Name),
			ColumnsNeeded: "One categorical column with exactly 2 groups + one numeric column",
			Tier:          TierCore,
			Warning:       warning,
		}
	}

	// No 2-group column found — suggest but disable.
	for _, cat := range categorical {
		if data.HasColumn(cat.Name) {
			return &Suggestion{
				Test:          "Independent t-test / Mann-Whitney U",
				Reason:        "Compare a numeric outcome between two groups",
				ColumnsNeeded: "One categorical column with exactly 2 groups + one numeric column",
				Tier:          TierCore,
				Warning:       "No column with exactly 2 groups found in this dataset.",
				Disabled:      true,
			}
		}
	}
	return nil
}

func (e *Engine) anova(categorical, numeric []table.ColumnInfo, data table.Table) *Suggestion {
	if len(categorical) == 0 || len(numeric) == 0 {
		return nil
	}

	for _, cat := range categorical {
		if !data.HasColumn(cat.Name) {
			continue
		}
		counts, order := valueCounts(data, cat.Name)
		if len(counts) < 3 {
			continue
		}
		var smallGroups []string
		for _, label := range order {
			if counts[label] < 3 {
				smallGroups = append(smallGroups, label)
			}
		}
		warning := ""
		if len(smallGroups) > 0 {
			warning = fmt.Sprintf(
				"Group(s) %s have fewer than 3 observations — they will be skipped. Results may be unreliable.",
				strings.Join(smallGroups, ", "))
		}
		return &Suggestion{
			Test:          "One-Way ANOVA",
			Reason:        fmt.Sprintf("Compare '%s' across %d groups in '%s'", numeric[0].Name, len(counts), cat.Name),
			ColumnsNeeded: "One categorical column with 3+ groups + one numeric column",
			Tier:          TierCore,
			Warning:       warning,
		}
	}

	return &Suggestion{
		Test:          "One-Way ANOVA",
		Reason:        "Compare a numeric outcome across three or more groups",
		ColumnsNeeded: "One categorical column with 3+ groups + one numeric column",
		Tier:          TierCore,
		Warning:       "No column with 3 or more groups found in this dataset.",
		Disabled:      true,
	}
}

func (e *Engine) correlation(numeric []table.ColumnInfo, data table.Table) *Suggestion {
	if len(numeric) < 2 {
		return nil
	}

	warning := ""
	if len(data) < 10 {
		warning = fmt.Sprintf("Only %d rows — correlation estimates will be imprecise.", len(data))
	}

	// Near-constant columns make the coefficient undefined; check the
	// first few numeric columns only to keep this cheap.
	limit := len(numeric)
	if limit > 4 {
		limit = 4
	}
	for _, num := range numeric[:limit] {
		if !data.HasColumn(num.Name) {
			continue
		}
		series := table.NumericSeries(data, num.Name)
		if len(series) == 0 {
			continue
		}
		std, _ := stats.StandardDeviationSample(series)
		if !math.IsNaN(std) && std < 1e-10 {
			warning = fmt.Sprintf("'%s' is constant — correlation is undefined.", num.Name)
			break
		}
	}

	return &Suggestion{
		Test:          "Correlation (Pearson / Spearman)",
		Reason:        "Measure the strength of relationship between two numeric variables",
		ColumnsNeeded: "Two numeric columns",
		Tier:          TierCore,
		Warning:       warning,
	}
}

func (e *Engine) regression(numeric []table.ColumnInfo, data table.Table) *Suggestion {
	if len(numeric) < 2 {
		return nil
	}
	warning := ""
	if len(data) < 20 {
		warning = fmt.Sprintf("Only %d rows — regression estimates will have wide confidence intervals.", len(data))
	}
	return &Suggestion{
		Test:          "Simple Linear Regression",
		Reason:        "Predict one numeric variable from another",
		ColumnsNeeded: "One predictor, one outcome (both numeric)",
		Tier:          TierCore,
		Warning:       warning,
	}
}

func (e *Engine) chiSquare(categorical []table.ColumnInfo, data table.Table) *Suggestion {
	if len(categorical) < 2 {
		return nil
	}

	warning := ""
	var present []table.ColumnInfo
	for _, c := range categorical {
		if data.HasColumn(c.Name) {
			present = append(present, c)
		}
	}
	if len(present) >= 2 {
		if pctLow, ok := lowExpectedFraction(data, present[0].Name, present[1].Name); ok && pctLow > 0.2 {
			warning = fmt.Sprintf(
				"%d%% of expected cell counts are below 5. Fisher's exact test will be used instead.",
				int(pctLow*100))
		}
		// Too many unique values makes the cross-tab meaningless.
		for _, cat := range present[:2] {
			if n := uniqueCount(data, cat.Name); n > 15 {
				warning = fmt.Sprintf("'%s' has %d unique values — chi-square may not be meaningful.", cat.Name, n)
			}
		}
	}

	return &Suggestion{
		Test:          "Chi-Square / Fisher's Exact Test",
		Reason:        "Test association between two categorical variables",
		ColumnsNeeded: "Two categorical columns",
		Tier:          TierAdvanced,
		Warning:       warning,
	}
}

func (e *Engine) doseResponse(numeric []table.ColumnInfo, data table.Table) *Suggestion {
	if len(numeric) < 2 {
		return nil
	}

	warning := ""
	disabled := false

	// A concentration-like column spans at least 2 orders of magnitude.
	concentrationFound := false
	for _, num := range numeric {
		if !data.HasColumn(num.Name) {
			continue
		}
		var positive []float64
		for _, v := range table.NumericSeries(data, num.Name) {
			if v > 0 {
				positive = append(positive, v)
			}
		}
		if len(positive) == 0 {
			continue
		}
		minV, _ := stats.Min(positive)
		maxV, _ := stats.Max(positive)
		if math.Log10(maxV)-math.Log10(minV) >= 2 {
			concentrationFound = true
			break
		}
	}

	if !concentrationFound {
		warning = "No column spanning ≥2 orders of magnitude found. Dose-response fitting requires wide concentration ranges."
		disabled = true
	}
	if len(data) < 8 {
		warning = fmt.Sprintf("Only %d data points — 4-parameter curve fitting needs at least 8.", len(data))
		disabled = true
	}

	return &Suggestion{
		Test:          "Dose-Response / IC50 Curve",
		Reason:        "Fit a sigmoidal curve to concentration-response data",
		ColumnsNeeded: "One concentration column + one response column (both numeric)",
		Tier:          TierCore,
		Warning:       warning,
		Disabled:      disabled,
	}
}

func (e *Engine) kaplanMeier(columns []table.ColumnInfo, data table.Table) Suggestion {
	warning := ""
	disabled := false

	eventColFound := false
	timeColFound := false
	for _, col := range columns {
		if !data.HasColumn(col.Name) {
			continue
		}
		series := table.NumericSeries(data, col.Name)
		if len(series) == 0 {
			continue
		}
		if isBinarySeries(series) {
			eventColFound = true
			if sum, _ := stats.Sum(series); sum == 0 {
				warning = fmt.Sprintf(
					"'%s' has no events (all zeros) — survival curve cannot be estimated.", col.Name)
				disabled = true
			}
		}
		if allNonNegative(series) && maxOf(series) > 1 {
			timeColFound = true
		}
	}

	if !eventColFound {
		warning = "No binary event column (0/1) found in this dataset."
		disabled = true
	} else if !timeColFound {
		warning = "No positive time column found in this dataset."
		disabled = true
	}

	return Suggestion{
		Test:          "Kaplan-Meier Survival Analysis",
		Reason:        "Analyse time-to-event data, estimate survival probability over time",
		ColumnsNeeded: "One time column + one event column (0/1) + optional group column",
		Tier:          TierAdvanced,
		Warning:       warning,
		Disabled:      disabled,
	}
}

// Data-inspection helpers.

// valueCounts tallies the raw values of a column, reporting labels in
// first-seen order.
func valueCounts(data table.Table, col string) (map[string]int, []string) {
	counts := map[string]int{}
	var order []string
	for _, rec := range data {
		if s, ok := table.StringValue(rec[col]); ok {
			if counts[s] == 0 {
				order = append(order, s)
			}
			counts[s]++
		}
	}
	return counts, order
}

func minCount(counts map[string]int) int {
	min := math.MaxInt
	for _, n := range counts {
		if n < min {
			min = n
		}
	}
	return min
}

func uniqueCount(data table.Table, col string) int {
	counts, _ := valueCounts(data, col)
	return len(counts)
}

// lowExpectedFraction computes the share of expected cell counts below
// 5 for the cross-tab of two categorical columns.
func lowExpectedFraction(data table.Table, colA, colB string) (float64, bool) {
	countsA, _ := valueCounts(data, colA)
	countsB, _ := valueCounts(data, colB)
	if len(countsA) == 0 || len(countsB) == 0 {
		return 0, false
	}
	total := 0
	for _, n := range countsA {
		total += n
	}
	low, cells := 0, 0
	for _, na := range countsA {
		for _, nb := range countsB {
			cells++
			if float64(na)*float64(nb)/float64(total) < 5 {
				low++
			}
		}
	}
	return float64(low) / float64(cells), true
}

func isBinarySeries(series []float64) bool {
	for _, v := range series {
		if v != 0 && v != 1 {
			return false
		}
	}
	return true
}

func allNonNegative(series []float64) bool {
	for _, v := range series {
		if v < 0 {
			return false
		}
	}
	return true
}

func maxOf(series []float64) float64 {
	max := math.Inf(-1)
	for _, v := range series {
		if v > max {
			max = v
		}
	}
	return max
}
