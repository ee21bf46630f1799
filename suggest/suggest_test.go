package suggest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labrat/domain/table"
)

func columns(infos ...table.ColumnInfo) []table.ColumnInfo { return infos }

func numericCol(name string) table.ColumnInfo {
	return table.ColumnInfo{Name: name, Type: table.KindNumeric}
}

func categoricalCol(name string, unique int) table.ColumnInfo {
	return table.ColumnInfo{Name: name, Type: table.KindCategorical, UniqueCount: unique}
}

func findSuggestion(s []Suggestion, test string) *Suggestion {
	for i := range s {
		if s[i].Test == test {
			return &s[i]
		}
	}
	return nil
}

func twoGroupData(n int) table.Table {
	var t table.Table
	for i := 0; i < n; i++ {
		group := "drug"
		if i%2 == 0 {
			group = "placebo"
		}
		t = append(t, table.Record{
			"treatment": group,
			"response":  float64(i) + 1,
			"age":       float64(20 + i),
		})
	}
	return t
}

func TestSuggest_TwoGroupDataset(t *testing.T) {
	engine := NewEngine()
	data := twoGroupData(20)
	cols := columns(categoricalCol("treatment", 2), numericCol("response"), numericCol("age"))

	suggestions := engine.Suggest(cols, data)

	desc := findSuggestion(suggestions, "Descriptive Statistics")
	require.NotNil(t, desc)
	assert.False(t, desc.Disabled)
	assert.Equal(t, TierCore, desc.Tier)

	twoGroup := findSuggestion(suggestions, "Independent t-test / Mann-Whitney U")
	require.NotNil(t, twoGroup)
	assert.False(t, twoGroup.Disabled)
	assert.Empty(t, twoGroup.Warning, "10 per group needs no warning")

	// Only two groups exist, so ANOVA is offered but disabled.
	anova := findSuggestion(suggestions, "One-Way ANOVA")
	require.NotNil(t, anova)
	assert.True(t, anova.Disabled)

	corr := findSuggestion(suggestions, "Correlation (Pearson / Spearman)")
	require.NotNil(t, corr)
	assert.False(t, corr.Disabled)
}

func TestSuggest_SmallGroupsWarn(t *testing.T) {
	engine := NewEngine()
	data := twoGroupData(6) // 3 per group
	cols := columns(categoricalCol("treatment", 2), numericCol("response"))

	suggestions := engine.Suggest(cols, data)
	twoGroup := findSuggestion(suggestions, "Independent t-test / Mann-Whitney U")
	require.NotNil(t, twoGroup)
	assert.NotEmpty(t, twoGroup.Warning)
	assert.False(t, twoGroup.Disabled)
}

func TestSuggest_NoNumericColumns(t *testing.T) {
	engine := NewEngine()
	data := table.Table{{"color": "red"}, {"color": "blue"}}
	cols := columns(categoricalCol("color", 2))

	suggestions := engine.Suggest(cols, data)
	assert.Nil(t, findSuggestion(suggestions, "Descriptive Statistics"))
	assert.Nil(t, findSuggestion(suggestions, "Correlation (Pearson / Spearman)"))
}

func TestSuggest_DoseResponseNeedsWideRange(t *testing.T) {
	engine := NewEngine()

	// Narrow range: under two orders of magnitude.
	var narrow table.Table
	for i := 1; i <= 10; i++ {
		narrow = append(narrow, table.Record{"dose": float64(i), "resp": float64(i * 2)})
	}
	cols := columns(numericCol("dose"), numericCol("resp"))

	s := findSuggestion(engine.Suggest(cols, narrow), "Dose-Response / IC50 Curve")
	require.NotNil(t, s)
	assert.True(t, s.Disabled)

	// Wide range: 0.1 to 100 spans three orders.
	var wide table.Table
	doses := []float64{0.1, 0.3, 1, 3, 10, 30, 100, 300}
	for _, d := range doses {
		wide = append(wide, table.Record{"dose": d, "resp": d * 2})
	}
	s = findSuggestion(engine.Suggest(cols, wide), "Dose-Response / IC50 Curve")
	require.NotNil(t, s)
	assert.False(t, s.Disabled)
}

func TestSuggest_KaplanMeierDetection(t *testing.T) {
	engine := NewEngine()

	// No binary event column.
	plain := twoGroupData(10)
	cols := columns(categoricalCol("treatment", 2), numericCol("response"), numericCol("age"))
	km := findSuggestion(engine.Suggest(cols, plain), "Kaplan-Meier Survival Analysis")
	require.NotNil(t, km, "KM suggestion is always present")
	assert.True(t, km.Disabled)

	// Proper time + event columns.
	var surv table.Table
	for i, tm := range []float64{5, 8, 12, 20, 25} {
		surv = append(surv, table.Record{"time": tm, "event": float64(i % 2)})
	}
	survCols := columns(numericCol("time"), numericCol("event"))
	km = findSuggestion(engine.Suggest(survCols, surv), "Kaplan-Meier Survival Analysis")
	require.NotNil(t, km)
	assert.False(t, km.Disabled)

	// Events present but all zero.
	for i := range surv {
		surv[i]["event"] = 0.0
	}
	km = findSuggestion(engine.Suggest(survCols, surv), "Kaplan-Meier Survival Analysis")
	require.NotNil(t, km)
	assert.True(t, km.Disabled)
	assert.Contains(t, km.Warning, "no events")
}

func TestSuggest_KaplanMeierNeedsTimeColumn(t *testing.T) {
	engine := NewEngine()

	// A binary event column with no plausible time column.
	var data table.Table
	for i := 0; i < 6; i++ {
		data = append(data, table.Record{"event": float64(i % 2)})
	}
	cols := columns(numericCol("event"))
	km := findSuggestion(engine.Suggest(cols, data), "Kaplan-Meier Survival Analysis")
	require.NotNil(t, km)
	assert.True(t, km.Disabled)
	assert.Contains(t, km.Warning, "time column")

	// The missing time column takes precedence over the no-events
	// warning when both apply.
	for i := range data {
		data[i]["event"] = 0.0
	}
	km = findSuggestion(engine.Suggest(cols, data), "Kaplan-Meier Survival Analysis")
	require.NotNil(t, km)
	assert.True(t, km.Disabled)
	assert.Contains(t, km.Warning, "time column")
}

func TestSuggest_AnovaSmallGroupOrderIsStable(t *testing.T) {
	engine := NewEngine()

	var data table.Table
	for i := 0; i < 5; i++ {
		data = append(data, table.Record{"grp": "gamma", "val": float64(i)})
	}
	data = append(data,
		table.Record{"grp": "beta", "val": 1.0},
		table.Record{"grp": "beta", "val": 2.0},
		table.Record{"grp": "alpha", "val": 3.0})
	cols := columns(categoricalCol("grp", 3), numericCol("val"))

	// Small groups are listed in first-seen order on every run.
	for i := 0; i < 10; i++ {
		s := findSuggestion(engine.Suggest(cols, data), "One-Way ANOVA")
		require.NotNil(t, s)
		assert.Contains(t, s.Warning, "beta, alpha")
	}
}

func TestSuggest_ChiSquareWarnings(t *testing.T) {
	engine := NewEngine()

	var data table.Table
	for i := 0; i < 8; i++ {
		data = append(data, table.Record{"a": "x", "b": "p"})
	}
	data = append(data,
		table.Record{"a": "x", "b": "q"},
		table.Record{"a": "y", "b": "p"},
		table.Record{"a": "y", "b": "q"})

	cols := columns(categoricalCol("a", 2), categoricalCol("b", 2))
	s := findSuggestion(engine.Suggest(cols, data), "Chi-Square / Fisher's Exact Test")
	require.NotNil(t, s)
	assert.Equal(t, TierAdvanced, s.Tier)
	assert.Contains(t, s.Warning, "Fisher")
}
