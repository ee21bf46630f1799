package table

import (
	"strconv"
	"strings"
)

// CoerceValue attempts a numeric parse of a single raw cell.
// Booleans coerce to 0/1; strings must parse as floats; anything
// non-coercible is dropped by the caller, never imputed.
func CoerceValue(v interface{}) (float64, bool) {
	if IsMissing(v) {
		return 0, false
	}
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// NumericSeries coerces a column to numbers, excluding values that fail
// to parse. The series is ephemeral: recomputed per analysis call.
func NumericSeries(t Table, col string) []float64 {
	series := make([]float64, 0, len(t))
	for _, rec := range t {
		if f, ok := CoerceValue(rec[col]); ok {
			series = append(series, f)
		}
	}
	return series
}

// booleanLexicon covers the literal forms a boolean-like cell may take.
var booleanLexicon = map[string]bool{
	"true": true, "false": true, "0": true, "1": true,
}

// IsBooleanLike reports whether a column's non-missing values,
// case-normalized, form a subset of {"true","false","0","1"} with at
// most two distinct values. Boolean-like columns are excluded from
// continuous statistics but remain valid grouping keys.
func IsBooleanLike(t Table, col string) bool {
	distinct := map[string]bool{}
	seen := false
	for _, rec := range t {
		s, ok := StringValue(rec[col])
		if !ok {
			continue
		}
		seen = true
		norm := strings.ToLower(strings.TrimSpace(s))
		if !booleanLexicon[norm] {
			return false
		}
		distinct[norm] = true
		if len(distinct) > 2 {
			return false
		}
	}
	return seen
}

// NormalizeLabel produces the grouping key for a raw group-column cell.
// Textual labels are case/whitespace-normalized so equivalent spellings
// merge into one group; the caller's table is never mutated.
func NormalizeLabel(v interface{}) (string, bool) {
	s, ok := StringValue(v)
	if !ok {
		return "", false
	}
	return strings.ToLower(strings.TrimSpace(s)), true
}

// DistinctGroups returns the normalized distinct labels of a column in
// first-seen order, ignoring missing cells.
func DistinctGroups(t Table, col string) []string {
	var order []string
	seen := map[string]bool{}
	for _, rec := range t {
		label, ok := NormalizeLabel(rec[col])
		if !ok {
			continue
		}
		if !seen[label] {
			seen[label] = true
			order = append(order, label)
		}
	}
	return order
}

// Partition splits a value column into per-group numeric series keyed by
// the normalized group label. Rows with a missing group label or a
// non-coercible value are dropped.
func Partition(t Table, groupCol, valueCol string) (map[string][]float64, []string) {
	groups := make(map[string][]float64)
	var order []string
	for _, rec := range t {
		label, ok := NormalizeLabel(rec[groupCol])
		if !ok {
			continue
		}
		if _, exists := groups[label]; !exists {
			groups[label] = nil
			order = append(order, label)
		}
		if f, ok := CoerceValue(rec[valueCol]); ok {
			groups[label] = append(groups[label], f)
		}
	}
	return groups, order
}

// PairedSeries coerces two columns and keeps only rows where both parse
// (pairwise-complete observations).
func PairedSeries(t Table, colA, colB string) (a, b []float64) {
	for _, rec := range t {
		x, okX := CoerceValue(rec[colA])
		y, okY := CoerceValue(rec[colB])
		if okX && okY {
			a = append(a, x)
			b = append(b, y)
		}
	}
	return a, b
}
