package table

import (
	"fmt"
	"strconv"
	"strings"
)

// Record is one row of an uploaded dataset: column name -> scalar value.
// Missing values are explicit nils, not absent keys.
type Record map[string]interface{}

// Table is an ordered sequence of records sharing one schema.
type Table []Record

// ColumnKind classifies a column for test selection.
type ColumnKind string

const (
	KindNumeric     ColumnKind = "numeric"
	KindCategorical ColumnKind = "categorical"
	KindBoolean     ColumnKind = "boolean"
)

// ColumnInfo is the per-column descriptor produced at ingestion and
// consumed read-only by the analyses and the suggestion engine.
type ColumnInfo struct {
	Name        string     `json:"name"`
	Type        ColumnKind `json:"type"`
	Missing     int        `json:"missing"`
	UniqueCount int        `json:"unique_count,omitempty"`
}

// HasColumn reports whether any record exposes the named column.
// An empty table has no columns.
func (t Table) HasColumn(name string) bool {
	if len(t) == 0 {
		return false
	}
	_, ok := t[0][name]
	return ok
}

// IsMissing reports whether a raw cell value counts as missing.
// Both explicit nulls and blank strings are missing.
func IsMissing(v interface{}) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// StringValue renders a non-missing scalar as a display string.
// Floats drop trailing zeros so 2.0 and 2 label the same group.
func StringValue(v interface{}) (string, bool) {
	if IsMissing(v) {
		return "", false
	}
	switch x := v.(type) {
	case string:
		return x, true
	case bool:
		return strconv.FormatBool(x), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	default:
		return fmt.Sprintf("%v", x), true
	}
}
