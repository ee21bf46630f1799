package analysis

import (
	"labrat/domain/table"
	"labrat/internal/errors"
	"testing"
)

// makeTable builds a table from a header and rows, nil cells included.
func makeTable(cols []string, rows ...[]interface{}) table.Table {
	t := make(table.Table, 0, len(rows))
	for _, row := range rows {
		rec := make(table.Record, len(cols))
		for i, col := range cols {
			rec[col] = row[i]
		}
		t = append(t, rec)
	}
	return t
}

// groupedTable builds a two-column table from ordered (label, values)
// pairs so group first-seen order is deterministic.
func groupedTable(groupCol, valueCol string, labels []string, values [][]float64) table.Table {
	var t table.Table
	for i, label := range labels {
		for _, v := range values[i] {
			t = append(t, table.Record{groupCol: label, valueCol: v})
		}
	}
	return t
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %s, got nil", code)
	}
	if got := errors.GetCode(err); got != code {
		t.Fatalf("expected error code %s, got %s (%v)", code, got, err)
	}
}
