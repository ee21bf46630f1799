// Package ingest parses uploaded tabular files into the internal table
// form and infers a semantic kind for every column. Inference is
// deliberately conservative: a column is numeric only when every
// non-missing cell parses as a number.
package ingest

import (
	"encoding/csv"
	"io"
	"strings"

	"labrat/domain/table"
	"labrat/internal/errors"
)

// PreviewRows is how many leading rows the upload response echoes back
// for the client to render.
const PreviewRows = 5

// ParseCSV reads a comma-separated file into raw string records. The
// first row is the header; rows with a different field count are
// rejected so a silently misaligned table never reaches analysis.
func ParseCSV(r io.Reader) (table.Table, []string, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, errors.InvalidInput("Could not parse CSV file: " + err.Error())
	}
	return fromRows(rows)
}

// fromRows converts header+body string rows into records. Blank cells
// become explicit nils.
func fromRows(rows [][]string) (table.Table, []string, error) {
	if len(rows) == 0 {
		return nil, nil, errors.InvalidInput("File is empty.")
	}

	header := make([]string, len(rows[0]))
	for i, name := range rows[0] {
		header[i] = strings.TrimSpace(stripBOM(name))
	}
	if len(rows) < 2 {
		return nil, nil, errors.InvalidInput("File has a header but no data rows.")
	}

	t := make(table.Table, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := make(table.Record, len(header))
		for i, name := range header {
			var cell string
			if i < len(row) {
				cell = strings.TrimSpace(row[i])
			}
			if cell == "" {
				rec[name] = nil
			} else {
				rec[name] = cell
			}
		}
		t = append(t, rec)
	}
	return t, header, nil
}

// stripBOM drops a UTF-8 byte-order mark left by Windows exports.
func stripBOM(s string) string {
	return strings.TrimPrefix(s, "\uFEFF")
}

// Profile infers the kind of every column and counts missing and
// distinct values. Column order follows the file header.
func Profile(t table.Table, header []string) []table.ColumnInfo {
	infos := make([]table.ColumnInfo, 0, len(header))
	for _, name := range header {
		infos = append(infos, profileColumn(t, name))
	}
	return infos
}

func profileColumn(t table.Table, name string) table.ColumnInfo {
	info := table.ColumnInfo{Name: name}

	distinct := map[string]bool{}
	nonMissing := 0
	allNumeric := true
	for _, rec := range t {
		v := rec[name]
		if table.IsMissing(v) {
			info.Missing++
			continue
		}
		nonMissing++
		if s, ok := table.StringValue(v); ok {
			distinct[s] = true
		}
		if _, ok := table.CoerceValue(v); !ok {
			allNumeric = false
		}
	}

	switch {
	case nonMissing == 0:
		info.Type = table.KindCategorical
	case table.IsBooleanLike(t, name):
		info.Type = table.KindBoolean
		info.UniqueCount = len(distinct)
	case allNumeric:
		info.Type = table.KindNumeric
	default:
		info.Type = table.KindCategorical
		info.UniqueCount = len(distinct)
	}
	return info
}

// Normalize converts cells of numeric columns to float64 so equivalent
// spellings ("2", "2.0") collapse to one value downstream. Other kinds
// keep their raw strings.
func Normalize(t table.Table, columns []table.ColumnInfo) {
	for _, col := range columns {
		if col.Type != table.KindNumeric {
			continue
		}
		for _, rec := range t {
			if f, ok := table.CoerceValue(rec[col.Name]); ok {
				rec[col.Name] = f
			} else {
				rec[col.Name] = nil
			}
		}
	}
}

// Preview returns up to n leading rows for the upload response.
func Preview(t table.Table, n int) table.Table {
	if len(t) < n {
		n = len(t)
	}
	return t[:n]
}
