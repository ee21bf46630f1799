// Package export renders stored analysis results as downloadable
// artifacts: flattened CSV, pretty-printed JSON, and an HTML report.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"labrat/internal/errors"
)

// tableKeys are the map keys, in priority order, under which a result
// may nest its row-oriented payload.
var tableKeys = []string{"table", "rows", "data", "results"}

// CSV flattens one stored result into a CSV document. Results come in
// three shapes: a list of row objects, an object wrapping such a list,
// or a flat object rendered as key/value pairs. Anything else becomes a
// single cell so the export never fails on an unexpected shape.
func CSV(raw json.RawMessage) ([]byte, error) {
	var value interface{}
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, errors.Wrap(err, "decode stored result")
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	switch v := value.(type) {
	case []interface{}:
		if rows, ok := asRowObjects(v); ok {
			writeRowObjects(w, rows)
		} else {
			writeFallback(w, value)
		}
	case map[string]interface{}:
		if rows, ok := nestedRows(v); ok {
			writeRowObjects(w, rows)
		} else {
			writeKeyValues(w, v)
		}
	default:
		writeFallback(w, value)
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, errors.Wrap(err, "write csv")
	}
	return buf.Bytes(), nil
}

// JSON pretty-prints one stored result.
func JSON(raw json.RawMessage) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return nil, errors.Wrap(err, "indent stored result")
	}
	return buf.Bytes(), nil
}

func asRowObjects(items []interface{}) ([]map[string]interface{}, bool) {
	if len(items) == 0 {
		return nil, false
	}
	rows := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			return nil, false
		}
		rows = append(rows, m)
	}
	return rows, true
}

func nestedRows(m map[string]interface{}) ([]map[string]interface{}, bool) {
	for _, key := range tableKeys {
		if inner, ok := m[key].([]interface{}); ok {
			if rows, ok := asRowObjects(inner); ok {
				return rows, true
			}
		}
	}
	return nil, false
}

// writeRowObjects emits a header of all keys (first-seen order across
// rows) followed by one line per row.
func writeRowObjects(w *csv.Writer, rows []map[string]interface{}) {
	var header []string
	seen := map[string]bool{}
	for _, row := range rows {
		keys := make([]string, 0, len(row))
		for k := range row {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if !seen[k] {
				seen[k] = true
				header = append(header, k)
			}
		}
	}

	w.Write(header)
	for _, row := range rows {
		line := make([]string, len(header))
		for i, k := range header {
			if v, ok := row[k]; ok {
				line[i] = cellString(v)
			}
		}
		w.Write(line)
	}
}

func writeKeyValues(w *csv.Writer, m map[string]interface{}) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	w.Write([]string{"field", "value"})
	for _, k := range keys {
		w.Write([]string{k, cellString(m[k])})
	}
}

func writeFallback(w *csv.Writer, value interface{}) {
	w.Write([]string{"value"})
	w.Write([]string{cellString(value)})
}

// cellString renders a decoded JSON value for a CSV cell. Composite
// values are re-encoded as compact JSON rather than Go's fmt form.
func cellString(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		return fmt.Sprintf("%t", x)
	default:
		raw, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprintf("%v", x)
		}
		return string(raw)
	}
}
