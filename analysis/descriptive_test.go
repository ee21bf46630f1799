package analysis

import (
	"testing"

	"labrat/domain/table"
)

func TestDescriptiveStatistics_Quartiles(t *testing.T) {
	tbl := makeTable([]string{"value"},
		[]interface{}{1.0}, []interface{}{2.0}, []interface{}{3.0},
		[]interface{}{4.0}, []interface{}{5.0}, []interface{}{6.0},
		[]interface{}{7.0}, []interface{}{8.0}, []interface{}{9.0},
		[]interface{}{10.0})

	result, err := DescriptiveStatistics(tbl, []string{"value"})
	if err != nil {
		t.Fatal(err)
	}

	block, ok := result["value"]
	if !ok {
		t.Fatal("missing stats for 'value'")
	}
	if block.Count != 10 {
		t.Errorf("count = %d, want 10", block.Count)
	}
	if block.Min != 1 || block.Max != 10 {
		t.Errorf("min/max = %v/%v, want 1/10", block.Min, block.Max)
	}
	if !(block.Min <= block.Q1 && block.Q1 <= block.Median &&
		block.Median <= block.Q3 && block.Q3 <= block.Max) {
		t.Errorf("quartile ordering violated: %+v", block)
	}
	if block.IQR != Round4(block.Q3-block.Q1) {
		t.Errorf("IQR = %v, want Q3-Q1 = %v", block.IQR, block.Q3-block.Q1)
	}
	if block.Outliers != 0 {
		t.Errorf("outliers = %d, want 0", block.Outliers)
	}
}

func TestDescriptiveStatistics_DetectsOutliers(t *testing.T) {
	tbl := makeTable([]string{"value"},
		[]interface{}{10.0}, []interface{}{11.0}, []interface{}{12.0},
		[]interface{}{10.5}, []interface{}{11.5}, []interface{}{12.5},
		[]interface{}{11.0}, []interface{}{10.8}, []interface{}{11.2},
		[]interface{}{500.0})

	result, err := DescriptiveStatistics(tbl, []string{"value"})
	if err != nil {
		t.Fatal(err)
	}
	if result["value"].Outliers < 1 {
		t.Errorf("expected at least 1 outlier, got %d", result["value"].Outliers)
	}
}

func TestDescriptiveStatistics_SkipsUnknownAndBooleanColumns(t *testing.T) {
	tbl := table.Table{
		{"value": 1.0, "flag": "true"},
		{"value": 2.0, "flag": "false"},
		{"value": 3.0, "flag": "true"},
	}

	result, err := DescriptiveStatistics(tbl, []string{"value", "flag", "no_such_column"})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := result["flag"]; ok {
		t.Error("boolean-like column should be omitted")
	}
	if _, ok := result["no_such_column"]; ok {
		t.Error("unknown column should be omitted, not summarized")
	}
	if _, ok := result["value"]; !ok {
		t.Error("numeric column should be summarized")
	}
}

func TestDescriptiveStatistics_SkipsMissingValues(t *testing.T) {
	tbl := table.Table{
		{"value": 1.0},
		{"value": nil},
		{"value": "  "},
		{"value": 3.0},
	}
	result, err := DescriptiveStatistics(tbl, []string{"value"})
	if err != nil {
		t.Fatal(err)
	}
	if result["value"].Count != 2 {
		t.Errorf("count = %d, want 2 (missing values excluded)", result["value"].Count)
	}
	if result["value"].Mean != 2 {
		t.Errorf("mean = %v, want 2", result["value"].Mean)
	}
}
