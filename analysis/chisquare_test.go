package analysis

import (
	"math"
	"testing"

	"labrat/domain/table"
	"labrat/internal/errors"
)

// contingencyTable expands cell counts into rows of a two-column table.
func contingencyTable(colA, colB string, cells map[[2]string]int, orderA, orderB []string) table.Table {
	var t table.Table
	for _, a := range orderA {
		for _, b := range orderB {
			for i := 0; i < cells[[2]string{a, b}]; i++ {
				t = append(t, table.Record{colA: a, colB: b})
			}
		}
	}
	return t
}

func TestChiSquare_AssociatedTable(t *testing.T) {
	// 2x2 table with a strong association:
	//             improved  not improved
	//   treated       8          2
	//   control       1          9
	tbl := contingencyTable("group", "outcome", map[[2]string]int{
		{"treated", "improved"}:     8,
		{"treated", "not improved"}: 2,
		{"control", "improved"}:     1,
		{"control", "not improved"}: 9,
	}, []string{"treated", "control"}, []string{"improved", "not improved"})

	result, err := ChiSquare(tbl, "group", "outcome")
	if err != nil {
		t.Fatal(err)
	}

	if result.N != 20 {
		t.Errorf("n = %d, want 20", result.N)
	}
	if result.ChiSquare.DOF != 1 {
		t.Errorf("dof = %d, want 1", result.ChiSquare.DOF)
	}
	// Yates-corrected statistic for this table.
	if result.ChiSquare.Statistic == nil || math.Abs(*result.ChiSquare.Statistic-7.2727) > 0.001 {
		t.Errorf("chi2 = %v, want 7.2727", result.ChiSquare.Statistic)
	}
	if !result.ChiSquare.Significant {
		t.Error("association should be significant")
	}

	if result.Fisher == nil {
		t.Fatal("2x2 table should include Fisher's exact test")
	}
	if result.Fisher.OddsRatio == nil || *result.Fisher.OddsRatio != 36 {
		t.Errorf("odds ratio = %v, want 36", result.Fisher.OddsRatio)
	}
	if !result.Fisher.Significant {
		t.Error("Fisher's exact should be significant")
	}

	// Half the expected counts fall below 5, so the warning must fire.
	if result.AssumptionWarning == nil {
		t.Error("expected low-count assumption warning")
	}
}

func TestChiSquare_IndependentTable(t *testing.T) {
	tbl := contingencyTable("a", "b", map[[2]string]int{
		{"x", "p"}: 20,
		{"x", "q"}: 20,
		{"y", "p"}: 20,
		{"y", "q"}: 20,
	}, []string{"x", "y"}, []string{"p", "q"})

	result, err := ChiSquare(tbl, "a", "b")
	if err != nil {
		t.Fatal(err)
	}
	if result.ChiSquare.Significant {
		t.Error("independent table should not be significant")
	}
	if result.AssumptionWarning != nil {
		t.Errorf("no warning expected for large cells, got %q", *result.AssumptionWarning)
	}
}

func TestChiSquare_NoFisherBeyond2x2(t *testing.T) {
	tbl := contingencyTable("a", "b", map[[2]string]int{
		{"x", "p"}: 10, {"x", "q"}: 10,
		{"y", "p"}: 10, {"y", "q"}: 10,
		{"z", "p"}: 10, {"z", "q"}: 10,
	}, []string{"x", "y", "z"}, []string{"p", "q"})

	result, err := ChiSquare(tbl, "a", "b")
	if err != nil {
		t.Fatal(err)
	}
	if result.Fisher != nil {
		t.Error("Fisher's exact only applies to 2x2 tables")
	}
	if result.ChiSquare.DOF != 2 {
		t.Errorf("dof = %d, want 2", result.ChiSquare.DOF)
	}
}

func TestChiSquare_EmptyTable(t *testing.T) {
	tbl := table.Table{
		{"a": nil, "b": "p"},
		{"a": "x", "b": nil},
	}
	_, err := ChiSquare(tbl, "a", "b")
	assertCode(t, err, errors.CodeEmptyContingencyTable)
}

func TestChiSquare_UnknownColumn(t *testing.T) {
	tbl := table.Table{{"a": "x", "b": "p"}}
	_, err := ChiSquare(tbl, "a", "missing")
	assertCode(t, err, errors.CodeInvalidColumn)
}

func TestFisherExact_KnownTable(t *testing.T) {
	// Exact p for [[8,2],[1,9]] with fixed margins is ~0.0055.
	or, p := fisherExact([][]float64{{8, 2}, {1, 9}})
	if or != 36 {
		t.Errorf("odds ratio = %v, want 36", or)
	}
	if math.Abs(p-0.0055) > 0.002 {
		t.Errorf("fisher p = %v, want ~0.0055", p)
	}
}

func TestFisherExact_ZeroCells(t *testing.T) {
	or, p := fisherExact([][]float64{{5, 0}, {0, 5}})
	if !math.IsInf(or, 1) {
		t.Errorf("odds ratio = %v, want +Inf when b*c = 0", or)
	}
	if p <= 0 || p > 1 {
		t.Errorf("p = %v out of range", p)
	}
}
