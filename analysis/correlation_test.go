package analysis

import (
	"testing"

	"labrat/domain/table"
	"labrat/internal/errors"
)

func xyTable(xs, ys []float64) table.Table {
	var t table.Table
	for i := range xs {
		t = append(t, table.Record{"x": xs[i], "y": ys[i]})
	}
	return t
}

func TestCorrelation_PerfectPositive(t *testing.T) {
	xs := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	ys := make([]float64, len(xs))
	for i, x := range xs {
		ys[i] = 2*x + 1
	}

	result, err := Correlation(xyTable(xs, ys), "x", "y")
	if err != nil {
		t.Fatal(err)
	}

	if result.Pearson.Coefficient == nil || *result.Pearson.Coefficient != 1 {
		t.Errorf("pearson r = %v, want 1", result.Pearson.Coefficient)
	}
	if result.Spearman.Coefficient == nil || *result.Spearman.Coefficient != 1 {
		t.Errorf("spearman rho = %v, want 1", result.Spearman.Coefficient)
	}
	if result.Pearson.PValue != "<0.0001" {
		t.Errorf("pearson p = %s, want <0.0001", result.Pearson.PValue)
	}
	if !result.Pearson.Significant {
		t.Error("perfect correlation should be significant")
	}
}

func TestCorrelation_Symmetry(t *testing.T) {
	xs := []float64{1.2, 3.4, 2.1, 5.6, 4.4, 6.1, 0.9, 3.3}
	ys := []float64{2.2, 3.1, 2.9, 6.2, 3.8, 5.9, 1.4, 3.0}

	ab, err := Correlation(xyTable(xs, ys), "x", "y")
	if err != nil {
		t.Fatal(err)
	}
	ba, err := Correlation(xyTable(xs, ys), "y", "x")
	if err != nil {
		t.Fatal(err)
	}

	if *ab.Pearson.Coefficient != *ba.Pearson.Coefficient {
		t.Errorf("pearson not symmetric: %v vs %v", *ab.Pearson.Coefficient, *ba.Pearson.Coefficient)
	}
	if *ab.Spearman.Coefficient != *ba.Spearman.Coefficient {
		t.Errorf("spearman not symmetric: %v vs %v", *ab.Spearman.Coefficient, *ba.Spearman.Coefficient)
	}
}

func TestCorrelation_NegativeDirection(t *testing.T) {
	xs := []float64{1, 2, 3, 4, 5, 6}
	ys := []float64{10, 8.1, 6.2, 3.9, 2.1, 0.5}

	result, err := Correlation(xyTable(xs, ys), "x", "y")
	if err != nil {
		t.Fatal(err)
	}
	if *result.Pearson.Coefficient >= 0 {
		t.Errorf("pearson r = %v, want negative", *result.Pearson.Coefficient)
	}
}

func TestCorrelation_InsufficientData(t *testing.T) {
	_, err := Correlation(xyTable([]float64{1, 2}, []float64{3, 4}), "x", "y")
	assertCode(t, err, errors.CodeInsufficientData)
}

func TestLinearRegression_ExactLine(t *testing.T) {
	xs := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	ys := make([]float64, len(xs))
	for i, x := range xs {
		ys[i] = 3*x + 2
	}

	result, err := LinearRegression(xyTable(xs, ys), "x", "y")
	if err != nil {
		t.Fatal(err)
	}

	if *result.Slope != 3 {
		t.Errorf("slope = %v, want 3", *result.Slope)
	}
	if *result.Intercept != 2 {
		t.Errorf("intercept = %v, want 2", *result.Intercept)
	}
	if *result.RSquared != 1 {
		t.Errorf("r_squared = %v, want 1", *result.RSquared)
	}
	if *result.StdErr != 0 {
		t.Errorf("std_err = %v, want 0 for perfect fit", *result.StdErr)
	}
	if result.PValue != "<0.0001" {
		t.Errorf("p = %s, want <0.0001", result.PValue)
	}
}

func TestLinearRegression_ConstantPredictor(t *testing.T) {
	xs := []float64{2, 2, 2, 2, 2}
	ys := []float64{1, 3, 2, 5, 4}

	result, err := LinearRegression(xyTable(xs, ys), "x", "y")
	if err != nil {
		t.Fatal(err)
	}
	if result.StdErr != nil {
		t.Errorf("std_err = %v, want null for constant predictor", result.StdErr)
	}
	if result.Significant {
		t.Error("constant predictor cannot be significant")
	}
}

func TestLinearRegression_PairwiseComplete(t *testing.T) {
	tbl := table.Table{
		{"x": 1.0, "y": 5.0},
		{"x": 2.0, "y": nil},
		{"x": nil, "y": 9.0},
		{"x": 3.0, "y": 11.0},
		{"x": 4.0, "y": 14.0},
	}
	result, err := LinearRegression(tbl, "x", "y")
	if err != nil {
		t.Fatal(err)
	}
	if result.N != 3 {
		t.Errorf("n = %d, want 3 pairwise-complete rows", result.N)
	}
}
