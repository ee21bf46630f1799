package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"labrat/domain/table"
	"labrat/internal/errors"
)

// CorrelationOutcome carries one correlation coefficient with its test.
type CorrelationOutcome struct {
	Coefficient *float64 `json:"coefficient"`
	PValue      string   `json:"p_value"`
	Significant bool     `json:"significant"`
}

// CorrelationResult is the output of the bivariate correlation analysis.
type CorrelationResult struct {
	ColA           string             `json:"col_a"`
	ColB           string             `json:"col_b"`
	N              int                `json:"n"`
	Pearson        CorrelationOutcome `json:"pearson"`
	Spearman       CorrelationOutcome `json:"spearman"`
	Interpretation string             `json:"interpretation"`
}

// Kind identifies the result type for transport and export dispatch.
func (*CorrelationResult) Kind() string { return "correlation" }

// Correlation computes Pearson and Spearman correlation between two
// numeric columns over pairwise-complete observations, each with a
// two-sided significance test.
func Correlation(t table.Table, colA, colB string) (*CorrelationResult, error) {
	if !t.HasColumn(colA) || !t.HasColumn(colB) {
		return nil, errors.InvalidColumn("Columns '%s' or '%s' not found in dataset", colA, colB)
	}

	a, b := table.PairedSeries(t, colA, colB)
	if len(a) < 3 {
		return nil, errors.InsufficientData("Not enough valid observations to compute correlation.")
	}

	dist := NewDistributions()

	pearsonR := stat.Correlation(a, b, nil)
	pearsonP := dist.CorrelationPValue(pearsonR, len(a))

	ranksA, _ := Ranks(a)
	ranksB, _ := Ranks(b)
	spearmanRho := stat.Correlation(ranksA, ranksB, nil)
	spearmanP := dist.CorrelationPValue(spearmanRho, len(a))

	direction := "positive"
	if pearsonR < 0 {
		direction = "negative"
	}
	interpretation := fmt.Sprintf(
		"There is a %s %s correlation between '%s' and '%s' (Pearson r = %v, p = %s). Spearman rho = %v (p = %s).",
		strengthLabel(pearsonR), direction, colA, colB,
		Round4(pearsonR), FormatP(pearsonP),
		Round4(spearmanRho), FormatP(spearmanP))

	return &CorrelationResult{
		ColA: colA,
		ColB: colB,
		N:    len(a),
		Pearson: CorrelationOutcome{
			Coefficient: FloatPtr(pearsonR, 4),
			PValue:      FormatP(pearsonP),
			Significant: pearsonP < Alpha,
		},
		Spearman: CorrelationOutcome{
			Coefficient: FloatPtr(spearmanRho, 4),
			PValue:      FormatP(spearmanP),
			Significant: spearmanP < Alpha,
		},
		Interpretation: interpretation,
	}, nil
}

// strengthLabel classifies |r| into the conventional bands.
func strengthLabel(r float64) string {
	switch abs := math.Abs(r); {
	case abs >= 0.9:
		return "very strong"
	case abs >= 0.7:
		return "strong"
	case abs >= 0.5:
		return "moderate"
	case abs >= 0.3:
		return "weak"
	default:
		return "negligible"
	}
}

// RegressionResult is the output of simple linear regression.
type RegressionResult struct {
	Predictor      string   `json:"predictor"`
	Outcome        string   `json:"outcome"`
	N              int      `json:"n"`
	Slope          *float64 `json:"slope"`
	Intercept      *float64 `json:"intercept"`
	RSquared       *float64 `json:"r_squared"`
	RValue         *float64 `json:"r_value"`
	PValue         string   `json:"p_value"`
	StdErr         *float64 `json:"std_err"`
	Significant    bool     `json:"significant"`
	Interpretation string   `json:"interpretation"`
}

// Kind identifies the result type for transport and export dispatch.
func (*RegressionResult) Kind() string { return "regression" }

// LinearRegression fits ordinary least squares of the outcome on a
// single predictor over pairwise-complete observations.
func LinearRegression(t table.Table, predictorCol, outcomeCol string) (*RegressionResult, error) {
	if !t.HasColumn(predictorCol) || !t.HasColumn(outcomeCol) {
		return nil, errors.InvalidColumn("Columns '%s' or '%s' not found in dataset", predictorCol, outcomeCol)
	}

	x, y := table.PairedSeries(t, predictorCol, outcomeCol)
	if len(x) < 3 {
		return nil, errors.InsufficientData("Not enough valid observations for regression.")
	}

	n := len(x)
	intercept, slope := stat.LinearRegression(x, y, nil, false)
	rValue := stat.Correlation(x, y, nil)
	rSquared := rValue * rValue

	// Standard error of the slope from the residual variance.
	xMean := stat.Mean(x, nil)
	var ssRes, ssX float64
	for i := range x {
		resid := y[i] - (intercept + slope*x[i])
		ssRes += resid * resid
		dx := x[i] - xMean
		ssX += dx * dx
	}

	dist := NewDistributions()
	var stdErr, pValue float64
	if ssX == 0 {
		stdErr, pValue = math.NaN(), 1
	} else if ssRes == 0 {
		// Perfect fit: the slope estimate has no sampling error.
		stdErr, pValue = 0, 0
	} else {
		stdErr = math.Sqrt(ssRes / float64(n-2) / ssX)
		pValue = dist.TTestPValue(slope/stdErr, float64(n-2))
	}

	significant := pValue < Alpha
	signifText := "The predictor is not statistically significant."
	if significant {
		signifText = "The predictor is statistically significant."
	}
	interpretation := fmt.Sprintf(
		"Linear regression of '%s' on '%s': slope = %v, intercept = %v, R² = %v, p = %s. %s R² = %v means %v%% of variance in the outcome is explained by the predictor.",
		outcomeCol, predictorCol, Round4(slope), Round4(intercept), Round4(rSquared),
		FormatP(pValue), signifText, Round4(rSquared), Round(rSquared*100, 1))

	return &RegressionResult{
		Predictor:      predictorCol,
		Outcome:        outcomeCol,
		N:              n,
		Slope:          FloatPtr(slope, 4),
		Intercept:      FloatPtr(intercept, 4),
		RSquared:       FloatPtr(rSquared, 4),
		RValue:         FloatPtr(rValue, 4),
		PValue:         FormatP(pValue),
		StdErr:         FloatPtr(stdErr, 4),
		Significant:    significant,
		Interpretation: interpretation,
	}, nil
}
