package analysis

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/optimize"

	"labrat/domain/table"
	"labrat/internal/errors"
)

// maxFitEvaluations bounds the curve-fit optimizer so a non-sigmoidal
// dataset fails deterministically instead of hanging.
const maxFitEvaluations = 10000

// curvePoints is the resolution of the fitted curve returned for
// plotting.
const curvePoints = 200

// DoseResponseResult is the output of the 4PL dose-response fit.
type DoseResponseResult struct {
	ConcentrationCol string    `json:"concentration_col"`
	ResponseCol      string    `json:"response_col"`
	N                int       `json:"n"`
	EC50             float64   `json:"ec50"`
	HillSlope        float64   `json:"hill_slope"`
	Bottom           float64   `json:"bottom"`
	Top              float64   `json:"top"`
	RSquared         float64   `json:"r_squared"`
	CurveX           []float64 `json:"curve_x"`
	CurveY           []float64 `json:"curve_y"`
	DataX            []float64 `json:"data_x"`
	DataY            []float64 `json:"data_y"`
	Interpretation   string    `json:"interpretation"`
}

// Kind identifies the result type for transport and export dispatch.
func (*DoseResponseResult) Kind() string { return "dose_response" }

// fourPL evaluates the four-parameter logistic model
// y = bottom + (top-bottom) / (1 + (ec50/x)^hill). EC50 is carried in
// log space so the power term stays real-valued for every iterate the
// optimizer proposes, and the reported EC50 is always positive.
func fourPL(x, bottom, top, logEC50, hill float64) float64 {
	return bottom + (top-bottom)/(1+math.Exp(hill*(logEC50-math.Log(x))))
}

// DoseResponse fits a 4PL sigmoidal curve to concentration-response
// data via nonlinear least squares. Rows with non-positive
// concentrations are dropped (the model is defined on a log scale);
// at least 4 points must remain.
func DoseResponse(t table.Table, concentrationCol, responseCol string) (*DoseResponseResult, error) {
	if !t.HasColumn(concentrationCol) || !t.HasColumn(responseCol) {
		return nil, errors.InvalidColumn("Columns '%s' or '%s' not found in dataset", concentrationCol, responseCol)
	}

	rawX, rawY := table.PairedSeries(t, concentrationCol, responseCol)
	if len(rawX) < 4 {
		return nil, errors.InsufficientData("Need at least 4 data points for dose-response curve fitting.")
	}

	var x, y []float64
	for i := range rawX {
		if rawX[i] > 0 {
			x = append(x, rawX[i])
			y = append(y, rawY[i])
		}
	}
	if len(x) < 4 {
		return nil, errors.InsufficientData(
			"Not enough positive concentration values for curve fitting. Ensure concentration column has positive non-zero values.")
	}

	minY, _ := stats.Min(y)
	maxY, _ := stats.Max(y)
	medianX, _ := stats.Median(x)

	sse := func(theta []float64) float64 {
		sum := 0.0
		for i := range x {
			pred := fourPL(x[i], theta[0], theta[1], theta[2], theta[3])
			d := y[i] - pred
			sum += d * d
		}
		if math.IsNaN(sum) || math.IsInf(sum, 0) {
			return math.Inf(1)
		}
		return sum
	}

	problem := optimize.Problem{Func: sse}
	seed := []float64{minY, maxY, math.Log(medianX), 1.0}
	settings := &optimize.Settings{
		FuncEvaluations: maxFitEvaluations,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-10,
			Relative:   1e-10,
			Iterations: 50,
		},
	}

	result, err := optimize.Minimize(problem, seed, settings, &optimize.NelderMead{})
	if err != nil || result == nil ||
		result.Status == optimize.FunctionEvaluationLimit ||
		result.Status == optimize.IterationLimit ||
		result.Status == optimize.NotTerminated ||
		math.IsNaN(result.F) || math.IsInf(result.F, 0) {
		return nil, errors.CurveFitFailed(
			"Curve fitting failed — the data may not follow a sigmoidal pattern. Check that concentration values span the response range.")
	}

	bottom, top, logEC50, hill := result.X[0], result.X[1], result.X[2], result.X[3]
	ec50 := math.Exp(logEC50)
	// Plateau-only data can converge with logEC50 far outside float
	// range, overflowing to +Inf (or underflowing to 0).
	if math.IsInf(ec50, 0) || ec50 <= 0 {
		return nil, errors.CurveFitFailed(
			"Curve fitting did not identify a finite EC50 — the responses may not span both plateaus of a sigmoid.")
	}

	// Goodness of fit.
	yMean, _ := stats.Mean(y)
	var ssRes, ssTot float64
	for i := range x {
		pred := fourPL(x[i], bottom, top, logEC50, hill)
		ssRes += (y[i] - pred) * (y[i] - pred)
		ssTot += (y[i] - yMean) * (y[i] - yMean)
	}
	rSquared := 0.0
	if ssTot > 0 {
		rSquared = 1 - ssRes/ssTot
	}

	minX, _ := stats.Min(x)
	maxX, _ := stats.Max(x)
	curveX, curveY := sampleCurve(minX, maxX, bottom, top, logEC50, hill)

	dataX := make([]float64, len(x))
	dataY := make([]float64, len(y))
	for i := range x {
		dataX[i] = Round(x[i], 6)
		dataY[i] = Round4(y[i])
	}

	fitNote := "Consider checking data quality (R² < 0.9)."
	if rSquared > 0.9 {
		fitNote = "Good fit (R² > 0.9)."
	}
	interpretation := fmt.Sprintf(
		"Dose-response curve fitted successfully. EC50 = %v, Hill slope = %v, R² = %v. %s",
		Round(ec50, 6), Round4(hill), Round4(rSquared), fitNote)

	return &DoseResponseResult{
		ConcentrationCol: concentrationCol,
		ResponseCol:      responseCol,
		N:                len(x),
		EC50:             Round(ec50, 6),
		HillSlope:        Round4(hill),
		Bottom:           Round4(bottom),
		Top:              Round4(top),
		RSquared:         Round4(rSquared),
		CurveX:           curveX,
		CurveY:           curveY,
		DataX:            dataX,
		DataY:            dataY,
		Interpretation:   interpretation,
	}, nil
}

// sampleCurve generates evenly log-spaced fitted points across the
// observed concentration range (clamped away from zero) for plotting.
func sampleCurve(minX, maxX, bottom, top, logEC50, hill float64) (curveX, curveY []float64) {
	lo := math.Log10(math.Max(minX, 1e-10))
	hi := math.Log10(maxX)
	step := 0.0
	if curvePoints > 1 {
		step = (hi - lo) / float64(curvePoints-1)
	}

	curveX = make([]float64, curvePoints)
	curveY = make([]float64, curvePoints)
	for i := 0; i < curvePoints; i++ {
		xi := math.Pow(10, lo+float64(i)*step)
		curveX[i] = Round(xi, 6)
		curveY[i] = Round4(fourPL(xi, bottom, top, logEC50, hill))
	}
	return curveX, curveY
}
