package analysis

import (
	"sync"

	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"

	"labrat/domain/table"
)

// ColumnStats is the per-column descriptive summary block.
type ColumnStats struct {
	Count    int      `json:"count"`
	Mean     float64  `json:"mean"`
	Median   float64  `json:"median"`
	Std      *float64 `json:"std"`
	Min      float64  `json:"min"`
	Max      float64  `json:"max"`
	Q1       float64  `json:"q1"`
	Q3       float64  `json:"q3"`
	IQR      float64  `json:"iqr"`
	Skewness *float64 `json:"skewness"`
	Kurtosis *float64 `json:"kurtosis"`
	Outliers int      `json:"outliers"`
}

// DescriptiveResult maps column name to its stat block.
type DescriptiveResult map[string]ColumnStats

// Kind identifies the result type for transport and export dispatch.
func (DescriptiveResult) Kind() string { return "descriptive" }

// DescriptiveStatistics computes per-column summaries for the selected
// columns. Columns absent from the table are silently skipped (this
// procedure alone treats unknown columns as omission, not failure), and
// boolean-like columns are silently omitted because continuous
// statistics are not meaningful for a 2-valued column.
func DescriptiveStatistics(t table.Table, columns []string) (DescriptiveResult, error) {
	results := make(DescriptiveResult)

	var mu sync.Mutex
	var g errgroup.Group

	for _, col := range columns {
		if !t.HasColumn(col) {
			continue
		}
		if table.IsBooleanLike(t, col) {
			continue
		}
		col := col
		g.Go(func() error {
			series := table.NumericSeries(t, col)
			if len(series) == 0 {
				return nil
			}
			block := summarizeColumn(series)
			mu.Lock()
			results[col] = block
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func summarizeColumn(series []float64) ColumnStats {
	// montanaflynn errors only on empty input, which the caller excludes.
	mean, _ := stats.Mean(series)
	median, _ := stats.Median(series)
	std, _ := stats.StandardDeviationSample(series)
	min, _ := stats.Min(series)
	max, _ := stats.Max(series)
	q1, _ := stats.Percentile(series, 25)
	q3, _ := stats.Percentile(series, 75)
	iqr := q3 - q1

	// Outliers per the 1.5x IQR rule.
	lower := q1 - 1.5*iqr
	upper := q3 + 1.5*iqr
	outliers := 0
	for _, v := range series {
		if v < lower || v > upper {
			outliers++
		}
	}

	return ColumnStats{
		Count:    len(series),
		Mean:     Round4(mean),
		Median:   Round4(median),
		Std:      FloatPtr(std, 4),
		Min:      Round4(min),
		Max:      Round4(max),
		Q1:       Round4(q1),
		Q3:       Round4(q3),
		IQR:      Round4(iqr),
		Skewness: FloatPtr(skewness(series), 4),
		Kurtosis: FloatPtr(kurtosis(series), 4),
		Outliers: outliers,
	}
}
