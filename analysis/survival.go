package analysis

import (
	"fmt"
	"sort"

	"labrat/domain/table"
	"labrat/internal/errors"
)

// SurvivalPoint is one step of a Kaplan-Meier curve.
type SurvivalPoint struct {
	Time     float64 `json:"time"`
	Survival float64 `json:"survival"`
}

// GroupSurvival is a per-group survival curve.
type GroupSurvival struct {
	Curve          []SurvivalPoint `json:"curve"`
	MedianSurvival *float64        `json:"median_survival"`
	N              int             `json:"n"`
}

// SurvivalResult is the output of the Kaplan-Meier analysis. Either
// Curve/MedianSurvival (whole population) or Groups (stratified) is
// populated, matching whether a group column was supplied.
type SurvivalResult struct {
	TimeCol        string                   `json:"time_col"`
	EventCol       string                   `json:"event_col"`
	N              int                      `json:"n"`
	Curve          []SurvivalPoint          `json:"curve,omitempty"`
	MedianSurvival *float64                 `json:"median_survival,omitempty"`
	Groups         map[string]GroupSurvival `json:"groups,omitempty"`
	Interpretation string                   `json:"interpretation"`
}

// Kind identifies the result type for transport and export dispatch.
func (*SurvivalResult) Kind() string { return "kaplan_meier" }

// KaplanMeier estimates the survival function from time-to-event data.
// event = 1 marks an observed event, 0 a censored observation. When a
// group column is supplied and present in the table, one curve is
// estimated independently per group (groups with fewer than 3 valid
// paired observations are skipped).
func KaplanMeier(t table.Table, timeCol, eventCol, groupCol string) (*SurvivalResult, error) {
	for _, col := range []string{timeCol, eventCol} {
		if !t.HasColumn(col) {
			return nil, errors.InvalidColumn("Column '%s' not found in dataset", col)
		}
	}

	times, events := table.PairedSeries(t, timeCol, eventCol)
	if len(times) < 3 {
		return nil, errors.InsufficientData("Not enough valid observations for survival analysis.")
	}

	result := &SurvivalResult{
		TimeCol:  timeCol,
		EventCol: eventCol,
		N:        len(times),
	}

	if groupCol != "" && t.HasColumn(groupCol) {
		groupCurves := make(map[string]GroupSurvival)
		for _, label := range table.DistinctGroups(t, groupCol) {
			gt, ge := groupPairedSeries(t, groupCol, label, timeCol, eventCol)
			if len(gt) < 3 {
				continue
			}
			curve, median := kmCurve(gt, ge)
			groupCurves[label] = GroupSurvival{
				Curve:          curve,
				MedianSurvival: median,
				N:              len(gt),
			}
		}
		result.Groups = groupCurves
		result.Interpretation = fmt.Sprintf(
			"Kaplan-Meier survival curves computed for %d groups of '%s'.", len(groupCurves), groupCol)
		return result, nil
	}

	curve, median := kmCurve(times, events)
	result.Curve = curve
	result.MedianSurvival = median
	medianText := "not reached"
	if median != nil {
		medianText = fmt.Sprintf("%v", *median)
	}
	result.Interpretation = fmt.Sprintf(
		"Kaplan-Meier survival analysis completed. Median survival time: %s.", medianText)
	return result, nil
}

// groupPairedSeries extracts the pairwise-complete time/event series of
// rows whose normalized group label matches.
func groupPairedSeries(t table.Table, groupCol, label, timeCol, eventCol string) (times, events []float64) {
	for _, rec := range t {
		l, ok := table.NormalizeLabel(rec[groupCol])
		if !ok || l != label {
			continue
		}
		tv, okT := table.CoerceValue(rec[timeCol])
		ev, okE := table.CoerceValue(rec[eventCol])
		if okT && okE {
			times = append(times, tv)
			events = append(events, ev)
		}
	}
	return times, events
}

// kmCurve computes the Kaplan-Meier product-limit estimate. The curve
// starts at (0, 1.0) and steps down at each distinct event time; it is
// monotonically non-increasing with survival in [0, 1]. The median is
// the first time survival drops to 0.5 or below, nil if never reached.
func kmCurve(times, events []float64) ([]SurvivalPoint, *float64) {
	n := len(times)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool { return times[order[i]] < times[order[j]] })

	sortedTimes := make([]float64, n)
	sortedEvents := make([]float64, n)
	for i, idx := range order {
		sortedTimes[i] = times[idx]
		sortedEvents[i] = events[idx]
	}

	// Distinct event times, ascending.
	var eventTimes []float64
	seen := map[float64]bool{}
	for i := 0; i < n; i++ {
		if sortedEvents[i] == 1 && !seen[sortedTimes[i]] {
			seen[sortedTimes[i]] = true
			eventTimes = append(eventTimes, sortedTimes[i])
		}
	}

	survival := 1.0
	curve := []SurvivalPoint{{Time: 0, Survival: 1.0}}

	for _, et := range eventTimes {
		atRisk := 0
		eventsAtT := 0
		for i := 0; i < n; i++ {
			if sortedTimes[i] >= et {
				atRisk++
			}
			if sortedTimes[i] == et && sortedEvents[i] == 1 {
				eventsAtT++
			}
		}
		survival *= 1 - float64(eventsAtT)/float64(atRisk)
		curve = append(curve, SurvivalPoint{
			Time:     Round4(et),
			Survival: Round4(survival),
		})
	}

	var median *float64
	for _, pt := range curve {
		if pt.Survival <= 0.5 {
			m := pt.Time
			median = &m
			break
		}
	}
	return curve, median
}
