package analytics

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrUnknownMeasure = errors.New("unknown measure")

// Measure is the record field a weekly series sums.
type Measure string

const (
	MeasureQuantity Measure = "quantity"
	MeasureCost     Measure = "cost"
)

// ParseMeasure accepts "quantity"/"quantity_kg" and "cost". Empty selects quantity.
func ParseMeasure(s string) (Measure, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "quantity", "quantity_kg":
		return MeasureQuantity, nil
	case "cost":
		return MeasureCost, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMeasure, s)
}

const (
	// TrendWindow is the number of weeks the moving average spans.
	TrendWindow = 4
	// TrendMinPeriods is the fewest weeks that still produce an average.
	TrendMinPeriods = 1
)

// Outcome tells a ran-and-found-nothing result apart from one that had too little data to run.
type Outcome string

const (
	OutcomeOK                  Outcome = "ok"
	OutcomeInsufficientData    Outcome = "insufficient_data"
	OutcomeNoCurrentWeekData   Outcome = "no_current_week_data"
	OutcomeInsufficientHistory Outcome = "insufficient_weekly_history"
)

// WeeklyTotal is the sum of a measure over one week.
type WeeklyTotal struct {
	Week  Week    `json:"week"`
	Value float64 `json:"value"`
}

// TrendPoint is one week of a trend with its trailing moving average.
type TrendPoint struct {
	Week          Week    `json:"week"`
	Value         float64 `json:"value"`
	MovingAverage float64 `json:"moving_average"`
}

// Trend is the weekly series of a measure. Points is empty unless Outcome is OutcomeOK.
type Trend struct {
	Measure Measure      `json:"measure"`
	Outcome Outcome      `json:"outcome"`
	Points  []TrendPoint `json:"points"`
}

// Ready reports whether the trend has at least one point.
func (t Trend) Ready() bool { return t.Outcome == OutcomeOK }

// WeeklyTotals sums measure per week over dated records, chronologically.
// Weeks without records are not synthesized.
func WeeklyTotals(records []Record, measure Measure) ([]WeeklyTotal, error) {
	if measure != MeasureQuantity && measure != MeasureCost {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMeasure, measure)
	}

	qty := make(map[Week]decimal.Decimal)
	cost := make(map[Week]decimal.Decimal)
	weeks := make([]Week, 0)
	for _, r := range records {
		w, ok := r.Week()
		if !ok {
			continue
		}
		if _, seen := cost[w]; !seen {
			weeks = append(weeks, w)
			cost[w] = decimal.Zero
			qty[w] = decimal.Zero
		}
		qty[w] = qty[w].Add(r.Quantity())
		cost[w] = cost[w].Add(r.Cost)
	}
	sort.Slice(weeks, func(i, j int) bool { return weeks[i].Before(weeks[j]) })

	out := make([]WeeklyTotal, 0, len(weeks))
	for _, w := range weeks {
		v := qty[w].InexactFloat64()
		if measure == MeasureCost {
			v = cost[w].InexactFloat64()
		}
		out = append(out, WeeklyTotal{Week: w, Value: v})
	}
	return out, nil
}

// MovingAverage returns the trailing mean over up to window values at each index.
// Indices covering fewer than minPeriods values are left at 0.
func MovingAverage(values []float64, window, minPeriods int) []float64 {
	if window < 1 {
		window = 1
	}
	out := make([]float64, len(values))
	for i := range values {
		lo := i - window + 1
		if lo < 0 {
			lo = 0
		}
		n := i - lo + 1
		if n < minPeriods {
			continue
		}
		var sum float64
		for _, v := range values[lo : i+1] {
			sum += v
		}
		out[i] = sum / float64(n)
	}
	return out
}

// WeeklyTrend builds the weekly series of measure with its four-week moving average.
func WeeklyTrend(records []Record, measure Measure) (Trend, error) {
	totals, err := WeeklyTotals(records, measure)
	if err != nil {
		return Trend{}, err
	}
	if len(totals) == 0 {
		return Trend{Measure: measure, Outcome: OutcomeInsufficientData, Points: []TrendPoint{}}, nil
	}

	values := make([]float64, len(totals))
	for i, t := range totals {
		values[i] = t.Value
	}
	ma := MovingAverage(values, TrendWindow, TrendMinPeriods)

	points := make([]TrendPoint, len(totals))
	for i, t := range totals {
		points[i] = TrendPoint{Week: t.Week, Value: t.Value, MovingAverage: ma[i]}
	}
	return Trend{Measure: measure, Outcome: OutcomeOK, Points: points}, nil
}
