package service

import (
	"errors"
	"sort"

	"github.com/mangalakulal105/benchtrack/internal/domain/entity"
	"github.com/mangalakulal105/benchtrack/internal/domain/valueobject"
)

// maxRegressionRatio caps the reported degradation ratio so collapsed or
// near-zero throughput values stay finite in alerts.
const maxRegressionRatio = 1000

// TrendAnalyzer computes per-measurement statistics over a run series and
// detects regressions between the newest run and its trailing window
// (Domain Service)
type TrendAnalyzer struct {
	// regression threshold as a ratio; 1.5 flags a value 50% worse
	// than the trailing mean
	threshold float64
	// number of preceding runs the trailing mean is computed over
	window int
}

// Regression describes a measurement of the latest run that degraded
// relative to the trailing window of its suite.
type Regression struct {
	Name         string
	Unit         valueobject.Unit
	Value        float64
	TrailingMean float64
	Ratio        float64
}

// NewTrendAnalyzer creates a TrendAnalyzer with default thresholds
func NewTrendAnalyzer() *TrendAnalyzer {
	return &TrendAnalyzer{threshold: 1.5, window: 5}
}

// NewTrendAnalyzerWith creates a TrendAnalyzer with an explicit ratio
// threshold and trailing window size
func NewTrendAnalyzerWith(threshold float64, window int) *TrendAnalyzer {
	if threshold <= 1 {
		threshold = 1.5
	}
	if window <= 0 {
		window = 5
	}
	return &TrendAnalyzer{threshold: threshold, window: window}
}

// SeriesValues extracts the chronological value series of a named measurement
func (a *TrendAnalyzer) SeriesValues(runs []*entity.BenchmarkRun, name string) []float64 {
	values := make([]float64, 0, len(runs))
	for _, run := range runs {
		if m, ok := run.Measurement(name); ok {
			values = append(values, m.Value())
		}
	}
	return values
}

// CalculateAverage computes the mean of a value series
func (a *TrendAnalyzer) CalculateAverage(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, errors.New("no values to aggregate")
	}

	var sum float64
	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values)), nil
}

// CalculateMin finds the minimum of a value series
func (a *TrendAnalyzer) CalculateMin(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, errors.New("no values to aggregate")
	}

	min := values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
	}

	return min, nil
}

// CalculateMax finds the maximum of a value series
func (a *TrendAnalyzer) CalculateMax(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, errors.New("no values to aggregate")
	}

	max := values[0]
	for _, v := range values[1:] {
		if v > max {
			max = v
		}
	}

	return max, nil
}

// CalculatePercentile computes the given percentile of a value series
func (a *TrendAnalyzer) CalculatePercentile(values []float64, percentile float64) (float64, error) {
	if len(values) == 0 {
		return 0, errors.New("no values to aggregate")
	}

	if percentile < 0 || percentile > 100 {
		return 0, errors.New("percentile must be between 0 and 100")
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	index := int(float64(len(sorted)-1) * (percentile / 100.0))
	return sorted[index], nil
}

// SortByRecordedAt sorts runs by capture time
func (a *TrendAnalyzer) SortByRecordedAt(runs []*entity.BenchmarkRun, descending bool) []*entity.BenchmarkRun {
	sorted := make([]*entity.BenchmarkRun, len(runs))
	copy(sorted, runs)

	sort.Slice(sorted, func(i, j int) bool {
		if descending {
			return sorted[i].RecordedAt().After(sorted[j].RecordedAt())
		}
		return sorted[i].RecordedAt().Before(sorted[j].RecordedAt())
	})

	return sorted
}

// DetectRegressions compares the latest run against the trailing window of
// preceding runs. Only duration-like measurements regress upward; throughput
// units (bytes/sec, ops/sec) regress downward.
func (a *TrendAnalyzer) DetectRegressions(latest *entity.BenchmarkRun, preceding []*entity.BenchmarkRun) []Regression {
	if latest == nil || len(preceding) == 0 {
		return nil
	}

	window := preceding
	if len(window) > a.window {
		// trailing window: the most recent runs only
		sorted := a.SortByRecordedAt(window, true)
		window = sorted[:a.window]
	}

	var regressions []Regression
	for _, m := range latest.Measurements() {
		values := a.SeriesValues(window, m.Name())
		if len(values) == 0 {
			continue
		}

		mean, err := a.CalculateAverage(values)
		if err != nil || mean == 0 {
			continue
		}

		var ratio float64
		switch {
		case m.Unit().IsDuration():
			ratio = m.Value() / mean
		case m.Value() == 0:
			// collapsed throughput: regression by definition, no division
			ratio = maxRegressionRatio
		default:
			ratio = mean / m.Value()
		}
		if ratio > maxRegressionRatio {
			ratio = maxRegressionRatio
		}

		if ratio >= a.threshold {
			regressions = append(regressions, Regression{
				Name:         m.Name(),
				Unit:         m.Unit(),
				Value:        m.Value(),
				TrailingMean: mean,
				Ratio:        ratio,
			})
		}
	}

	return regressions
}
