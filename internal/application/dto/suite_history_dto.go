package dto

import (
	"time"

	"github.com/mangalakulal105/benchtrack/internal/domain/entity"
	"github.com/mangalakulal105/benchtrack/internal/domain/service"
)

// MeasurementSeriesDTO carries the aggregates of one measurement name
// across a suite's run series
type MeasurementSeriesDTO struct {
	Name    string  `json:"name"`
	Unit    string  `json:"unit"`
	Average float64 `json:"average"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Latest  float64 `json:"latest"`
	Samples int     `json:"samples"`
}

// SuiteHistoryDTO represents a suite's runs over a time range with
// per-measurement aggregates
type SuiteHistoryDTO struct {
	Suite           string                 `json:"suite"`
	Runs            []RunDTO               `json:"runs"`
	Series          []MeasurementSeriesDTO `json:"series"`
	RegressionCount int                    `json:"regression_count"`
}

// RunEventDTO is broadcast over the WebSocket hub when a run is ingested
type RunEventDTO struct {
	Timestamp time.Time    `json:"timestamp"`
	Suite     string       `json:"suite"`
	Run       RunDetailDTO `json:"run"`
}

// NewRunEventDTO builds the live-update payload for an ingested run
func NewRunEventDTO(run *entity.BenchmarkRun) *RunEventDTO {
	return &RunEventDTO{
		Timestamp: time.Now().UTC(),
		Suite:     run.Suite().String(),
		Run:       FromEntityDetail(run),
	}
}

// AlertDTO is broadcast when a measurement regresses against its
// trailing window
type AlertDTO struct {
	Timestamp    time.Time `json:"timestamp"`
	Level        string    `json:"level"`
	Suite        string    `json:"suite"`
	CommitID     string    `json:"commit_id"`
	Measurement  string    `json:"measurement"`
	Unit         string    `json:"unit"`
	Value        float64   `json:"value"`
	TrailingMean float64   `json:"trailing_mean"`
	Ratio        float64   `json:"ratio"`
	Message      string    `json:"message"`
}

// NewAlertDTO builds an alert payload from a detected regression
func NewAlertDTO(run *entity.BenchmarkRun, regression service.Regression, message string) *AlertDTO {
	level := "warning"
	if regression.Ratio >= 2 {
		level = "critical"
	}

	return &AlertDTO{
		Timestamp:    time.Now().UTC(),
		Level:        level,
		Suite:        run.Suite().String(),
		CommitID:     run.Commit().ID(),
		Measurement:  regression.Name,
		Unit:         regression.Unit.String(),
		Value:        regression.Value,
		TrailingMean: regression.TrailingMean,
		Ratio:        regression.Ratio,
		Message:      message,
	}
}

// LatestRunsDTO is the dashboard landing payload: the newest run per suite
type LatestRunsDTO struct {
	Timestamp time.Time               `json:"timestamp"`
	Suites    map[string]RunDetailDTO `json:"suites"`
}
