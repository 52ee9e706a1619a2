package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/mangalakulal105/benchtrack/internal/domain/entity"
	"github.com/mangalakulal105/benchtrack/internal/domain/valueobject"
)

// clock skew tolerance for runs submitted straight from a CI runner
const captureTimeSlack = 5 * time.Minute

// RunValidator validates benchmark runs before they enter the history (Domain Service)
type RunValidator struct{}

// NewRunValidator creates a new RunValidator
func NewRunValidator() *RunValidator {
	return &RunValidator{}
}

// Validate performs full validation of a benchmark run
func (v *RunValidator) Validate(run *entity.BenchmarkRun) error {
	if run == nil {
		return errors.New("run cannot be nil")
	}

	if err := run.Suite().Validate(); err != nil {
		return err
	}

	measurements := run.Measurements()
	if len(measurements) == 0 {
		return errors.New("run must contain at least one measurement")
	}

	seen := make(map[string]valueobject.Unit, len(measurements))
	for _, m := range measurements {
		if err := m.Unit().Validate(); err != nil {
			return fmt.Errorf("measurement %q: %w", m.Name(), err)
		}

		if unit, ok := seen[m.Name()]; ok && unit != m.Unit() {
			return fmt.Errorf("measurement %q appears with conflicting units %s and %s",
				m.Name(), unit, m.Unit())
		}
		seen[m.Name()] = m.Unit()
	}

	if run.RecordedAt().IsZero() {
		return errors.New("recorded_at cannot be zero")
	}

	if run.RecordedAt().After(time.Now().Add(captureTimeSlack)) {
		return errors.New("recorded_at cannot be in the future")
	}

	return nil
}

// NameSetDiverges reports whether the run's measurement names differ from the
// previous run of the same suite. Producers are expected to keep the name set
// stable so the dashboard can draw continuous series; divergence is a signal,
// not an error.
func (v *RunValidator) NameSetDiverges(run, previous *entity.BenchmarkRun) bool {
	if run == nil || previous == nil {
		return false
	}

	current := run.MeasurementNames()
	prior := previous.MeasurementNames()
	if len(current) != len(prior) {
		return true
	}

	priorSet := make(map[string]struct{}, len(prior))
	for _, name := range prior {
		priorSet[name] = struct{}{}
	}

	for _, name := range current {
		if _, ok := priorSet[name]; !ok {
			return true
		}
	}

	return false
}

// ValidateAppendOrder enforces the chronological-append invariant: a new run
// must not be older than the newest run already recorded for its suite.
func (v *RunValidator) ValidateAppendOrder(run, suiteHead *entity.BenchmarkRun) error {
	if suiteHead == nil {
		return nil
	}

	if run.RecordedAt().Before(suiteHead.RecordedAt()) {
		return fmt.Errorf("run at %s is older than suite head at %s",
			run.RecordedAt().Format(time.RFC3339),
			suiteHead.RecordedAt().Format(time.RFC3339))
	}

	return nil
}
