package entity

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mangalakulal105/benchtrack/internal/domain/valueobject"
)

// BenchmarkRun represents one recorded execution of a benchmark suite
// tied to a specific commit (Aggregate Root)
type BenchmarkRun struct {
	id           string
	suite        valueobject.SuiteName
	commit       valueobject.CommitInfo
	tool         string
	recordedAt   time.Time
	measurements []valueobject.Measurement
	environment  map[string]interface{}
	createdAt    time.Time
}

// NewBenchmarkRun creates a new BenchmarkRun (Factory Method)
func NewBenchmarkRun(
	suite valueobject.SuiteName,
	commit valueobject.CommitInfo,
	tool string,
	recordedAt time.Time,
	measurements []valueobject.Measurement,
) (*BenchmarkRun, error) {
	if err := suite.Validate(); err != nil {
		return nil, err
	}

	if tool == "" {
		return nil, errors.New("tool identifier cannot be empty")
	}

	if len(measurements) == 0 {
		return nil, errors.New("run must contain at least one measurement")
	}

	if recordedAt.IsZero() {
		recordedAt = time.Now().UTC()
	}

	copied := make([]valueobject.Measurement, len(measurements))
	copy(copied, measurements)

	return &BenchmarkRun{
		id:           uuid.New().String(),
		suite:        suite,
		commit:       commit,
		tool:         tool,
		recordedAt:   recordedAt.UTC(),
		measurements: copied,
		environment:  make(map[string]interface{}),
		createdAt:    time.Now().UTC(),
	}, nil
}

// Reconstruct rebuilds a run from storage (for Repository)
func Reconstruct(
	id string,
	suite valueobject.SuiteName,
	commit valueobject.CommitInfo,
	tool string,
	recordedAt time.Time,
	measurements []valueobject.Measurement,
	environment map[string]interface{},
	createdAt time.Time,
) *BenchmarkRun {
	if environment == nil {
		environment = make(map[string]interface{})
	}

	return &BenchmarkRun{
		id:           id,
		suite:        suite,
		commit:       commit,
		tool:         tool,
		recordedAt:   recordedAt.UTC(),
		measurements: measurements,
		environment:  environment,
		createdAt:    createdAt.UTC(),
	}
}

// ID returns the run identifier
func (r *BenchmarkRun) ID() string {
	return r.id
}

// Suite returns the suite this run belongs to
func (r *BenchmarkRun) Suite() valueobject.SuiteName {
	return r.suite
}

// Commit returns the commit metadata
func (r *BenchmarkRun) Commit() valueobject.CommitInfo {
	return r.commit
}

// Tool returns the benchmark tool identifier
func (r *BenchmarkRun) Tool() string {
	return r.tool
}

// RecordedAt returns the capture time of the run
func (r *BenchmarkRun) RecordedAt() time.Time {
	return r.recordedAt
}

// Measurements returns a copy of the ordered measurement sequence
func (r *BenchmarkRun) Measurements() []valueobject.Measurement {
	result := make([]valueobject.Measurement, len(r.measurements))
	copy(result, r.measurements)
	return result
}

// Environment returns a copy of the runner environment metadata
func (r *BenchmarkRun) Environment() map[string]interface{} {
	result := make(map[string]interface{}, len(r.environment))
	for k, v := range r.environment {
		result[k] = v
	}
	return result
}

// SetEnvironment records a runner environment attribute
func (r *BenchmarkRun) SetEnvironment(key string, value interface{}) {
	r.environment[key] = value
}

// CreatedAt returns the persistence time of the record
func (r *BenchmarkRun) CreatedAt() time.Time {
	return r.createdAt
}

// Domain Methods

// MeasurementNames returns the ordered set of measurement names in the run
func (r *BenchmarkRun) MeasurementNames() []string {
	names := make([]string, len(r.measurements))
	for i, m := range r.measurements {
		names[i] = m.Name()
	}
	return names
}

// Measurement returns the named measurement, if present
func (r *BenchmarkRun) Measurement(name string) (valueobject.Measurement, bool) {
	for _, m := range r.measurements {
		if m.Name() == name {
			return m, true
		}
	}
	return valueobject.Measurement{}, false
}

// DateMillis returns the capture time as epoch milliseconds (document format)
func (r *BenchmarkRun) DateMillis() int64 {
	return r.recordedAt.UnixMilli()
}

// SameRevision reports whether the run was captured for the same commit
// and at the same time as other (duplicate submission detection)
func (r *BenchmarkRun) SameRevision(other *BenchmarkRun) bool {
	if other == nil {
		return false
	}
	return r.suite == other.suite &&
		r.commit.ID() == other.commit.ID() &&
		r.recordedAt.Equal(other.recordedAt)
}

// Age returns the elapsed time since the run was captured
func (r *BenchmarkRun) Age() time.Duration {
	return time.Since(r.recordedAt)
}
