package repository

import (
	"context"
	"errors"

	"github.com/mangalakulal105/benchtrack/internal/domain/entity"
	"github.com/mangalakulal105/benchtrack/internal/domain/valueobject"
)

// ErrRunNotFound is returned when a lookup matches no persisted run
var ErrRunNotFound = errors.New("benchmark run not found")

// RunRepository defines the interface for the benchmark run store (Port)
// Implementation lives in the Infrastructure layer
type RunRepository interface {
	// Save persists one run
	Save(ctx context.Context, run *entity.BenchmarkRun) error

	// FindByID finds a run by identifier
	FindByID(ctx context.Context, id string) (*entity.BenchmarkRun, error)

	// FindBySuite finds runs of a suite, newest first, bounded by limit
	FindBySuite(ctx context.Context, suite valueobject.SuiteName, limit int) ([]*entity.BenchmarkRun, error)

	// FindByTimeRange finds runs of a suite within a capture-time window
	FindByTimeRange(
		ctx context.Context,
		suite valueobject.SuiteName,
		timeRange valueobject.TimeRange,
	) ([]*entity.BenchmarkRun, error)

	// FindAll returns the complete history grouped by suite,
	// each suite ascending by capture time (document rendering order)
	FindAll(ctx context.Context) (map[valueobject.SuiteName][]*entity.BenchmarkRun, error)

	// FindSuiteHead finds the newest run of the suite
	FindSuiteHead(ctx context.Context, suite valueobject.SuiteName) (*entity.BenchmarkRun, error)

	// FindLatest finds the newest run of every suite
	FindLatest(ctx context.Context) (map[valueobject.SuiteName]*entity.BenchmarkRun, error)

	// ExistsRevision reports whether a run for the suite with the given
	// commit id and capture time is already recorded
	ExistsRevision(ctx context.Context, suite valueobject.SuiteName, commitID string, dateMillis int64) (bool, error)

	// ListSuites returns all suite names present in the history
	ListSuites(ctx context.Context) ([]valueobject.SuiteName, error)

	// Count returns the number of runs recorded for the suite
	Count(ctx context.Context, suite valueobject.SuiteName) (int64, error)

	// DeleteOldestInSuite removes the n oldest runs of the suite.
	// Retention pruning is the only sanctioned deletion path.
	DeleteOldestInSuite(ctx context.Context, suite valueobject.SuiteName, n int) (int64, error)
}
