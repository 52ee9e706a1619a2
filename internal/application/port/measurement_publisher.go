package port

import (
	"context"

	"github.com/mangalakulal105/benchtrack/internal/domain/entity"
)

// MeasurementPublisher defines the interface for republishing ingested
// benchmark measurements to external observability platforms.
// This port allows the application layer to publish without coupling to
// specific implementations.
type MeasurementPublisher interface {
	// PublishRun publishes every measurement of a run.
	// Implementations should handle batching constraints
	// (e.g. CloudWatch's 1000 metrics/request limit).
	PublishRun(ctx context.Context, run *entity.BenchmarkRun) error

	// Flush forces immediate publication of any buffered measurements.
	// Should be called during graceful shutdown to prevent data loss.
	Flush(ctx context.Context) error
}
