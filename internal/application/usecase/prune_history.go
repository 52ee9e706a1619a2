package usecase

import (
	"context"
	"fmt"

	"github.com/mangalakulal105/benchtrack/internal/domain/repository"
	"github.com/mangalakulal105/benchtrack/pkg/logger"
)

// PruneHistoryConfig bounds the per-suite run count.
// MaxRunsPerSuite <= 0 disables pruning entirely: the history is
// append-only by default.
type PruneHistoryConfig struct {
	MaxRunsPerSuite int
}

// PruneHistoryUseCase trims each suite to its configured maximum run count,
// oldest first. This is the single sanctioned deletion path in the system.
type PruneHistoryUseCase struct {
	repository repository.RunRepository
	config     PruneHistoryConfig
	logger     *logger.Logger
}

// NewPruneHistoryUseCase creates a new use case
func NewPruneHistoryUseCase(
	repository repository.RunRepository,
	config PruneHistoryConfig,
	logger *logger.Logger,
) *PruneHistoryUseCase {
	return &PruneHistoryUseCase{
		repository: repository,
		config:     config,
		logger:     logger,
	}
}

// Execute prunes every suite over its limit. Returns the number of runs
// removed.
func (uc *PruneHistoryUseCase) Execute(ctx context.Context) (int64, error) {
	if uc.config.MaxRunsPerSuite <= 0 {
		return 0, nil
	}

	suites, err := uc.repository.ListSuites(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list suites: %w", err)
	}

	var removed int64
	for _, suite := range suites {
		count, err := uc.repository.Count(ctx, suite)
		if err != nil {
			return removed, fmt.Errorf("failed to count runs for %s: %w", suite.String(), err)
		}

		excess := count - int64(uc.config.MaxRunsPerSuite)
		if excess <= 0 {
			continue
		}

		deleted, err := uc.repository.DeleteOldestInSuite(ctx, suite, int(excess))
		if err != nil {
			return removed, fmt.Errorf("failed to prune %s: %w", suite.String(), err)
		}

		removed += deleted
		uc.logger.Info("Pruned suite history",
			"suite", suite.String(),
			"removed", deleted,
			"kept", uc.config.MaxRunsPerSuite)
	}

	return removed, nil
}
