package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/mangalakulal105/benchtrack/internal/application/dto"
	"github.com/mangalakulal105/benchtrack/internal/domain/repository"
	"github.com/mangalakulal105/benchtrack/pkg/logger"
)

// GetLatestRunsUseCase returns the newest run of every suite
// (dashboard landing data)
type GetLatestRunsUseCase struct {
	repository repository.RunRepository
	logger     *logger.Logger
}

// NewGetLatestRunsUseCase creates a new use case
func NewGetLatestRunsUseCase(
	repository repository.RunRepository,
	logger *logger.Logger,
) *GetLatestRunsUseCase {
	return &GetLatestRunsUseCase{
		repository: repository,
		logger:     logger,
	}
}

// Execute fetches the newest run per suite
func (uc *GetLatestRunsUseCase) Execute(ctx context.Context) (*dto.LatestRunsDTO, error) {
	latest, err := uc.repository.FindLatest(ctx)
	if err != nil {
		uc.logger.Error("Failed to fetch latest runs", err)
		return nil, fmt.Errorf("failed to fetch latest runs: %w", err)
	}

	result := &dto.LatestRunsDTO{
		Timestamp: time.Now().UTC(),
		Suites:    make(map[string]dto.RunDetailDTO, len(latest)),
	}

	for suite, run := range latest {
		if run == nil {
			continue
		}
		result.Suites[suite.String()] = dto.FromEntityDetail(run)
	}

	return result, nil
}
