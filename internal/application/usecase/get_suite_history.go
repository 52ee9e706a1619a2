package usecase

import (
	"context"
	"fmt"

	"github.com/mangalakulal105/benchtrack/internal/application/dto"
	"github.com/mangalakulal105/benchtrack/internal/domain/entity"
	"github.com/mangalakulal105/benchtrack/internal/domain/repository"
	"github.com/mangalakulal105/benchtrack/internal/domain/service"
	"github.com/mangalakulal105/benchtrack/internal/domain/valueobject"
	"github.com/mangalakulal105/benchtrack/pkg/logger"
)

// GetSuiteHistoryUseCase returns a suite's runs over a time range with
// per-measurement aggregates
type GetSuiteHistoryUseCase struct {
	repository repository.RunRepository
	analyzer   *service.TrendAnalyzer
	logger     *logger.Logger
}

// NewGetSuiteHistoryUseCase creates a new use case
func NewGetSuiteHistoryUseCase(
	repository repository.RunRepository,
	analyzer *service.TrendAnalyzer,
	logger *logger.Logger,
) *GetSuiteHistoryUseCase {
	return &GetSuiteHistoryUseCase{
		repository: repository,
		analyzer:   analyzer,
		logger:     logger,
	}
}

// Execute fetches the suite history ascending by capture time
func (uc *GetSuiteHistoryUseCase) Execute(
	ctx context.Context,
	suite valueobject.SuiteName,
	timeRange valueobject.TimeRange,
) (*dto.SuiteHistoryDTO, error) {
	if err := suite.Validate(); err != nil {
		return nil, fmt.Errorf("invalid suite: %w", err)
	}

	runs, err := uc.repository.FindByTimeRange(ctx, suite, timeRange)
	if err != nil {
		uc.logger.Error("Failed to fetch suite history", err, "suite", suite.String())
		return nil, fmt.Errorf("failed to fetch suite history: %w", err)
	}

	uc.logger.Debug("Fetched suite history", "suite", suite.String(), "count", len(runs))

	if len(runs) == 0 {
		return &dto.SuiteHistoryDTO{
			Suite:  suite.String(),
			Runs:   []dto.RunDTO{},
			Series: []dto.MeasurementSeriesDTO{},
		}, nil
	}

	// charts want ascending order
	sorted := uc.analyzer.SortByRecordedAt(runs, false)

	history := &dto.SuiteHistoryDTO{
		Suite:  suite.String(),
		Runs:   dto.ToRunDTOs(sorted),
		Series: uc.buildSeries(sorted),
	}

	latest := sorted[len(sorted)-1]
	history.RegressionCount = len(uc.analyzer.DetectRegressions(latest, sorted[:len(sorted)-1]))

	return history, nil
}

// buildSeries aggregates each measurement name across the sorted run series.
// Series order follows the latest run's measurement order so the dashboard
// draws charts in the order the producer emitted them.
func (uc *GetSuiteHistoryUseCase) buildSeries(sorted []*entity.BenchmarkRun) []dto.MeasurementSeriesDTO {
	latest := sorted[len(sorted)-1]

	series := make([]dto.MeasurementSeriesDTO, 0, len(latest.Measurements()))
	for _, m := range latest.Measurements() {
		values := uc.analyzer.SeriesValues(sorted, m.Name())
		if len(values) == 0 {
			continue
		}

		avg, _ := uc.analyzer.CalculateAverage(values)
		min, _ := uc.analyzer.CalculateMin(values)
		max, _ := uc.analyzer.CalculateMax(values)

		series = append(series, dto.MeasurementSeriesDTO{
			Name:    m.Name(),
			Unit:    m.Unit().String(),
			Average: avg,
			Min:     min,
			Max:     max,
			Latest:  m.Value(),
			Samples: len(values),
		})
	}

	return series
}
