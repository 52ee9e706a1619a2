package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/mangalakulal105/benchtrack/internal/application/dto"
	"github.com/mangalakulal105/benchtrack/internal/application/port"
	"github.com/mangalakulal105/benchtrack/internal/domain/valueobject"
	"github.com/mangalakulal105/benchtrack/pkg/logger"
)

const cacheKeyBucket = time.Minute

// GetSuiteHistoryCachedUseCase wraps GetSuiteHistoryUseCase with a
// cache-aside layer. When no cache is configured it degrades to the
// uncached path.
type GetSuiteHistoryCachedUseCase struct {
	inner  *GetSuiteHistoryUseCase
	cache  port.Cache
	logger *logger.Logger
}

// NewGetSuiteHistoryCachedUseCase creates a new cached use case
func NewGetSuiteHistoryCachedUseCase(
	inner *GetSuiteHistoryUseCase,
	cache port.Cache,
	logger *logger.Logger,
) *GetSuiteHistoryCachedUseCase {
	return &GetSuiteHistoryCachedUseCase{
		inner:  inner,
		cache:  cache,
		logger: logger,
	}
}

// Execute fetches the suite history, consulting the cache first
func (uc *GetSuiteHistoryCachedUseCase) Execute(
	ctx context.Context,
	suite valueobject.SuiteName,
	timeRange valueobject.TimeRange,
) (*dto.SuiteHistoryDTO, error) {
	if uc.cache == nil {
		return uc.inner.Execute(ctx, suite, timeRange)
	}

	cacheKey := historyCacheKey(suite, timeRange)

	var cached *dto.SuiteHistoryDTO
	if err := uc.cache.Get(ctx, cacheKey, &cached); err == nil && cached != nil {
		uc.logger.Debug("Cache hit for suite history",
			"suite", suite.String(),
			"runs", len(cached.Runs))
		return cached, nil
	}

	uc.logger.Debug("Cache miss for suite history, fetching from repository",
		"suite", suite.String())

	history, err := uc.inner.Execute(ctx, suite, timeRange)
	if err != nil {
		return nil, err
	}

	// populate asynchronously so the response is not blocked on Redis
	go func() {
		if err := uc.cache.Set(context.Background(), cacheKey, history); err != nil {
			uc.logger.Warn("Failed to cache suite history", "error", err.Error())
		}
	}()

	return history, nil
}

// historyCacheKey buckets the window duration so repeated dashboard polls
// within the same minute share an entry
func historyCacheKey(suite valueobject.SuiteName, timeRange valueobject.TimeRange) string {
	bucket := timeRange.End().Truncate(cacheKeyBucket).Unix()
	return fmt.Sprintf("benchtrack:history:%s:%s:%d",
		suite.String(), timeRange.Duration().String(), bucket)
}
