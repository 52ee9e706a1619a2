package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/mangalakulal105/benchtrack/internal/application/port"
	"github.com/mangalakulal105/benchtrack/internal/domain/repository"
	"github.com/mangalakulal105/benchtrack/internal/domain/valueobject"
	"github.com/mangalakulal105/benchtrack/pkg/logger"
)

const (
	defaultListLimit = 25
	maxListLimit     = 100
)

// ListRunsQuery defines the listing request
type ListRunsQuery struct {
	Suite  string
	Limit  int
	Cursor string
	From   time.Time
	To     time.Time
}

// ListRunsResult is one page of listed runs
type ListRunsResult struct {
	Items      []port.RunIndexRecord `json:"items"`
	NextCursor string                `json:"next_cursor,omitempty"`
}

// ListRunsConfig controls fallback behavior when the index is unavailable
type ListRunsConfig struct {
	FallbackToRepository bool
}

// ListRunsUseCase returns a cursor-paginated run listing from the index,
// falling back to the repository when no index is configured
type ListRunsUseCase struct {
	index      port.RunIndex
	repository repository.RunRepository
	config     ListRunsConfig
	logger     *logger.Logger
}

// NewListRunsUseCase creates a new use case
func NewListRunsUseCase(
	index port.RunIndex,
	repository repository.RunRepository,
	config ListRunsConfig,
	logger *logger.Logger,
) *ListRunsUseCase {
	return &ListRunsUseCase{
		index:      index,
		repository: repository,
		config:     config,
		logger:     logger,
	}
}

// Execute lists runs of a suite, newest first
func (uc *ListRunsUseCase) Execute(ctx context.Context, query ListRunsQuery) (*ListRunsResult, error) {
	suite, err := valueobject.NewSuiteName(query.Suite)
	if err != nil {
		return nil, fmt.Errorf("invalid suite: %w", err)
	}

	limit := query.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	if uc.index != nil {
		page, err := uc.index.ListBySuite(ctx, port.RunListQuery{
			Suite:  suite.String(),
			Limit:  limit,
			Cursor: query.Cursor,
			From:   query.From,
			To:     query.To,
		})
		if err == nil {
			return &ListRunsResult{Items: page.Items, NextCursor: page.NextCursor}, nil
		}

		if !uc.config.FallbackToRepository {
			uc.logger.Error("Run index query failed", err, "suite", suite.String())
			return nil, fmt.Errorf("failed to list runs: %w", err)
		}

		uc.logger.Warn("Run index query failed, falling back to repository",
			"suite", suite.String(),
			"error", err.Error())
	}

	return uc.listFromRepository(ctx, suite, limit, query)
}

// listFromRepository is the degraded path: no cursor support, bounded by
// limit, newest first
func (uc *ListRunsUseCase) listFromRepository(
	ctx context.Context,
	suite valueobject.SuiteName,
	limit int,
	query ListRunsQuery,
) (*ListRunsResult, error) {
	runs, err := uc.repository.FindBySuite(ctx, suite, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs from repository: %w", err)
	}

	items := make([]port.RunIndexRecord, 0, len(runs))
	for _, run := range runs {
		if !query.From.IsZero() && run.RecordedAt().Before(query.From) {
			continue
		}
		if !query.To.IsZero() && run.RecordedAt().After(query.To) {
			continue
		}

		items = append(items, port.RunIndexRecord{
			RunID:        run.ID(),
			Suite:        run.Suite().String(),
			CommitID:     run.Commit().ID(),
			CommitURL:    run.Commit().URL(),
			Tool:         run.Tool(),
			BenchCount:   len(run.Measurements()),
			RecordedAt:   run.RecordedAt(),
			LastModified: run.CreatedAt(),
		})
	}

	return &ListRunsResult{Items: items}, nil
}
