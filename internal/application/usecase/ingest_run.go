package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mangalakulal105/benchtrack/internal/application/dto"
	"github.com/mangalakulal105/benchtrack/internal/application/port"
	"github.com/mangalakulal105/benchtrack/internal/domain/entity"
	"github.com/mangalakulal105/benchtrack/internal/domain/repository"
	"github.com/mangalakulal105/benchtrack/internal/domain/service"
	"github.com/mangalakulal105/benchtrack/internal/domain/valueobject"
	"github.com/mangalakulal105/benchtrack/pkg/logger"
)

var (
	// ErrOutOfOrder is returned when a run is older than its suite head
	// and the submission is not flagged as a backfill
	ErrOutOfOrder = errors.New("run is older than the newest recorded run of its suite")

	// ErrDuplicateRun is returned when the same suite/commit/capture-time
	// combination is already recorded
	ErrDuplicateRun = errors.New("run for this commit and capture time is already recorded")
)

const eventSubjectRunIngested = "benchmarks.run.ingested"

// IngestRunCommand carries one run submission from the CI pipeline
type IngestRunCommand struct {
	Suite    string
	Tool     string
	Date     time.Time
	Commit   dto.CommitDTO
	Benches  []dto.MeasurementDTO
	Backfill bool
}

// IngestRunUseCase coordinates validation, persistence, indexing, cache
// invalidation, live notification, and event publication for a submitted run
type IngestRunUseCase struct {
	repository repository.RunRepository
	index      port.RunIndex
	cache      port.Cache
	notifier   port.NotificationService
	validator  *service.RunValidator
	analyzer   *service.TrendAnalyzer
	publisher  port.MeasurementPublisher
	events     port.EventPublisher
	probe      port.EnvironmentProbe
	logger     *logger.Logger
}

// NewIngestRunUseCase creates a new use case. The index, cache, notifier,
// publisher, events, and probe dependencies are optional and may be nil.
func NewIngestRunUseCase(
	repository repository.RunRepository,
	index port.RunIndex,
	cache port.Cache,
	notifier port.NotificationService,
	validator *service.RunValidator,
	analyzer *service.TrendAnalyzer,
	publisher port.MeasurementPublisher,
	events port.EventPublisher,
	probe port.EnvironmentProbe,
	logger *logger.Logger,
) *IngestRunUseCase {
	return &IngestRunUseCase{
		repository: repository,
		index:      index,
		cache:      cache,
		notifier:   notifier,
		validator:  validator,
		analyzer:   analyzer,
		publisher:  publisher,
		events:     events,
		probe:      probe,
		logger:     logger,
	}
}

// Execute ingests one benchmark run
func (uc *IngestRunUseCase) Execute(ctx context.Context, cmd IngestRunCommand) (*entity.BenchmarkRun, error) {
	suite, err := valueobject.NewSuiteName(cmd.Suite)
	if err != nil {
		return nil, fmt.Errorf("invalid suite: %w", err)
	}

	run, err := uc.buildRun(suite, cmd)
	if err != nil {
		return nil, err
	}

	if err := uc.validator.Validate(run); err != nil {
		return nil, fmt.Errorf("run validation failed: %w", err)
	}

	// Append-only invariant: reject duplicates and out-of-order submissions
	exists, err := uc.repository.ExistsRevision(ctx, suite, run.Commit().ID(), run.DateMillis())
	if err != nil {
		return nil, fmt.Errorf("failed to check for duplicate run: %w", err)
	}
	if exists {
		return nil, ErrDuplicateRun
	}

	head, err := uc.repository.FindSuiteHead(ctx, suite)
	if err != nil && !errors.Is(err, repository.ErrRunNotFound) {
		return nil, fmt.Errorf("failed to load suite head: %w", err)
	}

	if head != nil && !cmd.Backfill {
		if err := uc.validator.ValidateAppendOrder(run, head); err != nil {
			uc.logger.Warn("Rejected out-of-order run",
				"suite", suite.String(),
				"commit", run.Commit().ShortID(),
				"error", err.Error())
			return nil, ErrOutOfOrder
		}
	}

	if head != nil && uc.validator.NameSetDiverges(run, head) {
		uc.logger.Warn("Measurement name set diverges from previous run",
			"suite", suite.String(),
			"commit", run.Commit().ShortID())
	}

	uc.attachEnvironment(ctx, run)

	if err := uc.repository.Save(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to save run: %w", err)
	}

	uc.logger.Info("Benchmark run ingested",
		"suite", suite.String(),
		"commit", run.Commit().ShortID(),
		"tool", run.Tool(),
		"benches", len(run.Measurements()))

	// Everything past persistence is best-effort: the run is recorded
	// even when optional components fail.
	uc.updateIndex(ctx, run)
	uc.invalidateCache(ctx, suite)
	uc.notify(run)
	uc.publishEvent(ctx, run)
	uc.publishMeasurements(ctx, run)
	uc.checkRegressions(ctx, run, head)

	return run, nil
}

func (uc *IngestRunUseCase) buildRun(suite valueobject.SuiteName, cmd IngestRunCommand) (*entity.BenchmarkRun, error) {
	author, err := valueobject.NewGitActor(cmd.Commit.Author.Name, cmd.Commit.Author.Email, cmd.Commit.Author.Username)
	if err != nil {
		return nil, fmt.Errorf("invalid author: %w", err)
	}

	committer, err := valueobject.NewGitActor(cmd.Commit.Committer.Name, cmd.Commit.Committer.Email, cmd.Commit.Committer.Username)
	if err != nil {
		return nil, fmt.Errorf("invalid committer: %w", err)
	}

	commit, err := valueobject.NewCommitInfoFromText(
		cmd.Commit.ID,
		cmd.Commit.TreeID,
		cmd.Commit.Message,
		cmd.Commit.Timestamp,
		cmd.Commit.URL,
		author,
		committer,
		cmd.Commit.Distinct,
	)
	if err != nil {
		return nil, fmt.Errorf("invalid commit: %w", err)
	}

	measurements := make([]valueobject.Measurement, 0, len(cmd.Benches))
	for _, bench := range cmd.Benches {
		m, err := valueobject.NewMeasurement(bench.Name, bench.Value, valueobject.Unit(bench.Unit))
		if err != nil {
			return nil, fmt.Errorf("invalid measurement %q: %w", bench.Name, err)
		}
		measurements = append(measurements, m)
	}

	return entity.NewBenchmarkRun(suite, commit, cmd.Tool, cmd.Date, measurements)
}

func (uc *IngestRunUseCase) attachEnvironment(ctx context.Context, run *entity.BenchmarkRun) {
	if uc.probe == nil {
		return
	}

	env, err := uc.probe.Describe(ctx)
	if err != nil {
		uc.logger.Warn("Failed to capture runner environment", "error", err.Error())
		return
	}

	for key, value := range env {
		run.SetEnvironment(key, value)
	}
}

func (uc *IngestRunUseCase) updateIndex(ctx context.Context, run *entity.BenchmarkRun) {
	if uc.index == nil {
		return
	}

	record := port.RunIndexRecord{
		RunID:        run.ID(),
		Suite:        run.Suite().String(),
		CommitID:     run.Commit().ID(),
		CommitURL:    run.Commit().URL(),
		Tool:         run.Tool(),
		BenchCount:   len(run.Measurements()),
		RecordedAt:   run.RecordedAt(),
		LastModified: run.CreatedAt(),
	}

	if err := uc.index.Put(ctx, record); err != nil {
		uc.logger.Warn("Failed to index run",
			"run_id", run.ID(),
			"error", err.Error())
	}
}

func (uc *IngestRunUseCase) invalidateCache(ctx context.Context, suite valueobject.SuiteName) {
	if uc.cache == nil {
		return
	}

	pattern := fmt.Sprintf("benchtrack:history:%s:*", suite.String())
	if err := uc.cache.DeletePattern(ctx, pattern); err != nil {
		uc.logger.Warn("Failed to invalidate history cache",
			"suite", suite.String(),
			"error", err.Error())
	}
}

func (uc *IngestRunUseCase) notify(run *entity.BenchmarkRun) {
	if uc.notifier == nil {
		return
	}

	uc.notifier.BroadcastRun(dto.NewRunEventDTO(run))
	uc.logger.Debug("Run broadcasted to clients", "client_count", uc.notifier.ClientCount())
}

func (uc *IngestRunUseCase) publishEvent(ctx context.Context, run *entity.BenchmarkRun) {
	if uc.events == nil {
		return
	}

	if err := uc.events.PublishEvent(ctx, eventSubjectRunIngested, dto.FromEntityDetail(run)); err != nil {
		uc.logger.Warn("Failed to publish run-ingested event", "error", err.Error())
	}
}

func (uc *IngestRunUseCase) publishMeasurements(ctx context.Context, run *entity.BenchmarkRun) {
	if uc.publisher == nil {
		return
	}

	if err := uc.publisher.PublishRun(ctx, run); err != nil {
		uc.logger.Warn("Failed to publish measurements", "error", err.Error())
	}
}

func (uc *IngestRunUseCase) checkRegressions(ctx context.Context, run *entity.BenchmarkRun, head *entity.BenchmarkRun) {
	if uc.notifier == nil || head == nil {
		return
	}

	preceding, err := uc.repository.FindBySuite(ctx, run.Suite(), uc.analyzerWindow())
	if err != nil {
		uc.logger.Warn("Failed to load trailing runs for regression check", "error", err.Error())
		return
	}

	// exclude the run just saved
	trailing := make([]*entity.BenchmarkRun, 0, len(preceding))
	for _, r := range preceding {
		if r.ID() != run.ID() {
			trailing = append(trailing, r)
		}
	}

	for _, regression := range uc.analyzer.DetectRegressions(run, trailing) {
		message := fmt.Sprintf("%s regressed to %g %s (trailing mean %g)",
			regression.Name, regression.Value, regression.Unit, regression.TrailingMean)

		uc.notifier.BroadcastAlert(dto.NewAlertDTO(run, regression, message))
		uc.logger.Warn("Benchmark regression detected",
			"suite", run.Suite().String(),
			"measurement", regression.Name,
			"ratio", fmt.Sprintf("%.2f", regression.Ratio))
	}
}

func (uc *IngestRunUseCase) analyzerWindow() int {
	// one extra because the freshly saved run comes back in the query
	return 6
}
