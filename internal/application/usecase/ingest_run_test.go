package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/mangalakulal105/benchtrack/internal/application/dto"
	"github.com/mangalakulal105/benchtrack/internal/application/port"
	"github.com/mangalakulal105/benchtrack/internal/domain/entity"
	"github.com/mangalakulal105/benchtrack/internal/domain/repository"
	"github.com/mangalakulal105/benchtrack/internal/domain/service"
	"github.com/mangalakulal105/benchtrack/internal/domain/valueobject"
	"github.com/mangalakulal105/benchtrack/pkg/logger"
)

// memoryRunRepository is an in-memory RunRepository for use case tests
type memoryRunRepository struct {
	runs    map[valueobject.SuiteName][]*entity.BenchmarkRun
	saveErr error
}

func newMemoryRunRepository() *memoryRunRepository {
	return &memoryRunRepository{runs: make(map[valueobject.SuiteName][]*entity.BenchmarkRun)}
}

func (m *memoryRunRepository) Save(_ context.Context, run *entity.BenchmarkRun) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.runs[run.Suite()] = append(m.runs[run.Suite()], run)
	return nil
}

func (m *memoryRunRepository) FindByID(_ context.Context, id string) (*entity.BenchmarkRun, error) {
	for _, runs := range m.runs {
		for _, run := range runs {
			if run.ID() == id {
				return run, nil
			}
		}
	}
	return nil, repository.ErrRunNotFound
}

func (m *memoryRunRepository) FindBySuite(_ context.Context, suite valueobject.SuiteName, limit int) ([]*entity.BenchmarkRun, error) {
	runs := m.runs[suite]
	sorted := make([]*entity.BenchmarkRun, len(runs))
	copy(sorted, runs)
	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			if sorted[j].RecordedAt().After(sorted[i].RecordedAt()) {
				sorted[i], sorted[j] = sorted[j], sorted[i]
			}
		}
	}
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted, nil
}

func (m *memoryRunRepository) FindByTimeRange(_ context.Context, suite valueobject.SuiteName, tr valueobject.TimeRange) ([]*entity.BenchmarkRun, error) {
	var result []*entity.BenchmarkRun
	for _, run := range m.runs[suite] {
		if tr.Contains(run.RecordedAt()) {
			result = append(result, run)
		}
	}
	return result, nil
}

func (m *memoryRunRepository) FindAll(_ context.Context) (map[valueobject.SuiteName][]*entity.BenchmarkRun, error) {
	out := make(map[valueobject.SuiteName][]*entity.BenchmarkRun, len(m.runs))
	for suite, runs := range m.runs {
		out[suite] = append([]*entity.BenchmarkRun(nil), runs...)
	}
	return out, nil
}

func (m *memoryRunRepository) FindSuiteHead(_ context.Context, suite valueobject.SuiteName) (*entity.BenchmarkRun, error) {
	runs := m.runs[suite]
	if len(runs) == 0 {
		return nil, repository.ErrRunNotFound
	}
	head := runs[0]
	for _, run := range runs[1:] {
		if run.RecordedAt().After(head.RecordedAt()) {
			head = run
		}
	}
	return head, nil
}

func (m *memoryRunRepository) FindLatest(_ context.Context) (map[valueobject.SuiteName]*entity.BenchmarkRun, error) {
	out := make(map[valueobject.SuiteName]*entity.BenchmarkRun, len(m.runs))
	for suite := range m.runs {
		head, err := m.FindSuiteHead(context.Background(), suite)
		if err != nil {
			continue
		}
		out[suite] = head
	}
	return out, nil
}

func (m *memoryRunRepository) ExistsRevision(_ context.Context, suite valueobject.SuiteName, commitID string, dateMillis int64) (bool, error) {
	for _, run := range m.runs[suite] {
		if run.Commit().ID() == commitID && run.DateMillis() == dateMillis {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryRunRepository) ListSuites(_ context.Context) ([]valueobject.SuiteName, error) {
	suites := make([]valueobject.SuiteName, 0, len(m.runs))
	for suite := range m.runs {
		suites = append(suites, suite)
	}
	return suites, nil
}

func (m *memoryRunRepository) Count(_ context.Context, suite valueobject.SuiteName) (int64, error) {
	return int64(len(m.runs[suite])), nil
}

func (m *memoryRunRepository) DeleteOldestInSuite(_ context.Context, suite valueobject.SuiteName, n int) (int64, error) {
	runs := m.runs[suite]
	if n >= len(runs) {
		m.runs[suite] = nil
		return int64(len(runs)), nil
	}
	// runs are appended in ingestion order, oldest first
	m.runs[suite] = runs[n:]
	return int64(n), nil
}

type mockNotifier struct {
	runs   []*dto.RunEventDTO
	alerts []*dto.AlertDTO
}

func (m *mockNotifier) BroadcastRun(event *dto.RunEventDTO) { m.runs = append(m.runs, event) }
func (m *mockNotifier) BroadcastAlert(alert *dto.AlertDTO)  { m.alerts = append(m.alerts, alert) }
func (m *mockNotifier) ClientCount() int                    { return len(m.runs) }

type mockRunIndex struct {
	puts    []port.RunIndexRecord
	listErr error
	page    port.RunListPage
}

func (m *mockRunIndex) Put(_ context.Context, record port.RunIndexRecord) error {
	m.puts = append(m.puts, record)
	return nil
}

func (m *mockRunIndex) ListBySuite(_ context.Context, _ port.RunListQuery) (port.RunListPage, error) {
	if m.listErr != nil {
		return port.RunListPage{}, m.listErr
	}
	return m.page, nil
}

type mockProbe struct{}

func (m *mockProbe) Describe(_ context.Context) (map[string]interface{}, error) {
	return map[string]interface{}{"os": "linux", "cpu_cores": 8}, nil
}

func ingestCommand(suite, commitID string, date time.Time) IngestRunCommand {
	return IngestRunCommand{
		Suite: suite,
		Tool:  "benchtrack",
		Date:  date,
		Commit: dto.CommitDTO{
			Author:    dto.ActorDTO{Name: "alice", Email: "alice@example.com"},
			Committer: dto.ActorDTO{Name: "alice", Email: "alice@example.com"},
			Distinct:  true,
			ID:        commitID,
			Message:   "Tune readahead defaults",
			Timestamp: date.Add(-time.Minute).Format(time.RFC3339),
			URL:       "https://github.com/example/repo/commit/" + commitID,
		},
		Benches: []dto.MeasurementDTO{
			{Name: "mount_cold_start", Value: 125.5, Unit: "milliseconds"},
			{Name: "seq_read", Value: 5200, Unit: "bytes/sec"},
		},
	}
}

func newIngestUseCase(repo *memoryRunRepository, index port.RunIndex, notifier port.NotificationService) *IngestRunUseCase {
	var idx port.RunIndex
	if index != nil {
		idx = index
	}
	return NewIngestRunUseCase(
		repo,
		idx,
		nil, // cache
		notifier,
		service.NewRunValidator(),
		service.NewTrendAnalyzerWith(1.5, 5),
		nil, // measurement publisher
		nil, // event publisher
		&mockProbe{},
		logger.New("error"),
	)
}

func TestIngestRunUseCase_Success(t *testing.T) {
	repo := newMemoryRunRepository()
	index := &mockRunIndex{}
	notifier := &mockNotifier{}
	uc := newIngestUseCase(repo, index, notifier)

	date := time.Now().UTC().Add(-time.Hour).Truncate(time.Second)
	run, err := uc.Execute(context.Background(), ingestCommand("mount-benchmarks", "ab5fe8d", date))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if run.Suite().String() != "mount-benchmarks" {
		t.Fatalf("Suite() = %q", run.Suite())
	}
	if len(run.Measurements()) != 2 {
		t.Fatalf("expected 2 measurements, got %d", len(run.Measurements()))
	}
	if run.Environment()["os"] != "linux" {
		t.Fatalf("runner environment not attached")
	}

	if len(repo.runs["mount-benchmarks"]) != 1 {
		t.Fatalf("run not persisted")
	}
	if len(index.puts) != 1 || index.puts[0].BenchCount != 2 {
		t.Fatalf("run not indexed: %+v", index.puts)
	}
	if len(notifier.runs) != 1 {
		t.Fatalf("run not broadcast")
	}
}

func TestIngestRunUseCase_Duplicate(t *testing.T) {
	repo := newMemoryRunRepository()
	uc := newIngestUseCase(repo, nil, nil)

	date := time.Now().UTC().Add(-time.Hour).Truncate(time.Second)
	cmd := ingestCommand("mount-benchmarks", "ab5fe8d", date)

	if _, err := uc.Execute(context.Background(), cmd); err != nil {
		t.Fatalf("first Execute() error = %v", err)
	}

	_, err := uc.Execute(context.Background(), cmd)
	if !errors.Is(err, ErrDuplicateRun) {
		t.Fatalf("expected ErrDuplicateRun, got %v", err)
	}
}

func TestIngestRunUseCase_OutOfOrder(t *testing.T) {
	repo := newMemoryRunRepository()
	uc := newIngestUseCase(repo, nil, nil)

	head := time.Now().UTC().Add(-time.Hour).Truncate(time.Second)
	if _, err := uc.Execute(context.Background(), ingestCommand("mount-benchmarks", "ab5fe8d", head)); err != nil {
		t.Fatalf("head Execute() error = %v", err)
	}

	older := ingestCommand("mount-benchmarks", "bc6fe9e", head.Add(-time.Hour))
	_, err := uc.Execute(context.Background(), older)
	if !errors.Is(err, ErrOutOfOrder) {
		t.Fatalf("expected ErrOutOfOrder, got %v", err)
	}

	// the same submission flagged as backfill is accepted
	older.Backfill = true
	if _, err := uc.Execute(context.Background(), older); err != nil {
		t.Fatalf("backfill Execute() error = %v", err)
	}
	if len(repo.runs["mount-benchmarks"]) != 2 {
		t.Fatalf("backfill not persisted")
	}
}

func TestIngestRunUseCase_ValidationErrors(t *testing.T) {
	uc := newIngestUseCase(newMemoryRunRepository(), nil, nil)
	date := time.Now().UTC().Add(-time.Hour).Truncate(time.Second)

	tests := []struct {
		name   string
		modify func(*IngestRunCommand)
	}{
		{"empty suite", func(c *IngestRunCommand) { c.Suite = "  " }},
		{"bad commit id", func(c *IngestRunCommand) { c.Commit.ID = "not-a-sha" }},
		{"bad timestamp", func(c *IngestRunCommand) { c.Commit.Timestamp = "yesterday" }},
		{"no measurements", func(c *IngestRunCommand) { c.Benches = nil }},
		{"unknown unit", func(c *IngestRunCommand) { c.Benches[0].Unit = "fortnights" }},
		{"negative value", func(c *IngestRunCommand) { c.Benches[0].Value = -1 }},
		{"future capture", func(c *IngestRunCommand) { c.Date = time.Now().Add(time.Hour) }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cmd := ingestCommand("mount-benchmarks", "ab5fe8d", date)
			tc.modify(&cmd)
			if _, err := uc.Execute(context.Background(), cmd); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestIngestRunUseCase_RegressionAlert(t *testing.T) {
	repo := newMemoryRunRepository()
	notifier := &mockNotifier{}
	uc := newIngestUseCase(repo, nil, notifier)

	base := time.Now().UTC().Add(-6 * time.Hour).Truncate(time.Second)
	for i := 0; i < 3; i++ {
		cmd := ingestCommand("mount-benchmarks", fmt.Sprintf("ab5fe8%d", i), base.Add(time.Duration(i)*time.Hour))
		if _, err := uc.Execute(context.Background(), cmd); err != nil {
			t.Fatalf("baseline Execute() error = %v", err)
		}
	}

	slow := ingestCommand("mount-benchmarks", "cd7fe8d", base.Add(4*time.Hour))
	slow.Benches = []dto.MeasurementDTO{
		{Name: "mount_cold_start", Value: 400, Unit: "milliseconds"},
		{Name: "seq_read", Value: 5200, Unit: "bytes/sec"},
	}
	if _, err := uc.Execute(context.Background(), slow); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if len(notifier.alerts) != 1 {
		t.Fatalf("expected 1 regression alert, got %d", len(notifier.alerts))
	}

	alert := notifier.alerts[0]
	if alert.Measurement != "mount_cold_start" || alert.Level != "critical" {
		t.Fatalf("unexpected alert: %+v", alert)
	}
}

func TestIngestRunUseCase_SaveFailure(t *testing.T) {
	repo := newMemoryRunRepository()
	repo.saveErr = errors.New("connection reset")
	uc := newIngestUseCase(repo, nil, nil)

	date := time.Now().UTC().Add(-time.Hour).Truncate(time.Second)
	_, err := uc.Execute(context.Background(), ingestCommand("mount-benchmarks", "ab5fe8d", date))
	if err == nil || !errors.Is(err, repo.saveErr) {
		t.Fatalf("expected wrapped save error, got %v", err)
	}
}
