package usecase

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/mangalakulal105/benchtrack/internal/domain/service"
	"github.com/mangalakulal105/benchtrack/internal/domain/valueobject"
	"github.com/mangalakulal105/benchtrack/pkg/logger"
)

type mockCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	gets    int
	sets    int
}

func newMockCache() *mockCache {
	return &mockCache{entries: make(map[string][]byte)}
}

func (m *mockCache) Get(_ context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	payload, ok := m.entries[key]
	if !ok {
		return context.Canceled // any error means miss
	}
	return json.Unmarshal(payload, dest)
}

func (m *mockCache) Set(_ context.Context, key string, value interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = payload
	return nil
}

func (m *mockCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

func (m *mockCache) DeletePattern(_ context.Context, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string][]byte)
	return nil
}

func (m *mockCache) Close() error { return nil }

func (m *mockCache) setCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sets
}

func TestGetSuiteHistoryUseCase(t *testing.T) {
	repo := newMemoryRunRepository()
	seedRuns(t, repo, "mount-benchmarks", 4)

	uc := NewGetSuiteHistoryUseCase(repo, service.NewTrendAnalyzer(), logger.New("error"))

	tr, err := valueobject.NewTimeRangeFromDuration(24 * time.Hour)
	if err != nil {
		t.Fatalf("NewTimeRangeFromDuration() error = %v", err)
	}

	history, err := uc.Execute(context.Background(), "mount-benchmarks", tr)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if history.Suite != "mount-benchmarks" {
		t.Fatalf("Suite = %q", history.Suite)
	}
	if len(history.Runs) != 4 {
		t.Fatalf("expected 4 runs, got %d", len(history.Runs))
	}
	for i := 1; i < len(history.Runs); i++ {
		if history.Runs[i-1].Date > history.Runs[i].Date {
			t.Fatalf("runs not ascending by capture time")
		}
	}

	if len(history.Series) != 2 {
		t.Fatalf("expected 2 series, got %d", len(history.Series))
	}
	cold := history.Series[0]
	if cold.Name != "mount_cold_start" || cold.Samples != 4 || cold.Latest != 125.5 {
		t.Fatalf("unexpected series: %+v", cold)
	}
	if cold.Average != 125.5 || cold.Min != 125.5 || cold.Max != 125.5 {
		t.Fatalf("flat series aggregates wrong: %+v", cold)
	}
	if history.RegressionCount != 0 {
		t.Fatalf("flat history must have no regressions")
	}
}

func TestGetSuiteHistoryUseCase_EmptyWindow(t *testing.T) {
	repo := newMemoryRunRepository()
	uc := NewGetSuiteHistoryUseCase(repo, service.NewTrendAnalyzer(), logger.New("error"))

	tr, _ := valueobject.NewTimeRangeFromDuration(time.Hour)
	history, err := uc.Execute(context.Background(), "empty-suite", tr)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(history.Runs) != 0 || len(history.Series) != 0 {
		t.Fatalf("expected empty result, got %+v", history)
	}
	if history.Runs == nil || history.Series == nil {
		t.Fatalf("empty result must serialize as [] not null")
	}
}

func TestGetSuiteHistoryCachedUseCase(t *testing.T) {
	repo := newMemoryRunRepository()
	seedRuns(t, repo, "mount-benchmarks", 2)

	cache := newMockCache()
	inner := NewGetSuiteHistoryUseCase(repo, service.NewTrendAnalyzer(), logger.New("error"))
	uc := NewGetSuiteHistoryCachedUseCase(inner, cache, logger.New("error"))

	tr, _ := valueobject.NewTimeRangeFromDuration(24 * time.Hour)

	first, err := uc.Execute(context.Background(), "mount-benchmarks", tr)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	// populate happens asynchronously
	deadline := time.Now().Add(time.Second)
	for cache.setCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if cache.setCount() != 1 {
		t.Fatalf("expected cache population after miss")
	}

	second, err := uc.Execute(context.Background(), "mount-benchmarks", tr)
	if err != nil {
		t.Fatalf("cached Execute() error = %v", err)
	}
	if len(second.Runs) != len(first.Runs) {
		t.Fatalf("cached result diverges")
	}
	if cache.setCount() != 1 {
		t.Fatalf("cache hit must not repopulate")
	}
}

func TestGetSuiteHistoryCachedUseCase_NoCache(t *testing.T) {
	repo := newMemoryRunRepository()
	seedRuns(t, repo, "mount-benchmarks", 1)

	inner := NewGetSuiteHistoryUseCase(repo, service.NewTrendAnalyzer(), logger.New("error"))
	uc := NewGetSuiteHistoryCachedUseCase(inner, nil, logger.New("error"))

	tr, _ := valueobject.NewTimeRangeFromDuration(24 * time.Hour)
	if _, err := uc.Execute(context.Background(), "mount-benchmarks", tr); err != nil {
		t.Fatalf("Execute() without cache error = %v", err)
	}
}

func TestGetLatestRunsUseCase(t *testing.T) {
	repo := newMemoryRunRepository()
	seedRuns(t, repo, "mount-benchmarks", 3)
	seedRuns(t, repo, "fio-benchmarks", 2)

	uc := NewGetLatestRunsUseCase(repo, logger.New("error"))

	latest, err := uc.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(latest.Suites) != 2 {
		t.Fatalf("expected 2 suites, got %d", len(latest.Suites))
	}

	head, _ := repo.FindSuiteHead(context.Background(), "mount-benchmarks")
	if latest.Suites["mount-benchmarks"].ID != head.ID() {
		t.Fatalf("not the newest run of the suite")
	}
}

func TestPruneHistoryUseCase(t *testing.T) {
	repo := newMemoryRunRepository()
	seedRuns(t, repo, "mount-benchmarks", 5)
	seedRuns(t, repo, "fio-benchmarks", 2)

	uc := NewPruneHistoryUseCase(repo, PruneHistoryConfig{MaxRunsPerSuite: 3}, logger.New("error"))

	removed, err := uc.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}

	count, _ := repo.Count(context.Background(), "mount-benchmarks")
	if count != 3 {
		t.Fatalf("suite not trimmed to limit, count = %d", count)
	}
	count, _ = repo.Count(context.Background(), "fio-benchmarks")
	if count != 2 {
		t.Fatalf("under-limit suite must be untouched, count = %d", count)
	}
}

func TestPruneHistoryUseCase_Disabled(t *testing.T) {
	repo := newMemoryRunRepository()
	seedRuns(t, repo, "mount-benchmarks", 5)

	uc := NewPruneHistoryUseCase(repo, PruneHistoryConfig{}, logger.New("error"))

	removed, err := uc.Execute(context.Background())
	if err != nil || removed != 0 {
		t.Fatalf("disabled pruning must be a no-op, got %d, %v", removed, err)
	}
}
