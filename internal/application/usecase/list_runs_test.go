package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mangalakulal105/benchtrack/internal/application/port"
	"github.com/mangalakulal105/benchtrack/pkg/logger"
)

func seedRuns(t *testing.T, repo *memoryRunRepository, suite string, count int) {
	t.Helper()

	uc := newIngestUseCase(repo, nil, nil)
	base := time.Now().UTC().Add(-time.Duration(count+1) * time.Hour).Truncate(time.Second)

	hex := "0123456789abcdef"
	for i := 0; i < count; i++ {
		commitID := "ab5fe8" + string(hex[i%len(hex)])
		cmd := ingestCommand(suite, commitID, base.Add(time.Duration(i)*time.Hour))
		if _, err := uc.Execute(context.Background(), cmd); err != nil {
			t.Fatalf("seed Execute() error = %v", err)
		}
	}
}

func TestListRunsUseCase_FromIndex(t *testing.T) {
	index := &mockRunIndex{
		page: port.RunListPage{
			Items: []port.RunIndexRecord{
				{RunID: "r1", Suite: "mount-benchmarks", CommitID: "ab5fe8d"},
			},
			NextCursor: "next-page",
		},
	}

	uc := NewListRunsUseCase(index, newMemoryRunRepository(), ListRunsConfig{}, logger.New("error"))

	res, err := uc.Execute(context.Background(), ListRunsQuery{Suite: "mount-benchmarks"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(res.Items) != 1 || res.NextCursor != "next-page" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestListRunsUseCase_IndexFailure(t *testing.T) {
	index := &mockRunIndex{listErr: errors.New("throttled")}
	repo := newMemoryRunRepository()
	seedRuns(t, repo, "mount-benchmarks", 3)

	// without fallback the error surfaces
	strict := NewListRunsUseCase(index, repo, ListRunsConfig{}, logger.New("error"))
	if _, err := strict.Execute(context.Background(), ListRunsQuery{Suite: "mount-benchmarks"}); err == nil {
		t.Fatalf("expected index error to surface")
	}

	// with fallback the repository serves the listing
	degraded := NewListRunsUseCase(index, repo, ListRunsConfig{FallbackToRepository: true}, logger.New("error"))
	res, err := degraded.Execute(context.Background(), ListRunsQuery{Suite: "mount-benchmarks"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(res.Items) != 3 {
		t.Fatalf("expected 3 items from fallback, got %d", len(res.Items))
	}
	if res.NextCursor != "" {
		t.Fatalf("fallback path must not paginate")
	}
}

func TestListRunsUseCase_NoIndex(t *testing.T) {
	repo := newMemoryRunRepository()
	seedRuns(t, repo, "mount-benchmarks", 5)

	uc := NewListRunsUseCase(nil, repo, ListRunsConfig{}, logger.New("error"))

	res, err := uc.Execute(context.Background(), ListRunsQuery{Suite: "mount-benchmarks", Limit: 2})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(res.Items) != 2 {
		t.Fatalf("expected limit to apply, got %d items", len(res.Items))
	}

	// newest first
	if res.Items[0].RecordedAt.Before(res.Items[1].RecordedAt) {
		t.Fatalf("items not sorted newest first")
	}
}

func TestListRunsUseCase_TimeFilter(t *testing.T) {
	repo := newMemoryRunRepository()
	seedRuns(t, repo, "mount-benchmarks", 5)

	uc := NewListRunsUseCase(nil, repo, ListRunsConfig{}, logger.New("error"))

	head, err := repo.FindSuiteHead(context.Background(), "mount-benchmarks")
	if err != nil {
		t.Fatalf("FindSuiteHead() error = %v", err)
	}

	res, err := uc.Execute(context.Background(), ListRunsQuery{
		Suite: "mount-benchmarks",
		From:  head.RecordedAt().Add(-30 * time.Minute),
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(res.Items) != 1 {
		t.Fatalf("expected only the head inside the window, got %d", len(res.Items))
	}
}

func TestListRunsUseCase_InvalidSuite(t *testing.T) {
	uc := NewListRunsUseCase(nil, newMemoryRunRepository(), ListRunsConfig{}, logger.New("error"))

	_, err := uc.Execute(context.Background(), ListRunsQuery{Suite: "  "})
	if err == nil || !strings.Contains(err.Error(), "invalid suite") {
		t.Fatalf("expected invalid suite error, got %v", err)
	}
}
