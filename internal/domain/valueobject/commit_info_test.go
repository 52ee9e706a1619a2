package valueobject

import (
	"testing"
	"time"
)

func buildActor(t *testing.T, name string) GitActor {
	t.Helper()
	actor, err := NewGitActor(name, name+"@example.com", name)
	if err != nil {
		t.Fatalf("NewGitActor() error = %v", err)
	}
	return actor
}

func TestNewCommitInfo(t *testing.T) {
	author := buildActor(t, "alice")
	committer := buildActor(t, "bob")
	ts := time.Date(2026, 3, 14, 9, 26, 53, 0, time.FixedZone("CET", 3600))

	commit, err := NewCommitInfo(
		"AB5FE8D4C0E38C46A9C3B9F2E1D07A6B4C2D8E9F",
		"f1e2d3c4b5a697887766554433221100ffeeddcc",
		"Speed up attribute cache warmup",
		ts,
		"https://github.com/example/repo/commit/ab5fe8d",
		author, committer, true,
	)
	if err != nil {
		t.Fatalf("NewCommitInfo() error = %v", err)
	}

	if commit.ID() != "ab5fe8d4c0e38c46a9c3b9f2e1d07a6b4c2d8e9f" {
		t.Fatalf("ID() = %q, expected lowercased sha", commit.ID())
	}
	if commit.ShortID() != "ab5fe8d" {
		t.Fatalf("ShortID() = %q", commit.ShortID())
	}
	if commit.Timestamp().Location() != time.UTC {
		t.Fatalf("Timestamp() not normalized to UTC")
	}
	if !commit.Timestamp().Equal(ts) {
		t.Fatalf("Timestamp() = %v, want %v", commit.Timestamp(), ts)
	}
	if !commit.Distinct() {
		t.Fatalf("Distinct() = false")
	}
	if commit.Author().Name() != "alice" || commit.Committer().Name() != "bob" {
		t.Fatalf("actor round-trip failed")
	}
}

func TestNewCommitInfoFromText(t *testing.T) {
	author := buildActor(t, "alice")
	text := "2023-08-02T13:37:53.123+01:00"

	commit, err := NewCommitInfoFromText(
		"ab5fe8d4c0e38c46a9c3b9f2e1d07a6b4c2d8e9f",
		"f1e2d3c4b5a697887766554433221100ffeeddcc",
		"Tune readahead",
		text,
		"https://github.com/example/repo/commit/ab5fe8d",
		author, author, true,
	)
	if err != nil {
		t.Fatalf("NewCommitInfoFromText() error = %v", err)
	}

	// the producer's offset and precision survive verbatim
	if commit.TimestampText() != text {
		t.Fatalf("TimestampText() = %q, want %q", commit.TimestampText(), text)
	}

	want := time.Date(2023, 8, 2, 12, 37, 53, 123_000_000, time.UTC)
	if !commit.Timestamp().Equal(want) {
		t.Fatalf("Timestamp() = %v, want %v", commit.Timestamp(), want)
	}
}

func TestNewCommitInfoFromText_Invalid(t *testing.T) {
	author := buildActor(t, "alice")

	_, err := NewCommitInfoFromText(
		"ab5fe8d4c0e38c46a9c3b9f2e1d07a6b4c2d8e9f",
		"f1e2d3c",
		"Tune readahead",
		"02 Aug 2023 13:37",
		"https://github.com/example/repo/commit/ab5fe8d",
		author, author, false,
	)
	if err == nil {
		t.Fatalf("expected error for non-RFC3339 timestamp")
	}
}

func TestTimestampText_FallbackToUTC(t *testing.T) {
	author := buildActor(t, "alice")
	ts := time.Date(2026, 3, 14, 9, 26, 53, 0, time.FixedZone("CET", 3600))

	commit, err := NewCommitInfo(
		"ab5fe8d4c0e38c46a9c3b9f2e1d07a6b4c2d8e9f",
		"f1e2d3c",
		"Speed up attribute cache warmup",
		ts,
		"https://github.com/example/repo/commit/ab5fe8d",
		author, author, false,
	)
	if err != nil {
		t.Fatalf("NewCommitInfo() error = %v", err)
	}

	if commit.TimestampText() != "2026-03-14T08:26:53Z" {
		t.Fatalf("TimestampText() = %q", commit.TimestampText())
	}
}

func TestNewCommitInfo_Invalid(t *testing.T) {
	author := buildActor(t, "alice")
	ts := time.Now().UTC()

	tests := []struct {
		name string
		id   string
		time time.Time
	}{
		{"empty id", "", ts},
		{"short id", "ab12", ts},
		{"non-hex id", "zzzzzzzz", ts},
		{"too long id", "ab5fe8d4c0e38c46a9c3b9f2e1d07a6b4c2d8e9f0", ts},
		{"zero timestamp", "ab5fe8d", time.Time{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewCommitInfo(tc.id, "", "msg", tc.time, "", author, author, false)
			if err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestNewGitActor_EmptyName(t *testing.T) {
	if _, err := NewGitActor("  ", "x@example.com", "x"); err == nil {
		t.Fatalf("expected error for empty actor name")
	}
}
