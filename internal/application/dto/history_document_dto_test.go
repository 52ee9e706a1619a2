package dto

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/mangalakulal105/benchtrack/internal/domain/entity"
	"github.com/mangalakulal105/benchtrack/internal/domain/valueobject"
)

func buildHistoryRun(t *testing.T, suite string, recordedAt time.Time, value float64) *entity.BenchmarkRun {
	t.Helper()

	m, err := valueobject.NewMeasurement("mount_cold_start", value, valueobject.Milliseconds)
	if err != nil {
		t.Fatalf("NewMeasurement() error = %v", err)
	}

	author, err := valueobject.NewGitActor("alice", "alice@example.com", "alice")
	if err != nil {
		t.Fatalf("NewGitActor() error = %v", err)
	}
	commit, err := valueobject.NewCommitInfo(
		"ab5fe8d4c0e38c46a9c3b9f2e1d07a6b4c2d8e9f", "f1e2d3c", "Tune readahead <defaults>",
		recordedAt.Add(-time.Minute),
		"https://github.com/example/repo/commit/ab5fe8d",
		author, author, true,
	)
	if err != nil {
		t.Fatalf("NewCommitInfo() error = %v", err)
	}

	run, err := entity.NewBenchmarkRun(valueobject.SuiteName(suite), commit, "benchtrack",
		recordedAt, []valueobject.Measurement{m})
	if err != nil {
		t.Fatalf("NewBenchmarkRun() error = %v", err)
	}
	return run
}

func buildHistory(t *testing.T) map[valueobject.SuiteName][]*entity.BenchmarkRun {
	t.Helper()
	base := time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)

	return map[valueobject.SuiteName][]*entity.BenchmarkRun{
		// out of chronological order on purpose
		"zeta-suite": {
			buildHistoryRun(t, "zeta-suite", base.Add(2*time.Hour), 120),
			buildHistoryRun(t, "zeta-suite", base, 100),
		},
		"alpha-suite": {
			buildHistoryRun(t, "alpha-suite", base.Add(time.Hour), 90),
		},
	}
}

func TestNewHistoryDocument(t *testing.T) {
	doc := NewHistoryDocument(buildHistory(t), "https://github.com/example/repo")

	if len(doc.Entries) != 2 {
		t.Fatalf("expected 2 suites, got %d", len(doc.Entries))
	}

	zeta := doc.Entries["zeta-suite"]
	if len(zeta) != 2 {
		t.Fatalf("expected 2 runs in zeta-suite, got %d", len(zeta))
	}
	if zeta[0].Date > zeta[1].Date {
		t.Fatalf("runs not ascending by capture time")
	}

	newest := time.Date(2026, 4, 2, 12, 0, 0, 0, time.UTC).UnixMilli()
	if doc.LastUpdate != newest {
		t.Fatalf("LastUpdate = %d, want %d", doc.LastUpdate, newest)
	}
}

func TestMarshalStable_Deterministic(t *testing.T) {
	doc := NewHistoryDocument(buildHistory(t), "https://github.com/example/repo")

	first, err := doc.MarshalStable()
	if err != nil {
		t.Fatalf("MarshalStable() error = %v", err)
	}

	for i := 0; i < 10; i++ {
		again, err := doc.MarshalStable()
		if err != nil {
			t.Fatalf("MarshalStable() error = %v", err)
		}
		if !bytes.Equal(first, again) {
			t.Fatalf("output not deterministic on iteration %d", i)
		}
	}

	// suite keys sorted lexicographically
	alphaIdx := bytes.Index(first, []byte(`"alpha-suite"`))
	zetaIdx := bytes.Index(first, []byte(`"zeta-suite"`))
	if alphaIdx < 0 || zetaIdx < 0 || alphaIdx > zetaIdx {
		t.Fatalf("suite keys not sorted: alpha at %d, zeta at %d", alphaIdx, zetaIdx)
	}

	// output must still be valid JSON matching the encoding/json view
	var viaStdlib HistoryDocumentDTO
	if err := json.Unmarshal(first, &viaStdlib); err != nil {
		t.Fatalf("stable output is not valid JSON: %v", err)
	}
	if viaStdlib.LastUpdate != doc.LastUpdate || len(viaStdlib.Entries) != len(doc.Entries) {
		t.Fatalf("stable output diverges from document")
	}
}

func TestMarshalStable_NoHTMLEscaping(t *testing.T) {
	doc := NewHistoryDocument(buildHistory(t), "https://github.com/example/repo?a=1&b=2")

	payload, err := doc.MarshalStable()
	if err != nil {
		t.Fatalf("MarshalStable() error = %v", err)
	}

	if bytes.Contains(payload, []byte(`\u0026`)) {
		t.Fatalf("ampersand was HTML-escaped")
	}
	if !bytes.Contains(payload, []byte("a=1&b=2")) {
		t.Fatalf("repo URL not preserved verbatim")
	}
	// commit messages with angle brackets stay readable
	if !bytes.Contains(payload, []byte("<defaults>")) {
		t.Fatalf("commit message was HTML-escaped")
	}
}

func TestMarshalJS(t *testing.T) {
	doc := NewHistoryDocument(buildHistory(t), "https://github.com/example/repo")

	script, err := doc.MarshalJS()
	if err != nil {
		t.Fatalf("MarshalJS() error = %v", err)
	}

	text := string(script)
	if !strings.HasPrefix(text, "window.BENCHMARK_DATA = {") {
		t.Fatalf("unexpected script prefix: %.40s", text)
	}
	if !strings.HasSuffix(text, ";\n") {
		t.Fatalf("script must end with a semicolon and newline")
	}
}

func TestParseHistoryDocument_RoundTrip(t *testing.T) {
	doc := NewHistoryDocument(buildHistory(t), "https://github.com/example/repo")

	payload, err := doc.MarshalStable()
	if err != nil {
		t.Fatalf("MarshalStable() error = %v", err)
	}

	parsed, err := ParseHistoryDocument(payload)
	if err != nil {
		t.Fatalf("ParseHistoryDocument() error = %v", err)
	}

	rendered, err := parsed.MarshalStable()
	if err != nil {
		t.Fatalf("MarshalStable() after parse error = %v", err)
	}
	if !bytes.Equal(payload, rendered) {
		t.Fatalf("round-trip changed the document")
	}
}

func TestParseHistoryDocument_KeepsProducerTimestamp(t *testing.T) {
	// an externally produced document carries an offset timestamp with
	// sub-second precision; re-rendering must not rewrite it to UTC
	const timestampText = "2023-08-02T13:37:53.123+01:00"
	document := []byte(`{
		"lastUpdate": 1690980000000,
		"repoUrl": "https://github.com/example/repo",
		"entries": {
			"latency-suite": [
				{
					"commit": {
						"author": {"name": "alice"},
						"committer": {"name": "alice"},
						"distinct": true,
						"id": "ab5fe8d4c0e38c46a9c3b9f2e1d07a6b4c2d8e9f",
						"message": "Tune readahead",
						"timestamp": "` + timestampText + `",
						"tree_id": "f1e2d3c",
						"url": "https://github.com/example/repo/commit/ab5fe8d"
					},
					"date": 1690980000000,
					"tool": "benchtrack",
					"benches": [{"name": "mount_cold_start", "value": 125.5, "unit": "milliseconds"}]
				}
			]
		}
	}`)

	parsed, err := ParseHistoryDocument(document)
	if err != nil {
		t.Fatalf("ParseHistoryDocument() error = %v", err)
	}

	canonical, err := parsed.MarshalStable()
	if err != nil {
		t.Fatalf("MarshalStable() error = %v", err)
	}
	if !bytes.Contains(canonical, []byte(timestampText)) {
		t.Fatalf("producer timestamp rewritten in %s", canonical)
	}

	// the same holds after a full pass through the domain entities
	history, err := parsed.ToHistory()
	if err != nil {
		t.Fatalf("ToHistory() error = %v", err)
	}
	rebuilt := NewHistoryDocument(history, parsed.RepoURL)
	rendered, err := rebuilt.MarshalStable()
	if err != nil {
		t.Fatalf("MarshalStable() after entity pass error = %v", err)
	}
	if !bytes.Equal(canonical, rendered) {
		t.Fatalf("entity round-trip changed the document")
	}
}

func TestParseHistoryDocument_ScriptVariant(t *testing.T) {
	doc := NewHistoryDocument(buildHistory(t), "https://github.com/example/repo")

	script, err := doc.MarshalJS()
	if err != nil {
		t.Fatalf("MarshalJS() error = %v", err)
	}

	parsed, err := ParseHistoryDocument(script)
	if err != nil {
		t.Fatalf("ParseHistoryDocument(script) error = %v", err)
	}
	if parsed.LastUpdate != doc.LastUpdate {
		t.Fatalf("LastUpdate lost through the script wrapper")
	}
}

func TestParseHistoryDocument_Invalid(t *testing.T) {
	if _, err := ParseHistoryDocument([]byte("not json")); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestHistoryDocument_ToHistory(t *testing.T) {
	doc := NewHistoryDocument(buildHistory(t), "https://github.com/example/repo")

	history, err := doc.ToHistory()
	if err != nil {
		t.Fatalf("ToHistory() error = %v", err)
	}

	if len(history) != 2 {
		t.Fatalf("expected 2 suites, got %d", len(history))
	}

	runs := history["zeta-suite"]
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].Tool() != "benchtrack" {
		t.Fatalf("Tool() = %q", runs[0].Tool())
	}
	if got, ok := runs[0].Measurement("mount_cold_start"); !ok || got.Unit() != valueobject.Milliseconds {
		t.Fatalf("measurement lost in conversion")
	}

	// rendering the converted history reproduces the document
	rebuilt := NewHistoryDocument(history, doc.RepoURL)
	original, _ := doc.MarshalStable()
	again, err := rebuilt.MarshalStable()
	if err != nil {
		t.Fatalf("MarshalStable() error = %v", err)
	}
	if !bytes.Equal(original, again) {
		t.Fatalf("entity round-trip changed the document")
	}
}
