package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/mangalakulal105/benchtrack/internal/domain/entity"
	"github.com/mangalakulal105/benchtrack/internal/domain/valueobject"
)

// jsWrapperPrefix makes the document loadable as a plain <script> tag
// by the charting page
const jsWrapperPrefix = "window.BENCHMARK_DATA = "

// HistoryDocumentDTO is the canonical dashboard document. Its shape is the
// compatibility contract with the charting front-end: field names, nesting,
// and per-suite run order are stable.
type HistoryDocumentDTO struct {
	LastUpdate int64               `json:"lastUpdate"`
	RepoURL    string              `json:"repoUrl"`
	Entries    map[string][]RunDTO `json:"entries"`
}

// NewHistoryDocument builds the document from the full run history.
// Runs inside each suite are emitted ascending by capture time regardless of
// input order; lastUpdate is the newest capture time across all suites.
func NewHistoryDocument(history map[valueobject.SuiteName][]*entity.BenchmarkRun, repoURL string) *HistoryDocumentDTO {
	doc := &HistoryDocumentDTO{
		RepoURL: repoURL,
		Entries: make(map[string][]RunDTO, len(history)),
	}

	for suite, runs := range history {
		ordered := make([]*entity.BenchmarkRun, len(runs))
		copy(ordered, runs)
		sort.SliceStable(ordered, func(i, j int) bool {
			return ordered[i].RecordedAt().Before(ordered[j].RecordedAt())
		})

		doc.Entries[suite.String()] = ToRunDTOs(ordered)

		for _, run := range ordered {
			if run.DateMillis() > doc.LastUpdate {
				doc.LastUpdate = run.DateMillis()
			}
		}
	}

	return doc
}

// MarshalStable renders the document deterministically: suite keys are
// sorted, so the same history always produces byte-identical output.
func (d *HistoryDocumentDTO) MarshalStable() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(`{"lastUpdate":`)
	buf.WriteString(fmt.Sprintf("%d", d.LastUpdate))
	buf.WriteString(`,"repoUrl":`)
	if err := writeJSONValue(&buf, d.RepoURL); err != nil {
		return nil, err
	}
	buf.WriteString(`,"entries":{`)

	suites := make([]string, 0, len(d.Entries))
	for suite := range d.Entries {
		suites = append(suites, suite)
	}
	sort.Strings(suites)

	for i, suite := range suites {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSONValue(&buf, suite); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := writeJSONValue(&buf, d.Entries[suite]); err != nil {
			return nil, err
		}
	}

	buf.WriteString("}}")
	return buf.Bytes(), nil
}

// MarshalJS renders the window.BENCHMARK_DATA script variant
func (d *HistoryDocumentDTO) MarshalJS() ([]byte, error) {
	payload, err := d.MarshalStable()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString(jsWrapperPrefix)
	buf.Write(payload)
	buf.WriteString(";\n")
	return buf.Bytes(), nil
}

// ParseHistoryDocument parses a rendered document back into the DTO.
// Accepts both the raw JSON and the window.BENCHMARK_DATA script forms.
func ParseHistoryDocument(data []byte) (*HistoryDocumentDTO, error) {
	trimmed := bytes.TrimSpace(data)
	if bytes.HasPrefix(trimmed, []byte(jsWrapperPrefix)) {
		trimmed = bytes.TrimPrefix(trimmed, []byte(jsWrapperPrefix))
		trimmed = bytes.TrimSuffix(bytes.TrimSpace(trimmed), []byte(";"))
	}

	var doc HistoryDocumentDTO
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse history document: %w", err)
	}

	if doc.Entries == nil {
		doc.Entries = make(map[string][]RunDTO)
	}

	return &doc, nil
}

// ToHistory converts a parsed document back into domain entities grouped by
// suite. Round-trip property: rendering the result reproduces the document.
func (d *HistoryDocumentDTO) ToHistory() (map[valueobject.SuiteName][]*entity.BenchmarkRun, error) {
	history := make(map[valueobject.SuiteName][]*entity.BenchmarkRun, len(d.Entries))

	for suiteRaw, runDTOs := range d.Entries {
		suite, err := valueobject.NewSuiteName(suiteRaw)
		if err != nil {
			return nil, fmt.Errorf("invalid suite %q: %w", suiteRaw, err)
		}

		runs := make([]*entity.BenchmarkRun, 0, len(runDTOs))
		for _, runDTO := range runDTOs {
			run, err := runDTO.ToEntity(suite)
			if err != nil {
				return nil, fmt.Errorf("suite %q: %w", suiteRaw, err)
			}
			runs = append(runs, run)
		}

		history[suite] = runs
	}

	return history, nil
}

func writeJSONValue(buf *bytes.Buffer, v interface{}) error {
	encoder := json.NewEncoder(buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(v); err != nil {
		return err
	}
	// Encode appends a trailing newline; strip it to keep output compact
	buf.Truncate(buf.Len() - 1)
	return nil
}
