package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mangalakulal105/benchtrack/internal/domain/entity"
	"github.com/mangalakulal105/benchtrack/internal/domain/valueobject"
)

// RunDBModel represents a benchmark run row
type RunDBModel struct {
	ID              string
	Suite           string
	CommitID        string
	CommitTreeID    string
	CommitMessage   string
	CommitTimestamp time.Time
	// CommitTimestampText keeps the producer's original RFC3339 text so
	// re-rendered documents do not rewrite its offset. Empty for old rows.
	CommitTimestampText string
	CommitURL           string
	CommitAuthor        []byte // JSON
	CommitCommitter     []byte // JSON
	CommitDistinct      bool
	Tool                string
	RecordedAt          time.Time
	Benches             []byte // JSON array, preserves measurement order
	Environment         []byte // JSON
	CreatedAt           time.Time
}

type actorJSON struct {
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
}

type benchJSON struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// ToDBModel converts a Domain Entity into the DB model
func ToDBModel(run *entity.BenchmarkRun) (*RunDBModel, error) {
	commit := run.Commit()

	author, err := marshalActor(commit.Author())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal author: %w", err)
	}

	committer, err := marshalActor(commit.Committer())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal committer: %w", err)
	}

	benches := make([]benchJSON, 0, len(run.Measurements()))
	for _, m := range run.Measurements() {
		benches = append(benches, benchJSON{
			Name:  m.Name(),
			Value: m.Value(),
			Unit:  m.Unit().String(),
		})
	}

	benchBytes, err := json.Marshal(benches)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal benches: %w", err)
	}

	var environmentBytes []byte
	if env := run.Environment(); len(env) > 0 {
		environmentBytes, err = json.Marshal(env)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal environment: %w", err)
		}
	}

	return &RunDBModel{
		ID:                  run.ID(),
		Suite:               run.Suite().String(),
		CommitID:            commit.ID(),
		CommitTreeID:        commit.TreeID(),
		CommitMessage:       commit.Message(),
		CommitTimestamp:     commit.Timestamp(),
		CommitTimestampText: commit.TimestampText(),
		CommitURL:           commit.URL(),
		CommitAuthor:        author,
		CommitCommitter:     committer,
		CommitDistinct:      commit.Distinct(),
		Tool:                run.Tool(),
		RecordedAt:          run.RecordedAt(),
		Benches:             benchBytes,
		Environment:         environmentBytes,
		CreatedAt:           run.CreatedAt(),
	}, nil
}

// ToEntity converts a DB model back into a Domain Entity
func ToEntity(model *RunDBModel) (*entity.BenchmarkRun, error) {
	author, err := unmarshalActor(model.CommitAuthor)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal author: %w", err)
	}

	committer, err := unmarshalActor(model.CommitCommitter)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal committer: %w", err)
	}

	var commit valueobject.CommitInfo
	if model.CommitTimestampText != "" {
		commit, err = valueobject.NewCommitInfoFromText(
			model.CommitID,
			model.CommitTreeID,
			model.CommitMessage,
			model.CommitTimestampText,
			model.CommitURL,
			author,
			committer,
			model.CommitDistinct,
		)
	} else {
		commit, err = valueobject.NewCommitInfo(
			model.CommitID,
			model.CommitTreeID,
			model.CommitMessage,
			model.CommitTimestamp,
			model.CommitURL,
			author,
			committer,
			model.CommitDistinct,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid stored commit: %w", err)
	}

	var benches []benchJSON
	if err := json.Unmarshal(model.Benches, &benches); err != nil {
		return nil, fmt.Errorf("failed to unmarshal benches: %w", err)
	}

	measurements := make([]valueobject.Measurement, 0, len(benches))
	for _, bench := range benches {
		m, err := valueobject.NewMeasurement(bench.Name, bench.Value, valueobject.Unit(bench.Unit))
		if err != nil {
			return nil, fmt.Errorf("invalid stored measurement %q: %w", bench.Name, err)
		}
		measurements = append(measurements, m)
	}

	var environment map[string]interface{}
	if len(model.Environment) > 0 {
		if err := json.Unmarshal(model.Environment, &environment); err != nil {
			return nil, fmt.Errorf("failed to unmarshal environment: %w", err)
		}
	}

	return entity.Reconstruct(
		model.ID,
		valueobject.SuiteName(model.Suite),
		commit,
		model.Tool,
		model.RecordedAt,
		measurements,
		environment,
		model.CreatedAt,
	), nil
}

// ScanRunRow scans a database row into a RunDBModel
func ScanRunRow(row interface {
	Scan(dest ...interface{}) error
}) (*RunDBModel, error) {
	var model RunDBModel
	var commitTimestampText sql.NullString
	var environment sql.NullString

	err := row.Scan(
		&model.ID,
		&model.Suite,
		&model.CommitID,
		&model.CommitTreeID,
		&model.CommitMessage,
		&model.CommitTimestamp,
		&commitTimestampText,
		&model.CommitURL,
		&model.CommitAuthor,
		&model.CommitCommitter,
		&model.CommitDistinct,
		&model.Tool,
		&model.RecordedAt,
		&model.Benches,
		&environment,
		&model.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if commitTimestampText.Valid {
		model.CommitTimestampText = commitTimestampText.String
	}
	if environment.Valid {
		model.Environment = []byte(environment.String)
	}

	return &model, nil
}

func marshalActor(actor valueobject.GitActor) ([]byte, error) {
	return json.Marshal(actorJSON{
		Name:     actor.Name(),
		Email:    actor.Email(),
		Username: actor.Username(),
	})
}

func unmarshalActor(data []byte) (valueobject.GitActor, error) {
	var raw actorJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return valueobject.GitActor{}, err
	}
	return valueobject.NewGitActor(raw.Name, raw.Email, raw.Username)
}
