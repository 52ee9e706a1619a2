package dto

import (
	"fmt"
	"time"

	"github.com/mangalakulal105/benchtrack/internal/domain/entity"
	"github.com/mangalakulal105/benchtrack/internal/domain/valueobject"
)

// MeasurementDTO is the wire shape of a single benchmark measurement.
// Field names match the dashboard document format and must not change.
type MeasurementDTO struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// ActorDTO is the wire shape of a commit author or committer
type ActorDTO struct {
	Email    string `json:"email,omitempty"`
	Name     string `json:"name"`
	Username string `json:"username,omitempty"`
}

// CommitDTO is the wire shape of the commit metadata attached to a run.
// Timestamps are ISO8601 strings, matching the document format.
type CommitDTO struct {
	Author    ActorDTO `json:"author"`
	Committer ActorDTO `json:"committer"`
	Distinct  bool     `json:"distinct"`
	ID        string   `json:"id"`
	Message   string   `json:"message"`
	Timestamp string   `json:"timestamp"`
	TreeID    string   `json:"tree_id"`
	URL       string   `json:"url"`
}

// RunDTO is the wire shape of one benchmark run inside the history document.
// `date` is epoch milliseconds.
type RunDTO struct {
	Commit  CommitDTO        `json:"commit"`
	Date    int64            `json:"date"`
	Tool    string           `json:"tool"`
	Benches []MeasurementDTO `json:"benches"`
}

// RunDetailDTO extends RunDTO with service-side fields for API responses
type RunDetailDTO struct {
	ID          string                 `json:"id"`
	Suite       string                 `json:"suite"`
	Environment map[string]interface{} `json:"environment,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	RunDTO
}

// FromEntity converts a Domain Entity into the document run shape
func FromEntity(run *entity.BenchmarkRun) RunDTO {
	commit := run.Commit()

	benches := make([]MeasurementDTO, 0, len(run.Measurements()))
	for _, m := range run.Measurements() {
		benches = append(benches, MeasurementDTO{
			Name:  m.Name(),
			Value: m.Value(),
			Unit:  m.Unit().String(),
		})
	}

	return RunDTO{
		Commit: CommitDTO{
			Author:    actorDTO(commit.Author()),
			Committer: actorDTO(commit.Committer()),
			Distinct:  commit.Distinct(),
			ID:        commit.ID(),
			Message:   commit.Message(),
			Timestamp: commit.TimestampText(),
			TreeID:    commit.TreeID(),
			URL:       commit.URL(),
		},
		Date:    run.DateMillis(),
		Tool:    run.Tool(),
		Benches: benches,
	}
}

// FromEntityDetail converts a Domain Entity into the extended API shape
func FromEntityDetail(run *entity.BenchmarkRun) RunDetailDTO {
	return RunDetailDTO{
		ID:          run.ID(),
		Suite:       run.Suite().String(),
		Environment: run.Environment(),
		CreatedAt:   run.CreatedAt(),
		RunDTO:      FromEntity(run),
	}
}

// ToRunDTOs converts a slice of entities into document run shapes
func ToRunDTOs(runs []*entity.BenchmarkRun) []RunDTO {
	dtos := make([]RunDTO, len(runs))
	for i, run := range runs {
		dtos[i] = FromEntity(run)
	}
	return dtos
}

// ToEntity converts a document run shape back into a Domain Entity.
// Used by the export tool's round-trip verification and by document parsing.
func (d RunDTO) ToEntity(suite valueobject.SuiteName) (*entity.BenchmarkRun, error) {
	author, err := valueobject.NewGitActor(d.Commit.Author.Name, d.Commit.Author.Email, d.Commit.Author.Username)
	if err != nil {
		return nil, fmt.Errorf("invalid author: %w", err)
	}

	committer, err := valueobject.NewGitActor(d.Commit.Committer.Name, d.Commit.Committer.Email, d.Commit.Committer.Username)
	if err != nil {
		return nil, fmt.Errorf("invalid committer: %w", err)
	}

	commit, err := valueobject.NewCommitInfoFromText(
		d.Commit.ID,
		d.Commit.TreeID,
		d.Commit.Message,
		d.Commit.Timestamp,
		d.Commit.URL,
		author,
		committer,
		d.Commit.Distinct,
	)
	if err != nil {
		return nil, fmt.Errorf("invalid commit: %w", err)
	}

	measurements := make([]valueobject.Measurement, 0, len(d.Benches))
	for _, bench := range d.Benches {
		m, err := valueobject.NewMeasurement(bench.Name, bench.Value, valueobject.Unit(bench.Unit))
		if err != nil {
			return nil, fmt.Errorf("invalid measurement %q: %w", bench.Name, err)
		}
		measurements = append(measurements, m)
	}

	return entity.NewBenchmarkRun(suite, commit, d.Tool, time.UnixMilli(d.Date).UTC(), measurements)
}

func actorDTO(actor valueobject.GitActor) ActorDTO {
	return ActorDTO{
		Email:    actor.Email(),
		Name:     actor.Name(),
		Username: actor.Username(),
	}
}
