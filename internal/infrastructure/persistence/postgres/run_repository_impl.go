package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mangalakulal105/benchtrack/internal/domain/entity"
	"github.com/mangalakulal105/benchtrack/internal/domain/repository"
	"github.com/mangalakulal105/benchtrack/internal/domain/valueobject"
	_ "github.com/lib/pq"
)

const runColumns = `id, suite, commit_id, commit_tree_id, commit_message, commit_timestamp,
		commit_timestamp_text, commit_url, commit_author, commit_committer, commit_distinct,
		tool, recorded_at, benches, environment, created_at`

// PostgresRunRepository implements repository.RunRepository for PostgreSQL
type PostgresRunRepository struct {
	db *sql.DB
}

// NewPostgresRunRepository creates a new PostgreSQL repository
func NewPostgresRunRepository(db *sql.DB) *PostgresRunRepository {
	return &PostgresRunRepository{
		db: db,
	}
}

// Save persists one run
func (r *PostgresRunRepository) Save(ctx context.Context, run *entity.BenchmarkRun) error {
	model, err := ToDBModel(run)
	if err != nil {
		return fmt.Errorf("failed to convert to DB model: %w", err)
	}

	query := `
		INSERT INTO benchmark_runs (` + runColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err = r.db.ExecContext(ctx, query,
		model.ID,
		model.Suite,
		model.CommitID,
		model.CommitTreeID,
		model.CommitMessage,
		model.CommitTimestamp,
		model.CommitTimestampText,
		model.CommitURL,
		model.CommitAuthor,
		model.CommitCommitter,
		model.CommitDistinct,
		model.Tool,
		model.RecordedAt,
		model.Benches,
		nullableBytes(model.Environment),
		model.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	return nil
}

// FindByID finds a run by identifier
func (r *PostgresRunRepository) FindByID(ctx context.Context, id string) (*entity.BenchmarkRun, error) {
	query := `
		SELECT ` + runColumns + `
		FROM benchmark_runs
		WHERE id = $1
	`

	row := r.db.QueryRowContext(ctx, query, id)
	model, err := ScanRunRow(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repository.ErrRunNotFound
		}
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	return ToEntity(model)
}

// FindBySuite finds runs of a suite, newest first
func (r *PostgresRunRepository) FindBySuite(
	ctx context.Context,
	suite valueobject.SuiteName,
	limit int,
) ([]*entity.BenchmarkRun, error) {
	query := `
		SELECT ` + runColumns + `
		FROM benchmark_runs
		WHERE suite = $1
		ORDER BY recorded_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, suite.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	return r.scanRuns(rows)
}

// FindByTimeRange finds runs of a suite within a capture-time window
func (r *PostgresRunRepository) FindByTimeRange(
	ctx context.Context,
	suite valueobject.SuiteName,
	timeRange valueobject.TimeRange,
) ([]*entity.BenchmarkRun, error) {
	query := `
		SELECT ` + runColumns + `
		FROM benchmark_runs
		WHERE suite = $1 AND recorded_at BETWEEN $2 AND $3
		ORDER BY recorded_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query,
		suite.String(),
		timeRange.Start(),
		timeRange.End(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	return r.scanRuns(rows)
}

// FindAll returns the complete history grouped by suite, ascending by
// capture time within each suite
func (r *PostgresRunRepository) FindAll(ctx context.Context) (map[valueobject.SuiteName][]*entity.BenchmarkRun, error) {
	query := `
		SELECT ` + runColumns + `
		FROM benchmark_runs
		ORDER BY suite, recorded_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	runs, err := r.scanRuns(rows)
	if err != nil {
		return nil, err
	}

	history := make(map[valueobject.SuiteName][]*entity.BenchmarkRun)
	for _, run := range runs {
		history[run.Suite()] = append(history[run.Suite()], run)
	}

	return history, nil
}

// FindSuiteHead finds the newest run of the suite
func (r *PostgresRunRepository) FindSuiteHead(
	ctx context.Context,
	suite valueobject.SuiteName,
) (*entity.BenchmarkRun, error) {
	query := `
		SELECT ` + runColumns + `
		FROM benchmark_runs
		WHERE suite = $1
		ORDER BY recorded_at DESC
		LIMIT 1
	`

	row := r.db.QueryRowContext(ctx, query, suite.String())
	model, err := ScanRunRow(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repository.ErrRunNotFound
		}
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	return ToEntity(model)
}

// FindLatest finds the newest run of every suite
func (r *PostgresRunRepository) FindLatest(ctx context.Context) (map[valueobject.SuiteName]*entity.BenchmarkRun, error) {
	query := `
		SELECT DISTINCT ON (suite)
			` + runColumns + `
		FROM benchmark_runs
		ORDER BY suite, recorded_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest runs: %w", err)
	}
	defer rows.Close()

	runs, err := r.scanRuns(rows)
	if err != nil {
		return nil, err
	}

	result := make(map[valueobject.SuiteName]*entity.BenchmarkRun, len(runs))
	for _, run := range runs {
		result[run.Suite()] = run
	}

	return result, nil
}

// ExistsRevision reports whether a run for the suite with the given commit
// id and capture time is already recorded
func (r *PostgresRunRepository) ExistsRevision(
	ctx context.Context,
	suite valueobject.SuiteName,
	commitID string,
	dateMillis int64,
) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM benchmark_runs
			WHERE suite = $1 AND commit_id = $2
			  AND (EXTRACT(EPOCH FROM recorded_at) * 1000)::bigint = $3
		)
	`

	var exists bool
	err := r.db.QueryRowContext(ctx, query, suite.String(), commitID, dateMillis).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check revision: %w", err)
	}

	return exists, nil
}

// ListSuites returns all suite names present in the history
func (r *PostgresRunRepository) ListSuites(ctx context.Context) ([]valueobject.SuiteName, error) {
	query := `
		SELECT DISTINCT suite
		FROM benchmark_runs
		ORDER BY suite
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list suites: %w", err)
	}
	defer rows.Close()

	var suites []valueobject.SuiteName
	for rows.Next() {
		var suite string
		if err := rows.Scan(&suite); err != nil {
			return nil, fmt.Errorf("failed to scan suite name: %w", err)
		}
		suites = append(suites, valueobject.SuiteName(suite))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return suites, nil
}

// Count returns the number of runs recorded for the suite
func (r *PostgresRunRepository) Count(ctx context.Context, suite valueobject.SuiteName) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM benchmark_runs
		WHERE suite = $1
	`

	var count int64
	err := r.db.QueryRowContext(ctx, query, suite.String()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count runs: %w", err)
	}

	return count, nil
}

// DeleteOldestInSuite removes the n oldest runs of the suite
func (r *PostgresRunRepository) DeleteOldestInSuite(
	ctx context.Context,
	suite valueobject.SuiteName,
	n int,
) (int64, error) {
	if n <= 0 {
		return 0, nil
	}

	query := `
		DELETE FROM benchmark_runs
		WHERE id IN (
			SELECT id FROM benchmark_runs
			WHERE suite = $1
			ORDER BY recorded_at ASC
			LIMIT $2
		)
	`

	result, err := r.db.ExecContext(ctx, query, suite.String(), n)
	if err != nil {
		return 0, fmt.Errorf("failed to delete oldest runs: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return deleted, nil
}

// scanRuns scans multiple rows into run entities
func (r *PostgresRunRepository) scanRuns(rows *sql.Rows) ([]*entity.BenchmarkRun, error) {
	var runs []*entity.BenchmarkRun

	for rows.Next() {
		model, err := ScanRunRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}

		run, err := ToEntity(model)
		if err != nil {
			return nil, fmt.Errorf("failed to convert to entity: %w", err)
		}

		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return runs, nil
}

func nullableBytes(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return b
}
