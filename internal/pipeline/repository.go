package pipeline

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

// Repository handles database operations for pipeline tracking
type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

const runColumns = `id, pipeline_name, date, status, total_files,
	processed_files, total_rows, started_at, completed_at, error_message`

const jobColumns = `id, pipeline_run_id, file_path, status, row_count,
	error_message, processed_at, retry_count`

func (r *Repository) CreatePipelineRun(ctx context.Context, run *PipelineRun) error {
	query := `
		INSERT INTO pipeline_runs (
			pipeline_name, date, status, total_files,
			processed_files, total_rows, started_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	return r.db.QueryRowxContext(
		ctx, query,
		run.PipelineName, run.Date, run.Status, run.TotalFiles,
		run.ProcessedFiles, run.TotalRows, run.StartedAt,
	).Scan(&run.ID)
}

func (r *Repository) UpdatePipelineRun(ctx context.Context, run *PipelineRun) error {
	query := `
		UPDATE pipeline_runs
		SET status = :status, total_files = :total_files, processed_files = :processed_files,
		    total_rows = :total_rows, completed_at = :completed_at, error_message = :error_message
		WHERE id = :id
	`
	_, err := r.db.NamedExecContext(ctx, query, run)
	return err
}

func (r *Repository) GetPipelineRun(ctx context.Context, id int64) (*PipelineRun, error) {
	run := &PipelineRun{}
	if err := r.db.GetContext(ctx, run, `SELECT `+runColumns+` FROM pipeline_runs WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return run, nil
}

// GetPipelineRunByDate returns nil when the pipeline has no run for date.
func (r *Repository) GetPipelineRunByDate(ctx context.Context, pipelineName string, date time.Time) (*PipelineRun, error) {
	run := &PipelineRun{}
	err := r.db.GetContext(ctx, run,
		`SELECT `+runColumns+` FROM pipeline_runs WHERE pipeline_name = $1 AND date = $2`,
		pipelineName, date,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

func (r *Repository) CreateFileJob(ctx context.Context, job *FileJob) error {
	query := `
		INSERT INTO pipeline_file_jobs (pipeline_run_id, file_path, status, error_message)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	return r.db.QueryRowxContext(ctx, query,
		job.PipelineRunID, job.FilePath, job.Status, job.ErrorMessage,
	).Scan(&job.ID)
}

func (r *Repository) UpdateFileJob(ctx context.Context, job *FileJob) error {
	query := `
		UPDATE pipeline_file_jobs
		SET status = :status, row_count = :row_count, error_message = :error_message,
		    processed_at = :processed_at, retry_count = :retry_count
		WHERE id = :id
	`
	_, err := r.db.NamedExecContext(ctx, query, job)
	return err
}

func (r *Repository) GetFileJobsByRunID(ctx context.Context, runID int64) ([]*FileJob, error) {
	var jobs []*FileJob
	err := r.db.SelectContext(ctx, &jobs,
		`SELECT `+jobColumns+` FROM pipeline_file_jobs WHERE pipeline_run_id = $1 ORDER BY id`, runID)
	return jobs, err
}

func (r *Repository) GetFailedFileJobs(ctx context.Context, pipelineName string, maxRetries int) ([]*FileJob, error) {
	query := `
		SELECT fj.id, fj.pipeline_run_id, fj.file_path, fj.status, fj.row_count,
		       fj.error_message, fj.processed_at, fj.retry_count
		FROM pipeline_file_jobs fj
		JOIN pipeline_runs pr ON fj.pipeline_run_id = pr.id
		WHERE pr.pipeline_name = $1
		  AND fj.status = $2
		  AND fj.retry_count < $3
		ORDER BY fj.id
	`
	var jobs []*FileJob
	err := r.db.SelectContext(ctx, &jobs, query, pipelineName, FileStatusFailed, maxRetries)
	return jobs, err
}

func (r *Repository) IncrementProcessedFiles(ctx context.Context, runID int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE pipeline_runs SET processed_files = processed_files + 1 WHERE id = $1`, runID)
	return err
}

func (r *Repository) AddRowCount(ctx context.Context, runID int64, count int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE pipeline_runs SET total_rows = total_rows + $1 WHERE id = $2`, count, runID)
	return err
}

// RecentRuns lists the latest runs across pipelines, newest first.
func (r *Repository) RecentRuns(ctx context.Context, limit int) ([]*PipelineRun, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []*PipelineRun
	err := r.db.SelectContext(ctx, &runs,
		`SELECT `+runColumns+` FROM pipeline_runs ORDER BY started_at DESC, id DESC LIMIT $1`, limit)
	return runs, err
}
