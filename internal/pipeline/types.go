package pipeline

import (
	"context"
	"time"

	"github.com/andresuchdata/budget-engine/backend-go/internal/domain"
)

// Pipeline turns one exported file into movement lines.
type Pipeline interface {
	// Name returns the unique identifier for this pipeline
	Name() string

	// Transform parses a single input file into movements
	Transform(ctx context.Context, inputFile string) ([]domain.Transaction, error)

	// GetSnapshotDate extracts the export date from the filename
	GetSnapshotDate(filename string) (time.Time, error)

	// Validate checks if the input file is valid for this pipeline
	Validate(inputFile string) error
}

// Sink stores the movements of one source file, replacing any rows
// previously loaded from it.
type Sink interface {
	InsertMovements(ctx context.Context, source string, movements []domain.Transaction) (int, error)
}

// RunStore persists run and file job bookkeeping.
type RunStore interface {
	CreatePipelineRun(ctx context.Context, run *PipelineRun) error
	UpdatePipelineRun(ctx context.Context, run *PipelineRun) error
	GetPipelineRun(ctx context.Context, id int64) (*PipelineRun, error)
	GetPipelineRunByDate(ctx context.Context, pipelineName string, date time.Time) (*PipelineRun, error)
	CreateFileJob(ctx context.Context, job *FileJob) error
	UpdateFileJob(ctx context.Context, job *FileJob) error
	GetFailedFileJobs(ctx context.Context, pipelineName string, maxRetries int) ([]*FileJob, error)
	IncrementProcessedFiles(ctx context.Context, runID int64) error
	AddRowCount(ctx context.Context, runID int64, count int) error
}

// PipelineConfig holds configuration for a pipeline instance
type PipelineConfig struct {
	Name          string
	BatchSize     int // Number of files to buffer before flushing
	BatchRows     int // Number of rows to buffer before flushing
	FlushInterval time.Duration // Max time to wait before flushing
	WorkerCount   int // Number of concurrent workers
	RetryAttempts int // Number of retries on failure
}

// DefaultPipelineConfig returns sensible defaults
func DefaultPipelineConfig(name string) PipelineConfig {
	return PipelineConfig{
		Name:          name,
		BatchSize:     5,
		BatchRows:     50000,
		FlushInterval: 5 * time.Minute,
		WorkerCount:   4,
		RetryAttempts: 3,
	}
}

type PipelineStatus string

const (
	StatusPending    PipelineStatus = "pending"
	StatusProcessing PipelineStatus = "processing"
	StatusCompleted  PipelineStatus = "completed"
	StatusFailed     PipelineStatus = "failed"
)

type FileJobStatus string

const (
	FileStatusQueued     FileJobStatus = "queued"
	FileStatusProcessing FileJobStatus = "processing"
	FileStatusCompleted  FileJobStatus = "completed"
	FileStatusFailed     FileJobStatus = "failed"
)

// PipelineRun tracks a single execution of a pipeline for a specific date
type PipelineRun struct {
	ID             int64          `db:"id" json:"id"`
	PipelineName   string         `db:"pipeline_name" json:"pipeline_name"`
	Date           time.Time      `db:"date" json:"date"`
	Status         PipelineStatus `db:"status" json:"status"`
	TotalFiles     int            `db:"total_files" json:"total_files"`
	ProcessedFiles int            `db:"processed_files" json:"processed_files"`
	TotalRows      int            `db:"total_rows" json:"total_rows"`
	StartedAt      time.Time      `db:"started_at" json:"started_at"`
	CompletedAt    *time.Time     `db:"completed_at" json:"completed_at,omitempty"`
	ErrorMessage   string         `db:"error_message" json:"error_message,omitempty"`
}

// FileJob tracks the processing of a single file
type FileJob struct {
	ID            int64         `db:"id"`
	PipelineRunID int64         `db:"pipeline_run_id"`
	FilePath      string        `db:"file_path"`
	Status        FileJobStatus `db:"status"`
	RowCount      int           `db:"row_count"`
	ErrorMessage  string        `db:"error_message"`
	ProcessedAt   *time.Time    `db:"processed_at"`
	RetryCount    int           `db:"retry_count"`
}
