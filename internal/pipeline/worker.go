package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Worker processes files for a specific pipeline
type Worker struct {
	pipeline   Pipeline
	config     PipelineConfig
	runs       RunStore
	sink       Sink
	aggregator *StreamingAggregator
	mu         sync.Mutex
	now        func() time.Time
}

func NewWorker(pipeline Pipeline, config PipelineConfig, runs RunStore, sink Sink) *Worker {
	return &Worker{
		pipeline: pipeline,
		config:   config,
		runs:     runs,
		sink:     sink,
		now:      time.Now,
	}
}

// ProcessBatch processes a batch of files for a specific date
func (w *Worker) ProcessBatch(ctx context.Context, date time.Time, files []string) (*PipelineRun, error) {
	logger := log.With().Str("pipeline", w.pipeline.Name()).Str("date", date.Format("2006-01-02")).Logger()
	logger.Info().Int("files", len(files)).Msg("starting batch")

	run, err := w.getOrCreatePipelineRun(ctx, date, len(files))
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline run: %w", err)
	}

	w.aggregator = NewStreamingAggregator(w.pipeline.Name(), w.config, w.sink)

	fileJobs := make([]*FileJob, len(files))
	for i, file := range files {
		job := &FileJob{
			PipelineRunID: run.ID,
			FilePath:      file,
			Status:        FileStatusQueued,
		}
		if err := w.runs.CreateFileJob(ctx, job); err != nil {
			return nil, fmt.Errorf("failed to create file job: %w", err)
		}
		fileJobs[i] = job
	}

	run.Status = StatusProcessing
	if err := w.runs.UpdatePipelineRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to update pipeline run: %w", err)
	}

	if err := w.processFilesParallel(ctx, run, fileJobs); err != nil {
		w.failRun(ctx, run, err.Error())
		return run, err
	}

	if err := w.aggregator.Finalize(ctx); err != nil {
		w.failRun(ctx, run, fmt.Sprintf("aggregation failed: %v", err))
		return run, fmt.Errorf("failed to finalize aggregation: %w", err)
	}

	run.Status = StatusCompleted
	now := w.now()
	run.CompletedAt = &now
	if err := w.runs.UpdatePipelineRun(ctx, run); err != nil {
		return run, fmt.Errorf("failed to complete pipeline run: %w", err)
	}

	logger.Info().Int("files", run.ProcessedFiles).Int("rows", run.TotalRows).Msg("batch completed")
	return run, nil
}

func (w *Worker) failRun(ctx context.Context, run *PipelineRun, msg string) {
	run.Status = StatusFailed
	run.ErrorMessage = msg
	now := w.now()
	run.CompletedAt = &now
	if err := w.runs.UpdatePipelineRun(ctx, run); err != nil {
		log.Error().Err(err).Int64("run_id", run.ID).Msg("failed to record run failure")
	}
}

// processFilesParallel processes files using a worker pool
func (w *Worker) processFilesParallel(ctx context.Context, run *PipelineRun, jobs []*FileJob) error {
	workerCount := w.config.WorkerCount
	if workerCount < 1 {
		workerCount = 1
	}

	jobChan := make(chan *FileJob, len(jobs))
	errChan := make(chan error, workerCount)
	var wg sync.WaitGroup

	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for job := range jobChan {
				if err := w.processFile(ctx, run, job); err != nil {
					log.Error().Err(err).
						Str("pipeline", w.pipeline.Name()).
						Int("worker", workerID).
						Str("file", job.FilePath).
						Msg("file failed")
					select {
					case errChan <- err:
					default:
					}
				}
			}
		}(i)
	}

	for _, job := range jobs {
		select {
		case <-ctx.Done():
			close(jobChan)
			wg.Wait()
			return ctx.Err()
		case jobChan <- job:
		}
	}
	close(jobChan)

	wg.Wait()
	close(errChan)

	if err := <-errChan; err != nil {
		return err
	}
	return nil
}

func (w *Worker) processFile(ctx context.Context, run *PipelineRun, job *FileJob) error {
	startTime := w.now()

	job.Status = FileStatusProcessing
	if err := w.runs.UpdateFileJob(ctx, job); err != nil {
		return err
	}

	if err := w.pipeline.Validate(job.FilePath); err != nil {
		return w.markJobFailed(ctx, job, fmt.Errorf("validation failed: %w", err))
	}

	rows, err := w.pipeline.Transform(ctx, job.FilePath)
	if err != nil {
		return w.markJobFailed(ctx, job, fmt.Errorf("transformation failed: %w", err))
	}

	if err := w.aggregator.AddFileData(ctx, filepath.Base(job.FilePath), rows); err != nil {
		return w.markJobFailed(ctx, job, fmt.Errorf("aggregation failed: %w", err))
	}

	job.Status = FileStatusCompleted
	job.RowCount = len(rows)
	job.ErrorMessage = ""
	now := w.now()
	job.ProcessedAt = &now
	if err := w.runs.UpdateFileJob(ctx, job); err != nil {
		return err
	}

	w.mu.Lock()
	run.ProcessedFiles++
	run.TotalRows += len(rows)
	w.mu.Unlock()

	if err := w.runs.IncrementProcessedFiles(ctx, run.ID); err != nil {
		log.Warn().Err(err).Str("pipeline", w.pipeline.Name()).Msg("failed to increment processed files")
	}
	if err := w.runs.AddRowCount(ctx, run.ID, len(rows)); err != nil {
		log.Warn().Err(err).Str("pipeline", w.pipeline.Name()).Msg("failed to add row count")
	}

	log.Info().
		Str("pipeline", w.pipeline.Name()).
		Str("file", job.FilePath).
		Int("rows", len(rows)).
		Dur("took", w.now().Sub(startTime)).
		Msg("file completed")
	return nil
}

// markJobFailed records the failure; RetryFailed picks the job up again
// while RetryCount is below the configured attempts.
func (w *Worker) markJobFailed(ctx context.Context, job *FileJob, err error) error {
	job.Status = FileStatusFailed
	job.ErrorMessage = err.Error()
	job.RetryCount++

	if uerr := w.runs.UpdateFileJob(ctx, job); uerr != nil {
		log.Error().Err(uerr).Str("pipeline", w.pipeline.Name()).Msg("failed to update job status")
	}
	if job.RetryCount < w.config.RetryAttempts {
		log.Warn().
			Str("file", job.FilePath).
			Int("attempt", job.RetryCount).
			Int("max", w.config.RetryAttempts).
			Msg("job will be retried")
	}
	return err
}

func (w *Worker) getOrCreatePipelineRun(ctx context.Context, date time.Time, totalFiles int) (*PipelineRun, error) {
	run, err := w.runs.GetPipelineRunByDate(ctx, w.pipeline.Name(), date)
	if err != nil {
		return nil, err
	}

	if run != nil {
		if run.TotalFiles != totalFiles {
			run.TotalFiles = totalFiles
			if err := w.runs.UpdatePipelineRun(ctx, run); err != nil {
				return nil, err
			}
		}
		return run, nil
	}

	run = &PipelineRun{
		PipelineName: w.pipeline.Name(),
		Date:         date,
		Status:       StatusPending,
		TotalFiles:   totalFiles,
		StartedAt:    w.now(),
	}
	if err := w.runs.CreatePipelineRun(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

// RetryFailed reprocesses failed jobs that still have attempts left.
func (w *Worker) RetryFailed(ctx context.Context) error {
	jobs, err := w.runs.GetFailedFileJobs(ctx, w.pipeline.Name(), w.config.RetryAttempts)
	if err != nil {
		return fmt.Errorf("failed to get failed jobs: %w", err)
	}
	if len(jobs) == 0 {
		log.Info().Str("pipeline", w.pipeline.Name()).Msg("no failed jobs to retry")
		return nil
	}

	log.Info().Str("pipeline", w.pipeline.Name()).Int("jobs", len(jobs)).Msg("retrying failed jobs")

	jobsByRun := make(map[int64][]*FileJob)
	for _, job := range jobs {
		jobsByRun[job.PipelineRunID] = append(jobsByRun[job.PipelineRunID], job)
	}

	for runID, runJobs := range jobsByRun {
		run, err := w.runs.GetPipelineRun(ctx, runID)
		if err != nil {
			log.Error().Err(err).Int64("run_id", runID).Msg("failed to load run")
			continue
		}

		w.aggregator = NewStreamingAggregator(w.pipeline.Name(), w.config, w.sink)
		if err := w.processFilesParallel(ctx, run, runJobs); err != nil {
			log.Error().Err(err).Int64("run_id", runID).Msg("retry failed")
			continue
		}
		if err := w.aggregator.Finalize(ctx); err != nil {
			log.Error().Err(err).Int64("run_id", runID).Msg("failed to finalize retry")
			continue
		}

		if run.ProcessedFiles >= run.TotalFiles {
			run.Status = StatusCompleted
			run.ErrorMessage = ""
			now := w.now()
			run.CompletedAt = &now
			if err := w.runs.UpdatePipelineRun(ctx, run); err != nil {
				log.Error().Err(err).Int64("run_id", runID).Msg("failed to complete run")
			}
		}
	}
	return nil
}
