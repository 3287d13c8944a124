package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/andresuchdata/budget-engine/backend-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubPipeline yields one movement per file; files containing "broken" fail.
type stubPipeline struct{}

func (stubPipeline) Name() string { return "stub" }

func (stubPipeline) Transform(ctx context.Context, inputFile string) ([]domain.Transaction, error) {
	if strings.Contains(inputFile, "broken") {
		return nil, errors.New("cannot parse")
	}
	return []domain.Transaction{{Code: filepath.Base(inputFile), Type: domain.MovementSale, Quantity: -1}}, nil
}

func (stubPipeline) GetSnapshotDate(filename string) (time.Time, error) {
	if len(filename) < 8 {
		return time.Time{}, errors.New("no date")
	}
	return time.Parse("20060102", filename[:8])
}

func (stubPipeline) Validate(string) error { return nil }

type memorySink struct {
	mu      sync.Mutex
	sources map[string][]domain.Transaction
}

func (s *memorySink) InsertMovements(ctx context.Context, source string, rows []domain.Transaction) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sources == nil {
		s.sources = map[string][]domain.Transaction{}
	}
	s.sources[source] = rows
	return len(rows), nil
}

type memoryRuns struct {
	mu   sync.Mutex
	runs map[int64]*PipelineRun
	jobs map[int64]*FileJob
	next int64
}

func newMemoryRuns() *memoryRuns {
	return &memoryRuns{runs: map[int64]*PipelineRun{}, jobs: map[int64]*FileJob{}}
}

func (m *memoryRuns) CreatePipelineRun(ctx context.Context, run *PipelineRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	run.ID = m.next
	cp := *run
	m.runs[run.ID] = &cp
	return nil
}

func (m *memoryRuns) UpdatePipelineRun(ctx context.Context, run *PipelineRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *run
	m.runs[run.ID] = &cp
	return nil
}

func (m *memoryRuns) GetPipelineRun(ctx context.Context, id int64) (*PipelineRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[id]
	if !ok {
		return nil, fmt.Errorf("run %d not found", id)
	}
	cp := *run
	return &cp, nil
}

func (m *memoryRuns) GetPipelineRunByDate(ctx context.Context, name string, date time.Time) (*PipelineRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, run := range m.runs {
		if run.PipelineName == name && run.Date.Equal(date) {
			cp := *run
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memoryRuns) CreateFileJob(ctx context.Context, job *FileJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	job.ID = m.next
	cp := *job
	m.jobs[job.ID] = &cp
	return nil
}

func (m *memoryRuns) UpdateFileJob(ctx context.Context, job *FileJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *job
	m.jobs[job.ID] = &cp
	return nil
}

func (m *memoryRuns) GetFailedFileJobs(ctx context.Context, name string, maxRetries int) ([]*FileJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*FileJob
	for _, job := range m.jobs {
		if job.Status == FileStatusFailed && job.RetryCount < maxRetries {
			cp := *job
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memoryRuns) IncrementProcessedFiles(ctx context.Context, runID int64) error { return nil }

func (m *memoryRuns) AddRowCount(ctx context.Context, runID int64, count int) error { return nil }

func (m *memoryRuns) jobsWith(status FileJobStatus) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, job := range m.jobs {
		if job.Status == status {
			n++
		}
	}
	return n
}

func testConfig() PipelineConfig {
	cfg := DefaultPipelineConfig("stub")
	cfg.BatchSize = 2
	cfg.WorkerCount = 3
	return cfg
}

func TestOrchestratorRun(t *testing.T) {
	runs, sink := newMemoryRuns(), &memorySink{}
	completed := 0
	o := NewOrchestrator(runs, sink, testConfig()).OnComplete(func(context.Context) error {
		completed++
		return nil
	})

	files := []string{
		"/in/20240602_b.csv",
		"/in/20240601_a.csv",
		"/in/20240601_c.csv",
		"/in/20240602_d.csv",
		"/in/20240602_e.csv",
	}
	result, err := o.Run(context.Background(), stubPipeline{}, files)
	require.NoError(t, err)

	require.Len(t, result.Runs, 2)
	assert.Equal(t, time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC), result.Runs[0].Date)
	assert.Equal(t, 5, result.Files)
	assert.Equal(t, 5, result.Rows)
	assert.Len(t, sink.sources, 5)
	assert.Contains(t, sink.sources, "20240601_a.csv")
	assert.Equal(t, 1, completed)

	for _, run := range result.Runs {
		assert.Equal(t, StatusCompleted, run.Status)
		assert.NotNil(t, run.CompletedAt)
	}
	assert.Equal(t, 5, runs.jobsWith(FileStatusCompleted))
}

func TestOrchestratorRunFailure(t *testing.T) {
	runs, sink := newMemoryRuns(), &memorySink{}
	completed := false
	o := NewOrchestrator(runs, sink, testConfig()).OnComplete(func(context.Context) error {
		completed = true
		return nil
	})

	result, err := o.Run(context.Background(), stubPipeline{}, []string{"/in/20240601_ok.csv", "/in/20240601_broken.csv"})
	require.Error(t, err)
	assert.False(t, completed)
	require.Len(t, result.Runs, 1)
	assert.Equal(t, StatusFailed, result.Runs[0].Status)
	assert.Contains(t, result.Runs[0].ErrorMessage, "cannot parse")
	assert.Equal(t, 1, runs.jobsWith(FileStatusFailed))
}

func TestOrchestratorUndatedFilesUseToday(t *testing.T) {
	o := NewOrchestrator(newMemoryRuns(), &memorySink{}, testConfig())
	o.now = func() time.Time { return time.Date(2024, time.July, 9, 15, 0, 0, 0, time.UTC) }

	result, err := o.Run(context.Background(), stubPipeline{}, []string{"/in/x.csv"})
	require.NoError(t, err)
	require.Len(t, result.Runs, 1)
	assert.Equal(t, time.Date(2024, time.July, 9, 0, 0, 0, 0, time.UTC), result.Runs[0].Date)
}

func TestWorkerRetryFailed(t *testing.T) {
	runs, sink := newMemoryRuns(), &memorySink{}
	w := NewWorker(stubPipeline{}, testConfig(), runs, sink)

	_, err := w.ProcessBatch(context.Background(), time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC),
		[]string{"/in/a.csv", "/in/broken.csv"})
	require.Error(t, err)

	// The file is still broken, so the retry fails again and bumps the count.
	require.NoError(t, w.RetryFailed(context.Background()))
	failed, err := runs.GetFailedFileJobs(context.Background(), "stub", 10)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, 2, failed[0].RetryCount)
}

func TestAggregatorFlushesPerSource(t *testing.T) {
	sink := &memorySink{}
	cfg := testConfig()
	cfg.BatchSize = 10
	cfg.BatchRows = 3
	agg := NewStreamingAggregator("stub", cfg, sink)
	ctx := context.Background()

	two := []domain.Transaction{{Code: "A"}, {Code: "B"}}
	require.NoError(t, agg.AddFileData(ctx, "one.csv", two))
	buffered, written := agg.Stats()
	assert.Equal(t, 1, buffered)
	assert.Zero(t, written)

	require.NoError(t, agg.AddFileData(ctx, "two.csv", two))
	buffered, written = agg.Stats()
	assert.Zero(t, buffered)
	assert.Equal(t, 4, written)

	require.NoError(t, agg.AddFileData(ctx, "three.csv", two[:1]))
	require.NoError(t, agg.Finalize(ctx))
	_, written = agg.Stats()
	assert.Equal(t, 5, written)
	assert.Len(t, sink.sources, 3)
}
