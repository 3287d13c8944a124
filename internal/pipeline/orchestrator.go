package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
)

// Result summarises one orchestrated ingest.
type Result struct {
	Runs  []*PipelineRun
	Files int
	Rows  int
}

// Orchestrator coordinates running a Pipeline over a set of local files grouped by snapshot date.
type Orchestrator struct {
	runs       RunStore
	sink       Sink
	cfg        PipelineConfig
	onComplete func(ctx context.Context) error
	now        func() time.Time
}

func NewOrchestrator(runs RunStore, sink Sink, cfg PipelineConfig) *Orchestrator {
	return &Orchestrator{runs: runs, sink: sink, cfg: cfg, now: time.Now}
}

// OnComplete registers a hook that runs after every successful ingest, for
// example to drop cached results computed from the old movements.
func (o *Orchestrator) OnComplete(fn func(ctx context.Context) error) *Orchestrator {
	o.onComplete = fn
	return o
}

// Run groups the files by snapshot date and runs a worker batch per date,
// oldest first. Files without a date in their name are grouped under today.
func (o *Orchestrator) Run(ctx context.Context, p Pipeline, files []string) (*Result, error) {
	result := &Result{}
	if len(files) == 0 {
		return result, nil
	}

	byDate := make(map[time.Time][]string)
	for _, f := range files {
		date, err := p.GetSnapshotDate(filepath.Base(f))
		if err != nil {
			log.Warn().Err(err).Str("file", f).Msg("no snapshot date in filename, using today")
			date = o.now().UTC()
		}
		date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
		byDate[date] = append(byDate[date], f)
	}

	dates := make([]time.Time, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	worker := NewWorker(p, o.cfg, o.runs, o.sink)
	worker.now = o.now

	for _, date := range dates {
		run, err := worker.ProcessBatch(ctx, date, byDate[date])
		if run != nil {
			result.Runs = append(result.Runs, run)
			result.Files += run.ProcessedFiles
			result.Rows += run.TotalRows
		}
		if err != nil {
			return result, fmt.Errorf("failed to process batch for %s: %w", date.Format("2006-01-02"), err)
		}
	}

	if o.onComplete != nil {
		if err := o.onComplete(ctx); err != nil {
			log.Warn().Err(err).Msg("post-ingest hook failed")
		}
	}
	return result, nil
}
