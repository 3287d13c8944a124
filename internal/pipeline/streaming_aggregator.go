package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/andresuchdata/budget-engine/backend-go/internal/domain"
	"github.com/rs/zerolog/log"
)

type fileBatch struct {
	source string
	rows   []domain.Transaction
}

// StreamingAggregator buffers parsed files and writes them to the sink in
// batches, one source file at a time.
type StreamingAggregator struct {
	name       string
	config     PipelineConfig
	sink       Sink
	buffer     []fileBatch
	bufferRows int
	written    int
	mu         sync.Mutex
	lastFlush  time.Time
}

func NewStreamingAggregator(name string, config PipelineConfig, sink Sink) *StreamingAggregator {
	return &StreamingAggregator{
		name:      name,
		config:    config,
		sink:      sink,
		buffer:    make([]fileBatch, 0, config.BatchSize),
		lastFlush: time.Now(),
	}
}

// AddFileData queues the rows of one file and flushes when a limit is hit.
func (sa *StreamingAggregator) AddFileData(ctx context.Context, source string, rows []domain.Transaction) error {
	sa.mu.Lock()
	defer sa.mu.Unlock()

	sa.buffer = append(sa.buffer, fileBatch{source: source, rows: rows})
	sa.bufferRows += len(rows)

	log.Debug().
		Str("pipeline", sa.name).
		Int("files", len(sa.buffer)).
		Int("rows", sa.bufferRows).
		Msg("buffered file")

	shouldFlush := len(sa.buffer) >= sa.config.BatchSize ||
		(sa.config.BatchRows > 0 && sa.bufferRows >= sa.config.BatchRows) ||
		time.Since(sa.lastFlush) >= sa.config.FlushInterval

	if shouldFlush {
		return sa.flushLocked(ctx)
	}
	return nil
}

// Finalize flushes whatever is still buffered.
func (sa *StreamingAggregator) Finalize(ctx context.Context) error {
	sa.mu.Lock()
	defer sa.mu.Unlock()

	if len(sa.buffer) == 0 {
		log.Debug().Str("pipeline", sa.name).Msg("nothing to finalize")
		return nil
	}
	return sa.flushLocked(ctx)
}

// Must be called with sa.mu locked.
func (sa *StreamingAggregator) flushLocked(ctx context.Context) error {
	if len(sa.buffer) == 0 {
		return nil
	}

	log.Info().Str("pipeline", sa.name).Int("files", len(sa.buffer)).Msg("flushing movements")

	for len(sa.buffer) > 0 {
		batch := sa.buffer[0]
		n, err := sa.sink.InsertMovements(ctx, batch.source, batch.rows)
		if err != nil {
			return fmt.Errorf("store %s: %w", batch.source, err)
		}
		sa.written += n
		sa.bufferRows -= len(batch.rows)
		sa.buffer = sa.buffer[1:]
	}

	sa.buffer = sa.buffer[:0]
	sa.bufferRows = 0
	sa.lastFlush = time.Now()
	return nil
}

// Stats returns the buffered file count and the rows written so far.
func (sa *StreamingAggregator) Stats() (buffered int, written int) {
	sa.mu.Lock()
	defer sa.mu.Unlock()
	return len(sa.buffer), sa.written
}
