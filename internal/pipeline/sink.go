package pipeline

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/framehue/internal/logging"
	"github.com/jmylchreest/framehue/internal/store"
)

// DefaultBatchSize is the number of results committed per transaction.
const DefaultBatchSize = 100

// Mode selects how the sink writes results.
type Mode int

const (
	// ModeInsert appends one row per result.
	ModeInsert Mode = iota
	// ModeUpdate rewrites the contrast of the row keyed by
	// (video, frame, palette).
	ModeUpdate
)

func (m Mode) String() string {
	switch m {
	case ModeInsert:
		return "insert"
	case ModeUpdate:
		return "update"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// SinkStats counts what the sink wrote.
type SinkStats struct {
	Rows      int64
	Unmatched int
	Skipped   int
	Batches   int
}

// Sink batches results into store transactions.
type Sink struct {
	Store     store.Store
	Mode      Mode
	BatchSize int
	Logger    hclog.Logger
}

// Run consumes results until the channel closes, committing every BatchSize
// results and flushing the remainder at the end. Commits are detached from
// ctx cancellation so every result received is persisted. A commit failure
// stops the sink and is returned.
func (s *Sink) Run(ctx context.Context, results <-chan Result) (SinkStats, error) {
	var stats SinkStats
	logger := logging.OrNull(s.Logger)

	size := s.BatchSize
	if size < 1 {
		size = DefaultBatchSize
	}
	commitCtx := context.WithoutCancel(ctx)

	batch := make([]store.Row, 0, size)
	var last Result
	for r := range results {
		// A failed rescore has nothing new to write.
		if s.Mode == ModeUpdate && r.Failed {
			stats.Skipped++
			continue
		}
		batch = append(batch, r.Row())
		last = r
		if len(batch) < size {
			continue
		}
		if err := s.commit(commitCtx, batch, &stats); err != nil {
			return stats, err
		}
		logger.Info("pushed results", "video", last.Video, "frame", last.Frame, "rows", stats.Rows)
		batch = batch[:0]
	}

	if len(batch) > 0 {
		if err := s.commit(commitCtx, batch, &stats); err != nil {
			return stats, err
		}
		logger.Info("pushed results", "video", last.Video, "frame", last.Frame, "rows", stats.Rows)
	}
	return stats, nil
}

func (s *Sink) commit(ctx context.Context, batch []store.Row, stats *SinkStats) error {
	switch s.Mode {
	case ModeInsert:
		if err := s.Store.Insert(ctx, batch); err != nil {
			return fmt.Errorf("commit batch of %d: %w", len(batch), err)
		}
		stats.Rows += int64(len(batch))
	case ModeUpdate:
		res, err := s.Store.UpdateContrast(ctx, batch)
		if err != nil {
			return fmt.Errorf("commit batch of %d: %w", len(batch), err)
		}
		stats.Rows += res.Matched
		stats.Unmatched += res.Unmatched
	default:
		return fmt.Errorf("unknown sink mode %v", s.Mode)
	}
	stats.Batches++
	return nil
}
