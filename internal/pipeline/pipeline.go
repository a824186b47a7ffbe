package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"

	"github.com/jmylchreest/framehue/internal/logging"
)

// DefaultResultBuffer bounds the queue between workers and the sink.
const DefaultResultBuffer = 256

// ErrInterrupted is returned when the caller's context ends a run early.
// Results completed before the interruption are still persisted.
var ErrInterrupted = errors.New("run interrupted")

// Stats summarises a pipeline run.
type Stats struct {
	Source  SourceStats
	Pool    PoolStats
	Sink    SinkStats
	Elapsed time.Duration
}

// Pipeline wires Source -> Pool -> Sink.
type Pipeline struct {
	Source       Source
	Pool         *Pool
	Sink         *Sink
	ResultBuffer int
	Logger       hclog.Logger
}

// Run executes the pipeline until the source is exhausted, ctx is cancelled,
// or a stage fails fatally. Cancelling ctx stops the source; work already
// queued drains through the pool and sink before Run returns ErrInterrupted.
func (p *Pipeline) Run(ctx context.Context) (Stats, error) {
	start := time.Now()
	logger := logging.OrNull(p.Logger)

	buffer := p.ResultBuffer
	if buffer < 1 {
		buffer = DefaultResultBuffer
	}
	units := make(chan Unit, max(p.Pool.Workers, 1))
	results := make(chan Result, buffer)

	// The source follows ctx. The pool and sink only stop early when another
	// stage fails, so an interrupt still drains what has been read.
	sourceCtx, cancelSource := context.WithCancel(ctx)
	defer cancelSource()
	stageCtx, cancelStages := context.WithCancelCause(context.WithoutCancel(ctx))
	defer cancelStages(nil)

	fail := func(err error) error {
		cancelSource()
		cancelStages(err)
		return err
	}

	var (
		g         errgroup.Group
		sinkStats SinkStats
	)
	g.Go(func() error {
		err := p.Source.Units(sourceCtx, units)
		if err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return nil
		}
		if err != nil {
			return fail(fmt.Errorf("source: %w", err))
		}
		return nil
	})
	g.Go(func() error {
		if err := p.Pool.Run(stageCtx, units, results); err != nil {
			return fail(fmt.Errorf("workers: %w", err))
		}
		return nil
	})
	g.Go(func() error {
		var err error
		sinkStats, err = p.Sink.Run(stageCtx, results)
		if err != nil {
			return fail(fmt.Errorf("sink: %w", err))
		}
		return nil
	})

	err := g.Wait()
	stats := Stats{
		Source:  p.Source.Stats(),
		Pool:    p.Pool.Stats(),
		Sink:    sinkStats,
		Elapsed: time.Since(start),
	}

	if err != nil {
		// Later stages report the cancellation caused by the first failure.
		if cause := context.Cause(stageCtx); cause != nil && !errors.Is(cause, context.Canceled) {
			err = cause
		}
		return stats, err
	}
	if ctx.Err() != nil {
		logger.Warn("run interrupted", "rows", stats.Sink.Rows)
		return stats, fmt.Errorf("%w: %w", ErrInterrupted, ctx.Err())
	}

	logger.Info("run complete",
		"units", stats.Pool.Processed,
		"failed", stats.Pool.Failed,
		"rows", stats.Sink.Rows,
		"batches", stats.Sink.Batches,
		"elapsed", stats.Elapsed.Round(time.Millisecond))
	return stats, nil
}
