package pipeline

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Default worker counts.
const (
	DefaultExtractWorkers   = 8
	DefaultRecomputeWorkers = 16
)

// PoolStats counts processed units.
type PoolStats struct {
	Processed int64
	Failed    int64
}

// Pool runs a fixed number of workers over a unit channel.
type Pool struct {
	Workers   int
	Processor Processor

	processed atomic.Int64
	failed    atomic.Int64
}

// Run processes units until the channel closes or ctx is cancelled,
// publishing exactly one result per unit taken. results is closed on return.
func (p *Pool) Run(ctx context.Context, units <-chan Unit, results chan<- Result) error {
	defer close(results)

	workers := p.Workers
	if workers < 1 {
		workers = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	for range workers {
		g.Go(func() error {
			for {
				var (
					u  Unit
					ok bool
				)
				select {
				case <-ctx.Done():
					return ctx.Err()
				case u, ok = <-units:
					if !ok {
						return nil
					}
				}

				r := p.Processor.Process(ctx, u)
				p.processed.Add(1)
				if r.Failed {
					p.failed.Add(1)
				}

				select {
				case results <- r:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		})
	}
	return g.Wait()
}

// Stats returns the counters accumulated so far.
func (p *Pool) Stats() PoolStats {
	return PoolStats{Processed: p.processed.Load(), Failed: p.failed.Load()}
}
