// Package worker builds, validates and tallies transaction partitions in
// parallel.
//
// Each worker folds its partitions into a private tally. The pool merges the
// partial tallies by addition once every worker has drained the queue.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/tally/internal/adapters/mq/queue"
	"github.com/okian/tally/internal/domain/model"
	"github.com/okian/tally/internal/domain/summary"
	"github.com/okian/tally/internal/domain/units"
	"github.com/okian/tally/pkg/logger"
	"github.com/okian/tally/pkg/metrics"
)

// Builder turns a partition into units.
type Builder interface {
	Build(p model.Partition) []model.Unit
}

// Queue defines how workers receive partitions.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Partition
}

// Job carries the per-run settings every worker needs.
type Job struct {
	Region       string
	BreakdownDay bool
}

// Result is what a worker, or the whole pool, produced for a run.
type Result struct {
	Tally      *summary.Tally
	Partitions int
	Units      int
	Incomplete int
	Reasons    map[model.Reason]int
}

func newResult(job Job) *Result {
	return &Result{Tally: summary.NewTally(job.BreakdownDay), Reasons: make(map[model.Reason]int)}
}

// Merge adds o into r.
func (r *Result) Merge(o *Result) {
	if o == nil {
		return
	}
	r.Tally.Merge(o.Tally)
	r.Partitions += o.Partitions
	r.Units += o.Units
	r.Incomplete += o.Incomplete
	for k, v := range o.Reasons {
		r.Reasons[k] += v
	}
}

// InMemoryWorker processes partitions from a queue channel.
type InMemoryWorker struct {
	name    string
	builder Builder
	logger  logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(builder Builder, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		name:    "worker",
		builder: builder,
		logger:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run drains in until it is closed or ctx is cancelled.
func (w *InMemoryWorker) Run(ctx context.Context, job Job, in <-chan queue.Partition) (*Result, error) {
	res := newResult(job)
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case p, ok := <-in:
			if !ok {
				w.logger.Debug(ctx, "worker drained",
					logger.Int("partitions", res.Partitions),
					logger.Int("units", res.Units),
				)
				return res, nil
			}
			w.process(job, p, res)
		}
	}
}

// process builds and tallies one partition.
func (w *InMemoryWorker) process(job Job, p queue.Partition, res *Result) {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerPartition(float64(time.Since(start).Microseconds()) / 1000)
	}()

	built := w.builder.Build(p)
	for i := range built {
		u := &built[i]
		units.Finish(u)
		res.Tally.Add(u)
		res.Units++
		metrics.RecordUnitBuilt(job.Region, string(u.Category.Family()))
		if u.Incomplete {
			res.Incomplete++
			for _, r := range u.Reasons {
				res.Reasons[r]++
				metrics.RecordUnitIncomplete(job.Region, string(r))
			}
		}
	}
	res.Partitions++
}

// Pool runs a fixed set of workers against one queue per run.
type Pool struct {
	workers []*InMemoryWorker
}

// NewPool creates a pool of workerCount workers. A count below one uses the
// number of CPUs. Options apply to every worker.
func NewPool(workerCount int, builder Builder, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	p := &Pool{workers: make([]*InMemoryWorker, workerCount)}
	for i := range p.workers {
		wopts := append(append([]Option(nil), opts...), WithName("worker-"+strconv.Itoa(i)))
		p.workers[i] = NewInMemoryWorker(builder, wopts...)
	}
	metrics.UpdateWorkerCount(workerCount)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Process drains q with every worker and returns the merged result. The
// first worker error cancels the others and is returned.
func (p *Pool) Process(ctx context.Context, q Queue, job Job) (*Result, error) {
	g, gctx := errgroup.WithContext(ctx)
	partial := make([]*Result, len(p.workers))
	in := q.Dequeue(gctx)

	metrics.UpdateWorkerActiveCount(len(p.workers))
	defer metrics.UpdateWorkerActiveCount(0)

	for i, w := range p.workers {
		g.Go(func() error {
			res, err := w.Run(gctx, job, in)
			if err != nil {
				return fmt.Errorf("%s: %w", w.name, err)
			}
			partial[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	// A closed dequeue channel looks like a drained queue; a cancelled run
	// must not return a partial result.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := newResult(job)
	for _, r := range partial {
		out.Merge(r)
	}
	return out, nil
}
