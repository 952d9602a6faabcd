// Package batch meshes many occupancy grids concurrently.
//
// Each job owns its grid and is meshed by exactly one worker, so vertex
// numbering inside a mesh stays sequential.
package batch

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/squaremesh/pkg/marching"
)

// Job is one grid to mesh.
type Job struct {
	Name     string
	Grid     marching.OccupancyGrid
	CellSize float32
}

// Result is the outcome of a Job.
type Result struct {
	Name     string
	Mesh     *marching.MeshBuffers
	Duration time.Duration
	Err      error
}

// Pool manages goroutines for mesh generation.
type Pool struct {
	jobs      chan Job
	results   chan Result
	workers   int
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
	log       *zap.Logger
	opts      []marching.Option
}

// NewPool starts workers goroutines reading from a queue of queueSize jobs.
// Workers stop when ctx is cancelled or the pool is closed. opts are passed
// to every marching.Generate call.
func NewPool(ctx context.Context, workers, queueSize int, log *zap.Logger, opts ...marching.Option) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	if log == nil {
		log = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(ctx)
	p := &Pool{
		jobs:    make(chan Job, queueSize),
		results: make(chan Result, workers),
		workers: workers,
		ctx:     ctx,
		cancel:  cancel,
		log:     log,
		opts:    opts,
	}

	for i := range workers {
		p.wg.Add(1)
		go p.worker(i)
	}

	return p
}

// Submit queues a job, blocking until there is room, ctx is done or the
// pool is shut down. It must not be called after Close.
func (p *Pool) Submit(ctx context.Context, job Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.ctx.Err(); err != nil {
		return err
	}
	select {
	case p.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-p.ctx.Done():
		return p.ctx.Err()
	}
}

// TrySubmit queues a job without blocking. It returns false if the queue is full.
func (p *Pool) TrySubmit(job Job) bool {
	select {
	case p.jobs <- job:
		return true
	default:
		return false
	}
}

// Results returns the channel results are delivered on. It is closed by Close.
func (p *Pool) Results() <-chan Result {
	return p.results
}

// QueueLength returns the number of jobs waiting for a worker.
func (p *Pool) QueueLength() int {
	return len(p.jobs)
}

// Close stops accepting jobs, waits for queued jobs to finish and closes the
// results channel. Results must be drained concurrently.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		close(p.jobs)
		p.wg.Wait()
		p.cancel()
		close(p.results)
	})
}

// Shutdown abandons queued jobs and stops the workers.
func (p *Pool) Shutdown() {
	p.cancel()
	p.Close()
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	log := p.log.With(zap.Int("worker", id))

	for {
		if p.ctx.Err() != nil {
			return
		}
		select {
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			res := p.process(job, log)
			select {
			case p.results <- res:
			case <-p.ctx.Done():
				return
			}
		case <-p.ctx.Done():
			return
		}
	}
}

func (p *Pool) process(job Job, log *zap.Logger) Result {
	start := time.Now()
	opts := append(slices.Clip(p.opts), marching.WithLogger(log.With(zap.String("grid", job.Name))))
	mesh, err := marching.Generate(job.Grid, job.CellSize, opts...)
	res := Result{Name: job.Name, Mesh: mesh, Duration: time.Since(start), Err: err}

	if err != nil {
		log.Warn("meshing failed", zap.String("grid", job.Name), zap.Error(err))
	} else {
		log.Debug("meshed grid",
			zap.String("grid", job.Name),
			zap.Int("triangles", mesh.TriangleCount()),
			zap.Duration("took", res.Duration),
		)
	}
	return res
}

// Run meshes jobs on a temporary pool and returns their results sorted by
// name. A cancelled ctx stops submission and is returned alongside whatever
// results completed.
func Run(ctx context.Context, workers, queueSize int, jobs []Job, log *zap.Logger, opts ...marching.Option) ([]Result, error) {
	p := NewPool(ctx, workers, queueSize, log, opts...)

	var results []Result
	done := make(chan struct{})
	go func() {
		defer close(done)
		for r := range p.Results() {
			results = append(results, r)
		}
	}()

	var submitErr error
	for _, job := range jobs {
		if err := p.Submit(ctx, job); err != nil {
			submitErr = err
			break
		}
	}

	if submitErr != nil {
		p.Shutdown()
	} else {
		p.Close()
	}
	<-done

	slices.SortFunc(results, func(a, b Result) int {
		return strings.Compare(a.Name, b.Name)
	})

	if submitErr != nil {
		return results, submitErr
	}
	return results, ctx.Err()
}
