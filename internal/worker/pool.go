// Package worker provides the bounded pool that fans definitions out to
// a fixed number of goroutines. Each job owns one definition end to end;
// the pool never splits a definition across workers.
package worker

import (
	"context"
	"sync"
)

// Job is a unit of work executed by one worker.
type Job interface {
	Execute(ctx context.Context) Result
}

// Result is the outcome of a job execution.
type Result interface {
	GetError() error
}

// Pool runs jobs on a fixed number of workers. Cancelling the parent
// context stops dispatch: queued jobs are dropped, in-flight jobs see the
// cancelled context and finish on their own terms.
type Pool struct {
	workers   int
	jobQueue  chan Job
	results   chan Result
	wg        sync.WaitGroup
	ctx       context.Context
	collected []Result
	drained   chan struct{}
}

// NewPool creates a pool of the given size bound to ctx.
func NewPool(ctx context.Context, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}

	return &Pool{
		workers:  workers,
		jobQueue: make(chan Job, workers*2), // Buffered to prevent blocking
		results:  make(chan Result, workers*2),
		ctx:      ctx,
		drained:  make(chan struct{}),
	}
}

// Start launches the worker goroutines and the result collector. The
// collector drains results as they are produced, so callers may submit
// any number of jobs before calling Wait without filling the result
// channel and stalling the workers.
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}

	go func() {
		for result := range p.results {
			p.collected = append(p.collected, result)
		}
		close(p.drained)
	}()
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.jobQueue:
			if !ok {
				return
			}
			result := job.Execute(p.ctx)
			select {
			case p.results <- result:
			case <-p.ctx.Done():
				return
			}
		}
	}
}

// Submit queues a job. It is a no-op once the pool's context is cancelled.
func (p *Pool) Submit(job Job) {
	select {
	case <-p.ctx.Done():
		return
	case p.jobQueue <- job:
	}
}

// Wait closes the queue, waits for the workers to drain it, and returns
// every result produced. On cancellation the returned slice may cover
// fewer jobs than were submitted; the caller reconciles the gap.
func (p *Pool) Wait() []Result {
	close(p.jobQueue)
	p.wg.Wait()
	close(p.results)
	<-p.drained
	return p.collected
}
