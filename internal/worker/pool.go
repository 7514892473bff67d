// Package worker runs independent jobs on a bounded number of goroutines
// and throttles calls to external services.
package worker

import (
	"context"
	"sync"
)

// Job is one unit of work
type Job interface {
	Execute(ctx context.Context) Result
}

// Result is what a Job produced
type Result interface {
	GetError() error
}

type task struct {
	slot int
	job  Job
}

// Pool executes submitted jobs on a fixed number of goroutines and keeps
// their results in submission order.
type Pool struct {
	workers int
	queue   chan task

	mu      sync.Mutex
	results []Result

	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewPool creates a pool with at least one worker. Cancelling ctx stops the
// workers after their current job.
func NewPool(ctx context.Context, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(ctx)
	return &Pool{
		workers: workers,
		queue:   make(chan task, workers*2),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start launches the workers
func (p *Pool) Start() {
	p.wg.Add(p.workers)
	for i := 0; i < p.workers; i++ {
		go p.run()
	}
}

func (p *Pool) run() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case t, ok := <-p.queue:
			if !ok {
				return
			}
			r := t.job.Execute(p.ctx)
			p.mu.Lock()
			p.results[t.slot] = r
			p.mu.Unlock()
		}
	}
}

// Submit queues a job and reports false once the pool is cancelled. Every
// call takes a result slot, so Submit must not be called after Wait.
func (p *Pool) Submit(job Job) bool {
	p.mu.Lock()
	slot := len(p.results)
	p.results = append(p.results, nil)
	p.mu.Unlock()

	select {
	case <-p.ctx.Done():
		return false
	case p.queue <- task{slot: slot, job: job}:
		return true
	}
}

// Wait blocks until the queue is drained and returns one result per Submit
// call, in call order. Jobs that never ran have a nil result.
func (p *Pool) Wait() []Result {
	p.closeOnce.Do(func() { close(p.queue) })
	p.wg.Wait()
	p.cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Result(nil), p.results...)
}

// Shutdown stops the workers after their current job. Queued jobs are dropped.
func (p *Pool) Shutdown() {
	p.cancel()
	p.wg.Wait()
}
