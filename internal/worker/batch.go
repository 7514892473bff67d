package worker

import (
	"context"
	"errors"
)

// ErrNotRun is the result error of a job that was never executed because
// the context was cancelled first
var ErrNotRun = errors.New("job not run")

type notRun struct{ err error }

func (r notRun) GetError() error { return r.err }

// RunAll executes jobs on a pool of workers and returns their results in job
// order. Jobs skipped because ctx was cancelled get a result whose error
// wraps ErrNotRun.
func RunAll(ctx context.Context, workers int, jobs []Job) []Result {
	out := make([]Result, len(jobs))
	if len(jobs) == 0 {
		return out
	}

	pool := NewPool(ctx, workers)
	pool.Start()
	for _, job := range jobs {
		if !pool.Submit(job) {
			// Cancelled: stop the workers instead of draining the queue
			pool.Shutdown()
			break
		}
	}
	copy(out, pool.Wait())

	for i := range out {
		if out[i] != nil {
			continue
		}
		err := ErrNotRun
		if ctx.Err() != nil {
			err = errors.Join(ErrNotRun, ctx.Err())
		}
		out[i] = notRun{err: err}
	}
	return out
}
