package worker

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRunAll_Order(t *testing.T) {
	jobs := make([]Job, 20)
	for i := range jobs {
		// Later jobs finish first
		jobs[i] = &mockJob{value: i, duration: time.Duration(20-i) * time.Millisecond}
	}

	results := RunAll(context.Background(), 4, jobs)

	if len(results) != len(jobs) {
		t.Fatalf("expected %d results, got %d", len(jobs), len(results))
	}
	for i, r := range results {
		if r.GetError() != nil {
			t.Errorf("job %d: unexpected error %v", i, r.GetError())
			continue
		}
		if got := r.(*mockResult).value; got != i {
			t.Errorf("expected result %d at index %d, got %d", i, i, got)
		}
	}
}

func TestRunAll_Errors(t *testing.T) {
	jobs := []Job{
		&mockJob{value: 1},
		&mockJob{shouldErr: true},
		&mockJob{value: 3},
	}

	results := RunAll(context.Background(), 2, jobs)

	if results[0].GetError() != nil || results[2].GetError() != nil {
		t.Error("expected jobs 0 and 2 to succeed")
	}
	if results[1].GetError() == nil {
		t.Error("expected job 1 to fail")
	}
}

func TestRunAll_Empty(t *testing.T) {
	results := RunAll(context.Background(), 2, nil)
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestRunAll_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	jobs := []Job{&mockJob{}, &mockJob{}, &mockJob{}}
	results := RunAll(ctx, 1, jobs)

	if len(results) != len(jobs) {
		t.Fatalf("expected %d results, got %d", len(jobs), len(results))
	}
	for i, r := range results {
		if r == nil {
			t.Fatalf("result %d is nil", i)
		}
		err := r.GetError()
		if err == nil {
			// A job may still run if it was queued before the workers saw the cancel
			continue
		}
		if !errors.Is(err, ErrNotRun) && !errors.Is(err, context.Canceled) {
			t.Errorf("result %d: unexpected error %v", i, err)
		}
	}
}
