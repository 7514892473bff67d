package worker

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Rate is a token bucket setting. A non-positive PerSecond means unlimited.
type Rate struct {
	PerSecond float64
	Burst     int
}

func (r Rate) bucket() *rate.Limiter {
	if r.PerSecond <= 0 {
		return rate.NewLimiter(rate.Inf, r.Burst)
	}
	return rate.NewLimiter(rate.Limit(r.PerSecond), r.Burst)
}

// Limiter throttles host API calls with one bucket per service
// (drive, forms, sheets). Services without an override share the fallback
// rate but get their own bucket. A nil Limiter never blocks.
type Limiter struct {
	fallback Rate

	mu      sync.Mutex
	buckets map[string]*rate.Limiter
}

// NewLimiter creates a limiter whose services default to perSecond with
// the given burst (5 when non-positive)
func NewLimiter(perSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 5
	}
	return &Limiter{
		fallback: Rate{PerSecond: perSecond, Burst: burst},
		buckets:  make(map[string]*rate.Limiter),
	}
}

// Limit overrides the rate of one service. A zero burst keeps the fallback burst.
func (l *Limiter) Limit(service string, r Rate) *Limiter {
	if r.Burst <= 0 {
		r.Burst = l.fallback.Burst
	}
	l.mu.Lock()
	l.buckets[service] = r.bucket()
	l.mu.Unlock()
	return l
}

// Wait blocks until service may make a call or ctx is done
func (l *Limiter) Wait(ctx context.Context, service string) error {
	if l == nil {
		return nil
	}
	return l.bucketFor(service).Wait(ctx)
}

// allow takes a token for service if one is available right now
func (l *Limiter) allow(service string) bool {
	if l == nil {
		return true
	}
	return l.bucketFor(service).Allow()
}

func (l *Limiter) bucketFor(service string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[service]
	if !ok {
		b = l.fallback.bucket()
		l.buckets[service] = b
	}
	return b
}
