// Package retry implements bounded retry with exponential backoff for
// helpdesk backend calls.
package retry

import (
	"context"
	"math/rand"
	"time"

	"github.com/wedosoft/teams-helpdesk-bridge/internal/domain/errors"
	"github.com/wedosoft/teams-helpdesk-bridge/internal/pkg/metrics"
)

// Policy controls how many times an operation is attempted and how long to
// wait between attempts. Waits follow base*2^(attempt-1) plus uniform jitter,
// and occur only between attempts, never after the last one.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxJitter   time.Duration

	// sleep is swapped out by tests to observe delays without waiting.
	sleep func(ctx context.Context, d time.Duration) error
	rand  func() float64
}

// DefaultPolicy returns the standard backend retry policy: three attempts,
// 0.5s base delay, up to 0.2s of jitter.
func DefaultPolicy() *Policy {
	return &Policy{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		MaxJitter:   200 * time.Millisecond,
	}
}

// Do runs op until it succeeds, fails permanently, or attempts are exhausted.
// Only transient failures (rate limits, server errors, transport errors) are
// retried. The last error is returned on exhaustion.
func (p *Policy) Do(ctx context.Context, operation string, op func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if !errors.IsTransient(lastErr) {
			return lastErr
		}
		if attempt == attempts {
			break
		}

		metrics.RetriesTotal.WithLabelValues(operation).Inc()
		if err := p.wait(ctx, attempt); err != nil {
			return err
		}
	}
	return lastErr
}

func (p *Policy) wait(ctx context.Context, attempt int) error {
	delay := p.BaseDelay << (attempt - 1)
	if p.MaxJitter > 0 {
		delay += time.Duration(p.randFloat() * float64(p.MaxJitter))
	}
	return p.doSleep(ctx, delay)
}

func (p *Policy) doSleep(ctx context.Context, d time.Duration) error {
	if p.sleep != nil {
		return p.sleep(ctx, d)
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (p *Policy) randFloat() float64 {
	if p.rand != nil {
		return p.rand()
	}
	return rand.Float64()
}
