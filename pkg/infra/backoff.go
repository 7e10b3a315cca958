package infra

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"
)

// Backoff produces exponentially growing delays with ±20% jitter.
type Backoff struct {
	minDelay   time.Duration
	maxDelay   time.Duration
	multiplier float64
	current    time.Duration
	attempts   int
	mu         sync.Mutex
}

func NewBackoff(minDelay, maxDelay time.Duration, mult float64) *Backoff {
	return &Backoff{
		minDelay:   minDelay,
		maxDelay:   maxDelay,
		multiplier: mult,
		current:    minDelay,
	}
}

func (b *Backoff) Next() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.attempts++

	jitterFactor := rand.Float64()*0.4 - 0.2
	jitter := time.Duration(jitterFactor * float64(b.current))
	wait := min(max(b.current+jitter, b.minDelay), b.maxDelay)

	b.current = min(time.Duration(float64(b.current)*b.multiplier), b.maxDelay)

	return wait
}

func (b *Backoff) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current = b.minDelay
	b.attempts = 0
}

func (b *Backoff) Attempts() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.attempts
}

// Retry calls fn until it succeeds, maxAttempts is reached or ctx is canceled.
// onRetry, when set, is told about each failure before the wait.
func Retry(ctx context.Context, b *Backoff, maxAttempts int, fn func(context.Context) error, onRetry func(attempt int, wait time.Duration, err error)) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if lastErr = fn(ctx); lastErr == nil {
			b.Reset()
			return nil
		}
		if attempt == maxAttempts {
			break
		}

		wait := b.Next()
		if onRetry != nil {
			onRetry(attempt, wait, lastErr)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return fmt.Errorf("failed after %d attempts (last error: %w)", maxAttempts, lastErr)
}
