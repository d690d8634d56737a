package resilience

import (
	"context"
	"math/rand"
	"time"
)

const (
	// DefaultMaxRetries is the retry budget on top of the initial attempt.
	DefaultMaxRetries = 3

	// retryBaseDelay seeds the exponential backoff: retry n waits
	// base * 2^n, so 200 ms, 400 ms, 800 ms for the three retries.
	retryBaseDelay = 100 * time.Millisecond

	// retryJitterSpan is the uniform jitter added to each backoff.
	retryJitterSpan = 100 * time.Millisecond
)

// Retry runs op up to 1+maxRetries times, retrying only transient errors
// with exponential backoff plus jitter. The caller's deadline still
// applies: an expired context aborts the backoff wait.
func Retry(ctx context.Context, maxRetries int, op func(context.Context) error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = op(ctx)
		if err == nil || !IsTransient(err) {
			return err
		}
		if attempt >= maxRetries {
			return err
		}

		delay := retryBaseDelay * (1 << uint(attempt+1))
		delay += time.Duration(rand.Int63n(int64(retryJitterSpan)))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}
