package llm

import (
	"context"
	"errors"
	"log"
	"time"
)

const DefaultMaxRetries = 3

var retryBaseDelay = time.Second

// RetryWithBackoff retries fn only while it fails with ErrRateLimited,
// waiting 2^attempt * base between attempts. Other errors return at once.
func RetryWithBackoff[T any](ctx context.Context, maxRetries int, fn func(ctx context.Context) (T, error)) (T, error) {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}

	var zero T
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, ErrRateLimited) {
			return zero, err
		}
		lastErr = err

		if attempt == maxRetries-1 {
			break
		}
		delay := retryBaseDelay << attempt
		log.Printf("llm: rate limited, retrying in %s (attempt %d/%d)", delay, attempt+1, maxRetries)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}

	return zero, newError(KindRateLimited, "rate limit retries exhausted, try again later", lastErr)
}
