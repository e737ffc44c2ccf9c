package common

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
)

// RetryTransient runs fn with exponential backoff, retrying every failure up
// to maxRetries times. Intended for calls where any error is plausibly
// transient (network, object storage).
func RetryTransient(ctx context.Context, maxRetries uint64, base time.Duration, fn func(ctx context.Context) error) error {
	b := retry.WithMaxRetries(maxRetries, retry.NewExponential(base))
	return retry.Do(ctx, b, func(ctx context.Context) error {
		if err := fn(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}
