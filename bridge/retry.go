/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package bridge

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy defines backoff strategy.
type RetryPolicy interface {
	NewBackOff() backoff.BackOff
}

// ExponentialBackoffPolicy means repeat up to max times with exponentially growing delays.
type ExponentialBackoffPolicy struct {
	InitialInterval  time.Duration
	MaxRetryAttempts int
}

// NewBackOff implements RetryPolicy.
func (p ExponentialBackoffPolicy) NewBackOff() backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = p.InitialInterval
	eb.MaxElapsedTime = 0
	var bf backoff.BackOff = eb
	if p.MaxRetryAttempts > 0 {
		bf = backoff.WithMaxRetries(eb, uint64(p.MaxRetryAttempts))
	}
	bf.Reset()
	return bf
}

// doWithRetry executes fn with retry according to policy p and with respect to context ctx.
// isRetryable defines which errors lead to another attempt (nil means any error).
func doWithRetry(
	ctx context.Context, p RetryPolicy, isRetryable func(error) bool, notify backoff.Notify, fn func(context.Context) error,
) error {
	bctx := backoff.WithContext(p.NewBackOff(), ctx)
	op := func() error {
		err := fn(bctx.Context())
		if err != nil && isRetryable != nil && !isRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	return backoff.RetryNotify(op, bctx, notify)
}

// isRetryableError reports whether a failed call may succeed when repeated.
func isRetryableError(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, ErrMalformedResponse) {
		return false
	}
	var rlErr *RateLimitingWaitError
	if errors.As(err, &rlErr) {
		return false
	}
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.StatusCode >= 500 || cmdErr.StatusCode == 429
	}
	return true
}
