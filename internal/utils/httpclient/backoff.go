package httpclient

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/sirupsen/logrus"
)

// Backoff is a bounded exponential retry policy with jitter.
type Backoff struct {
	Base       time.Duration
	MaxRetries int
}

// Do calls op until it succeeds, returns an error wrapped by backoff.Permanent,
// retries run out, or ctx is done. A permanent error is returned unwrapped.
func (b Backoff) Do(ctx context.Context, logger logrus.FieldLogger, op func() error) error {
	policy := backoff.NewExponentialBackOff()
	if b.Base > 0 {
		policy.InitialInterval = b.Base
	}
	policy.Multiplier = 2
	tries := b.MaxRetries + 1
	if tries < 1 {
		tries = 1
	}

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, op()
	},
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(uint(tries)),
		backoff.WithNotify(func(err error, next time.Duration) {
			logger.WithError(err).WithField("retry_in", next).Debug("retrying")
		}),
	)
	// the last try returns its error as is, permanent or not
	if perm, ok := err.(*backoff.PermanentError); ok {
		return perm.Unwrap()
	}
	return err
}
