// Package retry runs transient-failure-prone operations under a bounded
// exponential backoff policy. It wraps ledger store writes only; blockchain
// confirmation waiting has its own timeout semantics in the chain adapter.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy describes a bounded exponential backoff schedule. With the defaults
// the delays between attempts are 1s, 2s, 4s.
type Policy struct {
	// InitialInterval is the delay before the first retry. Each subsequent
	// delay doubles.
	InitialInterval time.Duration
	// MaxRetries bounds the number of retries after the initial attempt.
	MaxRetries int
}

// DefaultPolicy returns the standard ledger-write policy: 3 retries at
// 1s, 2s, 4s.
func DefaultPolicy() Policy {
	return Policy{InitialInterval: time.Second, MaxRetries: 3}
}

// Do invokes op until it succeeds, returns a permanent error, the retry
// budget is exhausted, or ctx is canceled. The last error is returned on
// exhaustion.
func (p Policy) Do(ctx context.Context, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialInterval
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0

	retries := p.MaxRetries
	if retries < 0 {
		retries = 0
	}

	return backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx))
}

// Permanent marks err as non-retryable so Do stops immediately.
func Permanent(err error) error {
	return backoff.Permanent(err)
}
