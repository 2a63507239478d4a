package decision

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
)

// RetryConfig bounds the attempts against a flaky provider. Backoff happens
// here in the transport wrapper; callers only see the final outcome.
type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
}

// DefaultRetryConfig provides sensible defaults.
var DefaultRetryConfig = RetryConfig{
	MaxAttempts:  3,
	InitialDelay: 2 * time.Second,
}

// Retrying wraps a Classifier with bounded exponential-backoff retries on
// ErrUnavailable. Any other error stops immediately.
type Retrying struct {
	inner Classifier
	cfg   RetryConfig
}

func NewRetrying(inner Classifier, cfg RetryConfig) *Retrying {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultRetryConfig.MaxAttempts
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = DefaultRetryConfig.InitialDelay
	}
	return &Retrying{inner: inner, cfg: cfg}
}

func (r *Retrying) Classify(ctx context.Context, rec Context) (*Decision, error) {
	var out *Decision
	backoff := retry.WithMaxRetries(uint64(r.cfg.MaxAttempts-1), retry.NewExponential(r.cfg.InitialDelay))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		d, err := r.inner.Classify(ctx, rec)
		if err != nil {
			if errors.Is(err, ErrUnavailable) {
				return retry.RetryableError(err)
			}
			return err
		}
		out = d
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("classification failed after %d attempts: %w", r.cfg.MaxAttempts, err)
	}
	return out, nil
}
