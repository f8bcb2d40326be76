package connector

import (
	"context"
	"time"

	"github.com/arion-db/arion/internal/obs"
)

// ConnectWithRetry runs connect with exponential backoff until it
// succeeds, the retry budget runs out, or ctx is cancelled. Defaults: one
// attempt, 1s base delay, 2.0 backoff.
func ConnectWithRetry(ctx context.Context, cfg *RetryConfig, connect func(context.Context) error) error {
	if cfg == nil {
		cfg = &RetryConfig{}
	}

	delay := cfg.BaseDelay
	if delay == 0 {
		delay = time.Second
	}
	backoff := cfg.Backoff
	if backoff <= 0 {
		backoff = 2.0
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 1
	}

	var err error
	for i := 0; i < maxRetries; i++ {
		if err = connect(ctx); err == nil {
			return nil
		}
		if i == maxRetries-1 {
			break
		}

		obs.Op().Warn("connect failed, retrying", "attempt", i+1, "delay", delay, "error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
			delay = time.Duration(float64(delay) * backoff)
			if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
				delay = cfg.MaxDelay
			}
		}
	}
	return err
}
