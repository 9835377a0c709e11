package warehouse

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/pixperk/spssprep/internal/logx"
)

type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Jitter      bool
}

var DefaultRetry = RetryConfig{
	MaxAttempts: 4,
	BaseDelay:   250 * time.Millisecond,
	MaxDelay:    2 * time.Second,
	Jitter:      true,
}

// Retry runs operation until it succeeds, the attempts are used up or ctx
// is done. Delays grow exponentially up to MaxDelay.
func Retry(ctx context.Context, config RetryConfig, operation func() error) error {
	var attempt int
	for {
		err := operation()
		if err == nil {
			return nil
		}
		attempt++
		if attempt >= config.MaxAttempts {
			return fmt.Errorf("max retry attempts reached: %w", err)
		}

		backoff := min(config.BaseDelay*time.Duration(math.Pow(2, float64(attempt))), config.MaxDelay)
		if config.Jitter && backoff > 1 {
			backoff += time.Duration(rand.Int63n(int64(backoff / 2)))
		}

		logx.Logger.Warn("Operation failed, retrying",
			zap.Int("attempt", attempt),
			zap.Error(err),
			zap.Duration("backoff", backoff),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
}
