package etl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/BartekS5/flightetl/pkg/logger"
	"github.com/BartekS5/flightetl/pkg/models"
)

// RetryPolicy is a fixed-delay retry: Attempts tries in total, Delay between them.
type RetryPolicy struct {
	Attempts int
	Delay    time.Duration
}

// DefaultRetryPolicy is three attempts five seconds apart.
var DefaultRetryPolicy = RetryPolicy{Attempts: 3, Delay: 5 * time.Second}

// LoadResult is returned only when a load succeeds.
type LoadResult struct {
	Rows     int64
	Attempts int
}

// Loader writes a batch into the Store, replacing its previous contents.
type Loader struct {
	Store  Store
	Policy RetryPolicy
	Log    logger.Logger

	// sleep waits between attempts; swapped out in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewLoader(store Store, policy RetryPolicy, log logger.Logger) *Loader {
	return &Loader{Store: store, Policy: policy, Log: log, sleep: sleepContext}
}

// Load runs EnsureTable then ReplaceAll until one attempt succeeds or the
// policy is exhausted. The returned error wraps the last attempt's cause.
func (l *Loader) Load(ctx context.Context, b *models.Batch) (*LoadResult, error) {
	attempts := l.Policy.Attempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := l.sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		rows, err := l.attempt(ctx, b)
		if err == nil {
			l.Log.Info("Loaded batch", "rows", rows, "attempt", attempt)
			return &LoadResult{Rows: rows, Attempts: attempt}, nil
		}
		lastErr = err
		l.Log.Warn("Load attempt failed", "attempt", attempt, "max_attempts", attempts, "error", err)

		if attempt == attempts {
			break
		}
		if err := sleep(ctx, l.Policy.Delay); err != nil {
			return nil, fmt.Errorf("load aborted after %d attempt(s): %w", attempt, errors.Join(err, lastErr))
		}
	}
	return nil, fmt.Errorf("load failed after %d attempt(s): %w", attempts, lastErr)
}

func (l *Loader) attempt(ctx context.Context, b *models.Batch) (int64, error) {
	if err := l.Store.EnsureTable(ctx); err != nil {
		return 0, fmt.Errorf("ensure table: %w", err)
	}
	rows, err := l.Store.ReplaceAll(ctx, b)
	if err != nil {
		return 0, fmt.Errorf("replace rows: %w", err)
	}
	return rows, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
