package quality

import (
	"context"
	"fmt"

	"github.com/BartekS5/flightetl/pkg/logger"
	"github.com/BartekS5/flightetl/pkg/models"
)

// Checker runs the suite as an observation step. It never fails the run and
// never alters the batch.
type Checker struct {
	Validator Validator
	Suite     Suite
	Log       logger.Logger
}

func NewChecker(v Validator, suite Suite, log logger.Logger) *Checker {
	return &Checker{Validator: v, Suite: suite, Log: log}
}

// Check validates a copy of b and returns b itself.
func (c *Checker) Check(ctx context.Context, b *models.Batch) *models.Batch {
	res, err := c.run(ctx, b)
	if err != nil {
		c.Log.Warn("Data quality check did not complete", "error", err)
	}
	if res == nil {
		return b
	}
	if res.Skipped {
		c.Log.Info("Data quality check skipped", "engine", res.Engine, "rows", res.RowCount)
		return b
	}

	c.Log.Info("Data quality check finished",
		"engine", res.Engine,
		"suite", res.Suite,
		"success", res.Success,
		"evaluated", res.Evaluated,
		"failed", res.Failed,
		"rows", res.RowCount,
	)
	for _, o := range res.FailedOutcomes() {
		c.Log.Warn("Expectation failed",
			"expectation", o.Kind,
			"column", o.Column,
			"unexpected_count", o.UnexpectedCount,
			"unexpected_percent", o.UnexpectedPercent,
			"partial_unexpected", o.PartialUnexpected,
			"error", o.Error,
		)
	}
	return b
}

func (c *Checker) run(ctx context.Context, b *models.Batch) (res *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("validator panic: %v", r)
		}
	}()
	if c.Validator == nil {
		return nil, fmt.Errorf("no validator configured")
	}
	return c.Validator.Validate(ctx, c.Suite, b.Clone())
}
