package etl

import (
	"context"

	"github.com/BartekS5/flightetl/pkg/models"
)

// Extractor produces the raw batch for a run.
type Extractor interface {
	Extract(ctx context.Context) (*models.Batch, error)
}

// Checker observes a transformed batch. It must return the batch it was given
// and never fail the run.
type Checker interface {
	Check(ctx context.Context, b *models.Batch) *models.Batch
}

// Store is the destination table.
type Store interface {
	EnsureTable(ctx context.Context) error
	ReplaceAll(ctx context.Context, b *models.Batch) (int64, error)
}
