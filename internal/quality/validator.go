package quality

import (
	"context"
	"fmt"
	"time"

	"github.com/BartekS5/flightetl/internal/config"
	"github.com/BartekS5/flightetl/pkg/database"
	"github.com/BartekS5/flightetl/pkg/logger"
	"github.com/BartekS5/flightetl/pkg/models"
)

// Engine names reported in results.
const (
	EngineNoop    = "noop"
	EngineDirect  = "direct"
	EngineContext = "context"
)

// Validator evaluates a suite against a batch.
type Validator interface {
	Name() string
	Validate(ctx context.Context, suite Suite, b *models.Batch) (*Result, error)
	Close(ctx context.Context) error
}

// NoopValidator is used when no validation engine is available.
type NoopValidator struct{}

func (NoopValidator) Name() string { return EngineNoop }

func (NoopValidator) Validate(ctx context.Context, suite Suite, b *models.Batch) (*Result, error) {
	return &Result{
		Suite:       suite.Name,
		Engine:      EngineNoop,
		Success:     true,
		Skipped:     true,
		RowCount:    b.Len(),
		EvaluatedAt: time.Now().UTC(),
	}, nil
}

func (NoopValidator) Close(ctx context.Context) error { return nil }

// DirectValidator evaluates the batch in process and keeps nothing.
type DirectValidator struct{}

func (DirectValidator) Name() string { return EngineDirect }

func (DirectValidator) Validate(ctx context.Context, suite Suite, b *models.Batch) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res := Evaluate(suite, b)
	res.Engine = EngineDirect
	return res, nil
}

func (DirectValidator) Close(ctx context.Context) error { return nil }

// ContextValidator evaluates batches against the suite registered in a
// ResultStore and stores every result there. A suite that already exists in
// the store wins over the one passed in, so edits to the stored suite apply.
type ContextValidator struct {
	Store ResultStore
	Suite Suite
	Log   logger.Logger
}

// NewContextValidator registers suite in store and loads back the stored copy.
func NewContextValidator(ctx context.Context, store ResultStore, suite Suite, log logger.Logger) (*ContextValidator, error) {
	created, err := store.GetOrCreateSuite(ctx, Describe(suite))
	if err != nil {
		return nil, err
	}
	def, err := store.LoadSuite(ctx, suite.Name)
	if err != nil {
		return nil, err
	}
	stored, err := Build(def)
	if err != nil {
		return nil, fmt.Errorf("quality: stored suite %s: %w", suite.Name, err)
	}
	if created {
		log.Info("Created expectation suite", "suite", suite.Name)
	} else {
		log.Debug("Using existing expectation suite", "suite", suite.Name, "expectations", len(stored.Assertions))
	}
	return &ContextValidator{Store: store, Suite: stored, Log: log}, nil
}

func (v *ContextValidator) Name() string { return EngineContext }

func (v *ContextValidator) Validate(ctx context.Context, suite Suite, b *models.Batch) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if v.Suite.Name == suite.Name {
		suite = v.Suite
	}
	res := Evaluate(suite, b)
	res.Engine = EngineContext
	if err := v.Store.SaveResult(ctx, res); err != nil {
		return res, fmt.Errorf("store validation result: %w", err)
	}
	return res, nil
}

func (v *ContextValidator) Close(ctx context.Context) error {
	return v.Store.Close(ctx)
}

// NewValidator picks the engine named in cfg. When the context engine cannot
// be set up it logs a warning and falls back to NoopValidator.
func NewValidator(ctx context.Context, cfg config.QualityConfig, suite Suite, log logger.Logger) Validator {
	switch cfg.Engine {
	case config.EngineNone:
		log.Info("Data quality validation disabled")
		return NoopValidator{}
	case config.EngineDirect:
		return DirectValidator{}
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		log.Warn("Validation engine unavailable, skipping data quality checks", "error", err)
		return NoopValidator{}
	}
	v, err := NewContextValidator(ctx, store, suite, log)
	if err != nil {
		_ = store.Close(ctx)
		log.Warn("Validation engine unavailable, skipping data quality checks", "error", err)
		return NoopValidator{}
	}
	return v
}

func openStore(ctx context.Context, cfg config.QualityConfig) (ResultStore, error) {
	if cfg.MongoURI != "" {
		client, err := database.ConnectMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		return NewMongoStore(client, cfg.MongoDB), nil
	}
	return NewFileStore(cfg.DataDir)
}
