package etl

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/BartekS5/flightetl/internal/metrics"
	"github.com/BartekS5/flightetl/pkg/logger"
	"github.com/BartekS5/flightetl/pkg/models"
)

// Step names used in logs and metrics.
const (
	StepExtract   = "extract"
	StepTransform = "transform"
	StepCheck     = "check"
	StepLoad      = "load"
)

// Pipeline runs extract, transform, check and load in order.
type Pipeline struct {
	// RunID tags logs and metrics; a fresh one is generated when empty.
	RunID       string
	Extractor   Extractor
	Transformer *Transformer
	Checker     Checker
	Loader      *Loader
	Metrics     metrics.Recorder
	Log         logger.Logger
	DryRun      bool
}

// RunSummary describes a finished run.
type RunSummary struct {
	RunID       string
	Extracted   int
	Transformed int
	Loaded      int64
	Attempts    int
	DryRun      bool
	Duration    time.Duration
	Output      *models.Batch
}

// Run executes one full pass. The first failing stage aborts the run; later
// stages are not started.
func (p *Pipeline) Run(ctx context.Context) (*RunSummary, error) {
	rec := p.Metrics
	if rec == nil {
		rec = metrics.Nop{}
	}
	runID := p.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	summary := &RunSummary{RunID: runID, DryRun: p.DryRun}
	log := p.Log.With("run_id", summary.RunID)
	start := time.Now()

	defer func() {
		if err := rec.Flush(); err != nil {
			log.Warn("Failed to flush metrics", "error", err)
		}
	}()

	log.Info("Starting pipeline", "dry_run", p.DryRun)

	t := time.Now()
	raw, err := p.Extractor.Extract(ctx)
	rec.RecordStep(StepExtract, err, time.Since(t))
	if err != nil {
		log.Error("Extraction failed", "error", err)
		return nil, fmt.Errorf("extract: %w", err)
	}
	summary.Extracted = raw.Len()
	rec.RecordRows("extracted", int64(raw.Len()))

	t = time.Now()
	transformed := p.Transformer.Transform(raw)
	rec.RecordStep(StepTransform, nil, time.Since(t))
	summary.Transformed = transformed.Len()
	rec.RecordRows("transformed", int64(transformed.Len()))

	checked := transformed
	if p.Checker != nil {
		t = time.Now()
		checked = p.Checker.Check(ctx, transformed)
		rec.RecordStep(StepCheck, nil, time.Since(t))
	}
	summary.Output = checked

	if p.DryRun {
		log.Info("[DRY RUN] Skipping load", "rows", checked.Len())
	} else {
		t = time.Now()
		res, err := p.Loader.Load(ctx, checked)
		rec.RecordStep(StepLoad, err, time.Since(t))
		if err != nil {
			log.Error("Load failed", "error", err)
			return nil, fmt.Errorf("load: %w", err)
		}
		summary.Loaded = res.Rows
		summary.Attempts = res.Attempts
		rec.RecordRows("loaded", res.Rows)
	}

	summary.Duration = time.Since(start)
	log.Info("Pipeline finished successfully",
		"extracted", summary.Extracted,
		"loaded", summary.Loaded,
		"duration", summary.Duration.String(),
	)
	return summary, nil
}
