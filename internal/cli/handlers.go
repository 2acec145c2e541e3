package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/BartekS5/flightetl/internal/config"
	"github.com/BartekS5/flightetl/internal/etl"
	"github.com/BartekS5/flightetl/internal/handoff"
	"github.com/BartekS5/flightetl/internal/health"
	"github.com/BartekS5/flightetl/internal/metrics"
	"github.com/BartekS5/flightetl/internal/quality"
	"github.com/BartekS5/flightetl/internal/storage"
	"github.com/BartekS5/flightetl/pkg/logger"
	"github.com/BartekS5/flightetl/pkg/models"
)

func (a *App) mapping(opts *Options) (*models.MappingSchema, error) {
	return config.LoadMapping(opts.MappingFile, a.Config.DB.Table)
}

func (a *App) extractor(m *models.MappingSchema, log logger.Logger) *etl.APIExtractor {
	return &etl.APIExtractor{
		BaseURL:      a.Config.API.BaseURL,
		AccessKey:    a.Config.API.AccessKey,
		FlightStatus: a.Config.API.FlightStatus,
		Limit:        a.Config.API.Limit,
		Client:       &http.Client{Timeout: a.Config.API.Timeout},
		Mapping:      m,
		Log:          log.With("stage", etl.StepExtract),
	}
}

// checker builds the quality step. The returned func releases the validator.
func (a *App) checker(ctx context.Context, log logger.Logger) (*quality.Checker, func()) {
	log = log.With("stage", etl.StepCheck)
	suite := quality.FlightSuite(a.Config.Quality.SuiteName)
	v := quality.NewValidator(ctx, a.Config.Quality, suite, log)
	return quality.NewChecker(v, suite, log), func() {
		if err := v.Close(context.Background()); err != nil {
			log.Warn("Failed to close validator", "error", err)
		}
	}
}

func (a *App) loader(store etl.Store, log logger.Logger) *etl.Loader {
	policy := etl.RetryPolicy{Attempts: a.Config.Load.Attempts, Delay: a.Config.Load.RetryDelay}
	return etl.NewLoader(store, policy, log.With("stage", etl.StepLoad))
}

func (a *App) recorder(runID string) metrics.Recorder {
	if a.Config.Metrics.PushgatewayURL == "" {
		return metrics.Nop{}
	}
	rec, err := metrics.NewPush(a.Config.Metrics.PushgatewayURL, a.Config.Metrics.Job, runID)
	if err != nil {
		a.Log.Warn("Metrics disabled", "error", err)
		return metrics.Nop{}
	}
	return rec
}

func closeStore(store storage.Store, log logger.Logger) {
	if err := store.Close(); err != nil {
		log.Warn("Failed to close database", "error", err)
	}
}

func (a *App) runPipeline(cmd *cobra.Command, opts *Options) error {
	ctx := cmd.Context()
	m, err := a.mapping(opts)
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	checker, release := a.checker(ctx, a.Log)
	defer release()

	p := &etl.Pipeline{
		RunID:       runID,
		Extractor:   a.extractor(m, a.Log),
		Transformer: etl.NewTransformer(m, a.Log.With("stage", etl.StepTransform)),
		Checker:     checker,
		Metrics:     a.recorder(runID),
		Log:         a.Log,
		DryRun:      opts.DryRun,
	}
	if !opts.DryRun {
		store, err := storage.Open(ctx, a.Config, m, a.Log)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer closeStore(store, a.Log)
		p.Loader = a.loader(store, a.Log)
	}

	summary, err := p.Run(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if err := PrintPreview(out, "output", summary.Output, opts.Preview); err != nil {
		return err
	}
	if summary.DryRun {
		fmt.Fprintf(out, "run %s: dry run, %d rows not loaded\n", summary.RunID, summary.Output.Len())
	} else {
		fmt.Fprintf(out, "run %s: loaded %d rows in %d attempt(s)\n", summary.RunID, summary.Loaded, summary.Attempts)
	}
	return nil
}

func (a *App) runExtract(cmd *cobra.Command, opts *Options) error {
	m, err := a.mapping(opts)
	if err != nil {
		return err
	}
	b, err := a.extractor(m, a.Log).Extract(cmd.Context())
	if err != nil {
		return err
	}
	return a.emit(cmd, opts, "extracted", b)
}

func (a *App) runTransform(cmd *cobra.Command, opts *Options) error {
	m, err := a.mapping(opts)
	if err != nil {
		return err
	}
	in, err := handoff.ReadFile(opts.In)
	if err != nil {
		return err
	}
	out := etl.NewTransformer(m, a.Log.With("stage", etl.StepTransform)).Transform(in)
	return a.emit(cmd, opts, "transformed", out)
}

func (a *App) runCheck(cmd *cobra.Command, opts *Options) error {
	in, err := handoff.ReadFile(opts.In)
	if err != nil {
		return err
	}
	checker, release := a.checker(cmd.Context(), a.Log)
	defer release()
	return a.emit(cmd, opts, "checked", checker.Check(cmd.Context(), in))
}

func (a *App) runLoad(cmd *cobra.Command, opts *Options) error {
	ctx := cmd.Context()
	m, err := a.mapping(opts)
	if err != nil {
		return err
	}
	in, err := handoff.ReadFile(opts.In)
	if err != nil {
		return err
	}

	store, err := storage.Open(ctx, a.Config, m, a.Log)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer closeStore(store, a.Log)

	res, err := a.loader(store, a.Log).Load(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "loaded %d rows into %s in %d attempt(s)\n", res.Rows, m.Table, res.Attempts)
	return nil
}

// ErrUnhealthy is returned by the health command when any check fails.
var ErrUnhealthy = errors.New("health check failed")

func (a *App) runHealth(cmd *cobra.Command, opts *Options) error {
	ctx := cmd.Context()
	m, err := a.mapping(opts)
	if err != nil {
		return err
	}

	dbCheck := health.Check{Name: "database"}
	store, err := storage.Open(ctx, a.Config, m, a.Log)
	if err != nil {
		openErr := err
		dbCheck.Run = func(context.Context) (string, error) { return "", openErr }
	} else {
		defer closeStore(store, a.Log)
		dbCheck = health.DatabaseCheck(store)
	}

	report := health.Run(ctx,
		dbCheck,
		health.DataDirCheck(a.Config.Quality.DataDir, quality.CheckWritable),
		health.CredentialCheck(a.Config.API.AccessKey),
	)
	printReport(cmd.OutOrStdout(), report)
	for _, s := range report.Failed() {
		a.Log.Error("Health check failed", "check", s.Name, "detail", s.Detail)
	}
	if !report.OK {
		return ErrUnhealthy
	}
	a.Log.Info("All health checks passed")

	if opts.Trigger {
		return a.runPipeline(cmd, opts)
	}
	return nil
}

// emit writes b to --out when set and prints the preview. When the batch goes
// to stdout the preview moves to stderr.
func (a *App) emit(cmd *cobra.Command, opts *Options, title string, b *models.Batch) error {
	previewOut := cmd.OutOrStdout()
	if opts.Out != "" {
		if opts.Out == "-" {
			previewOut = cmd.ErrOrStderr()
		}
		if err := handoff.WriteFile(opts.Out, b); err != nil {
			return err
		}
	}
	return PrintPreview(previewOut, title, b, opts.Preview)
}

func printReport(w io.Writer, r health.Report) {
	for _, s := range r.Statuses {
		mark := "OK"
		if !s.OK {
			mark = "FAIL"
		}
		fmt.Fprintf(w, "%-15s %-4s %s (%s)\n", s.Name, mark, s.Detail, s.Duration.Round(time.Millisecond))
	}
}
