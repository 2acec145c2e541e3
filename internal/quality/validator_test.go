package quality

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/BartekS5/flightetl/internal/config"
	"github.com/BartekS5/flightetl/pkg/logger"
	"github.com/BartekS5/flightetl/pkg/models"
)

func TestNewValidatorSelection(t *testing.T) {
	ctx := context.Background()
	suite := FlightSuite("flight_data_suite")
	dir := filepath.Join(t.TempDir(), "gx")

	tests := []struct {
		engine string
		want   string
	}{
		{config.EngineNone, EngineNoop},
		{config.EngineDirect, EngineDirect},
		{config.EngineContext, EngineContext},
	}
	for _, tt := range tests {
		t.Run(tt.engine, func(t *testing.T) {
			v := NewValidator(ctx, config.QualityConfig{Engine: tt.engine, DataDir: dir}, suite, logger.NewNop())
			defer v.Close(ctx)
			if v.Name() != tt.want {
				t.Errorf("engine = %s, want %s", v.Name(), tt.want)
			}
		})
	}
}

func TestNewValidatorFallsBackToNoop(t *testing.T) {
	// A regular file where the data dir should be makes the store unusable.
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := config.QualityConfig{Engine: config.EngineContext, DataDir: filepath.Join(blocker, "gx")}

	v := NewValidator(context.Background(), cfg, FlightSuite("s"), logger.NewNop())
	if v.Name() != EngineNoop {
		t.Errorf("engine = %s, want noop", v.Name())
	}
}

func TestContextValidatorPersists(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	suite := FlightSuite("flight_data_suite")

	v, err := NewContextValidator(ctx, store, suite, logger.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if created, err := store.GetOrCreateSuite(ctx, Describe(suite)); err != nil || created {
		t.Errorf("suite should already exist: created=%v err=%v", created, err)
	}

	def, err := store.LoadSuite(ctx, suite.Name)
	if err != nil {
		t.Fatal(err)
	}
	if len(def.Expectations) != 13 {
		t.Errorf("stored expectations = %d, want 13", len(def.Expectations))
	}

	res, err := v.Validate(ctx, suite, flightBatch(cleanRow()))
	if err != nil {
		t.Fatal(err)
	}
	if !res.Success || res.Engine != EngineContext {
		t.Errorf("unexpected result %+v", res)
	}

	entries, err := os.ReadDir(filepath.Join(dir, "validations", suite.Name))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("stored results = %d, want 1", len(entries))
	}
}

func TestContextValidatorUsesStoredSuite(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	suite := FlightSuite("flight_data_suite")

	// An operator-edited suite already in the store: one expectation that the
	// clean row violates.
	edited := SuiteDefinition{
		Name: suite.Name,
		Expectations: []Definition{
			{Kind: KindValueInSet, Column: models.FlightStatus, Values: []string{"scheduled"}},
		},
	}
	if created, err := store.GetOrCreateSuite(ctx, edited); err != nil || !created {
		t.Fatalf("seed suite: created=%v err=%v", created, err)
	}

	v, err := NewContextValidator(ctx, store, suite, logger.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if len(v.Suite.Assertions) != 1 {
		t.Fatalf("validator suite has %d assertions, want the stored 1", len(v.Suite.Assertions))
	}

	res, err := v.Validate(ctx, suite, flightBatch(cleanRow()))
	if err != nil {
		t.Fatal(err)
	}
	if res.Evaluated != 1 || res.Success {
		t.Errorf("evaluated=%d success=%v, want the stored suite's single failing expectation", res.Evaluated, res.Success)
	}
}

func TestContextValidatorRejectsBrokenStoredSuite(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	broken := SuiteDefinition{
		Name:         "flight_data_suite",
		Expectations: []Definition{{Kind: KindNotMatchesPattern, Column: models.ArrivalTerminal, Pattern: "("}},
	}
	if _, err := store.GetOrCreateSuite(ctx, broken); err != nil {
		t.Fatal(err)
	}

	if _, err := NewContextValidator(ctx, store, FlightSuite("flight_data_suite"), logger.NewNop()); err == nil {
		t.Fatal("expected error for an unparseable stored suite")
	}

	cfg := config.QualityConfig{Engine: config.EngineContext, DataDir: store.Dir}
	if v := NewValidator(ctx, cfg, FlightSuite("flight_data_suite"), logger.NewNop()); v.Name() != EngineNoop {
		t.Errorf("engine = %s, want noop fallback", v.Name())
	}
}
