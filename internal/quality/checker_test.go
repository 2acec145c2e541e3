package quality

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/BartekS5/flightetl/pkg/logger"
	"github.com/BartekS5/flightetl/pkg/models"
)

type panickingValidator struct{ NoopValidator }

func (panickingValidator) Validate(ctx context.Context, s Suite, b *models.Batch) (*Result, error) {
	panic("engine exploded")
}

type erroringValidator struct{ NoopValidator }

func (erroringValidator) Validate(ctx context.Context, s Suite, b *models.Batch) (*Result, error) {
	return nil, errors.New("engine unreachable")
}

type mutatingValidator struct{ NoopValidator }

func (mutatingValidator) Validate(ctx context.Context, s Suite, b *models.Batch) (*Result, error) {
	for _, r := range b.Records {
		r[models.FlightStatus] = "mutated"
	}
	b.Records = b.Records[:0]
	return Evaluate(s, b), nil
}

func TestCheckerReturnsBatchUnchanged(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(filepath.Join(dir, "gx"))
	if err != nil {
		t.Fatal(err)
	}
	suite := FlightSuite("s")
	ctxValidator, err := NewContextValidator(context.Background(), store, suite, logger.NewNop())
	if err != nil {
		t.Fatal(err)
	}

	validators := map[string]Validator{
		"noop":     NoopValidator{},
		"direct":   DirectValidator{},
		"context":  ctxValidator,
		"panic":    panickingValidator{},
		"error":    erroringValidator{},
		"mutating": mutatingValidator{},
		"nil":      nil,
	}
	for name, v := range validators {
		t.Run(name, func(t *testing.T) {
			bad := cleanRow()
			bad[models.ArrivalTerminal] = "4/B"
			b := flightBatch(cleanRow(), bad)
			before := b.Clone()

			got := NewChecker(v, suite, logger.NewNop()).Check(context.Background(), b)
			if got != b {
				t.Fatal("Check returned a different batch")
			}
			if !reflect.DeepEqual(got, before) {
				t.Errorf("batch changed:\n got %v\nwant %v", got, before)
			}
		})
	}
}

func TestNoopValidatorSkips(t *testing.T) {
	res, err := NoopValidator{}.Validate(context.Background(), FlightSuite("s"), flightBatch(cleanRow()))
	if err != nil || !res.Skipped || !res.Success || res.RowCount != 1 {
		t.Errorf("unexpected noop result %+v, %v", res, err)
	}
}
