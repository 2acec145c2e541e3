package handoff

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/BartekS5/flightetl/pkg/models"
)

func TestRoundTripIsLossless(t *testing.T) {
	b := models.NewBatch([]string{"flight_number", "arrival_terminal", "flight_date", "gate"})
	b.Append(models.Record{"flight_number": "DL100", "arrival_terminal": "", "flight_date": "2024-01-01", "gate": nil})
	b.Append(models.Record{"flight_number": "AA1", "arrival_terminal": "4 - B", "flight_date": "2024-01-02", "gate": json.Number("12")})

	var buf bytes.Buffer
	if err := Encode(&buf, b); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !reflect.DeepEqual(got, b) {
		t.Errorf("round trip mismatch:\n got %#v\nwant %#v", got, b)
	}
}

func TestEncodeFormat(t *testing.T) {
	b := models.NewBatch([]string{"b", "a"})
	b.Append(models.Record{"b": "x", "a": json.Number("1")})

	var buf bytes.Buffer
	if err := Encode(&buf, b); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		`"schema":{"fields":[{"name":"b","type":"string"},{"name":"a","type":"number"}]}`,
		`"data":[{"a":1,"b":"x"}]`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s:\n%s", want, out)
		}
	}
}

func TestEmptyBatch(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, models.NewBatch(models.FlightColumns)); err != nil {
		t.Fatal(err)
	}
	got, err := Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if got.Len() != 0 || !reflect.DeepEqual(got.Columns, models.FlightColumns) {
		t.Errorf("unexpected batch %#v", got)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := Decode(strings.NewReader("not json")); err == nil {
		t.Fatal("expected error")
	}
}

func TestFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.json")
	b := models.NewBatch([]string{"x"})
	b.Append(models.Record{"x": "y/z"})

	if err := WriteFile(path, b); err != nil {
		t.Fatal(err)
	}
	got, err := ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, b) {
		t.Errorf("got %#v", got)
	}
}
