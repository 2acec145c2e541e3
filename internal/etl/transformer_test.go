package etl

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/BartekS5/flightetl/pkg/logger"
	"github.com/BartekS5/flightetl/pkg/models"
)

func sourceBatch(rows ...models.Record) *models.Batch {
	b := models.NewBatch(models.DefaultFlightMapping().SourceColumns())
	for _, r := range rows {
		b.Append(r)
	}
	return b
}

func exampleSourceRow() models.Record {
	return models.Record{
		"flight_date":        "2024-01-01",
		"flight_status":      "active",
		"departure.airport":  "JFK",
		"departure.timezone": "America/New_York",
		"arrival.airport":    "LAX",
		"arrival.timezone":   "America/Los_Angeles",
		"arrival.terminal":   "4/B",
		"airline.name":       "Delta",
		"flight.number":      "DL100",
	}
}

func TestTransformExampleRow(t *testing.T) {
	tr := NewTransformer(models.DefaultFlightMapping(), logger.NewNop())
	out := tr.Transform(sourceBatch(exampleSourceRow()))

	want := models.Record{
		models.FlightDate:        "2024-01-01",
		models.FlightStatus:      "active",
		models.DepartureAirport:  "JFK",
		models.DepartureTimezone: "America - New_York",
		models.ArrivalAirport:    "LAX",
		models.ArrivalTimezone:   "America - Los_Angeles",
		models.ArrivalTerminal:   "4 - B",
		models.AirlineName:       "Delta",
		models.FlightNumber:      "DL100",
	}
	if !reflect.DeepEqual(out.Records[0], want) {
		t.Errorf("got %v\nwant %v", out.Records[0], want)
	}
	if !reflect.DeepEqual(out.Columns, models.FlightColumns) {
		t.Errorf("columns = %v, want %v", out.Columns, models.FlightColumns)
	}
}

func TestTransformKeepsRowCountAndInput(t *testing.T) {
	in := sourceBatch(exampleSourceRow(), models.Record{}, exampleSourceRow())
	before := in.Clone()

	out := NewTransformer(models.DefaultFlightMapping(), logger.NewNop()).Transform(in)
	if out.Len() != in.Len() {
		t.Fatalf("rows = %d, want %d", out.Len(), in.Len())
	}
	if !reflect.DeepEqual(in, before) {
		t.Error("input batch was mutated")
	}
	for _, c := range models.FlightColumns {
		if v := out.Records[1][c]; v != "" {
			t.Errorf("empty row column %s = %#v, want \"\"", c, v)
		}
	}
}

func TestTransformSeparatorReplacement(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"America/Argentina/Buenos_Aires", "America - Argentina - Buenos_Aires"},
		{"/", " - "},
		{"T1", "T1"},
		{"", ""},
	}
	tr := NewTransformer(models.DefaultFlightMapping(), logger.NewNop())
	for _, tt := range tests {
		row := exampleSourceRow()
		row["arrival.terminal"] = tt.in
		row["departure.airport"] = tt.in
		out := tr.Transform(sourceBatch(row)).Records[0]
		if got := out[models.ArrivalTerminal]; got != tt.want {
			t.Errorf("terminal %q -> %q, want %q", tt.in, got, tt.want)
		}
		if strings.Contains(out[models.ArrivalTerminal].(string), "/") {
			t.Errorf("terminal still contains '/': %q", out[models.ArrivalTerminal])
		}
		if got := out[models.DepartureAirport]; got != tt.in {
			t.Errorf("non-delimited field rewritten: %q -> %q", tt.in, got)
		}
	}
}

func TestTransformIdempotent(t *testing.T) {
	tr := NewTransformer(models.DefaultFlightMapping(), logger.NewNop())
	once := tr.Transform(sourceBatch(exampleSourceRow()))
	twice := tr.Transform(once)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("second transform changed the batch:\n%v\n%v", once, twice)
	}
}

func TestTransformCoercesToText(t *testing.T) {
	row := exampleSourceRow()
	row["flight.number"] = json.Number("100")
	row["flight_status"] = nil
	row["airline.name"] = true

	out := NewTransformer(models.DefaultFlightMapping(), logger.NewNop()).Transform(sourceBatch(row)).Records[0]
	if out[models.FlightNumber] != "100" || out[models.FlightStatus] != "" || out[models.AirlineName] != "true" {
		t.Errorf("unexpected coercion %v", out)
	}
}

func TestTransformPassesUnknownColumns(t *testing.T) {
	b := models.NewBatch([]string{"flight.number", "extra"})
	b.Append(models.Record{"flight.number": "DL1", "extra": "x/y"})

	out := NewTransformer(models.DefaultFlightMapping(), logger.NewNop()).Transform(b)
	if !reflect.DeepEqual(out.Columns, []string{models.FlightNumber, "extra"}) {
		t.Errorf("columns = %v", out.Columns)
	}
	if out.Records[0]["extra"] != "x/y" {
		t.Errorf("unknown column rewritten: %v", out.Records[0]["extra"])
	}
}
