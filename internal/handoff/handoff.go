// Package handoff serializes a batch between pipeline stages run as separate
// processes. The format is a row-oriented JSON table:
//
//	{"schema":{"fields":[{"name":"flight_date","type":"string"}]},"data":[{"flight_date":"2024-01-01"}]}
//
// Column order travels in the schema since JSON objects are unordered.
package handoff

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/BartekS5/flightetl/pkg/models"
)

// Field types written to the schema.
const (
	TypeString = "string"
	TypeNumber = "number"
	TypeBool   = "boolean"
	TypeAny    = "any"
)

type Field struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type Schema struct {
	Fields []Field `json:"fields"`
}

// Table is the wire form of a batch.
type Table struct {
	Schema Schema                   `json:"schema"`
	Data   []map[string]interface{} `json:"data"`
}

// Encode writes b to w.
func Encode(w io.Writer, b *models.Batch) error {
	t := Table{Data: make([]map[string]interface{}, 0, b.Len())}
	for _, c := range b.Columns {
		t.Schema.Fields = append(t.Schema.Fields, Field{Name: c, Type: columnType(b, c)})
	}
	if t.Schema.Fields == nil {
		t.Schema.Fields = []Field{}
	}
	for _, r := range b.Records {
		row := make(map[string]interface{}, len(b.Columns))
		for _, c := range b.Columns {
			row[c] = r[c]
		}
		t.Data = append(t.Data, row)
	}

	enc := json.NewEncoder(w)
	if err := enc.Encode(t); err != nil {
		return fmt.Errorf("handoff: encode: %w", err)
	}
	return nil
}

// Decode reads a batch written by Encode. Numbers are kept as json.Number.
func Decode(r io.Reader) (*models.Batch, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var t Table
	if err := dec.Decode(&t); err != nil {
		return nil, fmt.Errorf("handoff: decode: %w", err)
	}

	columns := make([]string, len(t.Schema.Fields))
	for i, f := range t.Schema.Fields {
		columns[i] = f.Name
	}
	b := models.NewBatch(columns)
	b.Records = make([]models.Record, 0, len(t.Data))
	for _, row := range t.Data {
		rec := make(models.Record, len(columns))
		for _, c := range columns {
			rec[c] = row[c]
		}
		b.Append(rec)
	}
	return b, nil
}

// WriteFile encodes b into path, or stdout when path is "-".
func WriteFile(path string, b *models.Batch) error {
	if path == "-" {
		return Encode(os.Stdout, b)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("handoff: create %s: %w", path, err)
	}
	if err := Encode(f, b); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadFile decodes a batch from path, or stdin when path is "-".
func ReadFile(path string) (*models.Batch, error) {
	if path == "-" {
		return Decode(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("handoff: open %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f)
}

func columnType(b *models.Batch, column string) string {
	typ := ""
	for _, r := range b.Records {
		var t string
		switch r[column].(type) {
		case nil:
			continue
		case string:
			t = TypeString
		case json.Number, float64, float32, int, int64:
			t = TypeNumber
		case bool:
			t = TypeBool
		default:
			t = TypeAny
		}
		if typ == "" {
			typ = t
		} else if typ != t {
			return TypeAny
		}
	}
	if typ == "" {
		return TypeString
	}
	return typ
}
