package etl

import (
	"strings"

	"github.com/BartekS5/flightetl/pkg/logger"
	"github.com/BartekS5/flightetl/pkg/models"
	"github.com/BartekS5/flightetl/pkg/utils"
)

// Transformer renames extracted columns to their destination names and
// normalizes values to text.
type Transformer struct {
	Mapping *models.MappingSchema
	Log     logger.Logger
}

func NewTransformer(mapping *models.MappingSchema, log logger.Logger) *Transformer {
	return &Transformer{Mapping: mapping, Log: log}
}

// Transform returns a new batch; b is left untouched. Running it on its own
// output yields the same batch.
func (t *Transformer) Transform(b *models.Batch) *models.Batch {
	if b == nil {
		b = models.NewBatch(nil)
	}

	bySource := make(map[string]models.FieldMapping, len(t.Mapping.Fields))
	byTarget := make(map[string]models.FieldMapping, len(t.Mapping.Fields))
	for _, f := range t.Mapping.Fields {
		bySource[f.Source] = f
		byTarget[f.Target] = f
	}

	type column struct {
		from  string
		to    string
		field *models.FieldMapping
	}
	cols := make([]column, 0, len(b.Columns))
	names := make([]string, 0, len(b.Columns))
	for _, c := range b.Columns {
		col := column{from: c, to: c}
		if f, ok := bySource[c]; ok {
			col.to = f.Target
			col.field = &f
		} else if f, ok := byTarget[c]; ok {
			col.field = &f
		}
		cols = append(cols, col)
		names = append(names, col.to)
	}

	out := models.NewBatch(names)
	out.Records = make([]models.Record, 0, b.Len())
	for _, r := range b.Records {
		row := make(models.Record, len(cols))
		for _, c := range cols {
			row[c.to] = normalize(r[c.from], c.field)
		}
		out.Append(row)
	}

	if t.Log != nil {
		t.Log.Debug("Transformed batch", "rows", out.Len(), "columns", len(out.Columns))
	}
	return out
}

func normalize(val interface{}, field *models.FieldMapping) interface{} {
	if field != nil && field.Type == models.TypeDatetime && utils.IsTemporal(val) {
		return val
	}
	s := utils.ToText(val)
	if field != nil && field.Delimited {
		s = strings.ReplaceAll(s, models.PathSeparator, models.SeparatorReplacement)
	}
	return s
}
