package models

// Record is a single row of a batch, keyed by column name.
type Record map[string]interface{}

// Batch is the full set of rows handled by one pipeline run. Columns keeps the
// column order; a column can exist even when the batch has no rows.
type Batch struct {
	Columns []string
	Records []Record
}

func NewBatch(columns []string) *Batch {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Batch{Columns: cols}
}

func (b *Batch) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Records)
}

func (b *Batch) Append(r Record) {
	b.Records = append(b.Records, r)
}

// HasColumn reports whether name is one of the batch columns.
func (b *Batch) HasColumn(name string) bool {
	for _, c := range b.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Column returns the values of one column in row order. Rows that lack the key
// yield nil.
func (b *Batch) Column(name string) []interface{} {
	out := make([]interface{}, len(b.Records))
	for i, r := range b.Records {
		out[i] = r[name]
	}
	return out
}

// Clone returns a copy that shares no maps or slices with b.
func (b *Batch) Clone() *Batch {
	if b == nil {
		return nil
	}
	out := NewBatch(b.Columns)
	out.Records = make([]Record, len(b.Records))
	for i, r := range b.Records {
		row := make(Record, len(r))
		for k, v := range r {
			row[k] = v
		}
		out.Records[i] = row
	}
	return out
}
