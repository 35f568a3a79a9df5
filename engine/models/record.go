package models

import (
	"bytes"
	"encoding/json"
	"sort"
)

// Record is one row: an ordered mapping from column name to scalar value.
// Values are string, int64, float64, bool or nil.
type Record struct {
	columns []string
	values  map[string]any
}

// NewRecord builds a record from alternating column/value pairs.
func NewRecord(pairs ...any) Record {
	var r Record
	for i := 0; i+1 < len(pairs); i += 2 {
		col, _ := pairs[i].(string)
		r.Set(col, pairs[i+1])
	}
	return r
}

// RecordFromMap builds a record from a map. Columns are sorted so the result
// is deterministic.
func RecordFromMap(m map[string]any) Record {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var r Record
	for _, k := range keys {
		r.Set(k, m[k])
	}
	return r
}

// Set assigns a column, appending it when new. The value is normalised.
func (r *Record) Set(column string, value any) {
	if r.values == nil {
		r.values = make(map[string]any)
	}
	if _, exists := r.values[column]; !exists {
		r.columns = append(r.columns, column)
	}
	r.values[column] = NormalizeValue(value)
}

// Get returns a column's value and whether the column exists.
func (r Record) Get(column string) (any, bool) {
	v, ok := r.values[column]
	return v, ok
}

// Has reports whether the column exists.
func (r Record) Has(column string) bool {
	_, ok := r.values[column]
	return ok
}

// Columns returns the column names in order.
func (r Record) Columns() []string {
	return append([]string(nil), r.columns...)
}

// Values returns the values in column order.
func (r Record) Values() []any {
	out := make([]any, len(r.columns))
	for i, c := range r.columns {
		out[i] = r.values[c]
	}
	return out
}

// Len returns the number of columns.
func (r Record) Len() int {
	return len(r.columns)
}

// Map returns an unordered copy.
func (r Record) Map() map[string]any {
	out := make(map[string]any, len(r.columns))
	for _, c := range r.columns {
		out[c] = r.values[c]
	}
	return out
}

// Clone returns an independent copy.
func (r Record) Clone() Record {
	if r.columns == nil {
		return Record{}
	}
	out := Record{
		columns: append([]string(nil), r.columns...),
		values:  make(map[string]any, len(r.values)),
	}
	for k, v := range r.values {
		out.values[k] = v
	}
	return out
}

// Merge returns a copy of r with patch's columns assigned over it.
func (r Record) Merge(patch Record) Record {
	out := r.Clone()
	for _, c := range patch.columns {
		out.Set(c, patch.values[c])
	}
	return out
}

// Equal compares columns (in order) and values.
func (r Record) Equal(other Record) bool {
	if len(r.columns) != len(other.columns) {
		return false
	}
	for i, c := range r.columns {
		if other.columns[i] != c {
			return false
		}
		if !ValuesEqual(r.values[c], other.values[c]) {
			return false
		}
	}
	return true
}

// MarshalJSON writes the record as a JSON object preserving column order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range r.columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r.values[c])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// CloneRecords deep-copies a record slice.
func CloneRecords(records []Record) []Record {
	if records == nil {
		return nil
	}
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}

// ColumnMeta describes one column of a result set.
type ColumnMeta struct {
	Name       string
	Position   int
	Type       string // string, integer, float, boolean, null
	NativeType string // declared type under the session's dialect, "" for null
}
