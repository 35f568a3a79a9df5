package flatql

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"

	dberrors "github.com/omniql-engine/flatql/engine/errors"
	"github.com/omniql-engine/flatql/engine/models"
	"github.com/omniql-engine/flatql/mapping"
)

// FetchStyle selects the shape Fetch and FetchAll return rows in.
type FetchStyle int

const (
	FetchAssoc  FetchStyle = iota // map[string]any
	FetchNum                      // []any in column order
	FetchBoth                     // map[any]any keyed by name and by position
	FetchObj                      // models.Record
	FetchColumn                   // value of the first column
	FetchClass                    // new T populated by FetchObject[T]
	FetchInto                     // existing value populated by FetchInto
)

func (f FetchStyle) String() string {
	if f.known() {
		return mapping.FetchStyles[f]
	}
	return fmt.Sprintf("FetchStyle(%d)", int(f))
}

func (f FetchStyle) known() bool {
	return f >= 0 && int(f) < len(mapping.FetchStyles)
}

// ParseFetchStyle maps a configured name ("assoc", "NUM") to its style.
func ParseFetchStyle(name string) (FetchStyle, error) {
	if i := mapping.FetchStyleIndex(name); i >= 0 {
		return FetchStyle(i), nil
	}
	return FetchAssoc, dberrors.NewValidationError("fetch.style", "unknown fetch style %q", name)
}

// ============================================
// FETCH
// ============================================

// Fetch returns the next row in the given style, or the session's default
// style. ok is false once the rows are exhausted; exhaustion is not an error.
func (s *Session) Fetch(style ...FetchStyle) (row any, ok bool, err error) {
	st, err := s.pick(style)
	if err != nil {
		return nil, false, err
	}
	rec, ok, err := s.FetchRecord()
	if err != nil || !ok {
		return nil, ok, err
	}
	return shape(rec, st), true, nil
}

// FetchAll returns every remaining row and drains the cached result. A
// second call without a query change returns an empty slice.
func (s *Session) FetchAll(style ...FetchStyle) ([]any, error) {
	st, err := s.pick(style)
	if err != nil {
		return nil, err
	}
	records, err := s.FetchRecords()
	if err != nil {
		return nil, err
	}
	out := make([]any, len(records))
	for i, rec := range records {
		out[i] = shape(rec, st)
	}
	return out, nil
}

// FetchRecord returns the next row as a record.
func (s *Session) FetchRecord() (models.Record, bool, error) {
	if err := s.load(); err != nil {
		return models.Record{}, false, err
	}
	rec, ok := s.cache.Fetch()
	return rec, ok, nil
}

// FetchRecords returns every remaining row as records.
func (s *Session) FetchRecords() ([]models.Record, error) {
	if err := s.load(); err != nil {
		return nil, err
	}
	return s.cache.FetchAll(), nil
}

// FetchColumn returns one column of the next row by position.
func (s *Session) FetchColumn(index int) (any, bool, error) {
	if err := s.load(); err != nil {
		return nil, false, err
	}
	if next := s.cache.Peek(); len(next) > 0 && (index < 0 || index >= next[0].Len()) {
		return nil, false, dberrors.NewQueryError("fetch.column", "column index %d out of range (%d columns)", index, next[0].Len())
	}
	rec, ok := s.cache.Fetch()
	if !ok {
		return nil, false, nil
	}
	return rec.Values()[index], true, nil
}

// FetchInto populates dest, a pointer to a struct or map, from the next row.
// Fields match columns by their `db` tag or, case-insensitively, by name.
func (s *Session) FetchInto(dest any) (bool, error) {
	rec, ok, err := s.FetchRecord()
	if err != nil || !ok {
		return ok, err
	}
	return true, decode(rec.Map(), dest)
}

// FetchAllInto populates dest, a pointer to a slice, from every remaining row.
func (s *Session) FetchAllInto(dest any) error {
	records, err := s.FetchRecords()
	if err != nil {
		return err
	}
	rows := make([]map[string]any, len(records))
	for i, rec := range records {
		rows[i] = rec.Map()
	}
	return decode(rows, dest)
}

// FetchObject returns the next row as a new T. It is the FetchClass style.
func FetchObject[T any](s *Session) (T, bool, error) {
	var out T
	ok, err := s.FetchInto(&out)
	return out, ok, err
}

// FetchAllObjects returns every remaining row as a T.
func FetchAllObjects[T any](s *Session) ([]T, error) {
	out := []T{}
	if err := s.FetchAllInto(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetAllMetadata describes the columns of the remaining rows without
// consuming them. Types come from the first non-null value of each column.
func (s *Session) GetAllMetadata() ([]models.ColumnMeta, error) {
	if err := s.load(); err != nil {
		return nil, err
	}
	var meta []models.ColumnMeta
	index := make(map[string]int)
	for _, rec := range s.cache.Peek() {
		for _, c := range rec.Columns() {
			v, _ := rec.Get(c)
			i, seen := index[c]
			if !seen {
				index[c] = len(meta)
				meta = append(meta, models.ColumnMeta{Name: c, Position: len(meta), Type: models.TypeName(v)})
				continue
			}
			if meta[i].Type == "null" && v != nil {
				meta[i].Type = models.TypeName(v)
			}
		}
	}
	for i := range meta {
		meta[i].NativeType = mapping.GetNativeType(s.database, meta[i].Type)
	}
	return meta, nil
}

// ============================================
// HELPERS
// ============================================

func (s *Session) pick(style []FetchStyle) (FetchStyle, error) {
	st := s.style
	if len(style) > 0 {
		st = style[0]
	}
	if st == FetchClass || st == FetchInto {
		return st, dberrors.NewQueryError("fetch", "fetch style %s needs a destination", st).
			WithHint("use FetchInto, FetchAllInto or FetchObject[T]")
	}
	if !st.known() {
		return st, dberrors.NewQueryError("fetch", "unknown fetch style %s", st)
	}
	return st, nil
}

func shape(rec models.Record, style FetchStyle) any {
	switch style {
	case FetchNum:
		return rec.Values()
	case FetchBoth:
		out := make(map[any]any, rec.Len()*2)
		for i, c := range rec.Columns() {
			v, _ := rec.Get(c)
			out[c] = v
			out[i] = v
		}
		return out
	case FetchObj:
		return rec
	case FetchColumn:
		if rec.Len() == 0 {
			return nil
		}
		return rec.Values()[0]
	}
	return rec.Map()
}

func decode(input, dest any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "db",
		WeaklyTypedInput: true,
		Result:           dest,
	})
	if err != nil {
		return dberrors.NewQueryError("fetch.into", "cannot populate %T", dest).WithCause(err)
	}
	if err := dec.Decode(input); err != nil {
		return dberrors.NewQueryError("fetch.into", "cannot populate %T", dest).WithCause(err)
	}
	return nil
}
