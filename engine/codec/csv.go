package codec

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/omniql-engine/flatql/engine/models"
)

// CSV stores a header row followed by one line per record. Empty fields
// decode as nil; other fields are typed by models.InferScalar.
//
// Cells carry no type, so a round trip is lossy: an empty string and nil
// both read back as nil, and a whole float such as 2.0 reads back as
// int64(2).
type CSV struct{}

func (CSV) Name() string      { return "CSV" }
func (CSV) Extension() string { return ".csv" }

func (CSV) Decode(data []byte) ([]models.Record, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	lines, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csv: decode: %w", err)
	}
	if len(lines) == 0 {
		return nil, nil
	}

	header := lines[0]
	records := make([]models.Record, 0, len(lines)-1)
	for n, line := range lines[1:] {
		if len(line) > len(header) {
			return nil, fmt.Errorf("csv: decode: line %d has %d fields, header has %d", n+2, len(line), len(header))
		}
		var rec models.Record
		for i, col := range header {
			var v any
			if i < len(line) && line[i] != "" {
				v = models.InferScalar(line[i])
			}
			rec.Set(col, v)
		}
		records = append(records, rec)
	}
	return records, nil
}

func (CSV) Encode(records []models.Record, opts Options) ([]byte, error) {
	cols := columnsOf(records)
	if len(cols) == 0 {
		return []byte{}, nil
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if opts.Delimiter != 0 {
		w.Comma = opts.Delimiter
	}
	if err := w.Write(cols); err != nil {
		return nil, fmt.Errorf("csv: encode: %w", err)
	}
	line := make([]string, len(cols))
	for _, rec := range records {
		for i, c := range cols {
			v, _ := rec.Get(c)
			line[i] = models.FormatScalar(v)
		}
		if err := w.Write(line); err != nil {
			return nil, fmt.Errorf("csv: encode: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("csv: encode: %w", err)
	}
	return buf.Bytes(), nil
}
