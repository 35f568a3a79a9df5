// Package codec converts between a table's stored bytes and its ordered
// record sequence. The engine never looks at format-specific syntax.
package codec

import (
	"sort"

	dberrors "github.com/omniql-engine/flatql/engine/errors"
	"github.com/omniql-engine/flatql/engine/models"
	"github.com/omniql-engine/flatql/mapping"
)

// Codec is one flat-file format.
type Codec interface {
	// Name is the database type this codec serves, e.g. "CSV".
	Name() string
	// Extension is the file extension including the dot.
	Extension() string
	Decode(data []byte) ([]models.Record, error)
	Encode(records []models.Record, opts Options) ([]byte, error)
}

// Options are the formatting knobs passed to Encode.
type Options struct {
	Table     string // table name, written where the format has room for it
	Indent    int    // indentation width for XML and YAML
	Delimiter rune   // CSV field separator
}

// DefaultOptions returns the formatting used when nothing is configured.
func DefaultOptions() Options {
	return Options{Indent: 2, Delimiter: ','}
}

var registry = map[string]Codec{
	"CSV":      CSV{},
	"XML":      XML{},
	"YAML":     YAML{},
	"INI":      INI{},
	"BSON":     BSON{},
	"Protobuf": Protobuf{},
}

// For returns the codec registered for a format name (any case).
func For(format string) (Codec, error) {
	name, ok := mapping.CanonicalDatabase(format)
	if ok {
		if c, found := registry[name]; found {
			return c, nil
		}
	}
	return nil, dberrors.NewValidationError("codec.for", "no codec for format %q", format).
		WithHint("supported formats: CSV, XML, YAML, INI, BSON, Protobuf")
}

// Formats lists the registered format names, sorted.
func Formats() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// columnsOf returns the union of record columns in first-seen order.
func columnsOf(records []models.Record) []string {
	var cols []string
	seen := make(map[string]bool)
	for _, r := range records {
		for _, c := range r.Columns() {
			if !seen[c] {
				seen[c] = true
				cols = append(cols, c)
			}
		}
	}
	return cols
}
