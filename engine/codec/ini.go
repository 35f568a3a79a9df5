package codec

import (
	"bytes"
	"fmt"

	"github.com/go-ini/ini"

	"github.com/omniql-engine/flatql/engine/models"
)

// INI stores one section per record, "[users.1]", "[users.2]", ..., with a
// key per column. Empty values decode as nil like CSV.
type INI struct{}

var iniOptions = ini.LoadOptions{IgnoreInlineComment: true}

func (INI) Name() string      { return "INI" }
func (INI) Extension() string { return ".ini" }

func (INI) Decode(data []byte) ([]models.Record, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	f, err := ini.LoadSources(iniOptions, data)
	if err != nil {
		return nil, fmt.Errorf("ini: decode: %w", err)
	}

	var records []models.Record
	for _, sec := range f.Sections() {
		keys := sec.Keys()
		if sec.Name() == ini.DefaultSection && len(keys) == 0 {
			continue
		}
		var rec models.Record
		for _, k := range keys {
			var v any
			if s := k.String(); s != "" {
				v = models.InferScalar(s)
			}
			rec.Set(k.Name(), v)
		}
		records = append(records, rec)
	}
	return records, nil
}

func (INI) Encode(records []models.Record, opts Options) ([]byte, error) {
	prefix := opts.Table
	if prefix == "" {
		prefix = "row"
	}

	f := ini.Empty(iniOptions)
	for i, rec := range records {
		sec, err := f.NewSection(fmt.Sprintf("%s.%d", prefix, i+1))
		if err != nil {
			return nil, fmt.Errorf("ini: encode: %w", err)
		}
		for _, c := range rec.Columns() {
			v, _ := rec.Get(c)
			if _, err := sec.NewKey(c, models.FormatScalar(v)); err != nil {
				return nil, fmt.Errorf("ini: encode: record %d: %w", i+1, err)
			}
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("ini: encode: %w", err)
	}
	return buf.Bytes(), nil
}
