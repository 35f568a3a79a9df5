package codec

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/omniql-engine/flatql/engine/models"
)

// YAML stores a sequence of mappings. Nodes are built by hand so mapping
// keys keep the record's column order.
type YAML struct{}

func (YAML) Name() string      { return "YAML" }
func (YAML) Extension() string { return ".yaml" }

func (YAML) Decode(data []byte) ([]models.Record, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("yaml: decode: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, nil
	}
	seq := doc.Content[0]
	if seq.Kind == yaml.ScalarNode && seq.Tag == "!!null" {
		return nil, nil
	}
	if seq.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("yaml: decode: line %d: expected a list of records", seq.Line)
	}

	records := make([]models.Record, 0, len(seq.Content))
	for _, item := range seq.Content {
		if item.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("yaml: decode: line %d: expected a mapping", item.Line)
		}
		var rec models.Record
		for i := 0; i+1 < len(item.Content); i += 2 {
			key, val := item.Content[i], item.Content[i+1]
			if val.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("yaml: decode: line %d: column %s is not a scalar", val.Line, key.Value)
			}
			v, err := yamlValue(val)
			if err != nil {
				return nil, fmt.Errorf("yaml: decode: line %d: %w", val.Line, err)
			}
			rec.Set(key.Value, v)
		}
		records = append(records, rec)
	}
	return records, nil
}

func (YAML) Encode(records []models.Record, opts Options) ([]byte, error) {
	seq := &yaml.Node{Kind: yaml.SequenceNode}
	for _, rec := range records {
		m := &yaml.Node{Kind: yaml.MappingNode}
		for _, c := range rec.Columns() {
			v, _ := rec.Get(c)
			m.Content = append(m.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: c},
				yamlScalar(v),
			)
		}
		seq.Content = append(seq.Content, m)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	if opts.Indent > 0 {
		enc.SetIndent(opts.Indent)
	}
	if err := enc.Encode(seq); err != nil {
		return nil, fmt.Errorf("yaml: encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("yaml: encode: %w", err)
	}
	return buf.Bytes(), nil
}

// yamlValue decodes a scalar by its resolved tag. Timestamps stay as their
// source text; records hold no time values.
func yamlValue(n *yaml.Node) (any, error) {
	if n.ShortTag() == "!!timestamp" {
		return n.Value, nil
	}
	var v any
	if err := n.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func yamlScalar(v any) *yaml.Node {
	n := &yaml.Node{Kind: yaml.ScalarNode, Value: models.FormatScalar(v)}
	switch v.(type) {
	case nil:
		n.Tag, n.Value = "!!null", "null"
	case int64:
		n.Tag = "!!int"
	case float64:
		n.Tag = "!!float"
	case bool:
		n.Tag = "!!bool"
	default:
		n.Tag = "!!str"
	}
	return n
}
