package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/omniql-engine/flatql/engine/models"
)

// writeRows prints records in the chosen format. Text output is a table
// whose header is the result's column metadata.
func writeRows(w io.Writer, format string, meta []models.ColumnMeta, records []models.Record) error {
	if records == nil {
		records = []models.Record{}
	}
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	case "yaml":
		return writeYAML(w, records)
	}

	if len(meta) == 0 {
		_, err := fmt.Fprintln(w, "(0 rows)")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	names := make([]string, len(meta))
	for i, m := range meta {
		names[i] = m.Name
	}
	fmt.Fprintln(tw, strings.Join(names, "\t"))
	for _, rec := range records {
		cells := make([]string, len(names))
		for i, name := range names {
			v, _ := rec.Get(name)
			if v == nil {
				cells[i] = "NULL"
				continue
			}
			cells[i] = models.FormatScalar(v)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "(%d rows)\n", len(records))
	return err
}

// writeYAML keeps each record's column order, which a map would lose.
func writeYAML(w io.Writer, records []models.Record) error {
	seq := &yaml.Node{Kind: yaml.SequenceNode}
	for _, rec := range records {
		m := &yaml.Node{Kind: yaml.MappingNode}
		for _, c := range rec.Columns() {
			v, _ := rec.Get(c)
			var val yaml.Node
			if err := val.Encode(v); err != nil {
				return fmt.Errorf("encode %s: %w", c, err)
			}
			m.Content = append(m.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: c}, &val)
		}
		seq.Content = append(seq.Content, m)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(seq); err != nil {
		return err
	}
	return enc.Close()
}

func writeAffected(w io.Writer, format, verb string, n int) error {
	switch format {
	case "json":
		return json.NewEncoder(w).Encode(map[string]int{verb: n})
	case "yaml":
		return yaml.NewEncoder(w).Encode(map[string]int{verb: n})
	}
	_, err := fmt.Fprintf(w, "%s %d row(s)\n", verb, n)
	return err
}
