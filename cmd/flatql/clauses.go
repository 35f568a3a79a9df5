package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/omniql-engine/flatql"
	"github.com/omniql-engine/flatql/engine/parser"
)

// queryFlags are the clause flags shared by query, render, update and delete.
type queryFlags struct {
	Columns  []string
	Distinct bool
	Joins    []string
	Where    []string
	OrWhere  []string
	Group    []string
	Having   []string
	Order    []string
	Limit    int
	Offset   int
}

func (f *queryFlags) bindFilter(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&f.Where, "where", "w", nil, `condition "column OP value", ANDed (repeatable)`)
	cmd.Flags().StringArrayVar(&f.OrWhere, "or-where", nil, `condition ORed onto the filter (repeatable)`)
}

func (f *queryFlags) bindSelect(cmd *cobra.Command) {
	f.bindFilter(cmd)
	cmd.Flags().StringArrayVarP(&f.Columns, "select", "s", nil, `projected columns, e.g. "id, COUNT(*) AS n"`)
	cmd.Flags().BoolVar(&f.Distinct, "distinct", false, "drop duplicate rows")
	cmd.Flags().StringArrayVarP(&f.Joins, "join", "j", nil, `join "KIND table [alias] ON a = b" (repeatable)`)
	cmd.Flags().StringArrayVarP(&f.Group, "group", "g", nil, "group-by columns")
	cmd.Flags().StringArrayVar(&f.Having, "having", nil, `group condition "COUNT(*) > 1" (repeatable)`)
	cmd.Flags().StringArrayVarP(&f.Order, "order", "o", nil, `order "column [ASC|DESC]" (repeatable)`)
	cmd.Flags().IntVarP(&f.Limit, "limit", "l", -1, "maximum rows, -1 for all")
	cmd.Flags().IntVar(&f.Offset, "offset", 0, "rows to skip")
}

// apply replays the flags onto the session's builder.
func (f *queryFlags) apply(s *flatql.Session, table string) error {
	if len(f.Columns) > 0 {
		s.Select(f.Columns...)
	}
	if f.Distinct {
		s.Distinct()
	}
	s.From(table)

	for _, j := range f.Joins {
		kind, source, on, err := parser.ParseJoin(j)
		if err != nil {
			return err
		}
		s.Join(kind, source, on...)
	}
	for _, w := range f.Where {
		args, err := parser.ParseCondition(w)
		if err != nil {
			return err
		}
		s.AndWhere(args...)
	}
	for _, w := range f.OrWhere {
		args, err := parser.ParseCondition(w)
		if err != nil {
			return err
		}
		s.OrWhere(args...)
	}
	if len(f.Group) > 0 {
		s.Group(f.Group...)
	}
	for _, h := range f.Having {
		args, err := parser.ParseCondition(h)
		if err != nil {
			return err
		}
		s.AndHaving(args...)
	}
	for _, o := range f.Order {
		column, direction, err := parser.ParseOrder(o)
		if err != nil {
			return err
		}
		s.Order(column, direction)
	}
	if f.Limit >= 0 {
		s.Limit(f.Limit, f.Offset)
	} else if f.Offset > 0 {
		return fmt.Errorf("--offset needs --limit")
	}
	return s.Err()
}

// parseRow reads a row given as a YAML or JSON mapping: "{id: 1, name: ann}".
func parseRow(s string) (map[string]any, error) {
	var row map[string]any
	if err := yaml.Unmarshal([]byte(s), &row); err != nil {
		return nil, fmt.Errorf("invalid row %q: %w", s, err)
	}
	if len(row) == 0 {
		return nil, fmt.Errorf("invalid row %q: no columns", s)
	}
	return row, nil
}
