package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/omniql-engine/flatql"
	"github.com/omniql-engine/flatql/engine/models"
)

func newQueryCommand(opts *rootOptions) *cobra.Command {
	flags := &queryFlags{}
	cmd := &cobra.Command{
		Use:   "query <table>",
		Short: "Select rows from a table",
		Example: `  flatql query users -d CSV --dir data -w "age > 30" -o "name DESC"
  flatql query users -s "city, COUNT(*) AS n" -g city --having "n > 1"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open()
			if err != nil {
				return err
			}
			defer s.Disconnect()

			if err := flags.apply(s, args[0]); err != nil {
				return err
			}
			meta, err := s.GetAllMetadata()
			if err != nil {
				return err
			}
			records, err := s.FetchRecords()
			if err != nil {
				return err
			}
			return writeRows(cmd.OutOrStdout(), opts.Format, meta, records)
		},
	}
	flags.bindSelect(cmd)
	return cmd
}

// renderResult is the structured output of render.
type renderResult struct {
	SQL    string `json:"sql" yaml:"sql"`
	Values []any  `json:"values,omitempty" yaml:"values,omitempty"`
}

func newRenderCommand(opts *rootOptions) *cobra.Command {
	flags := &queryFlags{}
	var (
		dialectName string
		raw         bool
		validate    bool
	)
	cmd := &cobra.Command{
		Use:   "render <table>",
		Short: "Render a query as SQL without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := flatql.WrapSQL(nil, dialectName)
			defer s.Disconnect()

			if err := flags.apply(s, args[0]); err != nil {
				return err
			}
			if validate {
				if err := s.Validate(); err != nil {
					return err
				}
			}

			var res renderResult
			var err error
			if raw {
				res.SQL, err = s.BuildRaw()
				res.Values = s.GetValues()
			} else {
				res.SQL, err = s.Build()
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch opts.Format {
			case "json":
				return json.NewEncoder(out).Encode(res)
			case "yaml":
				return yaml.NewEncoder(out).Encode(res)
			}
			fmt.Fprintln(out, res.SQL)
			for i, v := range res.Values {
				fmt.Fprintf(out, "-- %d: %s\n", i+1, models.FormatScalar(v))
			}
			return nil
		},
	}
	flags.bindSelect(cmd)
	cmd.Flags().StringVar(&dialectName, "dialect", "SQL", "MySQL, PostgreSQL, SQLite, Oracle, SQLServer or SQL")
	cmd.Flags().BoolVar(&raw, "raw", false, "keep placeholders and list the bound values")
	cmd.Flags().BoolVar(&validate, "validate", false, "check the rendered SQL parses in the dialect")
	return cmd
}

func newInsertCommand(opts *rootOptions) *cobra.Command {
	var rows []string
	cmd := &cobra.Command{
		Use:     "insert <table>",
		Short:   "Append rows to a table",
		Example: `  flatql insert users --row "{id: 6, name: fay}" --row '{"id": 7, "name": "gus"}'`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(rows) == 0 {
				return fmt.Errorf("at least one --row is required")
			}
			parsed := make([]map[string]any, len(rows))
			for i, r := range rows {
				row, err := parseRow(r)
				if err != nil {
					return err
				}
				parsed[i] = row
			}

			s, err := opts.open()
			if err != nil {
				return err
			}
			defer s.Disconnect()

			n, err := s.From(args[0]).InsertMap(parsed...)
			if err != nil {
				return err
			}
			return writeAffected(cmd.OutOrStdout(), opts.Format, "inserted", n)
		},
	}
	cmd.Flags().StringArrayVarP(&rows, "row", "r", nil, "row as a YAML or JSON mapping (repeatable)")
	return cmd
}

func newUpdateCommand(opts *rootOptions) *cobra.Command {
	flags := &queryFlags{Limit: -1}
	var set string
	cmd := &cobra.Command{
		Use:     "update <table>",
		Short:   "Change the rows matching the filter",
		Example: `  flatql update users --set "{city: Oslo}" -w "id = 3"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch, err := parseRow(set)
			if err != nil {
				return err
			}
			s, err := opts.open()
			if err != nil {
				return err
			}
			defer s.Disconnect()

			if err := flags.apply(s, args[0]); err != nil {
				return err
			}
			n, err := s.Update(models.RecordFromMap(patch))
			if err != nil {
				return err
			}
			return writeAffected(cmd.OutOrStdout(), opts.Format, "updated", n)
		},
	}
	flags.bindFilter(cmd)
	cmd.Flags().StringVar(&set, "set", "", "columns to set as a YAML or JSON mapping")
	cmd.MarkFlagRequired("set")
	return cmd
}

func newDeleteCommand(opts *rootOptions) *cobra.Command {
	flags := &queryFlags{Limit: -1}
	var all bool
	cmd := &cobra.Command{
		Use:   "delete <table>",
		Short: "Remove the rows matching the filter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(flags.Where) == 0 && len(flags.OrWhere) == 0 && !all {
				return fmt.Errorf("refusing to delete every row without --all")
			}
			s, err := opts.open()
			if err != nil {
				return err
			}
			defer s.Disconnect()

			if err := flags.apply(s, args[0]); err != nil {
				return err
			}
			n, err := s.Delete()
			if err != nil {
				return err
			}
			return writeAffected(cmd.OutOrStdout(), opts.Format, "deleted", n)
		},
	}
	flags.bindFilter(cmd)
	cmd.Flags().BoolVar(&all, "all", false, "allow deleting without a filter")
	return cmd
}

func newTablesCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List the tables in the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open()
			if err != nil {
				return err
			}
			defer s.Disconnect()

			names, err := s.Tables()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch opts.Format {
			case "json":
				return json.NewEncoder(out).Encode(names)
			case "yaml":
				return yaml.NewEncoder(out).Encode(names)
			}
			for _, n := range names {
				fmt.Fprintln(out, n)
			}
			return nil
		},
	}
}
