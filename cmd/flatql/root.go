package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/omniql-engine/flatql"
	"github.com/omniql-engine/flatql/config"
)

// rootOptions holds global flags for all commands.
type rootOptions struct {
	ConfigPath string
	Database   string
	Dir        string
	LogLevel   string
	Format     string // "text" | "json" | "yaml"
}

var validFormats = []string{"text", "json", "yaml"}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "flatql",
		Short: "Query flat-file databases with SQL-like clauses",
		Long: `flatql runs select, insert, update and delete queries over tables stored
as CSV, XML, YAML, INI, BSON or Protobuf files, and renders the same queries
as SQL for relational dialects.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			for _, f := range validFormats {
				if f == opts.Format {
					return nil
				}
			}
			return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, validFormats)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "config file (yaml, json or toml)")
	cmd.PersistentFlags().StringVarP(&opts.Database, "database", "d", "", "database format, overrides the config")
	cmd.PersistentFlags().StringVar(&opts.Dir, "dir", "", "database directory, overrides the config")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level, overrides the config")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json|yaml)")

	cmd.AddCommand(newQueryCommand(opts))
	cmd.AddCommand(newRenderCommand(opts))
	cmd.AddCommand(newInsertCommand(opts))
	cmd.AddCommand(newUpdateCommand(opts))
	cmd.AddCommand(newDeleteCommand(opts))
	cmd.AddCommand(newTablesCommand(opts))

	return cmd
}

// open connects a session from the config file, FLATQL_* variables and flags.
func (o *rootOptions) open() (*flatql.Session, error) {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return nil, err
	}
	if o.Database != "" {
		cfg.Database = o.Database
	}
	if o.Dir != "" {
		cfg.Dir = o.Dir
	}
	if o.LogLevel != "" {
		cfg.Log.Level = o.LogLevel
	}
	return flatql.Open(cfg)
}
