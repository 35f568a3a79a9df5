package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	dberrors "github.com/omniql-engine/flatql/engine/errors"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "memory", cfg.Database)
	assert.True(t, cfg.IsMemory())
	assert.Equal(t, StorageFile, cfg.Storage)
	assert.Equal(t, 2, cfg.Format.Indent)
	assert.Equal(t, "flatql", cfg.Redis.Prefix)
	assert.Equal(t, "info", cfg.Log.Level)
	require.NoError(t, cfg.Validate())
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flatql.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database: CSV
dir: /tmp/flatql
tables: [users, orders]
schema:
  users: [id, name]
format:
  delimiter: ";"
`), 0o644))
	t.Setenv("FLATQL_FORMAT_INDENT", "4")
	t.Setenv("FLATQL_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "CSV", cfg.Database)
	assert.Equal(t, []string{"users", "orders"}, cfg.Tables)
	assert.Equal(t, []string{"id", "name"}, cfg.Schema["users"])
	assert.Equal(t, 4, cfg.Format.Indent)
	assert.Equal(t, "debug", cfg.Log.Level)
	require.NoError(t, cfg.Validate())

	opts := cfg.CodecOptions()
	assert.Equal(t, ';', opts.Delimiter)
	assert.Equal(t, 4, opts.Indent)

	c, err := cfg.Codec()
	require.NoError(t, err)
	assert.Equal(t, ".csv", c.Extension())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(*Config){
		"relational database": func(c *Config) { c.Database = "MySQL" },
		"unknown storage":     func(c *Config) { c.Database, c.Storage = "csv", "s3" },
		"empty dir":           func(c *Config) { c.Database, c.Dir = "yaml", "" },
		"charset":             func(c *Config) { c.Charset = "latin1" },
		"delimiter":           func(c *Config) { c.Format.Delimiter = ";;" },
		"indent":              func(c *Config) { c.Format.Indent = -1 },
		"collation":           func(c *Config) { c.Collation = "not a locale!" },
		"empty schema":        func(c *Config) { c.Schema = map[string][]string{"users": nil} },
		"fetch style":         func(c *Config) { c.FetchStyle = "assco" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), dberrors.ErrValidation)
		})
	}
}

func TestCollationTag(t *testing.T) {
	cfg := Default()
	_, ok := cfg.CollationTag()
	assert.False(t, ok)

	cfg.Collation = "sv"
	tag, ok := cfg.CollationTag()
	require.True(t, ok)
	assert.Equal(t, language.Swedish, tag)
}
