// Package config is the explicit configuration of a flatql session.
package config

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/spf13/viper"
	"golang.org/x/text/language"

	"github.com/omniql-engine/flatql/engine/codec"
	dberrors "github.com/omniql-engine/flatql/engine/errors"
	"github.com/omniql-engine/flatql/mapping"
)

// Storage backends for flat-file databases.
const (
	StorageFile  = "file"
	StorageRedis = "redis"
	StorageMongo = "mongo"
)

// Config holds everything a session needs to connect.
type Config struct {
	Database        string              `mapstructure:"database"` // CSV, XML, YAML, INI, BSON, Protobuf or memory
	Dir             string              `mapstructure:"dir"`
	Storage         string              `mapstructure:"storage"`
	Charset         string              `mapstructure:"charset"`
	Tables          []string            `mapstructure:"tables"` // created on connect when missing
	Schema          map[string][]string `mapstructure:"schema"`
	PluralizeTables bool                `mapstructure:"pluralize_tables"`
	Collation       string              `mapstructure:"collation"`
	FetchStyle      string              `mapstructure:"fetch_style"`
	Format          FormatConfig        `mapstructure:"format"`
	Redis           RedisConfig         `mapstructure:"redis"`
	Mongo           MongoConfig         `mapstructure:"mongo"`
	Log             LogConfig           `mapstructure:"log"`
}

// FormatConfig holds codec formatting options
type FormatConfig struct {
	Indent    int    `mapstructure:"indent"`
	Delimiter string `mapstructure:"delimiter"`
}

// RedisConfig holds the redis storage connection
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// MongoConfig holds the mongo storage connection
type MongoConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

// LogConfig holds logging options
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // console or json
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// defaults always decode
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// Load reads configuration from an optional file, then FLATQL_* environment
// variables (FLATQL_FORMAT_INDENT sets format.indent).
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("FLATQL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("database", mapping.MemoryDatabase)
	v.SetDefault("dir", "data")
	v.SetDefault("storage", StorageFile)
	v.SetDefault("charset", "utf-8")
	v.SetDefault("tables", []string{})
	v.SetDefault("schema", map[string][]string{})
	v.SetDefault("pluralize_tables", false)
	v.SetDefault("collation", "")
	v.SetDefault("fetch_style", "assoc")

	v.SetDefault("format.indent", 2)
	v.SetDefault("format.delimiter", ",")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "flatql")

	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "flatql")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Validate rejects shapes a session cannot connect with.
func (c *Config) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if !c.IsMemory() {
		if name, ok := mapping.CanonicalDatabase(c.Database); !ok || !mapping.IsFlatFile(name) {
			fail("unsupported database %q", c.Database)
		}
		switch c.Storage {
		case StorageFile:
			if c.Dir == "" {
				fail("dir is required for file storage")
			}
		case StorageRedis:
			if c.Redis.Addr == "" {
				fail("redis.addr is required for redis storage")
			}
		case StorageMongo:
			if c.Mongo.URI == "" || c.Mongo.Database == "" {
				fail("mongo.uri and mongo.database are required for mongo storage")
			}
		default:
			fail("unknown storage %q", c.Storage)
		}
	}
	if cs := strings.ToLower(strings.ReplaceAll(c.Charset, "-", "")); cs != "" && cs != "utf8" {
		fail("unsupported charset %q", c.Charset)
	}
	if c.Format.Indent < 0 {
		fail("format.indent must be >= 0")
	}
	if utf8.RuneCountInString(c.Format.Delimiter) != 1 {
		fail("format.delimiter must be a single character")
	}
	if c.Collation != "" {
		if _, err := language.Parse(c.Collation); err != nil {
			fail("invalid collation %q", c.Collation)
		}
	}
	if c.FetchStyle != "" && mapping.FetchStyleIndex(c.FetchStyle) < 0 {
		fail("unknown fetch_style %q, want one of %s", c.FetchStyle, strings.Join(mapping.FetchStyles, ", "))
	}
	for table, cols := range c.Schema {
		if len(cols) == 0 {
			fail("schema for %s lists no columns", table)
		}
	}

	if len(errs) > 0 {
		return dberrors.NewValidationError("config.validate", "%v", errors.Join(errs...)).
			WithHint("see config.Default() for a working configuration")
	}
	return nil
}

// IsMemory reports whether the database lives only in process memory.
func (c *Config) IsMemory() bool {
	return strings.EqualFold(c.Database, mapping.MemoryDatabase)
}

// Codec returns the codec for the configured database format.
func (c *Config) Codec() (codec.Codec, error) {
	return codec.For(c.Database)
}

// CodecOptions returns the configured formatting.
func (c *Config) CodecOptions() codec.Options {
	opts := codec.DefaultOptions()
	opts.Indent = c.Format.Indent
	if r, _ := utf8.DecodeRuneInString(c.Format.Delimiter); r != utf8.RuneError {
		opts.Delimiter = r
	}
	return opts
}

// CollationTag returns the collation locale and whether one is configured.
func (c *Config) CollationTag() (language.Tag, bool) {
	if c.Collation == "" {
		return language.Und, false
	}
	tag, err := language.Parse(c.Collation)
	if err != nil {
		return language.Und, false
	}
	return tag, true
}
