// Package flatql builds SQL-like queries through a fluent session and runs
// them uniformly: rendered for a relational server, or executed in process
// over flat-file, memory, redis or mongo tables.
package flatql

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/omniql-engine/flatql/config"
	dberrors "github.com/omniql-engine/flatql/engine/errors"
	"github.com/omniql-engine/flatql/engine/executor"
	"github.com/omniql-engine/flatql/engine/store"
	"github.com/omniql-engine/flatql/mapping"
)

const connectTimeout = 10 * time.Second

// Open connects a session as cfg describes. The configured tables are created
// when missing. Any failure while connecting disconnects what was already
// opened before it is returned.
func Open(cfg *config.Config) (*Session, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.IsMemory() {
		return newEngineSession(cfg, mapping.MemoryDatabase, store.NewMemorySource(), nil)
	}

	c, err := cfg.Codec()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	switch cfg.Storage {
	case config.StorageRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return nil, dberrors.NewConnectionError("open", err, "redis ping %s", cfg.Redis.Addr)
		}
		src := store.NewRedisSource(rdb, cfg.Redis.Prefix, c, cfg.CodecOptions())
		return newEngineSession(cfg, c.Name(), src, func(context.Context) error { return rdb.Close() })

	case config.StorageMongo:
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
		if err != nil {
			return nil, dberrors.NewConnectionError("open", err, "mongo connect")
		}
		if err := client.Ping(ctx, nil); err != nil {
			client.Disconnect(ctx)
			return nil, dberrors.NewConnectionError("open", err, "mongo ping")
		}
		src := store.NewMongoSource(client.Database(cfg.Mongo.Database))
		return newEngineSession(cfg, "MongoDB", src, client.Disconnect)
	}

	src, err := store.NewFileSource(cfg.Dir, c, cfg.CodecOptions())
	if err != nil {
		return nil, err
	}
	return newEngineSession(cfg, c.Name(), src, nil)
}

// newEngineSession wires store, engine and session over src and creates the
// configured tables.
func newEngineSession(cfg *config.Config, database string, src store.Source, closer func(context.Context) error) (*Session, error) {
	style := FetchAssoc
	if cfg.FetchStyle != "" {
		var err error
		if style, err = ParseFetchStyle(cfg.FetchStyle); err != nil {
			if closer != nil {
				closer(context.Background())
			}
			return nil, err
		}
	}
	s := newSession(cfg, database, style, closer)

	st := store.New(src,
		store.WithSchema(cfg.Schema),
		store.WithPluralize(cfg.PluralizeTables),
		store.WithLogger(s.log),
	)
	opts := []executor.Option{executor.WithLogger(s.log)}
	if tag, ok := cfg.CollationTag(); ok {
		opts = append(opts, executor.WithCollation(tag))
	}
	s.backend = &engineBackend{engine: executor.New(st, opts...)}

	for _, table := range cfg.Tables {
		if _, err := st.Read(s.ctx, table); err != nil {
			s.Disconnect()
			return nil, err
		}
	}
	s.log.Info().Int("tables", len(cfg.Tables)).Msg("session connected")
	return s, nil
}
