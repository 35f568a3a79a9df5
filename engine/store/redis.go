package store

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/omniql-engine/flatql/engine/codec"
	dberrors "github.com/omniql-engine/flatql/engine/errors"
	"github.com/omniql-engine/flatql/engine/models"
)

// RedisSource stores each table under one key, <prefix>:<table>, holding the
// codec-encoded table.
type RedisSource struct {
	client *redis.Client
	prefix string
	codec  codec.Codec
	opts   codec.Options
}

// NewRedisSource wraps a connected client.
func NewRedisSource(client *redis.Client, prefix string, c codec.Codec, opts codec.Options) *RedisSource {
	if prefix == "" {
		prefix = "flatql"
	}
	return &RedisSource{client: client, prefix: prefix, codec: c, opts: opts}
}

// Key returns the key holding table.
func (r *RedisSource) Key(table string) string {
	return r.prefix + ":" + table
}

func (r *RedisSource) Load(ctx context.Context, table string) ([]models.Record, error) {
	data, err := r.client.Get(ctx, r.Key(table)).Bytes()
	if errors.Is(err, redis.Nil) {
		if err := r.Save(ctx, table, nil); err != nil {
			return nil, err
		}
		return nil, nil
	}
	if err != nil {
		return nil, dberrors.NewConnectionError("store.load", err, "get %s", r.Key(table))
	}
	records, err := r.codec.Decode(data)
	if err != nil {
		return nil, dberrors.NewConnectionError("store.load", err, "cannot decode %s", r.Key(table))
	}
	return records, nil
}

func (r *RedisSource) Save(ctx context.Context, table string, records []models.Record) error {
	opts := r.opts
	opts.Table = table
	data, err := r.codec.Encode(records, opts)
	if err != nil {
		return dberrors.NewConnectionError("store.save", err, "cannot encode table %s", table)
	}
	if err := r.client.Set(ctx, r.Key(table), data, 0).Err(); err != nil {
		return dberrors.NewConnectionError("store.save", err, "set %s", r.Key(table))
	}
	return nil
}

// Tables scans <prefix>:* keys.
func (r *RedisSource) Tables(ctx context.Context) ([]string, error) {
	var names []string
	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, r.prefix+":*", 100).Result()
		if err != nil {
			return nil, dberrors.NewConnectionError("store.tables", err, "scan error")
		}
		for _, k := range keys {
			names = append(names, strings.TrimPrefix(k, r.prefix+":"))
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	sort.Strings(names)
	return names, nil
}
