// client.go

package flatql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/omniql-engine/flatql/config"
	"github.com/omniql-engine/flatql/engine/dialect"
	dberrors "github.com/omniql-engine/flatql/engine/errors"
	"github.com/omniql-engine/flatql/engine/models"
	"github.com/omniql-engine/flatql/engine/store"
	"github.com/omniql-engine/flatql/mapping"
)

// ============================================
// CONSTRUCTORS
// ============================================

// WrapSQL wraps a relational connection. Queries render in the dialect of
// dbType and go to the driver with their bound values; unknown types render
// as generic SQL.
func WrapSQL(db *sql.DB, dbType string) *Session {
	name, ok := mapping.CanonicalDatabase(dbType)
	if !ok || !mapping.IsRelational(name) {
		name = "SQL"
	}
	cfg := config.Default()
	cfg.Database = name
	b := &sqlBackend{db: db, dbType: name}
	s := newSession(cfg, name, FetchAssoc, func(context.Context) error { return b.close() })
	s.backend = b
	return s
}

// WrapRedis runs the engine over tables stored as codec-encoded redis keys.
// cfg.Database names the codec; a nil cfg uses the defaults with YAML.
func WrapRedis(rdb *redis.Client, cfg *config.Config) (*Session, error) {
	if cfg == nil {
		cfg = config.Default()
		cfg.Database = "YAML"
	}
	c, err := cfg.Codec()
	if err != nil {
		return nil, err
	}
	src := store.NewRedisSource(rdb, cfg.Redis.Prefix, c, cfg.CodecOptions())
	return newEngineSession(cfg, c.Name(), src, nil)
}

// WrapMongo runs the engine over one collection per table.
func WrapMongo(db *mongo.Database, cfg *config.Config) (*Session, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	return newEngineSession(cfg, "MongoDB", store.NewMongoSource(db), nil)
}

// ============================================
// SQL PASS-THROUGH
// ============================================

// sqlBackend renders queries and hands them to database/sql.
type sqlBackend struct {
	db     *sql.DB
	dbType string
	tx     *sql.Tx
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (b *sqlBackend) conn() queryer {
	if b.tx != nil {
		return b.tx
	}
	return b.db
}

func (b *sqlBackend) run(ctx context.Context, q *models.Query) ([]models.Record, error) {
	sqlString, args, err := dialect.BuildRaw(q, b.dbType)
	if err != nil {
		return nil, err
	}
	rows, err := b.conn().QueryContext(ctx, sqlString, args...)
	if err != nil {
		return nil, dberrors.NewQueryError("sql.query", "query error").WithCause(err)
	}
	defer rows.Close()
	return rowsToRecords(rows)
}

func (b *sqlBackend) exec(ctx context.Context, q *models.Query) (int, error) {
	sqlString, args, err := dialect.BuildRaw(q, b.dbType)
	if err != nil {
		return 0, err
	}
	result, err := b.conn().ExecContext(ctx, sqlString, args...)
	if err != nil {
		return 0, dberrors.NewQueryError("sql.exec", "exec error").WithCause(err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(rowsAffected), nil
}

func (b *sqlBackend) begin(ctx context.Context, _ string) error {
	if b.tx != nil {
		return dberrors.NewTransactionError("sql.begin", "a transaction is already open")
	}
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return dberrors.NewConnectionError("sql.begin", err, "begin error")
	}
	b.tx = tx
	return nil
}

func (b *sqlBackend) commit(context.Context) error {
	if b.tx == nil {
		return dberrors.NewTransactionError("sql.commit", "no transaction is open")
	}
	tx := b.tx
	b.tx = nil
	if err := tx.Commit(); err != nil {
		return dberrors.NewConnectionError("sql.commit", err, "commit error")
	}
	return nil
}

func (b *sqlBackend) rollback(context.Context) error {
	if b.tx == nil {
		return dberrors.NewTransactionError("sql.rollback", "no transaction is open")
	}
	tx := b.tx
	b.tx = nil
	if err := tx.Rollback(); err != nil {
		return dberrors.NewConnectionError("sql.rollback", err, "rollback error")
	}
	return nil
}

func (b *sqlBackend) inTransaction() bool {
	return b.tx != nil
}

// reload has nothing to do: every run reads the server.
func (b *sqlBackend) reload(context.Context) error {
	return nil
}

func (b *sqlBackend) close() error {
	if b.tx != nil {
		_ = b.tx.Rollback()
		b.tx = nil
	}
	return nil
}

// ============================================
// HELPERS
// ============================================

func rowsToRecords(rows *sql.Rows) ([]models.Record, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var results []models.Record

	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}

		var rec models.Record
		for i, col := range columns {
			rec.Set(col, values[i])
		}
		results = append(results, rec)
	}

	return results, rows.Err()
}
