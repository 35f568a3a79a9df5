package flatql

import (
	"context"

	"github.com/omniql-engine/flatql/engine/executor"
	"github.com/omniql-engine/flatql/engine/models"
	"github.com/omniql-engine/flatql/engine/store"
)

// backend is what a session executes against: the in-process engine over a
// record store, or a database/sql connection.
type backend interface {
	run(ctx context.Context, q *models.Query) ([]models.Record, error)
	exec(ctx context.Context, q *models.Query) (int, error)
	begin(ctx context.Context, table string) error
	commit(ctx context.Context) error
	rollback(ctx context.Context) error
	inTransaction() bool
	reload(ctx context.Context) error
}

// engineBackend serves flat-file, memory, redis and mongo sessions.
type engineBackend struct {
	engine *executor.Engine
}

func (b *engineBackend) store() *store.Store {
	return b.engine.Store()
}

func (b *engineBackend) run(ctx context.Context, q *models.Query) ([]models.Record, error) {
	return b.engine.Run(ctx, q)
}

func (b *engineBackend) exec(ctx context.Context, q *models.Query) (int, error) {
	return b.engine.Exec(ctx, q)
}

// begin snapshots table, or the active table when table is "".
func (b *engineBackend) begin(ctx context.Context, table string) error {
	if table != "" && !b.store().InTransaction() {
		if err := b.store().Use(ctx, table); err != nil {
			return err
		}
	}
	return b.store().Begin()
}

func (b *engineBackend) commit(ctx context.Context) error {
	return b.store().Commit(ctx)
}

func (b *engineBackend) rollback(context.Context) error {
	return b.store().Rollback()
}

func (b *engineBackend) inTransaction() bool {
	return b.store().InTransaction()
}

// reload rereads the active table unless a transaction holds it.
func (b *engineBackend) reload(ctx context.Context) error {
	if b.store().Table() == "" || b.store().InTransaction() {
		return nil
	}
	return b.store().Reload(ctx)
}
