package store

import (
	"context"

	"github.com/jinzhu/inflection"
	"github.com/rs/zerolog"

	dberrors "github.com/omniql-engine/flatql/engine/errors"
	"github.com/omniql-engine/flatql/engine/models"
)

// Predicate selects records for Update and Delete. A nil Predicate matches
// every record.
type Predicate func(models.Record) (bool, error)

// Store is the record set of the active table plus an optional transaction
// snapshot. It is owned by one session and is not safe for concurrent use.
type Store struct {
	source    Source
	schema    map[string][]string
	pluralize bool
	log       zerolog.Logger

	table   string
	loaded  bool
	records []models.Record

	snapshot *snapshot
}

type snapshot struct {
	table   string
	records []models.Record
}

// Option configures a Store.
type Option func(*Store)

// WithSchema restricts the columns each table accepts on insert and update.
// Tables missing from the map accept any column.
func WithSchema(schema map[string][]string) Option {
	return func(s *Store) { s.schema = schema }
}

// WithPluralize maps table identifiers to their plural form ("user" -> "users").
func WithPluralize(on bool) Option {
	return func(s *Store) { s.pluralize = on }
}

// WithLogger sets the logger used for load, save and transaction events.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Store) { s.log = log }
}

// New returns a store over source with no active table.
func New(source Source, opts ...Option) *Store {
	s := &Store{source: source, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Source returns the underlying source.
func (s *Store) Source() Source {
	return s.source
}

// TableName resolves a table identifier as the store names it.
func (s *Store) TableName(name string) string {
	if s.pluralize {
		return inflection.Plural(name)
	}
	return name
}

// Table returns the active table, or "".
func (s *Store) Table() string {
	return s.table
}

// Use makes table the active table, loading it when it differs from the
// current one. Switching tables inside a transaction is refused.
func (s *Store) Use(ctx context.Context, table string) error {
	name := s.TableName(table)
	if s.loaded && name == s.table {
		return nil
	}
	if s.snapshot != nil {
		return dberrors.NewTransactionError("store.use",
			"cannot switch from %s to %s inside a transaction", s.table, name)
	}
	records, err := s.source.Load(ctx, name)
	if err != nil {
		return err
	}
	s.table, s.records, s.loaded = name, records, true
	s.log.Debug().Str("table", name).Int("records", len(records)).Msg("table loaded")
	return nil
}

// Reload discards the in-memory records and reads the active table again.
func (s *Store) Reload(ctx context.Context) error {
	if s.snapshot != nil {
		return dberrors.NewTransactionError("store.reload", "cannot reload inside a transaction")
	}
	table := s.table
	s.loaded = false
	return s.Use(ctx, table)
}

// Records returns the active table's records. Callers must not mutate them.
func (s *Store) Records() []models.Record {
	return append([]models.Record(nil), s.records...)
}

// Read returns the records of any table without changing the active one.
// The active table is served from memory so uncommitted writes are visible.
func (s *Store) Read(ctx context.Context, table string) ([]models.Record, error) {
	name := s.TableName(table)
	if s.loaded && name == s.table {
		return s.Records(), nil
	}
	return s.source.Load(ctx, name)
}

// ============================================================================
// WRITES
// ============================================================================

// Insert appends rows to the active table and returns how many were added.
func (s *Store) Insert(ctx context.Context, rows ...models.Record) (int, error) {
	if err := s.requireTable("store.insert"); err != nil {
		return 0, err
	}
	for _, row := range rows {
		if err := s.checkColumns("store.insert", row); err != nil {
			return 0, err
		}
	}
	next := make([]models.Record, 0, len(s.records)+len(rows))
	next = append(next, s.records...)
	for _, row := range rows {
		next = append(next, row.Clone())
	}
	return len(rows), s.commitWrite(ctx, "insert", next)
}

// Update merges patch into every matching record and returns the count.
func (s *Store) Update(ctx context.Context, patch models.Record, match Predicate) (int, error) {
	if err := s.requireTable("store.update"); err != nil {
		return 0, err
	}
	if err := s.checkColumns("store.update", patch); err != nil {
		return 0, err
	}
	next := make([]models.Record, len(s.records))
	n := 0
	for i, rec := range s.records {
		ok, err := matches(match, rec)
		if err != nil {
			return 0, err
		}
		if ok {
			next[i] = rec.Merge(patch)
			n++
		} else {
			next[i] = rec
		}
	}
	if n == 0 {
		return 0, nil
	}
	return n, s.commitWrite(ctx, "update", next)
}

// Delete removes every matching record and returns the count.
func (s *Store) Delete(ctx context.Context, match Predicate) (int, error) {
	if err := s.requireTable("store.delete"); err != nil {
		return 0, err
	}
	next := make([]models.Record, 0, len(s.records))
	for _, rec := range s.records {
		ok, err := matches(match, rec)
		if err != nil {
			return 0, err
		}
		if !ok {
			next = append(next, rec)
		}
	}
	n := len(s.records) - len(next)
	if n == 0 {
		return 0, nil
	}
	return n, s.commitWrite(ctx, "delete", next)
}

// commitWrite installs next and persists it unless a transaction is open.
// A failed save leaves the previous records in place.
func (s *Store) commitWrite(ctx context.Context, op string, next []models.Record) error {
	if s.snapshot != nil {
		s.records = next
		s.log.Debug().Str("table", s.table).Str("op", op).Msg("write deferred to commit")
		return nil
	}
	if err := s.source.Save(ctx, s.table, next); err != nil {
		return err
	}
	s.records = next
	s.log.Debug().Str("table", s.table).Str("op", op).Int("records", len(next)).Msg("table saved")
	return nil
}

func (s *Store) requireTable(op string) error {
	if !s.loaded {
		return dberrors.NewQueryError(op, "no table selected")
	}
	return nil
}

func (s *Store) checkColumns(op string, rec models.Record) error {
	allowed, ok := s.schema[s.table]
	if !ok {
		return nil
	}
	known := make(map[string]bool, len(allowed))
	for _, c := range allowed {
		known[c] = true
	}
	for _, c := range rec.Columns() {
		if !known[c] {
			return dberrors.NewValidationError(op, "unknown column %s for table %s", c, s.table)
		}
	}
	return nil
}

func matches(match Predicate, rec models.Record) (bool, error) {
	if match == nil {
		return true, nil
	}
	return match(rec)
}

// ============================================================================
// TRANSACTIONS
// ============================================================================

// InTransaction reports whether a transaction is open.
func (s *Store) InTransaction() bool {
	return s.snapshot != nil
}

// Begin snapshots the active table. Transactions do not nest.
func (s *Store) Begin() error {
	if s.snapshot != nil {
		return dberrors.NewTransactionError("store.begin", "a transaction is already open")
	}
	if err := s.requireTable("store.begin"); err != nil {
		return err
	}
	s.snapshot = &snapshot{table: s.table, records: models.CloneRecords(s.records)}
	s.log.Debug().Str("table", s.table).Msg("transaction started")
	return nil
}

// Commit persists the active table and discards the snapshot. When the save
// fails the snapshot is restored.
func (s *Store) Commit(ctx context.Context) error {
	if s.snapshot == nil {
		return dberrors.NewTransactionError("store.commit", "no transaction is open")
	}
	snap := s.snapshot
	s.snapshot = nil
	if err := s.source.Save(ctx, s.table, s.records); err != nil {
		s.records = snap.records
		s.log.Warn().Err(err).Str("table", s.table).Msg("commit failed, snapshot restored")
		return err
	}
	s.log.Debug().Str("table", s.table).Msg("transaction committed")
	return nil
}

// Rollback restores the snapshot and discards it.
func (s *Store) Rollback() error {
	if s.snapshot == nil {
		return dberrors.NewTransactionError("store.rollback", "no transaction is open")
	}
	s.table, s.records = s.snapshot.table, s.snapshot.records
	s.snapshot = nil
	s.log.Debug().Str("table", s.table).Msg("transaction rolled back")
	return nil
}
