package flatql

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/omniql-engine/flatql/config"
	"github.com/omniql-engine/flatql/engine/builder"
	"github.com/omniql-engine/flatql/engine/cache"
	"github.com/omniql-engine/flatql/engine/dialect"
	dberrors "github.com/omniql-engine/flatql/engine/errors"
	"github.com/omniql-engine/flatql/engine/models"
	"github.com/omniql-engine/flatql/engine/store"
	"github.com/omniql-engine/flatql/engine/validator"
	"github.com/omniql-engine/flatql/logging"
	"github.com/omniql-engine/flatql/mapping"
)

// ============================================
// SESSION STRUCT
// ============================================

// Session owns one query under construction, its cached result and the
// backend it runs against. A session is meant for one caller at a time.
type Session struct {
	id       string
	database string
	style    FetchStyle

	builder *builder.Builder
	cache   *cache.Cache
	backend backend
	values  []any

	log    zerolog.Logger
	ctx    context.Context
	closer func(context.Context) error
	closed bool
}

func newSession(cfg *config.Config, database string, style FetchStyle, closer func(context.Context) error) *Session {
	id := uuid.NewString()
	log := logging.ForSession(logging.New(cfg.Log, nil), id, database)
	return &Session{
		id:       id,
		database: database,
		style:    style,
		builder:  builder.New(),
		cache:    cache.New(log),
		log:      log,
		ctx:      context.Background(),
		closer:   closer,
	}
}

// ID identifies the session in logs.
func (s *Session) ID() string {
	return s.id
}

// Database returns the database type the session renders and runs for.
func (s *Session) Database() string {
	return s.database
}

// SetContext sets the context for backend I/O
func (s *Session) SetContext(ctx context.Context) {
	s.ctx = ctx
}

// SetFetchStyle sets the style Fetch and FetchAll use by default.
func (s *Session) SetFetchStyle(style FetchStyle) {
	s.style = style
}

// Err returns the error latched by a malformed builder call.
func (s *Session) Err() error {
	return s.builder.Err()
}

// ============================================
// BUILDER SURFACE
// ============================================

func (s *Session) Select(columns ...string) *Session {
	s.builder.Select(columns...)
	return s
}

func (s *Session) Distinct() *Session {
	s.builder.Distinct()
	return s
}

func (s *Session) From(tables ...string) *Session {
	s.builder.From(tables...)
	return s
}

func (s *Session) Join(kind models.JoinKind, table string, on ...any) *Session {
	s.builder.Join(kind, table, on...)
	return s
}

func (s *Session) InnerJoin(table string, on ...any) *Session {
	s.builder.InnerJoin(table, on...)
	return s
}

func (s *Session) LeftJoin(table string, on ...any) *Session {
	s.builder.LeftJoin(table, on...)
	return s
}

func (s *Session) RightJoin(table string, on ...any) *Session {
	s.builder.RightJoin(table, on...)
	return s
}

func (s *Session) OuterJoin(table string, on ...any) *Session {
	s.builder.OuterJoin(table, on...)
	return s
}

func (s *Session) CrossJoin(table string) *Session {
	s.builder.CrossJoin(table)
	return s
}

func (s *Session) SelfJoin(alias string, on ...any) *Session {
	s.builder.SelfJoin(alias, on...)
	return s
}

func (s *Session) On(args ...any) *Session {
	s.builder.On(args...)
	return s
}

func (s *Session) AndOn(args ...any) *Session {
	s.builder.AndOn(args...)
	return s
}

func (s *Session) OrOn(args ...any) *Session {
	s.builder.OrOn(args...)
	return s
}

// Where adds a condition: ("age", ">", 30), ("age", 30), a flat list of
// triples, or a nested list of "AND"/"OR" keyed groups.
func (s *Session) Where(args ...any) *Session {
	s.builder.Where(args...)
	return s
}

func (s *Session) AndWhere(args ...any) *Session {
	s.builder.AndWhere(args...)
	return s
}

func (s *Session) OrWhere(args ...any) *Session {
	s.builder.OrWhere(args...)
	return s
}

// WhereRaw adds a verbatim fragment. Only relational sessions can run it.
func (s *Session) WhereRaw(fragment string, args ...any) *Session {
	s.builder.WhereRaw(fragment, args...)
	return s
}

func (s *Session) AndWhereRaw(fragment string, args ...any) *Session {
	s.builder.AndWhereRaw(fragment, args...)
	return s
}

func (s *Session) OrWhereRaw(fragment string, args ...any) *Session {
	s.builder.OrWhereRaw(fragment, args...)
	return s
}

func (s *Session) Having(args ...any) *Session {
	s.builder.Having(args...)
	return s
}

func (s *Session) AndHaving(args ...any) *Session {
	s.builder.AndHaving(args...)
	return s
}

func (s *Session) OrHaving(args ...any) *Session {
	s.builder.OrHaving(args...)
	return s
}

func (s *Session) Group(columns ...string) *Session {
	s.builder.Group(columns...)
	return s
}

func (s *Session) Order(column string, direction ...string) *Session {
	s.builder.Order(column, direction...)
	return s
}

func (s *Session) OrderAsc(columns ...string) *Session {
	s.builder.OrderAsc(columns...)
	return s
}

func (s *Session) OrderDesc(columns ...string) *Session {
	s.builder.OrderDesc(columns...)
	return s
}

func (s *Session) Limit(n int, offset ...int) *Session {
	s.builder.Limit(n, offset...)
	return s
}

// Query returns a snapshot of the query under construction.
func (s *Session) Query() (*models.Query, error) {
	return s.builder.Query()
}

// Clear starts a new query and drops the cached result.
func (s *Session) Clear() *Session {
	s.builder.Reset()
	s.cache.Reset()
	s.values = nil
	return s
}

// Reset invalidates the cached result and rereads the active table, for when
// the stored data changed outside the session. The query is kept.
func (s *Session) Reset() error {
	s.cache.Reset()
	return s.backend.reload(s.ctx)
}

// ============================================
// RENDERING
// ============================================

// Build renders the query with every value inlined.
func (s *Session) Build() (string, error) {
	q, err := s.builder.Query()
	if err != nil {
		return "", err
	}
	return dialect.Build(q, s.database)
}

// BuildRaw renders the query with placeholders. The bound values are kept
// for GetValues.
func (s *Session) BuildRaw() (string, error) {
	q, err := s.builder.Query()
	if err != nil {
		return "", err
	}
	sql, values, err := dialect.BuildRaw(q, s.database)
	if err != nil {
		return "", err
	}
	s.values = values
	return sql, nil
}

// GetValues returns the values bound by the last BuildRaw, in placeholder
// order.
func (s *Session) GetValues() []any {
	return append([]any(nil), s.values...)
}

// Parse rewrites the identifier quoting of raw between two named quote
// styles ("backtick", "double", "bracket", "none"). String literals are left
// alone.
func (s *Session) Parse(raw, from, to string) (string, error) {
	fq, ok := mapping.QuoteStyles[strings.ToLower(from)]
	if !ok {
		return "", dberrors.NewQueryError("parse", "unknown quote style %q", from)
	}
	tq, ok := mapping.QuoteStyles[strings.ToLower(to)]
	if !ok {
		return "", dberrors.NewQueryError("parse", "unknown quote style %q", to)
	}
	return dialect.Parse(raw, fq, tq), nil
}

// Validate checks that the inlined rendering parses as SQL of the session's
// dialect.
func (s *Session) Validate() error {
	sql, err := s.Build()
	if err != nil {
		return err
	}
	return validator.For(s.database).Validate(sql)
}

// ============================================
// EXECUTION
// ============================================

// load fills the result cache for the current query unless it already holds
// it. The cache key is the inlined rendering.
func (s *Session) load() error {
	if s.closed {
		return dberrors.NewConnectionError("session", nil, "session is disconnected")
	}
	q, err := s.builder.Query()
	if err != nil {
		return err
	}
	key, err := dialect.Build(q, s.database)
	if err != nil {
		return err
	}
	return s.cache.Run(key, func() ([]models.Record, error) {
		return s.backend.run(s.ctx, q)
	})
}

// Exec runs an INSERT, UPDATE or DELETE query and returns the affected count.
// The cached result is dropped.
func (s *Session) Exec(q *models.Query) (int, error) {
	if s.closed {
		return 0, dberrors.NewConnectionError("session", nil, "session is disconnected")
	}
	n, err := s.backend.exec(s.ctx, q)
	if err != nil {
		return 0, err
	}
	s.cache.Reset()
	s.log.Debug().Str("op", string(q.Operation)).Int("affected", n).Msg("write")
	return n, nil
}

// Insert appends rows to the FROM table.
func (s *Session) Insert(rows ...models.Record) (int, error) {
	q, err := s.builder.InsertQuery(rows...)
	if err != nil {
		return 0, err
	}
	return s.Exec(q)
}

// InsertMap appends rows given as maps; columns are sorted by name.
func (s *Session) InsertMap(rows ...map[string]any) (int, error) {
	records := make([]models.Record, len(rows))
	for i, r := range rows {
		records[i] = models.RecordFromMap(r)
	}
	return s.Insert(records...)
}

// Update applies patch to the rows matching WHERE.
func (s *Session) Update(patch models.Record) (int, error) {
	q, err := s.builder.UpdateQuery(patch)
	if err != nil {
		return 0, err
	}
	return s.Exec(q)
}

// Delete removes the rows matching WHERE.
func (s *Session) Delete() (int, error) {
	q, err := s.builder.DeleteQuery()
	if err != nil {
		return 0, err
	}
	return s.Exec(q)
}

// ============================================
// TRANSACTIONS
// ============================================

// BeginTransaction snapshots the FROM table (or the server transaction for
// relational sessions). Transactions do not nest.
func (s *Session) BeginTransaction() error {
	table := ""
	if q, err := s.builder.Query(); err == nil {
		table = q.Table()
	}
	if err := s.backend.begin(s.ctx, table); err != nil {
		return err
	}
	s.log.Debug().Msg("transaction started")
	return nil
}

// Commit persists the writes made since BeginTransaction.
func (s *Session) Commit() error {
	err := s.backend.commit(s.ctx)
	s.cache.Reset()
	return err
}

// Rollback discards the writes made since BeginTransaction.
func (s *Session) Rollback() error {
	err := s.backend.rollback(s.ctx)
	s.cache.Reset()
	return err
}

// Tables lists the tables the session's storage holds. Relational sessions
// cannot enumerate tables.
func (s *Session) Tables() ([]string, error) {
	if s.closed {
		return nil, dberrors.NewConnectionError("session", nil, "session is disconnected")
	}
	eb, ok := s.backend.(*engineBackend)
	if !ok {
		return nil, dberrors.NewQueryError("tables", "%s sessions cannot list tables", s.database)
	}
	lister, ok := eb.store().Source().(store.Lister)
	if !ok {
		return nil, dberrors.NewQueryError("tables", "%s storage cannot list tables", s.database)
	}
	return lister.Tables(s.ctx)
}

// InTransaction reports whether a transaction is open.
func (s *Session) InTransaction() bool {
	return s.backend.inTransaction()
}

// Disconnect rolls back an open transaction, releases the backend and clears
// the session. Later calls fail with a ConnectionError.
func (s *Session) Disconnect() error {
	if s.closed {
		return nil
	}
	if s.backend != nil && s.backend.inTransaction() {
		_ = s.backend.rollback(s.ctx)
	}
	s.Clear()
	s.closed = true
	if s.closer != nil {
		if err := s.closer(s.ctx); err != nil {
			return dberrors.NewConnectionError("disconnect", err, "close error")
		}
	}
	s.log.Debug().Msg("session disconnected")
	return nil
}
