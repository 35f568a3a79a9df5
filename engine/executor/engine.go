// Package executor runs a query AST against a record store: joins, filter,
// grouping, HAVING, projection, ordering and limit, in that order.
package executor

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	dberrors "github.com/omniql-engine/flatql/engine/errors"
	"github.com/omniql-engine/flatql/engine/models"
	"github.com/omniql-engine/flatql/engine/store"
)

// Engine evaluates queries over one store. Like the store, it belongs to a
// single session.
type Engine struct {
	store    *store.Store
	collator *collate.Collator
	likes    map[string]*regexp.Regexp
	log      zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithCollation orders and compares text by the rules of a locale instead of
// byte order.
func WithCollation(tag language.Tag) Option {
	return func(e *Engine) { e.collator = collate.New(tag) }
}

// WithLogger sets the engine's logger.
func WithLogger(log zerolog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// New returns an engine over s.
func New(s *store.Store, opts ...Option) *Engine {
	e := &Engine{store: s, likes: make(map[string]*regexp.Regexp), log: zerolog.Nop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Store returns the engine's store.
func (e *Engine) Store() *store.Store {
	return e.store
}

// result pairs an output record with the group it was projected from, so
// ORDER BY can reach columns that were not selected.
type result struct {
	out models.Record
	g   *group
}

// Run executes a SELECT and returns its records. The store is never modified.
func (e *Engine) Run(ctx context.Context, q *models.Query) ([]models.Record, error) {
	if q.IsWrite() {
		return nil, dberrors.NewQueryError("executor.run", "%s must go through Exec", q.Operation)
	}
	if q.Table() == "" {
		return nil, dberrors.NewQueryError("executor.run", "no table selected")
	}
	if err := e.store.Use(ctx, q.Table()); err != nil {
		return nil, err
	}

	f, rows, err := e.resolve(ctx, q)
	if err != nil {
		return nil, err
	}
	if err := e.check(f, q); err != nil {
		return nil, err
	}

	filtered := rows[:0:0]
	for _, r := range rows {
		ok, err := e.matches(rowScope{f: f, r: r}, q.Where.Conditions)
		if err != nil {
			return nil, err
		}
		if ok {
			filtered = append(filtered, r)
		}
	}

	groups, err := e.partition(f, q, filtered)
	if err != nil {
		return nil, err
	}

	var results []result
	for _, g := range groups {
		out, err := e.project(f, q, g)
		if err != nil {
			return nil, err
		}
		ok, err := e.matches(groupScope{e: e, f: f, g: g, out: out}, q.Having.Conditions)
		if err != nil {
			return nil, err
		}
		if ok {
			results = append(results, result{out: out, g: g})
		}
	}

	if q.SelectType == models.SelectDistinct {
		results = distinct(results)
	}
	if err := e.order(f, q.OrderBy, results); err != nil {
		return nil, err
	}
	results = window(results, q.Limit, q.Offset)

	records := make([]models.Record, len(results))
	for i, res := range results {
		records[i] = res.out
	}
	e.log.Debug().Str("table", q.Table()).Int("scanned", len(rows)).Int("returned", len(records)).Msg("query executed")
	return records, nil
}

// Exec applies an INSERT, UPDATE or DELETE to the store and returns the number
// of affected records. On error the store is left as it was.
func (e *Engine) Exec(ctx context.Context, q *models.Query) (int, error) {
	if !q.IsWrite() {
		return 0, dberrors.NewQueryError("executor.exec", "%s does not modify records", q.Operation)
	}
	if q.Table() == "" {
		return 0, dberrors.NewQueryError("executor.exec", "no table selected")
	}
	if err := e.store.Use(ctx, q.Table()); err != nil {
		return 0, err
	}

	var (
		n   int
		err error
	)
	switch q.Operation {
	case models.OpInsert:
		n, err = e.store.Insert(ctx, q.Rows...)
	case models.OpUpdate:
		if q.Set.Len() == 0 {
			return 0, dberrors.NewQueryError("executor.exec", "UPDATE without columns to set")
		}
		pred, perr := e.predicate(q)
		if perr != nil {
			return 0, perr
		}
		n, err = e.store.Update(ctx, q.Set, pred)
	case models.OpDelete:
		pred, perr := e.predicate(q)
		if perr != nil {
			return 0, perr
		}
		n, err = e.store.Delete(ctx, pred)
	}
	if err != nil {
		return 0, err
	}
	e.log.Debug().Str("table", q.Table()).Str("op", string(q.Operation)).Int("affected", n).Msg("write executed")
	return n, nil
}

// check resolves every column the query names before any row is evaluated.
func (e *Engine) check(f *frame, q *models.Query) error {
	if err := checkConditions(q.Where.Conditions, f.check); err != nil {
		return err
	}
	if err := checkProjection(f, q); err != nil {
		return err
	}
	byGroup := checkGroupColumn(f, q)
	if err := checkConditions(q.Having.Conditions, byGroup); err != nil {
		return err
	}
	for _, ob := range q.OrderBy {
		if err := byGroup(ob.Column); err != nil {
			return err
		}
	}
	return nil
}

// predicate adapts the WHERE tree to a store predicate over the active table.
func (e *Engine) predicate(q *models.Query) (store.Predicate, error) {
	if q.Where.Empty() {
		return nil, nil
	}
	f := newFrame()
	p := newPart(q.From[0].Name(), e.store.Records())
	f.add(p, q.Table())
	if err := checkConditions(q.Where.Conditions, f.check); err != nil {
		return nil, err
	}
	base := &row{parts: map[string]models.Record{}, padded: map[string]bool{}}
	return func(rec models.Record) (bool, error) {
		return e.matches(rowScope{f: f, r: extend(base, p, rec, false)}, q.Where.Conditions)
	}, nil
}

// ============================================================================
// PROJECTION
// ============================================================================

func (e *Engine) project(f *frame, q *models.Query, g *group) (models.Record, error) {
	first := g.first()
	if len(q.Columns) == 0 {
		if first == nil {
			return models.Record{}, nil
		}
		return first.rec.Clone(), nil
	}

	var out models.Record
	for _, col := range q.Columns {
		switch {
		case col.Aggregate != "":
			v, err := e.aggregate(f, g, col)
			if err != nil {
				return models.Record{}, err
			}
			out.Set(col.OutputName(), v)

		case col.Column == "*":
			if first != nil {
				for _, c := range first.rec.Columns() {
					v, _ := first.rec.Get(c)
					out.Set(c, v)
				}
			}

		case col.IsStar():
			qual, _ := models.SplitQualified(col.Column)
			p, ok := f.byName[qual]
			if !ok {
				return models.Record{}, unknownColumn(col.Column)
			}
			if first != nil {
				rec := first.parts[p.name]
				for _, c := range rec.Columns() {
					v, _ := rec.Get(c)
					out.Set(c, v)
				}
			}

		default:
			var v any
			if first != nil {
				var err error
				if v, err = f.lookup(first, col.Column); err != nil {
					return models.Record{}, err
				}
			}
			out.Set(col.OutputName(), v)
		}
	}
	return out, nil
}

// distinct drops repeated output tuples, keeping the first occurrence.
func distinct(results []result) []result {
	seen := make(map[string]bool, len(results))
	out := results[:0:0]
	for _, res := range results {
		var b strings.Builder
		for _, c := range res.out.Columns() {
			v, _ := res.out.Get(c)
			b.WriteString(c)
			b.WriteByte('\x00')
			b.WriteString(keyOf(v))
			b.WriteByte('\x00')
		}
		if key := b.String(); !seen[key] {
			seen[key] = true
			out = append(out, res)
		}
	}
	return out
}

// ============================================================================
// ORDERING AND LIMIT
// ============================================================================

// order sorts results stably by the order-by pairs, primary pair first.
func (e *Engine) order(f *frame, orderBy []models.OrderBy, results []result) error {
	if len(orderBy) == 0 {
		return nil
	}
	keys := make([][]any, len(results))
	for i, res := range results {
		s := groupScope{e: e, f: f, g: res.g, out: res.out}
		keys[i] = make([]any, len(orderBy))
		for k, ob := range orderBy {
			v, err := s.value(ob.Column)
			if err != nil {
				return err
			}
			keys[i][k] = v
		}
	}

	idx := make([]int, len(results))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		for k, ob := range orderBy {
			c := e.compare(keys[idx[a]][k], keys[idx[b]][k])
			if c == 0 {
				continue
			}
			if ob.Direction == models.Descending {
				return c > 0
			}
			return c < 0
		}
		return false
	})

	sorted := make([]result, len(results))
	for i, j := range idx {
		sorted[i] = results[j]
	}
	copy(results, sorted)
	return nil
}

// window applies offset then limit.
func window(results []result, limit *int, offset int) []result {
	if offset > 0 {
		if offset >= len(results) {
			return nil
		}
		results = results[offset:]
	}
	if limit != nil && *limit < len(results) {
		if *limit <= 0 {
			return nil
		}
		results = results[:*limit]
	}
	return results
}
