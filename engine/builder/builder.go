// Package builder accumulates fluent clause calls into a models.Query.
//
// Every clause method is a pure append onto the current query and returns the
// same builder. Malformed input does not panic: the first error is latched and
// surfaced by Err, and by every caller that consumes the query.
package builder

import (
	"strings"

	dberrors "github.com/omniql-engine/flatql/engine/errors"
	"github.com/omniql-engine/flatql/engine/models"
)

// Builder is one builder session's query state.
type Builder struct {
	query *models.Query
	err   error
}

// New returns an empty builder.
func New() *Builder {
	return &Builder{query: models.NewQuery()}
}

// Reset discards every clause and any latched error.
func (b *Builder) Reset() *Builder {
	b.query = models.NewQuery()
	b.err = nil
	return b
}

// Err returns the first error latched by a clause call.
func (b *Builder) Err() error {
	return b.err
}

// Query returns a snapshot of the current AST together with the latched error.
func (b *Builder) Query() (*models.Query, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.query.Clone(), nil
}

func (b *Builder) fail(err error) *Builder {
	if b.err == nil {
		b.err = err
	}
	return b
}

// ============================================================================
// SELECT / FROM
// ============================================================================

// Select appends projected columns. Each argument may hold several
// comma-separated expressions: "id, name", "COUNT(*) AS total", "u.*".
func (b *Builder) Select(columns ...string) *Builder {
	for _, arg := range columns {
		for _, expr := range splitTopLevel(arg) {
			col, err := ParseSelectColumn(expr)
			if err != nil {
				return b.fail(err)
			}
			b.query.Columns = append(b.query.Columns, col)
		}
	}
	return b
}

// Distinct switches the select type to DISTINCT.
func (b *Builder) Distinct() *Builder {
	b.query.SelectType = models.SelectDistinct
	return b
}

// From appends source tables: "users", "users u" or "users AS u".
func (b *Builder) From(tables ...string) *Builder {
	for _, arg := range tables {
		for _, expr := range splitTopLevel(arg) {
			src, err := ParseSource(expr)
			if err != nil {
				return b.fail(err)
			}
			b.query.From = append(b.query.From, src)
		}
	}
	return b
}

// ============================================================================
// JOIN / ON
// ============================================================================

// Join appends a join of the given kind. Optional on arguments are handled
// like a following On call.
func (b *Builder) Join(kind models.JoinKind, table string, on ...any) *Builder {
	src, err := ParseSource(table)
	if err != nil {
		return b.fail(err)
	}
	b.query.Joins = append(b.query.Joins, models.Join{Kind: kind, Source: src})
	if len(on) > 0 {
		return b.On(on...)
	}
	return b
}

func (b *Builder) InnerJoin(table string, on ...any) *Builder {
	return b.Join(models.InnerJoin, table, on...)
}

func (b *Builder) LeftJoin(table string, on ...any) *Builder {
	return b.Join(models.LeftJoin, table, on...)
}

func (b *Builder) RightJoin(table string, on ...any) *Builder {
	return b.Join(models.RightJoin, table, on...)
}

func (b *Builder) OuterJoin(table string, on ...any) *Builder {
	return b.Join(models.OuterJoin, table, on...)
}

func (b *Builder) CrossJoin(table string) *Builder {
	return b.Join(models.CrossJoin, table)
}

// SelfJoin joins the primary table to itself under alias.
func (b *Builder) SelfJoin(alias string, on ...any) *Builder {
	if len(b.query.From) == 0 {
		return b.fail(dberrors.NewQueryError("builder.join", "self join requires a FROM table"))
	}
	return b.Join(models.SelfJoin, b.query.From[0].Table+" "+alias, on...)
}

// On adds a column-to-column predicate to the last join.
func (b *Builder) On(args ...any) *Builder {
	return b.addOn("builder.on", models.JunctionNone, args)
}

func (b *Builder) AndOn(args ...any) *Builder {
	return b.addOn("builder.andOn", models.JunctionAnd, args)
}

func (b *Builder) OrOn(args ...any) *Builder {
	return b.addOn("builder.orOn", models.JunctionOr, args)
}

func (b *Builder) addOn(op string, junction models.Junction, args []any) *Builder {
	if len(b.query.Joins) == 0 {
		return b.fail(dberrors.NewQueryError(op, "no join to attach the predicate to"))
	}
	join := &b.query.Joins[len(b.query.Joins)-1]
	nodes, err := parseConditionArgs(op, args, junction, true)
	if err != nil {
		return b.fail(err)
	}
	for _, n := range nodes {
		join.On.Append(n)
	}
	return b
}

// ============================================================================
// WHERE / HAVING
// ============================================================================

// Where adds a condition with the NONE junction. See parseConditionArgs for
// the accepted shapes.
func (b *Builder) Where(args ...any) *Builder {
	return b.addWhere("builder.where", &b.query.Where, models.JunctionNone, args)
}

func (b *Builder) AndWhere(args ...any) *Builder {
	return b.addWhere("builder.andWhere", &b.query.Where, models.JunctionAnd, args)
}

func (b *Builder) OrWhere(args ...any) *Builder {
	return b.addWhere("builder.orWhere", &b.query.Where, models.JunctionOr, args)
}

func (b *Builder) Having(args ...any) *Builder {
	return b.addWhere("builder.having", &b.query.Having, models.JunctionNone, args)
}

func (b *Builder) AndHaving(args ...any) *Builder {
	return b.addWhere("builder.andHaving", &b.query.Having, models.JunctionAnd, args)
}

func (b *Builder) OrHaving(args ...any) *Builder {
	return b.addWhere("builder.orHaving", &b.query.Having, models.JunctionOr, args)
}

func (b *Builder) addWhere(op string, tree *models.ConditionTree, junction models.Junction, args []any) *Builder {
	nodes, err := parseConditionArgs(op, args, junction, false)
	if err != nil {
		return b.fail(err)
	}
	for _, n := range nodes {
		tree.Append(n)
	}
	return b
}

// WhereRaw adds a verbatim fragment with ? markers bound to args.
func (b *Builder) WhereRaw(fragment string, args ...any) *Builder {
	return b.addRaw("builder.whereRaw", models.JunctionNone, fragment, args)
}

func (b *Builder) AndWhereRaw(fragment string, args ...any) *Builder {
	return b.addRaw("builder.andWhereRaw", models.JunctionAnd, fragment, args)
}

func (b *Builder) OrWhereRaw(fragment string, args ...any) *Builder {
	return b.addRaw("builder.orWhereRaw", models.JunctionOr, fragment, args)
}

func (b *Builder) addRaw(op string, junction models.Junction, fragment string, args []any) *Builder {
	node, err := rawCondition(op, fragment, args, junction)
	if err != nil {
		return b.fail(err)
	}
	b.query.Where.Append(node)
	return b
}

// ============================================================================
// GROUP / ORDER / LIMIT
// ============================================================================

// Group appends group-by columns.
func (b *Builder) Group(columns ...string) *Builder {
	for _, arg := range columns {
		for _, col := range splitTopLevel(arg) {
			if !isIdentifier(col) {
				return b.fail(dberrors.NewQueryError("builder.group", "invalid group column %q", col))
			}
			b.query.GroupBy = append(b.query.GroupBy, col)
		}
	}
	return b
}

// Order appends one order-by pair. Direction defaults to ASC.
func (b *Builder) Order(column string, direction ...string) *Builder {
	dir := models.Ascending
	if len(direction) > 0 {
		switch strings.ToUpper(strings.TrimSpace(direction[0])) {
		case "ASC", "":
		case "DESC":
			dir = models.Descending
		default:
			return b.fail(dberrors.NewQueryError("builder.order", "invalid direction %q", direction[0]))
		}
	}
	column = strings.TrimSpace(column)
	if !isIdentifier(column) && !isAggregateText(column) {
		return b.fail(dberrors.NewQueryError("builder.order", "invalid order column %q", column))
	}
	b.query.OrderBy = append(b.query.OrderBy, models.OrderBy{Column: column, Direction: dir})
	return b
}

func (b *Builder) OrderAsc(columns ...string) *Builder {
	for _, c := range columns {
		b.Order(c, "ASC")
	}
	return b
}

func (b *Builder) OrderDesc(columns ...string) *Builder {
	for _, c := range columns {
		b.Order(c, "DESC")
	}
	return b
}

// Limit caps the result at n records, optionally skipping offset records.
func (b *Builder) Limit(n int, offset ...int) *Builder {
	if n < 0 {
		return b.fail(dberrors.NewQueryError("builder.limit", "limit must be >= 0, got %d", n))
	}
	b.query.Limit = &n
	if len(offset) > 0 {
		if offset[0] < 0 {
			return b.fail(dberrors.NewQueryError("builder.limit", "offset must be >= 0, got %d", offset[0]))
		}
		b.query.Offset = offset[0]
	}
	return b
}

// ============================================================================
// WRITE QUERIES
// ============================================================================

// InsertQuery derives an INSERT of rows into the primary table.
func (b *Builder) InsertQuery(rows ...models.Record) (*models.Query, error) {
	q, err := b.writeBase("builder.insert")
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, dberrors.NewQueryError("builder.insert", "nothing to insert")
	}
	q.Operation = models.OpInsert
	q.Rows = models.CloneRecords(rows)
	return q, nil
}

// UpdateQuery derives an UPDATE of the rows matching WHERE.
func (b *Builder) UpdateQuery(patch models.Record) (*models.Query, error) {
	q, err := b.writeBase("builder.update")
	if err != nil {
		return nil, err
	}
	if patch.Len() == 0 {
		return nil, dberrors.NewQueryError("builder.update", "empty update patch")
	}
	q.Operation = models.OpUpdate
	q.Set = patch.Clone()
	return q, nil
}

// DeleteQuery derives a DELETE of the rows matching WHERE.
func (b *Builder) DeleteQuery() (*models.Query, error) {
	q, err := b.writeBase("builder.delete")
	if err != nil {
		return nil, err
	}
	q.Operation = models.OpDelete
	return q, nil
}

func (b *Builder) writeBase(op string) (*models.Query, error) {
	q, err := b.Query()
	if err != nil {
		return nil, err
	}
	if len(q.From) == 0 {
		return nil, dberrors.NewQueryError(op, "no table selected")
	}
	return q, nil
}
