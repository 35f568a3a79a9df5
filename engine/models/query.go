package models

// ============================================================================
// QUERY - Neutral representation of one builder session's clauses
// ============================================================================

// Query is the root AST node. It is mutated clause by clause while a builder
// session accumulates calls, and cloned before it is handed to an engine.
type Query struct {
	Operation  Operation
	SelectType SelectType
	Columns    []SelectColumn // empty means *
	From       []Source
	Joins      []Join

	Where  ConditionTree
	Having ConditionTree

	GroupBy []string
	OrderBy []OrderBy
	Limit   *int // nil means no limit
	Offset  int

	// Write payloads
	Rows []Record // INSERT
	Set  Record   // UPDATE
}

// Operation names the statement kind.
type Operation string

const (
	OpSelect Operation = "SELECT"
	OpInsert Operation = "INSERT"
	OpUpdate Operation = "UPDATE"
	OpDelete Operation = "DELETE"
)

// SelectType is ALL or DISTINCT.
type SelectType string

const (
	SelectAll      SelectType = "ALL"
	SelectDistinct SelectType = "DISTINCT"
)

// NewQuery returns an empty SELECT query.
func NewQuery() *Query {
	return &Query{Operation: OpSelect, SelectType: SelectAll}
}

// Table returns the primary table (first FROM source), or "".
func (q *Query) Table() string {
	if len(q.From) == 0 {
		return ""
	}
	return q.From[0].Table
}

// IsWrite reports whether the query mutates records.
func (q *Query) IsWrite() bool {
	return q.Operation == OpInsert || q.Operation == OpUpdate || q.Operation == OpDelete
}

// HasAggregates reports whether any projected column is an aggregate.
func (q *Query) HasAggregates() bool {
	for _, col := range q.Columns {
		if col.Aggregate != "" {
			return true
		}
	}
	return false
}

// Clone returns a deep copy safe to hand to an engine.
func (q *Query) Clone() *Query {
	c := *q
	c.Columns = append([]SelectColumn(nil), q.Columns...)
	c.From = append([]Source(nil), q.From...)
	c.Joins = make([]Join, len(q.Joins))
	for i, j := range q.Joins {
		c.Joins[i] = Join{Kind: j.Kind, Source: j.Source, On: j.On.Clone()}
	}
	if len(q.Joins) == 0 {
		c.Joins = nil
	}
	c.Where = q.Where.Clone()
	c.Having = q.Having.Clone()
	c.GroupBy = append([]string(nil), q.GroupBy...)
	c.OrderBy = append([]OrderBy(nil), q.OrderBy...)
	if q.Limit != nil {
		n := *q.Limit
		c.Limit = &n
	}
	if q.Rows != nil {
		c.Rows = make([]Record, len(q.Rows))
		for i, r := range q.Rows {
			c.Rows[i] = r.Clone()
		}
	}
	c.Set = q.Set.Clone()
	return &c
}

// ============================================================================
// SELECT COLUMNS
// ============================================================================

// SelectColumn is one projected column or aggregate expression.
type SelectColumn struct {
	Column    string        // plain column, "t.col", "*" or "t.*"
	Aggregate AggregateFunc // set for COUNT/SUM/AVG/MIN/MAX
	Argument  string        // aggregate argument, "*" for COUNT(*)
	Distinct  bool          // COUNT(DISTINCT col)
	Alias     string
}

// AggregateFunc represents aggregate function types
type AggregateFunc string

const (
	Count AggregateFunc = "COUNT"
	Sum   AggregateFunc = "SUM"
	Avg   AggregateFunc = "AVG"
	Min   AggregateFunc = "MIN"
	Max   AggregateFunc = "MAX"
)

// Expression returns the canonical expression text, e.g. "COUNT(DISTINCT city)".
func (c SelectColumn) Expression() string {
	if c.Aggregate == "" {
		return c.Column
	}
	arg := c.Argument
	if c.Distinct {
		arg = "DISTINCT " + arg
	}
	return string(c.Aggregate) + "(" + arg + ")"
}

// OutputName is the key the column gets in a result record.
func (c SelectColumn) OutputName() string {
	if c.Alias != "" {
		return c.Alias
	}
	if c.Aggregate != "" {
		return c.Expression()
	}
	return UnqualifiedName(c.Column)
}

// IsStar reports whether the column is * or t.*.
func (c SelectColumn) IsStar() bool {
	return c.Aggregate == "" && (c.Column == "*" || hasSuffix(c.Column, ".*"))
}

// ============================================================================
// SOURCES AND JOINS
// ============================================================================

// Source is a table reference with optional alias.
type Source struct {
	Table string
	Alias string
}

// Name is the identifier rows of this source are qualified with.
func (s Source) Name() string {
	if s.Alias != "" {
		return s.Alias
	}
	return s.Table
}

// Join represents a JOIN clause
type Join struct {
	Kind   JoinKind
	Source Source
	On     ConditionTree
}

// JoinKind represents the type of join
type JoinKind string

const (
	InnerJoin JoinKind = "INNER"
	LeftJoin  JoinKind = "LEFT"
	RightJoin JoinKind = "RIGHT"
	OuterJoin JoinKind = "OUTER"
	CrossJoin JoinKind = "CROSS"
	SelfJoin  JoinKind = "SELF"
)

// ============================================================================
// ORDER BY
// ============================================================================

// OrderBy represents ORDER BY clause
type OrderBy struct {
	Column    string
	Direction SortDirection
}

// SortDirection represents sort order
type SortDirection string

const (
	Ascending  SortDirection = "ASC"
	Descending SortDirection = "DESC"
)

// ============================================================================
// HELPERS
// ============================================================================

// UnqualifiedName strips a "table." prefix.
func UnqualifiedName(column string) string {
	for i := len(column) - 1; i >= 0; i-- {
		if column[i] == '.' {
			return column[i+1:]
		}
	}
	return column
}

// SplitQualified splits "t.col" into ("t", "col"); unqualified names return ("", col).
func SplitQualified(column string) (string, string) {
	for i := len(column) - 1; i >= 0; i-- {
		if column[i] == '.' {
			return column[:i], column[i+1:]
		}
	}
	return "", column
}

func hasSuffix(s, suffix string) bool {
	return len(s) >= len(suffix) && s[len(s)-len(suffix):] == suffix
}
