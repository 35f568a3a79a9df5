// Package dialect renders a models.Query into SQL text for one dialect.
//
// Build inlines every value as a literal; BuildRaw keeps dialect placeholders
// and returns the bound values in placeholder order. Rendering walks the AST
// in a fixed order, so the same query always renders to the same string.
package dialect

import (
	"fmt"
	"strconv"
	"strings"

	dberrors "github.com/omniql-engine/flatql/engine/errors"
	"github.com/omniql-engine/flatql/engine/models"
	"github.com/omniql-engine/flatql/mapping"
)

// Build renders q with every value inlined as a literal.
func Build(q *models.Query, dbType string) (string, error) {
	sql, _, err := render(q, dbType, true)
	return sql, err
}

// BuildRaw renders q with placeholders and returns the values they bind,
// in order.
func BuildRaw(q *models.Query, dbType string) (string, []any, error) {
	return render(q, dbType, false)
}

type renderer struct {
	dbType string
	style  mapping.DialectStyle
	inline bool
	args   []any
}

func render(q *models.Query, dbType string, inline bool) (string, []any, error) {
	if q == nil {
		return "", nil, dberrors.NewQueryError("dialect.build", "nil query")
	}
	if len(q.From) == 0 {
		return "", nil, dberrors.NewQueryError("dialect.build", "no table selected")
	}
	r := &renderer{dbType: dbType, style: mapping.GetDialect(dbType), inline: inline, args: []any{}}

	var (
		sql string
		err error
	)
	switch q.Operation {
	case models.OpSelect, "":
		sql, err = r.selectSQL(q)
	case models.OpInsert:
		sql, err = r.insertSQL(q)
	case models.OpUpdate:
		sql, err = r.updateSQL(q)
	case models.OpDelete:
		sql, err = r.deleteSQL(q)
	default:
		err = dberrors.NewQueryError("dialect.build", "unsupported operation %s", q.Operation)
	}
	if err != nil {
		return "", nil, err
	}
	return sql, r.args, nil
}

// value renders v either as a literal or as the next placeholder.
func (r *renderer) value(v any) string {
	if r.inline {
		return Literal(v, r.style)
	}
	r.args = append(r.args, models.NormalizeValue(v))
	return r.marker(len(r.args))
}

func (r *renderer) marker(n int) string {
	switch r.style.Placeholder {
	case mapping.PlaceholderDollar:
		return "$" + strconv.Itoa(n)
	case mapping.PlaceholderColon:
		return ":" + strconv.Itoa(n)
	case mapping.PlaceholderAt:
		return "@p" + strconv.Itoa(n)
	default:
		return "?"
	}
}

func (r *renderer) ident(name string) string {
	return QuoteIdentifier(name, r.style.Quote)
}

func (r *renderer) source(src models.Source) string {
	if src.Alias == "" {
		return r.ident(src.Table)
	}
	return r.ident(src.Table) + " " + r.ident(src.Alias)
}

// ============================================================================
// SELECT
// ============================================================================

var joinKeywords = map[models.JoinKind]string{
	models.InnerJoin: "INNER JOIN",
	models.LeftJoin:  "LEFT JOIN",
	models.RightJoin: "RIGHT JOIN",
	models.OuterJoin: "FULL OUTER JOIN",
	models.CrossJoin: "CROSS JOIN",
	models.SelfJoin:  "INNER JOIN",
}

func (r *renderer) selectSQL(q *models.Query) (string, error) {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	if q.SelectType == models.SelectDistinct {
		sb.WriteString("DISTINCT ")
	}
	sb.WriteString(r.columns(q.Columns))

	froms := make([]string, len(q.From))
	for i, src := range q.From {
		froms[i] = r.source(src)
	}
	sb.WriteString(" FROM ")
	sb.WriteString(strings.Join(froms, ", "))

	for _, j := range q.Joins {
		clause, err := r.join(j)
		if err != nil {
			return "", err
		}
		sb.WriteString(clause)
	}

	if !q.Where.Empty() {
		where, err := r.conditions(q.Where.Conditions)
		if err != nil {
			return "", err
		}
		sb.WriteString(" WHERE ")
		sb.WriteString(where)
	}

	if len(q.GroupBy) > 0 {
		groups := make([]string, len(q.GroupBy))
		for i, g := range q.GroupBy {
			groups[i] = r.ident(g)
		}
		sb.WriteString(" GROUP BY ")
		sb.WriteString(strings.Join(groups, ", "))
	}

	if !q.Having.Empty() {
		having, err := r.conditions(q.Having.Conditions)
		if err != nil {
			return "", err
		}
		sb.WriteString(" HAVING ")
		sb.WriteString(having)
	}

	if len(q.OrderBy) > 0 {
		parts := make([]string, len(q.OrderBy))
		for i, ob := range q.OrderBy {
			parts[i] = r.ident(ob.Column) + " " + string(ob.Direction)
		}
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(parts, ", "))
	}

	sb.WriteString(r.limit(q))
	return sb.String(), nil
}

func (r *renderer) columns(cols []models.SelectColumn) string {
	if len(cols) == 0 {
		return "*"
	}
	parts := make([]string, len(cols))
	for i, c := range cols {
		var s string
		if c.Aggregate != "" {
			s = renderAggregate(c, r.style.Quote)
		} else {
			s = r.ident(c.Column)
		}
		if c.Alias != "" {
			s += " AS " + r.ident(c.Alias)
		}
		parts[i] = s
	}
	return strings.Join(parts, ", ")
}

func (r *renderer) join(j models.Join) (string, error) {
	kw, ok := joinKeywords[j.Kind]
	if !ok {
		return "", dberrors.NewQueryError("dialect.build", "unsupported join kind %s", j.Kind)
	}
	if j.Kind == models.CrossJoin && !j.On.Empty() {
		kw = joinKeywords[models.InnerJoin]
	}
	clause := " " + kw + " " + r.source(j.Source)
	switch {
	case kw == joinKeywords[models.CrossJoin]:
		return clause, nil
	case j.On.Empty():
		return clause + " ON 1 = 1", nil
	}
	on, err := r.conditions(j.On.Conditions)
	if err != nil {
		return "", err
	}
	return clause + " ON " + on, nil
}

func (r *renderer) limit(q *models.Query) string {
	if q.Limit == nil && q.Offset == 0 {
		return ""
	}
	if r.style.Limit == mapping.OffsetFetch {
		s := ""
		if r.style.Name == "SQLServer" && len(q.OrderBy) == 0 {
			s = " ORDER BY (SELECT NULL)"
		}
		s += fmt.Sprintf(" OFFSET %d ROWS", q.Offset)
		if q.Limit != nil {
			s += fmt.Sprintf(" FETCH NEXT %d ROWS ONLY", *q.Limit)
		}
		return s
	}
	if q.Limit != nil {
		s := fmt.Sprintf(" LIMIT %d", *q.Limit)
		if q.Offset > 0 {
			s += fmt.Sprintf(" OFFSET %d", q.Offset)
		}
		return s
	}
	switch r.style.Name {
	case "MySQL":
		return fmt.Sprintf(" LIMIT 18446744073709551615 OFFSET %d", q.Offset)
	case "SQLite":
		return fmt.Sprintf(" LIMIT -1 OFFSET %d", q.Offset)
	}
	return fmt.Sprintf(" OFFSET %d", q.Offset)
}

// ============================================================================
// WRITES
// ============================================================================

func (r *renderer) insertSQL(q *models.Query) (string, error) {
	if len(q.Rows) == 0 {
		return "", dberrors.NewQueryError("dialect.insert", "nothing to insert")
	}
	var cols []string
	seen := make(map[string]bool)
	for _, row := range q.Rows {
		for _, c := range row.Columns() {
			if !seen[c] {
				seen[c] = true
				cols = append(cols, c)
			}
		}
	}

	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = r.ident(c)
	}
	tuples := make([]string, len(q.Rows))
	for i, row := range q.Rows {
		vals := make([]string, len(cols))
		for j, c := range cols {
			v, _ := row.Get(c)
			vals[j] = r.value(v)
		}
		tuples[i] = "(" + strings.Join(vals, ", ") + ")"
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		r.ident(q.Table()), strings.Join(quoted, ", "), strings.Join(tuples, ", ")), nil
}

func (r *renderer) updateSQL(q *models.Query) (string, error) {
	if q.Set.Len() == 0 {
		return "", dberrors.NewQueryError("dialect.update", "empty update patch")
	}
	cols := q.Set.Columns()
	sets := make([]string, len(cols))
	for i, c := range cols {
		v, _ := q.Set.Get(c)
		sets[i] = r.ident(c) + " = " + r.value(v)
	}
	sql := "UPDATE " + r.ident(q.Table()) + " SET " + strings.Join(sets, ", ")
	return r.withWhere(sql, q)
}

func (r *renderer) deleteSQL(q *models.Query) (string, error) {
	return r.withWhere("DELETE FROM "+r.ident(q.Table()), q)
}

func (r *renderer) withWhere(sql string, q *models.Query) (string, error) {
	if q.Where.Empty() {
		return sql, nil
	}
	where, err := r.conditions(q.Where.Conditions)
	if err != nil {
		return "", err
	}
	return sql + " WHERE " + where, nil
}
