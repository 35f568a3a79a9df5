package executor

import (
	"math"
	"strconv"
	"strings"

	dberrors "github.com/omniql-engine/flatql/engine/errors"
	"github.com/omniql-engine/flatql/engine/models"
)

// group is a partition of the filtered rows. Ungrouped queries without
// aggregates run every row as its own group.
type group struct {
	rows []*row
}

func (g *group) first() *row {
	if len(g.rows) == 0 {
		return nil
	}
	return g.rows[0]
}

// groupScope resolves HAVING and ORDER BY references for one group: aggregate
// text is computed over the group, projected names come from the output
// record, anything else from the group's first row.
type groupScope struct {
	e   *Engine
	f   *frame
	g   *group
	out models.Record
}

func (s groupScope) value(column string) (any, error) {
	if agg, ok := models.ParseAggregate(column); ok {
		return s.e.aggregate(s.f, s.g, agg)
	}
	if v, ok := s.out.Get(column); ok {
		return v, nil
	}
	first := s.g.first()
	if first == nil {
		return nil, nil
	}
	return s.f.lookup(first, column)
}

// checkGroupColumn resolves a HAVING or ORDER BY reference the way
// groupScope.value does, without needing a group. Empty groups would
// otherwise let any name through.
func checkGroupColumn(f *frame, q *models.Query) func(column string) error {
	return func(column string) error {
		if agg, ok := models.ParseAggregate(column); ok {
			if agg.Argument == "*" {
				return nil
			}
			return f.check(agg.Argument)
		}
		for _, col := range q.Columns {
			if col.OutputName() == column {
				return nil
			}
		}
		return f.check(column)
	}
}

// checkProjection resolves the projected and grouped columns.
func checkProjection(f *frame, q *models.Query) error {
	for _, col := range q.Columns {
		switch {
		case col.Aggregate != "":
			if col.Argument == "*" {
				continue
			}
			if err := f.check(col.Argument); err != nil {
				return err
			}
		case col.Column == "*":
		case col.IsStar():
			qual, _ := models.SplitQualified(col.Column)
			if _, ok := f.byName[qual]; !ok {
				return unknownColumn(col.Column)
			}
		default:
			if err := f.check(col.Column); err != nil {
				return err
			}
		}
	}
	for _, col := range q.GroupBy {
		if err := f.check(col); err != nil {
			return err
		}
	}
	return nil
}

// partition groups rows by the tuple of the group-by columns, keeping
// first-seen order.
func (e *Engine) partition(f *frame, q *models.Query, rows []*row) ([]*group, error) {
	if len(q.GroupBy) == 0 {
		if q.HasAggregates() {
			return []*group{{rows: rows}}, nil
		}
		groups := make([]*group, len(rows))
		for i, r := range rows {
			groups[i] = &group{rows: []*row{r}}
		}
		return groups, nil
	}

	var groups []*group
	index := make(map[string]*group)
	for _, r := range rows {
		parts := make([]string, len(q.GroupBy))
		for i, col := range q.GroupBy {
			v, err := f.lookup(r, col)
			if err != nil {
				return nil, err
			}
			parts[i] = keyOf(v)
		}
		key := strings.Join(parts, "\x00")
		g, ok := index[key]
		if !ok {
			g = &group{}
			index[key] = g
			groups = append(groups, g)
		}
		g.rows = append(g.rows, r)
	}
	return groups, nil
}

// keyOf is an equality key: numbers compare by value regardless of type.
func keyOf(v any) string {
	switch x := v.(type) {
	case nil:
		return "\x01"
	case int64:
		return "n" + strconv.FormatFloat(float64(x), 'g', -1, 64)
	case float64:
		return "n" + strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		return "b" + strconv.FormatBool(x)
	}
	return "s" + models.FormatScalar(v)
}

// aggregate computes COUNT, SUM, AVG, MIN or MAX over a group.
func (e *Engine) aggregate(f *frame, g *group, col models.SelectColumn) (any, error) {
	if col.Argument == "*" {
		if col.Aggregate != models.Count {
			return nil, dberrors.NewQueryError("executor.aggregate", "%s(*) is not supported", col.Aggregate)
		}
		return int64(len(g.rows)), nil
	}

	var values []any
	seen := make(map[string]bool)
	for _, r := range g.rows {
		v, err := f.lookup(r, col.Argument)
		if err != nil {
			return nil, err
		}
		if v == nil {
			continue
		}
		if col.Distinct {
			k := keyOf(v)
			if seen[k] {
				continue
			}
			seen[k] = true
		}
		values = append(values, v)
	}

	switch col.Aggregate {
	case models.Count:
		return int64(len(values)), nil
	case models.Min, models.Max:
		var best any
		for _, v := range values {
			c := e.compare(v, best)
			if best == nil || (col.Aggregate == models.Min && c < 0) || (col.Aggregate == models.Max && c > 0) {
				best = v
			}
		}
		return best, nil
	case models.Sum, models.Avg:
		if len(values) == 0 {
			return nil, nil
		}
		var total float64
		integral := true
		for _, v := range values {
			n, ok := models.ToFloat(v)
			if !ok {
				return nil, dberrors.NewQueryError("executor.aggregate",
					"%s over non-numeric value %q in %s", col.Aggregate, models.FormatScalar(v), col.Argument)
			}
			if _, isInt := v.(int64); !isInt {
				integral = false
			}
			total += n
		}
		if col.Aggregate == models.Avg {
			return total / float64(len(values)), nil
		}
		if integral && math.Abs(total) < 1<<53 {
			return int64(total), nil
		}
		return total, nil
	}
	return nil, dberrors.NewQueryError("executor.aggregate", "unsupported aggregate %s", col.Aggregate)
}
