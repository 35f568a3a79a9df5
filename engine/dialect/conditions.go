package dialect

import (
	"strings"

	dberrors "github.com/omniql-engine/flatql/engine/errors"
	"github.com/omniql-engine/flatql/engine/models"
	"github.com/omniql-engine/flatql/mapping"
)

// conditions renders sibling nodes as a left-to-right fold. Whenever the
// junction changes, the expression so far is parenthesised so SQL precedence
// cannot regroup it.
func (r *renderer) conditions(list []models.Condition) (string, error) {
	var acc string
	var prev models.Junction
	for i, c := range list {
		clause, err := r.condition(c)
		if err != nil {
			return "", err
		}
		if i == 0 {
			acc = clause
			continue
		}
		junction := c.Junction
		if junction == "" || junction == models.JunctionNone {
			junction = models.JunctionAnd
		}
		if i >= 2 && junction != prev {
			acc = "(" + acc + ")"
		}
		acc += " " + string(junction) + " " + clause
		prev = junction
	}
	return acc, nil
}

func (r *renderer) condition(c models.Condition) (string, error) {
	switch c.Kind {
	case models.Group:
		if len(c.Children) == 0 {
			return "", dberrors.NewQueryError("dialect.where", "empty condition group")
		}
		inner, err := r.conditions(c.Children)
		if err != nil {
			return "", err
		}
		return "(" + inner + ")", nil
	case models.Raw:
		return r.raw(c)
	case models.Comparison, "":
		return r.comparison(c)
	}
	return "", dberrors.NewQueryError("dialect.where", "unsupported condition kind %s", c.Kind)
}

func (r *renderer) raw(c models.Condition) (string, error) {
	if n := CountPlaceholders(c.Fragment); n != len(c.Args) {
		return "", dberrors.NewQueryError("dialect.where", "fragment has %d placeholders but %d values", n, len(c.Args))
	}
	return "(" + replacePlaceholders(c.Fragment, func(i int) string { return r.value(c.Args[i]) }) + ")", nil
}

func (r *renderer) comparison(c models.Condition) (string, error) {
	col := r.ident(c.Column)
	op := mapping.RenderOperator(r.dbType, c.Operator)

	switch mapping.GetOperatorCategory(c.Operator) {
	case "NULLCHECK":
		return col + " " + op, nil
	case "MULTI_VALUE":
		if len(c.Values) == 0 {
			if c.Operator == "IN" {
				return "1 = 0", nil
			}
			return "1 = 1", nil
		}
		vals := make([]string, len(c.Values))
		for i, v := range c.Values {
			vals[i] = r.value(v)
		}
		return col + " " + op + " (" + strings.Join(vals, ", ") + ")", nil
	case "RANGE":
		low := r.value(c.Value)
		high := r.value(c.Value2)
		return col + " " + op + " " + low + " AND " + high, nil
	case "COMPARISON":
		if ref, ok := c.Value.(string); ok && c.ValueIsColumn {
			return col + " " + op + " " + r.ident(ref), nil
		}
		return col + " " + op + " " + r.value(c.Value), nil
	}
	return "", dberrors.NewQueryError("dialect.where", "unknown operator %q", c.Operator)
}
