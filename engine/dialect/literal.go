package dialect

import (
	"strconv"
	"strings"

	"github.com/omniql-engine/flatql/engine/models"
	"github.com/omniql-engine/flatql/mapping"
)

// Literal renders a value as an SQL literal in the given dialect.
func Literal(v any, d mapping.DialectStyle) string {
	switch x := models.NormalizeValue(v).(type) {
	case nil:
		return "NULL"
	case bool:
		if x {
			return d.True
		}
		return d.False
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case string:
		return "'" + strings.ReplaceAll(x, "'", "''") + "'"
	default:
		return "NULL"
	}
}

// QuoteIdentifier quotes every part of a possibly qualified identifier.
// "*" parts and aggregate text are rendered with only their column quoted.
func QuoteIdentifier(name string, q mapping.QuoteStyle) string {
	if agg, ok := models.ParseAggregate(name); ok {
		return renderAggregate(agg, q)
	}
	parts := strings.Split(name, ".")
	for i, p := range parts {
		if p == "*" {
			continue
		}
		parts[i] = quotePart(p, q)
	}
	return strings.Join(parts, ".")
}

func quotePart(p string, q mapping.QuoteStyle) string {
	if q.Open == "" {
		return p
	}
	if q.Close != "" {
		p = strings.ReplaceAll(p, q.Close, q.Close+q.Close)
	}
	return q.Open + p + q.Close
}

func renderAggregate(c models.SelectColumn, q mapping.QuoteStyle) string {
	arg := c.Argument
	if arg != "*" {
		arg = QuoteIdentifier(arg, q)
	}
	if c.Distinct {
		arg = "DISTINCT " + arg
	}
	return string(c.Aggregate) + "(" + arg + ")"
}
