package builder

import (
	"regexp"
	"strings"

	dberrors "github.com/omniql-engine/flatql/engine/errors"
	"github.com/omniql-engine/flatql/engine/models"
)

var (
	identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*|\.\*)?$`)
	functionPattern   = regexp.MustCompile(`^([A-Za-z_]+)\s*\(.*\)$`)
	aliasPattern      = regexp.MustCompile(`(?i)^(.+?)(?:\s+AS)?\s+([A-Za-z_][A-Za-z0-9_]*)$`)
)

// ParseSelectColumn parses one projection: "name", "u.name", "*", "u.*",
// "COUNT(*)", "SUM(total) AS revenue", "COUNT(DISTINCT city) cities".
func ParseSelectColumn(expr string) (models.SelectColumn, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return models.SelectColumn{}, dberrors.NewQueryError("builder.select", "empty column expression")
	}

	var col models.SelectColumn
	body := expr
	if !isIdentifier(expr) && expr != "*" && !isAggregateText(expr) {
		m := aliasPattern.FindStringSubmatch(expr)
		if m == nil {
			return col, dberrors.NewQueryError("builder.select", "unsupported column expression %q", expr)
		}
		body, col.Alias = strings.TrimSpace(m[1]), m[2]
	}

	if agg, ok := models.ParseAggregate(body); ok {
		agg.Alias = col.Alias
		if agg.Argument == "*" && agg.Aggregate != models.Count {
			return col, dberrors.NewQueryError("builder.select", "%s(*) is not supported", agg.Aggregate)
		}
		return agg, nil
	}
	if m := functionPattern.FindStringSubmatch(body); m != nil {
		return col, dberrors.NewQueryError("builder.select", "unsupported function %s", strings.ToUpper(m[1]))
	}

	if body != "*" && !isIdentifier(body) {
		return col, dberrors.NewQueryError("builder.select", "unsupported column expression %q", expr)
	}
	col.Column = body
	return col, nil
}

// ParseSource parses "users", "users u" or "users AS u".
func ParseSource(expr string) (models.Source, error) {
	fields := strings.Fields(expr)
	var src models.Source
	switch {
	case len(fields) == 1:
		src.Table = fields[0]
	case len(fields) == 2:
		src.Table, src.Alias = fields[0], fields[1]
	case len(fields) == 3 && strings.EqualFold(fields[1], "AS"):
		src.Table, src.Alias = fields[0], fields[2]
	default:
		return src, dberrors.NewQueryError("builder.from", "invalid table reference %q", expr)
	}
	if !isPlainIdentifier(src.Table) || (src.Alias != "" && !isPlainIdentifier(src.Alias)) {
		return src, dberrors.NewQueryError("builder.from", "invalid table reference %q", expr)
	}
	return src, nil
}

// splitTopLevel splits on commas outside parentheses.
func splitTopLevel(s string) []string {
	var parts []string
	depth, start := 0, 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	parts = append(parts, strings.TrimSpace(s[start:]))
	return parts
}

func isIdentifier(s string) bool {
	return identifierPattern.MatchString(s)
}

func isPlainIdentifier(s string) bool {
	return isIdentifier(s) && !strings.Contains(s, ".")
}

func isAggregateText(s string) bool {
	return models.IsAggregateText(s)
}
