package models

import (
	"regexp"
	"strings"

	"github.com/omniql-engine/flatql/mapping"
)

var aggregatePattern = regexp.MustCompile(`(?i)^\s*([A-Z]+)\s*\(\s*(DISTINCT\s+)?([A-Za-z0-9_.*]+)\s*\)\s*$`)

// ParseAggregate recognises aggregate text such as "COUNT(*)" or
// "SUM(DISTINCT o.total)". The function name is upper-cased.
func ParseAggregate(text string) (SelectColumn, bool) {
	m := aggregatePattern.FindStringSubmatch(text)
	if m == nil || !mapping.IsAggregate(m[1]) {
		return SelectColumn{}, false
	}
	return SelectColumn{
		Aggregate: AggregateFunc(strings.ToUpper(m[1])),
		Argument:  m[3],
		Distinct:  m[2] != "",
	}, true
}

// IsAggregateText reports whether text is an aggregate expression.
func IsAggregateText(text string) bool {
	_, ok := ParseAggregate(text)
	return ok
}
