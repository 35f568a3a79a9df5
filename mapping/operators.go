package mapping

import "strings"

// OperatorMap - Runtime mapping for the renderer
// Usage: OperatorMap["PostgreSQL"]["ILIKE"] returns "ILIKE"
var OperatorMap = map[string]map[string]string{
	"PostgreSQL": {
		// Basic comparison operators
		"=":  "=",
		"!=": "!=",
		">":  ">",
		"<":  "<",
		">=": ">=",
		"<=": "<=",

		// Advanced operators
		"IN":          "IN",
		"NOT_IN":      "NOT IN",
		"BETWEEN":     "BETWEEN",
		"NOT_BETWEEN": "NOT BETWEEN",
		"LIKE":        "LIKE",
		"NOT_LIKE":    "NOT LIKE",
		"ILIKE":       "ILIKE",
		"NOT_ILIKE":   "NOT ILIKE",
		"IS_NULL":     "IS NULL",
		"IS_NOT_NULL": "IS NOT NULL",
	},
	"MySQL": {
		"=":  "=",
		"!=": "!=",
		">":  ">",
		"<":  "<",
		">=": ">=",
		"<=": "<=",

		"IN":          "IN",
		"NOT_IN":      "NOT IN",
		"BETWEEN":     "BETWEEN",
		"NOT_BETWEEN": "NOT BETWEEN",
		"LIKE":        "LIKE",
		"NOT_LIKE":    "NOT LIKE",
		"ILIKE":       "LIKE", // MySQL doesn't have ILIKE, default collation is case-insensitive
		"NOT_ILIKE":   "NOT LIKE",
		"IS_NULL":     "IS NULL",
		"IS_NOT_NULL": "IS NOT NULL",
	},
	"SQLite": {
		"=":  "=",
		"!=": "!=",
		">":  ">",
		"<":  "<",
		">=": ">=",
		"<=": "<=",

		"IN":          "IN",
		"NOT_IN":      "NOT IN",
		"BETWEEN":     "BETWEEN",
		"NOT_BETWEEN": "NOT BETWEEN",
		"LIKE":        "LIKE",
		"NOT_LIKE":    "NOT LIKE",
		"ILIKE":       "LIKE", // SQLite LIKE is case-insensitive by default
		"NOT_ILIKE":   "NOT LIKE",
		"IS_NULL":     "IS NULL",
		"IS_NOT_NULL": "IS NOT NULL",
	},
	"Oracle": {
		"=":  "=",
		"!=": "<>",
		">":  ">",
		"<":  "<",
		">=": ">=",
		"<=": "<=",

		"IN":          "IN",
		"NOT_IN":      "NOT IN",
		"BETWEEN":     "BETWEEN",
		"NOT_BETWEEN": "NOT BETWEEN",
		"LIKE":        "LIKE",
		"NOT_LIKE":    "NOT LIKE",
		"ILIKE":       "LIKE",
		"NOT_ILIKE":   "NOT LIKE",
		"IS_NULL":     "IS NULL",
		"IS_NOT_NULL": "IS NOT NULL",
	},
	"SQLServer": {
		"=":  "=",
		"!=": "<>",
		">":  ">",
		"<":  "<",
		">=": ">=",
		"<=": "<=",

		"IN":          "IN",
		"NOT_IN":      "NOT IN",
		"BETWEEN":     "BETWEEN",
		"NOT_BETWEEN": "NOT BETWEEN",
		"LIKE":        "LIKE",
		"NOT_LIKE":    "NOT LIKE",
		"ILIKE":       "LIKE", // case sensitivity follows the column collation
		"NOT_ILIKE":   "NOT LIKE",
		"IS_NULL":     "IS NULL",
		"IS_NOT_NULL": "IS NOT NULL",
	},
	"SQL": {
		"=":  "=",
		"!=": "!=",
		">":  ">",
		"<":  "<",
		">=": ">=",
		"<=": "<=",

		"IN":          "IN",
		"NOT_IN":      "NOT IN",
		"BETWEEN":     "BETWEEN",
		"NOT_BETWEEN": "NOT BETWEEN",
		"LIKE":        "LIKE",
		"NOT_LIKE":    "NOT LIKE",
		"ILIKE":       "ILIKE",
		"NOT_ILIKE":   "NOT ILIKE",
		"IS_NULL":     "IS NULL",
		"IS_NOT_NULL": "IS NOT NULL",
	},
}

// OperatorAliases - accepted spellings folded onto the canonical name
var OperatorAliases = map[string]string{
	"==":          "=",
	"<>":          "!=",
	"NOT IN":      "NOT_IN",
	"NOT BETWEEN": "NOT_BETWEEN",
	"NOT LIKE":    "NOT_LIKE",
	"NOT ILIKE":   "NOT_ILIKE",
	"IS NULL":     "IS_NULL",
	"IS NOT NULL": "IS_NOT_NULL",
}

// OperatorCategories - SSOT for operator types
var OperatorCategories = map[string]string{
	// Multi-value operators (IN)
	"IN":     "MULTI_VALUE",
	"NOT_IN": "MULTI_VALUE",

	// Range operators (BETWEEN)
	"BETWEEN":     "RANGE",
	"NOT_BETWEEN": "RANGE",

	// Null check operators (no value needed)
	"IS_NULL":     "NULLCHECK",
	"IS_NOT_NULL": "NULLCHECK",

	// Standard comparison (single value)
	"=":         "COMPARISON",
	"!=":        "COMPARISON",
	">":         "COMPARISON",
	"<":         "COMPARISON",
	">=":        "COMPARISON",
	"<=":        "COMPARISON",
	"LIKE":      "COMPARISON",
	"NOT_LIKE":  "COMPARISON",
	"ILIKE":     "COMPARISON",
	"NOT_ILIKE": "COMPARISON",
}

// AggregateFunctions - SSOT for aggregate names usable in projections
var AggregateFunctions = map[string]bool{
	"COUNT": true,
	"SUM":   true,
	"AVG":   true,
	"MIN":   true,
	"MAX":   true,
}

// NormalizeOperator folds an operator spelling ("not in", "<>") to its
// canonical name and reports whether it is known.
func NormalizeOperator(op string) (string, bool) {
	upper := strings.Join(strings.Fields(strings.ToUpper(op)), " ")
	if alias, ok := OperatorAliases[upper]; ok {
		upper = alias
	}
	upper = strings.ReplaceAll(upper, " ", "_")
	_, ok := OperatorCategories[upper]
	return upper, ok
}

// GetOperatorCategory returns the category for an operator
func GetOperatorCategory(op string) string {
	return OperatorCategories[strings.ToUpper(op)]
}

// RenderOperator returns the dialect spelling of a canonical operator.
func RenderOperator(dbType, op string) string {
	ops, ok := OperatorMap[dbType]
	if !ok {
		ops = OperatorMap["SQL"]
	}
	if rendered, ok := ops[op]; ok {
		return rendered
	}
	return op
}

// IsAggregate checks if name is an aggregate function
func IsAggregate(name string) bool {
	return AggregateFunctions[strings.ToUpper(name)]
}
