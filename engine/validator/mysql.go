package validator

import (
	"github.com/xwb1989/sqlparser"
)

// ValidateMySQL checks backtick-quoted SQL with the MySQL grammar.
func ValidateMySQL(query string) error {
	return ValidateSQL(query, "MySQL")
}

// ValidateMySQLWithDetails parses query and accepts only the statement kinds
// the renderer emits. A UNION counts as a query.
func ValidateMySQLWithDetails(query string) (*ValidationResult, error) {
	stmt, err := sqlparser.Parse(query)
	if err != nil {
		return &ValidationResult{Error: err.Error()}, nil
	}

	switch stmt.(type) {
	case *sqlparser.Select, *sqlparser.Union, *sqlparser.Insert, *sqlparser.Update, *sqlparser.Delete:
		return &ValidationResult{Valid: true}, nil
	}
	return unsupportedStatement(sqlparser.String(stmt)), nil
}
