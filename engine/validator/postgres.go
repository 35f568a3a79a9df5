package validator

import (
	"fmt"

	pg_query "github.com/pganalyze/pg_query_go/v5"
)

// ValidatePostgreSQL checks double-quoted SQL with the PostgreSQL parser.
func ValidatePostgreSQL(query string) error {
	return ValidateSQL(query, "PostgreSQL")
}

// ValidatePostgreSQLWithDetails parses query and requires exactly one
// SELECT, INSERT, UPDATE or DELETE statement.
func ValidatePostgreSQLWithDetails(query string) (*ValidationResult, error) {
	tree, err := pg_query.Parse(query)
	if err != nil {
		return &ValidationResult{Error: err.Error()}, nil
	}
	if len(tree.Stmts) != 1 {
		return &ValidationResult{
			Error:      fmt.Sprintf("expected one statement, got %d", len(tree.Stmts)),
			Suggestion: "render and validate one query at a time",
		}, nil
	}

	node := tree.Stmts[0].GetStmt()
	if node.GetSelectStmt() == nil && node.GetInsertStmt() == nil &&
		node.GetUpdateStmt() == nil && node.GetDeleteStmt() == nil {
		return unsupportedStatement(query), nil
	}
	return &ValidationResult{Valid: true}, nil
}
