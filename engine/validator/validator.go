// Package validator checks that rendered SQL parses in its target dialect.
package validator

import (
	"fmt"

	"github.com/omniql-engine/flatql/engine/dialect"
	dberrors "github.com/omniql-engine/flatql/engine/errors"
	"github.com/omniql-engine/flatql/mapping"
)

// Validator validates rendered queries before execution
type Validator interface {
	Validate(query string) error
	ValidateWithDetails(query string) (*ValidationResult, error)
}

// ValidationResult contains detailed validation info
type ValidationResult struct {
	Valid      bool
	Error      string
	Suggestion string
}

// ValidateSQL validates rendered SQL based on database type. MySQL text goes
// through the MySQL grammar; every other dialect is requoted with double
// quotes and checked by the PostgreSQL parser.
func ValidateSQL(query string, dbType string) error {
	res, err := ValidateSQLWithDetails(query, dbType)
	if err != nil {
		return err
	}
	if !res.Valid {
		return dberrors.NewValidationError("validator."+dbType, "%s", res.Error).WithHint(res.Suggestion)
	}
	return nil
}

// ValidateSQLWithDetails returns detailed validation result
func ValidateSQLWithDetails(query string, dbType string) (*ValidationResult, error) {
	if query == "" {
		return nil, dberrors.NewValidationError("validator", "empty query")
	}
	switch dbType {
	case "MySQL":
		return ValidateMySQLWithDetails(query)
	case "PostgreSQL":
		return ValidatePostgreSQLWithDetails(query)
	}
	quote := mapping.GetDialect(dbType).Quote
	return ValidatePostgreSQLWithDetails(dialect.Parse(query, quote, mapping.QuoteDouble))
}

func unsupportedStatement(stmt string) *ValidationResult {
	return &ValidationResult{
		Error:      fmt.Sprintf("unsupported statement %q", stmt),
		Suggestion: "only SELECT, INSERT, UPDATE and DELETE are rendered",
	}
}

// For returns a Validator bound to one database type.
func For(dbType string) Validator {
	return boundValidator(dbType)
}

type boundValidator string

func (v boundValidator) Validate(query string) error {
	return ValidateSQL(query, string(v))
}

func (v boundValidator) ValidateWithDetails(query string) (*ValidationResult, error) {
	return ValidateSQLWithDetails(query, string(v))
}
