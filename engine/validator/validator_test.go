package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dberrors "github.com/omniql-engine/flatql/engine/errors"
)

func TestValidateMySQL(t *testing.T) {
	assert.NoError(t, ValidateMySQL("SELECT `id`, `name` FROM `users` WHERE `age` > 30 ORDER BY `name` DESC LIMIT 10"))

	err := ValidateMySQL("SELEC id FROM users")
	require.Error(t, err)
	assert.ErrorIs(t, err, dberrors.ErrValidation)
}

func TestValidatePostgreSQL(t *testing.T) {
	assert.NoError(t, ValidatePostgreSQL(`SELECT "id" FROM "users" WHERE "age" > 30 LIMIT 10 OFFSET 5`))
	assert.Error(t, ValidatePostgreSQL(`SELECT FROM WHERE`))
}

func TestValidateRequotesOtherDialects(t *testing.T) {
	assert.NoError(t, ValidateSQL("SELECT [id] FROM [users] ORDER BY (SELECT NULL) OFFSET 0 ROWS FETCH NEXT 3 ROWS ONLY", "SQLServer"))
	assert.NoError(t, For("CSV").Validate(`SELECT * FROM "users" WHERE "age" > 30`))

	res, err := ValidateSQLWithDetails(`SELECT * FROM`, "Oracle")
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.NotEmpty(t, res.Error)
}

func TestValidateEmptyQuery(t *testing.T) {
	assert.ErrorIs(t, ValidateSQL("", "MySQL"), dberrors.ErrValidation)
}

func TestValidateRejectsOtherStatements(t *testing.T) {
	res, err := ValidateMySQLWithDetails("DROP TABLE t")
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.NotEmpty(t, res.Suggestion)

	res, err = ValidatePostgreSQLWithDetails(`DROP TABLE "users"`)
	require.NoError(t, err)
	assert.False(t, res.Valid)

	res, err = ValidatePostgreSQLWithDetails("SELECT 1; SELECT 2")
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Contains(t, res.Error, "got 2")

	var derr *dberrors.Error
	require.ErrorAs(t, ValidateSQL(`DELETE FROM "t"; DELETE FROM "u"`, "SQLite"), &derr)
	assert.Equal(t, "render and validate one query at a time", derr.Hint)
}
