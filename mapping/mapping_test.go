package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeOperator(t *testing.T) {
	cases := map[string]string{
		"=":           "=",
		"<>":          "!=",
		"not in":      "NOT_IN",
		"NOT  IN":     "NOT_IN",
		"is null":     "IS_NULL",
		"Is Not Null": "IS_NOT_NULL",
		"like":        "LIKE",
		"NOT_BETWEEN": "NOT_BETWEEN",
	}
	for in, want := range cases {
		got, ok := NormalizeOperator(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	_, ok := NormalizeOperator("~~")
	assert.False(t, ok)
}

func TestRenderOperatorPerDialect(t *testing.T) {
	assert.Equal(t, "ILIKE", RenderOperator("PostgreSQL", "ILIKE"))
	assert.Equal(t, "LIKE", RenderOperator("MySQL", "ILIKE"))
	assert.Equal(t, "<>", RenderOperator("SQLServer", "!="))
	assert.Equal(t, "NOT IN", RenderOperator("CSV", "NOT_IN"))
}

func TestDatabaseClassification(t *testing.T) {
	assert.True(t, IsFlatFile("CSV"))
	assert.True(t, IsRelational("Oracle"))
	assert.False(t, IsFlatFile("MySQL"))
	assert.False(t, IsSupportedDatabase("Cassandra"))

	db, ok := CanonicalDatabase("sqlserver")
	assert.True(t, ok)
	assert.Equal(t, "SQLServer", db)
}

func TestGetDialectFallsBackToGeneric(t *testing.T) {
	assert.Equal(t, QuoteBacktick, GetDialect("MySQL").Quote)
	assert.Equal(t, "SQL", GetDialect("YAML").Name)
	assert.Equal(t, PlaceholderAt, GetDialect("SQLServer").Placeholder)
}

func TestGetNativeType(t *testing.T) {
	assert.Equal(t, "DOUBLE PRECISION", GetNativeType("PostgreSQL", "float"))
	assert.Equal(t, "BIT", GetNativeType("SQLServer", "boolean"))
	assert.Equal(t, "INTEGER", GetNativeType("SQLite", "Integer"))
	assert.Equal(t, "VARCHAR", GetNativeType("CSV", "string"))
	assert.Empty(t, GetNativeType("MySQL", "null"))
}

func TestFetchStyleIndex(t *testing.T) {
	assert.Equal(t, 0, FetchStyleIndex("assoc"))
	assert.Equal(t, 1, FetchStyleIndex(" NUM "))
	assert.Equal(t, 6, FetchStyleIndex("into"))
	assert.Equal(t, -1, FetchStyleIndex("assco"))
	assert.Equal(t, -1, FetchStyleIndex(""))
}
