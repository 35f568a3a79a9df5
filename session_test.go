package flatql_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omniql-engine/flatql"
	"github.com/omniql-engine/flatql/config"
	dberrors "github.com/omniql-engine/flatql/engine/errors"
	"github.com/omniql-engine/flatql/engine/models"
)

func quietConfig() *config.Config {
	cfg := config.Default()
	cfg.Log.Level = "disabled"
	return cfg
}

func memorySession(t *testing.T, table string, rows ...models.Record) *flatql.Session {
	t.Helper()
	s, err := flatql.Open(quietConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Disconnect() })
	if len(rows) > 0 {
		n, err := s.From(table).Insert(rows...)
		require.NoError(t, err)
		require.Equal(t, len(rows), n)
		s.Clear()
	}
	return s
}

func csvSession(t *testing.T, dir string, tables ...string) *flatql.Session {
	t.Helper()
	cfg := quietConfig()
	cfg.Database = "CSV"
	cfg.Dir = dir
	cfg.Tables = tables
	s, err := flatql.Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Disconnect() })
	return s
}

func writeTable(t *testing.T, dir, file, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, file), []byte(content), 0o644))
}

func readTable(t *testing.T, dir, file string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, file))
	require.NoError(t, err)
	return string(data)
}

func people() []models.Record {
	return []models.Record{
		models.NewRecord("id", 1, "name", "ann", "age", 25),
		models.NewRecord("id", 2, "name", "bob", "age", 10),
		models.NewRecord("id", 3, "name", "cat", "age", 15),
		models.NewRecord("id", 4, "name", "dan", "age", 35),
		models.NewRecord("id", 5, "name", "eve", "age", 40),
	}
}

// ============================================================================
// OPEN
// ============================================================================

func TestOpenCSVFiltersFileRecords(t *testing.T) {
	dir := t.TempDir()
	writeTable(t, dir, "users.csv", "id,age\n1,25\n2,35\n3,40\n")
	s := csvSession(t, dir)

	rows, err := s.Select("*").From("users").Where([]any{"age", ">", 30}).FetchAll()
	require.NoError(t, err)
	assert.Equal(t, []any{
		map[string]any{"id": int64(2), "age": int64(35)},
		map[string]any{"id": int64(3), "age": int64(40)},
	}, rows)
}

func TestOpenCreatesDirectoryAndTables(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "db")
	s := csvSession(t, dir, "users", "orders")

	assert.FileExists(t, filepath.Join(dir, "users.csv"))
	assert.FileExists(t, filepath.Join(dir, "orders.csv"))
	assert.Equal(t, "CSV", s.Database())
	assert.NotEmpty(t, s.ID())
}

func TestOpenRejectsBadConfig(t *testing.T) {
	cfg := quietConfig()
	cfg.Database = "Excel"
	_, err := flatql.Open(cfg)
	assert.True(t, errors.Is(err, dberrors.ErrValidation))
}

func TestOpenFetchStyle(t *testing.T) {
	cfg := quietConfig()
	cfg.FetchStyle = "num"
	s, err := flatql.Open(cfg)
	require.NoError(t, err)
	defer s.Disconnect()
	_, err = s.From("users").Insert(models.NewRecord("id", 1, "name", "ann"))
	require.NoError(t, err)
	s.Clear()

	rows, err := s.Select("id", "name").From("users").FetchAll()
	require.NoError(t, err)
	assert.Equal(t, []any{[]any{int64(1), "ann"}}, rows)

	cfg.FetchStyle = "assco"
	_, err = flatql.Open(cfg)
	assert.True(t, errors.Is(err, dberrors.ErrValidation))
}

func TestOpenUncreatableDirectory(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	cfg := quietConfig()
	cfg.Database = "YAML"
	cfg.Dir = filepath.Join(blocker, "db")
	_, err := flatql.Open(cfg)
	assert.True(t, errors.Is(err, dberrors.ErrConnection))
}

func TestOpenNilConfigIsMemory(t *testing.T) {
	s, err := flatql.Open(nil)
	require.NoError(t, err)
	defer s.Disconnect()
	assert.Equal(t, "memory", s.Database())
}

// ============================================================================
// QUERIES
// ============================================================================

func TestNestedGroupFormUsesExplicitJunctions(t *testing.T) {
	s := memorySession(t, "users", people()...)

	rows, err := s.Select("name").From("users").AndWhere([]any{
		[]any{"AND", []any{"age", ">", 20}},
		[]any{"OR", []any{"name", "=", "bob"}},
	}).FetchAll(flatql.FetchColumn)
	require.NoError(t, err)
	assert.Equal(t, []any{"ann", "bob", "dan", "eve"}, rows)
}

func TestFetchAllTwiceDrains(t *testing.T) {
	s := memorySession(t, "users", people()...)
	s.Select("*").From("users")

	first, err := s.FetchAll()
	require.NoError(t, err)
	assert.Len(t, first, 5)

	second, err := s.FetchAll()
	require.NoError(t, err)
	assert.Empty(t, second)

	row, ok, err := s.Fetch()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, row)
}

func TestChangedQueryRunsAgain(t *testing.T) {
	s := memorySession(t, "users", people()...)
	s.Select("id").From("users")

	_, err := s.FetchAll()
	require.NoError(t, err)

	rows, err := s.Where("age", ">=", 35).FetchAll(flatql.FetchColumn)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(4), int64(5)}, rows)
}

func TestLimitWithOffset(t *testing.T) {
	s := memorySession(t, "users", people()...)

	rows, err := s.Select("id").From("users").Order("id").Limit(2, 1).FetchAll(flatql.FetchColumn)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(2), int64(3)}, rows)
}

func TestQueryErrorsSurface(t *testing.T) {
	s := memorySession(t, "users", people()...)

	_, err := s.Select("*").From("users").Where("height", ">", 1).FetchAll()
	assert.True(t, errors.Is(err, dberrors.ErrQuery))

	_, err = s.Clear().Select("*").From("users").WhereRaw("age > ?", 1).FetchAll()
	assert.True(t, errors.Is(err, dberrors.ErrQuery))

	s.Clear().Select("*").From("users").Where("age", "~~", 1)
	assert.Error(t, s.Err())
	_, _, err = s.Fetch()
	assert.True(t, errors.Is(err, dberrors.ErrQuery))
}

func TestClearStartsNewQuery(t *testing.T) {
	s := memorySession(t, "users", people()...)
	s.Select("id").From("users").Where("id", 1)

	_, err := s.Clear().FetchAll()
	assert.True(t, errors.Is(err, dberrors.ErrQuery), "no table after Clear")

	rows, err := s.Select("id").From("users").FetchAll()
	require.NoError(t, err)
	assert.Len(t, rows, 5)
}

func TestResetRereadsTable(t *testing.T) {
	dir := t.TempDir()
	writeTable(t, dir, "users.csv", "id\n1\n")
	s := csvSession(t, dir)
	s.Select("id").From("users")

	rows, err := s.FetchAll(flatql.FetchColumn)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1)}, rows)

	writeTable(t, dir, "users.csv", "id\n1\n2\n")
	rows, err = s.FetchAll(flatql.FetchColumn)
	require.NoError(t, err)
	assert.Empty(t, rows)

	require.NoError(t, s.Reset())
	rows, err = s.FetchAll(flatql.FetchColumn)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), int64(2)}, rows)
}

// ============================================================================
// WRITES AND TRANSACTIONS
// ============================================================================

func TestWritesReturnCounts(t *testing.T) {
	s := memorySession(t, "users", people()...)

	n, err := s.From("users").Where("age", "<", 20).Update(models.NewRecord("age", 20))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = s.Clear().From("users").Where("age", 20).Delete()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = s.Clear().From("users").InsertMap(map[string]any{"id": 6, "name": "fay", "age": 50})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	rows, err := s.Clear().Select("name").From("users").Order("id").FetchAll(flatql.FetchColumn)
	require.NoError(t, err)
	assert.Equal(t, []any{"ann", "dan", "eve", "fay"}, rows)
}

func TestWriteErrorLeavesRecords(t *testing.T) {
	s := memorySession(t, "users", people()...)

	_, err := s.From("users").Where("nope", 1).Delete()
	assert.True(t, errors.Is(err, dberrors.ErrQuery))

	rows, err := s.Clear().Select("id").From("users").FetchAll()
	require.NoError(t, err)
	assert.Len(t, rows, 5)
}

func TestWriteDropsCachedResult(t *testing.T) {
	s := memorySession(t, "users", people()...)
	s.Select("id").From("users")

	row, ok, err := s.Fetch(flatql.FetchColumn)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(1), row)

	_, err = s.Insert(models.NewRecord("id", 6, "name", "fay", "age", 50))
	require.NoError(t, err)

	rows, err := s.FetchAll(flatql.FetchColumn)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), int64(2), int64(3), int64(4), int64(5), int64(6)}, rows)
}

func TestInsertPersistsUnlessInTransaction(t *testing.T) {
	dir := t.TempDir()
	writeTable(t, dir, "users.csv", "id,age\n1,25\n2,35\n")
	s := csvSession(t, dir)
	s.From("users")

	_, err := s.Insert(models.NewRecord("id", 3, "age", 40))
	require.NoError(t, err)
	assert.Contains(t, readTable(t, dir, "users.csv"), "3,40")

	require.NoError(t, s.BeginTransaction())
	assert.True(t, s.InTransaction())
	_, err = s.Insert(models.NewRecord("id", 4, "age", 50))
	require.NoError(t, err)
	assert.NotContains(t, readTable(t, dir, "users.csv"), "4,50")

	rows, err := s.Select("id").FetchAll(flatql.FetchColumn)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), int64(2), int64(3), int64(4)}, rows, "uncommitted rows are visible to the session")

	require.NoError(t, s.Commit())
	assert.False(t, s.InTransaction())
	assert.Contains(t, readTable(t, dir, "users.csv"), "4,50")
}

func TestRollbackRestoresRecords(t *testing.T) {
	dir := t.TempDir()
	writeTable(t, dir, "users.csv", "id,name\n1,ann\n2,bob\n")
	s := csvSession(t, dir)
	onDisk := readTable(t, dir, "users.csv")

	before, err := s.Select("*").From("users").FetchAll(flatql.FetchObj)
	require.NoError(t, err)

	require.NoError(t, s.BeginTransaction())
	_, err = s.Clear().From("users").Where("id", 1).Delete()
	require.NoError(t, err)
	_, err = s.Clear().From("users").Insert(models.NewRecord("id", 3, "name", "cat"))
	require.NoError(t, err)
	_, err = s.Clear().From("users").Update(models.NewRecord("name", "zed"))
	require.NoError(t, err)
	require.NoError(t, s.Rollback())

	after, err := s.Clear().Select("*").From("users").FetchAll(flatql.FetchObj)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, onDisk, readTable(t, dir, "users.csv"))
}

func TestTransactionMisuse(t *testing.T) {
	s := memorySession(t, "users", people()...)

	assert.True(t, errors.Is(s.Commit(), dberrors.ErrTransaction))
	assert.True(t, errors.Is(s.Rollback(), dberrors.ErrTransaction))

	s.From("users")
	require.NoError(t, s.BeginTransaction())
	assert.True(t, errors.Is(s.BeginTransaction(), dberrors.ErrTransaction))
	require.NoError(t, s.Rollback())
}

func TestDisconnect(t *testing.T) {
	dir := t.TempDir()
	writeTable(t, dir, "users.csv", "id\n1\n")
	s := csvSession(t, dir)

	require.NoError(t, s.From("users").BeginTransaction())
	_, err := s.Insert(models.NewRecord("id", 2))
	require.NoError(t, err)

	require.NoError(t, s.Disconnect())
	assert.Equal(t, "id\n1\n", readTable(t, dir, "users.csv"), "open transaction is rolled back")

	_, err = s.Select("*").From("users").FetchAll()
	assert.True(t, errors.Is(err, dberrors.ErrConnection))
	_, err = s.Insert(models.NewRecord("id", 3))
	assert.True(t, errors.Is(err, dberrors.ErrConnection))
	assert.NoError(t, s.Disconnect())
}

// ============================================================================
// RENDERING
// ============================================================================

func TestBuildAndBuildRaw(t *testing.T) {
	s := memorySession(t, "users")
	s.Select("name").From("users").Where("age", ">", 30).AndWhere("city", "IN", []any{"Oslo", "Rome"}).Limit(2)

	sql, err := s.Build()
	require.NoError(t, err)
	assert.Equal(t, `SELECT "name" FROM "users" WHERE "age" > 30 AND "city" IN ('Oslo', 'Rome') LIMIT 2`, sql)

	assert.Empty(t, s.GetValues())
	raw, err := s.BuildRaw()
	require.NoError(t, err)
	assert.Equal(t, `SELECT "name" FROM "users" WHERE "age" > ? AND "city" IN (?, ?) LIMIT 2`, raw)
	assert.Equal(t, []any{int64(30), "Oslo", "Rome"}, s.GetValues())

	again, err := s.Build()
	require.NoError(t, err)
	assert.Equal(t, sql, again)
}

func TestValidateRenderedQuery(t *testing.T) {
	s := memorySession(t, "users")
	s.Select("name").From("users").Where("age", ">", 30).Order("name", "DESC")
	assert.NoError(t, s.Validate())
}

func TestParseQuoting(t *testing.T) {
	s := memorySession(t, "users")

	out, err := s.Parse("SELECT `a` FROM `t`", "backtick", "bracket")
	require.NoError(t, err)
	assert.Equal(t, "SELECT [a] FROM [t]", out)

	_, err = s.Parse("SELECT 1", "curly", "double")
	assert.True(t, errors.Is(err, dberrors.ErrQuery))
}
