package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/omniql-engine/flatql/engine/codec"
	dberrors "github.com/omniql-engine/flatql/engine/errors"
	"github.com/omniql-engine/flatql/engine/models"
)

func users() []models.Record {
	return []models.Record{
		models.NewRecord("id", 1, "age", 25),
		models.NewRecord("id", 2, "age", 35),
		models.NewRecord("id", 3, "age", 40),
	}
}

func csvSource(t *testing.T) (*FileSource, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "db", "nested")
	c, err := codec.For("csv")
	require.NoError(t, err)
	src, err := NewFileSource(dir, c, codec.DefaultOptions())
	require.NoError(t, err)
	return src, dir
}

// countingSource records saves and can be told to fail them.
type countingSource struct {
	*MemorySource
	saves int
	fail  error
}

func (c *countingSource) Save(ctx context.Context, table string, records []models.Record) error {
	if c.fail != nil {
		return dberrors.NewConnectionError("store.save", c.fail, "cannot write %s", table)
	}
	c.saves++
	return c.MemorySource.Save(ctx, table, records)
}

func seeded(t *testing.T) (*Store, *countingSource) {
	t.Helper()
	src := &countingSource{MemorySource: NewMemorySource()}
	require.NoError(t, src.MemorySource.Save(context.Background(), "users", users()))
	s := New(src)
	require.NoError(t, s.Use(context.Background(), "users"))
	return s, src
}

func idMatch(id int64) Predicate {
	return func(r models.Record) (bool, error) {
		v, _ := r.Get("id")
		return v == id, nil
	}
}

// ============================================================================
// SOURCES
// ============================================================================

func TestFileSourceCreatesDirectoryAndEmptyTable(t *testing.T) {
	src, dir := csvSource(t)
	ctx := context.Background()

	records, err := src.Load(ctx, "users")
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.FileExists(t, filepath.Join(dir, "users.csv"))

	tables, err := src.Tables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"users"}, tables)
}

func TestFileSourceSaveThenLoad(t *testing.T) {
	src, dir := csvSource(t)
	ctx := context.Background()

	require.NoError(t, src.Save(ctx, "users", users()))
	got, err := src.Load(ctx, "users")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.True(t, got[1].Equal(users()[1]))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestFileSourceDecodeFailureIsConnectionError(t *testing.T) {
	dir := t.TempDir()
	c, err := codec.For("yaml")
	require.NoError(t, err)
	src, err := NewFileSource(dir, c, codec.DefaultOptions())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(src.Path("users"), []byte("id: [unclosed"), 0o644))

	_, err = src.Load(context.Background(), "users")
	assert.ErrorIs(t, err, dberrors.ErrConnection)
}

func TestNewFileSourceUncreatableDirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "plain")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	c, _ := codec.For("csv")

	_, err := NewFileSource(filepath.Join(file, "db"), c, codec.DefaultOptions())
	assert.ErrorIs(t, err, dberrors.ErrConnection)
}

func TestMemorySourceIsolatesCopies(t *testing.T) {
	src := NewMemorySource()
	ctx := context.Background()
	in := users()
	require.NoError(t, src.Save(ctx, "users", in))
	in[0].Set("age", 99)

	got, err := src.Load(ctx, "users")
	require.NoError(t, err)
	v, _ := got[0].Get("age")
	assert.Equal(t, int64(25), v)

	_, err = src.Load(ctx, "orders")
	require.NoError(t, err)
	tables, _ := src.Tables(ctx)
	assert.Equal(t, []string{"orders", "users"}, tables)
}

func TestRedisSource(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	c, err := codec.For("yaml")
	require.NoError(t, err)
	src := NewRedisSource(client, "", c, codec.DefaultOptions())
	ctx := context.Background()

	records, err := src.Load(ctx, "users")
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.True(t, mr.Exists("flatql:users"))

	require.NoError(t, src.Save(ctx, "orders", users()))
	got, err := src.Load(ctx, "orders")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.True(t, got[2].Equal(users()[2]))

	tables, err := src.Tables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"orders", "users"}, tables)
}

func TestRedisSourceUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { client.Close() })
	mr.Close()

	c, _ := codec.For("csv")
	_, err := NewRedisSource(client, "app", c, codec.DefaultOptions()).Load(context.Background(), "users")
	assert.ErrorIs(t, err, dberrors.ErrConnection)
}

func TestStripObjectIDs(t *testing.T) {
	docs := []bson.D{
		{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "name", Value: "ann"}},
		{{Key: "_id", Value: "custom"}, {Key: "name", Value: "bob"}},
	}
	got := codec.RecordsFromDocuments(stripObjectIDs(docs))
	require.Len(t, got, 2)
	assert.Equal(t, []string{"name"}, got[0].Columns())
	assert.Equal(t, []string{"_id", "name"}, got[1].Columns())
}

// ============================================================================
// STORE
// ============================================================================

func TestInsertPersistsImmediately(t *testing.T) {
	s, src := seeded(t)
	ctx := context.Background()

	n, err := s.Insert(ctx, models.NewRecord("id", 4, "age", 50))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, src.saves)

	stored, _ := src.MemorySource.Load(ctx, "users")
	assert.Len(t, stored, 4)
}

func TestUpdateAndDeleteCounts(t *testing.T) {
	s, src := seeded(t)
	ctx := context.Background()

	n, err := s.Update(ctx, models.NewRecord("age", 36), idMatch(2))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	v, _ := s.Records()[1].Get("age")
	assert.Equal(t, int64(36), v)

	n, err = s.Update(ctx, models.NewRecord("age", 1), idMatch(42))
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = s.Delete(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Empty(t, s.Records())
	assert.Equal(t, 2, src.saves, "no-op update must not save")
}

func TestPredicateErrorLeavesRecordsUntouched(t *testing.T) {
	s, src := seeded(t)
	boom := dberrors.NewQueryError("test", "unknown column nope")

	_, err := s.Delete(context.Background(), func(models.Record) (bool, error) { return false, boom })
	assert.ErrorIs(t, err, dberrors.ErrQuery)
	assert.Len(t, s.Records(), 3)
	assert.Zero(t, src.saves)
}

func TestFailedSaveKeepsPreviousRecords(t *testing.T) {
	s, src := seeded(t)
	src.fail = errors.New("disk full")

	_, err := s.Insert(context.Background(), models.NewRecord("id", 4))
	assert.ErrorIs(t, err, dberrors.ErrConnection)
	assert.Len(t, s.Records(), 3)
}

func TestTransactionDefersPersistUntilCommit(t *testing.T) {
	s, src := seeded(t)
	ctx := context.Background()

	require.NoError(t, s.Begin())
	assert.True(t, s.InTransaction())
	_, err := s.Insert(ctx, models.NewRecord("id", 4, "age", 50))
	require.NoError(t, err)
	assert.Zero(t, src.saves)
	assert.Len(t, s.Records(), 4)

	require.NoError(t, s.Commit(ctx))
	assert.Equal(t, 1, src.saves)
	assert.False(t, s.InTransaction())
	stored, _ := src.MemorySource.Load(ctx, "users")
	assert.Len(t, stored, 4)
}

func TestRollbackRestoresSnapshotExactly(t *testing.T) {
	s, src := seeded(t)
	ctx := context.Background()
	before := s.Records()

	require.NoError(t, s.Begin())
	_, err := s.Insert(ctx, models.NewRecord("id", 4))
	require.NoError(t, err)
	_, err = s.Update(ctx, models.NewRecord("age", 0), nil)
	require.NoError(t, err)
	_, err = s.Delete(ctx, idMatch(1))
	require.NoError(t, err)

	require.NoError(t, s.Rollback())
	after := s.Records()
	require.Len(t, after, len(before))
	for i := range before {
		assert.True(t, before[i].Equal(after[i]))
	}
	assert.Zero(t, src.saves)
}

func TestCommitFailureRestoresSnapshot(t *testing.T) {
	s, src := seeded(t)
	ctx := context.Background()

	require.NoError(t, s.Begin())
	_, err := s.Insert(ctx, models.NewRecord("id", 4))
	require.NoError(t, err)

	src.fail = errors.New("read-only filesystem")
	err = s.Commit(ctx)
	assert.ErrorIs(t, err, dberrors.ErrConnection)
	assert.Len(t, s.Records(), 3)
	assert.False(t, s.InTransaction())
}

func TestTransactionMisuse(t *testing.T) {
	s, _ := seeded(t)
	ctx := context.Background()

	assert.ErrorIs(t, s.Commit(ctx), dberrors.ErrTransaction)
	assert.ErrorIs(t, s.Rollback(), dberrors.ErrTransaction)

	require.NoError(t, s.Begin())
	assert.ErrorIs(t, s.Begin(), dberrors.ErrTransaction)
	assert.ErrorIs(t, s.Use(ctx, "orders"), dberrors.ErrTransaction)
	require.NoError(t, s.Use(ctx, "users"))
	require.NoError(t, s.Rollback())

	require.NoError(t, s.Use(ctx, "orders"))
	assert.Equal(t, "orders", s.Table())
}

func TestWritesRequireTable(t *testing.T) {
	s := New(NewMemorySource())
	_, err := s.Insert(context.Background(), models.NewRecord("id", 1))
	assert.ErrorIs(t, err, dberrors.ErrQuery)
	assert.ErrorIs(t, s.Begin(), dberrors.ErrQuery)
}

func TestSchemaRejectsUnknownColumns(t *testing.T) {
	s := New(NewMemorySource(), WithSchema(map[string][]string{"users": {"id", "age"}}))
	ctx := context.Background()
	require.NoError(t, s.Use(ctx, "users"))

	_, err := s.Insert(ctx, models.NewRecord("id", 1, "email", "x@y"))
	assert.ErrorIs(t, err, dberrors.ErrValidation)
	_, err = s.Update(ctx, models.NewRecord("nick", "z"), nil)
	assert.ErrorIs(t, err, dberrors.ErrValidation)

	n, err := s.Insert(ctx, models.NewRecord("id", 1, "age", 3))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestPluralizeAndRead(t *testing.T) {
	src := NewMemorySource()
	ctx := context.Background()
	require.NoError(t, src.Save(ctx, "people", users()))

	s := New(src, WithPluralize(true))
	assert.Equal(t, "people", s.TableName("person"))
	require.NoError(t, s.Use(ctx, "person"))
	assert.Equal(t, "people", s.Table())

	_, err := s.Insert(ctx, models.NewRecord("id", 9))
	require.NoError(t, err)
	records, err := s.Read(ctx, "person")
	require.NoError(t, err)
	assert.Len(t, records, 4)

	other, err := s.Read(ctx, "order")
	require.NoError(t, err)
	assert.Empty(t, other)
	assert.Equal(t, "people", s.Table())
}

func TestReload(t *testing.T) {
	s, src := seeded(t)
	ctx := context.Background()
	require.NoError(t, src.MemorySource.Save(ctx, "users", users()[:1]))

	assert.Len(t, s.Records(), 3)
	require.NoError(t, s.Reload(ctx))
	assert.Len(t, s.Records(), 1)
}
