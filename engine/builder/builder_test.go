package builder

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dberrors "github.com/omniql-engine/flatql/engine/errors"
	"github.com/omniql-engine/flatql/engine/models"
)

func TestSelectParsesColumns(t *testing.T) {
	q, err := New().Select("id, u.name AS who", "COUNT(DISTINCT city) cities", "*").From("users u").Query()
	require.NoError(t, err)

	require.Len(t, q.Columns, 4)
	assert.Equal(t, "id", q.Columns[0].Column)
	assert.Equal(t, "u.name", q.Columns[1].Column)
	assert.Equal(t, "who", q.Columns[1].Alias)
	assert.Equal(t, models.Count, q.Columns[2].Aggregate)
	assert.True(t, q.Columns[2].Distinct)
	assert.Equal(t, "cities", q.Columns[2].OutputName())
	assert.True(t, q.Columns[3].IsStar())
	assert.Equal(t, models.Source{Table: "users", Alias: "u"}, q.From[0])
}

func TestSelectRejectsUnknownFunction(t *testing.T) {
	b := New().Select("UPPER(name)").From("users")
	assert.ErrorIs(t, b.Err(), dberrors.ErrQuery)

	b = New().Select("SUM(*)")
	assert.ErrorIs(t, b.Err(), dberrors.ErrQuery)
}

func TestWhereShapes(t *testing.T) {
	q, err := New().From("users").
		Where("age", ">", 30).
		AndWhere("name", "bob").
		OrWhere([]any{"city", "in", []string{"Oslo", "Rome"}}).
		AndWhere("email", nil).
		Query()
	require.NoError(t, err)

	conds := q.Where.Conditions
	require.Len(t, conds, 4)
	assert.Equal(t, models.JunctionNone, conds[0].Junction)
	assert.Equal(t, ">", conds[0].Operator)
	assert.Equal(t, int64(30), conds[0].Value)

	assert.Equal(t, models.JunctionAnd, conds[1].Junction)
	assert.Equal(t, "=", conds[1].Operator)

	assert.Equal(t, models.JunctionOr, conds[2].Junction)
	assert.Equal(t, "IN", conds[2].Operator)
	assert.Equal(t, []any{"Oslo", "Rome"}, conds[2].Values)

	assert.Equal(t, "IS_NULL", conds[3].Operator)
}

func TestWhereNoneJunctionBecomesAnd(t *testing.T) {
	q, err := New().From("users").Where("a", 1).Where("b", 2).Query()
	require.NoError(t, err)
	assert.Equal(t, models.JunctionNone, q.Where.Conditions[0].Junction)
	assert.Equal(t, models.JunctionAnd, q.Where.Conditions[1].Junction)
}

func TestFlatListBecomesSingleAndGroup(t *testing.T) {
	q, err := New().From("users").
		Where("active", true).
		OrWhere([]any{
			[]any{"age", ">", 20},
			[]any{"age", "<", 30},
		}).
		Query()
	require.NoError(t, err)

	require.Len(t, q.Where.Conditions, 2)
	group := q.Where.Conditions[1]
	assert.Equal(t, models.Group, group.Kind)
	assert.Equal(t, models.JunctionOr, group.Junction)
	require.Len(t, group.Children, 2)
	assert.Equal(t, models.JunctionNone, group.Children[0].Junction)
	assert.Equal(t, models.JunctionAnd, group.Children[1].Junction)
}

func TestNestedGroupsUseExplicitKeys(t *testing.T) {
	q, err := New().Select("*").From("users").
		AndWhere([]any{
			[]any{"AND", []any{"age", ">", 20}},
			[]any{"OR", []any{"name", "=", "bob"}},
		}).
		Query()
	require.NoError(t, err)

	conds := q.Where.Conditions
	require.Len(t, conds, 2)
	assert.Equal(t, models.Comparison, conds[0].Kind)
	assert.Equal(t, "age", conds[0].Column)
	assert.Equal(t, models.JunctionNone, conds[0].Junction)
	assert.Equal(t, "name", conds[1].Column)
	assert.Equal(t, models.JunctionOr, conds[1].Junction)
}

func TestNestedUnkeyedInheritsMethodJunction(t *testing.T) {
	q, err := New().From("users").
		Where("id", ">", 0).
		OrWhere([]any{
			[]any{[]any{"a", "=", 1}, []any{"b", "=", 2}},
			[]any{"AND", []any{"c", "=", 3}},
		}).
		Query()
	require.NoError(t, err)

	conds := q.Where.Conditions
	require.Len(t, conds, 3)

	group := conds[1]
	assert.Equal(t, models.Group, group.Kind)
	assert.Equal(t, models.JunctionOr, group.Junction)
	require.Len(t, group.Children, 2)
	assert.Equal(t, models.JunctionOr, group.Children[1].Junction)

	assert.Equal(t, "c", conds[2].Column)
	assert.Equal(t, models.JunctionAnd, conds[2].Junction)
}

func TestDepthIgnoresInLists(t *testing.T) {
	assert.Equal(t, 1, depthOf([]any{"id", "IN", []any{1, 2, 3}}))
	assert.Equal(t, 2, depthOf([]any{[]any{"id", "IN", []any{1, 2}}, []any{"a", "=", 1}}))
	assert.Equal(t, 3, depthOf([]any{[]any{"AND", []any{"a", "=", 1}}}))
	assert.Equal(t, 2, depthOf([]any{"OR", []any{"a", "=", 1}}))
}

func TestMalformedConditions(t *testing.T) {
	cases := map[string]*Builder{
		"no args":          New().From("t").Where(),
		"non-string col":   New().From("t").Where(1, "=", 2),
		"unknown operator": New().From("t").Where("a", "~~", 2),
		"too many":         New().From("t").Where("a", "=", 1, 2, 3),
		"scalar":           New().From("t").Where(42),
		"between arity":    New().From("t").Where("a", "BETWEEN", []any{1}),
		"nested scalar":    New().From("t").Where([]any{[]any{"AND", []any{"a", "=", 1}}, 5}),
		"raw mismatch":     New().From("t").WhereRaw("a = ? AND b = ?", 1),
		"on without join":  New().From("t").On("a.id", "b.id"),
	}
	for name, b := range cases {
		assert.ErrorIs(t, b.Err(), dberrors.ErrQuery, name)
		_, err := b.Query()
		assert.Error(t, err, name)
	}
}

func TestFirstErrorIsLatched(t *testing.T) {
	b := New().From("t").Where("a", "~~", 1).Limit(-1)
	assert.Contains(t, b.Err().Error(), "unknown operator")

	b.Reset()
	assert.NoError(t, b.Err())
}

func TestUnknownOperatorSuggests(t *testing.T) {
	b := New().From("t").Where("age", "betwen", []any{1, 2})
	var derr *dberrors.Error
	require.True(t, errors.As(b.Err(), &derr))
	assert.Equal(t, "did you mean BETWEEN?", derr.Hint)

	b = New().From("t").Where("a", "~~", 1)
	require.True(t, errors.As(b.Err(), &derr))
	assert.Empty(t, derr.Hint)
}

func TestJoins(t *testing.T) {
	q, err := New().Select("u.name, o.total").
		From("users u").
		InnerJoin("orders o", "u.id", "=", "o.user_id").
		OrOn("u.alt_id", "o.user_id").
		SelfJoin("m", "u.manager_id", "m.id").
		Query()
	require.NoError(t, err)

	require.Len(t, q.Joins, 2)
	assert.Equal(t, models.InnerJoin, q.Joins[0].Kind)
	require.Len(t, q.Joins[0].On.Conditions, 2)
	assert.True(t, q.Joins[0].On.Conditions[0].ValueIsColumn)
	assert.Equal(t, models.JunctionOr, q.Joins[0].On.Conditions[1].Junction)

	assert.Equal(t, models.SelfJoin, q.Joins[1].Kind)
	assert.Equal(t, models.Source{Table: "users", Alias: "m"}, q.Joins[1].Source)
}

func TestOrderGroupLimit(t *testing.T) {
	q, err := New().From("t").Group("city, country").Order("n", "desc").OrderAsc("city").Limit(2, 1).Query()
	require.NoError(t, err)
	assert.Equal(t, []string{"city", "country"}, q.GroupBy)
	assert.Equal(t, []models.OrderBy{{Column: "n", Direction: models.Descending}, {Column: "city", Direction: models.Ascending}}, q.OrderBy)
	require.NotNil(t, q.Limit)
	assert.Equal(t, 2, *q.Limit)
	assert.Equal(t, 1, q.Offset)

	assert.ErrorIs(t, New().Order("n", "sideways").Err(), dberrors.ErrQuery)
}

func TestQueryReturnsSnapshot(t *testing.T) {
	b := New().From("users").Where("a", 1)
	q, err := b.Query()
	require.NoError(t, err)
	b.AndWhere("b", 2)
	assert.Len(t, q.Where.Conditions, 1)
}

func TestWriteQueries(t *testing.T) {
	_, err := New().InsertQuery(models.NewRecord("id", 1))
	assert.ErrorIs(t, err, dberrors.ErrQuery)

	q, err := New().From("users").Where("id", 1).UpdateQuery(models.NewRecord("name", "x"))
	require.NoError(t, err)
	assert.Equal(t, models.OpUpdate, q.Operation)

	_, err = New().From("users").UpdateQuery(models.Record{})
	assert.ErrorIs(t, err, dberrors.ErrQuery)

	q, err = New().From("users").DeleteQuery()
	require.NoError(t, err)
	assert.Equal(t, models.OpDelete, q.Operation)
}
