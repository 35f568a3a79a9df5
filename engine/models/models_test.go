package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordPreservesColumnOrder(t *testing.T) {
	r := NewRecord("id", 1, "name", "ann", "age", 30)
	r.Set("name", "bob")

	assert.Equal(t, []string{"id", "name", "age"}, r.Columns())
	assert.Equal(t, []any{int64(1), "bob", int64(30)}, r.Values())

	out, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Equal(t, `{"id":1,"name":"bob","age":30}`, string(out))
}

func TestRecordCloneIsIndependent(t *testing.T) {
	r := NewRecord("id", 1)
	c := r.Clone()
	c.Set("id", 2)
	c.Set("extra", true)

	v, _ := r.Get("id")
	assert.Equal(t, int64(1), v)
	assert.False(t, r.Has("extra"))
}

func TestRecordMerge(t *testing.T) {
	r := NewRecord("id", 1, "name", "ann")
	merged := r.Merge(NewRecord("name", "bob", "age", 40))

	assert.Equal(t, []string{"id", "name", "age"}, merged.Columns())
	name, _ := r.Get("name")
	assert.Equal(t, "ann", name)
}

func TestConditionTreeJunctionInvariant(t *testing.T) {
	var tree ConditionTree
	tree.Append(Condition{Kind: Comparison, Column: "a", Operator: "=", Value: 1, Junction: JunctionOr})
	tree.Append(Condition{Kind: Comparison, Column: "b", Operator: "=", Value: 2, Junction: JunctionNone})
	tree.Append(Condition{Kind: Group, Junction: JunctionOr, Children: []Condition{
		{Kind: Comparison, Column: "c", Operator: "=", Value: 3, Junction: JunctionAnd},
		{Kind: Comparison, Column: "d", Operator: "=", Value: 4},
	}})

	require.Len(t, tree.Conditions, 3)
	assert.Equal(t, JunctionNone, tree.Conditions[0].Junction)
	assert.Equal(t, JunctionAnd, tree.Conditions[1].Junction)
	assert.Equal(t, JunctionOr, tree.Conditions[2].Junction)
	assert.Equal(t, JunctionNone, tree.Conditions[2].Children[0].Junction)
	assert.Equal(t, JunctionAnd, tree.Conditions[2].Children[1].Junction)
}

func TestQueryCloneIsDeep(t *testing.T) {
	q := NewQuery()
	q.From = []Source{{Table: "users"}}
	q.Where.Append(Condition{Kind: Comparison, Column: "age", Operator: "IN", Values: []any{int64(1), int64(2)}})
	limit := 5
	q.Limit = &limit

	c := q.Clone()
	c.Where.Conditions[0].Values[0] = int64(99)
	*c.Limit = 1

	assert.Equal(t, int64(1), q.Where.Conditions[0].Values[0])
	assert.Equal(t, 5, *q.Limit)
}

func TestInferScalar(t *testing.T) {
	cases := map[string]any{
		"42":    int64(42),
		"-3":    int64(-3),
		"1.5":   1.5,
		"007":   "007",
		"true":  true,
		"false": false,
		"bob":   "bob",
		"":      "",
	}
	for in, want := range cases {
		assert.Equal(t, want, InferScalar(in), "input %q", in)
	}
}

func TestSelectColumnNames(t *testing.T) {
	assert.Equal(t, "name", SelectColumn{Column: "users.name"}.OutputName())
	assert.Equal(t, "n", SelectColumn{Column: "users.name", Alias: "n"}.OutputName())
	assert.Equal(t, "COUNT(*)", SelectColumn{Aggregate: Count, Argument: "*"}.OutputName())
	assert.Equal(t, "COUNT(DISTINCT city)", SelectColumn{Aggregate: Count, Argument: "city", Distinct: true}.Expression())
	assert.True(t, SelectColumn{Column: "u.*"}.IsStar())
}

func TestValuesEqual(t *testing.T) {
	assert.True(t, ValuesEqual(int64(1), 1.0))
	assert.True(t, ValuesEqual("30", int64(30)))
	assert.False(t, ValuesEqual(nil, ""))
	assert.True(t, ValuesEqual(nil, nil))
	assert.False(t, ValuesEqual("bob", "Bob"))
}
