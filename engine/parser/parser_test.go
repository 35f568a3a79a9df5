package parser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dberrors "github.com/omniql-engine/flatql/engine/errors"
	"github.com/omniql-engine/flatql/engine/lexer"
	"github.com/omniql-engine/flatql/engine/models"
)

func TestParseCondition(t *testing.T) {
	tests := []struct {
		expr string
		want []any
	}{
		{"age > 30", []any{"age", ">", int64(30)}},
		{"age <> -2.5", []any{"age", "!=", -2.5}},
		{"name = 'ann lee'", []any{"name", "=", "ann lee"}},
		{"name = bob", []any{"name", "=", "bob"}},
		{"active = TRUE", []any{"active", "=", true}},
		{"city NOT IN Oslo, Rome", []any{"city", "NOT_IN", []any{"Oslo", "Rome"}}},
		{"city in ('Oslo', 'Rome')", []any{"city", "IN", []any{"Oslo", "Rome"}}},
		{"age IN 40,50", []any{"age", "IN", []any{int64(40), int64(50)}}},
		{"age IN ()", []any{"age", "IN", []any{}}},
		{"age BETWEEN 1,2.5", []any{"age", "BETWEEN", []any{int64(1), 2.5}}},
		{"age not between 18 and 30", []any{"age", "NOT_BETWEEN", []any{int64(18), int64(30)}}},
		{"city IS NOT NULL", []any{"city", "IS_NOT_NULL"}},
		{"city is null", []any{"city", "IS_NULL"}},
		{"name LIKE a%", []any{"name", "LIKE", "a%"}},
		{"name NOT ILIKE '%x'", []any{"name", "NOT_ILIKE", "%x"}},
		{"city = NULL", []any{"city", "=", nil}},
		{"COUNT(*) > 1", []any{"COUNT(*)", ">", int64(1)}},
		{"SUM(o.total) >= 100", []any{"SUM(o.total)", ">=", int64(100)}},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := ParseCondition(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseConditionErrors(t *testing.T) {
	for _, bad := range []string{
		"",
		"age",
		"age ~~ 3",
		"age BETWEEN 1",
		"age IN (1, 2",
		"city IS NOT",
		"age = 1 2",
		"COUNT(* > 1",
		"= 3",
	} {
		_, err := ParseCondition(bad)
		assert.ErrorIs(t, err, dberrors.ErrQuery, bad)
	}
}

func TestParseConditionSuggests(t *testing.T) {
	_, err := ParseCondition("age betwen 1,2")
	var derr *dberrors.Error
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, "did you mean BETWEEN?", derr.Hint)

	var perr *lexer.ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, 4, perr.Position)
	assert.Equal(t, "betwen", perr.Token)
}

func TestParseOrder(t *testing.T) {
	tests := []struct {
		expr      string
		column    string
		direction string
	}{
		{"name", "name", "ASC"},
		{"age desc", "age", "DESC"},
		{"u.created_at ASC", "u.created_at", "ASC"},
		{"COUNT(*) DESC", "COUNT(*)", "DESC"},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			column, direction, err := ParseOrder(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.column, column)
			assert.Equal(t, tt.direction, direction)
		})
	}

	for _, bad := range []string{"", "age sideways", "age DESC extra", "'age'"} {
		_, _, err := ParseOrder(bad)
		assert.ErrorIs(t, err, dberrors.ErrQuery, bad)
	}
}

func TestParseJoin(t *testing.T) {
	kind, source, on, err := ParseJoin("left orders o ON u.id = o.user_id")
	require.NoError(t, err)
	assert.Equal(t, models.LeftJoin, kind)
	assert.Equal(t, "orders o", source)
	assert.Equal(t, []any{"u.id", "=", "o.user_id"}, on)

	kind, source, on, err = ParseJoin("FULL OUTER JOIN payments p on p.order_id = o.id")
	require.NoError(t, err)
	assert.Equal(t, models.OuterJoin, kind)
	assert.Equal(t, "payments p", source)
	assert.Equal(t, []any{"p.order_id", "=", "o.id"}, on)

	kind, source, on, err = ParseJoin("CROSS sizes")
	require.NoError(t, err)
	assert.Equal(t, models.CrossJoin, kind)
	assert.Equal(t, "sizes", source)
	assert.Nil(t, on)

	for _, bad := range []string{
		"SIDEWAYS orders ON a = b",
		"INNER",
		"INNER orders o x ON a = b",
		"INNER orders ON a",
		"INNER orders ON a = b AND c = d",
	} {
		_, _, _, err := ParseJoin(bad)
		assert.ErrorIs(t, err, dberrors.ErrQuery, bad)
	}
}
