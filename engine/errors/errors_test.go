package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKindsMatchSentinels(t *testing.T) {
	err := NewQueryError("executor.filter", "unknown column %q", "agee")

	assert.True(t, stderrors.Is(err, ErrQuery))
	assert.False(t, stderrors.Is(err, ErrConnection))
	assert.Equal(t, KindQuery, KindOf(err))
	assert.Contains(t, err.Error(), `unknown column "agee"`)
	assert.Contains(t, err.Error(), "[executor.filter]")
}

func TestErrorUnwrapsCause(t *testing.T) {
	err := NewConnectionError("store.save", io.ErrShortWrite, "cannot write %s", "users.csv")

	assert.True(t, stderrors.Is(err, io.ErrShortWrite))
	assert.True(t, stderrors.Is(err, ErrConnection))
	assert.Contains(t, err.Error(), "short write")
}

func TestKindOfWrapped(t *testing.T) {
	wrapped := fmt.Errorf("commit failed: %w", NewTransactionError("store.commit", "no open transaction"))

	assert.Equal(t, KindTransaction, KindOf(wrapped))
	assert.True(t, stderrors.Is(wrapped, ErrTransaction))
	assert.Equal(t, Kind(""), KindOf(io.EOF))
}

func TestWithHint(t *testing.T) {
	err := NewValidationError("config.validate", "database is required").WithHint("set database to a directory or \"memory\"")

	assert.Equal(t, KindValidation, err.Kind)
	assert.NotEmpty(t, err.Hint)
}
