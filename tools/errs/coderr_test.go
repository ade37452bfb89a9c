package errs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeErrorIs(t *testing.T) {
	err := ErrRecordNotFound.WrapMsg("user not found", "uid", "alice")
	assert.True(t, errors.Is(err, ErrRecordNotFound))
	assert.False(t, errors.Is(err, ErrArgs))
	assert.Equal(t, RecordNotFound, Code(err))
	assert.Contains(t, err.Error(), "uid=alice")
}

func TestCodeRelation(t *testing.T) {
	err := ErrTokenExpired.WrapMsg("expired")
	assert.True(t, errors.Is(err, ErrUnauthenticated))
	assert.False(t, errors.Is(ErrUnauthenticated.Wrap(), ErrTokenExpired))
}

func TestWrapKeepsCode(t *testing.T) {
	err := WrapMsg(ErrForbidden.WrapMsg("blocked"), "send failed", "senderId", "mallory")
	assert.True(t, errors.Is(err, ErrForbidden))
	assert.Equal(t, ForbiddenCode, Code(err))
	assert.Nil(t, WrapMsg(nil, "noop"))
	assert.Equal(t, 0, Code(New("plain")))
}

func TestToStringMissingValue(t *testing.T) {
	assert.Equal(t, "m, k=MISSING", toString("m", []any{"k"}))
}
