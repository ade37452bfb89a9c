package decode

import (
	"errors"
	"testing"
	"time"

	"PPRealtime/tools/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name    string    `json:"name"`
	Count   int64     `json:"count"`
	Tags    []string  `json:"tags"`
	At      time.Time `json:"at"`
	Payload any       `json:"payload"`
}

func TestDecodeStruct(t *testing.T) {
	st, err := ParseJSON([]byte(`{"name":"a","count":3,"tags":["x","y",1],"at":"2024-05-01T10:00:00Z","payload":{"k":"v"}}`))
	require.NoError(t, err)

	out, err := DecodeStruct[sample](st)
	require.NoError(t, err)
	assert.Equal(t, "a", out.Name)
	assert.Equal(t, int64(3), out.Count)
	assert.Equal(t, []string{"x", "y"}, out.Tags)
	assert.True(t, out.At.Equal(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)))
	assert.Equal(t, map[string]any{"k": "v"}, out.Payload)

	name, err := ReadString(st, "name")
	require.NoError(t, err)
	assert.Equal(t, "a", name)

	_, err = ReadString(st, "count")
	assert.True(t, errors.Is(err, errs.ErrArgs))
	_, err = ReadString(st, "missing")
	assert.True(t, errors.Is(err, errs.ErrArgs))
}

func TestParseJSONRejectsNonObject(t *testing.T) {
	_, err := ParseJSON([]byte(`[1,2]`))
	assert.True(t, errors.Is(err, errs.ErrArgs))

	_, err = ParseJSON([]byte(`not json`))
	assert.True(t, errors.Is(err, errs.ErrArgs))
}
