package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	usermodel "PPRealtime/module/user/model"
	"PPRealtime/tools/errs"
	"PPRealtime/tools/security"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testJwt = security.DefaultOptions([]byte("chat-unit-test"))

func token(t *testing.T, phone string) string {
	t.Helper()
	tok, _, err := security.Generate(testJwt, phone)
	require.NoError(t, err)
	return tok
}

func TestVerifierAuthenticate(t *testing.T) {
	dir := &fakeDirectory{users: map[string]*usermodel.User{
		"100": {UID: "100", Name: "alice"},
		"200": {UID: "200", Name: "mallory", IsBlocked: true},
	}}
	v := NewVerifier(testJwt, dir, time.Second)
	ctx := context.Background()

	uid, err := v.Authenticate(ctx, token(t, "100"))
	require.NoError(t, err)
	assert.Equal(t, "100", uid)

	// 还没建档的账号照样放行
	uid, err = v.Authenticate(ctx, token(t, "300"))
	require.NoError(t, err)
	assert.Equal(t, "300", uid)

	_, err = v.Authenticate(ctx, token(t, "200"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrForbidden))

	_, err = v.Authenticate(ctx, "garbage")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrUnauthenticated))
}

func TestVerifierLookupFailureFailsClosed(t *testing.T) {
	v := NewVerifier(testJwt, &fakeDirectory{err: errors.New("db down")}, time.Second)
	_, err := v.Authenticate(context.Background(), token(t, "100"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrUnauthenticated))
}

func TestVerifierLookupTimeout(t *testing.T) {
	v := NewVerifier(testJwt, &fakeDirectory{delay: 500 * time.Millisecond}, 50*time.Millisecond)
	start := time.Now()
	_, err := v.Authenticate(context.Background(), token(t, "100"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrUnauthenticated))
	assert.Less(t, time.Since(start), 400*time.Millisecond)
}

func TestVerifierWithoutDirectory(t *testing.T) {
	v := NewVerifier(testJwt, nil, 0)
	uid, err := v.Authenticate(context.Background(), token(t, "+1 555 0100"))
	require.NoError(t, err)
	assert.Equal(t, "15550100", uid)
}
