package security

import (
	"errors"
	"testing"
	"time"

	"PPRealtime/tools/errs"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("unit-test-secret")

func TestGenerateVerifyIdentity(t *testing.T) {
	opts := DefaultOptions(testSecret)
	tok, exp, err := Generate(opts, "+7 900 123 45 67")
	require.NoError(t, err)
	assert.True(t, exp.After(time.Now()))

	claims, err := Verify(opts, tok)
	require.NoError(t, err)
	assert.Equal(t, "79001234567", claims.Identity())
	assert.Equal(t, "79001234567", claims.PhoneNumber)
}

func TestVerifyFallsBackToPhoneNumber(t *testing.T) {
	claims := Claims{
		PhoneNumber: "+1 555 0100",
		RegisteredClaims: jwtlib.RegisteredClaims{
			ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	tok, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(testSecret)
	require.NoError(t, err)

	got, err := Verify(DefaultOptions(testSecret), tok)
	require.NoError(t, err)
	assert.Equal(t, "15550100", got.Identity())
}

func TestVerifyExpired(t *testing.T) {
	claims := Claims{
		UID: "alice",
		RegisteredClaims: jwtlib.RegisteredClaims{
			ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	tok, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(testSecret)
	require.NoError(t, err)

	_, err = Verify(DefaultOptions(testSecret), tok)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrTokenExpired))
	assert.True(t, errors.Is(err, errs.ErrUnauthenticated))
}

func TestVerifyRejects(t *testing.T) {
	opts := DefaultOptions(testSecret)
	other, _, err := Generate(DefaultOptions([]byte("someone-else")), "100")
	require.NoError(t, err)

	noIdentity, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, Claims{
		RegisteredClaims: jwtlib.RegisteredClaims{ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString(testSecret)
	require.NoError(t, err)
	noExpiry, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, Claims{UID: "alice"}).SignedString(testSecret)
	require.NoError(t, err)

	cases := map[string]string{
		"empty":       "",
		"garbage":     "not.a.jwt",
		"bad-sig":     other,
		"no-identity": noIdentity,
		"no-expiry":   noExpiry,
	}
	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Verify(opts, tok)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errs.ErrUnauthenticated))
			assert.False(t, errors.Is(err, errs.ErrForbidden))
		})
	}
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "4915112345678", NormalizePhone(" +49 151\t1234 5678 "))
	assert.Equal(t, "", NormalizePhone("+ "))
}
