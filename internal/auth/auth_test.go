package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

// signToken builds an HS256 token for tests.
func signToken(t *testing.T, secret string, expiresAt time.Time) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: "site_admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "operator-1",
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})

	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)

	return signed
}

// TestParseToken covers valid, tampered and expired tokens.
func TestParseToken(t *testing.T) {
	t.Parallel()

	const secret = "test-secret"

	// Valid token.
	claims, err := ParseToken(signToken(t, secret, time.Now().Add(time.Hour)), []byte(secret))
	require.NoError(t, err)
	require.Equal(t, "site_admin", claims.Role)
	require.Equal(t, "operator-1", claims.Subject)

	// Wrong secret.
	_, err = ParseToken(signToken(t, "other-secret", time.Now().Add(time.Hour)), []byte(secret))
	require.Error(t, err)

	// Expired.
	_, err = ParseToken(signToken(t, secret, time.Now().Add(-time.Hour)), []byte(secret))
	require.Error(t, err)

	// Missing inputs.
	_, err = ParseToken("", []byte(secret))
	require.Error(t, err)

	_, err = ParseToken(signToken(t, secret, time.Now().Add(time.Hour)), nil)
	require.Error(t, err)
}
