package testutil

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// SigningKey is the shared HS256 key for handler tests. Tokens in
// production come from the external identity provider; tests mint their
// own with this helper.
const SigningKey = "test-signing-key"

// SignToken mints an HS256 token for the given actor and role, valid for
// an hour, with a random jti.
func SignToken(t *testing.T, actor, role string) string {
	t.Helper()
	return SignTokenExpiring(t, actor, role, time.Hour)
}

// SignTokenExpiring mints a token with an explicit lifetime. Negative
// lifetimes produce already-expired tokens for rejection tests.
func SignTokenExpiring(t *testing.T, actor, role string, lifetime time.Duration) string {
	t.Helper()

	claims := jwt.MapClaims{
		"sub":  actor,
		"role": role,
		"jti":  uuid.NewString(),
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(lifetime).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(SigningKey))
	require.NoError(t, err, "failed to sign test token")
	return signed
}
