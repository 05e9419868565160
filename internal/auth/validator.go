// Package auth validates bearer tokens minted by the external identity
// provider and tracks revoked sessions. It does not issue tokens or manage
// users; that stays with the identity provider.
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"paperflow/internal/platform/middleware"
)

// RevocationList answers whether a token's jti has been revoked.
type RevocationList interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Validator verifies HS256 tokens and consults the revocation list.
type Validator struct {
	signingKey []byte
	revoked    RevocationList
}

// NewValidator constructs a token validator. The revocation list may be nil
// when logout support is disabled.
func NewValidator(signingKey string, revoked RevocationList) *Validator {
	return &Validator{signingKey: []byte(signingKey), revoked: revoked}
}

type sessionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// ValidateToken implements middleware.TokenValidator.
func (v *Validator) ValidateToken(tokenString string) (*middleware.IdentityClaims, error) {
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return v.signingKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("token invalid")
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("token missing subject")
	}

	if v.revoked != nil && claims.ID != "" {
		// Revocation checks run outside the HTTP request context on purpose:
		// token validation must not inherit a nearly-expired deadline.
		revoked, err := v.revoked.IsRevoked(context.Background(), claims.ID)
		if err != nil {
			return nil, fmt.Errorf("revocation check: %w", err)
		}
		if revoked {
			return nil, fmt.Errorf("token revoked")
		}
	}

	role := claims.Role
	if role == "" {
		role = "staff"
	}

	return &middleware.IdentityClaims{
		Actor: claims.Subject,
		Role:  role,
		JTI:   claims.ID,
	}, nil
}

// RevokeToken parses a (still valid) token and revokes its jti for the
// remainder of its lifetime. Used by the logout endpoint.
func (v *Validator) RevokeToken(ctx context.Context, tokenString string) error {
	if v.revoked == nil {
		return nil
	}

	claims, err := v.ValidateToken(tokenString)
	if err != nil {
		return err
	}
	if claims.JTI == "" {
		return fmt.Errorf("token has no jti, cannot revoke")
	}

	// Parse again just for the expiry; revoked entries only need to outlive
	// the token itself.
	parsed := &sessionClaims{}
	if _, err := jwt.ParseWithClaims(tokenString, parsed, func(t *jwt.Token) (any, error) {
		return v.signingKey, nil
	}); err != nil {
		return fmt.Errorf("parse token: %w", err)
	}

	ttl := 24 * time.Hour
	if parsed.ExpiresAt != nil {
		if remaining := time.Until(parsed.ExpiresAt.Time); remaining > 0 {
			ttl = remaining
		}
	}
	return v.revoked.Revoke(ctx, claims.JTI, ttl)
}
