package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token use discriminators. Access tokens cannot be replayed against
// the refresh endpoint and vice versa.
const (
	TokenUseAccess  = "access"
	TokenUseRefresh = "refresh"
)

// JWTClaims is the self contained assertion carried by access and
// refresh tokens. Verifiable without a store lookup.
type JWTClaims struct {
	jwt.RegisteredClaims
	UID      string `json:"uid,omitempty"`
	UserRole string `json:"role,omitempty"`
	TokenUse string `json:"token_use,omitempty"`
}

// SubjectEmail returns the subject claim, the account email.
func (c *JWTClaims) SubjectEmail() string {
	return c.RegisteredClaims.Subject
}

// UserID returns the user ID claim, falling back to the subject.
func (c *JWTClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.RegisteredClaims.Subject
}

// Role returns the opaque role attribute.
func (c *JWTClaims) Role() string {
	return c.UserRole
}

// IsRefresh reports whether the token was issued for the refresh flow.
func (c *JWTClaims) IsRefresh() bool {
	return c.TokenUse == TokenUseRefresh
}

// Expires returns the expiration time
func (c *JWTClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *JWTClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}
