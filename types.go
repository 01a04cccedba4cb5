package auth

import (
	"context"
	"fmt"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Principal is the narrow view of an account the token layer needs.
type Principal interface {
	ID() string
	Email() string
	Role() string
	IsActive() bool
}

// TokenPair carries the credentials minted on a successful login or refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Authenticator holds methods to deal with authentication
type Authenticator interface {
	Login(ctx context.Context, email, password string) (TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (TokenPair, error)
}

// Config holds auth options
type Config interface {
	GetSigningKey() string
	GetIssuer() string
	GetAudience() []string
	GetAccessTokenTTL() time.Duration
	GetRefreshTokenTTL() time.Duration
	GetVerificationTokenTTL() time.Duration
	GetResetTokenTTL() time.Duration
	GetAppURL() string
}

// IdentityProvider ensures we have a store to retrieve auth identities
type IdentityProvider interface {
	VerifyIdentity(ctx context.Context, email, password string) (Principal, error)
	FindIdentityByEmail(ctx context.Context, email string) (Principal, error)
}

// PasswordHasher is the pluggable one way hash primitive
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) error
}

// TokenService issues and validates signed tokens
type TokenService interface {
	IssueAccessToken(principal Principal) (string, error)
	IssueRefreshToken(principal Principal) (string, error)
	Validate(tokenString string) (*JWTClaims, error)
	ValidateRefresh(tokenString string) (*JWTClaims, error)
}

// Mailer delivers out of band notifications. Failures must not block
// the operation that triggered the send.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// NewDefaultLogger returns the stdout printf logger used when no other
// Logger is wired in.
func NewDefaultLogger() Logger {
	return defLogger{}
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTH "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] AUTH "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTH "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTH "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
