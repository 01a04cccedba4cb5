package auth

import (
	"context"
	"reflect"
	"strings"
)

// Auther authenticates credentials and issues the access/refresh pair.
type Auther struct {
	provider     IdentityProvider
	tokenService TokenService
	logger       Logger
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(provider IdentityProvider, tokenService TokenService) *Auther {
	return &Auther{
		provider:     provider,
		tokenService: tokenService,
		logger:       defLogger{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Login verifies the credentials and mints an access/refresh pair.
func (s *Auther) Login(ctx context.Context, email, password string) (TokenPair, error) {
	identity, err := s.provider.VerifyIdentity(ctx, email, password)
	if err != nil {
		s.logger.Error("Login verify identity error", "error", err)
		return TokenPair{}, err
	}

	if identity == nil || reflect.ValueOf(identity).IsZero() {
		s.logger.Error("Login identity is nil or zero value")
		return TokenPair{}, ErrInvalidCredentials
	}

	return s.issuePair(identity)
}

// Refresh validates the presented refresh token, re-checks the subject
// against the store, and mints a new access token. The presented
// refresh token is returned unchanged; repeated use is allowed until
// its own expiry.
func (s *Auther) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return TokenPair{}, ErrMissingRefreshToken
	}

	claims, err := s.tokenService.ValidateRefresh(refreshToken)
	if err != nil {
		s.logger.Warn("Refresh token rejected", "error", err)
		return TokenPair{}, ErrInvalidRefreshToken
	}

	// A stale refresh token referencing a disabled or deleted account
	// must fail, so the subject state is read back from the store.
	identity, err := s.provider.FindIdentityByEmail(ctx, claims.SubjectEmail())
	if err != nil {
		s.logger.Warn("Refresh subject lookup failed", "subject", claims.SubjectEmail(), "error", err)
		return TokenPair{}, ErrInvalidRefreshToken
	}

	if identity == nil || !identity.IsActive() {
		return TokenPair{}, ErrInvalidRefreshToken
	}

	access, err := s.tokenService.IssueAccessToken(identity)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{
		AccessToken:  access,
		RefreshToken: refreshToken,
	}, nil
}

func (s *Auther) issuePair(identity Principal) (TokenPair, error) {
	access, err := s.tokenService.IssueAccessToken(identity)
	if err != nil {
		s.logger.Error("Login failed to issue access token", "error", err)
		return TokenPair{}, err
	}

	refresh, err := s.tokenService.IssueRefreshToken(identity)
	if err != nil {
		s.logger.Error("Login failed to issue refresh token", "error", err)
		return TokenPair{}, err
	}

	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

var _ Authenticator = (*Auther)(nil)
