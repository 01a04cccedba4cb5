package jwtware_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/mock"

	"github.com/anvthe/guddo-connection/middleware/jwtware"
)

type stubClaims struct {
	uid     string
	role    string
	refresh bool
}

func (c stubClaims) UserID() string  { return c.uid }
func (c stubClaims) Role() string    { return c.role }
func (c stubClaims) IsRefresh() bool { return c.refresh }

type stubValidator struct {
	claims jwtware.AuthClaims
	err    error
}

func (v stubValidator) Validate(string) (jwtware.AuthClaims, error) {
	return v.claims, v.err
}

func buildHandler(cfg jwtware.Config) router.HandlerFunc {
	return jwtware.New(cfg)(func(ctx router.Context) error {
		return ctx.Next()
	})
}

func TestAcceptsAccessToken(t *testing.T) {
	cfg := jwtware.Config{
		SigningKey:     jwtware.SigningKey{Key: []byte("test-secret"), JWTAlg: "HS256"},
		TokenValidator: stubValidator{claims: stubClaims{uid: "u-1", role: "USER"}},
		ErrorHandler: func(c router.Context, err error) error {
			return err
		},
	}
	handler := buildHandler(cfg)

	ctx := router.NewMockContext()
	ctx.HeadersM["Authorization"] = "Bearer some.valid.token"
	ctx.On("GetString", "Authorization", "").Return("Bearer some.valid.token")
	ctx.On("Locals", "user", mock.Anything).Return(nil)

	if err := handler(ctx); err != nil {
		t.Fatalf("unexpected error for valid token: %v", err)
	}
	if !ctx.NextCalled {
		t.Error("expected Next to be invoked for valid token")
	}
}

func TestMissingTokenIsRejected(t *testing.T) {
	cfg := jwtware.Config{
		SigningKey:     jwtware.SigningKey{Key: []byte("test-secret"), JWTAlg: "HS256"},
		TokenValidator: stubValidator{claims: stubClaims{}},
		ErrorHandler: func(c router.Context, err error) error {
			return err
		},
	}
	handler := buildHandler(cfg)

	ctx := router.NewMockContext()
	ctx.On("GetString", "Authorization", "").Return("")

	err := handler(ctx)
	if err == nil {
		t.Fatal("expected error for missing token, got nil")
	}
	if !strings.Contains(err.Error(), jwtware.ErrJWTMissingOrMalformed.Error()) {
		t.Errorf("expected missing token error, got: %v", err)
	}
}

func TestRefreshTokenIsRejected(t *testing.T) {
	cfg := jwtware.Config{
		SigningKey:     jwtware.SigningKey{Key: []byte("test-secret"), JWTAlg: "HS256"},
		TokenValidator: stubValidator{claims: stubClaims{uid: "u-1", refresh: true}},
		ErrorHandler: func(c router.Context, err error) error {
			return err
		},
	}
	handler := buildHandler(cfg)

	ctx := router.NewMockContext()
	ctx.HeadersM["Authorization"] = "Bearer refresh.token.here"
	ctx.On("GetString", "Authorization", "").Return("Bearer refresh.token.here")

	err := handler(ctx)
	if !errors.Is(err, jwtware.ErrRefreshTokenRejected) {
		t.Fatalf("expected refresh rejection, got: %v", err)
	}
	if ctx.NextCalled {
		t.Error("Next must not run for a refresh token")
	}
}

func TestValidatorErrorsPropagate(t *testing.T) {
	forced := errors.New("token is expired")

	cfg := jwtware.Config{
		SigningKey:     jwtware.SigningKey{Key: []byte("test-secret"), JWTAlg: "HS256"},
		TokenValidator: stubValidator{err: forced},
		ErrorHandler: func(c router.Context, err error) error {
			return err
		},
	}
	handler := buildHandler(cfg)

	ctx := router.NewMockContext()
	ctx.HeadersM["Authorization"] = "Bearer stale.token.here"
	ctx.On("GetString", "Authorization", "").Return("Bearer stale.token.here")

	if err := handler(ctx); !errors.Is(err, forced) {
		t.Fatalf("expected validator error, got: %v", err)
	}
}

func TestRequiredRole(t *testing.T) {
	cfg := jwtware.Config{
		SigningKey:     jwtware.SigningKey{Key: []byte("test-secret"), JWTAlg: "HS256"},
		TokenValidator: stubValidator{claims: stubClaims{uid: "u-1", role: "USER"}},
		RequiredRole:   "ADMIN",
		ErrorHandler: func(c router.Context, err error) error {
			return err
		},
	}
	handler := buildHandler(cfg)

	ctx := router.NewMockContext()
	ctx.HeadersM["Authorization"] = "Bearer some.valid.token"
	ctx.On("GetString", "Authorization", "").Return("Bearer some.valid.token")

	err := handler(ctx)
	if err == nil {
		t.Fatal("expected role check failure, got nil")
	}
	if !strings.Contains(err.Error(), "required role") {
		t.Errorf("expected role error, got: %v", err)
	}
}

func TestFilterSkipsMiddleware(t *testing.T) {
	cfg := jwtware.Config{
		SigningKey:     jwtware.SigningKey{Key: []byte("test-secret"), JWTAlg: "HS256"},
		TokenValidator: stubValidator{claims: stubClaims{}},
		Filter: func(ctx router.Context) bool {
			return true
		},
	}
	handler := buildHandler(cfg)

	ctx := router.NewMockContext()

	if err := handler(ctx); err != nil {
		t.Fatalf("expected filter to skip auth, got %v", err)
	}
	if !ctx.NextCalled {
		t.Error("expected Next to be invoked when filtered")
	}
}

func TestGetExtractors(t *testing.T) {
	extractors := jwtware.GetExtractors("header:Authorization,query:token,param:jwt,cookie:session")
	if len(extractors) != 4 {
		t.Fatalf("expected 4 extractors, got %d", len(extractors))
	}
}
