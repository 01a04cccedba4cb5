package auth

import (
	"context"
	"net/http"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"

	"github.com/anvthe/guddo-connection/middleware/jwtware"
)

// ApiResponse is the envelope every auth endpoint answers with.
type ApiResponse struct {
	StatusCode int    `json:"status_code"`
	Success    bool   `json:"success"`
	Message    string `json:"message"`
}

// LoginResponse extends the envelope with the minted token pair.
type LoginResponse struct {
	ApiResponse
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// HTTPStatusFor maps the closed error taxonomy to HTTP status codes.
// Unknown text codes fall through to the category, then to 500.
func HTTPStatusFor(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return http.StatusInternalServerError
	}

	switch richErr.TextCode {
	case TextCodeEmailTaken:
		return http.StatusConflict
	case TextCodeTokenNotFound, TextCodeIdentityNotFound:
		return http.StatusNotFound
	case TextCodeTokenExpired, TextCodePasswordMismatch, TextCodeRefreshMissing:
		return http.StatusBadRequest
	case TextCodeBadCredentials, TextCodeNotVerified, TextCodeWrongPassword,
		TextCodeTooManyAttempts, TextCodeSessionExpired, TextCodeSessionMalformed:
		return http.StatusUnauthorized
	case TextCodeRefreshInvalid:
		return http.StatusForbidden
	case TextCodePersistenceFailed, TextCodeMailFailed:
		return http.StatusInternalServerError
	}

	switch richErr.Category {
	case goerrors.CategoryValidation, goerrors.CategoryBadInput:
		return http.StatusBadRequest
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// WriteError renders the envelope for a failed operation. Internal
// errors keep their detail out of the response body.
func WriteError(ctx router.Context, err error) error {
	status := HTTPStatusFor(err)

	message := "something went wrong"
	if status < http.StatusInternalServerError {
		message = err.Error()
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			message = richErr.Message
		}
	}

	return ctx.JSON(status, ApiResponse{
		StatusCode: status,
		Success:    false,
		Message:    message,
	})
}

// WriteSuccess renders the envelope for a completed operation.
func WriteSuccess(ctx router.Context, status int, message string) error {
	return ctx.JSON(status, ApiResponse{
		StatusCode: status,
		Success:    true,
		Message:    message,
	})
}

// RouteAuthenticator protects routes with the signed access tokens this
// package mints.
type RouteAuthenticator struct {
	tokens TokenService
	cfg    Config
	Logger Logger
}

func NewHTTPAuthenticator(tokens TokenService, cfg Config) *RouteAuthenticator {
	return &RouteAuthenticator{
		tokens: tokens,
		cfg:    cfg,
		Logger: defLogger{},
	}
}

// ProtectedRoute gates a route behind a valid access token. Claims end
// up in the router locals under "user" and in the request context.
func (a *RouteAuthenticator) ProtectedRoute(errorHandler func(router.Context, error) error) router.MiddlewareFunc {
	if errorHandler == nil {
		errorHandler = a.defaultErrHandler
	}

	return jwtware.New(jwtware.Config{
		ErrorHandler: errorHandler,
		SigningKey: jwtware.SigningKey{
			Key:    []byte(a.cfg.GetSigningKey()),
			JWTAlg: "HS256",
		},
		TokenValidator: validatorAdapter{a.tokens},
		ContextEnricher: func(c context.Context, claims jwtware.AuthClaims) context.Context {
			if jc, ok := claims.(*JWTClaims); ok {
				return WithClaimsContext(c, jc)
			}
			return c
		},
	})
}

func (a *RouteAuthenticator) defaultErrHandler(c router.Context, err error) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		if IsTokenExpiredError(err) {
			richErr = ErrSessionExpired
		} else if IsMalformedError(err) {
			richErr = ErrSessionMalformed
		} else {
			richErr = goerrors.Wrap(err, goerrors.CategoryAuth, "invalid authentication token").
				WithTextCode(TextCodeSessionMalformed)
		}
	}

	a.Logger.Info(
		"rejected protected route",
		"error", richErr.Message,
		"text_code", richErr.TextCode,
		"details", print.MaybePrettyJSON(richErr.Metadata),
	)

	return WriteError(c, richErr)
}

// validatorAdapter narrows TokenService to the middleware contract.
type validatorAdapter struct {
	tokens TokenService
}

func (v validatorAdapter) Validate(tokenString string) (jwtware.AuthClaims, error) {
	claims, err := v.tokens.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}
