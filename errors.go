package auth

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes for the closed error taxonomy. The HTTP boundary matches
// these exhaustively, no dispatch over error subtypes.
const (
	TextCodeEmailTaken        = "EMAIL_TAKEN"
	TextCodeTokenNotFound     = "TOKEN_NOT_FOUND"
	TextCodeTokenExpired      = "TOKEN_EXPIRED"
	TextCodeBadCredentials    = "INVALID_CREDENTIALS"
	TextCodeNotVerified       = "ACCOUNT_NOT_VERIFIED"
	TextCodeWrongPassword     = "INCORRECT_CURRENT_PASSWORD"
	TextCodePasswordMismatch  = "PASSWORD_MISMATCH"
	TextCodeRefreshMissing    = "REFRESH_TOKEN_MISSING"
	TextCodeRefreshInvalid    = "REFRESH_TOKEN_INVALID"
	TextCodeTooManyAttempts   = "TOO_MANY_LOGIN_ATTEMPTS"
	TextCodeSessionExpired    = "SESSION_EXPIRED"
	TextCodeSessionMalformed  = "SESSION_MALFORMED"
	TextCodeIdentityNotFound  = "IDENTITY_NOT_FOUND"
	TextCodePersistenceFailed = "PERSISTENCE_FAILED"
	TextCodeMailFailed        = "MAIL_DELIVERY_FAILED"
)

// ErrEmailTaken is returned when registering an email that already has an account.
var ErrEmailTaken = goerrors.New("this email address is already registered", goerrors.CategoryConflict).
	WithTextCode(TextCodeEmailTaken)

// ErrTokenNotFound covers unknown verification and password reset tokens,
// including tokens that were already consumed.
var ErrTokenNotFound = goerrors.New("invalid or unknown token", goerrors.CategoryNotFound).
	WithTextCode(TextCodeTokenNotFound)

// ErrTokenExpired is returned when a one time token is past its window.
var ErrTokenExpired = goerrors.New("token has expired", goerrors.CategoryValidation).
	WithTextCode(TextCodeTokenExpired)

// ErrInvalidCredentials deliberately does not distinguish an unknown
// email from a wrong password, to avoid account enumeration.
var ErrInvalidCredentials = goerrors.New("invalid email or password", goerrors.CategoryAuth).
	WithTextCode(TextCodeBadCredentials)

// ErrAccountNotVerified blocks disabled accounts from authenticating.
var ErrAccountNotVerified = goerrors.New("account not verified, check your email", goerrors.CategoryAuth).
	WithTextCode(TextCodeNotVerified)

// ErrIncorrectCurrentPassword is returned by the password update flow.
var ErrIncorrectCurrentPassword = goerrors.New("current password is incorrect", goerrors.CategoryAuth).
	WithTextCode(TextCodeWrongPassword)

// ErrPasswordMismatch is returned when the confirmation password differs.
var ErrPasswordMismatch = goerrors.New("new password and confirm password do not match", goerrors.CategoryValidation).
	WithTextCode(TextCodePasswordMismatch)

// ErrMissingRefreshToken is returned when no bearer token was supplied.
var ErrMissingRefreshToken = goerrors.New("refresh token is missing", goerrors.CategoryBadInput).
	WithTextCode(TextCodeRefreshMissing)

// ErrInvalidRefreshToken covers bad signatures, expired refresh tokens
// and refresh tokens whose subject no longer resolves to an enabled account.
var ErrInvalidRefreshToken = goerrors.New("invalid refresh token", goerrors.CategoryAuth).
	WithTextCode(TextCodeRefreshInvalid)

// ErrTooManyLoginAttempts throttles password guessing on one account.
var ErrTooManyLoginAttempts = goerrors.New("too many login attempts, try again later", goerrors.CategoryAuth).
	WithTextCode(TextCodeTooManyAttempts)

// ErrSessionExpired is the codec error for an expired signed token.
var ErrSessionExpired = goerrors.New("token is expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeSessionExpired)

// ErrSessionMalformed is the codec error for an undecodable signed token.
var ErrSessionMalformed = goerrors.New("token is malformed", goerrors.CategoryAuth).
	WithTextCode(TextCodeSessionMalformed)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = goerrors.New("identity not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeIdentityNotFound)

// ErrMismatchedHashAndPassword is the hasher's verification failure.
var ErrMismatchedHashAndPassword = goerrors.New("password does not match hash", goerrors.CategoryAuth).
	WithTextCode(TextCodeBadCredentials)

// ErrNoEmptyString rejects empty plaintext passwords at the hasher.
var ErrNoEmptyString = goerrors.New("password must not be empty", goerrors.CategoryValidation)

// WrapPersistence maps a store level failure into an opaque internal error.
func WrapPersistence(err error, msg string) error {
	return goerrors.Wrap(err, goerrors.CategoryInternal, msg).
		WithTextCode(TextCodePersistenceFailed)
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
