package auth

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
)

// MaxLoginAttempts is the maximum number of failed password checks a
// user gets inside the cooldown window.
var MaxLoginAttempts = 5

// CoolDownPeriod is the window in which we enforce a cool down
var CoolDownPeriod = "24h"

// UserProvider resolves credentials against the store
type UserProvider struct {
	store  Users
	logger Logger
}

// NewUserProvider will create a new UserProvider
func NewUserProvider(store Users) *UserProvider {
	return &UserProvider{
		store:  store,
		logger: defLogger{},
	}
}

func (u *UserProvider) WithLogger(l Logger) *UserProvider {
	if l != nil {
		u.logger = l
	}
	return u
}

// VerifyIdentity will find the user, compare the password, and return
// the principal. Unknown emails and wrong passwords surface the same
// error so callers cannot enumerate accounts.
func (u *UserProvider) VerifyIdentity(ctx context.Context, email, password string) (Principal, error) {
	user, err := u.store.GetByEmail(ctx, email)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, WrapPersistence(err, "failed to retrieve user during verification")
	}

	if !user.Enabled {
		return nil, ErrAccountNotVerified
	}

	if user.LoginAttemptAt != nil {
		expired, err := IsOutsideThresholdPeriod(*user.LoginAttemptAt, CoolDownPeriod)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to calculate login attempt cooldown")
		}

		if expired {
			user.LoginAttempts = 0
		}
	}

	// if we have too many attempts in the given window, cool off!
	if user.LoginAttempts > MaxLoginAttempts {
		return nil, ErrTooManyLoginAttempts
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		if err2 := u.store.TrackAttemptedLogin(ctx, user); err2 != nil {
			return nil, WrapPersistence(err2, "failed to track login attempt")
		}

		return nil, ErrInvalidCredentials
	}

	if err := u.store.TrackSucccessfulLogin(ctx, user); err != nil {
		u.logger.Error("failed to track successful login", "error", err)
	}

	return NewIdentityFromUser(user), nil
}

// FindIdentityByEmail resolves the principal without a password check.
// Callers decide what a disabled account means in their flow.
func (u *UserProvider) FindIdentityByEmail(ctx context.Context, email string) (Principal, error) {
	user, err := u.store.GetByEmail(ctx, email)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		return nil, WrapPersistence(err, "failed to retrieve user")
	}

	return NewIdentityFromUser(user), nil
}

var _ IdentityProvider = (*UserProvider)(nil)
