package auth_test

import (
	"context"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	auth "github.com/anvthe/guddo-connection"
)

func providerUserFixture(t *testing.T, password string) *auth.User {
	t.Helper()

	hash, err := auth.HashPassword(password)
	require.NoError(t, err)

	return &auth.User{
		ID:           uuid.New(),
		Email:        "peter@example.com",
		Role:         auth.RoleUser,
		Enabled:      true,
		PasswordHash: hash,
	}
}

func TestVerifyIdentityHappyPath(t *testing.T) {
	users := &MockUsers{}
	user := providerUserFixture(t, "secret1")

	users.On("GetByEmail", mock.Anything, "peter@example.com").Return(user, nil).Once()
	users.On("TrackSucccessfulLogin", mock.Anything, user).Return(nil).Once()

	provider := auth.NewUserProvider(users).WithLogger(testLogger{})

	identity, err := provider.VerifyIdentity(context.Background(), "peter@example.com", "secret1")
	require.NoError(t, err)
	require.Equal(t, user.ID.String(), identity.ID())
	require.Equal(t, "peter@example.com", identity.Email())
	require.True(t, identity.IsActive())

	users.AssertExpectations(t)
}

func TestVerifyIdentityUnknownEmail(t *testing.T) {
	users := &MockUsers{}

	users.On("GetByEmail", mock.Anything, "ghost@example.com").
		Return(nil, repository.NewRecordNotFound()).Once()

	provider := auth.NewUserProvider(users).WithLogger(testLogger{})

	_, err := provider.VerifyIdentity(context.Background(), "ghost@example.com", "secret1")

	var richErr *goerrors.Error
	require.ErrorAs(t, err, &richErr)
	require.Equal(t, auth.TextCodeBadCredentials, richErr.TextCode)
}

func TestVerifyIdentityWrongPasswordTracksAttempt(t *testing.T) {
	users := &MockUsers{}
	user := providerUserFixture(t, "secret1")

	users.On("GetByEmail", mock.Anything, "peter@example.com").Return(user, nil).Once()
	users.On("TrackAttemptedLogin", mock.Anything, user).Return(nil).Once()

	provider := auth.NewUserProvider(users).WithLogger(testLogger{})

	_, err := provider.VerifyIdentity(context.Background(), "peter@example.com", "wrong")

	var richErr *goerrors.Error
	require.ErrorAs(t, err, &richErr)
	require.Equal(t, auth.TextCodeBadCredentials, richErr.TextCode)

	users.AssertExpectations(t)
	users.AssertNotCalled(t, "TrackSucccessfulLogin", mock.Anything, mock.Anything)
}

func TestVerifyIdentityDisabledAccount(t *testing.T) {
	users := &MockUsers{}
	user := providerUserFixture(t, "secret1")
	user.Enabled = false

	users.On("GetByEmail", mock.Anything, "peter@example.com").Return(user, nil).Once()

	provider := auth.NewUserProvider(users).WithLogger(testLogger{})

	_, err := provider.VerifyIdentity(context.Background(), "peter@example.com", "secret1")

	var richErr *goerrors.Error
	require.ErrorAs(t, err, &richErr)
	require.Equal(t, auth.TextCodeNotVerified, richErr.TextCode)
}

func TestVerifyIdentityCoolsOffAfterTooManyAttempts(t *testing.T) {
	users := &MockUsers{}
	user := providerUserFixture(t, "secret1")
	now := time.Now()
	user.LoginAttempts = auth.MaxLoginAttempts + 1
	user.LoginAttemptAt = &now

	users.On("GetByEmail", mock.Anything, "peter@example.com").Return(user, nil).Once()

	provider := auth.NewUserProvider(users).WithLogger(testLogger{})

	// correct password, still refused during the cooldown
	_, err := provider.VerifyIdentity(context.Background(), "peter@example.com", "secret1")

	var richErr *goerrors.Error
	require.ErrorAs(t, err, &richErr)
	require.Equal(t, auth.TextCodeTooManyAttempts, richErr.TextCode)

	users.AssertNotCalled(t, "TrackSucccessfulLogin", mock.Anything, mock.Anything)
}

func TestVerifyIdentityCooldownExpiryResetsAttempts(t *testing.T) {
	users := &MockUsers{}
	user := providerUserFixture(t, "secret1")
	stale := time.Now().Add(-time.Hour * 25)
	user.LoginAttempts = auth.MaxLoginAttempts + 1
	user.LoginAttemptAt = &stale

	users.On("GetByEmail", mock.Anything, "peter@example.com").Return(user, nil).Once()
	users.On("TrackSucccessfulLogin", mock.Anything, user).Return(nil).Once()

	provider := auth.NewUserProvider(users).WithLogger(testLogger{})

	identity, err := provider.VerifyIdentity(context.Background(), "peter@example.com", "secret1")
	require.NoError(t, err)
	require.True(t, identity.IsActive())

	users.AssertExpectations(t)
}

func TestFindIdentityByEmail(t *testing.T) {
	users := &MockUsers{}
	user := providerUserFixture(t, "secret1")

	users.On("GetByEmail", mock.Anything, "peter@example.com").Return(user, nil).Once()

	provider := auth.NewUserProvider(users).WithLogger(testLogger{})

	identity, err := provider.FindIdentityByEmail(context.Background(), "peter@example.com")
	require.NoError(t, err)
	require.Equal(t, "peter@example.com", identity.Email())
}

func TestFindIdentityByEmailUnknown(t *testing.T) {
	users := &MockUsers{}

	users.On("GetByEmail", mock.Anything, "ghost@example.com").
		Return(nil, repository.NewRecordNotFound()).Once()

	provider := auth.NewUserProvider(users).WithLogger(testLogger{})

	_, err := provider.FindIdentityByEmail(context.Background(), "ghost@example.com")

	var richErr *goerrors.Error
	require.ErrorAs(t, err, &richErr)
	require.Equal(t, auth.TextCodeIdentityNotFound, richErr.TextCode)
}
