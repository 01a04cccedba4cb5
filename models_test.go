package auth_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	auth "github.com/anvthe/guddo-connection"
)

func TestNormalizeEmail(t *testing.T) {
	require.Equal(t, "peter@example.com", auth.NormalizeEmail("  Peter@Example.COM "))
	require.Equal(t, "", auth.NormalizeEmail("   "))
}

func TestVerificationTokenExpiry(t *testing.T) {
	user := &auth.User{ID: uuid.New()}
	token := auth.NewVerificationToken(user, time.Hour)

	require.NotEmpty(t, token.Token)
	require.Equal(t, user.ID, *token.UserID)
	require.False(t, token.IsExpired(time.Now()))
	require.True(t, token.IsExpired(time.Now().Add(time.Hour*2)))
}

func TestPasswordResetTokenExpiry(t *testing.T) {
	user := &auth.User{ID: uuid.New()}
	token := auth.NewPasswordResetToken(user, time.Minute*5)

	require.NotEmpty(t, token.Token)
	require.False(t, token.IsExpired(time.Now()))
	require.True(t, token.IsExpired(time.Now().Add(time.Minute*6)))
}

func TestTokensAreUnique(t *testing.T) {
	user := &auth.User{ID: uuid.New()}

	first := auth.NewVerificationToken(user, time.Hour)
	second := auth.NewVerificationToken(user, time.Hour)

	require.NotEqual(t, first.Token, second.Token)
}
