package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	auth "github.com/anvthe/guddo-connection"
)

func TestIsWithinThresholdPeriod(t *testing.T) {
	recent := time.Now().Add(-time.Hour)
	within, err := auth.IsWithinThresholdPeriod(recent, "24h")
	require.NoError(t, err)
	require.True(t, within)

	stale := time.Now().Add(-time.Hour * 48)
	within, err = auth.IsWithinThresholdPeriod(stale, "24h")
	require.NoError(t, err)
	require.False(t, within)
}

func TestIsOutsideThresholdPeriod(t *testing.T) {
	stale := time.Now().Add(-time.Hour * 48)
	outside, err := auth.IsOutsideThresholdPeriod(stale, "24h")
	require.NoError(t, err)
	require.True(t, outside)
}

func TestThresholdPeriodBadPattern(t *testing.T) {
	_, err := auth.IsWithinThresholdPeriod(time.Now(), "one day")
	require.Error(t, err)
}
