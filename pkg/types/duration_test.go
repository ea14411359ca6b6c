package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDuration_Millis(t *testing.T) {
	require.Equal(t, int64(86_400_000), Duration1d.Millis())
	require.Equal(t, int64(604_800_000), Duration7d.Millis())
	require.Equal(t, int64(2_592_000_000), Duration30d.Millis())
	require.Equal(t, int64(0), Duration("14d").Millis())
	require.Equal(t, int64(0), Duration("").Millis())
}

func TestDuration_Valid(t *testing.T) {
	for _, d := range AllDurations {
		require.True(t, d.Valid(), string(d))
	}
	require.False(t, Duration("2h").Valid())
}

func TestDuration_AsDuration(t *testing.T) {
	require.Equal(t, 24*time.Hour, Duration1d.AsDuration())
	require.Equal(t, 7*24*time.Hour, Duration7d.AsDuration())
	require.Equal(t, 30*24*time.Hour, Duration30d.AsDuration())
}
