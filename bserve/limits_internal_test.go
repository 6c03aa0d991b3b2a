package bserve

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLimiterPoolEvictsIdleClients(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	pool := newLimiterPool(1, 2)
	pool.now = func() time.Time { return now }

	require.True(t, pool.Allow("10.0.0.1"))
	require.True(t, pool.Allow("10.0.0.1"))
	require.False(t, pool.Allow("10.0.0.1"), "burst used up")
	require.True(t, pool.Allow("10.0.0.2"))
	require.Equal(t, 2, pool.Len())

	now = now.Add(30 * time.Second)
	require.True(t, pool.Allow("10.0.0.2"))
	require.Equal(t, 2, pool.Len(), "no sweep before the idle period passed")

	now = now.Add(45 * time.Second)
	require.True(t, pool.Allow("10.0.0.3"))
	require.Equal(t, 2, pool.Len(), "10.0.0.1 was idle past a full refill")

	now = now.Add(2 * time.Minute)
	require.True(t, pool.Allow("10.0.0.3"))
	require.Equal(t, 1, pool.Len())
}

func TestLimiterPoolIdleFollowsRefillTime(t *testing.T) {
	require.Equal(t, minLimiterIdle, newLimiterPool(10, 5).idle())
	require.Equal(t, 10*time.Minute, newLimiterPool(0.5, 300).idle())
	require.Equal(t, minLimiterIdle, newLimiterPool(100, 0).idle())
}
