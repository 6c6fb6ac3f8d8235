package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemorySetNXKeepsFirstValue(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()

	ok, err := mem.SetNX(ctx, "k", "first", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = mem.SetNX(ctx, "k", "second", time.Minute)
	require.NoError(t, err)
	require.False(t, ok)

	value, err := mem.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "first", value)
}

func TestMemoryIncrWithTTLResetsAfterWindow(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	mem.now = func() time.Time { return now }

	for want := int64(1); want <= 3; want++ {
		count, err := mem.IncrWithTTL(ctx, "rl", time.Minute)
		require.NoError(t, err)
		require.Equal(t, want, count)
	}

	now = now.Add(time.Minute)
	count, err := mem.IncrWithTTL(ctx, "rl", time.Minute)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
}

func TestMemoryIncrWithTTLRejectsNonInteger(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	require.NoError(t, mem.Set(ctx, "k", "abc", 0))

	_, err := mem.IncrWithTTL(ctx, "k", time.Minute)
	require.Error(t, err)
}
