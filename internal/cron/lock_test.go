package cron

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/forno-backend/internal/session"
)

func TestKeyLockIsExclusiveAndOwnerScoped(t *testing.T) {
	store := session.NewMemory()
	ctx := context.Background()
	const key = "forno:cron-worker:lock:test"

	first, err := NewKeyLock(store, key, "web.1", time.Minute)
	require.NoError(t, err)
	second, err := NewKeyLock(store, key, "web.2", time.Minute)
	require.NoError(t, err)

	ok, err := first.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	value, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(value, "web.1/"), "token should name its holder")

	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, second.Release(ctx))
	_, err = store.Get(ctx, key)
	assert.NoError(t, err, "releasing an unowned lock must keep the holder")

	require.NoError(t, first.Release(ctx))
	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, second.Release(ctx))
	require.NoError(t, second.Release(ctx))
}

func TestNewKeyLockValidates(t *testing.T) {
	_, err := NewKeyLock(nil, "key", "w", time.Minute)
	assert.Error(t, err)
	_, err = NewKeyLock(session.NewMemory(), " ", "w", time.Minute)
	assert.Error(t, err)
	_, err = NewKeyLock(session.NewMemory(), "key", "w", 0)
	assert.Error(t, err)
}
