package session

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/forno-backend/internal/checkout"
	"github.com/angelmondragon/forno-backend/pkg/enums"
	"github.com/stretchr/testify/require"
)

func TestStoreSaveLoadDelete(t *testing.T) {
	ctx := context.Background()
	store, err := NewStore(NewMemory(), time.Hour)
	require.NoError(t, err)

	_, err = store.Load(ctx, "missing")
	require.ErrorIs(t, err, ErrSessionNotFound)

	snap := checkout.NewSession("s1", nil, 5).Snapshot()
	require.NoError(t, store.Save(ctx, snap))

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, "s1", loaded.ID)
	require.Equal(t, enums.CheckoutStateEditing, loaded.State)
	require.Equal(t, 5, loaded.RecentLimit)

	require.NoError(t, store.Delete(ctx, "s1"))
	_, err = store.Load(ctx, "s1")
	require.True(t, IsNotFound(err))
}

func TestStoreSnapshotsExpire(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	mem.now = func() time.Time { return now }
	store, err := NewStore(mem, time.Minute)
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, checkout.NewSession("s1", nil, 0).Snapshot()))
	now = now.Add(59 * time.Second)
	_, err = store.Load(ctx, "s1")
	require.NoError(t, err)

	now = now.Add(2 * time.Second)
	_, err = store.Load(ctx, "s1")
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestStoreLockIsTokenScoped(t *testing.T) {
	ctx := context.Background()
	store, err := NewStore(NewMemory(), time.Hour)
	require.NoError(t, err)

	ok, err := store.TryLock(ctx, "s1", "a", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = store.TryLock(ctx, "s1", "b", time.Minute)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.Unlock(ctx, "s1", "b"))
	ok, _ = store.TryLock(ctx, "s1", "b", time.Minute)
	require.False(t, ok, "a foreign token must not release the lock")

	require.NoError(t, store.Unlock(ctx, "s1", "a"))
	ok, _ = store.TryLock(ctx, "s1", "b", time.Minute)
	require.True(t, ok)
}

func TestNewStoreValidates(t *testing.T) {
	_, err := NewStore(nil, time.Hour)
	require.Error(t, err)
	_, err = NewStore(NewMemory(), 0)
	require.Error(t, err)
}
