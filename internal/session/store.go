package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/forno-backend/internal/checkout"
	pkgerrors "github.com/angelmondragon/forno-backend/pkg/errors"
	"github.com/angelmondragon/forno-backend/pkg/redis"
	"go.uber.org/multierr"
)

var (
	// ErrSessionNotFound is returned for unknown or expired session ids.
	ErrSessionNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "session not found")
	// ErrSessionBusy is returned when another request holds the session.
	ErrSessionBusy = pkgerrors.New(pkgerrors.CodeConflict, "session is busy, retry shortly")
)

// kv is the subset of the redis client the store needs. The in-memory backend implements the
// same surface.
type kv interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	AcquireLock(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key, token string) error
	SessionKey(sessionID string) string
	CheckoutLockKey(sessionID string) string
}

// Store keeps session snapshots with a sliding TTL.
type Store struct {
	kv  kv
	ttl time.Duration
}

// NewStore wraps a redis client or the in-memory backend.
func NewStore(backend kv, ttl time.Duration) (*Store, error) {
	if backend == nil {
		return nil, fmt.Errorf("session backend required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	return &Store{kv: backend, ttl: ttl}, nil
}

// Load returns the stored snapshot.
func (s *Store) Load(ctx context.Context, id string) (checkout.Snapshot, error) {
	raw, err := s.kv.Get(ctx, s.kv.SessionKey(id))
	if errors.Is(err, redis.ErrNil) {
		return checkout.Snapshot{}, ErrSessionNotFound
	}
	if err != nil {
		return checkout.Snapshot{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session")
	}
	var snap checkout.Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return checkout.Snapshot{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode session")
	}
	return snap, nil
}

// Save writes the snapshot and refreshes its TTL.
func (s *Store) Save(ctx context.Context, snap checkout.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode session")
	}
	if err := s.kv.Set(ctx, s.kv.SessionKey(snap.ID), string(payload), s.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save session")
	}
	return nil
}

// Delete removes the snapshot and any lock left behind.
func (s *Store) Delete(ctx context.Context, id string) error {
	var errs error
	errs = multierr.Append(errs, s.kv.Del(ctx, s.kv.SessionKey(id)))
	errs = multierr.Append(errs, s.kv.Del(ctx, s.kv.CheckoutLockKey(id)))
	if errs != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, errs, "delete session")
	}
	return nil
}

// TryLock takes the session lock once. ok is false when someone else holds it.
func (s *Store) TryLock(ctx context.Context, id, token string, ttl time.Duration) (bool, error) {
	ok, err := s.kv.AcquireLock(ctx, s.kv.CheckoutLockKey(id), token, ttl)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock session")
	}
	return ok, nil
}

// Unlock releases a lock taken with token.
func (s *Store) Unlock(ctx context.Context, id, token string) error {
	if err := s.kv.ReleaseLock(ctx, s.kv.CheckoutLockKey(id), token); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "unlock session")
	}
	return nil
}
