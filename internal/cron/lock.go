package cron

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Lock keeps two cron workers from running the same cycle.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// tokenLocker is satisfied by pkg/redis.Client and the in-memory session backend.
type tokenLocker interface {
	AcquireLock(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key, token string) error
}

// KeyLock holds a single key for the duration of a cycle. The stored token names the
// holder so a stuck lock can be traced to the worker instance that took it.
type KeyLock struct {
	store  tokenLocker
	key    string
	holder string
	ttl    time.Duration
	token  string
}

func NewKeyLock(store tokenLocker, key, holder string, ttl time.Duration) (*KeyLock, error) {
	if store == nil {
		return nil, errors.New("lock store required")
	}
	if strings.TrimSpace(key) == "" {
		return nil, errors.New("lock key is required")
	}
	if ttl <= 0 {
		return nil, errors.New("lock ttl must be positive")
	}
	if holder = strings.TrimSpace(holder); holder == "" {
		holder = "cron"
	}
	return &KeyLock{store: store, key: key, holder: holder, ttl: ttl}, nil
}

func (l *KeyLock) Acquire(ctx context.Context) (bool, error) {
	token := l.holder + "/" + uuid.NewString()
	ok, err := l.store.AcquireLock(ctx, l.key, token, l.ttl)
	if err != nil {
		return false, fmt.Errorf("acquire %s: %w", l.key, err)
	}
	if ok {
		l.token = token
	}
	return ok, nil
}

// Release is a no-op unless this instance holds the lock.
func (l *KeyLock) Release(ctx context.Context) error {
	if l.token == "" {
		return nil
	}
	if err := l.store.ReleaseLock(ctx, l.key, l.token); err != nil {
		return fmt.Errorf("release %s: %w", l.key, err)
	}
	l.token = ""
	return nil
}
