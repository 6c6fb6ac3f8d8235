package session

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/forno-backend/pkg/redis"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// Memory is a process-local backend for running without redis. Sessions do not survive a
// restart.
type Memory struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemory returns an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{entries: map[string]memoryEntry{}, now: time.Now}
}

func (m *Memory) getLocked(key string) (string, bool) {
	entry, ok := m.entries[key]
	if !ok {
		return "", false
	}
	if !entry.expiresAt.IsZero() && !m.now().Before(entry.expiresAt) {
		delete(m.entries, key)
		return "", false
	}
	return entry.value, true
}

func (m *Memory) setLocked(key, value string, ttl time.Duration) {
	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = m.now().Add(ttl)
	}
	m.entries[key] = entry
}

// Get returns redis.ErrNil for missing keys, like the redis client.
func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.getLocked(key)
	if !ok {
		return "", redis.ErrNil
	}
	return value, nil
}

func (m *Memory) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setLocked(key, fmt.Sprint(value), ttl)
	return nil
}

func (m *Memory) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.entries, key)
	}
	return nil
}

// SetNX stores value only when key is absent.
func (m *Memory) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.getLocked(key); exists {
		return false, nil
	}
	m.setLocked(key, fmt.Sprint(value), ttl)
	return true, nil
}

// IncrWithTTL increments a counter; the ttl applies from the first increment.
func (m *Memory) IncrWithTTL(_ context.Context, key string, ttl time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, exists := m.getLocked(key)
	if !exists {
		m.setLocked(key, "1", ttl)
		return 1, nil
	}
	count, err := strconv.ParseInt(current, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("value at %s is not an integer", key)
	}
	count++
	entry := m.entries[key]
	entry.value = strconv.FormatInt(count, 10)
	m.entries[key] = entry
	return count, nil
}

func (m *Memory) AcquireLock(_ context.Context, key, token string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, held := m.getLocked(key); held {
		return false, nil
	}
	m.setLocked(key, token, ttl)
	return true, nil
}

func (m *Memory) ReleaseLock(_ context.Context, key, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if value, ok := m.getLocked(key); ok && value == token {
		delete(m.entries, key)
	}
	return nil
}

func (m *Memory) SessionKey(sessionID string) string {
	return "session:" + sessionID
}

func (m *Memory) CheckoutLockKey(sessionID string) string {
	return "lock:checkout:" + sessionID
}

func (m *Memory) IdempotencyKey(scope, id string) string {
	return "idempotency:" + scope + ":" + id
}

func (m *Memory) RateLimitKey(scope string) string {
	return "rate_limit:" + strings.TrimSpace(scope)
}
