package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/forno-backend/internal/checkout"
	"github.com/angelmondragon/forno-backend/pkg/logger"
	"github.com/google/uuid"
)

const (
	defaultLockTTL  = 30 * time.Second
	defaultLockWait = 2 * time.Second
	lockPoll        = 25 * time.Millisecond

	saveAttempts = 3
	saveBackoff  = 50 * time.Millisecond
)

// Manager loads a session, runs one operation on it under the session lock, and saves it.
type Manager struct {
	store    *Store
	svc      *checkout.Service
	lockTTL  time.Duration
	lockWait time.Duration
	logg     *logger.Logger
}

// NewManager wires the store to the checkout service. lockTTL must outlive the slowest
// submission.
func NewManager(store *Store, svc *checkout.Service, lockTTL time.Duration, logg *logger.Logger) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("session store required")
	}
	if svc == nil {
		return nil, fmt.Errorf("checkout service required")
	}
	if lockTTL <= 0 {
		lockTTL = defaultLockTTL
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Manager{store: store, svc: svc, lockTTL: lockTTL, lockWait: defaultLockWait, logg: logg}, nil
}

// Service exposes the checkout service for read-only helpers.
func (m *Manager) Service() *checkout.Service {
	return m.svc
}

// Create starts and stores a new session.
func (m *Manager) Create(ctx context.Context) (checkout.View, error) {
	sess, err := m.svc.NewSession(ctx, uuid.NewString())
	if err != nil {
		return checkout.View{}, err
	}
	if err := m.store.Save(ctx, sess.Snapshot()); err != nil {
		return checkout.View{}, err
	}
	m.logg.Info(m.logg.WithSessionID(ctx, sess.ID()), "session.created")
	return m.svc.View(sess), nil
}

// View returns the current session without taking the lock.
func (m *Manager) View(ctx context.Context, id string) (checkout.View, error) {
	sess, err := m.load(ctx, id)
	if err != nil {
		return checkout.View{}, err
	}
	return m.svc.View(sess), nil
}

// Snapshot returns the raw stored session.
func (m *Manager) Snapshot(ctx context.Context, id string) (checkout.Snapshot, error) {
	return m.store.Load(ctx, id)
}

// Update runs fn with the session locked, waiting briefly for a concurrent request to finish.
// The session is saved even when fn fails, since failures can move checkout state.
func (m *Manager) Update(ctx context.Context, id string, fn func(*checkout.Session) error) (checkout.View, error) {
	token := uuid.NewString()
	if err := m.waitLock(ctx, id, token); err != nil {
		return checkout.View{}, err
	}
	defer m.unlock(ctx, id, token)

	sess, err := m.load(ctx, id)
	if err != nil {
		return checkout.View{}, err
	}
	opErr := fn(sess)
	if err := m.store.Save(ctx, sess.Snapshot()); err != nil {
		return checkout.View{}, err
	}
	if opErr != nil {
		return checkout.View{}, opErr
	}
	return m.svc.View(sess), nil
}

// Submit places the order. A second submit while the first still holds the lock is rejected
// as a duplicate without waiting. Once an order is placed the success snapshot must reach
// the store; if every save fails the lock is left to expire instead of being released, so
// the stale editing snapshot cannot be submitted again while it is held.
func (m *Manager) Submit(ctx context.Context, id string, form checkout.Form) (*checkout.Receipt, error) {
	token := uuid.NewString()
	ok, err := m.store.TryLock(ctx, id, token, m.lockTTL)
	if err != nil {
		return nil, err
	}
	if !ok {
		m.logg.Warn(m.logg.WithSessionID(ctx, id), "session.submit.locked")
		return nil, checkout.ErrSubmissionInFlight
	}
	release := true
	defer func() {
		if release {
			m.unlock(ctx, id, token)
		}
	}()

	sess, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}
	receipt, submitErr := m.svc.Submit(ctx, sess, form)
	if submitErr != nil {
		if err := m.store.Save(context.WithoutCancel(ctx), sess.Snapshot()); err != nil {
			return nil, err
		}
		return nil, submitErr
	}

	if err := m.saveWithRetry(context.WithoutCancel(ctx), sess.Snapshot()); err != nil {
		release = false
		m.logg.Error(m.logg.WithOrderRef(m.logg.WithSessionID(ctx, id), receipt.Reference), "session.save_after_submit", err)
	}
	return receipt, nil
}

func (m *Manager) saveWithRetry(ctx context.Context, snap checkout.Snapshot) error {
	var err error
	for attempt := 1; attempt <= saveAttempts; attempt++ {
		if err = m.store.Save(ctx, snap); err == nil {
			return nil
		}
		if attempt < saveAttempts {
			time.Sleep(time.Duration(attempt) * saveBackoff)
		}
	}
	return fmt.Errorf("save session after %d attempts: %w", saveAttempts, err)
}

// Delete drops the session.
func (m *Manager) Delete(ctx context.Context, id string) error {
	return m.store.Delete(ctx, id)
}

func (m *Manager) load(ctx context.Context, id string) (*checkout.Session, error) {
	snap, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return checkout.RestoreSession(snap), nil
}

func (m *Manager) waitLock(ctx context.Context, id, token string) error {
	deadline := time.Now().Add(m.lockWait)
	for {
		ok, err := m.store.TryLock(ctx, id, token, m.lockTTL)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if time.Now().After(deadline) {
			return ErrSessionBusy
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(lockPoll):
		}
	}
}

func (m *Manager) unlock(ctx context.Context, id, token string) {
	if err := m.store.Unlock(context.WithoutCancel(ctx), id, token); err != nil {
		m.logg.Error(m.logg.WithSessionID(ctx, id), "session.unlock", err)
	}
}

// IsNotFound reports whether err means the session does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSessionNotFound)
}
