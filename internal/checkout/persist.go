package checkout

import (
	"context"
	"sync"
	"time"

	"github.com/angelmondragon/forno-backend/internal/orders"
	"github.com/google/uuid"
)

type persistResult struct {
	id  uuid.UUID
	err error
}

// persistCall hands the insert result to whichever side still wants it. Once the caller
// stops waiting the writer goroutine owns the outcome and only logs it.
type persistCall struct {
	mu          sync.Mutex
	abandoned   bool
	placeholder string
	done        chan persistResult
}

// persist makes the single insert for a submission. It never fails the checkout: any error,
// timeout or cancellation yields a placeholder reference and persisted=false.
func (s *Service) persist(ctx context.Context, order orders.NewOrder) (string, bool) {
	started := time.Now()
	call := &persistCall{done: make(chan persistResult, 1)}

	bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.backgroundTimeout)
	go func() {
		defer cancel()
		id, err := s.writer.Insert(bg, order)

		call.mu.Lock()
		if call.abandoned {
			ref := call.placeholder
			call.mu.Unlock()
			s.lateOutcome(ctx, ref, id, err, time.Since(started))
			return
		}
		call.done <- persistResult{id: id, err: err}
		call.mu.Unlock()
	}()

	timer := time.NewTimer(s.persistTimeout)
	defer timer.Stop()

	select {
	case res := <-call.done:
		return s.settle(ctx, res, time.Since(started))
	case <-timer.C:
		return s.abandon(ctx, call, PersistTimeout, started)
	case <-ctx.Done():
		return s.abandon(ctx, call, PersistCanceled, started)
	}
}

func (s *Service) settle(ctx context.Context, res persistResult, elapsed time.Duration) (string, bool) {
	switch {
	case res.err == nil && res.id != uuid.Nil:
		s.metrics.ObservePersistence(PersistPersisted, elapsed)
		return res.id.String(), true
	case orders.IsDisabled(res.err):
		s.metrics.ObservePersistence(PersistDisabled, elapsed)
		ref := s.placeholder()
		s.logg.Info(s.logg.WithOrderRef(ctx, ref), "checkout.persist.disabled")
		return ref, false
	default:
		s.metrics.ObservePersistence(PersistError, elapsed)
		ref := s.placeholder()
		err := res.err
		if err == nil {
			err = errEmptyOrderID
		}
		s.logg.Error(s.logg.WithOrderRef(ctx, ref), "checkout.persist.failed", err)
		return ref, false
	}
}

func (s *Service) abandon(ctx context.Context, call *persistCall, outcome string, started time.Time) (string, bool) {
	call.mu.Lock()
	select {
	case res := <-call.done:
		call.mu.Unlock()
		return s.settle(ctx, res, time.Since(started))
	default:
	}
	call.abandoned = true
	call.placeholder = s.placeholder()
	ref := call.placeholder
	call.mu.Unlock()

	s.metrics.ObservePersistence(outcome, time.Since(started))
	s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
		"order_ref": ref,
		"outcome":   outcome,
	}), "checkout.persist.abandoned")
	return ref, false
}

func (s *Service) lateOutcome(ctx context.Context, ref string, id uuid.UUID, err error, elapsed time.Duration) {
	ctx = s.logg.WithOrderRef(ctx, ref)
	if err != nil {
		s.logg.Error(ctx, "checkout.persist.late_failed", err)
		return
	}
	s.metrics.ObservePersistence(PersistLate, elapsed)
	s.logg.Warn(s.logg.WithField(ctx, "order_id", id.String()), "checkout.persist.late")
}
