package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/forno-backend/pkg/enums"
	"github.com/angelmondragon/forno-backend/pkg/outbox"
)

// ErrPersistenceDisabled is returned by the offline writer.
var ErrPersistenceDisabled = errors.New("order persistence disabled")

const eventSource = "checkout"

type repositoryWriter struct {
	repo Repository
}

// NewWriter persists orders through the repository.
func NewWriter(repo Repository) (Writer, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	return &repositoryWriter{repo: repo}, nil
}

func (w *repositoryWriter) Insert(ctx context.Context, order NewOrder) (uuid.UUID, error) {
	row, err := w.repo.Insert(ctx, order.ToModel())
	if err != nil {
		return uuid.Nil, err
	}
	return row.ID, nil
}

type outboxWriter struct {
	tx     TxRunner
	repo   Repository
	events EventEmitter
}

// NewOutboxWriter persists the order and queues its order_placed event in one transaction.
func NewOutboxWriter(tx TxRunner, repo Repository, events EventEmitter) (Writer, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if events == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &outboxWriter{tx: tx, repo: repo, events: events}, nil
}

func (w *outboxWriter) Insert(ctx context.Context, order NewOrder) (uuid.UUID, error) {
	var id uuid.UUID
	err := w.tx.WithTx(ctx, func(tx *gorm.DB) error {
		row, err := w.repo.WithTx(tx).Insert(ctx, order.ToModel())
		if err != nil {
			return err
		}
		if err := w.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPlaced,
			AggregateType: enums.AggregateOrder,
			AggregateID:   row.ID,
			Source:        eventSource,
			Data:          PlacedEvent(*row),
			Version:       1,
			OccurredAt:    row.CreatedAt,
		}); err != nil {
			return fmt.Errorf("queue order event: %w", err)
		}
		id = row.ID
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

type noopWriter struct{}

// NewNoopWriter is the offline variant: every insert reports ErrPersistenceDisabled so the
// caller falls back to a placeholder reference.
func NewNoopWriter() Writer {
	return noopWriter{}
}

func (noopWriter) Insert(context.Context, NewOrder) (uuid.UUID, error) {
	return uuid.Nil, ErrPersistenceDisabled
}

// IsDisabled reports whether err came from the offline writer.
func IsDisabled(err error) bool {
	return errors.Is(err, ErrPersistenceDisabled)
}
