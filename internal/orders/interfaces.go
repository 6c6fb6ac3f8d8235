package orders

import (
	"context"

	"github.com/angelmondragon/forno-backend/pkg/db/models"
	"github.com/angelmondragon/forno-backend/pkg/outbox"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines persistence operations for the orders table.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Insert(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Order, error)
}

// Writer records a placed order and returns its persisted identifier.
type Writer interface {
	Insert(ctx context.Context, order NewOrder) (uuid.UUID, error)
}

// TxRunner opens the transaction shared by the order row and its outbox event.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// EventEmitter queues domain events on an open transaction.
type EventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}
