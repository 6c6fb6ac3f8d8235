package outbox

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/forno-backend/pkg/db/models"
)

const maxDLQErrorLen = 1024

// ErrDeadLetterNotFound is returned by Requeue when no dead letter exists for the event.
var ErrDeadLetterNotFound = errors.New("dead letter not found")

// DLQRepository stores order events the publisher gave up on.
type DLQRepository struct {
	db *gorm.DB
}

func NewDLQRepository(db *gorm.DB) *DLQRepository {
	return &DLQRepository{db: db}
}

func (r *DLQRepository) InsertTx(tx *gorm.DB, entry models.OutboxDLQ) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.ErrorMessage != nil {
		msg := truncateDLQError(*entry.ErrorMessage)
		entry.ErrorMessage = &msg
	}
	return tx.Create(&entry).Error
}

func (r *DLQRepository) FindByEventID(ctx context.Context, eventID uuid.UUID) (*models.OutboxDLQ, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	var dlq models.OutboxDLQ
	err := r.db.WithContext(ctx).Where("event_id = ?", eventID).First(&dlq).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &dlq, nil
}

// DeleteFailedBefore prunes dead letters recorded before cutoff.
func (r *DLQRepository) DeleteFailedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
	if tx == nil {
		tx = r.db
	}
	res := tx.WithContext(ctx).Where("failed_at < ?", cutoff).Delete(&models.OutboxDLQ{})
	return res.RowsAffected, res.Error
}

// Requeue hands a dead-lettered event back to the publisher with a fresh attempt
// budget and removes the dead letter. When retention already pruned the outbox
// row it is rebuilt from the stored payload under the same id, so consumers can
// still dedupe on event_id.
func (r *DLQRepository) Requeue(ctx context.Context, tx *gorm.DB, eventID uuid.UUID) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	tx = tx.WithContext(ctx)

	var entry models.OutboxDLQ
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("event_id = ?", eventID).
		Order("failed_at DESC").
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", ErrDeadLetterNotFound, eventID)
	}
	if err != nil {
		return err
	}

	res := tx.Model(&models.OutboxEvent{}).
		Where("id = ? AND published_at IS NULL", eventID).
		Updates(map[string]any{"attempt_count": 0, "last_error": nil})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		row := models.OutboxEvent{
			ID:            entry.EventID,
			EventType:     entry.EventType,
			AggregateType: entry.AggregateType,
			AggregateID:   entry.AggregateID,
			Payload:       entry.Payload,
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
			return fmt.Errorf("restore outbox row %s: %w", eventID, err)
		}
	}
	return tx.Where("event_id = ?", eventID).Delete(&models.OutboxDLQ{}).Error
}

// truncateDLQError cuts message to maxDLQErrorLen bytes without splitting a rune.
func truncateDLQError(message string) string {
	if len(message) <= maxDLQErrorLen {
		return message
	}
	cut := maxDLQErrorLen
	for cut > 0 && !utf8.RuneStart(message[cut]) {
		cut--
	}
	return message[:cut]
}
