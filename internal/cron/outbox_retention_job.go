package cron

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/forno-backend/pkg/logger"
)

const (
	defaultOutboxRetentionDays = 30
	defaultDLQRetentionDays    = 90
	defaultOutboxMinAttempts   = 10
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPruner interface {
	DeletePublishedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time, minAttemptCount int) (int64, error)
}

type deadLetterPruner interface {
	DeleteFailedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

// OutboxRetentionJobParams configure the order-event cleanup. MinAttempts should match the
// publisher's max attempts so rows already copied to the DLQ go too.
type OutboxRetentionJobParams struct {
	Logger       *logger.Logger
	DB           txRunner
	Events       outboxPruner
	DeadLetters  deadLetterPruner
	Retention    int
	DLQRetention int
	MinAttempts  int
}

type outboxRetentionJob struct {
	logg         *logger.Logger
	db           txRunner
	events       outboxPruner
	deadLetters  deadLetterPruner
	retention    int
	dlqRetention int
	minAttempts  int
	now          func() time.Time
}

// NewOutboxRetentionJob prunes relayed order_placed rows and expired dead letters.
func NewOutboxRetentionJob(params OutboxRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	if params.DB == nil {
		return nil, errors.New("db runner required")
	}
	if params.Events == nil {
		return nil, errors.New("outbox repository required")
	}
	job := &outboxRetentionJob{
		logg:         params.Logger,
		db:           params.DB,
		events:       params.Events,
		deadLetters:  params.DeadLetters,
		retention:    orDefault(params.Retention, defaultOutboxRetentionDays),
		dlqRetention: orDefault(params.DLQRetention, defaultDLQRetentionDays),
		minAttempts:  orDefault(params.MinAttempts, defaultOutboxMinAttempts),
		now:          time.Now,
	}
	return job, nil
}

func (j *outboxRetentionJob) Name() string { return "outbox-retention" }

func (j *outboxRetentionJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	eventCutoff := now.AddDate(0, 0, -j.retention)
	dlqCutoff := now.AddDate(0, 0, -j.dlqRetention)

	var events, deadLetters int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		n, err := j.events.DeletePublishedBefore(ctx, tx, eventCutoff, j.minAttempts)
		if err != nil {
			return err
		}
		events = n
		if j.deadLetters == nil {
			return nil
		}
		n, err = j.deadLetters.DeleteFailedBefore(ctx, tx, dlqCutoff)
		if err != nil {
			return err
		}
		deadLetters = n
		return nil
	})
	if err != nil {
		return err
	}

	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"event_cutoff":         eventCutoff,
		"dlq_cutoff":           dlqCutoff,
		"events_deleted":       events,
		"dead_letters_deleted": deadLetters,
	}), "outbox retention complete")
	return nil
}

func orDefault(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}
