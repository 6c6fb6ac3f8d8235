package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"gorm.io/gorm"

	"github.com/angelmondragon/forno-backend/pkg/db/models"
	"github.com/angelmondragon/forno-backend/pkg/enums"
	"github.com/angelmondragon/forno-backend/pkg/outbox"
	"github.com/angelmondragon/forno-backend/pkg/outbox/registry"
)

type verdict int

const (
	verdictPublished verdict = iota
	verdictRetry
	verdictDeadLetter
)

func (v verdict) String() string {
	switch v {
	case verdictPublished:
		return "published"
	case verdictRetry:
		return "retry"
	default:
		return "dead_letter"
	}
}

// decide maps a publish error and the row's prior attempts to what happens to the row.
func decide(err error, priorAttempts, maxAttempts int) (verdict, enums.OutboxDLQErrorReason) {
	if err == nil {
		return verdictPublished, ""
	}
	var nonRetry registry.NonRetryableError
	if errors.As(err, &nonRetry) {
		return verdictDeadLetter, enums.OutboxDLQReasonNonRetryable
	}
	if priorAttempts+1 >= maxAttempts {
		return verdictDeadLetter, enums.OutboxDLQReasonMaxAttempts
	}
	return verdictRetry, ""
}

// inflight is one row between Publish and Get.
type inflight struct {
	event    models.OutboxEvent
	resolved *registry.ResolvedEvent
	result   publishResult
	err      error
}

func (f inflight) topic() string {
	if f.resolved == nil {
		return ""
	}
	return f.resolved.Descriptor.Topic
}

type batchStats struct {
	published   int
	retried     int
	deadLetters int
}

func (b batchStats) empty() bool {
	return b.published+b.retried+b.deadLetters == 0
}

func (b batchStats) fields() map[string]any {
	return map[string]any{
		"published":    b.published,
		"retried":      b.retried,
		"dead_letters": b.deadLetters,
	}
}

// processBatch claims up to batchSize rows, hands all of them to Pub/Sub before
// waiting on any result, and settles each row in the same transaction that
// holds the row locks.
func (s *Service) processBatch(ctx context.Context) (batchStats, error) {
	var stats batchStats
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		events, err := s.repo.FetchUnpublishedForPublish(tx, s.batchSize, s.maxAttempts)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			return nil
		}

		publishCtx, cancel := context.WithTimeout(ctx, defaultPublishTimeout)
		defer cancel()

		pending := make([]inflight, 0, len(events))
		for _, event := range events {
			pending = append(pending, s.dispatch(publishCtx, event))
		}
		for _, f := range pending {
			if f.err == nil {
				_, f.err = f.result.Get(publishCtx)
			}
			v, err := s.settle(ctx, tx, f)
			if err != nil {
				return err
			}
			switch v {
			case verdictPublished:
				stats.published++
			case verdictRetry:
				stats.retried++
			default:
				stats.deadLetters++
			}
		}
		return nil
	})
	return stats, err
}

func (s *Service) dispatch(ctx context.Context, event models.OutboxEvent) inflight {
	f := inflight{event: event}
	f.resolved, f.err = s.registry.Resolve(event)
	if f.err != nil {
		return f
	}
	f.result, f.err = s.send(ctx, event, f.resolved)
	return f
}

// send enqueues the stored envelope on the event's topic without waiting for the ack.
func (s *Service) send(ctx context.Context, event models.OutboxEvent, resolved *registry.ResolvedEvent) (publishResult, error) {
	topic := resolved.Descriptor.Topic
	pub := s.publisherFactory(topic)
	if pub == nil {
		return nil, registry.NewNonRetryableError(fmt.Errorf("no publisher for topic %s", topic))
	}
	result := pub.Publish(ctx, &gcppubsub.Message{
		Data:       event.Payload,
		Attributes: messageAttributes(event, resolved.Envelope),
	})
	if result == nil {
		return nil, registry.NewNonRetryableError(fmt.Errorf("publisher for topic %s returned no result", topic))
	}
	return result, nil
}

func messageAttributes(event models.OutboxEvent, envelope outbox.PayloadEnvelope) map[string]string {
	attrs := map[string]string{
		"event_id":       envelope.EventID,
		"event_type":     string(event.EventType),
		"schema_version": strconv.Itoa(envelope.Version),
		"aggregate_type": string(event.AggregateType),
		"aggregate_id":   event.AggregateID.String(),
		"occurred_at":    envelope.OccurredAt.UTC().Format(time.RFC3339Nano),
	}
	if envelope.Source != "" {
		attrs["source"] = envelope.Source
	}
	return attrs
}

// settle records the outcome of one row. Only storage errors are returned; a
// failed publish is a row state, not a batch failure.
func (s *Service) settle(ctx context.Context, tx *gorm.DB, f inflight) (verdict, error) {
	v, reason := decide(f.err, f.event.AttemptCount, s.maxAttempts)
	fields := s.eventFields(f)
	fields["outcome"] = v.String()
	logCtx := s.logg.WithFields(ctx, fields)

	switch v {
	case verdictPublished:
		if err := s.repo.MarkPublishedTx(tx, f.event.ID); err != nil {
			return v, fmt.Errorf("mark published %s: %w", f.event.ID, err)
		}
		s.logg.Info(logCtx, "outbox event published")
	case verdictRetry:
		s.logg.Warn(s.logg.WithField(logCtx, "error", f.err.Error()), "outbox publish failed, will retry")
		if err := s.repo.MarkFailedTx(tx, f.event.ID, f.err); err != nil {
			return v, fmt.Errorf("mark failure %s: %w", f.event.ID, err)
		}
	default:
		cause := f.err
		if reason == enums.OutboxDLQReasonMaxAttempts {
			cause = fmt.Errorf("gave up after %d attempts: %w", s.maxAttempts, f.err)
		}
		logCtx = s.logg.WithField(logCtx, "error_reason", reason.String())
		s.logg.Warn(s.logg.WithField(logCtx, "error", cause.Error()), "outbox event dead-lettered")
		if err := s.deadLetter(tx, f.event, reason, cause); err != nil {
			return v, err
		}
	}
	s.metrics.Observe(string(f.event.EventType), v.String())
	return v, nil
}

func (s *Service) deadLetter(tx *gorm.DB, event models.OutboxEvent, reason enums.OutboxDLQErrorReason, cause error) error {
	msg := cause.Error()
	entry := models.OutboxDLQ{
		EventID:       event.ID,
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Payload:       event.Payload,
		ErrorReason:   reason,
		ErrorMessage:  &msg,
		AttemptCount:  event.AttemptCount + 1,
		FailedAt:      time.Now().UTC(),
	}
	if err := s.dlq.InsertTx(tx, entry); err != nil {
		return fmt.Errorf("insert dlq %s: %w", event.ID, err)
	}
	if err := s.repo.MarkTerminalTx(tx, event.ID, cause, s.maxAttempts); err != nil {
		return fmt.Errorf("mark terminal %s: %w", event.ID, err)
	}
	return nil
}

func (s *Service) eventFields(f inflight) map[string]any {
	fields := map[string]any{
		"outbox_id":     f.event.ID.String(),
		"event_type":    f.event.EventType,
		"aggregate_id":  f.event.AggregateID.String(),
		"attempt_count": f.event.AttemptCount + 1,
	}
	if topic := f.topic(); topic != "" {
		fields["topic"] = topic
	}
	if f.event.LastError != nil {
		fields["last_error"] = *f.event.LastError
	}
	return fields
}

type gcpPublisher struct {
	*gcppubsub.Publisher
}

func (p *gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	if p == nil || p.Publisher == nil {
		return nil
	}
	return p.Publisher.Publish(ctx, msg)
}
