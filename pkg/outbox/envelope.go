package outbox

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EnvelopeVersion is the newest envelope layout this build writes and reads.
const EnvelopeVersion = 1

// PayloadEnvelope wraps every outbox payload. EventID equals the outbox row id, so
// subscribers can dedupe redeliveries on it.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Source     string          `json:"source,omitempty"`
	Data       json.RawMessage `json:"data"`
}

func newEnvelope(rowID uuid.UUID, event DomainEvent) ([]byte, PayloadEnvelope, error) {
	data, err := json.Marshal(event.Data)
	if err != nil {
		return nil, PayloadEnvelope{}, fmt.Errorf("encode %s data: %w", event.EventType, err)
	}
	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}
	version := event.Version
	if version <= 0 {
		version = EnvelopeVersion
	}
	envelope := PayloadEnvelope{
		Version:    version,
		EventID:    rowID.String(),
		OccurredAt: occurredAt.UTC(),
		Source:     event.Source,
		Data:       data,
	}
	raw, err := json.Marshal(envelope)
	if err != nil {
		return nil, PayloadEnvelope{}, err
	}
	return raw, envelope, nil
}

// DecodeEnvelope parses a stored payload and rejects envelopes this build cannot relay.
func DecodeEnvelope(raw []byte) (PayloadEnvelope, error) {
	var envelope PayloadEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return PayloadEnvelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if envelope.Version > EnvelopeVersion {
		return PayloadEnvelope{}, fmt.Errorf("envelope version %d is newer than %d", envelope.Version, EnvelopeVersion)
	}
	trimmed := bytes.TrimSpace(envelope.Data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return PayloadEnvelope{}, errors.New("envelope has no data")
	}
	return envelope, nil
}
