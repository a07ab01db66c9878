package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CanonicalEvent represents a versioned domain event.
type CanonicalEvent interface {
	EventType() string
}

// Envelope is what travels on the intake queue.
type Envelope struct {
	EventID         uuid.UUID       `json:"event_id"`
	EventType       string          `json:"event_type"`
	Aggregate       string          `json:"aggregate"`
	TimestampMicros int64           `json:"timestamp"`
	CorrelationID   string          `json:"correlation_id,omitempty"`
	Payload         json.RawMessage `json:"payload"`
}

// EnvelopeOption customizes the generated envelope.
type EnvelopeOption func(*Envelope)

// WithEventID overrides the generated event id.
func WithEventID(id uuid.UUID) EnvelopeOption {
	return func(e *Envelope) {
		if id != uuid.Nil {
			e.EventID = id
		}
	}
}

// WithTimestamp overrides the envelope timestamp.
func WithTimestamp(ts time.Time) EnvelopeOption {
	return func(e *Envelope) {
		if ts.IsZero() {
			return
		}
		e.TimestampMicros = ts.UTC().UnixMicro()
	}
}

var (
	errMissingAggregate = errors.New("events: aggregate is required")
	errNilEvent         = errors.New("events: canonical event required")

	// ErrUnknownEventType is returned by Decode for types this build does not handle.
	ErrUnknownEventType = errors.New("events: unknown event type")
)

// NewEnvelope wraps evt for transport. aggregate names the record the event
// is about; correlationID ties it to the originating request.
func NewEnvelope(aggregate, correlationID string, evt CanonicalEvent, opts ...EnvelopeOption) (Envelope, error) {
	if strings.TrimSpace(aggregate) == "" {
		return Envelope{}, errMissingAggregate
	}
	if evt == nil {
		return Envelope{}, errNilEvent
	}
	eventType := strings.TrimSpace(evt.EventType())
	if eventType == "" {
		return Envelope{}, fmt.Errorf("events: event type missing")
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return Envelope{}, fmt.Errorf("events: marshal canonical payload: %w", err)
	}
	env := Envelope{
		EventID:         uuid.New(),
		EventType:       eventType,
		Aggregate:       strings.TrimSpace(aggregate),
		TimestampMicros: time.Now().UTC().UnixMicro(),
		CorrelationID:   strings.TrimSpace(correlationID),
		Payload:         payload,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&env)
		}
	}
	return env, nil
}

// Time returns the envelope timestamp.
func (e Envelope) Time() time.Time {
	return time.UnixMicro(e.TimestampMicros).UTC()
}

// Decode unmarshals the payload into the concrete event for its type.
func (e Envelope) Decode() (CanonicalEvent, error) {
	var evt CanonicalEvent
	switch e.EventType {
	case TypeBookingSubmittedV1:
		evt = &BookingSubmittedV1{}
	case TypeContactSubmittedV1:
		evt = &ContactSubmittedV1{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, e.EventType)
	}
	if err := json.Unmarshal(e.Payload, evt); err != nil {
		return nil, fmt.Errorf("events: decode %s: %w", e.EventType, err)
	}
	return evt, nil
}
