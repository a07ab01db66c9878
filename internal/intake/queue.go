package intake

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cappsac/capps-site/internal/events"
	"github.com/cappsac/capps-site/pkg/logging"
)

// Queue carries event envelopes from the API to the intake worker.
type Queue interface {
	Send(ctx context.Context, body string) error
	Receive(ctx context.Context, maxMessages int, waitSeconds int) ([]Message, error)
	Delete(ctx context.Context, receiptHandle string) error
}

// Message is one received queue entry.
type Message struct {
	ID            string
	Body          string
	ReceiptHandle string
}

// Publisher wraps canonical events in envelopes and sends them.
type Publisher struct {
	queue  Queue
	logger *logging.Logger
}

func NewPublisher(queue Queue, logger *logging.Logger) *Publisher {
	if queue == nil {
		panic("intake: queue cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Publisher{queue: queue, logger: logger}
}

// Publish sends evt about aggregate and returns the envelope it sent.
func (p *Publisher) Publish(ctx context.Context, aggregate, correlationID string, evt events.CanonicalEvent) (events.Envelope, error) {
	env, err := events.NewEnvelope(aggregate, correlationID, evt)
	if err != nil {
		return events.Envelope{}, fmt.Errorf("intake: build envelope: %w", err)
	}
	body, err := json.Marshal(env)
	if err != nil {
		return events.Envelope{}, fmt.Errorf("intake: encode envelope: %w", err)
	}
	if err := p.queue.Send(ctx, string(body)); err != nil {
		return events.Envelope{}, fmt.Errorf("intake: publish %s: %w", env.EventType, err)
	}
	p.logger.Debug("intake event published", "event_id", env.EventID, "event_type", env.EventType, "aggregate", aggregate)
	return env, nil
}
