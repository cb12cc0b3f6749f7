package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/eclinicgh/telehealth-platform/pkg/logging"
)

// Publisher serializes appointment events onto the queue.
type Publisher struct {
	queue  Queue
	logger *logging.Logger
}

// NewPublisher creates a publisher over the given queue.
func NewPublisher(queue Queue, logger *logging.Logger) *Publisher {
	if queue == nil {
		panic("events: queue cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Publisher{queue: queue, logger: logger}
}

// Publish enqueues the event, filling in id and timestamp when absent.
func (p *Publisher) Publish(ctx context.Context, evt AppointmentEvent) error {
	if evt.ID == "" {
		evt.ID = uuid.NewString()
	}
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now().UTC()
	}

	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("events: failed to encode event: %w", err)
	}
	if err := p.queue.Send(ctx, string(body)); err != nil {
		return err
	}
	p.logger.Debug("event published", "kind", evt.Kind, "appointment_id", evt.AppointmentID)
	return nil
}

// Decode parses an event payload received from the queue.
func Decode(body string) (AppointmentEvent, error) {
	var evt AppointmentEvent
	if err := json.Unmarshal([]byte(body), &evt); err != nil {
		return AppointmentEvent{}, fmt.Errorf("events: failed to decode event: %w", err)
	}
	return evt, nil
}
