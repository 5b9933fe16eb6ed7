package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/OFFIS-RIT/dramatis/pkg/common"

	"github.com/rabbitmq/amqp091-go"
)

// ErrMalformed marks messages that can never be processed. They skip the
// retry queue.
var ErrMalformed = errors.New("malformed change event")

// Publisher sends change events to the catalog exchange. It satisfies
// catalog.Notifier.
type Publisher struct {
	mu sync.Mutex
	ch *amqp091.Channel
}

func NewPublisher(ch *amqp091.Channel) *Publisher {
	return &Publisher{ch: ch}
}

func (p *Publisher) Notify(ctx context.Context, event common.ChangeEvent) error {
	msg, err := changeMessage(event, time.Now())
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ch.PublishWithContext(ctx, Exchange, ChangedTopic, false, false, msg); err != nil {
		return fmt.Errorf("failed to publish change event: %w", err)
	}
	return nil
}

func changeMessage(event common.ChangeEvent, now time.Time) (amqp091.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp091.Publishing{}, fmt.Errorf("failed to marshal change event: %w", err)
	}
	return amqp091.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp091.Persistent,
		Timestamp:    now,
		Type:         string(event.Action),
	}, nil
}

// ParseChangeEvent decodes a message body and checks its kind and action.
func ParseChangeEvent(body []byte) (common.ChangeEvent, error) {
	var event common.ChangeEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return event, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if event.Kind.Label() == "" {
		return event, fmt.Errorf("%w: unknown kind %q", ErrMalformed, event.Kind)
	}
	if event.ID == "" {
		return event, fmt.Errorf("%w: missing id", ErrMalformed)
	}
	switch event.Action {
	case common.ActionCreated, common.ActionUpdated, common.ActionDeleted:
	default:
		return event, fmt.Errorf("%w: unknown action %q", ErrMalformed, event.Action)
	}
	return event, nil
}
