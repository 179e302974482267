package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
)

const (
	EventOrderCreated   = "order.created"
	eventVersion        = 1
	defaultPublishLimit = 5 * time.Second
)

// EventPublisher fans order events out to other systems.
type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, n OrderNotification) error
}

// EventEnvelope wraps every published payload.
type EventEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	EventType  string          `json:"eventType"`
	OccurredAt time.Time       `json:"occurredAt"`
	Data       json.RawMessage `json:"data"`
}

// OrderCreatedEvent is the data payload of order.created.
type OrderCreatedEvent struct {
	OrderID      uuid.UUID `json:"orderId"`
	ProductID    int       `json:"productId"`
	ProductName  string    `json:"productName"`
	Size         string    `json:"size"`
	Color        string    `json:"color"`
	Quantity     int       `json:"quantity"`
	Price        string    `json:"price"`
	Total        string    `json:"total"`
	EmployeeCode string    `json:"employeeCode"`
}

type publishResult interface {
	Get(ctx context.Context) (string, error)
}

type topicPublisher interface {
	Publish(ctx context.Context, msg *gcppubsub.Message) publishResult
}

// PubSubPublisher publishes order events to a single topic.
type PubSubPublisher struct {
	topic   topicPublisher
	timeout time.Duration
}

// NewPubSubPublisher returns nil when p is nil so callers can wire it unconditionally.
func NewPubSubPublisher(p *gcppubsub.Publisher) *PubSubPublisher {
	if p == nil {
		return nil
	}
	return &PubSubPublisher{topic: &gcpPublisher{Publisher: p}, timeout: defaultPublishLimit}
}

func (p *PubSubPublisher) PublishOrderCreated(ctx context.Context, n OrderNotification) error {
	if p == nil || p.topic == nil {
		return errors.New("order event publisher not configured")
	}

	msg, err := newOrderCreatedMessage(n, time.Now().UTC())
	if err != nil {
		return err
	}

	publishCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	result := p.topic.Publish(publishCtx, msg)
	if result == nil {
		return errors.New("publisher returned nil result")
	}
	if _, err := result.Get(publishCtx); err != nil {
		return fmt.Errorf("publish %s: %w", EventOrderCreated, err)
	}
	return nil
}

// Stop flushes buffered messages and releases the publisher's goroutines.
func (p *PubSubPublisher) Stop() {
	if p == nil {
		return
	}
	if s, ok := p.topic.(interface{ Stop() }); ok {
		s.Stop()
	}
}

func newOrderCreatedMessage(n OrderNotification, now time.Time) (*gcppubsub.Message, error) {
	data, err := json.Marshal(OrderCreatedEvent{
		OrderID:      n.OrderID,
		ProductID:    n.ProductID,
		ProductName:  n.ProductName,
		Size:         n.Size,
		Color:        n.Color,
		Quantity:     n.Quantity,
		Price:        n.Price.StringFixed(2),
		Total:        n.Total.StringFixed(2),
		EmployeeCode: n.EmployeeCode,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal order event: %w", err)
	}

	envelope := EventEnvelope{
		Version:    eventVersion,
		EventID:    uuid.NewString(),
		EventType:  EventOrderCreated,
		OccurredAt: now,
		Data:       data,
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("marshal event envelope: %w", err)
	}

	return &gcppubsub.Message{
		Data: payload,
		Attributes: map[string]string{
			"event_id":     envelope.EventID,
			"event_type":   EventOrderCreated,
			"aggregate_id": n.OrderID.String(),
			"created_at":   now.Format(time.RFC3339Nano),
		},
	}, nil
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
