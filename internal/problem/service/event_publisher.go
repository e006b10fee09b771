package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kuntalKnight/cpftw-problems-service/internal/common/mq"
	"github.com/kuntalKnight/cpftw-problems-service/internal/problem/model"
)

// DefaultEventTopic receives every problem lifecycle event.
const DefaultEventTopic = "problem.events"

// EventPublisher announces catalog changes to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, event model.ProblemEvent) error
}

// KafkaEventPublisher publishes problem events through an mq.Producer.
type KafkaEventPublisher struct {
	producer mq.Producer
	topic    string
}

// NewKafkaEventPublisher creates a publisher writing to topic.
func NewKafkaEventPublisher(producer mq.Producer, topic string) *KafkaEventPublisher {
	if topic == "" {
		topic = DefaultEventTopic
	}
	return &KafkaEventPublisher{producer: producer, topic: topic}
}

// Publish serializes the event and keys it by problem id so one problem's events stay ordered.
func (p *KafkaEventPublisher) Publish(ctx context.Context, event model.ProblemEvent) error {
	if p == nil || p.producer == nil {
		return errors.New("event publisher is nil")
	}
	if event.ProblemID <= 0 {
		return errors.New("problemID is required")
	}
	message, err := eventMessage(event)
	if err != nil {
		return err
	}
	if err := p.producer.Publish(ctx, p.topic, message); err != nil {
		return fmt.Errorf("publish %s event failed: %w", event.EventType, err)
	}
	return nil
}

func eventMessage(event model.ProblemEvent) (*mq.Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal problem event failed: %w", err)
	}
	message := mq.NewMessage(fmt.Sprintf("problem-%d", event.ProblemID), payload).
		WithHeader("event_type", event.EventType)
	if !event.OccurredAt.IsZero() {
		message.Timestamp = event.OccurredAt
	}
	return message, nil
}

// NopEventPublisher drops every event. It is used when Kafka is disabled.
type NopEventPublisher struct{}

func (NopEventPublisher) Publish(context.Context, model.ProblemEvent) error { return nil }

var (
	_ EventPublisher = (*KafkaEventPublisher)(nil)
	_ EventPublisher = NopEventPublisher{}
)
