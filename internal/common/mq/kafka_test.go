package mq

import (
	"context"
	"testing"
	"time"
)

func TestToKafkaMessage(t *testing.T) {
	msg := NewMessage("problem-1", []byte(`{"problem_id":1}`)).WithHeader("event_type", "problem.created")

	kmsg := toKafkaMessage("problem.events", msg)
	if kmsg.Topic != "problem.events" || string(kmsg.Key) != "problem-1" {
		t.Fatalf("unexpected message: %+v", kmsg)
	}
	headers := make(map[string]string, len(kmsg.Headers))
	for _, h := range kmsg.Headers {
		headers[h.Key] = string(h.Value)
	}
	if headers["event_type"] != "problem.created" || headers[headerKey] != "problem-1" {
		t.Fatalf("unexpected headers: %v", headers)
	}
	if _, err := time.Parse(time.RFC3339Nano, headers[headerTimestamp]); err != nil {
		t.Fatalf("timestamp header not parseable: %v", err)
	}
}

func TestToKafkaMessageFillsTimestamp(t *testing.T) {
	msg := &Message{Body: []byte("x")}
	kmsg := toKafkaMessage("t", msg)
	if msg.Timestamp.IsZero() || !kmsg.Time.Equal(msg.Timestamp) {
		t.Fatalf("expected timestamp to be filled")
	}
}

func TestNewKafkaProducerRequiresBrokers(t *testing.T) {
	if _, err := NewKafkaProducer(KafkaConfig{}); err == nil {
		t.Fatalf("expected error without brokers")
	}
}

func TestPublishValidatesInput(t *testing.T) {
	producer, err := NewKafkaProducer(KafkaConfig{Brokers: []string{"127.0.0.1:9092"}})
	if err != nil {
		t.Fatalf("create producer failed: %v", err)
	}
	defer producer.Close()

	if err := producer.Publish(context.Background(), "", NewMessage("k", nil)); err == nil {
		t.Fatalf("expected error for empty topic")
	}
	if err := producer.Publish(context.Background(), "t", nil); err == nil {
		t.Fatalf("expected error for nil message")
	}
}

func TestMessageHeader(t *testing.T) {
	var msg Message
	if msg.Header("k") != "" {
		t.Fatalf("expected missing header")
	}
	if v := msg.WithHeader("k", "v").Header("k"); v != "v" {
		t.Fatalf("unexpected header: %q", v)
	}
}
