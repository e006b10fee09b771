package mq

import (
	"context"
	"time"
)

// Producer writes keyed messages to a topic.
type Producer interface {
	Publish(ctx context.Context, topic string, message *Message) error
	// Ping checks that a broker accepts connections.
	Ping(ctx context.Context) error
	// Close flushes pending writes.
	Close() error
}

// Message is one record on a topic. Messages sharing a Key land on the same
// partition and keep their order.
type Message struct {
	Key       string
	Body      []byte
	Headers   map[string]string
	Timestamp time.Time
}

// NewMessage builds a message stamped with the current time.
func NewMessage(key string, body []byte) *Message {
	return &Message{
		Key:       key,
		Body:      body,
		Headers:   make(map[string]string),
		Timestamp: time.Now(),
	}
}

// WithHeader sets a header and returns the message for chaining.
func (m *Message) WithHeader(name, value string) *Message {
	if m.Headers == nil {
		m.Headers = make(map[string]string)
	}
	m.Headers[name] = value
	return m
}

// Header returns the named header, or "" when it is not set.
func (m *Message) Header(name string) string {
	return m.Headers[name]
}
