// Package consumer defines interfaces for consuming messages that feed
// the split writer.
//
// This package provides abstractions for consuming records from Kafka
// and managing consumer lifecycle.
package consumer

import (
	"context"

	"github.com/jittakal/splitstore/pkg/event"
)

// Consumer reads messages from Kafka topics.
type Consumer interface {
	// Subscribe subscribes to one or more topics.
	Subscribe(ctx context.Context, topics []string) error

	// Consume starts consuming messages from subscribed topics.
	// Returns channels for messages and errors.
	Consume(ctx context.Context) (<-chan *event.Message, <-chan error, error)

	// Close closes the consumer and releases resources.
	Close() error
}

// DLQPublisher publishes messages that could not be written to a dead letter queue.
type DLQPublisher interface {
	// Publish sends a message to the DLQ with the failure reason.
	Publish(ctx context.Context, msg *event.Message, reason string) error

	// Close closes the publisher and releases resources.
	Close() error
}
