// Package bus defines the message-bus capability the Outbox Publisher
// depends on (C5). Headers carry the spec's routing/tracing metadata;
// the key guarantees per-aggregate ordering.
package bus

import "context"

// Message is one event ready to publish. Key is the partition key
// (= aggregateId); Headers mirrors spec.md §4.5's required field set.
type Message struct {
	Subject string
	Key     string
	Payload []byte
	Headers map[string]string
}

// Publisher durably publishes one message. Implementations must not
// return nil error unless the broker acknowledged durable acceptance.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}
