package mq

import "context"

// Message is one generic business message.
type Message struct {
	ID       string            // message id (e.g. Redis Stream ID)
	Topic    string            // topic name
	Key      string            // partition key, also used for Kafka partitioning
	Payload  []byte            // message body (JSON)
	Metadata map[string]string // extra metadata
}

// Producer publishes messages.
type Producer interface {
	// Publish sends one message.
	// key is the partition key (e.g. campaign id); empty means random partition.
	Publish(ctx context.Context, topic string, key string, payload []byte) error
	Close() error
}
