package mq

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"funding-core/pkg/logger"
)

// KafkaProducer implements Producer.
type KafkaProducer struct {
	writer *kafka.Writer
}

// NewKafkaProducer creates a Kafka producer.
// brokers: Kafka node addresses (e.g. ["localhost:9092"])
func NewKafkaProducer(brokers []string) *KafkaProducer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{}, // hash by key so events for one campaign stay ordered
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireAll, // wait for all ISR replicas
		BatchSize:              100,
		BatchTimeout:           10 * time.Millisecond,
	}

	return &KafkaProducer{
		writer: writer,
	}
}

// Publish sends one message to Kafka. The topic rides on the message so one
// writer serves every outbox topic.
func (p *KafkaProducer) Publish(ctx context.Context, topic string, key string, payload []byte) error {
	msg := kafka.Message{
		Topic: topic,
		Value: payload,
		Key:   []byte(key),
	}

	err := p.writer.WriteMessages(ctx, msg)
	if err != nil {
		logger.Error("kafka publish failed", zap.Error(err))
		return fmt.Errorf("kafka write error: %w", err)
	}

	return nil
}

// Close closes the underlying writer.
func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}
