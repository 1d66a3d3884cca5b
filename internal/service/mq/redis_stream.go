package mq

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"funding-core/pkg/logger"
)

// RedisProducer implements Producer on Redis Streams.
type RedisProducer struct {
	client *redis.Client
}

func NewRedisProducer(client *redis.Client) *RedisProducer {
	return &RedisProducer{
		client: client,
	}
}

// Publish appends the message to a Redis Stream via XADD.
func (p *RedisProducer) Publish(ctx context.Context, topic string, key string, payload []byte) error {
	err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: topic,
		Values: map[string]interface{}{
			"key":     key,
			"payload": payload,
		},
	}).Err()

	if err != nil {
		logger.Error("redis stream publish failed", zap.Error(err))
		return fmt.Errorf("redis xadd error: %w", err)
	}

	return nil
}

// Close is a no-op; the underlying redis client is shared and closed by its
// owner.
func (p *RedisProducer) Close() error {
	return nil
}
