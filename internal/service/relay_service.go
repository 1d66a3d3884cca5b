package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"funding-core/internal/model"
	"funding-core/internal/service/mq"
	"funding-core/pkg/logger"
)

// RelayService moves pending outbox rows onto the message queue. Delivery
// is at-least-once: the status update only happens after a successful
// publish, so consumers must dedupe.
type RelayService struct {
	db       *gorm.DB
	producer mq.Producer
	interval time.Duration
}

func NewRelayService(db *gorm.DB, producer mq.Producer) *RelayService {
	return &RelayService{
		db:       db,
		producer: producer,
		interval: 500 * time.Millisecond,
	}
}

func (s *RelayService) Start(ctx context.Context) {
	logger.Info("outbox relay started")
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("outbox relay stopped")
			return
		case <-ticker.C:
			s.processPendingMessages(ctx)
		}
	}
}

func (s *RelayService) processPendingMessages(ctx context.Context) {
	var messages []model.OutboxMessage
	// Bounded batch to keep memory flat
	if err := s.db.Where("status = ?", "PENDING").Limit(50).Find(&messages).Error; err != nil {
		logger.Error("outbox query failed", zap.Error(err))
		return
	}

	if len(messages) == 0 {
		return
	}

	for _, msg := range messages {
		if err := s.producer.Publish(ctx, msg.Topic, msg.Key, msg.Payload); err != nil {
			logger.Error("outbox publish failed", zap.Uint64("id", msg.ID), zap.Error(err))
			continue
		}

		if err := s.db.Model(&msg).Update("status", "SENT").Error; err != nil {
			logger.Error("outbox status update failed", zap.Uint64("id", msg.ID), zap.Error(err))
		}
	}
}
