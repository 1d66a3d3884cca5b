package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"funding-core/internal/model"
	"funding-core/internal/worker/tasks"
)

// GormDispatchLog implements tasks.DispatchLog on the
// receipt_dispatch_logs table: one row per payment reference, one
// timestamp column per channel.
type GormDispatchLog struct {
	db *gorm.DB
}

func NewGormDispatchLog(db *gorm.DB) *GormDispatchLog {
	return &GormDispatchLog{db: db}
}

func columnForChannel(channel string) (string, error) {
	switch channel {
	case tasks.ChannelReceipt:
		return "receipt_sent_at", nil
	case tasks.ChannelOrganizer:
		return "organizer_notified_at", nil
	default:
		return "", fmt.Errorf("unknown notification channel %q", channel)
	}
}

func (l *GormDispatchLog) ChannelSent(ctx context.Context, paymentRef, channel string) (bool, error) {
	if _, err := columnForChannel(channel); err != nil {
		return false, err
	}

	var row model.ReceiptDispatchLog
	err := l.db.WithContext(ctx).
		Where("processor_payment_ref = ?", paymentRef).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}

	switch channel {
	case tasks.ChannelReceipt:
		return row.ReceiptSentAt != nil, nil
	default:
		return row.OrganizerNotifiedAt != nil, nil
	}
}

func (l *GormDispatchLog) MarkChannelSent(ctx context.Context, paymentRef, channel string) error {
	column, err := columnForChannel(channel)
	if err != nil {
		return err
	}

	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Ensure the row exists, then stamp the channel column.
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "processor_payment_ref"}},
			DoNothing: true,
		}).Create(&model.ReceiptDispatchLog{ProcessorPaymentRef: paymentRef}).Error; err != nil {
			return err
		}

		now := time.Now()
		return tx.Model(&model.ReceiptDispatchLog{}).
			Where("processor_payment_ref = ?", paymentRef).
			Update(column, &now).Error
	})
}
