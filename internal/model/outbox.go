package model

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// OutboxMessage is the transactional outbox row: ledger handlers append
// analytics events in the same transaction as the ledger mutation, and the
// relay moves them to the message queue afterwards.
type OutboxMessage struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Topic     string    `gorm:"type:varchar(255);not null" json:"topic"`
	Key       string    `gorm:"type:varchar(255)" json:"key"`
	Payload   []byte    `gorm:"type:bytea;not null" json:"payload"`
	Status    string    `gorm:"type:varchar(16);not null;default:'PENDING';index" json:"status"` // PENDING, SENT
	CreatedAt time.Time `json:"created_at"`
}

func (OutboxMessage) TableName() string {
	return "outbox_messages"
}

// CreateOutboxMessage appends an outbox row inside the caller's transaction.
func CreateOutboxMessage(tx *gorm.DB, topic string, key string, payload interface{}) error {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	msg := OutboxMessage{
		Topic:   topic,
		Key:     key,
		Payload: payloadBytes,
		Status:  "PENDING",
	}

	return tx.Create(&msg).Error
}
