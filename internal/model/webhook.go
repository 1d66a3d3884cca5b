package model

import "time"

// WebhookEvent is the idempotency marker and audit record for one processor
// event. The unique ProviderEventID is the gate: a duplicate delivery fails
// the insert and is acknowledged as a no-op. ProcessedAt/ProcessingError
// feed the reconciliation sweeper for events whose handler failed after
// admission.
type WebhookEvent struct {
	ID              uint64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ProviderEventID string     `gorm:"type:varchar(255);not null;uniqueIndex" json:"provider_event_id"`
	EventKind       string     `gorm:"type:varchar(100);not null;index" json:"event_kind"`
	Payload         []byte     `gorm:"type:bytea;not null" json:"-"`
	ReceivedAt      time.Time  `gorm:"not null;index" json:"received_at"`
	ProcessedAt     *time.Time `json:"processed_at,omitempty"`
	ProcessingError string     `gorm:"type:text" json:"processing_error,omitempty"`
}

// ReceiptDispatchLog tracks notification sends per payment reference so the
// surrounding handler can be retried without duplicate emails. One row per
// payment, one timestamp per channel.
type ReceiptDispatchLog struct {
	ID                  uint64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ProcessorPaymentRef string     `gorm:"type:varchar(255);not null;uniqueIndex" json:"processor_payment_ref"`
	ReceiptSentAt       *time.Time `json:"receipt_sent_at,omitempty"`
	OrganizerNotifiedAt *time.Time `json:"organizer_notified_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

func (WebhookEvent) TableName() string {
	return "webhook_events"
}

func (ReceiptDispatchLog) TableName() string {
	return "receipt_dispatch_logs"
}
