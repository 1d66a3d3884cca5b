package event

// Outbox topics consumed by the analytics pipeline.
const (
	TopicLedgerEvents = "funding_ledger_events"
)

// DonationRecordedEvent is published once per newly recorded donation.
type DonationRecordedEvent struct {
	DonationID  uint64 `json:"donation_id"`
	CampaignID  uint64 `json:"campaign_id"`
	OrganizerID uint64 `json:"organizer_id"`
	GrossAmount int64  `json:"gross_amount"`
	PlatformFee int64  `json:"platform_fee"`
	NetAmount   int64  `json:"net_amount"`
	Currency    string `json:"currency"`
	PaymentRef  string `json:"payment_ref"`
}

// RefundRecordedEvent is published when new refund records are applied.
type RefundRecordedEvent struct {
	DonationID     uint64 `json:"donation_id"`
	CampaignID     uint64 `json:"campaign_id"`
	RefundedAmount int64  `json:"refunded_amount"` // running total for the donation
	Currency       string `json:"currency"`
	FullyRefunded  bool   `json:"fully_refunded"`
}

// PaymentFailedEvent is analytics-only; it never mutates the ledger.
type PaymentFailedEvent struct {
	PaymentRef   string `json:"payment_ref"`
	ErrorCode    string `json:"error_code,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}
