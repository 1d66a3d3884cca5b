package model

import "time"

// Donation lifecycle. Monotonic: recorded -> partially_refunded -> fully_refunded.
// Disputes and fraud warnings are parallel annotations, never a state regression.
const (
	DonationStatusRecorded          = "recorded"
	DonationStatusPartiallyRefunded = "partially_refunded"
	DonationStatusFullyRefunded     = "fully_refunded"
)

// Donation is one completed payment toward a campaign. All amounts are
// integer minor units. Invariant: NetAmount = GrossAmount - PlatformFee and
// RefundedAmount <= GrossAmount.
type Donation struct {
	ID                  uint64     `gorm:"primaryKey;autoIncrement" json:"id"`
	CampaignID          uint64     `gorm:"not null;index" json:"campaign_id"`
	OrganizerID         uint64     `gorm:"not null;index" json:"organizer_id"`
	RewardTierID        *uint64    `gorm:"index" json:"reward_tier_id,omitempty"`
	GrossAmount         int64      `gorm:"not null" json:"gross_amount"`
	PlatformFee         int64      `gorm:"not null" json:"platform_fee"`
	NetAmount           int64      `gorm:"not null" json:"net_amount"`
	RefundedAmount      int64      `gorm:"not null;default:0" json:"refunded_amount"`
	Currency            string     `gorm:"type:varchar(8);not null" json:"currency"`
	ProcessorPaymentRef string     `gorm:"type:varchar(255);not null;uniqueIndex" json:"processor_payment_ref"`
	ProcessorChargeRef  string     `gorm:"type:varchar(255);index" json:"processor_charge_ref"` // backfilled by payment_intent.succeeded
	ProcessorSessionRef string     `gorm:"type:varchar(255)" json:"processor_session_ref"`
	DonorName           string     `gorm:"type:varchar(255)" json:"donor_name"`
	DonorEmail          string     `gorm:"type:varchar(255)" json:"donor_email"`
	Anonymous           bool       `gorm:"not null;default:false" json:"anonymous"`
	Message             string     `gorm:"type:text" json:"message"`
	Status              string     `gorm:"type:varchar(32);not null;default:'recorded'" json:"status"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
	DisputedAt          *time.Time `json:"disputed_at,omitempty"`
}

// RefundRecord is one refund or partial refund against a donation, deduped
// by the processor's refund id to tolerate webhook redelivery.
type RefundRecord struct {
	ID                 uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	DonationID         uint64    `gorm:"not null;index" json:"donation_id"`
	Amount             int64     `gorm:"not null" json:"amount"` // minor units
	Reason             string    `gorm:"type:varchar(64)" json:"reason"`
	ProcessorRefundRef string    `gorm:"type:varchar(255);not null;uniqueIndex" json:"processor_refund_ref"`
	ProcessedAt        time.Time `json:"processed_at"`
	CreatedAt          time.Time `json:"created_at"`
}

// DisputeNote annotates a donation with a processor dispute. Keyed by the
// dispute id so a redelivered event is an upsert, not a duplicate.
type DisputeNote struct {
	ID                  uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	DonationID          uint64    `gorm:"not null;index" json:"donation_id"`
	ProcessorDisputeRef string    `gorm:"type:varchar(255);not null;uniqueIndex" json:"processor_dispute_ref"`
	Amount              int64     `gorm:"not null" json:"amount"`
	Reason              string    `gorm:"type:varchar(64)" json:"reason"`
	Status              string    `gorm:"type:varchar(32);not null;default:'pending'" json:"status"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// FraudNote is an advisory early-fraud warning shown to the organizer.
// It never blocks or mutates money.
type FraudNote struct {
	ID                  uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	DonationID          uint64    `gorm:"not null;index" json:"donation_id"`
	ProcessorWarningRef string    `gorm:"type:varchar(255);not null;uniqueIndex" json:"processor_warning_ref"`
	FraudType           string    `gorm:"type:varchar(64)" json:"fraud_type"`
	Actionable          bool      `gorm:"not null;default:false" json:"actionable"`
	CreatedAt           time.Time `json:"created_at"`
}

func (Donation) TableName() string {
	return "donations"
}

func (RefundRecord) TableName() string {
	return "refund_records"
}

func (DisputeNote) TableName() string {
	return "dispute_notes"
}

func (FraudNote) TableName() string {
	return "fraud_notes"
}
