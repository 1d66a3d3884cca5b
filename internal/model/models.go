package model

import "time"

// Campaign statuses
const (
	CampaignStatusDraft  = "draft"
	CampaignStatusActive = "active"
	CampaignStatusClosed = "closed"
)

// Campaign is a fundraising page. RaisedAmount is the publicly displayed
// running total; it is only ever touched through atomic increments so that
// concurrent donations cannot lose updates.
type Campaign struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	OrganizerID  uint64    `gorm:"not null;index" json:"organizer_id"`
	Title        string    `gorm:"type:varchar(255);not null" json:"title"`
	Status       string    `gorm:"type:varchar(20);not null;default:'draft'" json:"status"` // draft, active, closed
	GoalAmount   int64     `gorm:"not null;default:0" json:"goal_amount"`                   // minor units
	RaisedAmount int64     `gorm:"not null;default:0" json:"raised_amount"`                 // minor units, atomic increments only
	Currency     string    `gorm:"type:varchar(8);not null;default:'usd'" json:"currency"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Organizer owns campaigns and a connected payout account at the processor.
type Organizer struct {
	ID                  uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	DisplayName         string    `gorm:"type:varchar(255);not null" json:"display_name"`
	Email               string    `gorm:"type:varchar(255);not null" json:"email"`
	ProcessorAccountRef string    `gorm:"type:varchar(255);not null;uniqueIndex" json:"processor_account_ref"`
	OnboardingComplete  bool      `gorm:"not null;default:false" json:"onboarding_complete"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// RewardTier counts claims against an optional limit. ClaimedCount is only
// mutated via a conditional atomic increment (claimed_count < claim_limit).
type RewardTier struct {
	ID            uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	CampaignID    uint64    `gorm:"not null;index" json:"campaign_id"`
	Title         string    `gorm:"type:varchar(255);not null" json:"title"`
	MinimumAmount int64     `gorm:"not null;default:0" json:"minimum_amount"` // minor units
	ClaimedCount  int64     `gorm:"not null;default:0" json:"claimed_count"`
	ClaimLimit    *int64    `json:"claim_limit,omitempty"` // nil = unlimited
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (Campaign) TableName() string {
	return "campaigns"
}

func (Organizer) TableName() string {
	return "organizers"
}

func (RewardTier) TableName() string {
	return "reward_tiers"
}
