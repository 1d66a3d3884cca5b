package request

// CreateCheckoutRequest is the donor-facing checkout input. Amounts are
// integer minor units; the minimum is enforced by the service, not the
// binding, so the caller gets a typed error code.
type CreateCheckoutRequest struct {
	CampaignID   uint64  `json:"campaign_id" binding:"required"`
	AmountMinor  int64   `json:"amount_minor_units" binding:"required"`
	TipMinor     int64   `json:"tip_minor_units"`
	RewardTierID *uint64 `json:"reward_tier_id"`
	DonorName    string  `json:"donor_name"`
	DonorEmail   string  `json:"donor_email" binding:"required,email"`
	Anonymous    bool    `json:"anonymous"`
	Message      string  `json:"message"`
	SuccessURL   string  `json:"success_url" binding:"required,url"`
	CancelURL    string  `json:"cancel_url" binding:"required,url"`
}
