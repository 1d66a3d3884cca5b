package event

import (
	"encoding/json"
	"errors"
)

// Handled processor event kinds. Anything else is acknowledged and ignored
// so new processor event types never cause delivery storms.
const (
	KindCheckoutCompleted = "checkout.session.completed"
	KindPaymentSucceeded  = "payment_intent.succeeded"
	KindChargeRefunded    = "charge.refunded"
	KindDisputeCreated    = "charge.dispute.created"
	KindFraudWarning      = "radar.early_fraud_warning.created"
	KindPaymentFailed     = "payment_intent.payment_failed"
	KindAccountUpdated    = "account.updated"
)

// Metadata keys the checkout orchestrator tags onto the session so the
// asynchronous webhook can reconstruct context without a second lookup.
const (
	MetaCampaignID   = "campaign_id"
	MetaOrganizerID  = "organizer_id"
	MetaRewardTierID = "reward_tier_id"
	MetaFeeAmount    = "application_fee_amount"
	MetaTipAmount    = "tip_amount"
	MetaDonorName    = "donor_name"
	MetaDonorEmail   = "donor_email"
	MetaAnonymous    = "anonymous"
	MetaMessage      = "message"
)

var ErrMalformedEnvelope = errors.New("malformed webhook envelope")

// Envelope is the outer shape of a processor webhook delivery.
type Envelope struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Created int64  `json:"created"`
	Data    struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// ParseEnvelope decodes the raw body and requires the id and type fields.
func ParseEnvelope(raw []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}
	if env.ID == "" || env.Type == "" {
		return nil, ErrMalformedEnvelope
	}
	return &env, nil
}
