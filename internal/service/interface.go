package service

import (
	"context"
	"time"

	"funding-core/internal/model"
	"funding-core/internal/processor"
)

// LedgerStore is the persistence boundary for the payment ledger. All money
// counters behind it are mutated via atomic increments, never
// read-modify-write from handler code.
type LedgerStore interface {
	// AdmitEvent inserts the idempotency marker. Returns (false, nil) when
	// the event id was already admitted, which is not an error.
	AdmitEvent(ctx context.Context, ev *model.WebhookEvent) (bool, error)
	// MarkEventProcessed records the handler outcome on the admitted event.
	MarkEventProcessed(ctx context.Context, providerEventID string, procErr error) error
	// UnprocessedEvents returns admitted events whose handler never
	// succeeded, received before the cutoff.
	UnprocessedEvents(ctx context.Context, before time.Time, limit int) ([]model.WebhookEvent, error)
	EventByProviderID(ctx context.Context, providerEventID string) (*model.WebhookEvent, error)

	CampaignByID(ctx context.Context, id uint64) (*model.Campaign, error)
	OrganizerByID(ctx context.Context, id uint64) (*model.Organizer, error)
	OrganizerByAccountRef(ctx context.Context, accountRef string) (*model.Organizer, error)
	SetOrganizerOnboarded(ctx context.Context, organizerID uint64, complete bool) error

	// RecordDonation atomically inserts the donation, bumps the campaign
	// total, claims the reward tier and appends the outbox event. Returns
	// created=false when the payment ref already exists.
	RecordDonation(ctx context.Context, d *model.Donation) (created bool, err error)
	DonationByPaymentRef(ctx context.Context, paymentRef string) (*model.Donation, error)
	DonationByChargeRef(ctx context.Context, chargeRef string) (*model.Donation, error)
	SetDonationChargeRef(ctx context.Context, paymentRef, chargeRef string) error
	// ApplyRefunds inserts the given refund records (deduped by refund ref),
	// sets the donation's refunded total and status, and removes the net
	// amount from the campaign total on the transition to fully refunded.
	ApplyRefunds(ctx context.Context, d *model.Donation, refunds []model.RefundRecord, refundedTotal int64, newStatus string, removeFromTotals bool) error

	UpsertDisputeNote(ctx context.Context, note *model.DisputeNote) error
	UpsertFraudNote(ctx context.Context, note *model.FraudNote) error

	// AppendOutbox writes a standalone outbox message (events that carry no
	// ledger mutation of their own, e.g. payment failures).
	AppendOutbox(ctx context.Context, topic, key string, payload interface{}) error
}

// ProcessorClient is the synchronous boundary to the payment processor.
type ProcessorClient interface {
	CreateCheckoutSession(ctx context.Context, p processor.CheckoutParams) (checkoutURL string, err error)
	Account(ctx context.Context, accountRef string) (*processor.AccountStatus, error)
}

// Notifier enqueues best-effort donor/organizer notifications. Failures are
// logged by callers and never fail the webhook path.
type Notifier interface {
	EnqueueDonorReceipt(ctx context.Context, d *model.Donation, campaignTitle string) error
	EnqueueOrganizerNotification(ctx context.Context, d *model.Donation, campaignTitle string) error
}
