package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"funding-core/internal/model"
	"funding-core/pkg/errno"
)

// fakeLedgerStore is an in-memory LedgerStore with the same uniqueness and
// atomicity semantics as the real one.
type fakeLedgerStore struct {
	mu sync.Mutex

	events     map[string]*model.WebhookEvent
	campaigns  map[uint64]*model.Campaign
	organizers map[uint64]*model.Organizer
	tiers      map[uint64]*model.RewardTier
	donations  map[string]*model.Donation // by payment ref
	refunds    map[string]*model.RefundRecord
	disputes   map[string]*model.DisputeNote
	frauds     map[string]*model.FraudNote
	outbox     []model.OutboxMessage

	nextDonationID uint64
}

func newFakeLedgerStore() *fakeLedgerStore {
	return &fakeLedgerStore{
		events:     make(map[string]*model.WebhookEvent),
		campaigns:  make(map[uint64]*model.Campaign),
		organizers: make(map[uint64]*model.Organizer),
		tiers:      make(map[uint64]*model.RewardTier),
		donations:  make(map[string]*model.Donation),
		refunds:    make(map[string]*model.RefundRecord),
		disputes:   make(map[string]*model.DisputeNote),
		frauds:     make(map[string]*model.FraudNote),
	}
}

func (f *fakeLedgerStore) AdmitEvent(ctx context.Context, ev *model.WebhookEvent) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.events[ev.ProviderEventID]; ok {
		return false, nil
	}
	cp := *ev
	cp.ReceivedAt = time.Now()
	f.events[ev.ProviderEventID] = &cp
	return true, nil
}

func (f *fakeLedgerStore) MarkEventProcessed(ctx context.Context, providerEventID string, procErr error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ev, ok := f.events[providerEventID]
	if !ok {
		return errno.ErrEventNotFound
	}
	if procErr != nil {
		ev.ProcessingError = procErr.Error()
		return nil
	}
	now := time.Now()
	ev.ProcessedAt = &now
	ev.ProcessingError = ""
	return nil
}

func (f *fakeLedgerStore) UnprocessedEvents(ctx context.Context, before time.Time, limit int) ([]model.WebhookEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.WebhookEvent
	for _, ev := range f.events {
		if ev.ProcessedAt == nil && ev.ReceivedAt.Before(before) {
			out = append(out, *ev)
			if len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (f *fakeLedgerStore) EventByProviderID(ctx context.Context, providerEventID string) (*model.WebhookEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ev, ok := f.events[providerEventID]
	if !ok {
		return nil, errno.ErrEventNotFound
	}
	cp := *ev
	return &cp, nil
}

func (f *fakeLedgerStore) CampaignByID(ctx context.Context, id uint64) (*model.Campaign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.campaigns[id]
	if !ok {
		return nil, errno.ErrCampaignNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeLedgerStore) OrganizerByID(ctx context.Context, id uint64) (*model.Organizer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.organizers[id]
	if !ok {
		return nil, errno.ErrOrganizerNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeLedgerStore) OrganizerByAccountRef(ctx context.Context, accountRef string) (*model.Organizer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.organizers {
		if o.ProcessorAccountRef == accountRef {
			cp := *o
			return &cp, nil
		}
	}
	return nil, errno.ErrOrganizerNotFound
}

func (f *fakeLedgerStore) SetOrganizerOnboarded(ctx context.Context, organizerID uint64, complete bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.organizers[organizerID]
	if !ok {
		return errno.ErrOrganizerNotFound
	}
	o.OnboardingComplete = complete
	return nil
}

func (f *fakeLedgerStore) RecordDonation(ctx context.Context, d *model.Donation) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.donations[d.ProcessorPaymentRef]; ok {
		return false, nil
	}

	f.nextDonationID++
	d.ID = f.nextDonationID

	if d.RewardTierID != nil {
		tier, ok := f.tiers[*d.RewardTierID]
		if !ok || (tier.ClaimLimit != nil && tier.ClaimedCount >= *tier.ClaimLimit) {
			d.RewardTierID = nil
		} else {
			tier.ClaimedCount++
		}
	}

	cp := *d
	f.donations[d.ProcessorPaymentRef] = &cp
	if c, ok := f.campaigns[d.CampaignID]; ok {
		c.RaisedAmount += d.NetAmount
	}
	f.appendOutboxLocked("donation", d.ProcessorPaymentRef, d)
	return true, nil
}

func (f *fakeLedgerStore) DonationByPaymentRef(ctx context.Context, paymentRef string) (*model.Donation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.donations[paymentRef]
	if !ok {
		return nil, errno.ErrDonationNotFound
	}
	cp := *d
	return &cp, nil
}

func (f *fakeLedgerStore) DonationByChargeRef(ctx context.Context, chargeRef string) (*model.Donation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.donations {
		if d.ProcessorChargeRef == chargeRef && chargeRef != "" {
			cp := *d
			return &cp, nil
		}
	}
	return nil, errno.ErrDonationNotFound
}

func (f *fakeLedgerStore) SetDonationChargeRef(ctx context.Context, paymentRef, chargeRef string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.donations[paymentRef]
	if !ok {
		return errno.ErrDonationNotFound
	}
	d.ProcessorChargeRef = chargeRef
	return nil
}

func (f *fakeLedgerStore) ApplyRefunds(ctx context.Context, d *model.Donation, refunds []model.RefundRecord, refundedTotal int64, newStatus string, removeFromTotals bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range refunds {
		r := refunds[i]
		if _, ok := f.refunds[r.ProcessorRefundRef]; ok {
			continue
		}
		f.refunds[r.ProcessorRefundRef] = &r
	}
	stored, ok := f.donations[d.ProcessorPaymentRef]
	if !ok {
		return errno.ErrDonationNotFound
	}
	stored.RefundedAmount = refundedTotal
	stored.Status = newStatus
	if removeFromTotals {
		if c, ok := f.campaigns[stored.CampaignID]; ok {
			c.RaisedAmount -= stored.NetAmount
		}
	}
	f.appendOutboxLocked("refund", d.ProcessorPaymentRef, refundedTotal)
	return nil
}

func (f *fakeLedgerStore) UpsertDisputeNote(ctx context.Context, note *model.DisputeNote) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *note
	f.disputes[note.ProcessorDisputeRef] = &cp
	for _, d := range f.donations {
		if d.ID == note.DonationID && d.DisputedAt == nil {
			now := time.Now()
			d.DisputedAt = &now
		}
	}
	return nil
}

func (f *fakeLedgerStore) UpsertFraudNote(ctx context.Context, note *model.FraudNote) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *note
	f.frauds[note.ProcessorWarningRef] = &cp
	return nil
}

func (f *fakeLedgerStore) AppendOutbox(ctx context.Context, topic, key string, payload interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appendOutboxLocked(topic, key, payload)
	return nil
}

func (f *fakeLedgerStore) appendOutboxLocked(topic, key string, payload interface{}) {
	raw, _ := json.Marshal(payload)
	f.outbox = append(f.outbox, model.OutboxMessage{Topic: topic, Key: key, Payload: raw, Status: "PENDING"})
}

// fakeNotifier records enqueue calls.
type fakeNotifier struct {
	mu             sync.Mutex
	donorReceipts  []string
	organizerNotes []string
	err            error
}

func (n *fakeNotifier) EnqueueDonorReceipt(ctx context.Context, d *model.Donation, campaignTitle string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.donorReceipts = append(n.donorReceipts, d.ProcessorPaymentRef)
	return nil
}

func (n *fakeNotifier) EnqueueOrganizerNotification(ctx context.Context, d *model.Donation, campaignTitle string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.organizerNotes = append(n.organizerNotes, d.ProcessorPaymentRef)
	return nil
}
