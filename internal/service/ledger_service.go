package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/stripe/stripe-go/v81"
	"go.uber.org/zap"

	"funding-core/internal/event"
	"funding-core/internal/model"
	"funding-core/pkg/errno"
	"funding-core/pkg/logger"
	"funding-core/pkg/monitor"
)

// LedgerService applies verified, admitted processor events to the donation
// ledger. Every handler tolerates redelivery and out-of-order arrival: the
// idempotency gate absorbs exact duplicates, and the mutations here are
// written so that replaying an event against an already-advanced donation
// is a no-op.
type LedgerService struct {
	store    LedgerStore
	notifier Notifier

	// fallback when a session somehow arrives without fee metadata
	feeBasisPoints int64
}

func NewLedgerService(store LedgerStore, notifier Notifier, feeBasisPoints int64) *LedgerService {
	return &LedgerService{
		store:          store,
		notifier:       notifier,
		feeBasisPoints: feeBasisPoints,
	}
}

// HandleCheckoutCompleted records the donation for a completed checkout
// session: one donation row, one atomic campaign-total increment, at most
// one reward-tier claim, then best-effort notifications.
func (s *LedgerService) HandleCheckoutCompleted(ctx context.Context, sess *stripe.CheckoutSession) error {
	if sess.PaymentIntent == nil || sess.PaymentIntent.ID == "" {
		return fmt.Errorf("checkout session %s has no payment intent", sess.ID)
	}

	campaignID, err := strconv.ParseUint(sess.Metadata[event.MetaCampaignID], 10, 64)
	if err != nil {
		return fmt.Errorf("session %s: %s metadata missing or invalid: %w",
			sess.ID, event.MetaCampaignID, errno.ErrCampaignNotFound)
	}
	campaign, err := s.store.CampaignByID(ctx, campaignID)
	if err != nil {
		return fmt.Errorf("session %s: campaign %d: %w", sess.ID, campaignID, err)
	}

	gross := sess.AmountTotal
	fee, err := strconv.ParseInt(sess.Metadata[event.MetaFeeAmount], 10, 64)
	if err != nil {
		// Fee metadata is written by our own checkout path; recompute only
		// as a fallback for sessions created before the metadata existed.
		fee = ApplicationFee(gross, s.feeBasisPoints, 0)
		logger.Warn("session missing fee metadata, recomputed",
			zap.String("session", sess.ID), zap.Int64("fee", fee))
	}
	if fee < 0 || fee > gross {
		return fmt.Errorf("session %s: fee %d out of range for gross %d", sess.ID, fee, gross)
	}

	donation := &model.Donation{
		CampaignID:          campaign.ID,
		OrganizerID:         campaign.OrganizerID,
		GrossAmount:         gross,
		PlatformFee:         fee,
		NetAmount:           gross - fee,
		Currency:            string(sess.Currency),
		ProcessorPaymentRef: sess.PaymentIntent.ID,
		ProcessorSessionRef: sess.ID,
		DonorName:           sess.Metadata[event.MetaDonorName],
		DonorEmail:          sess.Metadata[event.MetaDonorEmail],
		Anonymous:           sess.Metadata[event.MetaAnonymous] == "true",
		Message:             sess.Metadata[event.MetaMessage],
		Status:              model.DonationStatusRecorded,
	}
	if tierRaw, ok := sess.Metadata[event.MetaRewardTierID]; ok && tierRaw != "" {
		tierID, err := strconv.ParseUint(tierRaw, 10, 64)
		if err != nil {
			return fmt.Errorf("session %s: invalid reward tier id %q", sess.ID, tierRaw)
		}
		donation.RewardTierID = &tierID
	}

	created, err := s.store.RecordDonation(ctx, donation)
	if err != nil {
		return fmt.Errorf("record donation for session %s: %w", sess.ID, err)
	}
	if !created {
		// Payment ref already on the ledger; counters were bumped by the
		// first delivery, nothing left to do.
		return nil
	}

	monitor.Business.DonationRecordedTotal.WithLabelValues(donation.Currency).Inc()
	monitor.Business.DonationAmountTotal.WithLabelValues(donation.Currency).Add(float64(gross))

	// Notifications are best-effort; money movement never gates on email.
	if err := s.notifier.EnqueueDonorReceipt(ctx, donation, campaign.Title); err != nil {
		logger.Error("enqueue donor receipt failed",
			zap.String("payment_ref", donation.ProcessorPaymentRef), zap.Error(err))
	}
	if err := s.notifier.EnqueueOrganizerNotification(ctx, donation, campaign.Title); err != nil {
		logger.Error("enqueue organizer notification failed",
			zap.String("payment_ref", donation.ProcessorPaymentRef), zap.Error(err))
	}

	return nil
}

// HandlePaymentSucceeded backfills the canonical charge id onto the
// donation. Writing the same value twice is harmless.
func (s *LedgerService) HandlePaymentSucceeded(ctx context.Context, pi *stripe.PaymentIntent) error {
	if pi.LatestCharge == nil || pi.LatestCharge.ID == "" {
		return nil // nothing to backfill
	}
	if err := s.store.SetDonationChargeRef(ctx, pi.ID, pi.LatestCharge.ID); err != nil {
		return fmt.Errorf("backfill charge ref for %s: %w", pi.ID, err)
	}
	return nil
}

// HandleChargeRefunded recomputes the refunded total from the full refund
// list on the charge. Re-summing instead of applying deltas is deliberate:
// redelivered or out-of-order refund events then converge to the same
// state, and individual refund rows are deduped by refund id.
func (s *LedgerService) HandleChargeRefunded(ctx context.Context, ch *stripe.Charge) error {
	donation, err := s.resolveDonationForCharge(ctx, ch)
	if err != nil {
		return err
	}

	var (
		refunds []model.RefundRecord
		total   int64
	)
	if ch.Refunds != nil {
		for _, r := range ch.Refunds.Data {
			if r == nil || r.ID == "" {
				continue
			}
			total += r.Amount
			refunds = append(refunds, model.RefundRecord{
				DonationID:         donation.ID,
				Amount:             r.Amount,
				Reason:             string(r.Reason),
				ProcessorRefundRef: r.ID,
				ProcessedAt:        time.Unix(r.Created, 0),
			})
		}
	}

	if total > donation.GrossAmount {
		logger.Warn("processor reports refunds above gross, clamping",
			zap.Uint64("donation_id", donation.ID),
			zap.Int64("reported", total),
			zap.Int64("gross", donation.GrossAmount))
		total = donation.GrossAmount
	}
	if total < donation.RefundedAmount {
		// An older delivery: keep the refund rows (insert is deduped) but
		// never walk the running total backwards.
		total = donation.RefundedAmount
	}

	newStatus := donation.Status
	switch {
	case total >= donation.GrossAmount && donation.GrossAmount > 0:
		newStatus = model.DonationStatusFullyRefunded
	case total > 0 && donation.Status == model.DonationStatusRecorded:
		newStatus = model.DonationStatusPartiallyRefunded
	}

	removeFromTotals := newStatus == model.DonationStatusFullyRefunded &&
		donation.Status != model.DonationStatusFullyRefunded

	if err := s.store.ApplyRefunds(ctx, donation, refunds, total, newStatus, removeFromTotals); err != nil {
		return fmt.Errorf("apply refunds for donation %d: %w", donation.ID, err)
	}

	if delta := total - donation.RefundedAmount; delta > 0 {
		monitor.Business.RefundAmountTotal.WithLabelValues(donation.Currency).Add(float64(delta))
	}
	return nil
}

// HandleDisputeCreated records a pending dispute annotation. The raised
// total is untouched until the dispute resolves.
func (s *LedgerService) HandleDisputeCreated(ctx context.Context, d *stripe.Dispute) error {
	if d.Charge == nil || d.Charge.ID == "" {
		return fmt.Errorf("dispute %s has no charge reference", d.ID)
	}
	donation, err := s.store.DonationByChargeRef(ctx, d.Charge.ID)
	if err != nil {
		return fmt.Errorf("dispute %s: charge %s: %w", d.ID, d.Charge.ID, err)
	}

	note := &model.DisputeNote{
		DonationID:          donation.ID,
		ProcessorDisputeRef: d.ID,
		Amount:              d.Amount,
		Reason:              string(d.Reason),
		Status:              "pending",
	}
	if err := s.store.UpsertDisputeNote(ctx, note); err != nil {
		return fmt.Errorf("upsert dispute %s: %w", d.ID, err)
	}
	return nil
}

// HandleFraudWarning records an advisory note for the organizer. It never
// blocks future events or touches money.
func (s *LedgerService) HandleFraudWarning(ctx context.Context, w *stripe.RadarEarlyFraudWarning) error {
	if w.Charge == nil || w.Charge.ID == "" {
		return fmt.Errorf("fraud warning %s has no charge reference", w.ID)
	}
	donation, err := s.store.DonationByChargeRef(ctx, w.Charge.ID)
	if err != nil {
		return fmt.Errorf("fraud warning %s: charge %s: %w", w.ID, w.Charge.ID, err)
	}

	note := &model.FraudNote{
		DonationID:          donation.ID,
		ProcessorWarningRef: w.ID,
		FraudType:           string(w.FraudType),
		Actionable:          w.Actionable,
	}
	if err := s.store.UpsertFraudNote(ctx, note); err != nil {
		return fmt.Errorf("upsert fraud warning %s: %w", w.ID, err)
	}
	return nil
}

// HandlePaymentFailed is analytics-only; the ledger is never mutated.
func (s *LedgerService) HandlePaymentFailed(ctx context.Context, pi *stripe.PaymentIntent) error {
	evt := event.PaymentFailedEvent{PaymentRef: pi.ID}
	if pi.LastPaymentError != nil {
		evt.ErrorCode = string(pi.LastPaymentError.Code)
		evt.ErrorMessage = pi.LastPaymentError.Msg
	}
	if err := s.store.AppendOutbox(ctx, event.TopicLedgerEvents, pi.ID, evt); err != nil {
		return fmt.Errorf("outbox payment failure %s: %w", pi.ID, err)
	}
	logger.Info("payment failed", zap.String("payment_ref", pi.ID), zap.String("code", evt.ErrorCode))
	return nil
}

// HandleAccountUpdated flips the organizer's onboarding flag from the
// processor-reported capability booleans. Re-applying the same booleans is
// a no-op by construction.
func (s *LedgerService) HandleAccountUpdated(ctx context.Context, acct *stripe.Account) error {
	organizer, err := s.store.OrganizerByAccountRef(ctx, acct.ID)
	if err != nil {
		return fmt.Errorf("account %s: %w", acct.ID, err)
	}

	complete := acct.ChargesEnabled && acct.PayoutsEnabled
	if err := s.store.SetOrganizerOnboarded(ctx, organizer.ID, complete); err != nil {
		return fmt.Errorf("set onboarding for organizer %d: %w", organizer.ID, err)
	}
	return nil
}

func (s *LedgerService) resolveDonationForCharge(ctx context.Context, ch *stripe.Charge) (*model.Donation, error) {
	donation, err := s.store.DonationByChargeRef(ctx, ch.ID)
	if err == nil {
		return donation, nil
	}
	// The charge ref is backfilled by payment_intent.succeeded, which may
	// not have arrived yet; fall back to the payment intent reference.
	if ch.PaymentIntent != nil && ch.PaymentIntent.ID != "" {
		if donation, piErr := s.store.DonationByPaymentRef(ctx, ch.PaymentIntent.ID); piErr == nil {
			return donation, nil
		}
	}
	return nil, fmt.Errorf("charge %s: %w", ch.ID, err)
}
