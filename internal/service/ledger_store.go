package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"funding-core/internal/event"
	"funding-core/internal/model"
	"funding-core/pkg/errno"
)

// GormLedgerStore is the PostgreSQL implementation of LedgerStore.
type GormLedgerStore struct {
	db *gorm.DB
}

func NewGormLedgerStore(db *gorm.DB) *GormLedgerStore {
	return &GormLedgerStore{db: db}
}

// AdmitEvent inserts the idempotency marker under the unique constraint on
// provider_event_id. A duplicate delivery hits the constraint and returns
// (false, nil): not an error, the transport acknowledges and stops retries.
func (s *GormLedgerStore) AdmitEvent(ctx context.Context, ev *model.WebhookEvent) (bool, error) {
	if ev.ReceivedAt.IsZero() {
		ev.ReceivedAt = time.Now()
	}
	err := s.db.WithContext(ctx).Create(ev).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *GormLedgerStore) MarkEventProcessed(ctx context.Context, providerEventID string, procErr error) error {
	updates := map[string]interface{}{}
	if procErr != nil {
		updates["processing_error"] = procErr.Error()
	} else {
		now := time.Now()
		updates["processed_at"] = &now
		updates["processing_error"] = ""
	}
	return s.db.WithContext(ctx).Model(&model.WebhookEvent{}).
		Where("provider_event_id = ?", providerEventID).
		Updates(updates).Error
}

func (s *GormLedgerStore) UnprocessedEvents(ctx context.Context, before time.Time, limit int) ([]model.WebhookEvent, error) {
	var events []model.WebhookEvent
	err := s.db.WithContext(ctx).
		Where("processed_at IS NULL AND received_at < ?", before).
		Order("received_at").
		Limit(limit).
		Find(&events).Error
	return events, err
}

func (s *GormLedgerStore) EventByProviderID(ctx context.Context, providerEventID string) (*model.WebhookEvent, error) {
	var ev model.WebhookEvent
	err := s.db.WithContext(ctx).Where("provider_event_id = ?", providerEventID).First(&ev).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errno.ErrEventNotFound
		}
		return nil, err
	}
	return &ev, nil
}

func (s *GormLedgerStore) CampaignByID(ctx context.Context, id uint64) (*model.Campaign, error) {
	var campaign model.Campaign
	err := s.db.WithContext(ctx).First(&campaign, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errno.ErrCampaignNotFound
		}
		return nil, err
	}
	return &campaign, nil
}

func (s *GormLedgerStore) OrganizerByID(ctx context.Context, id uint64) (*model.Organizer, error) {
	var organizer model.Organizer
	err := s.db.WithContext(ctx).First(&organizer, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errno.ErrOrganizerNotFound
		}
		return nil, err
	}
	return &organizer, nil
}

func (s *GormLedgerStore) OrganizerByAccountRef(ctx context.Context, accountRef string) (*model.Organizer, error) {
	var organizer model.Organizer
	err := s.db.WithContext(ctx).Where("processor_account_ref = ?", accountRef).First(&organizer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errno.ErrOrganizerNotFound
		}
		return nil, err
	}
	return &organizer, nil
}

func (s *GormLedgerStore) SetOrganizerOnboarded(ctx context.Context, organizerID uint64, complete bool) error {
	return s.db.WithContext(ctx).Model(&model.Organizer{}).
		Where("id = ?", organizerID).
		Update("onboarding_complete", complete).Error
}

// RecordDonation runs the whole checkout-completed mutation in one
// transaction. The campaign counter and tier claim are plain SQL
// increments; handler code never computes new_total = old_total + delta.
func (s *GormLedgerStore) RecordDonation(ctx context.Context, d *model.Donation) (bool, error) {
	created := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "processor_payment_ref"}},
			DoNothing: true,
		}).Create(d)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Already on the ledger: counters were bumped by the insert
			// that won, so this replay stops here.
			return nil
		}
		created = true

		if err := tx.Model(&model.Campaign{}).
			Where("id = ?", d.CampaignID).
			UpdateColumn("raised_amount", gorm.Expr("raised_amount + ?", d.NetAmount)).Error; err != nil {
			return err
		}

		if d.RewardTierID != nil {
			res := tx.Model(&model.RewardTier{}).
				Where("id = ? AND (claim_limit IS NULL OR claimed_count < claim_limit)", *d.RewardTierID).
				UpdateColumn("claimed_count", gorm.Expr("claimed_count + 1"))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				// Tier filled up between checkout and completion. Keep the
				// donation, drop the claim.
				if err := tx.Model(d).Update("reward_tier_id", nil).Error; err != nil {
					return err
				}
				d.RewardTierID = nil
			}
		}

		return model.CreateOutboxMessage(tx, event.TopicLedgerEvents,
			strconv.FormatUint(d.CampaignID, 10),
			event.DonationRecordedEvent{
				DonationID:  d.ID,
				CampaignID:  d.CampaignID,
				OrganizerID: d.OrganizerID,
				GrossAmount: d.GrossAmount,
				PlatformFee: d.PlatformFee,
				NetAmount:   d.NetAmount,
				Currency:    d.Currency,
				PaymentRef:  d.ProcessorPaymentRef,
			})
	})
	return created, err
}

func (s *GormLedgerStore) DonationByPaymentRef(ctx context.Context, paymentRef string) (*model.Donation, error) {
	var donation model.Donation
	err := s.db.WithContext(ctx).Where("processor_payment_ref = ?", paymentRef).First(&donation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errno.ErrDonationNotFound
		}
		return nil, err
	}
	return &donation, nil
}

func (s *GormLedgerStore) DonationByChargeRef(ctx context.Context, chargeRef string) (*model.Donation, error) {
	var donation model.Donation
	err := s.db.WithContext(ctx).Where("processor_charge_ref = ?", chargeRef).First(&donation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errno.ErrDonationNotFound
		}
		return nil, err
	}
	return &donation, nil
}

func (s *GormLedgerStore) SetDonationChargeRef(ctx context.Context, paymentRef, chargeRef string) error {
	res := s.db.WithContext(ctx).Model(&model.Donation{}).
		Where("processor_payment_ref = ?", paymentRef).
		Update("processor_charge_ref", chargeRef)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errno.ErrDonationNotFound
	}
	return nil
}

func (s *GormLedgerStore) ApplyRefunds(ctx context.Context, d *model.Donation, refunds []model.RefundRecord, refundedTotal int64, newStatus string, removeFromTotals bool) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Refund rows are deduped by the unique refund ref; re-inserting
		// the full list on every delivery is how redelivery stays safe.
		for i := range refunds {
			res := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "processor_refund_ref"}},
				DoNothing: true,
			}).Create(&refunds[i])
			if res.Error != nil {
				return res.Error
			}
		}

		if err := tx.Model(&model.Donation{}).
			Where("id = ?", d.ID).
			Updates(map[string]interface{}{
				"refunded_amount": refundedTotal,
				"status":          newStatus,
			}).Error; err != nil {
			return err
		}

		if removeFromTotals {
			if err := tx.Model(&model.Campaign{}).
				Where("id = ?", d.CampaignID).
				UpdateColumn("raised_amount", gorm.Expr("raised_amount - ?", d.NetAmount)).Error; err != nil {
				return err
			}
		}

		return model.CreateOutboxMessage(tx, event.TopicLedgerEvents,
			strconv.FormatUint(d.CampaignID, 10),
			event.RefundRecordedEvent{
				DonationID:     d.ID,
				CampaignID:     d.CampaignID,
				RefundedAmount: refundedTotal,
				Currency:       d.Currency,
				FullyRefunded:  newStatus == model.DonationStatusFullyRefunded,
			})
	})
}

func (s *GormLedgerStore) UpsertDisputeNote(ctx context.Context, note *model.DisputeNote) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "processor_dispute_ref"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "amount", "reason", "updated_at"}),
		}).Create(note).Error; err != nil {
			return err
		}

		// Stamp the donation on the first dispute only; redelivery and
		// later disputes keep the original timestamp.
		now := time.Now()
		return tx.Model(&model.Donation{}).
			Where("id = ? AND disputed_at IS NULL", note.DonationID).
			Update("disputed_at", &now).Error
	})
}

func (s *GormLedgerStore) UpsertFraudNote(ctx context.Context, note *model.FraudNote) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "processor_warning_ref"}},
		DoNothing: true,
	}).Create(note).Error
}

func (s *GormLedgerStore) AppendOutbox(ctx context.Context, topic, key string, payload interface{}) error {
	return model.CreateOutboxMessage(s.db.WithContext(ctx), topic, key, payload)
}
