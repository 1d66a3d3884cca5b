package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"funding-core/pkg/logger"
	"funding-core/pkg/monitor"
)

// Task types
const (
	TypeDonorReceipt    = "receipt:donor"
	TypeOrganizerNotify = "notify:organizer"
)

// Notification channels tracked in the dispatch log
const (
	ChannelReceipt   = "receipt"
	ChannelOrganizer = "organizer"
)

// ReceiptPayload carries everything a notification template needs; the
// worker never reads the ledger.
type ReceiptPayload struct {
	PaymentRef     string `json:"payment_ref"`
	DonationID     uint64 `json:"donation_id"`
	Recipient      string `json:"recipient"`
	DonorName      string `json:"donor_name"`
	Anonymous      bool   `json:"anonymous"`
	CampaignTitle  string `json:"campaign_title"`
	GrossAmount    int64  `json:"gross_amount"`
	Currency       string `json:"currency"`
	DonorMessage   string `json:"donor_message,omitempty"`
}

// DispatchLog tracks per-channel sends per payment reference so retries of
// the surrounding task never duplicate an email.
type DispatchLog interface {
	ChannelSent(ctx context.Context, paymentRef, channel string) (bool, error)
	MarkChannelSent(ctx context.Context, paymentRef, channel string) error
}

// Sender is the external notification sink. Failures are retried by asynq,
// never escalated to the webhook path.
type Sender interface {
	Send(ctx context.Context, templateKind, recipient string, data map[string]string) error
}

// NewDonorReceiptTask creates the donor receipt task.
func NewDonorReceiptTask(p ReceiptPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeDonorReceipt, payload, asynq.MaxRetry(5), asynq.Timeout(5*time.Minute)), nil
}

// NewOrganizerNotifyTask creates the organizer notification task.
func NewOrganizerNotifyTask(p ReceiptPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeOrganizerNotify, payload, asynq.MaxRetry(5), asynq.Timeout(5*time.Minute)), nil
}

// ReceiptHandler processes both notification task types.
type ReceiptHandler struct {
	log    DispatchLog
	sender Sender
}

func NewReceiptHandler(log DispatchLog, sender Sender) *ReceiptHandler {
	return &ReceiptHandler{log: log, sender: sender}
}

// HandleDonorReceipt sends the donor's receipt at most once per payment.
func (h *ReceiptHandler) HandleDonorReceipt(ctx context.Context, t *asynq.Task) error {
	return h.handle(ctx, t, ChannelReceipt, "donor_receipt")
}

// HandleOrganizerNotify tells the organizer about the new donation at most
// once per payment.
func (h *ReceiptHandler) HandleOrganizerNotify(ctx context.Context, t *asynq.Task) error {
	return h.handle(ctx, t, ChannelOrganizer, "organizer_donation")
}

func (h *ReceiptHandler) handle(ctx context.Context, t *asynq.Task, channel, templateKind string) error {
	var p ReceiptPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		// Retrying a malformed payload cannot help; archive it instead.
		return fmt.Errorf("json.Unmarshal failed: %v: %w", err, asynq.SkipRetry)
	}

	sent, err := h.log.ChannelSent(ctx, p.PaymentRef, channel)
	if err != nil {
		return err
	}
	if sent {
		logger.Debug("notification already sent, skipping",
			zap.String("payment_ref", p.PaymentRef), zap.String("channel", channel))
		return nil
	}

	donorName := p.DonorName
	if p.Anonymous || donorName == "" {
		donorName = "An anonymous donor"
	}
	data := map[string]string{
		"campaign": p.CampaignTitle,
		"donor":    donorName,
		"amount":   FormatAmount(p.GrossAmount),
		"currency": p.Currency,
		"message":  p.DonorMessage,
	}

	if err := h.sender.Send(ctx, templateKind, p.Recipient, data); err != nil {
		monitor.Business.NotificationSendTotal.WithLabelValues(channel, "failed").Inc()
		return err
	}

	if err := h.log.MarkChannelSent(ctx, p.PaymentRef, channel); err != nil {
		// The send went out; a retry will now be suppressed only by the
		// provider's own dedupe. Log loudly.
		logger.Error("failed to mark notification sent",
			zap.String("payment_ref", p.PaymentRef), zap.String("channel", channel), zap.Error(err))
		return err
	}

	monitor.Business.NotificationSendTotal.WithLabelValues(channel, "sent").Inc()
	return nil
}

// FormatAmount renders minor units as a decimal string ("2500" -> "25.00").
func FormatAmount(minor int64) string {
	return decimal.NewFromInt(minor).Div(decimal.NewFromInt(100)).StringFixed(2)
}
