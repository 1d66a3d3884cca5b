package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v81"
	"go.uber.org/zap"

	"funding-core/internal/event"
	"funding-core/internal/model"
	"funding-core/pkg/logger"
	"funding-core/pkg/monitor"
)

// WebhookService admits and routes verified processor events. Order is
// fixed: the idempotency insert must durably succeed before any ledger code
// runs, so a transport timeout and redelivery is absorbed by the gate.
type WebhookService struct {
	store  LedgerStore
	ledger *LedgerService
}

// errUnhandledKind marks an event outside the closed kind set. Process turns
// it into an acknowledged no-op; it is never a handler failure.
var errUnhandledKind = errors.New("unhandled event kind")

func NewWebhookService(store LedgerStore, ledger *LedgerService) *WebhookService {
	return &WebhookService{
		store:  store,
		ledger: ledger,
	}
}

// AdmitOnce inserts the idempotency marker for the event. admitted=false
// with a nil error means a duplicate delivery: respond success, do nothing.
// A storage error must surface as a transient failure so the processor
// redelivers later.
func (s *WebhookService) AdmitOnce(ctx context.Context, eventID, kind string, rawPayload []byte) (bool, error) {
	return s.store.AdmitEvent(ctx, &model.WebhookEvent{
		ProviderEventID: eventID,
		EventKind:       kind,
		Payload:         rawPayload,
	})
}

// Process dispatches an admitted event and records the outcome on its
// webhook row. A handler failure here is reported and left for the
// reconciliation sweeper: the marker is already durable, so redelivery
// would be swallowed by the gate and can never repair this state.
func (s *WebhookService) Process(ctx context.Context, providerEventID, kind string, rawPayload []byte) {
	err := s.Dispatch(ctx, kind, rawPayload)
	if errors.Is(err, errUnhandledKind) {
		logger.Info("ignoring unhandled event kind", zap.String("kind", kind))
		monitor.Business.WebhookEventsTotal.WithLabelValues(kind, "ignored").Inc()
		if markErr := s.store.MarkEventProcessed(ctx, providerEventID, nil); markErr != nil {
			logger.Error("failed to record webhook outcome",
				zap.String("event_id", providerEventID), zap.Error(markErr))
		}
		return
	}

	if markErr := s.store.MarkEventProcessed(ctx, providerEventID, err); markErr != nil {
		logger.Error("failed to record webhook outcome",
			zap.String("event_id", providerEventID), zap.Error(markErr))
	}

	if err != nil {
		monitor.Business.WebhookEventsTotal.WithLabelValues(kind, "failed").Inc()
		logger.Error("webhook handler failed, queued for reconciliation",
			zap.String("event_id", providerEventID),
			zap.String("kind", kind),
			zap.Error(err))
		return
	}
	monitor.Business.WebhookEventsTotal.WithLabelValues(kind, "processed").Inc()
}

// Dispatch routes one event payload to its typed handler. The kind set is
// closed; unknown kinds surface as errUnhandledKind, which Process turns
// into an acknowledged no-op so new processor event types never cause
// delivery storms.
func (s *WebhookService) Dispatch(ctx context.Context, kind string, rawPayload []byte) error {
	env, err := event.ParseEnvelope(rawPayload)
	if err != nil {
		return fmt.Errorf("parse envelope: %w", err)
	}

	switch kind {
	case event.KindCheckoutCompleted:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(env.Data.Object, &sess); err != nil {
			return fmt.Errorf("decode checkout session: %w", err)
		}
		return s.ledger.HandleCheckoutCompleted(ctx, &sess)

	case event.KindPaymentSucceeded:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(env.Data.Object, &pi); err != nil {
			return fmt.Errorf("decode payment intent: %w", err)
		}
		return s.ledger.HandlePaymentSucceeded(ctx, &pi)

	case event.KindChargeRefunded:
		var ch stripe.Charge
		if err := json.Unmarshal(env.Data.Object, &ch); err != nil {
			return fmt.Errorf("decode charge: %w", err)
		}
		return s.ledger.HandleChargeRefunded(ctx, &ch)

	case event.KindDisputeCreated:
		var d stripe.Dispute
		if err := json.Unmarshal(env.Data.Object, &d); err != nil {
			return fmt.Errorf("decode dispute: %w", err)
		}
		return s.ledger.HandleDisputeCreated(ctx, &d)

	case event.KindFraudWarning:
		var w stripe.RadarEarlyFraudWarning
		if err := json.Unmarshal(env.Data.Object, &w); err != nil {
			return fmt.Errorf("decode fraud warning: %w", err)
		}
		return s.ledger.HandleFraudWarning(ctx, &w)

	case event.KindPaymentFailed:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(env.Data.Object, &pi); err != nil {
			return fmt.Errorf("decode payment intent: %w", err)
		}
		return s.ledger.HandlePaymentFailed(ctx, &pi)

	case event.KindAccountUpdated:
		var acct stripe.Account
		if err := json.Unmarshal(env.Data.Object, &acct); err != nil {
			return fmt.Errorf("decode account: %w", err)
		}
		return s.ledger.HandleAccountUpdated(ctx, &acct)

	default:
		return errUnhandledKind
	}
}
