package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"funding-core/internal/event"
	"funding-core/internal/service"
	"funding-core/pkg/logger"
	"funding-core/pkg/monitor"
	"funding-core/pkg/webhooksig"
)

// SignatureHeader carries the processor's timestamp and HMAC candidates.
const SignatureHeader = "Stripe-Signature"

// WebhookHandler terminates the processor's webhook deliveries. Response
// codes follow the processor contract, not the JSON envelope used by the
// donor-facing API: 2xx acknowledges (including duplicates), 4xx rejects
// permanently, 5xx asks for redelivery.
type WebhookHandler struct {
	webhooks      *service.WebhookService
	signingSecret []byte
	maxSkew       time.Duration
}

func NewWebhookHandler(webhooks *service.WebhookService, signingSecret []byte, maxSkew time.Duration) *WebhookHandler {
	return &WebhookHandler{
		webhooks:      webhooks,
		signingSecret: signingSecret,
		maxSkew:       maxSkew,
	}
}

// Handle receives one webhook delivery
// @Summary Receive a payment processor event
// @Tags Webhook
// @Accept json
// @Router /webhooks/processor [post]
func (h *WebhookHandler) Handle(c *gin.Context) {
	rawBody, err := c.GetRawData()
	if err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	// Signature first: nothing is persisted for an unauthenticated body.
	if !webhooksig.Verify(rawBody, c.GetHeader(SignatureHeader), h.signingSecret, time.Now(), h.maxSkew) {
		monitor.Business.WebhookEventsTotal.WithLabelValues("unknown", "rejected").Inc()
		logger.Warn("webhook signature rejected", zap.String("ip", c.ClientIP()))
		c.Status(http.StatusBadRequest)
		return
	}

	env, err := event.ParseEnvelope(rawBody)
	if err != nil {
		logger.Warn("malformed webhook body", zap.Error(err))
		c.Status(http.StatusBadRequest)
		return
	}

	admitted, err := h.webhooks.AdmitOnce(c.Request.Context(), env.ID, env.Type, rawBody)
	if err != nil {
		// Transient storage failure: ask the processor to redeliver.
		logger.Error("webhook admission failed", zap.String("event_id", env.ID), zap.Error(err))
		c.Status(http.StatusInternalServerError)
		return
	}
	if !admitted {
		// Duplicate delivery of an admitted event: acknowledged no-op.
		monitor.Business.WebhookEventsTotal.WithLabelValues(env.Type, "duplicate").Inc()
		c.Status(http.StatusOK)
		return
	}

	// The marker is durable; handler failures from here on are recorded on
	// the event row and repaired by the reconciliation sweep, never by
	// redelivery.
	h.webhooks.Process(c.Request.Context(), env.ID, env.Type, rawBody)
	c.Status(http.StatusOK)
}
