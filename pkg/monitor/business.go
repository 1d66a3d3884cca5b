package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BusinessMetrics defines ledger and checkout level metrics
type BusinessMetrics struct {
	DonationRecordedTotal  *prometheus.CounterVec
	DonationAmountTotal    *prometheus.CounterVec
	RefundAmountTotal      *prometheus.CounterVec
	WebhookEventsTotal     *prometheus.CounterVec
	CheckoutAttemptsTotal  *prometheus.CounterVec
	NotificationSendTotal  *prometheus.CounterVec
	ReconcileSweepDuration prometheus.Histogram
}

// Global Metrics Instance
var Business *BusinessMetrics

// InitBusinessMetrics initializes the business metric set
func InitBusinessMetrics() {
	Business = &BusinessMetrics{
		DonationRecordedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "funding_donation_recorded_total",
			Help: "The total number of donations recorded from checkout events",
		}, []string{"currency"}),
		DonationAmountTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "funding_donation_amount_minor_total",
			Help: "The total gross donation amount in minor units",
		}, []string{"currency"}),
		RefundAmountTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "funding_refund_amount_minor_total",
			Help: "The total refunded amount in minor units",
		}, []string{"currency"}),
		WebhookEventsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "funding_webhook_events_total",
			Help: "Webhook events by kind and outcome",
		}, []string{"kind", "outcome"}),
		CheckoutAttemptsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "funding_checkout_attempts_total",
			Help: "Checkout session creation attempts by result",
		}, []string{"result"}),
		NotificationSendTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "funding_notification_send_total",
			Help: "Notification dispatches by channel and outcome",
		}, []string{"channel", "outcome"}),
		ReconcileSweepDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "funding_reconcile_sweep_duration_seconds",
			Help:    "Duration of reconciliation sweeps",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
