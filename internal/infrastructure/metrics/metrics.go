package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PaymentMetrics groups every counter and histogram the payment core emits.
type PaymentMetrics struct {
	PaymentsInitiatedTotal 	prometheus.CounterVec
	PaymentsCompletedTotal 	prometheus.CounterVec
	PaymentsFailedTotal 	prometheus.CounterVec
	PaymentsInvalidatedTotal prometheus.CounterVec

	WebhooksReceivedTotal 	prometheus.CounterVec
	WebhooksRejectedTotal 	prometheus.CounterVec

	RefundsTotal 			prometheus.CounterVec

	BankLinesMatchedTotal 	prometheus.CounterVec
	ReconcileDuration 		prometheus.HistogramVec

	ProviderCallDuration 	prometheus.HistogramVec

	OfflineGraceFallbackTotal prometheus.CounterVec
}

func NewPaymentMetrics() *PaymentMetrics {
	return &PaymentMetrics{
		PaymentsInitiatedTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payments_initiated_total",
				Help: "Payment attempts initiated, by proxy and method",
			},
			[]string{"proxy", "method"},
		),

		PaymentsCompletedTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payments_completed_total",
				Help: "Transactions transitioned to COMPLETE",
			},
			[]string{"proxy"},
		),

		PaymentsFailedTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payments_failed_total",
				Help: "Payment attempts failed, by proxy and error category",
			},
			[]string{"proxy", "category"},
		),

		PaymentsInvalidatedTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payments_invalidated_total",
				Help: "Transactions invalidated (superseded, expired or cancelled)",
			},
			[]string{"proxy", "reason"},
		),

		WebhooksReceivedTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payment_webhooks_received_total",
				Help: "Inbound webhook deliveries, by proxy and outcome",
			},
			[]string{"proxy", "outcome"},
		),

		WebhooksRejectedTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payment_webhooks_rejected_total",
				Help: "Webhook deliveries rejected on signature verification",
			},
			[]string{"proxy"},
		),

		RefundsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payment_refunds_total",
				Help: "Refund calls issued, by proxy and result",
			},
			[]string{"proxy", "result"},
		),

		BankLinesMatchedTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bank_lines_matched_total",
				Help: "Bank statement lines matched against pending reservations",
			},
			[]string{"result"},
		),

		ReconcileDuration: *promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bank_reconcile_duration_seconds",
				Help:    "Duration of one bank statement reconciliation sweep",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
			},
			[]string{},
		),

		ProviderCallDuration: *promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "provider_call_duration_seconds",
				Help:    "Outbound provider HTTP call duration",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
			},
			[]string{"proxy", "operation"},
		),

		OfflineGraceFallbackTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "offline_grace_fallback_total",
				Help: "Offline deadlines degraded to the fixed grace window (same-day events)",
			},
			[]string{"context_id"},
		),
	}
}

func (m *PaymentMetrics) RecordPaymentInitiated(proxy, method string) {
	m.PaymentsInitiatedTotal.WithLabelValues(proxy, method).Inc()
}

func (m *PaymentMetrics) RecordPaymentCompleted(proxy string) {
	m.PaymentsCompletedTotal.WithLabelValues(proxy).Inc()
}

func (m *PaymentMetrics) RecordPaymentFailed(proxy, category string) {
	m.PaymentsFailedTotal.WithLabelValues(proxy, category).Inc()
}

func (m *PaymentMetrics) RecordPaymentInvalidated(proxy, reason string) {
	m.PaymentsInvalidatedTotal.WithLabelValues(proxy, reason).Inc()
}

func (m *PaymentMetrics) RecordWebhook(proxy, outcome string) {
	m.WebhooksReceivedTotal.WithLabelValues(proxy, outcome).Inc()
}

func (m *PaymentMetrics) RecordWebhookRejected(proxy string) {
	m.WebhooksRejectedTotal.WithLabelValues(proxy).Inc()
}

func (m *PaymentMetrics) RecordRefund(proxy, result string) {
	m.RefundsTotal.WithLabelValues(proxy, result).Inc()
}

func (m *PaymentMetrics) RecordBankLineMatched(result string) {
	m.BankLinesMatchedTotal.WithLabelValues(result).Inc()
}

func (m *PaymentMetrics) RecordReconcileDuration(seconds float64) {
	m.ReconcileDuration.WithLabelValues().Observe(seconds)
}

func (m *PaymentMetrics) RecordProviderCall(proxy, operation string, seconds float64) {
	m.ProviderCallDuration.WithLabelValues(proxy, operation).Observe(seconds)
}

func (m *PaymentMetrics) RecordOfflineGraceFallback(contextID string) {
	m.OfflineGraceFallbackTotal.WithLabelValues(contextID).Inc()
}
