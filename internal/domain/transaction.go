package domain

import (
	"strconv"
	"time"
)

type TransactionStatus string

const (
	StatusPending               TransactionStatus = "PENDING"
	StatusComplete              TransactionStatus = "COMPLETE"
	StatusOfflinePendingReview  TransactionStatus = "OFFLINE_PENDING_REVIEW"
	StatusOfflineMatchingFound  TransactionStatus = "OFFLINE_MATCHING_PAYMENT_FOUND"
	StatusInvalidated           TransactionStatus = "INVALIDATED"
)

// PaymentProxy identifies the gateway adapter that owns a transaction row.
type PaymentProxy string

const (
	ProxyStripe               PaymentProxy = "STRIPE"
	ProxyMollie               PaymentProxy = "MOLLIE"
	ProxySaferpay             PaymentProxy = "SAFERPAY"
	ProxyBankTransfer         PaymentProxy = "BANK_TRANSFER"
	ProxyDeferredBankTransfer PaymentProxy = "DEFERRED_BANK_TRANSFER"
	ProxyOnSite               PaymentProxy = "ON_SITE"
)

type PaymentMethod string

const (
	MethodCreditCard   PaymentMethod = "CREDIT_CARD"
	MethodIDeal        PaymentMethod = "IDEAL"
	MethodBancontact   PaymentMethod = "BANCONTACT"
	MethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	MethodOnSite       PaymentMethod = "ON_SITE"
)

// Metadata is the adapter-private bookkeeping bag persisted with every
// transaction. Core logic goes through the typed accessors below and never
// parses the raw strings itself.
type Metadata map[string]string

const (
	metaAttemptCount   = "attemptCount"
	metaWebhookSecret  = "webhookSecret"
	metaMatchedLineID  = "matchedBankLineId"
	metaCheckoutURL    = "checkoutUrl"
)

func (m Metadata) AttemptCount() int {
	n, err := strconv.Atoi(m[metaAttemptCount])
	if err != nil {
		return 0
	}
	return n
}

func (m Metadata) SetAttemptCount(n int) {
	m[metaAttemptCount] = strconv.Itoa(n)
}

func (m Metadata) WebhookSecret() string { return m[metaWebhookSecret] }

func (m Metadata) SetWebhookSecret(secret string) { m[metaWebhookSecret] = secret }

func (m Metadata) MatchedBankLineID() string { return m[metaMatchedLineID] }

func (m Metadata) SetMatchedBankLineID(lineID string) { m[metaMatchedLineID] = lineID }

func (m Metadata) CheckoutURL() string { return m[metaCheckoutURL] }

func (m Metadata) SetCheckoutURL(url string) { m[metaCheckoutURL] = url }

// Transaction is the ledger row: one payment attempt for one reservation.
// At most one non-invalidated row exists per reservation at any time.
type Transaction struct {
	ID                   string
	ReservationID        string
	GatewayTransactionID string
	GatewayPaymentID     string
	Timestamp            time.Time
	PriceCents           int64
	Currency             string
	Description          string
	Proxy                PaymentProxy
	PlatformFeeCents     int64
	GatewayFeeCents      int64
	Status               TransactionStatus
	Metadata             Metadata
}

func (t *Transaction) Live() bool {
	return t.Status != StatusInvalidated
}

func (t *Transaction) Terminal() bool {
	return t.Status == StatusComplete || t.Status == StatusInvalidated
}
