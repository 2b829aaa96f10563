package domain

import "context"

// ConfigScope resolves provider configuration for a request. The zero value is
// the system scope; organization and purchase-context ids narrow it down.
type ConfigScope struct {
	OrganizationID    string
	PurchaseContextID string
}

// TransactionRequest is the dynamic part of provider selection: what is about
// to be paid, so adapters can apply eligibility rules beyond static method
// support (deadlines, live-fetched sub-methods).
type TransactionRequest struct {
	Spec   *PaymentSpecification
	Method PaymentMethod
}

type InitiateStatus string

const (
	InitiateSuccess  InitiateStatus = "SUCCESS"
	InitiateRedirect InitiateStatus = "REDIRECT"
	InitiatePending  InitiateStatus = "PENDING"
	InitiateFailed   InitiateStatus = "FAILED"
)

// InitiateResult is the outcome of the mandatory initiate capability.
type InitiateResult struct {
	Status               InitiateStatus
	RedirectURL          string
	GatewayTransactionID string
	FailureCode          ErrorCode
}

func SuccessResult(gatewayTransactionID string) *InitiateResult {
	return &InitiateResult{Status: InitiateSuccess, GatewayTransactionID: gatewayTransactionID}
}

func RedirectResult(url, gatewayTransactionID string) *InitiateResult {
	return &InitiateResult{Status: InitiateRedirect, RedirectURL: url, GatewayTransactionID: gatewayTransactionID}
}

func PendingResult(gatewayTransactionID string) *InitiateResult {
	return &InitiateResult{Status: InitiatePending, GatewayTransactionID: gatewayTransactionID}
}

func FailureResult(code ErrorCode) *InitiateResult {
	return &InitiateResult{Status: InitiateFailed, FailureCode: code}
}

// PaymentProvider is the only mandatory contract a gateway adapter implements.
// Everything else (refund, webhook, client token, OAuth onboarding, payment
// info, status polling) is an optional capability callers must type-assert
// for before invoking.
type PaymentProvider interface {
	Proxy() PaymentProxy
	Methods() []PaymentMethod
	Accept(ctx context.Context, method PaymentMethod, scope ConfigScope, req *TransactionRequest) bool
	Initiate(ctx context.Context, spec *PaymentSpecification, tx *Transaction) (*InitiateResult, error)
}

type ClientTokenProvider interface {
	ClientToken(ctx context.Context, spec *PaymentSpecification, scope ConfigScope) (string, error)
}

// RefundProvider refunds a completed transaction. amountCents == 0 means a
// full refund. The call is idempotent on the provider side.
type RefundProvider interface {
	Refund(ctx context.Context, tx *Transaction, pc *PurchaseContext, amountCents int64) error
}

type PaymentInfo struct {
	PaidCents        int64
	RefundedCents    int64
	GatewayFeeCents  int64
	PlatformFeeCents int64
}

type PaymentInfoProvider interface {
	PaymentInfo(ctx context.Context, tx *Transaction, pc *PurchaseContext) (*PaymentInfo, error)
}

// EventMaxAttemptsExceeded marks an attempt abandoned after its poll budget
// ran out; the purchaser gets a fresh validity window to start over.
const EventMaxAttemptsExceeded = "MAX_ATTEMPTS_EXCEEDED"

// WebhookEvent is a provider confirmation translated onto the canonical
// status vocabulary. RawType keeps the provider's own event name for logs.
// GatewayPaymentID names the remote payment the event refers to, when the
// provider has one; the caller cross-checks it against the live row.
type WebhookEvent struct {
	GatewayTransactionID string
	GatewayPaymentID     string
	Status               TransactionStatus
	GatewayFeeCents      int64
	RawType              string
}

// WebhookProcessor verifies and parses an inbound asynchronous confirmation.
// An authenticity failure is ErrInvalidSignature, never a soft fallback.
type WebhookProcessor interface {
	ProcessWebhook(ctx context.Context, tx *Transaction, pc *PurchaseContext, payload []byte, signature string) (*WebhookEvent, error)
}

// StatusPoller re-queries the provider's side for a pending transaction. It is
// the fallback when no webhook fired yet, and the driver of multi-step
// authorize+capture flows.
type StatusPoller interface {
	PollStatus(ctx context.Context, tx *Transaction, pc *PurchaseContext) (*WebhookEvent, error)
}

// OAuthConnector supports merchant-level OAuth onboarding.
type OAuthConnector interface {
	ConnectURL(organizationID string) (string, error)
	ExchangeCode(ctx context.Context, code, organizationID string) (string, error)
}

type Capability string

const (
	CapabilityClientToken  Capability = "CLIENT_TOKEN"
	CapabilityRefund       Capability = "REFUND"
	CapabilityPaymentInfo  Capability = "PAYMENT_INFO"
	CapabilityWebhook      Capability = "WEBHOOK"
	CapabilityStatusPoll   Capability = "STATUS_POLL"
	CapabilityOAuthConnect Capability = "OAUTH_CONNECT"
)

// CapabilitiesOf reports the optional capabilities a provider implements.
func CapabilitiesOf(p PaymentProvider) []Capability {
	caps := make([]Capability, 0, 6)
	if _, ok := p.(ClientTokenProvider); ok {
		caps = append(caps, CapabilityClientToken)
	}
	if _, ok := p.(RefundProvider); ok {
		caps = append(caps, CapabilityRefund)
	}
	if _, ok := p.(PaymentInfoProvider); ok {
		caps = append(caps, CapabilityPaymentInfo)
	}
	if _, ok := p.(WebhookProcessor); ok {
		caps = append(caps, CapabilityWebhook)
	}
	if _, ok := p.(StatusPoller); ok {
		caps = append(caps, CapabilityStatusPoll)
	}
	if _, ok := p.(OAuthConnector); ok {
		caps = append(caps, CapabilityOAuthConnect)
	}
	return caps
}
