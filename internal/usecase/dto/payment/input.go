package paymentdto

import "github.com/LavaJover/shvark-payment-service/internal/domain"

type InitiatePaymentInput struct {
	ReservationID     string
	PurchaseContextID string
	Method            domain.PaymentMethod
	GatewayToken      string
	Locale            string
	BillingAddress    domain.BillingAddress
}

type WebhookInput struct {
	Proxy             domain.PaymentProxy
	PurchaseContextID string
	ReservationID     string
	Payload           []byte
	Signature         string
}

type RefundInput struct {
	ReservationID string
	// AmountCents == 0 requests a full refund.
	AmountCents int64
}
