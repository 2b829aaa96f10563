package response

import "time"

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

type PaymentResultResponse struct {
	Status        string `json:"status"`
	TransactionID string `json:"transaction_id,omitempty"`
	RedirectURL   string `json:"redirect_url,omitempty"`
	FailureCode   string `json:"failure_code,omitempty"`
}

type TransactionResponse struct {
	ID                   string    `json:"id"`
	ReservationID        string    `json:"reservation_id"`
	Proxy                string    `json:"proxy"`
	Status               string    `json:"status"`
	PriceCents           int64     `json:"price_cents"`
	Currency             string    `json:"currency"`
	GatewayTransactionID string    `json:"gateway_transaction_id,omitempty"`
	Timestamp            time.Time `json:"timestamp"`
}

type PaymentInfoResponse struct {
	PaidCents        int64 `json:"paid_cents"`
	RefundedCents    int64 `json:"refunded_cents"`
	GatewayFeeCents  int64 `json:"gateway_fee_cents"`
	PlatformFeeCents int64 `json:"platform_fee_cents"`
}

type MethodResponse struct {
	Method       string   `json:"method"`
	Proxy        string   `json:"proxy"`
	Capabilities []string `json:"capabilities"`
}

type ClientTokenResponse struct {
	Token string `json:"token"`
}

type ConnectURLResponse struct {
	URL string `json:"url"`
}

type ConnectAccountResponse struct {
	AccountID string `json:"account_id"`
}

type WebhookResponse struct {
	Applied bool   `json:"applied"`
	Status  string `json:"status"`
}
