package request

type BillingAddress struct {
	Line1   string `json:"line1"`
	Line2   string `json:"line2"`
	Zip     string `json:"zip"`
	City    string `json:"city"`
	Country string `json:"country"`
}

type InitiatePaymentRequest struct {
	Method         string         `json:"method" binding:"required"`
	GatewayToken   string         `json:"gateway_token"`
	Locale         string         `json:"locale"`
	BillingAddress BillingAddress `json:"billing_address"`
}

type RefundRequest struct {
	AmountCents int64 `json:"amount_cents"`
}

type InvalidateRequest struct {
	Reason string `json:"reason"`
}

type ExchangeCodeRequest struct {
	Code string `json:"code" binding:"required"`
}
