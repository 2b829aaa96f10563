package paymentdto

import "github.com/LavaJover/shvark-payment-service/internal/domain"

type PaymentResultOutput struct {
	Status        domain.InitiateStatus
	TransactionID string
	RedirectURL   string
	FailureCode   domain.ErrorCode
}

type WebhookOutput struct {
	Applied bool
	Status  domain.TransactionStatus
}

type ReconcileOutput struct {
	LinesSeen    int
	LinesMatched int
}
