package usecase

import (
	"context"
	"time"

	"github.com/LavaJover/shvark-payment-service/internal/config"
	"github.com/LavaJover/shvark-payment-service/internal/domain"
	"github.com/LavaJover/shvark-payment-service/internal/gateway"
	"github.com/LavaJover/shvark-payment-service/internal/infrastructure/metrics"
	paymentdto "github.com/LavaJover/shvark-payment-service/internal/usecase/dto/payment"
)

type PaymentUsecase interface {
	InitiatePayment(ctx context.Context, input *paymentdto.InitiatePaymentInput) (*paymentdto.PaymentResultOutput, error)
	ProcessWebhook(ctx context.Context, input *paymentdto.WebhookInput) (*paymentdto.WebhookOutput, error)

	RefundPayment(ctx context.Context, input *paymentdto.RefundInput) error
	InvalidatePayment(ctx context.Context, reservationID, reason string) error

	ConfirmOfflinePayment(ctx context.Context, transactionID string) error
	DiscardMatchedPayment(ctx context.Context, transactionID string) error
	ReconcileBankStatement(ctx context.Context, since time.Time) (*paymentdto.ReconcileOutput, error)

	PollPendingStatuses(ctx context.Context) error
	SweepExpiredPayments(ctx context.Context) error

	GetTransactionByReservation(ctx context.Context, reservationID string) (*domain.Transaction, error)
	GetPaymentInfo(ctx context.Context, reservationID string) (*domain.PaymentInfo, error)
	ActiveMethods(ctx context.Context, scope domain.ConfigScope) []gateway.MethodCapabilities
	ClientToken(ctx context.Context, input *paymentdto.InitiatePaymentInput) (string, error)

	ConnectURL(proxy domain.PaymentProxy, organizationID string) (string, error)
	ExchangeConnectCode(ctx context.Context, proxy domain.PaymentProxy, code, organizationID string) (string, error)
}

type DefaultPaymentUsecase struct {
	TxRepo       domain.TransactionRepository
	Registry     *gateway.Registry
	Reservations domain.ReservationService
	Publisher    domain.PublisherPort
	Metrics      *metrics.PaymentMetrics
	BankFeed     domain.BankStatementFeed
	Offline      config.OfflineConfig
}

func NewDefaultPaymentUsecase(
	txRepo domain.TransactionRepository,
	registry *gateway.Registry,
	reservations domain.ReservationService,
	kafkaPublisher domain.PublisherPort,
	paymentMetrics *metrics.PaymentMetrics,
	bankFeed domain.BankStatementFeed,
	offline config.OfflineConfig) *DefaultPaymentUsecase {

	return &DefaultPaymentUsecase{
		TxRepo: txRepo,
		Registry: registry,
		Reservations: reservations,
		Publisher: kafkaPublisher,
		Metrics: paymentMetrics,
		BankFeed: bankFeed,
		Offline: offline,
	}
}

// buildSpec assembles the payment specification for one attempt from the
// reservation snapshot and its purchase context.
func (uc *DefaultPaymentUsecase) buildSpec(ctx context.Context, input *paymentdto.InitiatePaymentInput) (*domain.PaymentSpecification, error) {
	reservation, err := uc.Reservations.ReservationByID(ctx, input.ReservationID)
	if err != nil {
		return nil, err
	}
	pc, err := uc.Reservations.PurchaseContextByID(ctx, input.PurchaseContextID)
	if err != nil {
		return nil, err
	}

	return &domain.PaymentSpecification{
		ReservationID: reservation.ID,
		PriceCents: reservation.PriceCents,
		Currency: reservation.Currency,
		PurchaserName: reservation.PurchaserName,
		PurchaserEmail: reservation.PurchaserEmail,
		BillingAddress: input.BillingAddress,
		Locale: input.Locale,
		Context: *pc,
		GatewayToken: input.GatewayToken,
	}, nil
}

// purchaseContextOf resolves the purchase context a transaction belongs to via
// its reservation.
func (uc *DefaultPaymentUsecase) purchaseContextOf(ctx context.Context, tx *domain.Transaction) (*domain.PurchaseContext, error) {
	reservation, err := uc.Reservations.ReservationByID(ctx, tx.ReservationID)
	if err != nil {
		return nil, err
	}
	return uc.Reservations.PurchaseContextByID(ctx, reservation.PurchaseContextID)
}
