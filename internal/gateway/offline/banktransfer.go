package offline

import (
	"context"
	"log/slog"
	"time"

	"github.com/LavaJover/shvark-payment-service/internal/config"
	"github.com/LavaJover/shvark-payment-service/internal/domain"
	"github.com/LavaJover/shvark-payment-service/internal/infrastructure/metrics"
)

const (
	cfgBankTransferEnabled  = "banktransfer.enabled"
	cfgBankTransferDeferred = "banktransfer.deferred"
	cfgBankTransferDays     = "banktransfer.waitingDays"
)

// BankTransferGateway is the offline bank transfer adapter. It never calls an
// external API: initiating postpones the reservation to the computed deadline
// and leaves a PENDING row for the reconciliation matcher or an admin.
//
// Two variants are registered: the deferred variant accepts only where the
// deferred flag is configured and is registered ahead of the default one.
type BankTransferGateway struct {
	cfg          *config.Resolver
	reservations domain.ReservationService
	policy       DeadlinePolicy
	metrics      *metrics.PaymentMetrics
	deferred     bool
}

func NewBankTransferGateway(
	cfg *config.Resolver,
	reservations domain.ReservationService,
	policy DeadlinePolicy,
	paymentMetrics *metrics.PaymentMetrics,
	deferred bool) *BankTransferGateway {

	return &BankTransferGateway{
		cfg: cfg,
		reservations: reservations,
		policy: policy,
		metrics: paymentMetrics,
		deferred: deferred,
	}
}

func (g *BankTransferGateway) Proxy() domain.PaymentProxy {
	if g.deferred {
		return domain.ProxyDeferredBankTransfer
	}
	return domain.ProxyBankTransfer
}

func (g *BankTransferGateway) Methods() []domain.PaymentMethod {
	return []domain.PaymentMethod{domain.MethodBankTransfer}
}

func (g *BankTransferGateway) Accept(ctx context.Context, method domain.PaymentMethod, scope domain.ConfigScope, req *domain.TransactionRequest) bool {
	if method != domain.MethodBankTransfer {
		return false
	}
	if !g.cfg.Bool(scope, cfgBankTransferEnabled) {
		return false
	}
	if g.deferred != g.cfg.Bool(scope, cfgBankTransferDeferred) {
		return false
	}
	if req != nil && req.Spec != nil {
		// a finished event can no longer be paid by transfer
		if !req.Spec.Context.EventEnd.IsZero() && time.Now().After(req.Spec.Context.EventEnd) {
			return false
		}
	}
	return true
}

func (g *BankTransferGateway) Initiate(ctx context.Context, spec *domain.PaymentSpecification, tx *domain.Transaction) (*domain.InitiateResult, error) {
	scope := spec.Context.Scope()
	policy := g.policy
	policy.WaitingDays = g.cfg.Int(scope, cfgBankTransferDays, policy.WaitingDays)

	deadline, degraded := PaymentDeadline(time.Now(), spec.Context.EventBegin, policy)
	if degraded {
		slog.Warn("offline deadline degraded to grace window, event starts today",
			"reservation_id", spec.ReservationID,
			"context_id", spec.Context.ID,
			"deadline", deadline)
		g.metrics.RecordOfflineGraceFallback(spec.Context.ID)
	}

	if err := g.reservations.ExtendValidity(ctx, spec.ReservationID, deadline); err != nil {
		return nil, domain.NewPaymentError(domain.CategoryTransient, domain.ErrorCodeUnavailable, err)
	}

	return domain.PendingResult(""), nil
}
