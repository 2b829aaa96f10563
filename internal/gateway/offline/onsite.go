package offline

import (
	"context"

	"github.com/LavaJover/shvark-payment-service/internal/config"
	"github.com/LavaJover/shvark-payment-service/internal/domain"
)

const cfgOnSiteEnabled = "onsite.enabled"

// OnSiteGateway handles pay-at-the-door reservations: the row stays PENDING
// until an operator confirms it, and the reservation remains valid until the
// event starts.
type OnSiteGateway struct {
	cfg          *config.Resolver
	reservations domain.ReservationService
}

func NewOnSiteGateway(cfg *config.Resolver, reservations domain.ReservationService) *OnSiteGateway {
	return &OnSiteGateway{cfg: cfg, reservations: reservations}
}

func (g *OnSiteGateway) Proxy() domain.PaymentProxy {
	return domain.ProxyOnSite
}

func (g *OnSiteGateway) Methods() []domain.PaymentMethod {
	return []domain.PaymentMethod{domain.MethodOnSite}
}

func (g *OnSiteGateway) Accept(ctx context.Context, method domain.PaymentMethod, scope domain.ConfigScope, req *domain.TransactionRequest) bool {
	return method == domain.MethodOnSite && g.cfg.Bool(scope, cfgOnSiteEnabled)
}

func (g *OnSiteGateway) Initiate(ctx context.Context, spec *domain.PaymentSpecification, tx *domain.Transaction) (*domain.InitiateResult, error) {
	if !spec.Context.EventBegin.IsZero() {
		if err := g.reservations.ExtendValidity(ctx, spec.ReservationID, spec.Context.EventBegin); err != nil {
			return nil, domain.NewPaymentError(domain.CategoryTransient, domain.ErrorCodeUnavailable, err)
		}
	}
	return domain.PendingResult(""), nil
}
