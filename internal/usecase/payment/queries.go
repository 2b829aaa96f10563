package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/LavaJover/shvark-payment-service/internal/domain"
	"github.com/LavaJover/shvark-payment-service/internal/gateway"
	paymentdto "github.com/LavaJover/shvark-payment-service/internal/usecase/dto/payment"
)

func (uc *DefaultPaymentUsecase) GetTransactionByReservation(ctx context.Context, reservationID string) (*domain.Transaction, error) {
	return uc.TxRepo.GetLiveByReservationID(reservationID)
}

// GetPaymentInfo reports the settled amounts for a reservation, live from the
// provider when it supports the query, from the ledger row otherwise.
func (uc *DefaultPaymentUsecase) GetPaymentInfo(ctx context.Context, reservationID string) (*domain.PaymentInfo, error) {
	tx, err := uc.TxRepo.GetLiveByReservationID(reservationID)
	if err != nil {
		return nil, err
	}

	if provider, ok := uc.Registry.ByProxy(tx.Proxy); ok {
		if infoProvider, ok := provider.(domain.PaymentInfoProvider); ok {
			pc, err := uc.purchaseContextOf(ctx, tx)
			if err != nil {
				return nil, err
			}
			started := time.Now()
			info, err := infoProvider.PaymentInfo(ctx, tx, pc)
			uc.Metrics.RecordProviderCall(string(tx.Proxy), "payment_info", time.Since(started).Seconds())
			if err == nil {
				return info, nil
			}
		}
	}

	return &domain.PaymentInfo{
		PaidCents: tx.PriceCents,
		GatewayFeeCents: tx.GatewayFeeCents,
		PlatformFeeCents: tx.PlatformFeeCents,
	}, nil
}

func (uc *DefaultPaymentUsecase) ActiveMethods(ctx context.Context, scope domain.ConfigScope) []gateway.MethodCapabilities {
	return uc.Registry.ActiveMethods(ctx, scope)
}

// ClientToken produces the provider-side token a client integration needs
// before the purchaser-facing step.
func (uc *DefaultPaymentUsecase) ClientToken(ctx context.Context, input *paymentdto.InitiatePaymentInput) (string, error) {
	spec, err := uc.buildSpec(ctx, input)
	if err != nil {
		return "", err
	}
	scope := spec.Context.Scope()

	req := &domain.TransactionRequest{Spec: spec, Method: input.Method}
	provider, err := uc.Registry.SelectProvider(ctx, input.Method, scope, req)
	if err != nil {
		return "", err
	}
	tokenProvider, ok := provider.(domain.ClientTokenProvider)
	if !ok {
		return "", fmt.Errorf("%w: %s has no client token support", domain.ErrCapabilityNotSupported, provider.Proxy())
	}
	return tokenProvider.ClientToken(ctx, spec, scope)
}

func (uc *DefaultPaymentUsecase) ConnectURL(proxy domain.PaymentProxy, organizationID string) (string, error) {
	connector, err := uc.oauthConnector(proxy)
	if err != nil {
		return "", err
	}
	return connector.ConnectURL(organizationID)
}

func (uc *DefaultPaymentUsecase) ExchangeConnectCode(ctx context.Context, proxy domain.PaymentProxy, code, organizationID string) (string, error) {
	connector, err := uc.oauthConnector(proxy)
	if err != nil {
		return "", err
	}
	return connector.ExchangeCode(ctx, code, organizationID)
}

func (uc *DefaultPaymentUsecase) oauthConnector(proxy domain.PaymentProxy) (domain.OAuthConnector, error) {
	provider, ok := uc.Registry.ByProxy(proxy)
	if !ok {
		return nil, domain.ErrNoProviderAvailable
	}
	connector, ok := provider.(domain.OAuthConnector)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no merchant onboarding", domain.ErrCapabilityNotSupported, proxy)
	}
	return connector, nil
}
