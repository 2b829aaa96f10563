package setup

import (
	"strings"
	"time"

	"github.com/LavaJover/shvark-payment-service/internal/gateway"
	"github.com/LavaJover/shvark-payment-service/internal/gateway/mollie"
	"github.com/LavaJover/shvark-payment-service/internal/gateway/offline"
	"github.com/LavaJover/shvark-payment-service/internal/gateway/saferpay"
	"github.com/LavaJover/shvark-payment-service/internal/gateway/stripe"
	usecase "github.com/LavaJover/shvark-payment-service/internal/usecase/payment"
)

type UseCases struct {
	PaymentUsecase usecase.PaymentUsecase
	Registry       *gateway.Registry
}

// InitializeUseCases builds the provider registry and the payment usecase on
// top of the shared dependencies. Registration order is selection priority;
// the deferred bank transfer variant goes ahead of the default one so the
// deferred flag can shadow it.
func InitializeUseCases(deps *Dependencies) (*UseCases, error) {
	policy := offline.DeadlinePolicy{
		WaitingDays: deps.Config.Offline.WaitingDays,
		GraceHours: deps.Config.Offline.GraceHours,
		WorkingDays: workingDays(deps.Config.Offline.WorkingDays),
	}

	registry := gateway.NewRegistry(
		stripe.NewGateway(deps.Resolver, nil),
		mollie.NewGateway(deps.Resolver, nil),
		saferpay.NewGateway(deps.Resolver, nil),
		offline.NewBankTransferGateway(deps.Resolver, deps.Reservations, policy, deps.Metrics, true),
		offline.NewBankTransferGateway(deps.Resolver, deps.Reservations, policy, deps.Metrics, false),
		offline.NewOnSiteGateway(deps.Resolver, deps.Reservations),
	)

	paymentUsecase := usecase.NewDefaultPaymentUsecase(
		deps.TxRepo,
		registry,
		deps.Reservations,
		deps.Publisher,
		deps.Metrics,
		deps.BankFeed,
		deps.Config.Offline,
	)

	return &UseCases{
		PaymentUsecase: paymentUsecase,
		Registry: registry,
	}, nil
}

func workingDays(names []string) map[time.Weekday]bool {
	if len(names) == 0 {
		return offline.DefaultWorkingDays()
	}
	byName := map[string]time.Weekday{
		"monday": time.Monday, "tuesday": time.Tuesday, "wednesday": time.Wednesday,
		"thursday": time.Thursday, "friday": time.Friday, "saturday": time.Saturday,
		"sunday": time.Sunday,
	}
	days := make(map[time.Weekday]bool, len(names))
	for _, name := range names {
		if day, ok := byName[strings.ToLower(name)]; ok {
			days[day] = true
		}
	}
	return days
}
