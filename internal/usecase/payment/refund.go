package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/LavaJover/shvark-payment-service/internal/domain"
	paymentdto "github.com/LavaJover/shvark-payment-service/internal/usecase/dto/payment"
)

// RefundPayment refunds the completed transaction of a reservation. Only
// providers with refund support accept it; offline rows are settled outside
// the system and are rejected here.
func (uc *DefaultPaymentUsecase) RefundPayment(ctx context.Context, input *paymentdto.RefundInput) error {
	tx, err := uc.TxRepo.GetLiveByReservationID(input.ReservationID)
	if err != nil {
		return err
	}
	if tx.Status != domain.StatusComplete {
		return fmt.Errorf("refund requires a completed transaction, have %s", tx.Status)
	}

	provider, ok := uc.Registry.ByProxy(tx.Proxy)
	if !ok {
		return domain.ErrNoProviderAvailable
	}
	refunder, ok := provider.(domain.RefundProvider)
	if !ok {
		return fmt.Errorf("%w: %s has no refund support", domain.ErrCapabilityNotSupported, tx.Proxy)
	}

	pc, err := uc.purchaseContextOf(ctx, tx)
	if err != nil {
		return err
	}

	started := time.Now()
	err = refunder.Refund(ctx, tx, pc, input.AmountCents)
	uc.Metrics.RecordProviderCall(string(tx.Proxy), "refund", time.Since(started).Seconds())
	if err != nil {
		uc.Metrics.RecordRefund(string(tx.Proxy), "error")
		return err
	}
	uc.Metrics.RecordRefund(string(tx.Proxy), "ok")
	return nil
}
