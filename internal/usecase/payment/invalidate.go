package usecase

import (
	"context"
	"log/slog"

	"github.com/LavaJover/shvark-payment-service/internal/domain"
)

// InvalidatePayment drops the live transaction of a reservation, e.g. when the
// reservation itself is cancelled. A completed transaction is refunded first
// on a best-effort basis: a refund failure is logged, never a reason to keep
// the row alive.
func (uc *DefaultPaymentUsecase) InvalidatePayment(ctx context.Context, reservationID, reason string) error {
	tx, err := uc.TxRepo.GetLiveByReservationID(reservationID)
	if err != nil {
		return err
	}

	if tx.Status == domain.StatusComplete {
		if provider, ok := uc.Registry.ByProxy(tx.Proxy); ok {
			if refunder, ok := provider.(domain.RefundProvider); ok {
				pc, err := uc.purchaseContextOf(ctx, tx)
				if err == nil {
					if err := refunder.Refund(ctx, tx, pc, 0); err != nil {
						slog.Warn("refund during invalidation failed",
							"transaction_id", tx.ID,
							"proxy", tx.Proxy,
							"error", err)
						uc.Metrics.RecordRefund(string(tx.Proxy), "error")
					} else {
						uc.Metrics.RecordRefund(string(tx.Proxy), "ok")
					}
				}
			}
		}
	}

	if err := uc.TxRepo.InvalidateLive(reservationID); err != nil {
		return err
	}
	tx.Status = domain.StatusInvalidated
	uc.Metrics.RecordPaymentInvalidated(string(tx.Proxy), reason)
	uc.publishEvent(tx)
	return nil
}
