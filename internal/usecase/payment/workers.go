package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/LavaJover/shvark-payment-service/internal/domain"
)

// PollPendingStatuses asks every poll-capable provider about its pending
// transactions. It is the fallback path for missed webhooks and the engine of
// multi-step capture flows.
func (uc *DefaultPaymentUsecase) PollPendingStatuses(ctx context.Context) error {
	var proxies []domain.PaymentProxy
	for _, provider := range uc.Registry.Providers() {
		if _, ok := provider.(domain.StatusPoller); ok {
			proxies = append(proxies, provider.Proxy())
		}
	}
	if len(proxies) == 0 {
		return nil
	}

	pending, err := uc.TxRepo.FindPendingByProxy(proxies...)
	if err != nil {
		return err
	}

	for _, tx := range pending {
		if tx.Status != domain.StatusPending || tx.GatewayPaymentID == "" {
			continue
		}
		provider, ok := uc.Registry.ByProxy(tx.Proxy)
		if !ok {
			continue
		}
		poller := provider.(domain.StatusPoller)

		pc, err := uc.purchaseContextOf(ctx, tx)
		if err != nil {
			slog.Warn("purchase context lookup for status poll failed",
				"transaction_id", tx.ID,
				"error", err)
			continue
		}

		started := time.Now()
		event, err := poller.PollStatus(ctx, tx, pc)
		uc.Metrics.RecordProviderCall(string(tx.Proxy), "poll", time.Since(started).Seconds())
		if err != nil {
			slog.Warn("status poll failed",
				"transaction_id", tx.ID,
				"proxy", tx.Proxy,
				"error", err)
			continue
		}
		if _, err := uc.applyEvent(ctx, tx, event); err != nil {
			slog.Error("failed to apply polled status",
				"transaction_id", tx.ID,
				"proxy", tx.Proxy,
				"error", err)
		}
	}
	return nil
}

// SweepExpiredPayments invalidates pending transactions whose reservation
// validity ran out. Offline rows that already have a proposed match are left
// for the reviewer.
func (uc *DefaultPaymentUsecase) SweepExpiredPayments(ctx context.Context) error {
	pending, err := uc.TxRepo.FindPending()
	if err != nil {
		return err
	}

	now := time.Now()
	for _, tx := range pending {
		if tx.Status != domain.StatusPending {
			continue
		}
		reservation, err := uc.Reservations.ReservationByID(ctx, tx.ReservationID)
		if err != nil {
			if errors.Is(err, domain.ErrReservationNotFound) {
				// the reservation is gone, the row has nothing to pay for
				if err := uc.TxRepo.InvalidateLive(tx.ReservationID); err != nil {
					return err
				}
				uc.Metrics.RecordPaymentInvalidated(string(tx.Proxy), "RESERVATION_GONE")
			}
			continue
		}
		if reservation.ValidUntil.IsZero() || reservation.ValidUntil.After(now) {
			continue
		}

		if err := uc.TxRepo.InvalidateLive(tx.ReservationID); err != nil {
			return err
		}
		tx.Status = domain.StatusInvalidated
		uc.Metrics.RecordPaymentInvalidated(string(tx.Proxy), "EXPIRED")
		uc.publishEvent(tx)
		slog.Info("expired pending payment invalidated",
			"transaction_id", tx.ID,
			"reservation_id", tx.ReservationID,
			"valid_until", reservation.ValidUntil)
	}
	return nil
}
