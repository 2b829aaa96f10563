package usecase

import (
	"context"
	"fmt"

	"github.com/LavaJover/shvark-payment-service/internal/domain"
)

func offlineProxy(proxy domain.PaymentProxy) bool {
	switch proxy {
	case domain.ProxyBankTransfer, domain.ProxyDeferredBankTransfer, domain.ProxyOnSite:
		return true
	default:
		return false
	}
}

// ConfirmOfflinePayment is the admin acknowledging that the money for an
// offline transaction arrived, either after reviewing a proposed bank match
// or on their own initiative (cash at the venue).
func (uc *DefaultPaymentUsecase) ConfirmOfflinePayment(ctx context.Context, transactionID string) error {
	tx, err := uc.TxRepo.GetByID(transactionID)
	if err != nil {
		return err
	}
	if !offlineProxy(tx.Proxy) {
		return fmt.Errorf("%w: %s is not an offline proxy", domain.ErrCapabilityNotSupported, tx.Proxy)
	}
	switch tx.Status {
	case domain.StatusComplete:
		return nil
	case domain.StatusPending, domain.StatusOfflinePendingReview, domain.StatusOfflineMatchingFound:
	default:
		return fmt.Errorf("%w: status %s", domain.ErrTransactionTerminal, tx.Status)
	}

	applied, err := uc.TxRepo.Complete(tx.ID, tx.GatewayTransactionID, 0)
	if err != nil {
		return err
	}
	if !applied {
		return nil
	}
	tx.Status = domain.StatusComplete

	if err := uc.Reservations.ConfirmReservation(ctx, tx.ReservationID); err != nil {
		return err
	}
	uc.Metrics.RecordPaymentCompleted(string(tx.Proxy))
	uc.publishEvent(tx)
	return nil
}

// DiscardMatchedPayment rejects a proposed bank statement match during review
// and returns the row to plain pending. The consumed statement line stays
// consumed; an operator who discarded it does not want it re-proposed.
func (uc *DefaultPaymentUsecase) DiscardMatchedPayment(ctx context.Context, transactionID string) error {
	tx, err := uc.TxRepo.GetByID(transactionID)
	if err != nil {
		return err
	}
	switch tx.Status {
	case domain.StatusOfflinePendingReview, domain.StatusOfflineMatchingFound:
	default:
		return fmt.Errorf("%w: status %s has no match to discard", domain.ErrMatchSuperseded, tx.Status)
	}

	applied, err := uc.TxRepo.ApplyMatch(tx.ID, tx.Status, domain.StatusPending, "")
	if err != nil {
		return err
	}
	if !applied {
		return domain.ErrMatchSuperseded
	}
	uc.Metrics.RecordBankLineMatched("discarded")
	return nil
}
