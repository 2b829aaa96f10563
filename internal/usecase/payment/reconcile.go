package usecase

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/LavaJover/shvark-payment-service/internal/domain"
	paymentdto "github.com/LavaJover/shvark-payment-service/internal/usecase/dto/payment"
)

// matchTerms are the identifiers a purchaser may have put into the wire
// reference, strongest first: invoice number, short code, reservation id.
type matchTerms [3]string

// ReconcileBankStatement fetches statement lines reported since the given
// instant and matches them against pending offline transactions.
//
// Lines are processed in (timestamp, id) order so repeated sweeps over the
// same statement window make the same decisions. A line matches a transaction
// only on exact currency and amount plus a reference hit; each line is
// consumed at most once, ever.
func (uc *DefaultPaymentUsecase) ReconcileBankStatement(ctx context.Context, since time.Time) (*paymentdto.ReconcileOutput, error) {
	started := time.Now()
	defer func() {
		uc.Metrics.RecordReconcileDuration(time.Since(started).Seconds())
	}()

	lines, err := uc.BankFeed.LinesSince(ctx, since)
	if err != nil {
		return nil, err
	}
	sort.Slice(lines, func(i, j int) bool {
		if !lines[i].Timestamp.Equal(lines[j].Timestamp) {
			return lines[i].Timestamp.Before(lines[j].Timestamp)
		}
		return lines[i].ID < lines[j].ID
	})

	pending, err := uc.TxRepo.FindPendingByProxy(domain.ProxyBankTransfer, domain.ProxyDeferredBankTransfer)
	if err != nil {
		return nil, err
	}
	var candidates []*domain.Transaction
	for _, tx := range pending {
		if tx.Status == domain.StatusPending {
			candidates = append(candidates, tx)
		}
	}

	terms := make(map[string]matchTerms, len(candidates))
	consumed := make(map[string]bool)
	output := &paymentdto.ReconcileOutput{LinesSeen: len(lines)}

	for _, line := range lines {
		processed, err := uc.TxRepo.IsBankLineProcessed(line.ID)
		if err != nil {
			return output, err
		}
		if processed {
			continue
		}

		tx := uc.findMatch(ctx, line, candidates, terms, consumed)
		if tx == nil {
			uc.Metrics.RecordBankLineMatched("unmatched")
			continue
		}

		matched, err := uc.acceptMatch(ctx, tx, line, consumed)
		if err != nil {
			return output, err
		}
		if matched {
			output.LinesMatched++
		}
	}

	return output, nil
}

// findMatch picks the pending transaction a statement line belongs to. The
// strongest identifier wins across all candidates before weaker ones are
// considered at all, so an invoice number hit on a later transaction beats a
// reservation id hit on an earlier one.
func (uc *DefaultPaymentUsecase) findMatch(
	ctx context.Context,
	line *domain.BankTransactionLine,
	candidates []*domain.Transaction,
	terms map[string]matchTerms,
	consumed map[string]bool) *domain.Transaction {

	for level := 0; level < len(matchTerms{}); level++ {
		for _, tx := range candidates {
			if consumed[tx.ID] {
				continue
			}
			if line.Currency != tx.Currency || line.AmountCents != tx.PriceCents {
				continue
			}
			term := uc.termsOf(ctx, tx, terms)[level]
			if term == "" {
				continue
			}
			if containsFold(line.Reference, term) {
				return tx
			}
		}
	}
	return nil
}

func (uc *DefaultPaymentUsecase) termsOf(ctx context.Context, tx *domain.Transaction, cache map[string]matchTerms) matchTerms {
	if t, ok := cache[tx.ID]; ok {
		return t
	}

	t := matchTerms{"", "", tx.ReservationID}
	if reservation, err := uc.Reservations.ReservationByID(ctx, tx.ReservationID); err == nil {
		t[0] = reservation.InvoiceNumber
		if pc, err := uc.Reservations.PurchaseContextByID(ctx, reservation.PurchaseContextID); err == nil {
			if code, err := uc.Reservations.ShortCode(ctx, pc, tx.ReservationID); err == nil {
				t[1] = code
			}
		}
	} else {
		slog.Warn("reservation lookup during reconciliation failed",
			"reservation_id", tx.ReservationID,
			"error", err)
	}

	cache[tx.ID] = t
	return t
}

// acceptMatch applies the proposed match. The transition is optimistic: if the
// row changed since candidates were loaded the match is dropped and the line
// stays available for the next sweep.
func (uc *DefaultPaymentUsecase) acceptMatch(ctx context.Context, tx *domain.Transaction, line *domain.BankTransactionLine, consumed map[string]bool) (bool, error) {
	next := domain.StatusOfflinePendingReview
	if uc.Offline.AutoConfirm {
		next = domain.StatusOfflineMatchingFound
	}

	applied, err := uc.TxRepo.ApplyMatch(tx.ID, domain.StatusPending, next, line.ID)
	if err != nil {
		return false, err
	}
	if !applied {
		// stale candidate, the row changed since it was loaded
		uc.Metrics.RecordBankLineMatched("superseded")
		consumed[tx.ID] = true
		return false, nil
	}

	if err := uc.TxRepo.MarkBankLineProcessed(line.ID, tx.ID); err != nil {
		return false, err
	}
	tx.Status = next
	consumed[tx.ID] = true
	uc.Metrics.RecordBankLineMatched("matched")
	slog.Info("bank statement line matched",
		"line_id", line.ID,
		"transaction_id", tx.ID,
		"reservation_id", tx.ReservationID,
		"auto_confirm", uc.Offline.AutoConfirm)

	if uc.Offline.AutoConfirm {
		return true, uc.ConfirmOfflinePayment(ctx, tx.ID)
	}
	return true, nil
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
