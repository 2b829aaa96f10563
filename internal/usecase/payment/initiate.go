package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/LavaJover/shvark-payment-service/internal/domain"
	publisher "github.com/LavaJover/shvark-payment-service/internal/infrastructure/kafka"
	paymentdto "github.com/LavaJover/shvark-payment-service/internal/usecase/dto/payment"
	"github.com/google/uuid"
)

// InitiatePayment runs one payment attempt end to end: resolve the reservation,
// pick the provider, call it, then persist the outcome as the single live
// ledger row for the reservation.
//
// The provider call happens before any row lock is taken; only the ledger
// write is serialized.
func (uc *DefaultPaymentUsecase) InitiatePayment(ctx context.Context, input *paymentdto.InitiatePaymentInput) (*paymentdto.PaymentResultOutput, error) {
	spec, err := uc.buildSpec(ctx, input)
	if err != nil {
		return nil, err
	}
	scope := spec.Context.Scope()

	// Re-entry with a live row: an already completed payment is idempotent
	// success; a pending one is polled once and superseded only when the
	// provider reports the session dead. A still-open session is re-served,
	// otherwise the purchaser could pay a checkout URL nobody honors anymore.
	if existing, err := uc.TxRepo.GetLiveByReservationID(input.ReservationID); err == nil {
		if out, done := uc.resolveExisting(ctx, existing); done {
			return out, nil
		}
	} else if !errors.Is(err, domain.ErrTransactionNotFound) {
		return nil, err
	}

	req := &domain.TransactionRequest{Spec: spec, Method: input.Method}
	provider, err := uc.Registry.SelectProvider(ctx, input.Method, scope, req)
	if err != nil {
		return nil, err
	}

	tx := &domain.Transaction{
		ID: uuid.NewString(),
		ReservationID: spec.ReservationID,
		Timestamp: time.Now(),
		PriceCents: spec.PriceCents,
		Currency: spec.Currency,
		Description: spec.Context.DisplayName,
		Proxy: provider.Proxy(),
		Status: domain.StatusPending,
		Metadata: domain.Metadata{},
	}

	uc.Metrics.RecordPaymentInitiated(string(provider.Proxy()), string(input.Method))

	started := time.Now()
	result, err := provider.Initiate(ctx, spec, tx)
	uc.Metrics.RecordProviderCall(string(provider.Proxy()), "initiate", time.Since(started).Seconds())
	if err != nil {
		var paymentErr *domain.PaymentError
		if errors.As(err, &paymentErr) {
			uc.Metrics.RecordPaymentFailed(string(provider.Proxy()), string(paymentErr.Category))
		} else {
			uc.Metrics.RecordPaymentFailed(string(provider.Proxy()), string(domain.CategoryTransient))
		}
		return nil, err
	}

	if result.Status == domain.InitiateFailed {
		// user-actionable rejection, nothing to persist
		uc.Metrics.RecordPaymentFailed(string(provider.Proxy()), string(domain.CategoryUser))
		return &paymentdto.PaymentResultOutput{
			Status: domain.InitiateFailed,
			FailureCode: result.FailureCode,
		}, nil
	}

	if result.GatewayTransactionID != "" {
		tx.GatewayTransactionID = result.GatewayTransactionID
	}
	if result.Status == domain.InitiateSuccess {
		tx.Status = domain.StatusComplete
	}

	if err := uc.TxRepo.ReplaceLive(tx); err != nil {
		return nil, err
	}

	if tx.Status == domain.StatusComplete {
		if err := uc.Reservations.ConfirmReservation(ctx, tx.ReservationID); err != nil {
			return nil, err
		}
		uc.Metrics.RecordPaymentCompleted(string(tx.Proxy))
	}

	if err := publisher.PublishPaymentEventFor(uc.Publisher, tx); err != nil {
		slog.Error("failed to publish payment event",
			"transaction_id", tx.ID,
			"error", err)
	}

	return &paymentdto.PaymentResultOutput{
		Status: result.Status,
		TransactionID: tx.ID,
		RedirectURL: result.RedirectURL,
	}, nil
}

// resolveExisting decides what a re-entry means for the live row. done=true
// short-circuits the new attempt.
func (uc *DefaultPaymentUsecase) resolveExisting(ctx context.Context, existing *domain.Transaction) (*paymentdto.PaymentResultOutput, bool) {
	if existing.Status == domain.StatusComplete {
		return &paymentdto.PaymentResultOutput{
			Status: domain.InitiateSuccess,
			TransactionID: existing.ID,
		}, true
	}
	if existing.Status != domain.StatusPending {
		return nil, false
	}

	provider, ok := uc.Registry.ByProxy(existing.Proxy)
	if !ok {
		return nil, false
	}
	poller, ok := provider.(domain.StatusPoller)
	if !ok {
		return nil, false
	}

	pc, err := uc.purchaseContextOf(ctx, existing)
	if err != nil {
		return nil, false
	}
	event, err := poller.PollStatus(ctx, existing, pc)
	if err != nil {
		slog.Warn("status poll before supersede failed",
			"transaction_id", existing.ID,
			"proxy", existing.Proxy,
			"error", err)
		return nil, false
	}
	if _, err := uc.applyEvent(ctx, existing, event); err != nil {
		return nil, false
	}

	switch event.Status {
	case domain.StatusComplete:
		return &paymentdto.PaymentResultOutput{
			Status: domain.InitiateSuccess,
			TransactionID: existing.ID,
		}, true
	case domain.StatusInvalidated:
		// session is dead, a fresh attempt may replace it
		return nil, false
	default:
		// session still open on the provider side: re-serve it
		out := &paymentdto.PaymentResultOutput{
			Status: domain.InitiatePending,
			TransactionID: existing.ID,
		}
		if url := existing.Metadata.CheckoutURL(); url != "" {
			out.Status = domain.InitiateRedirect
			out.RedirectURL = url
		}
		return out, true
	}
}
