package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/LavaJover/shvark-payment-service/internal/domain"
	publisher "github.com/LavaJover/shvark-payment-service/internal/infrastructure/kafka"
	paymentdto "github.com/LavaJover/shvark-payment-service/internal/usecase/dto/payment"
)

// retryValidity is the fresh reservation window granted when a redirect
// session died after exhausting its poll budget.
const retryValidity = 30 * time.Minute

// ProcessWebhook handles one inbound provider confirmation. The adapter
// verifies authenticity and translates the payload; this layer owns the state
// transition and the confirm side effect.
//
// Deliveries are at-least-once: a duplicate for an already completed row is a
// clean no-op and the reservation is confirmed exactly once, gated on the
// repository reporting the transition as applied.
func (uc *DefaultPaymentUsecase) ProcessWebhook(ctx context.Context, input *paymentdto.WebhookInput) (*paymentdto.WebhookOutput, error) {
	provider, ok := uc.Registry.ByProxy(input.Proxy)
	if !ok {
		return nil, domain.ErrNoProviderAvailable
	}
	processor, ok := provider.(domain.WebhookProcessor)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no webhook support", domain.ErrCapabilityNotSupported, input.Proxy)
	}

	pc, err := uc.Reservations.PurchaseContextByID(ctx, input.PurchaseContextID)
	if err != nil {
		return nil, err
	}
	tx, err := uc.TxRepo.GetLiveByReservationID(input.ReservationID)
	if err != nil {
		return nil, err
	}
	if tx.Proxy != input.Proxy {
		return nil, fmt.Errorf("%w: live row belongs to %s", domain.ErrTransactionNotFound, tx.Proxy)
	}

	event, err := processor.ProcessWebhook(ctx, tx, pc, input.Payload, input.Signature)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidSignature) {
			uc.Metrics.RecordWebhookRejected(string(input.Proxy))
		}
		return nil, err
	}
	if err := uc.rejectStaleDelivery(tx, event, input.Proxy); err != nil {
		uc.Metrics.RecordWebhook(string(input.Proxy), "stale")
		return nil, err
	}

	applied, err := uc.applyEvent(ctx, tx, event)
	if err != nil {
		uc.Metrics.RecordWebhook(string(input.Proxy), "error")
		return nil, err
	}
	if applied {
		uc.Metrics.RecordWebhook(string(input.Proxy), "applied")
	} else {
		uc.Metrics.RecordWebhook(string(input.Proxy), "noop")
	}

	return &paymentdto.WebhookOutput{Applied: applied, Status: tx.Status}, nil
}

// rejectStaleDelivery guards against late deliveries for superseded attempts:
// an event naming a gateway payment or charge other than the live row's must
// not touch it. The payment id lookup excludes invalidated rows, so an event
// for a replaced attempt resolves to nothing.
func (uc *DefaultPaymentUsecase) rejectStaleDelivery(tx *domain.Transaction, event *domain.WebhookEvent, proxy domain.PaymentProxy) error {
	if event.GatewayPaymentID != "" && tx.GatewayPaymentID != "" && event.GatewayPaymentID != tx.GatewayPaymentID {
		if _, err := uc.TxRepo.GetByGatewayPaymentID(proxy, event.GatewayPaymentID); err == nil {
			return fmt.Errorf("%w: payment %s belongs to another reservation", domain.ErrTransactionNotFound, event.GatewayPaymentID)
		}
		return fmt.Errorf("%w: payment %s was superseded", domain.ErrTransactionNotFound, event.GatewayPaymentID)
	}
	if event.GatewayTransactionID != "" && tx.GatewayTransactionID != "" && event.GatewayTransactionID != tx.GatewayTransactionID {
		return fmt.Errorf("%w: charge %s does not match the live attempt", domain.ErrTransactionNotFound, event.GatewayTransactionID)
	}
	return nil
}

// applyEvent moves a transaction along the canonical status vocabulary. It is
// shared by the webhook path and the status pollers, so both converge on the
// same transitions and side effects.
func (uc *DefaultPaymentUsecase) applyEvent(ctx context.Context, tx *domain.Transaction, event *domain.WebhookEvent) (bool, error) {
	switch event.Status {
	case domain.StatusComplete:
		applied, err := uc.TxRepo.Complete(tx.ID, event.GatewayTransactionID, event.GatewayFeeCents)
		if err != nil {
			return false, err
		}
		tx.Status = domain.StatusComplete
		if event.GatewayTransactionID != "" {
			tx.GatewayTransactionID = event.GatewayTransactionID
		}
		tx.GatewayFeeCents = event.GatewayFeeCents
		if !applied {
			return false, nil
		}

		if err := uc.Reservations.ConfirmReservation(ctx, tx.ReservationID); err != nil {
			return false, err
		}
		uc.Metrics.RecordPaymentCompleted(string(tx.Proxy))
		uc.publishEvent(tx)
		return true, nil

	case domain.StatusInvalidated:
		if err := uc.TxRepo.InvalidateLive(tx.ReservationID); err != nil {
			return false, err
		}
		tx.Status = domain.StatusInvalidated
		uc.Metrics.RecordPaymentInvalidated(string(tx.Proxy), event.RawType)
		if err := uc.Reservations.RevertToPending(ctx, tx.ReservationID); err != nil {
			slog.Warn("failed to revert reservation after invalidation",
				"reservation_id", tx.ReservationID,
				"error", err)
		}
		if event.RawType == domain.EventMaxAttemptsExceeded {
			// the purchaser did nothing wrong, give them a window to restart
			if err := uc.Reservations.ExtendValidity(ctx, tx.ReservationID, time.Now().Add(retryValidity)); err != nil {
				slog.Warn("failed to extend reservation validity for retry",
					"reservation_id", tx.ReservationID,
					"error", err)
			}
		}
		uc.publishEvent(tx)
		return true, nil

	default:
		// still pending: keep adapter bookkeeping (attempt counters) persisted
		if len(tx.Metadata) > 0 {
			if err := uc.TxRepo.UpdateMetadata(tx.ID, tx.Metadata); err != nil {
				return false, err
			}
		}
		return false, nil
	}
}

func (uc *DefaultPaymentUsecase) publishEvent(tx *domain.Transaction) {
	if err := publisher.PublishPaymentEventFor(uc.Publisher, tx); err != nil {
		slog.Error("failed to publish payment event",
			"transaction_id", tx.ID,
			"error", err)
	}
}
