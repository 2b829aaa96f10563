package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/LavaJover/shvark-payment-service/internal/config"
	"github.com/LavaJover/shvark-payment-service/internal/domain"
	paymentdto "github.com/LavaJover/shvark-payment-service/internal/usecase/dto/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfirmOfflinePayment(t *testing.T) {
	f := newFixture(config.OfflineConfig{})
	f.addReservation("res-1", "ctx-1", 5000, "EUR")
	offlineRow(f, "tx-1", "res-1", 5000, "EUR", time.Hour)
	require.NoError(t, f.repo.setStatus("tx-1", domain.StatusOfflinePendingReview))

	require.NoError(t, f.uc.ConfirmOfflinePayment(context.Background(), "tx-1"))
	assert.Equal(t, domain.StatusComplete, f.repo.statusOf("tx-1"))
	assert.Equal(t, 1, f.reservations.confirmed["res-1"])

	// confirming again is a clean no-op
	require.NoError(t, f.uc.ConfirmOfflinePayment(context.Background(), "tx-1"))
	assert.Equal(t, 1, f.reservations.confirmed["res-1"])
}

func TestConfirmOfflinePaymentRejectsCardRows(t *testing.T) {
	f := newFixture(config.OfflineConfig{})
	f.addReservation("res-1", "ctx-1", 5000, "EUR")

	tx := &domain.Transaction{
		ID: "tx-card",
		ReservationID: "res-1",
		Proxy: domain.ProxyStripe,
		Status: domain.StatusPending,
		Timestamp: time.Now(),
		Metadata: domain.Metadata{},
	}
	require.NoError(t, f.repo.ReplaceLive(tx))

	err := f.uc.ConfirmOfflinePayment(context.Background(), "tx-card")
	assert.ErrorIs(t, err, domain.ErrCapabilityNotSupported)
}

func TestDiscardMatchedPayment(t *testing.T) {
	f := newFixture(config.OfflineConfig{})
	f.addReservation("res-1", "ctx-1", 5000, "EUR")
	offlineRow(f, "tx-1", "res-1", 5000, "EUR", time.Hour)
	require.NoError(t, f.repo.setStatus("tx-1", domain.StatusOfflinePendingReview))

	require.NoError(t, f.uc.DiscardMatchedPayment(context.Background(), "tx-1"))
	assert.Equal(t, domain.StatusPending, f.repo.statusOf("tx-1"))
}

func TestDiscardMatchedPaymentWithoutMatch(t *testing.T) {
	f := newFixture(config.OfflineConfig{})
	f.addReservation("res-1", "ctx-1", 5000, "EUR")
	offlineRow(f, "tx-1", "res-1", 5000, "EUR", time.Hour)

	err := f.uc.DiscardMatchedPayment(context.Background(), "tx-1")
	assert.ErrorIs(t, err, domain.ErrMatchSuperseded)
}

func TestSweepExpiredPayments(t *testing.T) {
	f := newFixture(config.OfflineConfig{})
	f.addReservation("res-old", "ctx-1", 5000, "EUR")
	f.addReservation("res-new", "ctx-1", 5000, "EUR")
	f.reservations.reservations["res-old"].ValidUntil = time.Now().Add(-time.Minute)

	offlineRow(f, "tx-old", "res-old", 5000, "EUR", 2*time.Hour)
	offlineRow(f, "tx-new", "res-new", 5000, "EUR", time.Hour)

	require.NoError(t, f.uc.SweepExpiredPayments(context.Background()))

	assert.Equal(t, domain.StatusInvalidated, f.repo.statusOf("tx-old"))
	assert.Equal(t, domain.StatusPending, f.repo.statusOf("tx-new"))
}

func TestSweepLeavesMatchedRowsForReview(t *testing.T) {
	f := newFixture(config.OfflineConfig{})
	f.addReservation("res-1", "ctx-1", 5000, "EUR")
	f.reservations.reservations["res-1"].ValidUntil = time.Now().Add(-time.Minute)

	offlineRow(f, "tx-1", "res-1", 5000, "EUR", time.Hour)
	require.NoError(t, f.repo.setStatus("tx-1", domain.StatusOfflinePendingReview))

	require.NoError(t, f.uc.SweepExpiredPayments(context.Background()))
	assert.Equal(t, domain.StatusOfflinePendingReview, f.repo.statusOf("tx-1"))
}

func TestRefundPaymentRequiresCompletion(t *testing.T) {
	provider := &fakeProvider{proxy: domain.ProxyStripe, accepts: true}
	f := newFixture(config.OfflineConfig{}, provider)
	f.addReservation("res-1", "ctx-1", 5000, "EUR")

	tx := &domain.Transaction{
		ID: "tx-1",
		ReservationID: "res-1",
		Proxy: domain.ProxyStripe,
		Status: domain.StatusPending,
		Timestamp: time.Now(),
		Metadata: domain.Metadata{},
	}
	require.NoError(t, f.repo.ReplaceLive(tx))

	err := f.uc.RefundPayment(context.Background(), &paymentdto.RefundInput{ReservationID: "res-1"})
	assert.Error(t, err)
}

func TestInvalidatePaymentDropsLiveRow(t *testing.T) {
	f := newFixture(config.OfflineConfig{})
	f.addReservation("res-1", "ctx-1", 5000, "EUR")
	offlineRow(f, "tx-1", "res-1", 5000, "EUR", time.Hour)

	require.NoError(t, f.uc.InvalidatePayment(context.Background(), "res-1", "RESERVATION_CANCELLED"))
	assert.Equal(t, domain.StatusInvalidated, f.repo.statusOf("tx-1"))
}
