package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/LavaJover/shvark-payment-service/internal/config"
	"github.com/LavaJover/shvark-payment-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func offlineRow(f *fixture, id, reservationID string, amountCents int64, currency string, age time.Duration) {
	tx := &domain.Transaction{
		ID: id,
		ReservationID: reservationID,
		Proxy: domain.ProxyBankTransfer,
		Status: domain.StatusPending,
		Timestamp: time.Now().Add(-age),
		PriceCents: amountCents,
		Currency: currency,
		Metadata: domain.Metadata{},
	}
	if err := f.repo.ReplaceLive(tx); err != nil {
		panic(err)
	}
}

func line(id, reference string, amountCents int64, currency string, ts time.Time) *domain.BankTransactionLine {
	return &domain.BankTransactionLine{
		ID: id,
		Reference: reference,
		AmountCents: amountCents,
		Currency: currency,
		Timestamp: ts,
	}
}

func TestReconcileMatchesByReservationID(t *testing.T) {
	f := newFixture(config.OfflineConfig{})
	f.addReservation("res-1", "ctx-1", 5000, "EUR")
	offlineRow(f, "tx-1", "res-1", 5000, "EUR", time.Hour)

	f.feed.lines = []*domain.BankTransactionLine{
		line("line-1", "payment for res-1 thanks", 5000, "EUR", time.Now()),
	}

	output, err := f.uc.ReconcileBankStatement(context.Background(), time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, output.LinesMatched)

	assert.Equal(t, domain.StatusOfflinePendingReview, f.repo.statusOf("tx-1"))
	processed, err := f.repo.IsBankLineProcessed("line-1")
	require.NoError(t, err)
	assert.True(t, processed)
	assert.Zero(t, f.reservations.confirmed["res-1"], "review mode leaves confirmation to the admin")
}

func TestReconcileInvoiceNumberBeatsReservationID(t *testing.T) {
	f := newFixture(config.OfflineConfig{})
	f.addReservation("res-1", "ctx-1", 5000, "EUR")
	f.addReservation("res-2", "ctx-1", 5000, "EUR")
	f.reservations.reservations["res-2"].InvoiceNumber = "INV-42"

	offlineRow(f, "tx-1", "res-1", 5000, "EUR", 2*time.Hour)
	offlineRow(f, "tx-2", "res-2", 5000, "EUR", time.Hour)

	// the reference carries the older row's reservation id AND the newer
	// row's invoice number; the invoice number must win
	f.feed.lines = []*domain.BankTransactionLine{
		line("line-1", "res-1 INV-42", 5000, "EUR", time.Now()),
	}

	_, err := f.uc.ReconcileBankStatement(context.Background(), time.Now().Add(-time.Hour))
	require.NoError(t, err)

	assert.Equal(t, domain.StatusOfflinePendingReview, f.repo.statusOf("tx-2"))
	assert.Equal(t, domain.StatusPending, f.repo.statusOf("tx-1"))
}

func TestReconcileMatchesByShortCode(t *testing.T) {
	f := newFixture(config.OfflineConfig{})
	f.addReservation("res-1", "ctx-1", 5000, "EUR")
	f.reservations.shortCodes["res-1"] = "AB12CD"
	offlineRow(f, "tx-1", "res-1", 5000, "EUR", time.Hour)

	f.feed.lines = []*domain.BankTransactionLine{
		line("line-1", "wire ab12cd", 5000, "EUR", time.Now()),
	}

	output, err := f.uc.ReconcileBankStatement(context.Background(), time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, output.LinesMatched, "reference matching is case-insensitive")
}

func TestReconcileRequiresExactAmountAndCurrency(t *testing.T) {
	f := newFixture(config.OfflineConfig{})
	f.addReservation("res-1", "ctx-1", 5000, "EUR")
	offlineRow(f, "tx-1", "res-1", 5000, "EUR", time.Hour)

	f.feed.lines = []*domain.BankTransactionLine{
		line("line-1", "res-1", 4999, "EUR", time.Now()),
		line("line-2", "res-1", 5000, "CHF", time.Now()),
	}

	output, err := f.uc.ReconcileBankStatement(context.Background(), time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Zero(t, output.LinesMatched)
	assert.Equal(t, domain.StatusPending, f.repo.statusOf("tx-1"))
}

func TestReconcileAutoConfirmCompletes(t *testing.T) {
	f := newFixture(config.OfflineConfig{AutoConfirm: true})
	f.addReservation("res-1", "ctx-1", 5000, "EUR")
	offlineRow(f, "tx-1", "res-1", 5000, "EUR", time.Hour)

	f.feed.lines = []*domain.BankTransactionLine{
		line("line-1", "res-1", 5000, "EUR", time.Now()),
	}

	_, err := f.uc.ReconcileBankStatement(context.Background(), time.Now().Add(-time.Hour))
	require.NoError(t, err)

	assert.Equal(t, domain.StatusComplete, f.repo.statusOf("tx-1"))
	assert.Equal(t, 1, f.reservations.confirmed["res-1"])
}

func TestReconcileProcessedLineNeverReused(t *testing.T) {
	f := newFixture(config.OfflineConfig{})
	f.addReservation("res-1", "ctx-1", 5000, "EUR")
	offlineRow(f, "tx-1", "res-1", 5000, "EUR", time.Hour)

	require.NoError(t, f.repo.MarkBankLineProcessed("line-1", "other-tx"))
	f.feed.lines = []*domain.BankTransactionLine{
		line("line-1", "res-1", 5000, "EUR", time.Now()),
	}

	output, err := f.uc.ReconcileBankStatement(context.Background(), time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Zero(t, output.LinesMatched)
	assert.Equal(t, domain.StatusPending, f.repo.statusOf("tx-1"))
}

func TestReconcileEachTransactionConsumedOnce(t *testing.T) {
	f := newFixture(config.OfflineConfig{})
	f.addReservation("res-1", "ctx-1", 5000, "EUR")
	offlineRow(f, "tx-1", "res-1", 5000, "EUR", time.Hour)

	earlier := time.Now().Add(-10 * time.Minute)
	f.feed.lines = []*domain.BankTransactionLine{
		line("line-2", "res-1", 5000, "EUR", time.Now()),
		line("line-1", "res-1", 5000, "EUR", earlier),
	}

	output, err := f.uc.ReconcileBankStatement(context.Background(), time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, output.LinesMatched)

	// lines process in timestamp order, so the earlier line wins
	processed, err := f.repo.IsBankLineProcessed("line-1")
	require.NoError(t, err)
	assert.True(t, processed)
	processed, err = f.repo.IsBankLineProcessed("line-2")
	require.NoError(t, err)
	assert.False(t, processed)
}

func TestReconcileIgnoresNonOfflineRows(t *testing.T) {
	f := newFixture(config.OfflineConfig{})
	f.addReservation("res-1", "ctx-1", 5000, "EUR")

	tx := &domain.Transaction{
		ID: "tx-card",
		ReservationID: "res-1",
		Proxy: domain.ProxyStripe,
		Status: domain.StatusPending,
		Timestamp: time.Now().Add(-time.Hour),
		PriceCents: 5000,
		Currency: "EUR",
		Metadata: domain.Metadata{},
	}
	require.NoError(t, f.repo.ReplaceLive(tx))

	f.feed.lines = []*domain.BankTransactionLine{
		line("line-1", "res-1", 5000, "EUR", time.Now()),
	}

	output, err := f.uc.ReconcileBankStatement(context.Background(), time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Zero(t, output.LinesMatched)
	assert.Equal(t, domain.StatusPending, f.repo.statusOf("tx-card"))
}
