package background

import (
	"context"
	"log"
	"sync"
	"time"

	usecase "github.com/LavaJover/shvark-payment-service/internal/usecase/payment"
)

type BackgroundTasks struct {
	PaymentUsecase usecase.PaymentUsecase

	ReconcileInterval time.Duration
	PollInterval      time.Duration
	SweepInterval     time.Duration

	mu        sync.Mutex
	lastSweep time.Time
}

func NewBackgroundTasks(paymentUC usecase.PaymentUsecase, reconcileInterval time.Duration) *BackgroundTasks {
	if reconcileInterval <= 0 {
		reconcileInterval = 5 * time.Minute
	}
	return &BackgroundTasks{
		PaymentUsecase: paymentUC,
		ReconcileInterval: reconcileInterval,
		PollInterval: 30 * time.Second,
		SweepInterval: time.Minute,
		lastSweep: time.Now().Add(-24 * time.Hour),
	}
}

func (bt *BackgroundTasks) StartAll(ctx context.Context) {
	go bt.startBankReconcile(ctx)
	go bt.startStatusPoll(ctx)
	go bt.startExpiredSweep(ctx)
}

func (bt *BackgroundTasks) startBankReconcile(ctx context.Context) {
	ticker := time.NewTicker(bt.ReconcileInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// overlap the window by one interval so a line reported while the
			// previous sweep ran is never skipped; processed lines are
			// deduplicated by the ledger anyway
			bt.mu.Lock()
			since := bt.lastSweep.Add(-bt.ReconcileInterval)
			bt.mu.Unlock()

			sweepStarted := time.Now()
			if _, err := bt.PaymentUsecase.ReconcileBankStatement(ctx, since); err != nil {
				log.Printf("Bank statement reconcile error: %v\n", err)
				continue
			}
			bt.mu.Lock()
			bt.lastSweep = sweepStarted
			bt.mu.Unlock()
		}
	}
}

func (bt *BackgroundTasks) startStatusPoll(ctx context.Context) {
	ticker := time.NewTicker(bt.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := bt.PaymentUsecase.PollPendingStatuses(ctx); err != nil {
				log.Printf("Status poll error: %v\n", err)
			}
		}
	}
}

func (bt *BackgroundTasks) startExpiredSweep(ctx context.Context) {
	ticker := time.NewTicker(bt.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := bt.PaymentUsecase.SweepExpiredPayments(ctx); err != nil {
				log.Printf("Expired payment sweep error: %v\n", err)
			}
		}
	}
}
