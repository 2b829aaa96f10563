package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/LavaJover/shvark-payment-service/internal/domain"
	"github.com/LavaJover/shvark-payment-service/internal/infrastructure/postgres/mappers"
	"github.com/LavaJover/shvark-payment-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DefaultTransactionRepository struct {
	DB *gorm.DB
}

func NewDefaultTransactionRepository(db *gorm.DB) *DefaultTransactionRepository {
	return &DefaultTransactionRepository{DB: db}
}

// ReplaceLive invalidates any live row for the reservation and inserts the new
// attempt in one database transaction. Live rows are locked FOR UPDATE so a
// concurrent webhook either sees the old row before invalidation or the new
// row after commit, never both live.
func (r *DefaultTransactionRepository) ReplaceLive(tx *domain.Transaction) error {
	return r.DB.Transaction(func(dbtx *gorm.DB) error {
		var prior []models.TransactionModel
		if err := dbtx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("reservation_id = ? AND status <> ?", tx.ReservationID, domain.StatusInvalidated).
			Find(&prior).Error; err != nil {
			return err
		}
		for _, p := range prior {
			if err := dbtx.Model(&models.TransactionModel{}).
				Where("id = ?", p.ID).
				Update("status", domain.StatusInvalidated).Error; err != nil {
				return err
			}
		}
		return dbtx.Create(mappers.ToGORMTransaction(tx)).Error
	})
}

func (r *DefaultTransactionRepository) GetByID(id string) (*domain.Transaction, error) {
	var model models.TransactionModel
	if err := r.DB.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	return mappers.ToDomainTransaction(&model), nil
}

func (r *DefaultTransactionRepository) GetLiveByReservationID(reservationID string) (*domain.Transaction, error) {
	var model models.TransactionModel
	err := r.DB.
		Where("reservation_id = ? AND status <> ?", reservationID, domain.StatusInvalidated).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	return mappers.ToDomainTransaction(&model), nil
}

func (r *DefaultTransactionRepository) GetByGatewayPaymentID(proxy domain.PaymentProxy, gatewayPaymentID string) (*domain.Transaction, error) {
	var model models.TransactionModel
	err := r.DB.
		Where("proxy = ? AND gateway_payment_id = ? AND status <> ?", proxy, gatewayPaymentID, domain.StatusInvalidated).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	return mappers.ToDomainTransaction(&model), nil
}

// Complete applies the one-time COMPLETE transition under a row lock. A row
// already COMPLETE reports applied=false so redelivered confirmations do not
// double-apply side effects; an INVALIDATED row is refused.
func (r *DefaultTransactionRepository) Complete(id, gatewayTransactionID string, gatewayFeeCents int64) (bool, error) {
	applied := false
	err := r.DB.Transaction(func(dbtx *gorm.DB) error {
		var model models.TransactionModel
		if err := dbtx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&model, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrTransactionNotFound
			}
			return err
		}
		if model.Status == domain.StatusComplete {
			return nil
		}
		if model.Status == domain.StatusInvalidated {
			return domain.ErrTransactionTerminal
		}
		updates := map[string]interface{}{
			"status": domain.StatusComplete,
			"gateway_fee_cents": gatewayFeeCents,
			"updated_at": time.Now(),
		}
		if gatewayTransactionID != "" {
			updates["gateway_transaction_id"] = gatewayTransactionID
		}
		if err := dbtx.Model(&models.TransactionModel{}).
			Where("id = ?", id).
			Updates(updates).Error; err != nil {
			return err
		}
		applied = true
		return nil
	})
	return applied, err
}

func (r *DefaultTransactionRepository) InvalidateLive(reservationID string) error {
	return r.DB.Transaction(func(dbtx *gorm.DB) error {
		var prior []models.TransactionModel
		if err := dbtx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("reservation_id = ? AND status <> ?", reservationID, domain.StatusInvalidated).
			Find(&prior).Error; err != nil {
			return err
		}
		for _, p := range prior {
			if err := dbtx.Model(&models.TransactionModel{}).
				Where("id = ?", p.ID).
				Update("status", domain.StatusInvalidated).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// ApplyMatch is the optimistic transition used by the reconciliation matcher:
// the UPDATE carries the expected status in its predicate, so a row a human
// cancelled between candidate listing and match application is left alone.
func (r *DefaultTransactionRepository) ApplyMatch(id string, expected, next domain.TransactionStatus, bankLineID string) (bool, error) {
	tx, err := r.GetByID(id)
	if err != nil {
		return false, err
	}
	metadata := tx.Metadata
	if metadata == nil {
		metadata = domain.Metadata{}
	}
	metadata.SetMatchedBankLineID(bankLineID)

	res := r.DB.Model(&models.TransactionModel{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(map[string]interface{}{
			"status": next,
			"metadata": mappers.MetadataJSON(metadata),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *DefaultTransactionRepository) UpdateMetadata(id string, metadata domain.Metadata) error {
	res := r.DB.Model(&models.TransactionModel{}).
		Where("id = ?", id).
		Update("metadata", mappers.MetadataJSON(metadata))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrTransactionNotFound
	}
	return nil
}

func (r *DefaultTransactionRepository) FindPendingByProxy(proxies ...domain.PaymentProxy) ([]*domain.Transaction, error) {
	var txModels []models.TransactionModel
	if err := r.DB.
		Where("proxy IN (?)", proxies).
		Where("status IN (?)", []domain.TransactionStatus{domain.StatusPending, domain.StatusOfflinePendingReview}).
		Order("created_at ASC").
		Find(&txModels).Error; err != nil {
		return nil, err
	}

	transactions := make([]*domain.Transaction, len(txModels))
	for i, model := range txModels {
		transactions[i] = mappers.ToDomainTransaction(&model)
	}

	return transactions, nil
}

func (r *DefaultTransactionRepository) FindPending() ([]*domain.Transaction, error) {
	var txModels []models.TransactionModel
	if err := r.DB.
		Where("status = ?", domain.StatusPending).
		Order("created_at ASC").
		Find(&txModels).Error; err != nil {
		return nil, err
	}

	transactions := make([]*domain.Transaction, len(txModels))
	for i, model := range txModels {
		transactions[i] = mappers.ToDomainTransaction(&model)
	}

	return transactions, nil
}

func (r *DefaultTransactionRepository) MarkBankLineProcessed(lineID, transactionID string) error {
	line := models.ProcessedBankLineModel{
		LineID: lineID,
		TransactionID: transactionID,
		ProcessedAt: time.Now(),
	}
	if err := r.DB.Create(&line).Error; err != nil {
		return fmt.Errorf("failed to mark bank line processed: %w", err)
	}
	return nil
}

func (r *DefaultTransactionRepository) IsBankLineProcessed(lineID string) (bool, error) {
	var count int64
	if err := r.DB.Model(&models.ProcessedBankLineModel{}).
		Where("line_id = ?", lineID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
