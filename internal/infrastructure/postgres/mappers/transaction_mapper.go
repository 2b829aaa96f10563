package mappers

import (
	"encoding/json"

	"github.com/LavaJover/shvark-payment-service/internal/domain"
	"github.com/LavaJover/shvark-payment-service/internal/infrastructure/postgres/models"
)

func ToDomainTransaction(model *models.TransactionModel) *domain.Transaction {
	metadata := domain.Metadata{}
	if model.Metadata != "" {
		// ignore malformed bags: adapter bookkeeping must never break reads
		_ = json.Unmarshal([]byte(model.Metadata), &metadata)
	}
	return &domain.Transaction{
		ID: model.ID,
		ReservationID: model.ReservationID,
		GatewayTransactionID: model.GatewayTransactionID,
		GatewayPaymentID: model.GatewayPaymentID,
		Timestamp: model.Timestamp,
		PriceCents: model.PriceCents,
		Currency: model.Currency,
		Description: model.Description,
		Proxy: model.Proxy,
		PlatformFeeCents: model.PlatformFeeCents,
		GatewayFeeCents: model.GatewayFeeCents,
		Status: model.Status,
		Metadata: metadata,
	}
}

func ToGORMTransaction(tx *domain.Transaction) *models.TransactionModel {
	metadata := "{}"
	if tx.Metadata != nil {
		if raw, err := json.Marshal(tx.Metadata); err == nil {
			metadata = string(raw)
		}
	}
	return &models.TransactionModel{
		ID: tx.ID,
		ReservationID: tx.ReservationID,
		GatewayTransactionID: tx.GatewayTransactionID,
		GatewayPaymentID: tx.GatewayPaymentID,
		Timestamp: tx.Timestamp,
		PriceCents: tx.PriceCents,
		Currency: tx.Currency,
		Description: tx.Description,
		Proxy: tx.Proxy,
		PlatformFeeCents: tx.PlatformFeeCents,
		GatewayFeeCents: tx.GatewayFeeCents,
		Status: tx.Status,
		Metadata: metadata,
	}
}

func MetadataJSON(metadata domain.Metadata) string {
	raw, err := json.Marshal(metadata)
	if err != nil {
		return "{}"
	}
	return string(raw)
}
