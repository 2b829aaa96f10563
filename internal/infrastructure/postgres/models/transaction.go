package models

import (
	"time"

	"github.com/LavaJover/shvark-payment-service/internal/domain"
)

type TransactionModel struct {
	ID                   string                   `gorm:"primaryKey;type:uuid"`
	ReservationID        string                   `gorm:"type:uuid;index:idx_reservation_status"`
	GatewayTransactionID string
	GatewayPaymentID     string                   `gorm:"index:idx_gateway_payment"`
	Timestamp            time.Time
	PriceCents           int64
	Currency             string
	Description          string
	Proxy                domain.PaymentProxy      `gorm:"index:idx_gateway_payment"`
	PlatformFeeCents     int64
	GatewayFeeCents      int64
	Status               domain.TransactionStatus `gorm:"index:idx_reservation_status"`
	Metadata             string                   `gorm:"type:jsonb"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// ProcessedBankLineModel records statement lines consumed by the matcher so a
// line is never matched twice.
type ProcessedBankLineModel struct {
	LineID        string `gorm:"primaryKey"`
	TransactionID string `gorm:"type:uuid;index"`
	ProcessedAt   time.Time
}
