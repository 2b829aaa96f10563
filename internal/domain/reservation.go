package domain

import (
	"context"
	"time"
)

// Reservation is the external reservation snapshot this service depends on.
// Inventory allocation and reservation CRUD live in the reservation service;
// only these fields cross the boundary.
type Reservation struct {
	ID                string
	PurchaseContextID string
	Status            string
	PriceCents        int64
	Currency          string
	PurchaserName     string
	PurchaserEmail    string
	InvoiceNumber     string
	ValidUntil        time.Time
}

// ReservationService is the narrow port to the reservation collaborator.
type ReservationService interface {
	ReservationByID(ctx context.Context, id string) (*Reservation, error)
	PurchaseContextByID(ctx context.Context, id string) (*PurchaseContext, error)
	ExtendValidity(ctx context.Context, reservationID string, deadline time.Time) error
	ConfirmReservation(ctx context.Context, reservationID string) error
	RevertToPending(ctx context.Context, reservationID string) error
	ShortCode(ctx context.Context, pc *PurchaseContext, reservationID string) (string, error)
}
