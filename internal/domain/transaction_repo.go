package domain

// TransactionRepository is the ledger port. Implementations must perform every
// read-then-write under a row-level lock scoped to the reservation id.
type TransactionRepository interface {
	// ReplaceLive atomically invalidates any live row for the reservation and
	// inserts the new attempt. At most one non-invalidated row per reservation
	// exists after the call.
	ReplaceLive(tx *Transaction) error

	GetByID(id string) (*Transaction, error)
	// GetLiveByReservationID returns the single non-invalidated row for the
	// reservation, or ErrTransactionNotFound.
	GetLiveByReservationID(reservationID string) (*Transaction, error)
	GetByGatewayPaymentID(proxy PaymentProxy, gatewayPaymentID string) (*Transaction, error)

	// Complete transitions the row to COMPLETE. Re-applying to an already
	// COMPLETE row reports applied=false and no error; financial side effects
	// are keyed on applied=true.
	Complete(id, gatewayTransactionID string, gatewayFeeCents int64) (applied bool, err error)

	// InvalidateLive invalidates the live row for the reservation if any.
	InvalidateLive(reservationID string) error

	// ApplyMatch transitions id from expected to next only if the row still
	// has the expected status (optimistic re-check of stale candidates).
	ApplyMatch(id string, expected, next TransactionStatus, bankLineID string) (applied bool, err error)

	UpdateMetadata(id string, metadata Metadata) error

	FindPendingByProxy(proxies ...PaymentProxy) ([]*Transaction, error)
	FindPending() ([]*Transaction, error)

	// Bank line bookkeeping: a statement line consumed by a match is never
	// offered to the matcher again.
	MarkBankLineProcessed(lineID, transactionID string) error
	IsBankLineProcessed(lineID string) (bool, error)
}
