package domain

import (
	"context"
	"time"
)

// BankTransactionLine is one externally reported statement line. Reference is
// the free-text field purchasers put the reservation code into.
type BankTransactionLine struct {
	ID         string
	Reference  string
	AmountCents int64
	Currency   string
	Timestamp  time.Time
}

// BankStatementFeed fetches statement lines reported since a given instant.
type BankStatementFeed interface {
	LinesSince(ctx context.Context, since time.Time) ([]*BankTransactionLine, error)
}
