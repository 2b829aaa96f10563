package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNoProviderAvailable     = errors.New("no payment provider available")
	ErrTransactionNotFound     = errors.New("transaction not found")
	ErrReservationNotFound     = errors.New("reservation not found")
	ErrCapabilityNotSupported  = errors.New("capability not supported by provider")
	ErrInvalidSignature        = errors.New("webhook signature verification failed")
	ErrTransactionTerminal     = errors.New("transaction already in terminal state")
	ErrMatchSuperseded         = errors.New("transaction changed since match candidates were built")
)

// ErrorCategory classifies a payment failure for the propagation policy:
// user-actionable codes surface to the purchaser, configuration and transient
// failures surface as a generic unavailability, authenticity failures are hard
// rejections.
type ErrorCategory string

const (
	CategoryUser          ErrorCategory = "USER"
	CategoryConfiguration ErrorCategory = "CONFIGURATION"
	CategoryTransient     ErrorCategory = "TRANSIENT"
	CategoryAuthenticity  ErrorCategory = "AUTHENTICITY"
)

// ErrorCode is the localized code shown to the purchaser.
type ErrorCode string

const (
	ErrorCodeCardDeclined     ErrorCode = "payment.card-declined"
	ErrorCodeInvalidParameter ErrorCode = "payment.invalid-parameter"
	ErrorCodeTokenMismatch    ErrorCode = "payment.token-mismatch"
	ErrorCodeUnavailable      ErrorCode = "payment.temporarily-unavailable"
	ErrorCodeGeneric          ErrorCode = "payment.generic-error"
)

// PaymentError is the only failure type that crosses the gateway boundary.
// Provider-native errors are translated into it inside the adapter.
type PaymentError struct {
	Category ErrorCategory
	Code     ErrorCode
	Err      error
}

func (e *PaymentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("payment error [%s/%s]: %v", e.Category, e.Code, e.Err)
	}
	return fmt.Sprintf("payment error [%s/%s]", e.Category, e.Code)
}

func (e *PaymentError) Unwrap() error { return e.Err }

func NewPaymentError(category ErrorCategory, code ErrorCode, err error) *PaymentError {
	return &PaymentError{Category: category, Code: code, Err: err}
}
