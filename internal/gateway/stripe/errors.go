package stripe

import (
	"encoding/json"
	"fmt"

	"github.com/LavaJover/shvark-payment-service/internal/domain"
)

type gatewayError struct {
	Type 		string `json:"type"`
	Code 		string `json:"code"`
	DeclineCode string `json:"decline_code"`
	Param 		string `json:"param"`
	Message 	string `json:"message"`
}

type errorEnvelope struct {
	Error gatewayError `json:"error"`
}

func parseError(body []byte) (*gatewayError, error) {
	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, err
	}
	if envelope.Error.Type == "" {
		return nil, fmt.Errorf("no error object in response")
	}
	return &envelope.Error, nil
}

// MapError translates a Stripe error type/code pair into the canonical
// taxonomy. It is a pure function; unknown inputs fall through to the
// mandatory default entry.
func MapError(errType, code string) (domain.ErrorCategory, domain.ErrorCode) {
	switch errType {
	case "card_error":
		if code == "incorrect_number" || code == "invalid_number" ||
			code == "invalid_expiry_month" || code == "invalid_expiry_year" || code == "invalid_cvc" {
			return domain.CategoryUser, domain.ErrorCodeInvalidParameter
		}
		return domain.CategoryUser, domain.ErrorCodeCardDeclined
	case "invalid_request_error":
		return domain.CategoryUser, domain.ErrorCodeInvalidParameter
	case "authentication_error":
		return domain.CategoryConfiguration, domain.ErrorCodeUnavailable
	case "api_connection_error", "api_error", "rate_limit_error", "idempotency_error":
		return domain.CategoryTransient, domain.ErrorCodeUnavailable
	default:
		return domain.CategoryTransient, domain.ErrorCodeGeneric
	}
}
