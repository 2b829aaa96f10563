package saferpay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/LavaJover/shvark-payment-service/internal/config"
	"github.com/LavaJover/shvark-payment-service/internal/domain"
	"github.com/google/uuid"
)

const (
	defaultAPIBaseURL = "https://www.saferpay.com/api/Payment/v1"

	cfgEnabled     = "saferpay.enabled"
	cfgAPIUser     = "saferpay.apiUser"
	cfgAPIPassword = "saferpay.apiPassword"
	cfgCustomerID  = "saferpay.customerId"
	cfgTerminalID  = "saferpay.terminalId"
	cfgMaxAttempts = "saferpay.maxAttempts"
	cfgReturnBase  = "saferpay.returnBaseUrl"

	defaultMaxAttempts = 5
)

// Gateway implements the multi-step authorize+capture flow: Initiate opens a
// payment page, PollStatus asserts the page token and issues the explicit
// capture once the payment is authorized. Each poll increments the attempt
// counter persisted in transaction metadata; past the bound the attempt is
// reported dead so the caller can invalidate and let the purchaser restart.
type Gateway struct {
	cfg        *config.Resolver
	client     *http.Client
	apiBaseURL string
}

func NewGateway(cfg *config.Resolver, client *http.Client) *Gateway {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Gateway{
		cfg: cfg,
		client: client,
		apiBaseURL: defaultAPIBaseURL,
	}
}

func (g *Gateway) Proxy() domain.PaymentProxy {
	return domain.ProxySaferpay
}

func (g *Gateway) Methods() []domain.PaymentMethod {
	return []domain.PaymentMethod{domain.MethodCreditCard}
}

func (g *Gateway) Accept(ctx context.Context, method domain.PaymentMethod, scope domain.ConfigScope, req *domain.TransactionRequest) bool {
	if method != domain.MethodCreditCard {
		return false
	}
	if !g.cfg.Bool(scope, cfgEnabled) {
		return false
	}
	_, ok := g.cfg.RequireAll(scope, cfgAPIUser, cfgAPIPassword, cfgCustomerID, cfgTerminalID)
	return ok
}

type requestHeader struct {
	CustomerID     string `json:"CustomerId"`
	RequestID      string `json:"RequestId"`
	RetryIndicator int    `json:"RetryIndicator"`
}

type amountPayload struct {
	Value        string `json:"Value"`
	CurrencyCode string `json:"CurrencyCode"`
}

type initializeRequest struct {
	RequestHeader requestHeader `json:"RequestHeader"`
	TerminalID    string        `json:"TerminalId"`
	Payment       struct {
		Amount      amountPayload `json:"Amount"`
		OrderID     string        `json:"OrderId"`
		Description string        `json:"Description"`
	} `json:"Payment"`
	ReturnURL struct {
		URL string `json:"Url"`
	} `json:"ReturnUrl"`
}

type initializeResponse struct {
	Token       string `json:"Token"`
	RedirectURL string `json:"RedirectUrl"`
}

type assertResponse struct {
	Transaction struct {
		ID     string `json:"Id"`
		Status string `json:"Status"` // AUTHORIZED | CAPTURED | CANCELED
	} `json:"Transaction"`
}

// ClientToken opens a payment page session and returns its token for a
// client-side step that wants to drive the redirect itself.
func (g *Gateway) ClientToken(ctx context.Context, spec *domain.PaymentSpecification, scope domain.ConfigScope) (string, error) {
	response, err := g.initialize(ctx, spec)
	if err != nil {
		return "", err
	}
	return response.Token, nil
}

func (g *Gateway) Initiate(ctx context.Context, spec *domain.PaymentSpecification, tx *domain.Transaction) (*domain.InitiateResult, error) {
	response, err := g.initialize(ctx, spec)
	if err != nil {
		return nil, err
	}

	tx.GatewayPaymentID = response.Token
	if tx.Metadata == nil {
		tx.Metadata = domain.Metadata{}
	}
	tx.Metadata.SetAttemptCount(0)

	return domain.RedirectResult(response.RedirectURL, ""), nil
}

func (g *Gateway) initialize(ctx context.Context, spec *domain.PaymentSpecification) (*initializeResponse, error) {
	resolved, ok := g.cfg.RequireAll(spec.Context.Scope(), cfgAPIUser, cfgAPIPassword, cfgCustomerID, cfgTerminalID, cfgReturnBase)
	if !ok {
		return nil, domain.NewPaymentError(domain.CategoryConfiguration, domain.ErrorCodeUnavailable,
			fmt.Errorf("saferpay configuration incomplete for context %s", spec.Context.ID))
	}

	request := initializeRequest{
		RequestHeader: requestHeader{
			CustomerID: resolved[cfgCustomerID],
			RequestID: uuid.NewString(),
			RetryIndicator: 0,
		},
		TerminalID: resolved[cfgTerminalID],
	}
	request.Payment.Amount = amountPayload{
		Value: fmt.Sprintf("%d", spec.PriceCents),
		CurrencyCode: spec.Currency,
	}
	request.Payment.OrderID = spec.ReservationID
	request.Payment.Description = fmt.Sprintf("%s - reservation %s", spec.Context.DisplayName, spec.ReservationID)
	request.ReturnURL.URL = fmt.Sprintf("%s/%s/%s", resolved[cfgReturnBase], spec.Context.ID, spec.ReservationID)

	body, statusCode, err := g.doJSON(ctx, g.apiBaseURL+"/PaymentPage/Initialize", request, resolved[cfgAPIUser], resolved[cfgAPIPassword])
	if err != nil {
		return nil, domain.NewPaymentError(domain.CategoryTransient, domain.ErrorCodeUnavailable, err)
	}
	if statusCode < 200 || statusCode >= 300 {
		return nil, domain.NewPaymentError(domain.CategoryTransient, domain.ErrorCodeUnavailable,
			fmt.Errorf("saferpay initialize returned status %d", statusCode))
	}

	var parsed initializeResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, err
	}
	return &parsed, nil
}

// PollStatus asserts the payment page token and captures an authorized
// transaction. The attempt counter lives in tx.Metadata; the caller persists
// the mutated bag, so retries survive process restarts.
func (g *Gateway) PollStatus(ctx context.Context, tx *domain.Transaction, pc *domain.PurchaseContext) (*domain.WebhookEvent, error) {
	scope := pc.Scope()
	resolved, ok := g.cfg.RequireAll(scope, cfgAPIUser, cfgAPIPassword, cfgCustomerID)
	if !ok {
		return nil, domain.NewPaymentError(domain.CategoryConfiguration, domain.ErrorCodeUnavailable,
			fmt.Errorf("saferpay configuration incomplete for context %s", pc.ID))
	}

	if tx.Metadata == nil {
		tx.Metadata = domain.Metadata{}
	}
	attempts := tx.Metadata.AttemptCount() + 1
	tx.Metadata.SetAttemptCount(attempts)

	maxAttempts := g.cfg.Int(scope, cfgMaxAttempts, defaultMaxAttempts)
	if attempts > maxAttempts {
		return &domain.WebhookEvent{Status: domain.StatusInvalidated, RawType: domain.EventMaxAttemptsExceeded}, nil
	}

	assertPayload := map[string]interface{}{
		"RequestHeader": requestHeader{
			CustomerID: resolved[cfgCustomerID],
			RequestID: uuid.NewString(),
			RetryIndicator: attempts,
		},
		"Token": tx.GatewayPaymentID,
	}

	body, statusCode, err := g.doJSON(ctx, g.apiBaseURL+"/PaymentPage/Assert", assertPayload, resolved[cfgAPIUser], resolved[cfgAPIPassword])
	if err != nil {
		return nil, domain.NewPaymentError(domain.CategoryTransient, domain.ErrorCodeUnavailable, err)
	}
	if statusCode == http.StatusNotFound {
		// the page session is gone: expired or cancelled on the provider side
		return &domain.WebhookEvent{Status: domain.StatusInvalidated, RawType: "SESSION_GONE"}, nil
	}
	if statusCode < 200 || statusCode >= 300 {
		return nil, domain.NewPaymentError(domain.CategoryTransient, domain.ErrorCodeUnavailable,
			fmt.Errorf("saferpay assert returned status %d", statusCode))
	}

	var assertion assertResponse
	if err := json.Unmarshal(body, &assertion); err != nil {
		return nil, err
	}

	switch assertion.Transaction.Status {
	case "CAPTURED":
		return &domain.WebhookEvent{
			GatewayTransactionID: assertion.Transaction.ID,
			Status: domain.StatusComplete,
			RawType: assertion.Transaction.Status,
		}, nil
	case "AUTHORIZED":
		if err := g.capture(ctx, resolved, assertion.Transaction.ID); err != nil {
			// capture failures are recoverable: the row stays pending and
			// the next poll retries with the incremented counter
			return &domain.WebhookEvent{
				GatewayTransactionID: assertion.Transaction.ID,
				Status: domain.StatusPending,
				RawType: "CAPTURE_FAILED",
			}, nil
		}
		return &domain.WebhookEvent{
			GatewayTransactionID: assertion.Transaction.ID,
			Status: domain.StatusComplete,
			RawType: "CAPTURED",
		}, nil
	case "CANCELED":
		return &domain.WebhookEvent{
			GatewayTransactionID: assertion.Transaction.ID,
			Status: domain.StatusInvalidated,
			RawType: assertion.Transaction.Status,
		}, nil
	default:
		return &domain.WebhookEvent{
			GatewayTransactionID: assertion.Transaction.ID,
			Status: domain.StatusPending,
			RawType: assertion.Transaction.Status,
		}, nil
	}
}

func (g *Gateway) capture(ctx context.Context, resolved map[string]string, transactionID string) error {
	payload := map[string]interface{}{
		"RequestHeader": requestHeader{
			CustomerID: resolved[cfgCustomerID],
			RequestID: uuid.NewString(),
			RetryIndicator: 0,
		},
		"TransactionReference": map[string]string{
			"TransactionId": transactionID,
		},
	}

	_, statusCode, err := g.doJSON(ctx, g.apiBaseURL+"/Transaction/Capture", payload, resolved[cfgAPIUser], resolved[cfgAPIPassword])
	if err != nil {
		return err
	}
	if statusCode < 200 || statusCode >= 300 {
		return fmt.Errorf("saferpay capture returned status %d", statusCode)
	}
	return nil
}

func (g *Gateway) PaymentInfo(ctx context.Context, tx *domain.Transaction, pc *domain.PurchaseContext) (*domain.PaymentInfo, error) {
	return &domain.PaymentInfo{
		PaidCents: tx.PriceCents,
		GatewayFeeCents: tx.GatewayFeeCents,
		PlatformFeeCents: tx.PlatformFeeCents,
	}, nil
}

func (g *Gateway) doJSON(ctx context.Context, endpoint string, payload interface{}, user, password string) ([]byte, int, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(raw))
	if err != nil {
		return nil, 0, err
	}
	req.SetBasicAuth(user, password)
	req.Header.Set("Content-Type", "application/json")

	response, err := g.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer response.Body.Close()
	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, 0, err
	}
	return body, response.StatusCode, nil
}
