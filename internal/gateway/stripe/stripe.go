package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/LavaJover/shvark-payment-service/internal/config"
	"github.com/LavaJover/shvark-payment-service/internal/domain"
)

const (
	defaultAPIBaseURL     = "https://api.stripe.com/v1"
	defaultConnectBaseURL = "https://connect.stripe.com"

	cfgEnabled         = "stripe.enabled"
	cfgSecretKey       = "stripe.secretKey"
	cfgWebhookSecret   = "stripe.webhookSecret"
	cfgConnectClientID = "stripe.connectClientId"
	cfgConnectSecret   = "stripe.connectSecret"
)

// Gateway charges a client-side token synchronously: a successful charge call
// yields a COMPLETE transaction in one step.
type Gateway struct {
	cfg            *config.Resolver
	client         *http.Client
	apiBaseURL     string
	connectBaseURL string
}

func NewGateway(cfg *config.Resolver, client *http.Client) *Gateway {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Gateway{
		cfg: cfg,
		client: client,
		apiBaseURL: defaultAPIBaseURL,
		connectBaseURL: defaultConnectBaseURL,
	}
}

func (g *Gateway) Proxy() domain.PaymentProxy {
	return domain.ProxyStripe
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
	_, ok := g.cfg.RequireAll(scope, cfgSecretKey)
	return ok
}

type chargeResponse struct {
	ID             string `json:"id"`
	Status         string `json:"status"`
	Amount         int64  `json:"amount"`
	AmountRefunded int64  `json:"amount_refunded"`
	Currency       string `json:"currency"`
}

func (g *Gateway) Initiate(ctx context.Context, spec *domain.PaymentSpecification, tx *domain.Transaction) (*domain.InitiateResult, error) {
	if spec.GatewayToken == "" {
		return domain.FailureResult(domain.ErrorCodeInvalidParameter), nil
	}

	secretKey, ok := g.cfg.Lookup(spec.Context.Scope(), cfgSecretKey)
	if !ok {
		return nil, domain.NewPaymentError(domain.CategoryConfiguration, domain.ErrorCodeUnavailable,
			fmt.Errorf("stripe secret key missing for context %s", spec.Context.ID))
	}

	payload := url.Values{}
	payload.Set("amount", strconv.FormatInt(spec.PriceCents, 10))
	payload.Set("currency", strings.ToLower(spec.Currency))
	payload.Set("source", spec.GatewayToken)
	payload.Set("description", fmt.Sprintf("%s - reservation %s", spec.Context.DisplayName, spec.ReservationID))
	payload.Set("metadata[reservationId]", spec.ReservationID)

	body, statusCode, err := g.doForm(ctx, http.MethodPost, g.apiBaseURL+"/charges", payload, secretKey)
	if err != nil {
		return nil, domain.NewPaymentError(domain.CategoryTransient, domain.ErrorCodeUnavailable, err)
	}

	if statusCode >= 200 && statusCode < 300 {
		var charge chargeResponse
		if err := json.Unmarshal(body, &charge); err != nil {
			return nil, domain.NewPaymentError(domain.CategoryTransient, domain.ErrorCodeUnavailable, err)
		}
		return domain.SuccessResult(charge.ID), nil
	}

	gatewayErr, err := parseError(body)
	if err != nil {
		return nil, domain.NewPaymentError(domain.CategoryTransient, domain.ErrorCodeUnavailable,
			fmt.Errorf("stripe returned status %d", statusCode))
	}
	category, code := MapError(gatewayErr.Type, gatewayErr.Code)
	if category == domain.CategoryUser {
		return domain.FailureResult(code), nil
	}
	return nil, domain.NewPaymentError(category, code, fmt.Errorf("stripe charge failed: %s", gatewayErr.Message))
}

// Refund issues a full or partial refund for a completed charge.
// amountCents == 0 refunds the full charge.
func (g *Gateway) Refund(ctx context.Context, tx *domain.Transaction, pc *domain.PurchaseContext, amountCents int64) error {
	secretKey, ok := g.cfg.Lookup(pc.Scope(), cfgSecretKey)
	if !ok {
		return domain.NewPaymentError(domain.CategoryConfiguration, domain.ErrorCodeUnavailable,
			fmt.Errorf("stripe secret key missing for context %s", pc.ID))
	}

	payload := url.Values{}
	payload.Set("charge", tx.GatewayTransactionID)
	if amountCents > 0 {
		payload.Set("amount", strconv.FormatInt(amountCents, 10))
	}

	body, statusCode, err := g.doForm(ctx, http.MethodPost, g.apiBaseURL+"/refunds", payload, secretKey)
	if err != nil {
		return domain.NewPaymentError(domain.CategoryTransient, domain.ErrorCodeUnavailable, err)
	}
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	gatewayErr, parseErr := parseError(body)
	if parseErr != nil {
		return domain.NewPaymentError(domain.CategoryTransient, domain.ErrorCodeUnavailable,
			fmt.Errorf("stripe refund returned status %d", statusCode))
	}
	category, code := MapError(gatewayErr.Type, gatewayErr.Code)
	return domain.NewPaymentError(category, code, fmt.Errorf("stripe refund failed: %s", gatewayErr.Message))
}

func (g *Gateway) PaymentInfo(ctx context.Context, tx *domain.Transaction, pc *domain.PurchaseContext) (*domain.PaymentInfo, error) {
	secretKey, ok := g.cfg.Lookup(pc.Scope(), cfgSecretKey)
	if !ok {
		return nil, domain.NewPaymentError(domain.CategoryConfiguration, domain.ErrorCodeUnavailable,
			fmt.Errorf("stripe secret key missing for context %s", pc.ID))
	}

	body, statusCode, err := g.doForm(ctx, http.MethodGet, g.apiBaseURL+"/charges/"+tx.GatewayTransactionID, nil, secretKey)
	if err != nil {
		return nil, domain.NewPaymentError(domain.CategoryTransient, domain.ErrorCodeUnavailable, err)
	}
	if statusCode < 200 || statusCode >= 300 {
		return nil, domain.NewPaymentError(domain.CategoryTransient, domain.ErrorCodeUnavailable,
			fmt.Errorf("stripe charge lookup returned status %d", statusCode))
	}

	var charge chargeResponse
	if err := json.Unmarshal(body, &charge); err != nil {
		return nil, err
	}
	return &domain.PaymentInfo{
		PaidCents: charge.Amount,
		RefundedCents: charge.AmountRefunded,
		GatewayFeeCents: tx.GatewayFeeCents,
		PlatformFeeCents: tx.PlatformFeeCents,
	}, nil
}

func (g *Gateway) doForm(ctx context.Context, method, endpoint string, payload url.Values, secretKey string) ([]byte, int, error) {
	var reader io.Reader
	if payload != nil {
		reader = strings.NewReader(payload.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Authorization", "Bearer "+secretKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

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
