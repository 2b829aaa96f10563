package mollie

import (
	"bytes"
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
	"github.com/LavaJover/shvark-payment-service/internal/infrastructure/cache"
)

const (
	defaultAPIBaseURL = "https://api.mollie.com/v2"

	cfgEnabled        = "mollie.enabled"
	cfgAPIKey         = "mollie.apiKey"
	cfgProfileID      = "mollie.profileId"
	cfgRedirectBase   = "mollie.redirectBaseUrl"
	cfgWebhookBase    = "mollie.webhookBaseUrl"

	methodCacheTTL = 15 * time.Minute
)

var methodNames = map[domain.PaymentMethod]string{
	domain.MethodCreditCard: "creditcard",
	domain.MethodIDeal:      "ideal",
	domain.MethodBancontact: "bancontact",
}

// Gateway drives the redirect+webhook flow: Initiate creates a remote payment
// and returns its checkout URL; confirmation arrives through the webhook or
// through PollStatus when the purchaser re-enters before any webhook fired.
type Gateway struct {
	cfg         *config.Resolver
	client      *http.Client
	apiBaseURL  string
	methodCache *cache.TTLCache[string, map[string]bool]
}

func NewGateway(cfg *config.Resolver, client *http.Client) *Gateway {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Gateway{
		cfg: cfg,
		client: client,
		apiBaseURL: defaultAPIBaseURL,
		methodCache: cache.New[string, map[string]bool](methodCacheTTL),
	}
}

func (g *Gateway) Proxy() domain.PaymentProxy {
	return domain.ProxyMollie
}

func (g *Gateway) Methods() []domain.PaymentMethod {
	return []domain.PaymentMethod{domain.MethodCreditCard, domain.MethodIDeal, domain.MethodBancontact}
}

// Accept checks static support, configuration completeness and the
// live-fetched list of methods enabled on the Mollie profile. The fetched
// list is cached briefly; a cache miss always falls back to a live fetch.
func (g *Gateway) Accept(ctx context.Context, method domain.PaymentMethod, scope domain.ConfigScope, req *domain.TransactionRequest) bool {
	name, supported := methodNames[method]
	if !supported {
		return false
	}
	if !g.cfg.Bool(scope, cfgEnabled) {
		return false
	}
	apiKey, ok := g.cfg.Lookup(scope, cfgAPIKey)
	if !ok {
		return false
	}

	enabled, err := g.methodCache.GetOrLoad(apiKey, func() (map[string]bool, error) {
		return g.fetchEnabledMethods(ctx, apiKey)
	})
	if err != nil {
		return false
	}
	return enabled[name]
}

type amountObject struct {
	Currency string `json:"currency"`
	Value    string `json:"value"`
}

type paymentResponse struct {
	ID             string        `json:"id"`
	Status         string        `json:"status"`
	Amount         amountObject  `json:"amount"`
	AmountRefunded *amountObject `json:"amountRefunded"`
	Metadata struct {
		ReservationID string `json:"reservation_id"`
	} `json:"metadata"`
	Links struct {
		Checkout struct {
			Href string `json:"href"`
		} `json:"checkout"`
	} `json:"_links"`
}

func (g *Gateway) Initiate(ctx context.Context, spec *domain.PaymentSpecification, tx *domain.Transaction) (*domain.InitiateResult, error) {
	resolved, ok := g.cfg.RequireAll(spec.Context.Scope(), cfgAPIKey, cfgRedirectBase, cfgWebhookBase)
	if !ok {
		return nil, domain.NewPaymentError(domain.CategoryConfiguration, domain.ErrorCodeUnavailable,
			fmt.Errorf("mollie configuration incomplete for context %s", spec.Context.ID))
	}

	methodName := methodNames[domain.MethodCreditCard]
	if name, supported := methodNames[methodFromSpec(spec)]; supported {
		methodName = name
	}

	payload := map[string]interface{}{
		"amount": amountObject{
			Currency: spec.Currency,
			Value: centsToValue(spec.PriceCents),
		},
		"description": fmt.Sprintf("%s - reservation %s", spec.Context.DisplayName, spec.ReservationID),
		"method": methodName,
		"locale": spec.Locale,
		"redirectUrl": fmt.Sprintf("%s/%s/%s", resolved[cfgRedirectBase], spec.Context.ID, spec.ReservationID),
		"webhookUrl": fmt.Sprintf("%s/MOLLIE/%s/%s", resolved[cfgWebhookBase], spec.Context.ID, spec.ReservationID),
		"metadata": map[string]string{
			"reservation_id": spec.ReservationID,
		},
	}

	body, statusCode, err := g.doJSON(ctx, http.MethodPost, g.apiBaseURL+"/payments", payload, resolved[cfgAPIKey])
	if err != nil {
		return nil, domain.NewPaymentError(domain.CategoryTransient, domain.ErrorCodeUnavailable, err)
	}
	if statusCode < 200 || statusCode >= 300 {
		return nil, mapHTTPFailure(statusCode, body)
	}

	var payment paymentResponse
	if err := json.Unmarshal(body, &payment); err != nil {
		return nil, domain.NewPaymentError(domain.CategoryTransient, domain.ErrorCodeUnavailable, err)
	}

	tx.GatewayPaymentID = payment.ID
	if tx.Metadata == nil {
		tx.Metadata = domain.Metadata{}
	}
	tx.Metadata.SetCheckoutURL(payment.Links.Checkout.Href)

	return domain.RedirectResult(payment.Links.Checkout.Href, payment.ID), nil
}

// ProcessWebhook handles Mollie's id-only webhook body. Mollie does not sign
// payloads; authenticity comes from re-fetching the payment from the API and
// matching its metadata against the owning transaction. A payment that does
// not reference the reservation is rejected outright.
func (g *Gateway) ProcessWebhook(ctx context.Context, tx *domain.Transaction, pc *domain.PurchaseContext, payload []byte, signature string) (*domain.WebhookEvent, error) {
	values, err := url.ParseQuery(string(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to parse mollie webhook body: %w", err)
	}
	paymentID := values.Get("id")
	if paymentID == "" {
		return nil, fmt.Errorf("%w: missing payment id", domain.ErrInvalidSignature)
	}

	payment, err := g.fetchPayment(ctx, pc, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.Metadata.ReservationID != tx.ReservationID || paymentID != tx.GatewayPaymentID {
		return nil, fmt.Errorf("%w: payment %s does not belong to reservation %s",
			domain.ErrInvalidSignature, paymentID, tx.ReservationID)
	}

	return paymentToEvent(payment), nil
}

// PollStatus is the webhook fallback: re-query the provider's own status
// endpoint for a pending row.
func (g *Gateway) PollStatus(ctx context.Context, tx *domain.Transaction, pc *domain.PurchaseContext) (*domain.WebhookEvent, error) {
	payment, err := g.fetchPayment(ctx, pc, tx.GatewayPaymentID)
	if err != nil {
		return nil, err
	}
	return paymentToEvent(payment), nil
}

func (g *Gateway) Refund(ctx context.Context, tx *domain.Transaction, pc *domain.PurchaseContext, amountCents int64) error {
	apiKey, ok := g.cfg.Lookup(pc.Scope(), cfgAPIKey)
	if !ok {
		return domain.NewPaymentError(domain.CategoryConfiguration, domain.ErrorCodeUnavailable,
			fmt.Errorf("mollie api key missing for context %s", pc.ID))
	}

	if amountCents == 0 {
		amountCents = tx.PriceCents
	}
	payload := map[string]interface{}{
		"amount": amountObject{Currency: tx.Currency, Value: centsToValue(amountCents)},
	}

	endpoint := fmt.Sprintf("%s/payments/%s/refunds", g.apiBaseURL, tx.GatewayPaymentID)
	body, statusCode, err := g.doJSON(ctx, http.MethodPost, endpoint, payload, apiKey)
	if err != nil {
		return domain.NewPaymentError(domain.CategoryTransient, domain.ErrorCodeUnavailable, err)
	}
	if statusCode < 200 || statusCode >= 300 {
		return mapHTTPFailure(statusCode, body)
	}
	return nil
}

func (g *Gateway) PaymentInfo(ctx context.Context, tx *domain.Transaction, pc *domain.PurchaseContext) (*domain.PaymentInfo, error) {
	payment, err := g.fetchPayment(ctx, pc, tx.GatewayPaymentID)
	if err != nil {
		return nil, err
	}
	info := &domain.PaymentInfo{
		PaidCents: valueToCents(payment.Amount.Value),
		GatewayFeeCents: tx.GatewayFeeCents,
		PlatformFeeCents: tx.PlatformFeeCents,
	}
	if payment.AmountRefunded != nil {
		info.RefundedCents = valueToCents(payment.AmountRefunded.Value)
	}
	return info, nil
}

func (g *Gateway) fetchPayment(ctx context.Context, pc *domain.PurchaseContext, paymentID string) (*paymentResponse, error) {
	apiKey, ok := g.cfg.Lookup(pc.Scope(), cfgAPIKey)
	if !ok {
		return nil, domain.NewPaymentError(domain.CategoryConfiguration, domain.ErrorCodeUnavailable,
			fmt.Errorf("mollie api key missing for context %s", pc.ID))
	}

	body, statusCode, err := g.doJSON(ctx, http.MethodGet, g.apiBaseURL+"/payments/"+paymentID, nil, apiKey)
	if err != nil {
		return nil, domain.NewPaymentError(domain.CategoryTransient, domain.ErrorCodeUnavailable, err)
	}
	if statusCode < 200 || statusCode >= 300 {
		return nil, mapHTTPFailure(statusCode, body)
	}

	var payment paymentResponse
	if err := json.Unmarshal(body, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

type methodsResponse struct {
	Embedded struct {
		Methods []struct {
			ID string `json:"id"`
		} `json:"methods"`
	} `json:"_embedded"`
}

func (g *Gateway) fetchEnabledMethods(ctx context.Context, apiKey string) (map[string]bool, error) {
	body, statusCode, err := g.doJSON(ctx, http.MethodGet, g.apiBaseURL+"/methods", nil, apiKey)
	if err != nil {
		return nil, err
	}
	if statusCode < 200 || statusCode >= 300 {
		return nil, fmt.Errorf("mollie methods fetch returned status %d", statusCode)
	}

	var parsed methodsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, err
	}
	enabled := make(map[string]bool, len(parsed.Embedded.Methods))
	for _, m := range parsed.Embedded.Methods {
		enabled[m.ID] = true
	}
	return enabled, nil
}

func (g *Gateway) doJSON(ctx context.Context, method, endpoint string, payload interface{}, apiKey string) ([]byte, int, error) {
	var reader io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, err
		}
		reader = bytes.NewBuffer(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
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

func paymentToEvent(payment *paymentResponse) *domain.WebhookEvent {
	event := &domain.WebhookEvent{
		GatewayTransactionID: payment.ID,
		GatewayPaymentID: payment.ID,
		RawType: payment.Status,
	}
	switch payment.Status {
	case "paid":
		event.Status = domain.StatusComplete
	case "canceled", "expired", "failed":
		event.Status = domain.StatusInvalidated
	default: // open, pending, authorized
		event.Status = domain.StatusPending
	}
	return event
}

func mapHTTPFailure(statusCode int, body []byte) error {
	if statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden {
		return domain.NewPaymentError(domain.CategoryConfiguration, domain.ErrorCodeUnavailable,
			fmt.Errorf("mollie rejected credentials: status %d", statusCode))
	}
	if statusCode >= 400 && statusCode < 500 {
		return domain.NewPaymentError(domain.CategoryUser, domain.ErrorCodeInvalidParameter,
			fmt.Errorf("mollie rejected request: %s", string(body)))
	}
	return domain.NewPaymentError(domain.CategoryTransient, domain.ErrorCodeUnavailable,
		fmt.Errorf("mollie returned status %d", statusCode))
}

func methodFromSpec(spec *domain.PaymentSpecification) domain.PaymentMethod {
	// the chosen sub-method rides in the token slot for redirect flows
	switch spec.GatewayToken {
	case "ideal":
		return domain.MethodIDeal
	case "bancontact":
		return domain.MethodBancontact
	default:
		return domain.MethodCreditCard
	}
}

func centsToValue(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}

func valueToCents(value string) int64 {
	parts := strings.SplitN(value, ".", 2)
	whole, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0
	}
	cents := whole * 100
	if len(parts) == 2 {
		frac := parts[1]
		if len(frac) > 2 {
			frac = frac[:2]
		}
		for len(frac) < 2 {
			frac += "0"
		}
		f, err := strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return 0
		}
		cents += f
	}
	return cents
}
