package stripe

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/LavaJover/shvark-payment-service/internal/config"
	"github.com/LavaJover/shvark-payment-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testResolver() *config.Resolver {
	return config.NewResolver(config.ProviderSettings{
		System: map[string]string{
			"stripe.enabled":   "true",
			"stripe.secretKey": "sk_test_123",
		},
	})
}

func testSpec() *domain.PaymentSpecification {
	return &domain.PaymentSpecification{
		ReservationID: "res-1",
		PriceCents: 2500,
		Currency: "CHF",
		GatewayToken: "tok_visa",
		Context: domain.PurchaseContext{ID: "ctx-1", DisplayName: "Spring Conference", Currency: "CHF"},
	}
}

func TestAccept(t *testing.T) {
	g := NewGateway(testResolver(), nil)
	scope := domain.ConfigScope{PurchaseContextID: "ctx-1"}

	assert.True(t, g.Accept(context.Background(), domain.MethodCreditCard, scope, nil))
	assert.False(t, g.Accept(context.Background(), domain.MethodBankTransfer, scope, nil))

	disabled := config.NewResolver(config.ProviderSettings{
		System: map[string]string{"stripe.secretKey": "sk_test_123"},
	})
	assert.False(t, NewGateway(disabled, nil).Accept(context.Background(), domain.MethodCreditCard, scope, nil))

	noKey := config.NewResolver(config.ProviderSettings{
		System: map[string]string{"stripe.enabled": "true"},
	})
	assert.False(t, NewGateway(noKey, nil).Accept(context.Background(), domain.MethodCreditCard, scope, nil))
}

func TestInitiateChargeSucceeds(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/charges", r.URL.Path)
		require.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "2500", r.PostForm.Get("amount"))
		assert.Equal(t, "chf", r.PostForm.Get("currency"))
		assert.Equal(t, "tok_visa", r.PostForm.Get("source"))
		assert.Equal(t, "res-1", r.PostForm.Get("metadata[reservationId]"))

		fmt.Fprint(w, `{"id":"ch_1","status":"succeeded","amount":2500,"currency":"chf"}`)
	}))
	defer server.Close()

	g := NewGateway(testResolver(), server.Client())
	g.apiBaseURL = server.URL

	tx := &domain.Transaction{ID: "tx-1", Metadata: domain.Metadata{}}
	result, err := g.Initiate(context.Background(), testSpec(), tx)
	require.NoError(t, err)
	assert.Equal(t, domain.InitiateSuccess, result.Status)
	assert.Equal(t, "ch_1", result.GatewayTransactionID)
}

func TestOrgScopedCredentialsServeTheFullFlow(t *testing.T) {
	resolver := config.NewResolver(config.ProviderSettings{
		System: map[string]string{"stripe.enabled": "true"},
		Organizations: map[string]map[string]string{
			"org-1": {"stripe.secretKey": "sk_org_1"},
		},
	})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer sk_org_1", r.Header.Get("Authorization"))
		fmt.Fprint(w, `{"id":"ch_1","status":"succeeded","amount":2500,"currency":"chf"}`)
	}))
	defer server.Close()

	g := NewGateway(resolver, server.Client())
	g.apiBaseURL = server.URL

	spec := testSpec()
	spec.Context.OrganizationID = "org-1"

	// the scope that passes selection is the scope the charge resolves under
	require.True(t, g.Accept(context.Background(), domain.MethodCreditCard, spec.Context.Scope(), nil))

	result, err := g.Initiate(context.Background(), spec, &domain.Transaction{ID: "tx-1", Metadata: domain.Metadata{}})
	require.NoError(t, err)
	assert.Equal(t, domain.InitiateSuccess, result.Status)
}

func TestInitiateCardDeclined(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		fmt.Fprint(w, `{"error":{"type":"card_error","code":"card_declined","message":"Your card was declined."}}`)
	}))
	defer server.Close()

	g := NewGateway(testResolver(), server.Client())
	g.apiBaseURL = server.URL

	result, err := g.Initiate(context.Background(), testSpec(), &domain.Transaction{Metadata: domain.Metadata{}})
	require.NoError(t, err)
	assert.Equal(t, domain.InitiateFailed, result.Status)
	assert.Equal(t, domain.ErrorCodeCardDeclined, result.FailureCode)
}

func TestInitiateServerErrorIsPaymentError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error":{"type":"api_error","message":"boom"}}`)
	}))
	defer server.Close()

	g := NewGateway(testResolver(), server.Client())
	g.apiBaseURL = server.URL

	_, err := g.Initiate(context.Background(), testSpec(), &domain.Transaction{Metadata: domain.Metadata{}})
	require.Error(t, err)

	var paymentErr *domain.PaymentError
	require.ErrorAs(t, err, &paymentErr)
	assert.Equal(t, domain.CategoryTransient, paymentErr.Category)
}

func TestInitiateMissingTokenFailsFast(t *testing.T) {
	g := NewGateway(testResolver(), nil)
	spec := testSpec()
	spec.GatewayToken = ""

	result, err := g.Initiate(context.Background(), spec, &domain.Transaction{Metadata: domain.Metadata{}})
	require.NoError(t, err)
	assert.Equal(t, domain.InitiateFailed, result.Status)
	assert.Equal(t, domain.ErrorCodeInvalidParameter, result.FailureCode)
}

func TestMapError(t *testing.T) {
	tests := []struct {
		errType  string
		code     string
		category domain.ErrorCategory
		outCode  domain.ErrorCode
	}{
		{"card_error", "card_declined", domain.CategoryUser, domain.ErrorCodeCardDeclined},
		{"card_error", "invalid_cvc", domain.CategoryUser, domain.ErrorCodeInvalidParameter},
		{"invalid_request_error", "", domain.CategoryUser, domain.ErrorCodeInvalidParameter},
		{"authentication_error", "", domain.CategoryConfiguration, domain.ErrorCodeUnavailable},
		{"rate_limit_error", "", domain.CategoryTransient, domain.ErrorCodeUnavailable},
		{"something_new", "whatever", domain.CategoryTransient, domain.ErrorCodeGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.errType+"/"+tt.code, func(t *testing.T) {
			category, code := MapError(tt.errType, tt.code)
			assert.Equal(t, tt.category, category)
			assert.Equal(t, tt.outCode, code)
		})
	}
}

func signPayload(payload []byte, secret string, ts time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", ts.Unix())
	mac.Write(payload)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func TestVerifySignature(t *testing.T) {
	payload := []byte(`{"type":"charge.succeeded"}`)
	now := time.Now()

	t.Run("valid", func(t *testing.T) {
		header := signPayload(payload, "whsec_1", now)
		assert.NoError(t, verifySignature(payload, header, "whsec_1", now))
	})

	t.Run("wrong secret", func(t *testing.T) {
		header := signPayload(payload, "whsec_other", now)
		assert.Error(t, verifySignature(payload, header, "whsec_1", now))
	})

	t.Run("tampered payload", func(t *testing.T) {
		header := signPayload(payload, "whsec_1", now)
		assert.Error(t, verifySignature([]byte(`{"type":"charge.failed"}`), header, "whsec_1", now))
	})

	t.Run("stale timestamp", func(t *testing.T) {
		header := signPayload(payload, "whsec_1", now.Add(-10*time.Minute))
		assert.Error(t, verifySignature(payload, header, "whsec_1", now))
	})

	t.Run("malformed header", func(t *testing.T) {
		assert.Error(t, verifySignature(payload, "nonsense", "whsec_1", now))
	})
}

func TestProcessWebhookRejectsBadSignature(t *testing.T) {
	resolver := config.NewResolver(config.ProviderSettings{
		System: map[string]string{
			"stripe.enabled":       "true",
			"stripe.secretKey":     "sk_test_123",
			"stripe.webhookSecret": "whsec_1",
		},
	})
	g := NewGateway(resolver, nil)

	pc := &domain.PurchaseContext{ID: "ctx-1"}
	payload := []byte(`{"type":"charge.succeeded","data":{"object":{"id":"ch_1"}}}`)

	_, err := g.ProcessWebhook(context.Background(), &domain.Transaction{}, pc, payload, "t=1,v1=deadbeef")
	require.ErrorIs(t, err, domain.ErrInvalidSignature)
}

func TestProcessWebhookParsesEvent(t *testing.T) {
	resolver := config.NewResolver(config.ProviderSettings{
		System: map[string]string{
			"stripe.enabled":       "true",
			"stripe.secretKey":     "sk_test_123",
			"stripe.webhookSecret": "whsec_1",
		},
	})
	g := NewGateway(resolver, nil)
	pc := &domain.PurchaseContext{ID: "ctx-1"}

	payload := []byte(`{"type":"charge.succeeded","data":{"object":{"id":"ch_1"}}}`)
	event, err := g.ProcessWebhook(context.Background(), &domain.Transaction{}, pc, payload, signPayload(payload, "whsec_1", time.Now()))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusComplete, event.Status)
	assert.Equal(t, "ch_1", event.GatewayTransactionID)

	payload = []byte(`{"type":"charge.failed","data":{"object":{"id":"ch_2"}}}`)
	event, err = g.ProcessWebhook(context.Background(), &domain.Transaction{}, pc, payload, signPayload(payload, "whsec_1", time.Now()))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInvalidated, event.Status)
}
