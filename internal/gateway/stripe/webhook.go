package stripe

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/LavaJover/shvark-payment-service/internal/domain"
)

// signatureTolerance bounds how old a signed webhook timestamp may be.
const signatureTolerance = 5 * time.Minute

type webhookEvent struct {
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID       string            `json:"id"`
			Amount   int64             `json:"amount"`
			Metadata map[string]string `json:"metadata"`
		} `json:"object"`
	} `json:"data"`
}

// ProcessWebhook verifies the Stripe-Signature header before parsing anything.
// An invalid signature is a hard rejection.
func (g *Gateway) ProcessWebhook(ctx context.Context, tx *domain.Transaction, pc *domain.PurchaseContext, payload []byte, signature string) (*domain.WebhookEvent, error) {
	webhookSecret, ok := g.cfg.Lookup(pc.Scope(), cfgWebhookSecret)
	if !ok {
		return nil, domain.NewPaymentError(domain.CategoryConfiguration, domain.ErrorCodeUnavailable,
			fmt.Errorf("stripe webhook secret missing for context %s", pc.ID))
	}

	if err := verifySignature(payload, signature, webhookSecret, time.Now()); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSignature, err)
	}

	var event webhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("failed to parse stripe event: %w", err)
	}

	switch event.Type {
	case "charge.succeeded":
		return &domain.WebhookEvent{
			GatewayTransactionID: event.Data.Object.ID,
			Status: domain.StatusComplete,
			RawType: event.Type,
		}, nil
	case "charge.failed", "charge.expired":
		return &domain.WebhookEvent{
			GatewayTransactionID: event.Data.Object.ID,
			Status: domain.StatusInvalidated,
			RawType: event.Type,
		}, nil
	default:
		return &domain.WebhookEvent{
			GatewayTransactionID: event.Data.Object.ID,
			Status: domain.StatusPending,
			RawType: event.Type,
		}, nil
	}
}

// verifySignature checks a "t=<unix>,v1=<hex hmac>" header: the v1 value must
// be HMAC-SHA256 of "<t>.<payload>" under the shared secret, and t must be
// within tolerance of now.
func verifySignature(payload []byte, header, secret string, now time.Time) error {
	var timestamp string
	var candidates []string
	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			timestamp = kv[1]
		case "v1":
			candidates = append(candidates, kv[1])
		}
	}
	if timestamp == "" || len(candidates) == 0 {
		return fmt.Errorf("malformed signature header")
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("malformed signature timestamp")
	}
	age := now.Sub(time.Unix(ts, 0))
	if age > signatureTolerance || age < -signatureTolerance {
		return fmt.Errorf("signature timestamp outside tolerance")
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, candidate := range candidates {
		if hmac.Equal([]byte(expected), []byte(candidate)) {
			return nil
		}
	}
	return fmt.Errorf("no matching v1 signature")
}
