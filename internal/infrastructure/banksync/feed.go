package banksync

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/LavaJover/shvark-payment-service/internal/domain"
)

// HTTPStatementFeed pulls bank statement lines from the configured feed API.
type HTTPStatementFeed struct {
	BaseURL string
	APIKey  string
	client  *http.Client
}

func NewHTTPStatementFeed(baseURL, apiKey string) *HTTPStatementFeed {
	return &HTTPStatementFeed{
		BaseURL: baseURL,
		APIKey: apiKey,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

type statementLine struct {
	ID 			string 	`json:"id"`
	Reference 	string 	`json:"reference"`
	AmountCents int64 	`json:"amount_cents"`
	Currency 	string 	`json:"currency"`
	Timestamp 	time.Time `json:"timestamp"`
}

type statementResponse struct {
	Lines []statementLine `json:"lines"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (f *HTTPStatementFeed) LinesSince(ctx context.Context, since time.Time) ([]*domain.BankTransactionLine, error) {
	url := fmt.Sprintf("%s/statement/lines?since=%s", f.BaseURL, since.UTC().Format(time.RFC3339))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+f.APIKey)

	response, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()
	responseBodyBytes, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, err
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		var errResp errorResponse
		if err := json.Unmarshal(responseBodyBytes, &errResp); err != nil {
			return nil, fmt.Errorf("statement feed returned status %d", response.StatusCode)
		}
		return nil, fmt.Errorf("statement feed: %s", errResp.Error)
	}

	var parsed statementResponse
	if err := json.Unmarshal(responseBodyBytes, &parsed); err != nil {
		return nil, err
	}

	lines := make([]*domain.BankTransactionLine, len(parsed.Lines))
	for i, l := range parsed.Lines {
		lines[i] = &domain.BankTransactionLine{
			ID: l.ID,
			Reference: l.Reference,
			AmountCents: l.AmountCents,
			Currency: l.Currency,
			Timestamp: l.Timestamp,
		}
	}

	return lines, nil
}
