package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/LavaJover/shvark-payment-service/internal/domain"
)

type connectTokenResponse struct {
	StripeUserID string `json:"stripe_user_id"`
	AccessToken  string `json:"access_token"`
}

// ConnectURL builds the merchant onboarding authorization URL. The
// organization id travels in the state parameter and comes back with the code.
func (g *Gateway) ConnectURL(organizationID string) (string, error) {
	scope := domain.ConfigScope{OrganizationID: organizationID}
	clientID, ok := g.cfg.Lookup(scope, cfgConnectClientID)
	if !ok {
		return "", domain.NewPaymentError(domain.CategoryConfiguration, domain.ErrorCodeUnavailable,
			fmt.Errorf("stripe connect client id not configured"))
	}

	query := url.Values{}
	query.Set("response_type", "code")
	query.Set("client_id", clientID)
	query.Set("scope", "read_write")
	query.Set("state", organizationID)

	return g.connectBaseURL + "/oauth/authorize?" + query.Encode(), nil
}

func (g *Gateway) ExchangeCode(ctx context.Context, code, organizationID string) (string, error) {
	scope := domain.ConfigScope{OrganizationID: organizationID}
	resolved, ok := g.cfg.RequireAll(scope, cfgConnectSecret)
	if !ok {
		return "", domain.NewPaymentError(domain.CategoryConfiguration, domain.ErrorCodeUnavailable,
			fmt.Errorf("stripe connect secret not configured"))
	}

	payload := url.Values{}
	payload.Set("grant_type", "authorization_code")
	payload.Set("code", code)

	body, statusCode, err := g.doForm(ctx, http.MethodPost, g.connectBaseURL+"/oauth/token", payload, resolved[cfgConnectSecret])
	if err != nil {
		return "", domain.NewPaymentError(domain.CategoryTransient, domain.ErrorCodeUnavailable, err)
	}
	if statusCode < 200 || statusCode >= 300 {
		return "", domain.NewPaymentError(domain.CategoryTransient, domain.ErrorCodeUnavailable,
			fmt.Errorf("stripe connect token exchange returned status %d", statusCode))
	}

	var token connectTokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return "", err
	}
	return token.StripeUserID, nil
}
