package config

import (
	"testing"

	"github.com/LavaJover/shvark-payment-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSettings() ProviderSettings {
	return ProviderSettings{
		System: map[string]string{
			"stripe.enabled":   "true",
			"stripe.secretKey": "sk_system",
			"mollie.apiKey":    "key_system",
		},
		Organizations: map[string]map[string]string{
			"org-1": {
				"stripe.secretKey": "sk_org",
			},
		},
		Contexts: map[string]map[string]string{
			"ctx-1": {
				"stripe.secretKey": "sk_ctx",
			},
		},
	}
}

func TestLookupPrecedence(t *testing.T) {
	r := NewResolver(testSettings())

	t.Run("context beats organization and system", func(t *testing.T) {
		v, ok := r.Lookup(domain.ConfigScope{OrganizationID: "org-1", PurchaseContextID: "ctx-1"}, "stripe.secretKey")
		require.True(t, ok)
		assert.Equal(t, "sk_ctx", v)
	})

	t.Run("organization beats system", func(t *testing.T) {
		v, ok := r.Lookup(domain.ConfigScope{OrganizationID: "org-1"}, "stripe.secretKey")
		require.True(t, ok)
		assert.Equal(t, "sk_org", v)
	})

	t.Run("system is the fallback", func(t *testing.T) {
		v, ok := r.Lookup(domain.ConfigScope{}, "stripe.secretKey")
		require.True(t, ok)
		assert.Equal(t, "sk_system", v)
	})

	t.Run("unknown scope falls back to system", func(t *testing.T) {
		v, ok := r.Lookup(domain.ConfigScope{OrganizationID: "org-x", PurchaseContextID: "ctx-x"}, "stripe.secretKey")
		require.True(t, ok)
		assert.Equal(t, "sk_system", v)
	})

	t.Run("missing key", func(t *testing.T) {
		_, ok := r.Lookup(domain.ConfigScope{}, "saferpay.apiUser")
		assert.False(t, ok)
	})
}

func TestRequireAll(t *testing.T) {
	r := NewResolver(testSettings())

	resolved, ok := r.RequireAll(domain.ConfigScope{}, "stripe.secretKey", "mollie.apiKey")
	require.True(t, ok)
	assert.Equal(t, "sk_system", resolved["stripe.secretKey"])
	assert.Equal(t, "key_system", resolved["mollie.apiKey"])

	_, ok = r.RequireAll(domain.ConfigScope{}, "stripe.secretKey", "saferpay.apiUser")
	assert.False(t, ok, "one missing key fails the whole set")
}

func TestBoolAndInt(t *testing.T) {
	r := NewResolver(ProviderSettings{
		System: map[string]string{
			"banktransfer.enabled":     "true",
			"banktransfer.deferred":    "nonsense",
			"banktransfer.waitingDays": "7",
			"saferpay.maxAttempts":     "abc",
		},
	})

	assert.True(t, r.Bool(domain.ConfigScope{}, "banktransfer.enabled"))
	assert.False(t, r.Bool(domain.ConfigScope{}, "banktransfer.deferred"), "unparseable value reads false")
	assert.False(t, r.Bool(domain.ConfigScope{}, "banktransfer.missing"))

	assert.Equal(t, 7, r.Int(domain.ConfigScope{}, "banktransfer.waitingDays", 3))
	assert.Equal(t, 3, r.Int(domain.ConfigScope{}, "banktransfer.missing", 3))
	assert.Equal(t, 3, r.Int(domain.ConfigScope{}, "saferpay.maxAttempts", 3), "unparseable value falls back")
}

func TestEmptyValueIsMissing(t *testing.T) {
	r := NewResolver(ProviderSettings{
		System: map[string]string{"stripe.secretKey": ""},
		Contexts: map[string]map[string]string{
			"ctx-1": {"stripe.secretKey": ""},
		},
	})

	_, ok := r.Lookup(domain.ConfigScope{PurchaseContextID: "ctx-1"}, "stripe.secretKey")
	assert.False(t, ok)
}
