package config

import (
	"strconv"

	"github.com/LavaJover/shvark-payment-service/internal/domain"
)

// Resolver answers provider configuration lookups with scope precedence:
// purchase context overrides organization overrides system.
type Resolver struct {
	settings ProviderSettings
}

func NewResolver(settings ProviderSettings) *Resolver {
	return &Resolver{settings: settings}
}

func (r *Resolver) Lookup(scope domain.ConfigScope, key string) (string, bool) {
	if scope.PurchaseContextID != "" {
		if m, ok := r.settings.Contexts[scope.PurchaseContextID]; ok {
			if v, ok := m[key]; ok && v != "" {
				return v, true
			}
		}
	}
	if scope.OrganizationID != "" {
		if m, ok := r.settings.Organizations[scope.OrganizationID]; ok {
			if v, ok := m[key]; ok && v != "" {
				return v, true
			}
		}
	}
	v, ok := r.settings.System[key]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// RequireAll resolves every key or reports false: the completeness check
// behind "provider inactive on missing configuration".
func (r *Resolver) RequireAll(scope domain.ConfigScope, keys ...string) (map[string]string, bool) {
	resolved := make(map[string]string, len(keys))
	for _, key := range keys {
		v, ok := r.Lookup(scope, key)
		if !ok {
			return nil, false
		}
		resolved[key] = v
	}
	return resolved, true
}

func (r *Resolver) Bool(scope domain.ConfigScope, key string) bool {
	v, ok := r.Lookup(scope, key)
	if !ok {
		return false
	}
	enabled, err := strconv.ParseBool(v)
	if err != nil {
		return false
	}
	return enabled
}

func (r *Resolver) Int(scope domain.ConfigScope, key string, fallback int) int {
	v, ok := r.Lookup(scope, key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
