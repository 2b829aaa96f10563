package gateway

import (
	"context"

	"github.com/LavaJover/shvark-payment-service/internal/domain"
)

// Registry holds the ordered list of payment providers. Order is priority:
// selection walks the list and the first provider that accepts wins, so a
// deferred variant registered before its default variant shadows it whenever
// the deferred flag is configured.
type Registry struct {
	providers []domain.PaymentProvider
}

func NewRegistry(providers ...domain.PaymentProvider) *Registry {
	return &Registry{providers: providers}
}

func (r *Registry) Providers() []domain.PaymentProvider {
	return r.providers
}

func (r *Registry) ByProxy(proxy domain.PaymentProxy) (domain.PaymentProvider, bool) {
	for _, p := range r.providers {
		if p.Proxy() == proxy {
			return p, true
		}
	}
	return nil, false
}

// SelectProvider returns the first provider accepting the request. There is
// no fallback to an unrelated method: a fall-through is ErrNoProviderAvailable.
func (r *Registry) SelectProvider(ctx context.Context, method domain.PaymentMethod, scope domain.ConfigScope, req *domain.TransactionRequest) (domain.PaymentProvider, error) {
	for _, p := range r.providers {
		if p.Accept(ctx, method, scope, req) {
			return p, nil
		}
	}
	return nil, domain.ErrNoProviderAvailable
}

// MethodCapabilities describes one usable payment method in a scope.
type MethodCapabilities struct {
	Method       domain.PaymentMethod
	Proxy        domain.PaymentProxy
	Capabilities []domain.Capability
}

// ActiveMethods reports which payment methods are currently usable in the
// scope, each attributed to the provider that would win selection for it.
func (r *Registry) ActiveMethods(ctx context.Context, scope domain.ConfigScope) []MethodCapabilities {
	seen := make(map[domain.PaymentMethod]bool)
	var active []MethodCapabilities
	for _, p := range r.providers {
		for _, method := range p.Methods() {
			if seen[method] {
				continue
			}
			if p.Accept(ctx, method, scope, nil) {
				seen[method] = true
				active = append(active, MethodCapabilities{
					Method: method,
					Proxy: p.Proxy(),
					Capabilities: domain.CapabilitiesOf(p),
				})
			}
		}
	}
	return active
}
