package domain

import "time"

// PurchaseContext is the sellable entity a reservation belongs to. It carries
// everything an adapter needs to build provider payloads: currency, timezone,
// a short display name and the owning organization.
type PurchaseContext struct {
	ID             string
	OrganizationID string
	DisplayName    string
	Currency       string
	TimeZone       string
	EventBegin     time.Time
	EventEnd       time.Time
}

// Scope is the configuration scope a payment for this context resolves under.
// Adapters must use it for every lookup so the keys that made Accept pass are
// the same keys the capability methods see.
func (pc *PurchaseContext) Scope() ConfigScope {
	return ConfigScope{OrganizationID: pc.OrganizationID, PurchaseContextID: pc.ID}
}

type BillingAddress struct {
	Line1   string
	Line2   string
	Zip     string
	City    string
	Country string
}

// PaymentSpecification describes what is being paid for. It is built once per
// payment attempt and never persisted; adapters read it to build requests and
// the usecase reads it to build the ledger row.
type PaymentSpecification struct {
	ReservationID  string
	PriceCents     int64
	Currency       string
	PurchaserName  string
	PurchaserEmail string
	BillingAddress BillingAddress
	Locale         string
	Context        PurchaseContext

	// GatewayToken carries a token produced by a preceding client-side step,
	// empty for flows that do not use one.
	GatewayToken string
}
