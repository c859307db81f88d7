package billing

import "context"

// HeaderGetter returns a request header value by name. Adapters read their
// vendor's signature headers through it so they can be exercised without a
// live HTTP request.
type HeaderGetter func(key string) string

// Adapter translates a vendor-specific webhook payload into a canonical
// BillingEvent. Parse verifies the payload signature first and returns
// ErrInvalidSignature before any further processing on mismatch; vendor
// event types without a canonical mapping yield ErrUnsupportedEvent and
// undecodable bodies yield ErrMalformedPayload. The context bounds any
// vendor API call verification needs (PayPal).
type Adapter interface {
	Provider() Provider
	Parse(ctx context.Context, payload []byte, header HeaderGetter) (*BillingEvent, error)
}

// CustomerLookup fetches a customer profile from the vendor API. Adapters
// whose vendor supports it expose one so the reconciler can self-heal a
// missing local user link via the customer's email.
type CustomerLookup interface {
	GetCustomer(ctx context.Context, customerID string) (*Customer, error)
}

// PortalSessionCreator creates a vendor-hosted customer portal session and
// returns its URL.
type PortalSessionCreator interface {
	CreatePortalSession(ctx context.Context, customerID string) (string, error)
}
