package billing

import "time"

// Provider identifies a payment vendor.
type Provider string

const (
	ProviderStripe       Provider = "stripe"
	ProviderPaddle       Provider = "paddle"
	ProviderDodo         Provider = "dodo"
	ProviderPayPal       Provider = "paypal"
	ProviderLemonSqueezy Provider = "lemonsqueezy"
)

// EventKind is the canonical classification of a billing occurrence.
type EventKind string

const (
	KindSubscriptionCreated  EventKind = "subscription-created"
	KindSubscriptionUpdated  EventKind = "subscription-updated"
	KindSubscriptionCanceled EventKind = "subscription-canceled"
	KindTransactionCompleted EventKind = "transaction-completed"
	KindCreditPurchase       EventKind = "credit-purchase"
)

// Metadata keys carried on credit-purchase events, extracted from the
// vendor's custom data bag.
const (
	MetaUserID       = "userId"
	MetaCreditType   = "creditType"
	MetaCreditAmount = "creditAmount"
)

// BillingEvent is the provider-agnostic representation of an inbound webhook
// event, produced by the provider adapters and consumed by the reconciler.
// It is constructed per webhook call and discarded after reconciliation.
type BillingEvent struct {
	Kind       EventKind
	Provider   Provider
	EventID    string
	EventType  string // raw vendor event type, for logging and audit
	CustomerID string
	PriceID    string
	// PaymentID is the subscription id for subscription events and the
	// transaction id for transaction events.
	PaymentID string
	Status    string
	// CustomerEmail is set when the vendor payload carries the buyer's email
	// directly (PayPal); it lets reconciliation link a user without a
	// customer lookup API.
	CustomerEmail string
	OccurredAt    time.Time
	Metadata      map[string]string
}

// Customer is the minimal vendor customer profile used for the self-healing
// user link (get-or-create local user by email).
type Customer struct {
	ID    string
	Email string
	Name  string
}
