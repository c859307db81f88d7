package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"
)

// StripeClient wraps the official Stripe SDK behind the billing interfaces.
type StripeClient struct {
	api       *client.API
	returnURL string
}

// NewStripeClient creates a Stripe client from explicit configuration.
func NewStripeClient(cfg Config) *StripeClient {
	api := &client.API{}
	api.Init(cfg.StripeAPIKey, nil)
	return &StripeClient{
		api:       api,
		returnURL: cfg.AppURL + "/app",
	}
}

// GetCustomer fetches a customer profile used for self-healing user links.
func (c *StripeClient) GetCustomer(ctx context.Context, customerID string) (*Customer, error) {
	if strings.TrimSpace(customerID) == "" {
		return nil, errors.New("customer id is required")
	}
	params := &stripe.CustomerParams{}
	params.Context = ctx
	cust, err := c.api.Customers.Get(customerID, params)
	if err != nil {
		return nil, err
	}
	if cust.Email == "" {
		return nil, errors.New("stripe customer has no email")
	}
	return &Customer{ID: cust.ID, Email: cust.Email, Name: cust.Name}, nil
}

// CreatePortalSession creates a billing portal session and returns its URL.
func (c *StripeClient) CreatePortalSession(ctx context.Context, customerID string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(c.returnURL),
	}
	params.Context = ctx
	sess, err := c.api.BillingPortalSessions.New(params)
	if err != nil {
		return "", err
	}
	return sess.URL, nil
}

// CreateCheckout creates a checkout session for a catalog price.
func (c *StripeClient) CreateCheckout(ctx context.Context, customerID, priceID string, subscription bool, metadata map[string]string) (string, error) {
	mode := stripe.CheckoutSessionModePayment
	if subscription {
		mode = stripe.CheckoutSessionModeSubscription
	}
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(mode)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(c.returnURL + "?checkout=success"),
		CancelURL:  stripe.String(c.returnURL + "?checkout=canceled"),
	}
	if customerID != "" {
		params.Customer = stripe.String(customerID)
	}
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx

	sess, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return "", err
	}
	return sess.URL, nil
}

// StripeAdapter translates Stripe webhook events into canonical events.
// Signature verification uses the SDK's ConstructEvent, which is the
// authentication mechanism for the endpoint.
type StripeAdapter struct {
	WebhookSecret string
}

func NewStripeAdapter(cfg Config) *StripeAdapter {
	return &StripeAdapter{WebhookSecret: cfg.StripeWebhookSecret}
}

func (a *StripeAdapter) Provider() Provider {
	return ProviderStripe
}

func (a *StripeAdapter) Parse(ctx context.Context, payload []byte, header HeaderGetter) (*BillingEvent, error) {
	sig := strings.TrimSpace(header("Stripe-Signature"))
	if sig == "" || a.WebhookSecret == "" {
		return nil, ErrInvalidSignature
	}

	event, err := webhook.ConstructEventWithOptions(payload, sig, a.WebhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	switch event.Type {
	case "customer.subscription.created", "customer.subscription.updated", "customer.subscription.deleted":
		return a.parseSubscription(&event)
	case "checkout.session.completed":
		return a.parseCheckoutSession(&event)
	default:
		return nil, fmt.Errorf("%w: stripe %s", ErrUnsupportedEvent, event.Type)
	}
}

func (a *StripeAdapter) parseSubscription(event *stripe.Event) (*BillingEvent, error) {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return nil, fmt.Errorf("%w: stripe subscription: %v", ErrMalformedPayload, err)
	}

	kind := KindSubscriptionCreated
	switch event.Type {
	case "customer.subscription.updated":
		kind = KindSubscriptionUpdated
	case "customer.subscription.deleted":
		kind = KindSubscriptionCanceled
	}

	ev := &BillingEvent{
		Kind:       kind,
		Provider:   ProviderStripe,
		EventID:    event.ID,
		EventType:  string(event.Type),
		PaymentID:  sub.ID,
		Status:     normalizeStripeStatus(sub.Status),
		OccurredAt: time.Unix(event.Created, 0).UTC(),
	}
	if sub.Customer != nil {
		ev.CustomerID = sub.Customer.ID
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		ev.PriceID = sub.Items.Data[0].Price.ID
	}
	return ev, nil
}

func (a *StripeAdapter) parseCheckoutSession(event *stripe.Event) (*BillingEvent, error) {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return nil, fmt.Errorf("%w: stripe checkout session: %v", ErrMalformedPayload, err)
	}

	ev := &BillingEvent{
		Kind:       KindTransactionCompleted,
		Provider:   ProviderStripe,
		EventID:    event.ID,
		EventType:  string(event.Type),
		PaymentID:  sess.ID,
		Status:     string(sess.PaymentStatus),
		OccurredAt: time.Unix(event.Created, 0).UTC(),
	}
	if sess.Customer != nil {
		ev.CustomerID = sess.Customer.ID
	}
	promoteCreditPurchase(ev, sess.Metadata)
	return ev, nil
}

// normalizeStripeStatus maps Stripe subscription statuses onto the canonical
// set the reconciler understands.
func normalizeStripeStatus(status stripe.SubscriptionStatus) string {
	switch status {
	case stripe.SubscriptionStatusActive:
		return "active"
	case stripe.SubscriptionStatusTrialing:
		return "trialing"
	case stripe.SubscriptionStatusCanceled:
		return "canceled"
	default:
		return string(status)
	}
}
