package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DodoClient is a minimal client for the Dodo Payments API.
type DodoClient struct {
	APIKey     string
	BaseURL    string
	ReturnURL  string
	HTTPClient *http.Client
}

// NewDodoClient creates a Dodo Payments API client from explicit configuration.
func NewDodoClient(cfg Config) *DodoClient {
	base := strings.TrimRight(cfg.DodoAPIBaseURL, "/")
	if base == "" {
		base = "https://live.dodopayments.com"
	}
	return &DodoClient{
		APIKey:    cfg.DodoAPIKey,
		BaseURL:   base,
		ReturnURL: cfg.AppURL + "/app",
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (c *DodoClient) call(ctx context.Context, method, path string, payload any) (json.RawMessage, error) {
	if strings.TrimSpace(c.APIKey) == "" {
		return nil, errors.New("dodo API key is not configured")
	}

	var body io.Reader = http.NoBody
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("dodo API error (%d): %s", resp.StatusCode, string(respBody))
	}
	return respBody, nil
}

// GetCustomer fetches a customer profile used for self-healing user links.
func (c *DodoClient) GetCustomer(ctx context.Context, customerID string) (*Customer, error) {
	if strings.TrimSpace(customerID) == "" {
		return nil, errors.New("customer id is required")
	}
	data, err := c.call(ctx, http.MethodGet, "/customers/"+customerID, nil)
	if err != nil {
		return nil, err
	}
	var out struct {
		CustomerID string `json:"customer_id"`
		Email      string `json:"email"`
		Name       string `json:"name"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.Email) == "" {
		return nil, errors.New("dodo customer response missing email")
	}
	return &Customer{ID: out.CustomerID, Email: out.Email, Name: out.Name}, nil
}

// CreatePortalSession creates a customer portal session and returns its link.
func (c *DodoClient) CreatePortalSession(ctx context.Context, customerID string) (string, error) {
	data, err := c.call(ctx, http.MethodPost, "/customers/"+customerID+"/customer-portal/session", struct{}{})
	if err != nil {
		return "", err
	}
	var out struct {
		Link string `json:"link"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return "", err
	}
	if out.Link == "" {
		return "", errors.New("dodo response missing portal link")
	}
	return out.Link, nil
}

type dodoCheckoutPayload struct {
	ProductCart []struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
	} `json:"product_cart"`
	CustomerID  string            `json:"customer_id,omitempty"`
	ReturnURL   string            `json:"return_url"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	PaymentLink bool              `json:"payment_link"`
}

// CreateCheckout creates a payment link checkout for a product. The metadata
// rides along so the resulting payment webhook can be attributed.
func (c *DodoClient) CreateCheckout(ctx context.Context, customerID, productID string, metadata map[string]string) (string, error) {
	payload := dodoCheckoutPayload{
		CustomerID:  customerID,
		ReturnURL:   c.ReturnURL,
		Metadata:    metadata,
		PaymentLink: true,
	}
	payload.ProductCart = append(payload.ProductCart, struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
	}{ProductID: productID, Quantity: 1})

	data, err := c.call(ctx, http.MethodPost, "/payments", payload)
	if err != nil {
		return "", err
	}
	var out struct {
		PaymentLink string `json:"payment_link"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return "", err
	}
	if out.PaymentLink == "" {
		return "", errors.New("dodo payment created but no payment link found")
	}
	return out.PaymentLink, nil
}

// DodoAdapter translates Dodo Payments webhook payloads into canonical
// events. Dodo signs with the standard-webhooks scheme.
type DodoAdapter struct {
	WebhookSecret string
}

func NewDodoAdapter(cfg Config) *DodoAdapter {
	return &DodoAdapter{WebhookSecret: cfg.DodoWebhookSecret}
}

func (a *DodoAdapter) Provider() Provider {
	return ProviderDodo
}

type dodoWebhookPayload struct {
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
	Data      struct {
		PaymentID      string `json:"payment_id"`
		SubscriptionID string `json:"subscription_id"`
		ProductID      string `json:"product_id"`
		Status         string `json:"status"`
		Customer       struct {
			CustomerID string `json:"customer_id"`
			Email      string `json:"email"`
		} `json:"customer"`
		Metadata map[string]string `json:"metadata"`
	} `json:"data"`
}

func (a *DodoAdapter) Parse(ctx context.Context, payload []byte, header HeaderGetter) (*BillingEvent, error) {
	ok := VerifyStandardWebhookSignature(
		payload,
		header("webhook-id"),
		header("webhook-timestamp"),
		header("webhook-signature"),
		a.WebhookSecret,
	)
	if !ok {
		return nil, ErrInvalidSignature
	}

	var raw dodoWebhookPayload
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("%w: dodo: %v", ErrMalformedPayload, err)
	}

	var kind EventKind
	switch raw.Type {
	case "subscription.active":
		kind = KindSubscriptionCreated
	case "subscription.renewed", "subscription.plan_changed":
		kind = KindSubscriptionUpdated
	case "subscription.cancelled", "subscription.expired":
		kind = KindSubscriptionCanceled
	case "payment.succeeded":
		kind = KindTransactionCompleted
	default:
		return nil, fmt.Errorf("%w: dodo %s", ErrUnsupportedEvent, raw.Type)
	}

	ev := &BillingEvent{
		Kind:       kind,
		Provider:   ProviderDodo,
		EventID:    header("webhook-id"),
		EventType:  raw.Type,
		CustomerID: raw.Data.Customer.CustomerID,
		PriceID:    raw.Data.ProductID,
		Status:     normalizeDodoStatus(raw.Type, raw.Data.Status),
		OccurredAt: parseVendorTime(raw.Timestamp),
	}

	// Dodo uses the subscription id for subscription events and the payment
	// id for one-off payments.
	ev.PaymentID = raw.Data.SubscriptionID
	if kind == KindTransactionCompleted {
		ev.PaymentID = raw.Data.PaymentID
		promoteCreditPurchase(ev, raw.Data.Metadata)
	}
	if ev.PaymentID == "" {
		ev.PaymentID = raw.Data.PaymentID
	}
	return ev, nil
}

// normalizeDodoStatus maps Dodo statuses onto the canonical set. The
// subscription payload itself still says "active" when a cancellation event
// fires, so the event type wins there.
func normalizeDodoStatus(eventType, status string) string {
	switch eventType {
	case "subscription.cancelled", "subscription.expired":
		return "canceled"
	}
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "active":
		return "active"
	case "trialing":
		return "trialing"
	case "cancelled", "canceled":
		return "canceled"
	default:
		return strings.ToLower(strings.TrimSpace(status))
	}
}
