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

// PaddleClient is a minimal client for the Paddle Billing API.
type PaddleClient struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// NewPaddleClient creates a Paddle API client from explicit configuration.
func NewPaddleClient(cfg Config) *PaddleClient {
	base := strings.TrimRight(cfg.PaddleAPIBaseURL, "/")
	if base == "" {
		base = "https://api.paddle.com"
	}
	return &PaddleClient{
		APIKey:  cfg.PaddleAPIKey,
		BaseURL: base,
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type paddleAPIEnvelope struct {
	Data  json.RawMessage `json:"data"`
	Error struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *PaddleClient) call(ctx context.Context, method, path string, payload any) (json.RawMessage, error) {
	if strings.TrimSpace(c.APIKey) == "" {
		return nil, errors.New("paddle API key is not configured")
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

	var parsed paddleAPIEnvelope
	if len(respBody) > 0 {
		if err := json.Unmarshal(respBody, &parsed); err != nil {
			return nil, fmt.Errorf("failed to decode paddle response: %w", err)
		}
	}
	if resp.StatusCode >= 300 {
		msg := parsed.Error.Detail
		if msg == "" {
			msg = parsed.Error.Message
		}
		if msg == "" {
			msg = string(respBody)
		}
		return nil, fmt.Errorf("paddle API error (%d): %s", resp.StatusCode, msg)
	}
	return parsed.Data, nil
}

// GetCustomer fetches a customer profile used for self-healing user links.
func (c *PaddleClient) GetCustomer(ctx context.Context, customerID string) (*Customer, error) {
	if strings.TrimSpace(customerID) == "" {
		return nil, errors.New("customer id is required")
	}
	data, err := c.call(ctx, http.MethodGet, "/customers/"+customerID, nil)
	if err != nil {
		return nil, err
	}
	var out struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.Email) == "" {
		return nil, errors.New("paddle customer response missing email")
	}
	return &Customer{ID: out.ID, Email: out.Email, Name: out.Name}, nil
}

// CreatePortalSession creates a customer portal session and returns the
// overview URL.
func (c *PaddleClient) CreatePortalSession(ctx context.Context, customerID string) (string, error) {
	data, err := c.call(ctx, http.MethodPost, "/customers/"+customerID+"/portal-sessions", struct{}{})
	if err != nil {
		return "", err
	}
	var out struct {
		URLs struct {
			General struct {
				Overview string `json:"overview"`
			} `json:"general"`
		} `json:"urls"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return "", err
	}
	if out.URLs.General.Overview == "" {
		return "", errors.New("paddle response missing portal URL")
	}
	return out.URLs.General.Overview, nil
}

type paddleCheckoutItem struct {
	PriceID  string `json:"price_id,omitempty"`
	Price    any    `json:"price,omitempty"`
	Quantity int    `json:"quantity"`
}

type paddleCheckoutPayload struct {
	Items      []paddleCheckoutItem `json:"items"`
	CustomerID string               `json:"customer_id,omitempty"`
	CustomData map[string]string    `json:"custom_data,omitempty"`
}

type paddleNonCatalogPrice struct {
	Description string `json:"description"`
	ProductID   string `json:"product_id"`
	UnitPrice   struct {
		Amount       string `json:"amount"`
		CurrencyCode string `json:"currency_code"`
	} `json:"unit_price"`
}

// CreateCheckout creates a transaction for a catalog price and returns the
// hosted checkout URL. The local user id rides along in custom data so the
// transaction webhook can be attributed.
func (c *PaddleClient) CreateCheckout(ctx context.Context, customerID, priceID string, customData map[string]string) (string, error) {
	payload := paddleCheckoutPayload{
		Items:      []paddleCheckoutItem{{PriceID: priceID, Quantity: 1}},
		CustomerID: customerID,
		CustomData: customData,
	}
	return c.createTransaction(ctx, payload)
}

// CreateCreditCheckout creates a transaction with a non-catalog price for a
// credit pack. The credit-purchase marker in custom data is what routes the
// resulting transaction webhook into credit allocation.
func (c *PaddleClient) CreateCreditCheckout(ctx context.Context, customerID, productID string, creditType string, creditAmount, priceCents int, customData map[string]string) (string, error) {
	price := paddleNonCatalogPrice{
		Description: fmt.Sprintf("%d %s credits", creditAmount, creditType),
		ProductID:   productID,
	}
	price.UnitPrice.Amount = fmt.Sprintf("%d", priceCents)
	price.UnitPrice.CurrencyCode = "USD"

	payload := paddleCheckoutPayload{
		Items:      []paddleCheckoutItem{{Price: price, Quantity: 1}},
		CustomerID: customerID,
		CustomData: customData,
	}
	return c.createTransaction(ctx, payload)
}

func (c *PaddleClient) createTransaction(ctx context.Context, payload paddleCheckoutPayload) (string, error) {
	data, err := c.call(ctx, http.MethodPost, "/transactions", payload)
	if err != nil {
		return "", err
	}
	var out struct {
		Checkout struct {
			URL string `json:"url"`
		} `json:"checkout"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return "", err
	}
	if out.Checkout.URL == "" {
		return "", errors.New("paddle transaction created but no checkout URL found")
	}
	return out.Checkout.URL, nil
}

// PaddleAdapter translates Paddle webhook payloads into canonical events.
type PaddleAdapter struct {
	WebhookSecret string
}

func NewPaddleAdapter(cfg Config) *PaddleAdapter {
	return &PaddleAdapter{WebhookSecret: cfg.PaddleWebhookSecret}
}

func (a *PaddleAdapter) Provider() Provider {
	return ProviderPaddle
}

type paddleWebhookPayload struct {
	EventID    string `json:"event_id"`
	EventType  string `json:"event_type"`
	OccurredAt string `json:"occurred_at"`
	Data       struct {
		ID         string `json:"id"`
		CustomerID string `json:"customer_id"`
		Status     string `json:"status"`
		UpdatedAt  string `json:"updated_at"`
		Items      []struct {
			Price struct {
				ID string `json:"id"`
			} `json:"price"`
		} `json:"items"`
		CustomData map[string]string `json:"custom_data"`
	} `json:"data"`
}

func (a *PaddleAdapter) Parse(ctx context.Context, payload []byte, header HeaderGetter) (*BillingEvent, error) {
	if !VerifyPaddleWebhookSignature(payload, header("Paddle-Signature"), a.WebhookSecret) {
		return nil, ErrInvalidSignature
	}

	var raw paddleWebhookPayload
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("%w: paddle: %v", ErrMalformedPayload, err)
	}

	var kind EventKind
	switch raw.EventType {
	case "subscription.created":
		kind = KindSubscriptionCreated
	case "subscription.updated":
		kind = KindSubscriptionUpdated
	case "subscription.canceled":
		kind = KindSubscriptionCanceled
	case "transaction.completed":
		kind = KindTransactionCompleted
	default:
		return nil, fmt.Errorf("%w: paddle %s", ErrUnsupportedEvent, raw.EventType)
	}

	ev := &BillingEvent{
		Kind:       kind,
		Provider:   ProviderPaddle,
		EventID:    raw.EventID,
		EventType:  raw.EventType,
		CustomerID: raw.Data.CustomerID,
		PaymentID:  raw.Data.ID,
		Status:     strings.ToLower(strings.TrimSpace(raw.Data.Status)),
		OccurredAt: parseVendorTime(raw.Data.UpdatedAt, raw.OccurredAt),
	}
	if len(raw.Data.Items) > 0 {
		ev.PriceID = raw.Data.Items[0].Price.ID
	}

	if kind == KindTransactionCompleted {
		promoteCreditPurchase(ev, raw.Data.CustomData)
	}
	return ev, nil
}

// promoteCreditPurchase turns a transaction event into a credit purchase when
// the vendor custom data carries the credits marker.
func promoteCreditPurchase(ev *BillingEvent, customData map[string]string) {
	if customData == nil || customData["purchaseType"] != "credits" {
		return
	}
	ev.Kind = KindCreditPurchase
	ev.Metadata = map[string]string{
		MetaUserID:       customData["userId"],
		MetaCreditType:   customData["creditType"],
		MetaCreditAmount: customData["creditAmount"],
	}
}

func parseVendorTime(candidates ...string) time.Time {
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if ts, err := time.Parse(time.RFC3339, c); err == nil {
			return ts.UTC()
		}
	}
	return time.Time{}
}
