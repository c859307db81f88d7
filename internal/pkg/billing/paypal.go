package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// PayPalClient is a minimal client for the PayPal REST API. Access tokens
// from the client-credentials grant are cached until shortly before expiry.
type PayPalClient struct {
	ClientID     string
	ClientSecret string
	BaseURL      string
	HTTPClient   *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewPayPalClient creates a PayPal API client from explicit configuration.
func NewPayPalClient(cfg Config) *PayPalClient {
	base := strings.TrimRight(cfg.PayPalAPIBaseURL, "/")
	if base == "" {
		base = "https://api-m.paypal.com"
	}
	return &PayPalClient{
		ClientID:     cfg.PayPalClientID,
		ClientSecret: cfg.PayPalClientSecret,
		BaseURL:      base,
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (c *PayPalClient) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}
	if c.ClientID == "" || c.ClientSecret == "" {
		return "", errors.New("paypal credentials are not configured")
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.ClientID, c.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("paypal token error (%d): %s", resp.StatusCode, string(body))
	}

	var out struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", err
	}
	if out.AccessToken == "" {
		return "", errors.New("paypal token response missing access_token")
	}

	c.accessToken = out.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(out.ExpiresIn)*time.Second - time.Minute)
	return c.accessToken, nil
}

func (c *PayPalClient) call(ctx context.Context, method, path string, payload any) (json.RawMessage, error) {
	tok, err := c.token(ctx)
	if err != nil {
		return nil, err
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
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("paypal API error (%d): %s", resp.StatusCode, string(respBody))
	}
	return respBody, nil
}

// VerifyWebhookSignature asks PayPal to verify an inbound webhook delivery.
// PayPal does not use a shared-secret HMAC; verification is an API call with
// the transmission headers and the raw event.
func (c *PayPalClient) VerifyWebhookSignature(ctx context.Context, webhookID string, payload []byte, header HeaderGetter) (bool, error) {
	if webhookID == "" {
		return false, errors.New("paypal webhook id is not configured")
	}

	body := map[string]any{
		"auth_algo":         header("Paypal-Auth-Algo"),
		"cert_url":          header("Paypal-Cert-Url"),
		"transmission_id":   header("Paypal-Transmission-Id"),
		"transmission_sig":  header("Paypal-Transmission-Sig"),
		"transmission_time": header("Paypal-Transmission-Time"),
		"webhook_id":        webhookID,
		"webhook_event":     json.RawMessage(payload),
	}
	data, err := c.call(ctx, http.MethodPost, "/v1/notifications/verify-webhook-signature", body)
	if err != nil {
		return false, err
	}

	var out struct {
		VerificationStatus string `json:"verification_status"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return false, err
	}
	return out.VerificationStatus == "SUCCESS", nil
}

// CreateSubscription creates a subscription for a PayPal billing plan and
// returns the approval URL the buyer is redirected to. The custom id carries
// the local user id for webhook attribution.
func (c *PayPalClient) CreateSubscription(ctx context.Context, planID, customID, returnURL, cancelURL string) (string, error) {
	payload := map[string]any{
		"plan_id":   planID,
		"custom_id": customID,
		"application_context": map[string]any{
			"return_url": returnURL,
			"cancel_url": cancelURL,
		},
	}
	data, err := c.call(ctx, http.MethodPost, "/v1/billing/subscriptions", payload)
	if err != nil {
		return "", err
	}

	var out struct {
		Links []struct {
			Href string `json:"href"`
			Rel  string `json:"rel"`
		} `json:"links"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return "", err
	}
	for _, link := range out.Links {
		if link.Rel == "approve" {
			return link.Href, nil
		}
	}
	return "", errors.New("paypal subscription created but no approval link found")
}

// webhookVerifier is what the adapter needs from the PayPal client; split out
// so tests can stub the verification call.
type webhookVerifier interface {
	VerifyWebhookSignature(ctx context.Context, webhookID string, payload []byte, header HeaderGetter) (bool, error)
}

// PayPalAdapter translates PayPal webhook payloads into canonical events.
type PayPalAdapter struct {
	WebhookID string
	Verifier  webhookVerifier
}

func NewPayPalAdapter(cfg Config, client *PayPalClient) *PayPalAdapter {
	return &PayPalAdapter{WebhookID: cfg.PayPalWebhookID, Verifier: client}
}

func (a *PayPalAdapter) Provider() Provider {
	return ProviderPayPal
}

type paypalWebhookPayload struct {
	ID         string `json:"id"`
	EventType  string `json:"event_type"`
	CreateTime string `json:"create_time"`
	Resource   struct {
		ID         string `json:"id"`
		PlanID     string `json:"plan_id"`
		Status     string `json:"status"`
		CustomID   string `json:"custom_id"`
		Custom     string `json:"custom"`
		Subscriber struct {
			PayerID      string `json:"payer_id"`
			EmailAddress string `json:"email_address"`
		} `json:"subscriber"`
		BillingAgreementID string `json:"billing_agreement_id"`
	} `json:"resource"`
}

func (a *PayPalAdapter) Parse(ctx context.Context, payload []byte, header HeaderGetter) (*BillingEvent, error) {
	ok, err := a.Verifier.VerifyWebhookSignature(ctx, a.WebhookID, payload, header)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if !ok {
		return nil, ErrInvalidSignature
	}

	var raw paypalWebhookPayload
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("%w: paypal: %v", ErrMalformedPayload, err)
	}

	var kind EventKind
	switch raw.EventType {
	case "BILLING.SUBSCRIPTION.ACTIVATED":
		kind = KindSubscriptionCreated
	case "BILLING.SUBSCRIPTION.UPDATED":
		kind = KindSubscriptionUpdated
	case "BILLING.SUBSCRIPTION.CANCELLED", "BILLING.SUBSCRIPTION.EXPIRED", "BILLING.SUBSCRIPTION.SUSPENDED":
		kind = KindSubscriptionCanceled
	case "PAYMENT.SALE.COMPLETED":
		kind = KindTransactionCompleted
	default:
		return nil, fmt.Errorf("%w: paypal %s", ErrUnsupportedEvent, raw.EventType)
	}

	ev := &BillingEvent{
		Kind:          kind,
		Provider:      ProviderPayPal,
		EventID:       raw.ID,
		EventType:     raw.EventType,
		CustomerID:    raw.Resource.Subscriber.PayerID,
		PriceID:       raw.Resource.PlanID,
		PaymentID:     raw.Resource.ID,
		Status:        normalizePayPalStatus(kind, raw.Resource.Status),
		CustomerEmail: raw.Resource.Subscriber.EmailAddress,
		OccurredAt:    parseVendorTime(raw.CreateTime),
	}

	// Payment events reference their subscription via billing_agreement_id.
	if kind == KindTransactionCompleted && raw.Resource.BillingAgreementID != "" {
		ev.Metadata = map[string]string{"subscriptionId": raw.Resource.BillingAgreementID}
	}

	// PayPal carries custom data as a JSON string in custom_id (custom on
	// sale resources).
	customRaw := raw.Resource.CustomID
	if customRaw == "" {
		customRaw = raw.Resource.Custom
	}
	if customRaw != "" {
		var custom map[string]string
		if err := json.Unmarshal([]byte(customRaw), &custom); err == nil {
			promoteCreditPurchase(ev, custom)
			if ev.Kind != KindCreditPurchase && custom[MetaUserID] != "" {
				if ev.Metadata == nil {
					ev.Metadata = map[string]string{}
				}
				ev.Metadata[MetaUserID] = custom[MetaUserID]
			}
		} else if ev.Kind != KindCreditPurchase {
			// Plain user id without the JSON envelope.
			if ev.Metadata == nil {
				ev.Metadata = map[string]string{}
			}
			ev.Metadata[MetaUserID] = customRaw
		}
	}
	return ev, nil
}

func normalizePayPalStatus(kind EventKind, status string) string {
	if kind == KindSubscriptionCanceled {
		return "canceled"
	}
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case "ACTIVE", "APPROVED":
		return "active"
	case "COMPLETED":
		return "completed"
	case "CANCELLED", "CANCELED", "EXPIRED", "SUSPENDED":
		return "canceled"
	default:
		return strings.ToLower(strings.TrimSpace(status))
	}
}
