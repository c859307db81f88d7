package billing

import (
	"context"
	"encoding/json"
	"fmt"
)

// LemonSqueezyAdapter verifies LemonSqueezy webhook signatures and rejects
// every event as unsupported. The endpoint and signature scheme are wired so
// the provider can be activated later without touching the webhook plumbing.
type LemonSqueezyAdapter struct {
	WebhookSecret string
}

func NewLemonSqueezyAdapter(cfg Config) *LemonSqueezyAdapter {
	return &LemonSqueezyAdapter{WebhookSecret: cfg.LemonSqueezyWebhookSecret}
}

func (a *LemonSqueezyAdapter) Provider() Provider {
	return ProviderLemonSqueezy
}

func (a *LemonSqueezyAdapter) Parse(ctx context.Context, payload []byte, header HeaderGetter) (*BillingEvent, error) {
	if !VerifyLemonSqueezyWebhookSignature(payload, header("X-Signature"), a.WebhookSecret) {
		return nil, ErrInvalidSignature
	}

	var raw struct {
		Meta struct {
			EventName string `json:"event_name"`
		} `json:"meta"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("%w: lemonsqueezy: %v", ErrMalformedPayload, err)
	}
	return nil, fmt.Errorf("%w: lemonsqueezy %s", ErrUnsupportedEvent, raw.Meta.EventName)
}
