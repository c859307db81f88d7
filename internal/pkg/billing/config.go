package billing

import (
	"strings"

	"github.com/launchkit/launchkit/internal/pkg/env"
)

// DefaultPortalPriority is the order in which providers are checked when
// resolving a customer portal for a user holding ids for several providers.
var DefaultPortalPriority = []Provider{
	ProviderDodo,
	ProviderPaddle,
	ProviderStripe,
	ProviderLemonSqueezy,
	ProviderPayPal,
}

// Config carries every billing setting as explicit values so components can
// be constructed deterministically in tests without touching the process
// environment.
type Config struct {
	AppURL        string
	DefaultPlanID string

	// PortalPriority orders the providers for portal resolution.
	PortalPriority []Provider

	StripeAPIKey        string
	StripeWebhookSecret string

	PaddleAPIKey        string
	PaddleWebhookSecret string
	PaddleAPIBaseURL    string

	DodoAPIKey        string
	DodoWebhookSecret string
	DodoAPIBaseURL    string

	PayPalClientID     string
	PayPalClientSecret string
	PayPalWebhookID    string
	PayPalAPIBaseURL   string

	LemonSqueezyWebhookSecret string
}

// ConfigFromEnv builds the billing configuration from environment variables.
func ConfigFromEnv() Config {
	appURL := strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", ""), "/")
	if appURL == "" {
		appURL = "http://localhost:" + env.GetEnv("APP_PORT", "4000")
	}

	priority := DefaultPortalPriority
	if raw := strings.TrimSpace(env.GetEnv("BILLING_PORTAL_PRIORITY", "")); raw != "" {
		priority = parsePortalPriority(raw)
	}

	return Config{
		AppURL:         appURL,
		DefaultPlanID:  env.GetEnv("BILLING_DEFAULT_PLAN", "free"),
		PortalPriority: priority,

		StripeAPIKey:        strings.TrimSpace(env.GetEnv("STRIPE_API_KEY", "")),
		StripeWebhookSecret: strings.TrimSpace(env.GetEnv("STRIPE_WEBHOOK_SECRET", "")),

		PaddleAPIKey:        strings.TrimSpace(env.GetEnv("PADDLE_API_KEY", "")),
		PaddleWebhookSecret: strings.TrimSpace(env.GetEnv("PADDLE_WEBHOOK_SECRET", "")),
		PaddleAPIBaseURL:    strings.TrimSpace(env.GetEnv("PADDLE_API_BASE_URL", "https://api.paddle.com")),

		DodoAPIKey:        strings.TrimSpace(env.GetEnv("DODO_API_KEY", "")),
		DodoWebhookSecret: strings.TrimSpace(env.GetEnv("DODO_WEBHOOK_SECRET", "")),
		DodoAPIBaseURL:    strings.TrimSpace(env.GetEnv("DODO_API_BASE_URL", "https://live.dodopayments.com")),

		PayPalClientID:     strings.TrimSpace(env.GetEnv("PAYPAL_CLIENT_ID", "")),
		PayPalClientSecret: strings.TrimSpace(env.GetEnv("PAYPAL_CLIENT_SECRET", "")),
		PayPalWebhookID:    strings.TrimSpace(env.GetEnv("PAYPAL_WEBHOOK_ID", "")),
		PayPalAPIBaseURL:   strings.TrimSpace(env.GetEnv("PAYPAL_API_BASE_URL", "https://api-m.paypal.com")),

		LemonSqueezyWebhookSecret: strings.TrimSpace(env.GetEnv("LEMONSQUEEZY_WEBHOOK_SECRET", "")),
	}
}

func parsePortalPriority(raw string) []Provider {
	var out []Provider
	for _, part := range strings.Split(raw, ",") {
		switch Provider(strings.ToLower(strings.TrimSpace(part))) {
		case ProviderStripe:
			out = append(out, ProviderStripe)
		case ProviderPaddle:
			out = append(out, ProviderPaddle)
		case ProviderDodo:
			out = append(out, ProviderDodo)
		case ProviderPayPal:
			out = append(out, ProviderPayPal)
		case ProviderLemonSqueezy:
			out = append(out, ProviderLemonSqueezy)
		}
	}
	if len(out) == 0 {
		return DefaultPortalPriority
	}
	return out
}
