package controllers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"

	"github.com/launchkit/launchkit/internal/pkg/billing"
)

func newWebhookTestApp() *fiber.App {
	cfg := billing.Config{LemonSqueezyWebhookSecret: "ls-secret"}
	svc := billing.NewService(nil, nil, billing.NewLemonSqueezyAdapter(cfg))
	SetBillingForTest(cfg, nil, svc, nil, nil)

	app := fiber.New()
	app.Post("/webhooks/lemonsqueezy", HandleLemonSqueezyWebhook)
	app.Post("/webhooks/stripe", HandleStripeWebhook)
	return app
}

func signLemonSqueezy(body, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestHandleBillingWebhook_StatusContract(t *testing.T) {
	app := newWebhookTestApp()
	body := `{"meta":{"event_name":"order_created"},"data":{}}`

	tests := []struct {
		name       string
		signature  string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "missing signature is rejected",
			signature:  "",
			wantStatus: fiber.StatusUnauthorized,
			wantBody:   "invalid_signature",
		},
		{
			name:       "forged signature is rejected",
			signature:  signLemonSqueezy(body, "wrong-secret"),
			wantStatus: fiber.StatusUnauthorized,
			wantBody:   "invalid_signature",
		},
		{
			name:       "authenticated delivery is acknowledged",
			signature:  signLemonSqueezy(body, "ls-secret"),
			wantStatus: fiber.StatusOK,
			wantBody:   "received",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/webhooks/lemonsqueezy", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			if tc.signature != "" {
				req.Header.Set("X-Signature", tc.signature)
			}

			resp, err := app.Test(req)
			assert.NoError(t, err)
			assert.Equal(t, tc.wantStatus, resp.StatusCode)

			respBody, err := io.ReadAll(resp.Body)
			assert.NoError(t, err)
			assert.Contains(t, string(respBody), tc.wantBody)
		})
	}
}

func TestHandleBillingWebhook_MalformedBodyAnswersBadRequest(t *testing.T) {
	app := newWebhookTestApp()
	body := `{not json`

	req := httptest.NewRequest("POST", "/webhooks/lemonsqueezy", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Signature", signLemonSqueezy(body, "ls-secret"))

	resp, err := app.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	respBody, err := io.ReadAll(resp.Body)
	assert.NoError(t, err)
	assert.Contains(t, string(respBody), "malformed_payload")
}

func TestHandleBillingWebhook_UnconfiguredProviderAnswersServerError(t *testing.T) {
	app := newWebhookTestApp()

	req := httptest.NewRequest("POST", "/webhooks/stripe", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	respBody, err := io.ReadAll(resp.Body)
	assert.NoError(t, err)
	assert.Contains(t, string(respBody), "processing_failed")
}
