package controllers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/launchkit/launchkit/internal/pkg/billing"
	"github.com/launchkit/launchkit/internal/pkg/metrics/counter"
)

// HandleStripeWebhook receives Stripe webhook deliveries.
func HandleStripeWebhook(c *fiber.Ctx) error {
	return handleBillingWebhook(c, billing.ProviderStripe)
}

// HandlePaddleWebhook receives Paddle webhook deliveries.
func HandlePaddleWebhook(c *fiber.Ctx) error {
	return handleBillingWebhook(c, billing.ProviderPaddle)
}

// HandleDodoWebhook receives Dodo Payments webhook deliveries.
func HandleDodoWebhook(c *fiber.Ctx) error {
	return handleBillingWebhook(c, billing.ProviderDodo)
}

// HandlePayPalWebhook receives PayPal webhook deliveries.
func HandlePayPalWebhook(c *fiber.Ctx) error {
	return handleBillingWebhook(c, billing.ProviderPayPal)
}

// HandleLemonSqueezyWebhook receives LemonSqueezy webhook deliveries.
func HandleLemonSqueezyWebhook(c *fiber.Ctx) error {
	return handleBillingWebhook(c, billing.ProviderLemonSqueezy)
}

// handleBillingWebhook feeds one delivery through the billing service.
// Status contract: 401 for a failed signature check, 400 for an
// authenticated but undecodable body, 200 for everything settled (including
// duplicates and unsupported events), 500 for transient errors so the vendor
// redelivers.
func handleBillingWebhook(c *fiber.Ctx, provider billing.Provider) error {
	ensureBilling()
	_ = counter.AddWebhookReceived(string(provider))

	rawBody := append([]byte(nil), c.BodyRaw()...)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	err := billingSvc.HandleWebhook(ctx, provider, rawBody, func(key string) string { return c.Get(key) })
	if err != nil {
		if errors.Is(err, billing.ErrInvalidSignature) {
			_ = counter.AddWebhookRejected(string(provider))
			log.Warnf("[Webhook] %s: rejected delivery with invalid signature", provider)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid_signature"})
		}
		if errors.Is(err, billing.ErrMalformedPayload) {
			_ = counter.AddWebhookRejected(string(provider))
			log.Warnf("[Webhook] %s: rejected undecodable delivery", provider)
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed_payload"})
		}
		_ = counter.AddWebhookFailed(string(provider))
		log.Errorf("[Webhook] %s: processing failed: %v", provider, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "processing_failed"})
	}

	_ = counter.AddWebhookProcessed(string(provider))
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"received": true})
}
