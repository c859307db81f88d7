package router

import (
	"github.com/gofiber/fiber/v2"
	gothfiber "github.com/shareed2k/goth_fiber"

	"github.com/launchkit/launchkit/app/controllers"
	"github.com/launchkit/launchkit/internal/pkg/middleware"
)

// registerPublicRoutes wires routes that deliberately sit outside the CSRF
// group: OAuth redirects driven by the vendor, and billing webhooks which
// authenticate via their own signatures.
func registerPublicRoutes(app *fiber.App) {
	// Social login
	app.Get("/auth/:provider", gothfiber.BeginAuthHandler)
	app.Get("/auth/:provider/callback", controllers.HandleOAuthCallback)

	app.Post("/logout", middleware.RequireAuth, controllers.HandleAuthLogout)

	// Billing provider webhooks (no CSRF, signature-verified in controller)
	app.Post("/webhooks/stripe", controllers.HandleStripeWebhook)
	app.Post("/webhooks/paddle", controllers.HandlePaddleWebhook)
	app.Post("/webhooks/dodo", controllers.HandleDodoWebhook)
	app.Post("/webhooks/paypal", controllers.HandlePayPalWebhook)
	app.Post("/webhooks/lemonsqueezy", controllers.HandleLemonSqueezyWebhook)
}
