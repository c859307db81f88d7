package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/launchkit/launchkit/app/controllers"
	"github.com/launchkit/launchkit/internal/pkg/middleware"
)

// NewApiRouter registers the JSON API under /api/v1. Authentication is the
// browser session; signature-authenticated webhooks live outside this group.
func NewApiRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New(limiter.Config{
		Max:        60,
		Expiration: 1 * time.Minute,
	}))

	v1 := api.Group("/v1", middleware.RequireAPISessionAuth)
	v1.Get("/user/account", controllers.HandleGetUserAccount)
	v1.Get("/credits", controllers.HandleGetCreditBalances)
	v1.Post("/uploads", controllers.HandleCreateUploadURL)
	v1.Post("/uploads/download-url", controllers.HandleCreateDownloadURL)

	admin := v1.Group("/admin", middleware.RequireAPIAdmin)
	admin.Get("/webhooks/counters", controllers.HandleWebhookCounters)
}
