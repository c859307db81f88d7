package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/launchkit/launchkit/internal/pkg/middleware"
	"github.com/launchkit/launchkit/internal/pkg/oauth"
	"github.com/launchkit/launchkit/internal/pkg/session"
)

// NewHttpRouter registers all browser-facing routes.
func NewHttpRouter(app *fiber.App) {
	// Session store must exist before any route touches it
	session.NewSessionStore()

	// OAuth providers (Google, GitHub)
	oauth.Setup()

	// Resolve the logged-in user once per request
	app.Use(middleware.UserContextMiddleware)

	registerPublicRoutes(app)
	registerCSRFProtectedRoutes(app)
}
