package router

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/csrf"

	"github.com/launchkit/launchkit/app/controllers"
	"github.com/launchkit/launchkit/internal/pkg/env"
	"github.com/launchkit/launchkit/internal/pkg/middleware"
)

// registerCSRFProtectedRoutes wires all form-bearing browser routes behind
// the CSRF middleware. JSON API routes are excluded; they use session auth
// without cookies-as-credentials semantics.
func registerCSRFProtectedRoutes(app *fiber.App) {
	csrfConf := csrf.Config{
		KeyLookup:      "form:_csrf",
		ContextKey:     "csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		Expiration:     1 * time.Hour,
		CookieSecure:   !env.IsDev(),
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/api/")
		},
	}

	group := app.Group("", cors.New(), csrf.New(csrfConf))

	// Public pages
	group.Get("/", controllers.HandleHome)
	group.Get("/pricing", controllers.HandlePricing)

	// Auth
	group.Get("/login", controllers.HandleAuthLogin)
	group.Post("/login", controllers.HandleAuthLogin)
	group.Get("/register", controllers.HandleAuthRegister)
	group.Post("/register", controllers.HandleAuthRegister)
	group.Get("/activate", controllers.HandleAuthActivate)

	// App (login required)
	group.Get("/app", middleware.RequireAuth, controllers.HandleDashboard)
	group.Get("/app/billing", middleware.RequireAuth, controllers.HandleBillingPortal)
	group.Get("/app/billing/paypal", middleware.RequireAuth, controllers.HandleBillingPayPal)
	group.Post("/app/checkout", middleware.RequireAuth, controllers.HandleCheckoutPlan)
	group.Post("/app/checkout/credits", middleware.RequireAuth, controllers.HandleCheckoutCredits)

	// User area
	group.Get("/user/profile", middleware.RequireAuth, controllers.HandleUserProfile)
	group.Get("/user/settings", middleware.RequireAuth, controllers.HandleUserSettings)
	group.Post("/user/settings", middleware.RequireAuth, controllers.HandleUserSettingsUpdate)
}
