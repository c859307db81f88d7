package router

import (
	"github.com/gofiber/fiber/v2"
)

// InstallRouter wires up all HTTP and API routes on the app.
func InstallRouter(app *fiber.App) {
	NewHttpRouter(app)
	NewApiRouter(app)
}
