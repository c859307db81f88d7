package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	icuser "github.com/launchkit/launchkit/internal/pkg/usercontext"
)

func adminTestApp(loggedIn, isAdmin bool) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(icuser.KeyFromProtected, loggedIn)
		c.Locals(icuser.KeyIsAdmin, isAdmin)
		return c.Next()
	})
	app.Get("/api/v1/admin/ping", RequireAPIAdmin, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	return app
}

func TestRequireAPIAdmin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		loggedIn   bool
		isAdmin    bool
		wantStatus int
	}{
		{"admin passes", true, true, fiber.StatusOK},
		{"plain user is forbidden", true, false, fiber.StatusForbidden},
		{"anonymous is forbidden", false, false, fiber.StatusForbidden},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			app := adminTestApp(tc.loggedIn, tc.isAdmin)
			resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/admin/ping", nil))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if resp.StatusCode != tc.wantStatus {
				t.Fatalf("expected status %d, got %d", tc.wantStatus, resp.StatusCode)
			}
		})
	}
}

func TestRequireAPISessionAuthRejectsAnonymous(t *testing.T) {
	t.Parallel()

	app := fiber.New()
	app.Get("/api/v1/me", RequireAPISessionAuth, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/me", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 for anonymous API request, got %d", resp.StatusCode)
	}
}
