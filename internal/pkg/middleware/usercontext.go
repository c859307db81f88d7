package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/launchkit/launchkit/app/models"
	"github.com/launchkit/launchkit/internal/pkg/database"
	"github.com/launchkit/launchkit/internal/pkg/session"
	"github.com/launchkit/launchkit/internal/pkg/usercontext"
)

// Session keys written by the auth controller and read here.
const (
	SessionKeyAuth     = "authenticated"
	SessionKeyUserID   = "user_id"
	SessionKeyUserName = "username"
	SessionKeyIsAdmin  = "isAdmin"
	SessionKeyPlan     = "user_plan"
)

// UserContextMiddleware sets up the complete user context for every request.
// This centralizes user session handling and eliminates code duplication.
func UserContextMiddleware(c *fiber.Ctx) error {
	// Avoid interfering with Goth/Fiber session handling on OAuth routes.
	// Goth uses its own fiber session store and relies on per-request locals.
	if strings.HasPrefix(c.Path(), "/auth/") {
		return c.Next()
	}

	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		return setAnonymous(c)
	}

	userID := sess.Get(SessionKeyUserID)
	if userID == nil {
		return setAnonymous(c)
	}

	username := session.GetSessionValue(c, SessionKeyUserName)
	isAdmin := sess.Get(SessionKeyIsAdmin)

	// Plan with session-first strategy, DB fallback.
	plan := session.GetSessionValue(c, SessionKeyPlan)
	if plan == "" {
		plan = "free"
		if db := database.GetDB(); db != nil {
			var user models.User
			if err := db.First(&user, userID.(uint)).Error; err == nil && user.PlanID != "" {
				plan = user.PlanID
			}
		}
		_ = session.SetSessionValue(c, SessionKeyPlan, plan)
	}

	userCtx := usercontext.UserContext{
		UserID:     userID.(uint),
		Username:   username,
		IsLoggedIn: true,
		IsAdmin:    isAdmin != nil && isAdmin.(bool),
		Plan:       plan,
	}
	c.Locals(usercontext.KeyUserContext, userCtx)
	c.Locals(usercontext.KeyFromProtected, true)
	c.Locals(usercontext.KeyIsAdmin, userCtx.IsAdmin)

	return c.Next()
}

func setAnonymous(c *fiber.Ctx) error {
	c.Locals(usercontext.KeyUserContext, usercontext.UserContext{
		IsLoggedIn: false,
		IsAdmin:    false,
	})
	c.Locals(usercontext.KeyFromProtected, false)
	c.Locals(usercontext.KeyIsAdmin, false)
	return c.Next()
}
