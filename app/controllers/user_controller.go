package controllers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/launchkit/launchkit/app/models"
	"github.com/launchkit/launchkit/internal/pkg/credits"
	"github.com/launchkit/launchkit/internal/pkg/database"
	"github.com/launchkit/launchkit/internal/pkg/usercontext"
	"github.com/launchkit/launchkit/internal/pkg/utils"
)

func HandleUserProfile(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var user models.User
	if err := database.GetDB().First(&user, userCtx.UserID).Error; err != nil {
		flash.WithError(c, fiber.Map{"message": "User not found"})
		return c.Redirect("/app")
	}

	var plan models.Plan
	if err := database.GetDB().Where("id = ?", user.PlanID).First(&plan).Error; err != nil {
		plan = models.Plan{ID: user.PlanID, Name: user.PlanID}
	}

	ledger := credits.NewLedgerFromDB(database.GetDB())
	balances := map[string]int{}
	for _, t := range credits.AllTypes {
		balance, err := ledger.Balance(context.Background(), user.ID, t)
		if err != nil {
			balance = 0
		}
		balances[string(t)] = balance
	}

	avatarURL := user.AvatarURL
	if avatarURL == "" {
		avatarURL = utils.GetGravatarURL(user.Email, 200)
	}

	return c.Render("user/profile", fiber.Map{
		"Title":         " | Profil",
		"FromProtected": true,
		"Username":      userCtx.Username,
		"IsAdmin":       userCtx.IsAdmin,
		"User":          user,
		"AvatarURL":     avatarURL,
		"Plan":          plan,
		"Balances":      balances,
		"Flash":         flash.Get(c),
		"Csrf":          csrfToken(c),
	}, "layouts/main")
}

func HandleUserSettings(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	return c.Render("user/settings", fiber.Map{
		"Title":         " | Einstellungen",
		"FromProtected": true,
		"Username":      userCtx.Username,
		"IsAdmin":       userCtx.IsAdmin,
		"Plan":          userCtx.Plan,
		"Flash":         flash.Get(c),
		"Csrf":          csrfToken(c),
	}, "layouts/main")
}

// HandleUserSettingsUpdate processes the settings form (display name and
// password change).
func HandleUserSettingsUpdate(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var user models.User
	if err := database.GetDB().First(&user, userCtx.UserID).Error; err != nil {
		flash.WithError(c, fiber.Map{"type": "error", "message": "User not found"})
		return c.Redirect("/app")
	}

	if name := c.FormValue("name"); name != "" && name != user.Name {
		user.Name = name
	}

	if newPassword := c.FormValue("new_password"); newPassword != "" {
		if !user.CheckPassword(c.FormValue("current_password")) {
			flash.WithError(c, fiber.Map{"type": "error", "message": "Aktuelles Passwort ist falsch"})
			return c.Redirect("/user/settings")
		}
		if err := user.SetPassword(newPassword); err != nil {
			flash.WithError(c, fiber.Map{"type": "error", "message": "Passwort konnte nicht gesetzt werden"})
			return c.Redirect("/user/settings")
		}
	}

	if err := database.GetDB().Save(&user).Error; err != nil {
		flash.WithError(c, fiber.Map{"type": "error", "message": "Einstellungen konnten nicht gespeichert werden"})
		return c.Redirect("/user/settings")
	}

	flash.WithSuccess(c, fiber.Map{"type": "success", "message": "Einstellungen gespeichert"})
	return c.Redirect("/user/settings")
}
