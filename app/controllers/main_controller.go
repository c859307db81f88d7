package controllers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/launchkit/launchkit/app/models"
	"github.com/launchkit/launchkit/internal/pkg/credits"
	"github.com/launchkit/launchkit/internal/pkg/database"
	"github.com/launchkit/launchkit/internal/pkg/env"
	"github.com/launchkit/launchkit/internal/pkg/statistics"
	"github.com/launchkit/launchkit/internal/pkg/usercontext"
)

func HandleHome(c *fiber.Ctx) error {
	stats := statistics.GetStatisticsData()

	return c.Render("home", fiber.Map{
		"Title":         "",
		"FromProtected": isLoggedIn(c),
		"Username":      ExtractUsername(c),
		"Flash":         flash.Get(c),
		"IsDev":         env.IsDev(),
		"TotalUsers":    stats.TotalUsers,
		"PayingUsers":   stats.PayingUsers,
	}, "layouts/main")
}

// HandlePricing renders the public pricing page with all active plans.
func HandlePricing(c *fiber.Ctx) error {
	var plans []models.Plan
	if err := database.GetDB().Where("is_active = ?", true).Order("price_cents ASC").Find(&plans).Error; err != nil {
		plans = nil
	}

	return c.Render("pricing", fiber.Map{
		"Title":         " | Preise",
		"FromProtected": isLoggedIn(c),
		"Username":      ExtractUsername(c),
		"Flash":         flash.Get(c),
		"Plans":         plans,
		"Csrf":          csrfToken(c),
	}, "layouts/main")
}

// HandleDashboard renders the logged-in start page with the user's plan and
// credit balances.
func HandleDashboard(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	ledger := credits.NewLedgerFromDB(database.GetDB())
	balances := map[string]int{}
	for _, t := range credits.AllTypes {
		balance, err := ledger.Balance(context.Background(), userCtx.UserID, t)
		if err != nil {
			balance = 0
		}
		balances[string(t)] = balance
	}

	return c.Render("app/dashboard", fiber.Map{
		"Title":         " | Dashboard",
		"FromProtected": true,
		"Username":      userCtx.Username,
		"IsAdmin":       userCtx.IsAdmin,
		"Plan":          userCtx.Plan,
		"Balances":      balances,
		"Flash":         flash.Get(c),
		"Csrf":          csrfToken(c),
	}, "layouts/main")
}
