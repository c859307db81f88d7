package controllers

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/sujit-baniya/flash"

	"github.com/launchkit/launchkit/app/models"
	"github.com/launchkit/launchkit/internal/pkg/billing"
	"github.com/launchkit/launchkit/internal/pkg/credits"
	"github.com/launchkit/launchkit/internal/pkg/database"
	"github.com/launchkit/launchkit/internal/pkg/usercontext"
)

// HandleBillingPortal redirects the user to their payment provider's hosted
// portal. The provider is picked by the configured priority order; users
// without any provider link get a JSON notice instead of a redirect.
func HandleBillingPortal(c *fiber.Ctx) error {
	ensureBilling()
	userCtx := usercontext.GetUserContext(c)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	user, err := billingStore.GetUserByID(ctx, userCtx.UserID)
	if err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Konto konnte nicht geladen werden"}).Redirect("/app")
	}

	url, err := billingPortal.Resolve(ctx, user)
	if err != nil {
		if errors.Is(err, billing.ErrNoActiveSubscription) {
			return c.JSON(fiber.Map{"message": "You are not subscribed to any plan."})
		}
		log.Errorf("[Billing] Portal resolution for user %d failed: %v", userCtx.UserID, err)
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Abrechnungsportal ist gerade nicht erreichbar"}).Redirect("/app")
	}

	return c.Redirect(url, fiber.StatusSeeOther)
}

// HandleBillingPayPal renders the in-app PayPal billing page. PayPal offers
// no vendor-hosted customer portal.
func HandleBillingPayPal(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var contexts []models.PayPalContext
	if err := database.GetDB().Where("user_id = ?", userCtx.UserID).Order("updated_at DESC").Find(&contexts).Error; err != nil {
		contexts = nil
	}

	return c.Render("app/billing_paypal", fiber.Map{
		"Title":         " | PayPal Abrechnung",
		"FromProtected": true,
		"Username":      userCtx.Username,
		"IsAdmin":       userCtx.IsAdmin,
		"Plan":          userCtx.Plan,
		"Contexts":      contexts,
		"Flash":         flash.Get(c),
	}, "layouts/main")
}

// HandleCheckoutPlan starts a plan checkout and redirects to the vendor's
// hosted checkout page.
// Form: plan_id, provider, interval (monthly|yearly|onetime)
func HandleCheckoutPlan(c *fiber.Ctx) error {
	ensureBilling()
	userCtx := usercontext.GetUserContext(c)

	planID := c.FormValue("plan_id")
	provider := billing.Provider(c.FormValue("provider"))
	interval, err := billing.ParseInterval(c.FormValue("interval"))
	if planID == "" || err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Ungültige Checkout-Anfrage"}).Redirect("/pricing")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	user, err := billingStore.GetUserByID(ctx, userCtx.UserID)
	if err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Konto konnte nicht geladen werden"}).Redirect("/pricing")
	}

	url, err := billingCheckout.CreatePlanCheckout(ctx, user, planID, provider, interval)
	if err != nil {
		log.Errorf("[Billing] Plan checkout for user %d failed: %v", userCtx.UserID, err)
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Checkout konnte nicht gestartet werden"}).Redirect("/pricing")
	}

	return c.Redirect(url, fiber.StatusSeeOther)
}

// HandleCheckoutCredits starts a credit pack checkout.
// Form: provider, product_id, credit_type, amount, price_cents
func HandleCheckoutCredits(c *fiber.Ctx) error {
	ensureBilling()
	userCtx := usercontext.GetUserContext(c)

	provider := billing.Provider(c.FormValue("provider"))
	productID := c.FormValue("product_id")
	creditType, err := credits.ParseType(c.FormValue("credit_type"))
	if err != nil || productID == "" {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Ungültige Checkout-Anfrage"}).Redirect("/app")
	}
	amount, err := credits.ParseAmount(c.FormValue("amount"))
	if err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Ungültige Credit-Anzahl"}).Redirect("/app")
	}
	priceCents, _ := strconv.Atoi(c.FormValue("price_cents"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	user, err := billingStore.GetUserByID(ctx, userCtx.UserID)
	if err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Konto konnte nicht geladen werden"}).Redirect("/app")
	}

	url, err := billingCheckout.CreateCreditCheckout(ctx, user, provider, productID, creditType, amount, priceCents)
	if err != nil {
		log.Errorf("[Billing] Credit checkout for user %d failed: %v", userCtx.UserID, err)
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Checkout konnte nicht gestartet werden"}).Redirect("/app")
	}

	return c.Redirect(url, fiber.StatusSeeOther)
}

// HandleGetCreditBalances returns the authenticated user's credit balances.
func HandleGetCreditBalances(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	ledger := credits.NewLedgerFromDB(database.GetDB())
	balances := fiber.Map{}
	for _, t := range credits.AllTypes {
		balance, err := ledger.Balance(context.Background(), userCtx.UserID, t)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error"})
		}
		balances[string(t)] = balance
	}

	return c.JSON(fiber.Map{"balances": balances})
}
