package controllers

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/launchkit/launchkit/app/models"
	"github.com/launchkit/launchkit/internal/pkg/billing"
	"github.com/launchkit/launchkit/internal/pkg/usercontext"
)

// portalStubStore serves exactly one user and knows nothing else.
type portalStubStore struct {
	user *models.User
}

func (s *portalStubStore) GetUserByID(ctx context.Context, userID uint) (*models.User, error) {
	if s.user != nil && s.user.ID == userID {
		return s.user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *portalStubStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *portalStubStore) GetUserByProviderCustomerID(ctx context.Context, provider billing.Provider, customerID string) (*models.User, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *portalStubStore) GetUserByProviderSubscriptionID(ctx context.Context, provider billing.Provider, subscriptionID string) (*models.User, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *portalStubStore) CreateUser(ctx context.Context, user *models.User) error { return nil }

func (s *portalStubStore) SetProviderCustomerID(ctx context.Context, userID uint, provider billing.Provider, customerID string) error {
	return nil
}

func (s *portalStubStore) SetProviderSubscriptionID(ctx context.Context, userID uint, provider billing.Provider, subscriptionID string) error {
	return nil
}

func (s *portalStubStore) SetUserPlan(ctx context.Context, userID uint, planID string) error {
	return nil
}

func (s *portalStubStore) GetPlan(ctx context.Context, planID string) (*models.Plan, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *portalStubStore) GetPlanByPriceID(ctx context.Context, provider billing.Provider, priceID string) (*models.Plan, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *portalStubStore) HasPayPalContext(ctx context.Context, userID uint) (bool, error) {
	return false, nil
}

func (s *portalStubStore) UpsertPayPalContext(ctx context.Context, userID uint, orderID, subscriptionID, status string) error {
	return nil
}

func (s *portalStubStore) CreateWebhookEventIfNotExists(ctx context.Context, event *models.BillingWebhookEvent) (bool, error) {
	return true, nil
}

func (s *portalStubStore) GetWebhookEvent(ctx context.Context, provider billing.Provider, providerEventID string) (*models.BillingWebhookEvent, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *portalStubStore) MarkWebhookProcessed(ctx context.Context, provider billing.Provider, providerEventID string, processingError string) error {
	return nil
}

func TestHandleBillingPortal_WithoutSubscriptionReturnsNotice(t *testing.T) {
	cfg := billing.Config{
		AppURL:         "https://launchkit.test",
		PortalPriority: billing.DefaultPortalPriority,
	}
	store := &portalStubStore{user: &models.User{ID: 1, Email: "kunde@example.com", PlanID: "free"}}
	SetBillingForTest(cfg, store, nil, billing.NewPortalResolver(store, nil, cfg), nil)

	app := fiber.New()
	app.Get("/app/billing", func(c *fiber.Ctx) error {
		c.Locals(usercontext.KeyUserContext, usercontext.UserContext{UserID: 1, IsLoggedIn: true})
		return HandleBillingPortal(c)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/app/billing", nil))
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	respBody, err := io.ReadAll(resp.Body)
	assert.NoError(t, err)
	assert.Contains(t, string(respBody), "You are not subscribed to any plan.")
}
