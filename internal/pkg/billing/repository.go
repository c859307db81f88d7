package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/launchkit/launchkit/app/models"
	"github.com/launchkit/launchkit/internal/pkg/database"
)

// Store is the persistence surface the billing service needs. Implemented by
// gormStore; tests swap in an in-memory fake.
type Store interface {
	GetUserByID(ctx context.Context, userID uint) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByProviderCustomerID(ctx context.Context, provider Provider, customerID string) (*models.User, error)
	GetUserByProviderSubscriptionID(ctx context.Context, provider Provider, subscriptionID string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	SetProviderCustomerID(ctx context.Context, userID uint, provider Provider, customerID string) error
	SetProviderSubscriptionID(ctx context.Context, userID uint, provider Provider, subscriptionID string) error
	SetUserPlan(ctx context.Context, userID uint, planID string) error

	GetPlan(ctx context.Context, planID string) (*models.Plan, error)
	GetPlanByPriceID(ctx context.Context, provider Provider, priceID string) (*models.Plan, error)

	HasPayPalContext(ctx context.Context, userID uint) (bool, error)
	UpsertPayPalContext(ctx context.Context, userID uint, orderID, subscriptionID, status string) error

	CreateWebhookEventIfNotExists(ctx context.Context, event *models.BillingWebhookEvent) (bool, error)
	GetWebhookEvent(ctx context.Context, provider Provider, providerEventID string) (*models.BillingWebhookEvent, error)
	MarkWebhookProcessed(ctx context.Context, provider Provider, providerEventID string, processingError string) error
}

type gormStore struct {
	db *gorm.DB
}

// NewStore creates a Store backed by the given GORM handle.
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// NewStoreFromDB creates a Store on the global database connection.
func NewStoreFromDB() Store {
	return NewStore(database.GetDB())
}

func customerColumn(provider Provider) (string, error) {
	switch provider {
	case ProviderStripe:
		return "stripe_customer_id", nil
	case ProviderPaddle:
		return "paddle_customer_id", nil
	case ProviderDodo:
		return "dodo_customer_id", nil
	case ProviderPayPal:
		return "paypal_customer_id", nil
	case ProviderLemonSqueezy:
		return "lemon_squeezy_customer_id", nil
	}
	return "", fmt.Errorf("unknown billing provider: %s", provider)
}

func subscriptionColumn(provider Provider) (string, error) {
	switch provider {
	case ProviderStripe:
		return "stripe_subscription_id", nil
	case ProviderPaddle:
		return "paddle_subscription_id", nil
	case ProviderDodo:
		return "dodo_subscription_id", nil
	case ProviderPayPal:
		return "paypal_subscription_id", nil
	}
	return "", fmt.Errorf("provider %s has no subscription column", provider)
}

// priceColumns returns the plan columns holding the provider's price ids, in
// lookup order: monthly before yearly before one-time.
func priceColumns(provider Provider) ([]string, error) {
	switch provider {
	case ProviderStripe:
		return []string{"stripe_monthly_price_id", "stripe_yearly_price_id", "stripe_onetime_price_id"}, nil
	case ProviderPaddle:
		return []string{"paddle_monthly_price_id", "paddle_yearly_price_id", "paddle_onetime_price_id"}, nil
	case ProviderDodo:
		return []string{"dodo_monthly_price_id", "dodo_yearly_price_id", "dodo_onetime_price_id"}, nil
	case ProviderPayPal:
		return []string{"paypal_plan_id"}, nil
	case ProviderLemonSqueezy:
		return []string{"lemon_squeezy_variant"}, nil
	}
	return nil, fmt.Errorf("unknown billing provider: %s", provider)
}

func (s *gormStore) GetUserByID(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *gormStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *gormStore) GetUserByProviderCustomerID(ctx context.Context, provider Provider, customerID string) (*models.User, error) {
	col, err := customerColumn(provider)
	if err != nil {
		return nil, err
	}
	if customerID == "" {
		return nil, gorm.ErrRecordNotFound
	}
	var user models.User
	if err := s.db.WithContext(ctx).Where(col+" = ?", customerID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *gormStore) GetUserByProviderSubscriptionID(ctx context.Context, provider Provider, subscriptionID string) (*models.User, error) {
	col, err := subscriptionColumn(provider)
	if err != nil {
		return nil, err
	}
	if subscriptionID == "" {
		return nil, gorm.ErrRecordNotFound
	}
	var user models.User
	if err := s.db.WithContext(ctx).Where(col+" = ?", subscriptionID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *gormStore) CreateUser(ctx context.Context, user *models.User) error {
	return s.db.WithContext(ctx).Create(user).Error
}

func (s *gormStore) SetProviderCustomerID(ctx context.Context, userID uint, provider Provider, customerID string) error {
	col, err := customerColumn(provider)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update(col, customerID).Error
}

func (s *gormStore) SetProviderSubscriptionID(ctx context.Context, userID uint, provider Provider, subscriptionID string) error {
	col, err := subscriptionColumn(provider)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update(col, subscriptionID).Error
}

func (s *gormStore) SetUserPlan(ctx context.Context, userID uint, planID string) error {
	return s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("plan_id", planID).Error
}

func (s *gormStore) GetPlan(ctx context.Context, planID string) (*models.Plan, error) {
	var plan models.Plan
	if err := s.db.WithContext(ctx).Where("id = ?", planID).First(&plan).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

// GetPlanByPriceID resolves a vendor price id to a plan by checking the
// provider's price columns in order. The first match wins.
func (s *gormStore) GetPlanByPriceID(ctx context.Context, provider Provider, priceID string) (*models.Plan, error) {
	if priceID == "" {
		return nil, gorm.ErrRecordNotFound
	}
	cols, err := priceColumns(provider)
	if err != nil {
		return nil, err
	}
	for _, col := range cols {
		var plan models.Plan
		err := s.db.WithContext(ctx).Where(col+" = ?", priceID).First(&plan).Error
		if err == nil {
			return &plan, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *gormStore) HasPayPalContext(ctx context.Context, userID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.PayPalContext{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *gormStore) UpsertPayPalContext(ctx context.Context, userID uint, orderID, subscriptionID, status string) error {
	var existing models.PayPalContext
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND (subscription_id = ? OR order_id = ?)", userID, subscriptionID, orderID).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.db.WithContext(ctx).Create(&models.PayPalContext{
			UserID:         userID,
			OrderID:        orderID,
			SubscriptionID: subscriptionID,
			Status:         status,
		}).Error
	}
	if err != nil {
		return err
	}

	updates := map[string]any{"status": status}
	if orderID != "" {
		updates["order_id"] = orderID
	}
	if subscriptionID != "" {
		updates["subscription_id"] = subscriptionID
	}
	return s.db.WithContext(ctx).Model(&existing).Updates(updates).Error
}

// CreateWebhookEventIfNotExists inserts the event row unless one with the
// same (provider, provider_event_id) already exists. Returns true when the
// row was created, false when it was a duplicate delivery.
func (s *gormStore) CreateWebhookEventIfNotExists(ctx context.Context, event *models.BillingWebhookEvent) (bool, error) {
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "provider"}, {Name: "provider_event_id"}},
		DoNothing: true,
	}).Create(event)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (s *gormStore) GetWebhookEvent(ctx context.Context, provider Provider, providerEventID string) (*models.BillingWebhookEvent, error) {
	var event models.BillingWebhookEvent
	err := s.db.WithContext(ctx).
		Where("provider = ? AND provider_event_id = ?", string(provider), providerEventID).
		First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (s *gormStore) MarkWebhookProcessed(ctx context.Context, provider Provider, providerEventID string, processingError string) error {
	now := time.Now()
	return s.db.WithContext(ctx).Model(&models.BillingWebhookEvent{}).
		Where("provider = ? AND provider_event_id = ?", string(provider), providerEventID).
		Updates(map[string]any{
			"processed_at":     &now,
			"processing_error": processingError,
		}).Error
}
