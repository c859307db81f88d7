package billing

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/launchkit/launchkit/app/models"
)

// fakeStore is an in-memory Store used across the billing tests.
type fakeStore struct {
	users  map[uint]*models.User
	nextID uint
	plans  []*models.Plan

	paypalContexts []*models.PayPalContext
	events         map[string]*models.BillingWebhookEvent
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:  map[uint]*models.User{},
		nextID: 1,
		events: map[string]*models.BillingWebhookEvent{},
	}
}

func (f *fakeStore) addUser(u *models.User) *models.User {
	if u.ID == 0 {
		u.ID = f.nextID
	}
	if u.ID >= f.nextID {
		f.nextID = u.ID + 1
	}
	f.users[u.ID] = u
	return u
}

func eventKey(provider Provider, eventID string) string {
	return fmt.Sprintf("%s|%s", provider, eventID)
}

func (f *fakeStore) GetUserByID(ctx context.Context, userID uint) (*models.User, error) {
	if u, ok := f.users[userID]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func customerIDField(u *models.User, provider Provider) *string {
	switch provider {
	case ProviderStripe:
		return &u.StripeCustomerID
	case ProviderPaddle:
		return &u.PaddleCustomerID
	case ProviderDodo:
		return &u.DodoCustomerID
	case ProviderPayPal:
		return &u.PayPalCustomerID
	case ProviderLemonSqueezy:
		return &u.LemonSqueezyCustomerID
	}
	return nil
}

func subscriptionIDField(u *models.User, provider Provider) *string {
	switch provider {
	case ProviderStripe:
		return &u.StripeSubscriptionID
	case ProviderPaddle:
		return &u.PaddleSubscriptionID
	case ProviderDodo:
		return &u.DodoSubscriptionID
	case ProviderPayPal:
		return &u.PayPalSubscriptionID
	}
	return nil
}

func (f *fakeStore) GetUserByProviderCustomerID(ctx context.Context, provider Provider, customerID string) (*models.User, error) {
	if customerID == "" {
		return nil, gorm.ErrRecordNotFound
	}
	for _, u := range f.users {
		if field := customerIDField(u, provider); field != nil && *field == customerID {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeStore) GetUserByProviderSubscriptionID(ctx context.Context, provider Provider, subscriptionID string) (*models.User, error) {
	if subscriptionID == "" {
		return nil, gorm.ErrRecordNotFound
	}
	for _, u := range f.users {
		if field := subscriptionIDField(u, provider); field != nil && *field == subscriptionID {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeStore) CreateUser(ctx context.Context, user *models.User) error {
	f.addUser(user)
	return nil
}

func (f *fakeStore) SetProviderCustomerID(ctx context.Context, userID uint, provider Provider, customerID string) error {
	u, ok := f.users[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	field := customerIDField(u, provider)
	if field == nil {
		return fmt.Errorf("unknown billing provider: %s", provider)
	}
	*field = customerID
	return nil
}

func (f *fakeStore) SetProviderSubscriptionID(ctx context.Context, userID uint, provider Provider, subscriptionID string) error {
	u, ok := f.users[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	field := subscriptionIDField(u, provider)
	if field == nil {
		return fmt.Errorf("provider %s has no subscription column", provider)
	}
	*field = subscriptionID
	return nil
}

func (f *fakeStore) SetUserPlan(ctx context.Context, userID uint, planID string) error {
	u, ok := f.users[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.PlanID = planID
	return nil
}

func (f *fakeStore) GetPlan(ctx context.Context, planID string) (*models.Plan, error) {
	for _, p := range f.plans {
		if p.ID == planID {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func planPriceIDs(p *models.Plan, provider Provider) []string {
	switch provider {
	case ProviderStripe:
		return []string{p.StripeMonthlyPriceID, p.StripeYearlyPriceID, p.StripeOnetimePriceID}
	case ProviderPaddle:
		return []string{p.PaddleMonthlyPriceID, p.PaddleYearlyPriceID, p.PaddleOnetimePriceID}
	case ProviderDodo:
		return []string{p.DodoMonthlyPriceID, p.DodoYearlyPriceID, p.DodoOnetimePriceID}
	case ProviderPayPal:
		return []string{p.PayPalPlanID}
	case ProviderLemonSqueezy:
		return []string{p.LemonSqueezyVariant}
	}
	return nil
}

func (f *fakeStore) GetPlanByPriceID(ctx context.Context, provider Provider, priceID string) (*models.Plan, error) {
	if priceID == "" {
		return nil, gorm.ErrRecordNotFound
	}
	for _, p := range f.plans {
		for _, id := range planPriceIDs(p, provider) {
			if id != "" && id == priceID {
				return p, nil
			}
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeStore) HasPayPalContext(ctx context.Context, userID uint) (bool, error) {
	for _, pc := range f.paypalContexts {
		if pc.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) UpsertPayPalContext(ctx context.Context, userID uint, orderID, subscriptionID, status string) error {
	for _, pc := range f.paypalContexts {
		if pc.UserID == userID && (pc.SubscriptionID == subscriptionID || pc.OrderID == orderID) {
			pc.Status = status
			if orderID != "" {
				pc.OrderID = orderID
			}
			if subscriptionID != "" {
				pc.SubscriptionID = subscriptionID
			}
			return nil
		}
	}
	f.paypalContexts = append(f.paypalContexts, &models.PayPalContext{
		UserID:         userID,
		OrderID:        orderID,
		SubscriptionID: subscriptionID,
		Status:         status,
	})
	return nil
}

func (f *fakeStore) CreateWebhookEventIfNotExists(ctx context.Context, event *models.BillingWebhookEvent) (bool, error) {
	key := eventKey(Provider(event.Provider), event.ProviderEventID)
	if _, ok := f.events[key]; ok {
		return false, nil
	}
	f.events[key] = event
	return true, nil
}

func (f *fakeStore) GetWebhookEvent(ctx context.Context, provider Provider, providerEventID string) (*models.BillingWebhookEvent, error) {
	if ev, ok := f.events[eventKey(provider, providerEventID)]; ok {
		return ev, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeStore) MarkWebhookProcessed(ctx context.Context, provider Provider, providerEventID string, processingError string) error {
	ev, ok := f.events[eventKey(provider, providerEventID)]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	now := time.Now()
	ev.ProcessedAt = &now
	ev.ProcessingError = processingError
	return nil
}
