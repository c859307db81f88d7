package billing

import (
	"context"

	"github.com/gofiber/fiber/v2/log"

	"github.com/launchkit/launchkit/app/models"
)

// PortalResolver resolves the billing portal URL for a user by walking the
// configured provider priority. The first provider the user holds a customer
// link for wins; PayPal has no vendor-hosted portal, so a stored PayPal
// context resolves to the in-app billing page instead.
type PortalResolver struct {
	store   Store
	portals map[Provider]PortalSessionCreator
	cfg     Config
}

func NewPortalResolver(store Store, portals map[Provider]PortalSessionCreator, cfg Config) *PortalResolver {
	if portals == nil {
		portals = map[Provider]PortalSessionCreator{}
	}
	return &PortalResolver{store: store, portals: portals, cfg: cfg}
}

func providerCustomerID(user *models.User, provider Provider) string {
	switch provider {
	case ProviderStripe:
		return user.StripeCustomerID
	case ProviderPaddle:
		return user.PaddleCustomerID
	case ProviderDodo:
		return user.DodoCustomerID
	case ProviderPayPal:
		return user.PayPalCustomerID
	case ProviderLemonSqueezy:
		return user.LemonSqueezyCustomerID
	}
	return ""
}

// Resolve returns the portal URL for the user, or ErrNoActiveSubscription
// when no provider holds a customer or context record for them. A provider
// whose portal session fails is skipped so a later provider can still serve.
func (p *PortalResolver) Resolve(ctx context.Context, user *models.User) (string, error) {
	for _, provider := range p.cfg.PortalPriority {
		if provider == ProviderPayPal {
			has, err := p.store.HasPayPalContext(ctx, user.ID)
			if err != nil {
				return "", err
			}
			if has || user.PayPalSubscriptionID != "" {
				return p.cfg.AppURL + "/app/billing/paypal", nil
			}
			continue
		}

		customerID := providerCustomerID(user, provider)
		if customerID == "" {
			continue
		}
		creator := p.portals[provider]
		if creator == nil {
			continue
		}
		url, err := creator.CreatePortalSession(ctx, customerID)
		if err != nil {
			log.Warnf("[Billing] %s portal session for user %d failed: %v", provider, user.ID, err)
			continue
		}
		return url, nil
	}
	return "", ErrNoActiveSubscription
}
