package controllers

import (
	"sync"

	"github.com/launchkit/launchkit/internal/pkg/billing"
	"github.com/launchkit/launchkit/internal/pkg/credits"
	"github.com/launchkit/launchkit/internal/pkg/database"
)

// Billing components are built once per process. The PayPal client caches its
// OAuth token, so it must not be rebuilt per request.
var (
	billingOnce     sync.Once
	billingCfg      billing.Config
	billingStore    billing.Store
	billingSvc      *billing.Service
	billingPortal   *billing.PortalResolver
	billingCheckout *billing.CheckoutService
)

func ensureBilling() {
	billingOnce.Do(func() {
		billingCfg = billing.ConfigFromEnv()
		billingStore = billing.NewStore(database.GetDB())

		stripeClient := billing.NewStripeClient(billingCfg)
		paddleClient := billing.NewPaddleClient(billingCfg)
		dodoClient := billing.NewDodoClient(billingCfg)
		paypalClient := billing.NewPayPalClient(billingCfg)

		ledger := credits.NewLedgerFromDB(database.GetDB())
		reconciler := billing.NewReconciler(billingStore, ledger, map[billing.Provider]billing.CustomerLookup{
			billing.ProviderStripe: stripeClient,
			billing.ProviderPaddle: paddleClient,
			billing.ProviderDodo:   dodoClient,
		}, billingCfg)

		billingSvc = billing.NewService(billingStore, reconciler,
			billing.NewStripeAdapter(billingCfg),
			billing.NewPaddleAdapter(billingCfg),
			billing.NewDodoAdapter(billingCfg),
			billing.NewPayPalAdapter(billingCfg, paypalClient),
			billing.NewLemonSqueezyAdapter(billingCfg),
		)

		billingPortal = billing.NewPortalResolver(billingStore, map[billing.Provider]billing.PortalSessionCreator{
			billing.ProviderStripe: stripeClient,
			billing.ProviderPaddle: paddleClient,
			billing.ProviderDodo:   dodoClient,
		}, billingCfg)

		billingCheckout = billing.NewCheckoutService(billingStore, stripeClient, paddleClient, dodoClient, paypalClient, billingCfg)
	})
}

// SetBillingForTest swaps the billing components; used by controller tests.
func SetBillingForTest(cfg billing.Config, store billing.Store, svc *billing.Service, portal *billing.PortalResolver, checkout *billing.CheckoutService) {
	billingOnce.Do(func() {})
	billingCfg = cfg
	billingStore = store
	billingSvc = svc
	billingPortal = portal
	billingCheckout = checkout
}
