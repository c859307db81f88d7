package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/launchkit/launchkit/app/models"
	"github.com/launchkit/launchkit/internal/pkg/credits"
)

// Interval selects which of a plan's provider prices a checkout uses.
type Interval string

const (
	IntervalMonthly Interval = "monthly"
	IntervalYearly  Interval = "yearly"
	IntervalOnetime Interval = "onetime"
)

// ParseInterval validates a raw billing interval string.
func ParseInterval(raw string) (Interval, error) {
	switch Interval(raw) {
	case IntervalMonthly, IntervalYearly, IntervalOnetime:
		return Interval(raw), nil
	case "":
		return IntervalMonthly, nil
	default:
		return "", fmt.Errorf("unknown billing interval: %q", raw)
	}
}

// CheckoutService creates vendor-hosted checkout sessions for plans and
// credit packs. The local user id always rides along in the vendor's custom
// data so the resulting webhook can be attributed even before a customer
// link exists.
type CheckoutService struct {
	store  Store
	stripe *StripeClient
	paddle *PaddleClient
	dodo   *DodoClient
	paypal *PayPalClient
	cfg    Config
}

func NewCheckoutService(store Store, stripe *StripeClient, paddle *PaddleClient, dodo *DodoClient, paypal *PayPalClient, cfg Config) *CheckoutService {
	return &CheckoutService{store: store, stripe: stripe, paddle: paddle, dodo: dodo, paypal: paypal, cfg: cfg}
}

func planPriceID(plan *models.Plan, provider Provider, interval Interval) (string, error) {
	var id string
	switch provider {
	case ProviderStripe:
		switch interval {
		case IntervalMonthly:
			id = plan.StripeMonthlyPriceID
		case IntervalYearly:
			id = plan.StripeYearlyPriceID
		case IntervalOnetime:
			id = plan.StripeOnetimePriceID
		}
	case ProviderPaddle:
		switch interval {
		case IntervalMonthly:
			id = plan.PaddleMonthlyPriceID
		case IntervalYearly:
			id = plan.PaddleYearlyPriceID
		case IntervalOnetime:
			id = plan.PaddleOnetimePriceID
		}
	case ProviderDodo:
		switch interval {
		case IntervalMonthly:
			id = plan.DodoMonthlyPriceID
		case IntervalYearly:
			id = plan.DodoYearlyPriceID
		case IntervalOnetime:
			id = plan.DodoOnetimePriceID
		}
	case ProviderPayPal:
		id = plan.PayPalPlanID
	}
	if id == "" {
		return "", fmt.Errorf("plan %s has no %s %s price", plan.ID, provider, interval)
	}
	return id, nil
}

// CreatePlanCheckout creates a checkout for a plan and returns the URL the
// buyer is redirected to.
func (s *CheckoutService) CreatePlanCheckout(ctx context.Context, user *models.User, planID string, provider Provider, interval Interval) (string, error) {
	plan, err := s.store.GetPlan(ctx, planID)
	if err != nil {
		return "", err
	}
	priceID, err := planPriceID(plan, provider, interval)
	if err != nil {
		return "", err
	}

	userID := strconv.FormatUint(uint64(user.ID), 10)
	customData := map[string]string{MetaUserID: userID}

	switch provider {
	case ProviderStripe:
		return s.stripe.CreateCheckout(ctx, user.StripeCustomerID, priceID, interval != IntervalOnetime, customData)
	case ProviderPaddle:
		return s.paddle.CreateCheckout(ctx, user.PaddleCustomerID, priceID, customData)
	case ProviderDodo:
		return s.dodo.CreateCheckout(ctx, user.DodoCustomerID, priceID, customData)
	case ProviderPayPal:
		customID, err := json.Marshal(customData)
		if err != nil {
			return "", err
		}
		approvalURL, err := s.paypal.CreateSubscription(ctx, priceID, string(customID),
			s.cfg.AppURL+"/app?checkout=success", s.cfg.AppURL+"/pricing?checkout=canceled")
		if err != nil {
			return "", err
		}
		if err := s.store.UpsertPayPalContext(ctx, user.ID, "", "", "pending"); err != nil {
			return "", err
		}
		return approvalURL, nil
	}
	return "", fmt.Errorf("provider %s does not support plan checkout", provider)
}

// CreateCreditCheckout creates a checkout for a credit pack. The custom data
// carries the credits marker plus the grant parameters the webhook needs.
func (s *CheckoutService) CreateCreditCheckout(ctx context.Context, user *models.User, provider Provider, productID string, creditType credits.Type, creditAmount, priceCents int) (string, error) {
	customData := map[string]string{
		"purchaseType":   "credits",
		MetaUserID:       strconv.FormatUint(uint64(user.ID), 10),
		MetaCreditType:   string(creditType),
		MetaCreditAmount: strconv.Itoa(creditAmount),
	}

	switch provider {
	case ProviderStripe:
		return s.stripe.CreateCheckout(ctx, user.StripeCustomerID, productID, false, customData)
	case ProviderPaddle:
		return s.paddle.CreateCreditCheckout(ctx, user.PaddleCustomerID, productID, string(creditType), creditAmount, priceCents, customData)
	case ProviderDodo:
		return s.dodo.CreateCheckout(ctx, user.DodoCustomerID, productID, customData)
	}
	return "", fmt.Errorf("provider %s does not support credit checkout", provider)
}
