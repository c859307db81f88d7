package billing

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/launchkit/launchkit/app/models"
	"github.com/launchkit/launchkit/internal/pkg/credits"
)

// CreditAllocator is the slice of the credit ledger the reconciler uses.
// *credits.Ledger satisfies it.
type CreditAllocator interface {
	Allocate(ctx context.Context, userID uint, paymentID string, creditType credits.Type, amount int, reason string, metadata map[string]string) error
	AllocatePlanCredits(ctx context.Context, userID uint, planID, paymentID, reason string, metadata map[string]string) error
}

// Reconciler applies canonical billing events to local state: user/plan
// links, provider ids, PayPal contexts and credit grants. Every path that
// cannot be resolved (unknown customer, unmapped price, bad custom data)
// acknowledges without mutating anything, so vendors stop redelivering and
// the stored webhook row keeps the evidence.
type Reconciler struct {
	store   Store
	ledger  CreditAllocator
	lookups map[Provider]CustomerLookup
	cfg     Config
}

// NewReconciler wires a reconciler. lookups may be nil or partial; providers
// without a customer lookup skip the vendor half of self-healing and rely on
// the email carried in the event itself.
func NewReconciler(store Store, ledger CreditAllocator, lookups map[Provider]CustomerLookup, cfg Config) *Reconciler {
	if lookups == nil {
		lookups = map[Provider]CustomerLookup{}
	}
	return &Reconciler{store: store, ledger: ledger, lookups: lookups, cfg: cfg}
}

// Reconcile applies one canonical event. A nil error means the event is
// settled and the webhook can be acknowledged; returned errors are transient
// and the endpoint answers 500 so the vendor redelivers.
func (r *Reconciler) Reconcile(ctx context.Context, ev *BillingEvent) error {
	switch ev.Kind {
	case KindSubscriptionCreated, KindSubscriptionUpdated:
		return r.reconcileSubscription(ctx, ev)
	case KindSubscriptionCanceled:
		return r.reconcileCancellation(ctx, ev)
	case KindTransactionCompleted:
		return r.reconcileTransaction(ctx, ev)
	case KindCreditPurchase:
		return r.reconcileCreditPurchase(ctx, ev)
	}
	return ErrUnsupportedEvent
}

func (r *Reconciler) reconcileSubscription(ctx context.Context, ev *BillingEvent) error {
	user, err := r.resolveUser(ctx, ev)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warnf("[Billing] %s %s: no local user for customer %s, acknowledging", ev.Provider, ev.EventType, ev.CustomerID)
			return nil
		}
		return err
	}

	if err := r.backfillProviderIDs(ctx, user, ev); err != nil {
		return err
	}

	switch ev.Status {
	case models.BillingStatusActive, models.BillingStatusTrialing:
		plan, err := r.store.GetPlanByPriceID(ctx, ev.Provider, ev.PriceID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				log.Warnf("[Billing] %s %s: price %s maps to no plan, acknowledging", ev.Provider, ev.EventType, ev.PriceID)
				return nil
			}
			return err
		}
		if err := r.store.SetUserPlan(ctx, user.ID, plan.ID); err != nil {
			return err
		}

		// Renewal deliveries for the same subscription carry distinct grant
		// keys so each period's credits land exactly once.
		grantKey := ev.PaymentID
		if ev.Kind == KindSubscriptionUpdated && !ev.OccurredAt.IsZero() {
			grantKey = ev.PaymentID + "@" + strconv.FormatInt(ev.OccurredAt.Unix(), 10)
		}
		err = r.ledger.AllocatePlanCredits(ctx, user.ID, plan.ID, grantKey, "plan-credits", map[string]string{
			"provider": string(ev.Provider),
			"event":    ev.EventType,
		})
		if err != nil && !errors.Is(err, credits.ErrDuplicatePayment) {
			return err
		}
		log.Infof("[Billing] %s %s: user %d on plan %s", ev.Provider, ev.EventType, user.ID, plan.ID)
		return nil

	case models.BillingStatusCanceled:
		return r.downgradeToDefault(ctx, user, ev)

	default:
		log.Infof("[Billing] %s %s: status %s for user %d, no action", ev.Provider, ev.EventType, ev.Status, user.ID)
		return nil
	}
}

// reconcileCancellation resolves strictly by the subscription id the event
// names. The customer-id chain must stay out of this path: a late cancel for
// an already replaced subscription would otherwise match the user by customer
// id and tear down their live subscription.
func (r *Reconciler) reconcileCancellation(ctx context.Context, ev *BillingEvent) error {
	if _, err := subscriptionColumn(ev.Provider); err != nil || ev.PaymentID == "" {
		log.Warnf("[Billing] %s %s: cancellation without a subscription reference, acknowledging", ev.Provider, ev.EventType)
		return nil
	}
	user, err := r.store.GetUserByProviderSubscriptionID(ctx, ev.Provider, ev.PaymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warnf("[Billing] %s %s: no local user holds subscription %s, acknowledging", ev.Provider, ev.EventType, ev.PaymentID)
			return nil
		}
		return err
	}
	return r.downgradeToDefault(ctx, user, ev)
}

func (r *Reconciler) downgradeToDefault(ctx context.Context, user *models.User, ev *BillingEvent) error {
	if err := r.store.SetUserPlan(ctx, user.ID, r.cfg.DefaultPlanID); err != nil {
		return err
	}
	if _, err := subscriptionColumn(ev.Provider); err == nil {
		if err := r.store.SetProviderSubscriptionID(ctx, user.ID, ev.Provider, ""); err != nil {
			return err
		}
	}
	if ev.Provider == ProviderPayPal {
		if err := r.store.UpsertPayPalContext(ctx, user.ID, "", ev.PaymentID, "canceled"); err != nil {
			return err
		}
	}
	log.Infof("[Billing] %s %s: user %d downgraded to %s", ev.Provider, ev.EventType, user.ID, r.cfg.DefaultPlanID)
	return nil
}

func (r *Reconciler) reconcileTransaction(ctx context.Context, ev *BillingEvent) error {
	if !isSuccessfulTransaction(ev.Provider, ev.Status) {
		log.Infof("[Billing] %s %s: transaction status %s, no action", ev.Provider, ev.EventType, ev.Status)
		return nil
	}

	user, err := r.resolveUser(ctx, ev)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warnf("[Billing] %s %s: no local user for customer %s, acknowledging", ev.Provider, ev.EventType, ev.CustomerID)
			return nil
		}
		return err
	}

	if err := r.backfillProviderIDs(ctx, user, ev); err != nil {
		return err
	}

	plan, err := r.store.GetPlanByPriceID(ctx, ev.Provider, ev.PriceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Infof("[Billing] %s %s: payment %s maps to no plan, acknowledging", ev.Provider, ev.EventType, ev.PaymentID)
			return nil
		}
		return err
	}

	if err := r.store.SetUserPlan(ctx, user.ID, plan.ID); err != nil {
		return err
	}
	err = r.ledger.AllocatePlanCredits(ctx, user.ID, plan.ID, ev.PaymentID, "plan-credits", map[string]string{
		"provider": string(ev.Provider),
		"event":    ev.EventType,
	})
	if err != nil && !errors.Is(err, credits.ErrDuplicatePayment) {
		return err
	}
	log.Infof("[Billing] %s %s: user %d purchased plan %s", ev.Provider, ev.EventType, user.ID, plan.ID)
	return nil
}

// reconcileCreditPurchase validates the custom data fail-closed: any missing
// or malformed field acknowledges without writing a single row.
func (r *Reconciler) reconcileCreditPurchase(ctx context.Context, ev *BillingEvent) error {
	if !isSuccessfulTransaction(ev.Provider, ev.Status) {
		log.Infof("[Billing] %s %s: credit purchase status %s, no action", ev.Provider, ev.EventType, ev.Status)
		return nil
	}

	userID, err := parseUserID(ev.Metadata[MetaUserID])
	if err != nil {
		log.Errorf("[Billing] %s %s: credit purchase with bad userId %q, acknowledging", ev.Provider, ev.EventType, ev.Metadata[MetaUserID])
		return nil
	}
	creditType, err := credits.ParseType(ev.Metadata[MetaCreditType])
	if err != nil {
		log.Errorf("[Billing] %s %s: credit purchase rejected: %v", ev.Provider, ev.EventType, err)
		return nil
	}
	amount, err := credits.ParseAmount(ev.Metadata[MetaCreditAmount])
	if err != nil {
		log.Errorf("[Billing] %s %s: credit purchase rejected: %v", ev.Provider, ev.EventType, err)
		return nil
	}

	user, err := r.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Errorf("[Billing] %s %s: credit purchase for unknown user %d, acknowledging", ev.Provider, ev.EventType, userID)
			return nil
		}
		return err
	}

	// When the event also carries a customer id, it must belong to the
	// claimed user. A mismatch means tampered or misrouted custom data.
	if ev.CustomerID != "" {
		if linked, err := r.store.GetUserByProviderCustomerID(ctx, ev.Provider, ev.CustomerID); err == nil && linked.ID != user.ID {
			log.Errorf("[Billing] %s %s: customer %s belongs to user %d, not claimed user %d, acknowledging", ev.Provider, ev.EventType, ev.CustomerID, linked.ID, user.ID)
			return nil
		}
	}

	err = r.ledger.Allocate(ctx, user.ID, ev.PaymentID, creditType, amount, "credit-purchase", map[string]string{
		"provider": string(ev.Provider),
		"event":    ev.EventType,
	})
	if errors.Is(err, credits.ErrDuplicatePayment) {
		log.Infof("[Billing] %s %s: payment %s already credited", ev.Provider, ev.EventType, ev.PaymentID)
		return nil
	}
	if err != nil {
		return err
	}
	log.Infof("[Billing] %s %s: user %d credited %d %s credits", ev.Provider, ev.EventType, user.ID, amount, creditType)
	return nil
}

// resolveUser finds the local user an event belongs to. Lookup order:
// provider customer id, provider subscription id, a userId in the event
// metadata, then self-healing: fetch the customer's email from the vendor
// (or use the email on the event) and get-or-create the user by email,
// backfilling the customer link.
func (r *Reconciler) resolveUser(ctx context.Context, ev *BillingEvent) (*models.User, error) {
	if ev.CustomerID != "" {
		user, err := r.store.GetUserByProviderCustomerID(ctx, ev.Provider, ev.CustomerID)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	if ev.PaymentID != "" {
		if _, colErr := subscriptionColumn(ev.Provider); colErr == nil {
			user, err := r.store.GetUserByProviderSubscriptionID(ctx, ev.Provider, ev.PaymentID)
			if err == nil {
				return user, nil
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, err
			}
		}
	}

	if raw := ev.Metadata[MetaUserID]; raw != "" {
		if userID, err := parseUserID(raw); err == nil {
			user, err := r.store.GetUserByID(ctx, userID)
			if err == nil {
				return user, nil
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, err
			}
		}
	}

	email := strings.TrimSpace(ev.CustomerEmail)
	name := ""
	if email == "" && ev.CustomerID != "" {
		lookup := r.lookups[ev.Provider]
		if lookup == nil {
			return nil, gorm.ErrRecordNotFound
		}
		customer, err := lookup.GetCustomer(ctx, ev.CustomerID)
		if err != nil {
			log.Warnf("[Billing] %s: customer lookup for %s failed: %v", ev.Provider, ev.CustomerID, err)
			return nil, gorm.ErrRecordNotFound
		}
		email = strings.TrimSpace(customer.Email)
		name = customer.Name
	}
	if email == "" {
		return nil, gorm.ErrRecordNotFound
	}

	user, err := r.getOrCreateUserByEmail(ctx, email, name)
	if err != nil {
		return nil, err
	}
	if ev.CustomerID != "" {
		if err := r.store.SetProviderCustomerID(ctx, user.ID, ev.Provider, ev.CustomerID); err != nil {
			return nil, err
		}
	}
	log.Infof("[Billing] %s: linked customer %s to user %d via %s", ev.Provider, ev.CustomerID, user.ID, email)
	return user, nil
}

func (r *Reconciler) getOrCreateUserByEmail(ctx context.Context, email, name string) (*models.User, error) {
	user, err := r.store.GetUserByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}
	if len(name) < 3 {
		name = email
	}
	created, err := models.CreateUser(name, email, uuid.NewString())
	if err != nil {
		return nil, err
	}
	// Paying customers skip email activation.
	created.Status = models.STATUS_ACTIVE
	created.PlanID = r.cfg.DefaultPlanID
	if err := r.store.CreateUser(ctx, created); err != nil {
		return nil, err
	}
	return created, nil
}

func (r *Reconciler) backfillProviderIDs(ctx context.Context, user *models.User, ev *BillingEvent) error {
	if ev.CustomerID != "" {
		if err := r.store.SetProviderCustomerID(ctx, user.ID, ev.Provider, ev.CustomerID); err != nil {
			return err
		}
	}
	if ev.Kind == KindSubscriptionCreated || ev.Kind == KindSubscriptionUpdated {
		if _, err := subscriptionColumn(ev.Provider); err == nil && ev.PaymentID != "" {
			if err := r.store.SetProviderSubscriptionID(ctx, user.ID, ev.Provider, ev.PaymentID); err != nil {
				return err
			}
		}
		if ev.Provider == ProviderPayPal && ev.PaymentID != "" {
			if err := r.store.UpsertPayPalContext(ctx, user.ID, "", ev.PaymentID, ev.Status); err != nil {
				return err
			}
		}
	}
	return nil
}

// isSuccessfulTransaction reports whether a transaction status counts as a
// settled payment for the provider. Everything else is acknowledged without
// granting anything.
func isSuccessfulTransaction(provider Provider, status string) bool {
	s := strings.ToLower(strings.TrimSpace(status))
	switch provider {
	case ProviderPaddle:
		return s == "completed" || s == "billed" || s == "paid"
	case ProviderStripe:
		return s == "succeeded" || s == "paid" || s == "complete"
	case ProviderDodo:
		return s == "succeeded"
	case ProviderPayPal:
		return s == "completed" || s == "active"
	}
	return false
}

func parseUserID(raw string) (uint, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 32)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, errors.New("user id must be positive")
	}
	return uint(n), nil
}
