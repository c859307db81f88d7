package billing

import (
	"context"
	"errors"
	"testing"

	"github.com/launchkit/launchkit/app/models"
)

type stubPortal struct {
	url string
	err error
}

func (s *stubPortal) CreatePortalSession(ctx context.Context, customerID string) (string, error) {
	return s.url, s.err
}

func TestPortalResolve_PriorityOrder(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	user := store.addUser(&models.User{
		Email:            "a@example.com",
		DodoCustomerID:   "cus_dodo",
		StripeCustomerID: "cus_stripe",
	})
	resolver := NewPortalResolver(store, map[Provider]PortalSessionCreator{
		ProviderDodo:   &stubPortal{url: "https://dodo.example/portal"},
		ProviderStripe: &stubPortal{url: "https://stripe.example/portal"},
	}, testConfig())

	url, err := resolver.Resolve(context.Background(), user)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url != "https://dodo.example/portal" {
		t.Fatalf("dodo outranks stripe in the default priority, got %s", url)
	}
}

func TestPortalResolve_SkipsFailingProvider(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	user := store.addUser(&models.User{
		Email:            "a@example.com",
		DodoCustomerID:   "cus_dodo",
		StripeCustomerID: "cus_stripe",
	})
	resolver := NewPortalResolver(store, map[Provider]PortalSessionCreator{
		ProviderDodo:   &stubPortal{err: errors.New("dodo down")},
		ProviderStripe: &stubPortal{url: "https://stripe.example/portal"},
	}, testConfig())

	url, err := resolver.Resolve(context.Background(), user)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url != "https://stripe.example/portal" {
		t.Fatalf("expected fallback to stripe, got %s", url)
	}
}

func TestPortalResolve_PayPalUsesInAppPage(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	user := store.addUser(&models.User{Email: "a@example.com"})
	_ = store.UpsertPayPalContext(context.Background(), user.ID, "", "I-SUB1", "active")
	resolver := NewPortalResolver(store, nil, testConfig())

	url, err := resolver.Resolve(context.Background(), user)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url != "https://launchkit.test/app/billing/paypal" {
		t.Fatalf("expected in-app paypal page, got %s", url)
	}
}

func TestPortalResolve_NoProviderLink(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	user := store.addUser(&models.User{Email: "a@example.com"})
	resolver := NewPortalResolver(store, nil, testConfig())

	_, err := resolver.Resolve(context.Background(), user)
	if !errors.Is(err, ErrNoActiveSubscription) {
		t.Fatalf("expected ErrNoActiveSubscription, got %v", err)
	}
}

func TestPortalResolve_CustomPriority(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	user := store.addUser(&models.User{
		Email:            "a@example.com",
		DodoCustomerID:   "cus_dodo",
		StripeCustomerID: "cus_stripe",
	})
	cfg := testConfig()
	cfg.PortalPriority = []Provider{ProviderStripe, ProviderDodo}
	resolver := NewPortalResolver(store, map[Provider]PortalSessionCreator{
		ProviderDodo:   &stubPortal{url: "https://dodo.example/portal"},
		ProviderStripe: &stubPortal{url: "https://stripe.example/portal"},
	}, cfg)

	url, err := resolver.Resolve(context.Background(), user)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url != "https://stripe.example/portal" {
		t.Fatalf("expected configured priority to win, got %s", url)
	}
}
