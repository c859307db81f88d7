package billing

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/launchkit/launchkit/app/models"
)

// fakeAdapter replays a canned parse result.
type fakeAdapter struct {
	provider Provider
	event    *BillingEvent
	err      error
}

func (f *fakeAdapter) Provider() Provider { return f.provider }

func (f *fakeAdapter) Parse(ctx context.Context, payload []byte, header HeaderGetter) (*BillingEvent, error) {
	return f.event, f.err
}

// flakyStore fails SetUserPlan a configurable number of times to simulate a
// transient database error during reconciliation.
type flakyStore struct {
	*fakeStore
	planFailures int
}

func (f *flakyStore) SetUserPlan(ctx context.Context, userID uint, planID string) error {
	if f.planFailures > 0 {
		f.planFailures--
		return errors.New("deadlock found when trying to get lock")
	}
	return f.fakeStore.SetUserPlan(ctx, userID, planID)
}

func activeSubscriptionEvent() *BillingEvent {
	return &BillingEvent{
		Kind:       KindSubscriptionCreated,
		Provider:   ProviderPaddle,
		EventID:    "evt_1",
		EventType:  "subscription.created",
		CustomerID: "ctm_1",
		PriceID:    "pri_pro_monthly",
		PaymentID:  "sub_1",
		Status:     "active",
	}
}

func TestHandleWebhook_InvalidSignaturePassesThrough(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	svc := NewService(store, NewReconciler(store, newFakeLedger(), nil, testConfig()),
		&fakeAdapter{provider: ProviderPaddle, err: ErrInvalidSignature})

	err := svc.HandleWebhook(context.Background(), ProviderPaddle, []byte(`{}`), func(string) string { return "" })
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
	if len(store.events) != 0 {
		t.Fatalf("unauthenticated deliveries must not be stored")
	}
}

func TestHandleWebhook_UnsupportedEventIsAcknowledged(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	svc := NewService(store, NewReconciler(store, newFakeLedger(), nil, testConfig()),
		&fakeAdapter{provider: ProviderPaddle, err: fmt.Errorf("%w: paddle address.created", ErrUnsupportedEvent)})

	err := svc.HandleWebhook(context.Background(), ProviderPaddle, []byte(`{}`), func(string) string { return "" })
	if err != nil {
		t.Fatalf("expected ack, got %v", err)
	}
}

func TestHandleWebhook_MalformedPayloadPassesThrough(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	svc := NewService(store, NewReconciler(store, newFakeLedger(), nil, testConfig()),
		&fakeAdapter{provider: ProviderPaddle, err: fmt.Errorf("%w: paddle: unexpected end of JSON input", ErrMalformedPayload)})

	err := svc.HandleWebhook(context.Background(), ProviderPaddle, []byte(`{broken`), func(string) string { return "" })
	if !errors.Is(err, ErrMalformedPayload) {
		t.Fatalf("expected ErrMalformedPayload, got %v", err)
	}
	if len(store.events) != 0 {
		t.Fatalf("undecodable deliveries must not be stored")
	}
}

func TestHandleWebhook_UnknownProvider(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	svc := NewService(store, NewReconciler(store, newFakeLedger(), nil, testConfig()))

	err := svc.HandleWebhook(context.Background(), ProviderStripe, []byte(`{}`), func(string) string { return "" })
	if err == nil {
		t.Fatalf("expected error for unregistered provider")
	}
}

func TestHandleWebhook_SuccessMarksEventProcessed(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.plans = append(store.plans, proPlan())
	store.addUser(&models.User{Email: "a@example.com", PaddleCustomerID: "ctm_1"})
	svc := NewService(store, NewReconciler(store, newFakeLedger(), nil, testConfig()),
		&fakeAdapter{provider: ProviderPaddle, event: activeSubscriptionEvent()})

	err := svc.HandleWebhook(context.Background(), ProviderPaddle, []byte(`{"event_id":"evt_1"}`), func(string) string { return "" })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored, err := store.GetWebhookEvent(context.Background(), ProviderPaddle, "evt_1")
	if err != nil {
		t.Fatalf("expected stored event: %v", err)
	}
	if stored.ProcessedAt == nil || stored.ProcessingError != "" {
		t.Fatalf("expected clean processed mark, got %+v", stored)
	}
}

func TestHandleWebhook_DuplicateOfSettledEventIsNoOp(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.plans = append(store.plans, proPlan())
	store.addUser(&models.User{Email: "a@example.com", PaddleCustomerID: "ctm_1"})
	ledger := newFakeLedger()
	svc := NewService(store, NewReconciler(store, ledger, nil, testConfig()),
		&fakeAdapter{provider: ProviderPaddle, event: activeSubscriptionEvent()})

	for i := 0; i < 3; i++ {
		if err := svc.HandleWebhook(context.Background(), ProviderPaddle, []byte(`{}`), func(string) string { return "" }); err != nil {
			t.Fatalf("delivery %d: unexpected error: %v", i, err)
		}
	}
	if len(store.events) != 1 {
		t.Fatalf("expected a single stored event, got %d", len(store.events))
	}
	if len(ledger.planGrants) != 1 {
		t.Fatalf("expected a single credit grant, got %d", len(ledger.planGrants))
	}
}

func TestHandleWebhook_RedeliveryRetriesAfterTransientFailure(t *testing.T) {
	t.Parallel()

	inner := newFakeStore()
	inner.plans = append(inner.plans, proPlan())
	user := inner.addUser(&models.User{Email: "a@example.com", PlanID: "free", PaddleCustomerID: "ctm_1"})
	store := &flakyStore{fakeStore: inner, planFailures: 1}
	svc := NewService(store, NewReconciler(store, newFakeLedger(), nil, testConfig()),
		&fakeAdapter{provider: ProviderPaddle, event: activeSubscriptionEvent()})

	// First delivery hits the transient failure and must signal retry.
	err := svc.HandleWebhook(context.Background(), ProviderPaddle, []byte(`{}`), func(string) string { return "" })
	if err == nil {
		t.Fatalf("expected transient failure to propagate")
	}
	stored, _ := inner.GetWebhookEvent(context.Background(), ProviderPaddle, "evt_1")
	if stored.ProcessingError == "" {
		t.Fatalf("expected processing error to be recorded")
	}

	// The vendor redelivers; this time reconciliation succeeds.
	if err := svc.HandleWebhook(context.Background(), ProviderPaddle, []byte(`{}`), func(string) string { return "" }); err != nil {
		t.Fatalf("redelivery should succeed: %v", err)
	}
	if user.PlanID != "pro" {
		t.Fatalf("expected plan pro after redelivery, got %s", user.PlanID)
	}
	stored, _ = inner.GetWebhookEvent(context.Background(), ProviderPaddle, "evt_1")
	if stored.ProcessedAt == nil || stored.ProcessingError != "" {
		t.Fatalf("expected clean processed mark after retry, got %+v", stored)
	}
}
