package billing

import (
	"context"
	"errors"
	"testing"
)

type stubVerifier struct {
	ok  bool
	err error

	gotCtx context.Context
}

func (s *stubVerifier) VerifyWebhookSignature(ctx context.Context, webhookID string, payload []byte, header HeaderGetter) (bool, error) {
	s.gotCtx = ctx
	return s.ok, s.err
}

func noHeaders(string) string { return "" }

func TestPayPalAdapter_RejectsUnverifiedDelivery(t *testing.T) {
	t.Parallel()

	adapter := &PayPalAdapter{WebhookID: "wh_1", Verifier: &stubVerifier{ok: false}}

	_, err := adapter.Parse(context.Background(), []byte(`{}`), noHeaders)
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestPayPalAdapter_VerifierErrorIsInvalidSignature(t *testing.T) {
	t.Parallel()

	adapter := &PayPalAdapter{WebhookID: "wh_1", Verifier: &stubVerifier{err: errors.New("api down")}}

	_, err := adapter.Parse(context.Background(), []byte(`{}`), noHeaders)
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestPayPalAdapter_VerificationUsesCallerContext(t *testing.T) {
	t.Parallel()

	verifier := &stubVerifier{ok: false}
	adapter := &PayPalAdapter{WebhookID: "wh_1", Verifier: verifier}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, _ = adapter.Parse(ctx, []byte(`{}`), noHeaders)
	if verifier.gotCtx != ctx {
		t.Fatalf("expected the request context to reach the verifier")
	}
}

func TestPayPalAdapter_SubscriptionActivated(t *testing.T) {
	t.Parallel()

	adapter := &PayPalAdapter{WebhookID: "wh_1", Verifier: &stubVerifier{ok: true}}
	payload := []byte(`{
		"id": "WH-1",
		"event_type": "BILLING.SUBSCRIPTION.ACTIVATED",
		"create_time": "2026-08-01T10:00:00Z",
		"resource": {
			"id": "I-SUB1",
			"plan_id": "P-PLAN1",
			"status": "ACTIVE",
			"custom_id": "7",
			"subscriber": {"payer_id": "PAYER1", "email_address": "kunde@example.com"}
		}
	}`)

	ev, err := adapter.Parse(context.Background(), payload, noHeaders)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Kind != KindSubscriptionCreated {
		t.Fatalf("expected subscription-created, got %s", ev.Kind)
	}
	if ev.CustomerID != "PAYER1" || ev.PriceID != "P-PLAN1" || ev.PaymentID != "I-SUB1" {
		t.Fatalf("unexpected ids: %+v", ev)
	}
	if ev.Status != "active" {
		t.Fatalf("expected normalized status active, got %s", ev.Status)
	}
	if ev.CustomerEmail != "kunde@example.com" {
		t.Fatalf("expected subscriber email on event, got %q", ev.CustomerEmail)
	}
	if ev.Metadata[MetaUserID] != "7" {
		t.Fatalf("expected plain custom_id to land in metadata, got %v", ev.Metadata)
	}
}

func TestPayPalAdapter_CancellationNormalizesStatus(t *testing.T) {
	t.Parallel()

	adapter := &PayPalAdapter{WebhookID: "wh_1", Verifier: &stubVerifier{ok: true}}
	payload := []byte(`{
		"id": "WH-2",
		"event_type": "BILLING.SUBSCRIPTION.SUSPENDED",
		"resource": {"id": "I-SUB1", "status": "SUSPENDED"}
	}`)

	ev, err := adapter.Parse(context.Background(), payload, noHeaders)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Kind != KindSubscriptionCanceled || ev.Status != "canceled" {
		t.Fatalf("expected canceled event, got kind=%s status=%s", ev.Kind, ev.Status)
	}
}

func TestPayPalAdapter_SaleWithCreditCustomData(t *testing.T) {
	t.Parallel()

	adapter := &PayPalAdapter{WebhookID: "wh_1", Verifier: &stubVerifier{ok: true}}
	payload := []byte(`{
		"id": "WH-3",
		"event_type": "PAYMENT.SALE.COMPLETED",
		"resource": {
			"id": "SALE-1",
			"status": "COMPLETED",
			"custom": "{\"purchaseType\":\"credits\",\"userId\":\"9\",\"creditType\":\"video\",\"creditAmount\":\"100\"}",
			"billing_agreement_id": "I-SUB1"
		}
	}`)

	ev, err := adapter.Parse(context.Background(), payload, noHeaders)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Kind != KindCreditPurchase {
		t.Fatalf("expected credit-purchase, got %s", ev.Kind)
	}
	if ev.Metadata[MetaUserID] != "9" || ev.Metadata[MetaCreditType] != "video" || ev.Metadata[MetaCreditAmount] != "100" {
		t.Fatalf("unexpected metadata: %v", ev.Metadata)
	}
	if ev.Status != "completed" {
		t.Fatalf("expected completed status, got %s", ev.Status)
	}
}

func TestPayPalAdapter_UnsupportedEvent(t *testing.T) {
	t.Parallel()

	adapter := &PayPalAdapter{WebhookID: "wh_1", Verifier: &stubVerifier{ok: true}}
	payload := []byte(`{"id": "WH-4", "event_type": "CUSTOMER.DISPUTE.CREATED", "resource": {}}`)

	_, err := adapter.Parse(context.Background(), payload, noHeaders)
	if !errors.Is(err, ErrUnsupportedEvent) {
		t.Fatalf("expected ErrUnsupportedEvent, got %v", err)
	}
}
