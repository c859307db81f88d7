package billing

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func dodoHeaders(payload []byte, webhookID, secret string) HeaderGetter {
	ts := time.Now().Unix()
	sig := standardSign(payload, webhookID, ts, []byte(secret))
	headers := map[string]string{
		"webhook-id":        webhookID,
		"webhook-timestamp": fmt.Sprint(ts),
		"webhook-signature": sig,
	}
	return func(key string) string { return headers[key] }
}

func TestDodoAdapter_RejectsBadSignature(t *testing.T) {
	t.Parallel()

	adapter := &DodoAdapter{WebhookSecret: "secret"}
	payload := []byte(`{"type":"payment.succeeded"}`)

	_, err := adapter.Parse(context.Background(), payload, dodoHeaders(payload, "msg_1", "wrong"))
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestDodoAdapter_SubscriptionActive(t *testing.T) {
	t.Parallel()

	adapter := &DodoAdapter{WebhookSecret: "secret"}
	payload := []byte(`{
		"type": "subscription.active",
		"timestamp": "2026-08-01T10:00:00Z",
		"data": {
			"subscription_id": "sub_dodo_1",
			"product_id": "pdt_pro",
			"status": "active",
			"customer": {"customer_id": "cus_dodo_1", "email": "kunde@example.com"}
		}
	}`)

	ev, err := adapter.Parse(context.Background(), payload, dodoHeaders(payload, "msg_2", "secret"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Kind != KindSubscriptionCreated {
		t.Fatalf("expected subscription-created, got %s", ev.Kind)
	}
	if ev.EventID != "msg_2" {
		t.Fatalf("event id comes from the webhook-id header, got %q", ev.EventID)
	}
	if ev.CustomerID != "cus_dodo_1" || ev.PriceID != "pdt_pro" || ev.PaymentID != "sub_dodo_1" {
		t.Fatalf("unexpected ids: %+v", ev)
	}
}

func TestDodoAdapter_CancellationOverridesPayloadStatus(t *testing.T) {
	t.Parallel()

	adapter := &DodoAdapter{WebhookSecret: "secret"}
	// Dodo still reports "active" on the subscription when the cancellation
	// event fires.
	payload := []byte(`{
		"type": "subscription.cancelled",
		"data": {"subscription_id": "sub_dodo_1", "status": "active", "customer": {"customer_id": "cus_dodo_1"}}
	}`)

	ev, err := adapter.Parse(context.Background(), payload, dodoHeaders(payload, "msg_3", "secret"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Kind != KindSubscriptionCanceled || ev.Status != "canceled" {
		t.Fatalf("expected canceled, got kind=%s status=%s", ev.Kind, ev.Status)
	}
}

func TestDodoAdapter_PaymentWithCreditMetadata(t *testing.T) {
	t.Parallel()

	adapter := &DodoAdapter{WebhookSecret: "secret"}
	payload := []byte(`{
		"type": "payment.succeeded",
		"data": {
			"payment_id": "pay_dodo_1",
			"status": "succeeded",
			"customer": {"customer_id": "cus_dodo_1"},
			"metadata": {"purchaseType": "credits", "userId": "3", "creditType": "text", "creditAmount": "1000"}
		}
	}`)

	ev, err := adapter.Parse(context.Background(), payload, dodoHeaders(payload, "msg_4", "secret"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Kind != KindCreditPurchase {
		t.Fatalf("expected credit-purchase, got %s", ev.Kind)
	}
	if ev.PaymentID != "pay_dodo_1" {
		t.Fatalf("one-off payments use the payment id, got %q", ev.PaymentID)
	}
}

func TestDodoAdapter_UnsupportedEvent(t *testing.T) {
	t.Parallel()

	adapter := &DodoAdapter{WebhookSecret: "secret"}
	payload := []byte(`{"type": "dispute.opened", "data": {}}`)

	_, err := adapter.Parse(context.Background(), payload, dodoHeaders(payload, "msg_5", "secret"))
	if !errors.Is(err, ErrUnsupportedEvent) {
		t.Fatalf("expected ErrUnsupportedEvent, got %v", err)
	}
}
