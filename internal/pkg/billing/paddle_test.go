package billing

import (
	"context"
	"errors"
	"testing"
	"time"
)

func paddleHeader(payload []byte, secret string) HeaderGetter {
	sig := paddleSign(payload, secret, time.Now().Unix())
	return func(key string) string {
		if key == "Paddle-Signature" {
			return sig
		}
		return ""
	}
}

func TestPaddleAdapter_RejectsBadSignature(t *testing.T) {
	t.Parallel()

	adapter := &PaddleAdapter{WebhookSecret: "secret"}
	payload := []byte(`{"event_type":"subscription.created"}`)

	_, err := adapter.Parse(context.Background(), payload, paddleHeader(payload, "wrong"))
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestPaddleAdapter_SubscriptionCreated(t *testing.T) {
	t.Parallel()

	adapter := &PaddleAdapter{WebhookSecret: "secret"}
	payload := []byte(`{
		"event_id": "evt_1",
		"event_type": "subscription.created",
		"occurred_at": "2026-08-01T10:00:00Z",
		"data": {
			"id": "sub_1",
			"customer_id": "ctm_1",
			"status": "active",
			"items": [{"price": {"id": "pri_monthly"}}]
		}
	}`)

	ev, err := adapter.Parse(context.Background(), payload, paddleHeader(payload, "secret"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Kind != KindSubscriptionCreated {
		t.Fatalf("expected subscription-created, got %s", ev.Kind)
	}
	if ev.CustomerID != "ctm_1" || ev.PaymentID != "sub_1" || ev.PriceID != "pri_monthly" {
		t.Fatalf("unexpected ids: %+v", ev)
	}
	if ev.Status != "active" {
		t.Fatalf("expected status active, got %s", ev.Status)
	}
	if ev.OccurredAt.IsZero() {
		t.Fatalf("expected occurred_at to be parsed")
	}
}

func TestPaddleAdapter_CreditPurchasePromotion(t *testing.T) {
	t.Parallel()

	adapter := &PaddleAdapter{WebhookSecret: "secret"}
	payload := []byte(`{
		"event_id": "evt_2",
		"event_type": "transaction.completed",
		"data": {
			"id": "txn_1",
			"customer_id": "ctm_1",
			"status": "completed",
			"custom_data": {
				"purchaseType": "credits",
				"userId": "42",
				"creditType": "image",
				"creditAmount": "500"
			}
		}
	}`)

	ev, err := adapter.Parse(context.Background(), payload, paddleHeader(payload, "secret"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Kind != KindCreditPurchase {
		t.Fatalf("expected credit-purchase, got %s", ev.Kind)
	}
	if ev.Metadata[MetaUserID] != "42" || ev.Metadata[MetaCreditType] != "image" || ev.Metadata[MetaCreditAmount] != "500" {
		t.Fatalf("unexpected metadata: %v", ev.Metadata)
	}
}

func TestPaddleAdapter_PlainTransactionStaysTransaction(t *testing.T) {
	t.Parallel()

	adapter := &PaddleAdapter{WebhookSecret: "secret"}
	payload := []byte(`{
		"event_id": "evt_3",
		"event_type": "transaction.completed",
		"data": {"id": "txn_2", "customer_id": "ctm_1", "status": "completed"}
	}`)

	ev, err := adapter.Parse(context.Background(), payload, paddleHeader(payload, "secret"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Kind != KindTransactionCompleted {
		t.Fatalf("expected transaction-completed, got %s", ev.Kind)
	}
}

func TestPaddleAdapter_UnsupportedEvent(t *testing.T) {
	t.Parallel()

	adapter := &PaddleAdapter{WebhookSecret: "secret"}
	payload := []byte(`{"event_id": "evt_4", "event_type": "address.created", "data": {}}`)

	_, err := adapter.Parse(context.Background(), payload, paddleHeader(payload, "secret"))
	if !errors.Is(err, ErrUnsupportedEvent) {
		t.Fatalf("expected ErrUnsupportedEvent, got %v", err)
	}
}

func TestPaddleAdapter_MalformedPayload(t *testing.T) {
	t.Parallel()

	adapter := &PaddleAdapter{WebhookSecret: "secret"}
	payload := []byte(`{not json`)

	_, err := adapter.Parse(context.Background(), payload, paddleHeader(payload, "secret"))
	if !errors.Is(err, ErrMalformedPayload) {
		t.Fatalf("expected ErrMalformedPayload, got %v", err)
	}
	if errors.Is(err, ErrInvalidSignature) || errors.Is(err, ErrUnsupportedEvent) {
		t.Fatalf("malformed payload must not alias another sentinel, got %v", err)
	}
}
