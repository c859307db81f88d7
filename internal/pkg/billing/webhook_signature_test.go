package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"testing"
	"time"
)

func paddleSign(payload []byte, secret string, ts int64) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d:", ts)
	mac.Write(payload)
	return fmt.Sprintf("ts=%d;h1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func TestVerifyPaddleWebhookSignature_Valid(t *testing.T) {
	t.Parallel()

	payload := []byte(`{"event_type":"transaction.completed"}`)
	header := paddleSign(payload, "secret", time.Now().Unix())

	if !VerifyPaddleWebhookSignature(payload, header, "secret") {
		t.Fatalf("expected valid signature to verify")
	}
}

func TestVerifyPaddleWebhookSignature_WrongSecret(t *testing.T) {
	t.Parallel()

	payload := []byte(`{}`)
	header := paddleSign(payload, "secret", time.Now().Unix())

	if VerifyPaddleWebhookSignature(payload, header, "other") {
		t.Fatalf("expected mismatched secret to fail")
	}
}

func TestVerifyPaddleWebhookSignature_ExpiredTimestamp(t *testing.T) {
	t.Parallel()

	payload := []byte(`{}`)
	header := paddleSign(payload, "secret", time.Now().Add(-10*time.Minute).Unix())

	if VerifyPaddleWebhookSignature(payload, header, "secret") {
		t.Fatalf("expected stale timestamp to fail")
	}
}

func TestVerifyPaddleWebhookSignature_MissingParts(t *testing.T) {
	t.Parallel()

	if VerifyPaddleWebhookSignature([]byte(`{}`), "", "secret") {
		t.Fatalf("expected empty header to fail")
	}
	if VerifyPaddleWebhookSignature([]byte(`{}`), "ts=123", "secret") {
		t.Fatalf("expected header without h1 to fail")
	}
	if VerifyPaddleWebhookSignature([]byte(`{}`), "h1=abc", "") {
		t.Fatalf("expected empty secret to fail")
	}
}

func standardSign(payload []byte, id string, ts int64, key []byte) string {
	mac := hmac.New(sha256.New, key)
	fmt.Fprintf(mac, "%s.%d.", id, ts)
	mac.Write(payload)
	return "v1," + base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestVerifyStandardWebhookSignature_Valid(t *testing.T) {
	t.Parallel()

	payload := []byte(`{"type":"payment.succeeded"}`)
	ts := time.Now().Unix()
	sig := standardSign(payload, "msg_1", ts, []byte("secret"))

	if !VerifyStandardWebhookSignature(payload, "msg_1", fmt.Sprint(ts), sig, "secret") {
		t.Fatalf("expected valid signature to verify")
	}
}

func TestVerifyStandardWebhookSignature_WhsecKey(t *testing.T) {
	t.Parallel()

	rawKey := []byte("0123456789abcdef")
	secret := "whsec_" + base64.StdEncoding.EncodeToString(rawKey)
	payload := []byte(`{}`)
	ts := time.Now().Unix()
	sig := standardSign(payload, "msg_2", ts, rawKey)

	if !VerifyStandardWebhookSignature(payload, "msg_2", fmt.Sprint(ts), sig, secret) {
		t.Fatalf("expected whsec_ key to verify")
	}
}

func TestVerifyStandardWebhookSignature_MultipleCandidates(t *testing.T) {
	t.Parallel()

	payload := []byte(`{}`)
	ts := time.Now().Unix()
	good := standardSign(payload, "msg_3", ts, []byte("secret"))
	header := "v1,bogus " + good

	if !VerifyStandardWebhookSignature(payload, "msg_3", fmt.Sprint(ts), header, "secret") {
		t.Fatalf("expected any matching candidate to verify")
	}
}

func TestVerifyStandardWebhookSignature_ExpiredTimestamp(t *testing.T) {
	t.Parallel()

	payload := []byte(`{}`)
	ts := time.Now().Add(-time.Hour).Unix()
	sig := standardSign(payload, "msg_4", ts, []byte("secret"))

	if VerifyStandardWebhookSignature(payload, "msg_4", fmt.Sprint(ts), sig, "secret") {
		t.Fatalf("expected stale timestamp to fail")
	}
}

func TestVerifyLemonSqueezyWebhookSignature(t *testing.T) {
	t.Parallel()

	payload := []byte(`{"meta":{"event_name":"order_created"}}`)
	mac := hmac.New(sha256.New, []byte("secret"))
	mac.Write(payload)
	sig := hex.EncodeToString(mac.Sum(nil))

	if !VerifyLemonSqueezyWebhookSignature(payload, sig, "secret") {
		t.Fatalf("expected valid signature to verify")
	}
	if VerifyLemonSqueezyWebhookSignature(payload, sig, "other") {
		t.Fatalf("expected mismatched secret to fail")
	}
	if VerifyLemonSqueezyWebhookSignature(payload, "zz-not-hex", "secret") {
		t.Fatalf("expected undecodable signature to fail")
	}
}
