package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

const signatureTimestampTolerance = 5 * time.Minute

// VerifyPaddleWebhookSignature checks the Paddle-Signature header
// ("ts=<unix>;h1=<hex>") against HMAC-SHA256("<ts>:<body>", secret).
// Timestamps outside the tolerance window are rejected to limit replays.
func VerifyPaddleWebhookSignature(payload []byte, signatureHeader, webhookSecret string) bool {
	sig := strings.TrimSpace(signatureHeader)
	secret := strings.TrimSpace(webhookSecret)
	if sig == "" || secret == "" {
		return false
	}

	var ts, h1 string
	for _, part := range strings.Split(sig, ";") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "ts":
			ts = kv[1]
		case "h1":
			h1 = kv[1]
		}
	}
	if ts == "" || h1 == "" {
		return false
	}
	tsInt, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return false
	}
	diff := time.Since(time.Unix(tsInt, 0))
	if diff < 0 {
		diff = -diff
	}
	if diff > signatureTimestampTolerance {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts))
	mac.Write([]byte(":"))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(h1))
}

// VerifyStandardWebhookSignature checks a standard-webhooks style signature
// as used by Dodo Payments: base64(HMAC-SHA256("<id>.<timestamp>.<body>"))
// with the header carrying space-separated "v1,<sig>" candidates.
func VerifyStandardWebhookSignature(payload []byte, webhookID, timestamp, signatureHeader, webhookSecret string) bool {
	id := strings.TrimSpace(webhookID)
	ts := strings.TrimSpace(timestamp)
	sig := strings.TrimSpace(signatureHeader)
	secret := strings.TrimSpace(webhookSecret)
	if id == "" || ts == "" || sig == "" || secret == "" {
		return false
	}

	tsInt, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return false
	}
	diff := time.Since(time.Unix(tsInt, 0))
	if diff < 0 {
		diff = -diff
	}
	if diff > signatureTimestampTolerance {
		return false
	}

	// Secrets may carry the standard-webhooks "whsec_" prefix with a
	// base64-encoded key; fall back to the raw secret bytes otherwise.
	key := []byte(secret)
	if trimmed, ok := strings.CutPrefix(secret, "whsec_"); ok {
		if decoded, err := base64.StdEncoding.DecodeString(trimmed); err == nil {
			key = decoded
		}
	}

	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(id))
	mac.Write([]byte("."))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	for _, candidate := range strings.Fields(sig) {
		if version, value, ok := strings.Cut(candidate, ","); ok && version == "v1" {
			if hmac.Equal([]byte(expected), []byte(value)) {
				return true
			}
		}
	}
	return false
}

// VerifyLemonSqueezyWebhookSignature checks the X-Signature header:
// hex(HMAC-SHA256(body, secret)).
func VerifyLemonSqueezyWebhookSignature(payload []byte, signatureHeader, webhookSecret string) bool {
	sig := strings.TrimSpace(signatureHeader)
	secret := strings.TrimSpace(webhookSecret)
	if sig == "" || secret == "" {
		return false
	}

	decoded, err := hex.DecodeString(strings.ToLower(sig))
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hmac.Equal(mac.Sum(nil), decoded)
}
