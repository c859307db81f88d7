package billing

import "errors"

var (
	// ErrInvalidSignature reports a missing or mismatched webhook signature,
	// or a missing signing secret. Adapters return it before touching the
	// payload; the endpoint answers 401 and the vendor will not usefully
	// retry.
	ErrInvalidSignature = errors.New("invalid webhook signature")

	// ErrUnsupportedEvent reports a vendor event type the adapter does not
	// map. The endpoint logs and acknowledges it so the vendor stops
	// redelivering.
	ErrUnsupportedEvent = errors.New("unsupported webhook event type")

	// ErrMalformedPayload reports an authenticated webhook whose body cannot
	// be decoded. The endpoint answers 400; redelivery would fail the same
	// way.
	ErrMalformedPayload = errors.New("malformed webhook payload")

	// ErrNoActiveSubscription reports that no provider holds a customer or
	// context record for the user during portal resolution.
	ErrNoActiveSubscription = errors.New("no active subscription for user")
)
