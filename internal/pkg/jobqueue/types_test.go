package jobqueue

import "testing"

func TestEmailJobPayloadRoundTrip(t *testing.T) {
	t.Parallel()

	payload := EmailJobPayload{
		Kind:            EmailKindActivation,
		To:              "kunde@example.com",
		Name:            "Kunde",
		ActivationToken: "tok123",
	}

	restored, err := EmailJobPayloadFromMap(payload.ToMap())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *restored != payload {
		t.Fatalf("expected %+v, got %+v", payload, *restored)
	}
}

func TestStorageDeleteJobPayloadRoundTrip(t *testing.T) {
	t.Parallel()

	payload := StorageDeleteJobPayload{UserID: 42, ObjectKey: "uploads/42/x/a.png"}

	restored, err := StorageDeleteJobPayloadFromMap(payload.ToMap())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *restored != payload {
		t.Fatalf("expected %+v, got %+v", payload, *restored)
	}
}

func TestJobRetryLifecycle(t *testing.T) {
	t.Parallel()

	job := &Job{Type: JobTypeSendEmail, Status: JobStatusPending, MaxRetries: 2}

	job.MarkAsProcessing()
	if job.Status != JobStatusProcessing || job.ProcessedAt == nil {
		t.Fatalf("expected processing state, got %+v", job)
	}

	job.MarkAsFailed("smtp timeout")
	if !job.IsRetryable() {
		t.Fatalf("first failure should be retryable")
	}

	job.MarkAsFailed("smtp timeout")
	if job.IsRetryable() {
		t.Fatalf("retry budget exhausted, job must not be retryable")
	}

	job.MarkAsCompleted()
	if job.Status != JobStatusCompleted || job.ErrorMsg != "" {
		t.Fatalf("expected clean completed state, got %+v", job)
	}
}
