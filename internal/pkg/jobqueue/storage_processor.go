package jobqueue

import (
	"context"
	"fmt"

	"github.com/launchkit/launchkit/internal/pkg/storage"
)

// NewStorageDeleteProcessor returns a processor that removes a user's object
// from the upload bucket.
func NewStorageDeleteProcessor(client *storage.Client) Processor {
	return func(ctx context.Context, job *Job) error {
		payload, err := StorageDeleteJobPayloadFromMap(job.Payload)
		if err != nil {
			return fmt.Errorf("invalid storage delete payload: %w", err)
		}
		if payload.ObjectKey == "" {
			return fmt.Errorf("storage delete job %s has no object key", job.ID)
		}
		return client.DeleteObject(ctx, payload.ObjectKey)
	}
}
