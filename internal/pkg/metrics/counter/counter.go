package counter

import (
	"context"
	"strconv"

	"github.com/launchkit/launchkit/internal/pkg/cache"
)

const (
	webhookReceivedKey  = "billing:counters:received"
	webhookProcessedKey = "billing:counters:processed"
	webhookFailedKey    = "billing:counters:failed"
	webhookRejectedKey  = "billing:counters:rejected"
)

// AddWebhookReceived increments the received counter for a billing provider in Redis
func AddWebhookReceived(provider string) error {
	return cache.GetClient().HIncrBy(context.Background(), webhookReceivedKey, provider, 1).Err()
}

// AddWebhookProcessed increments the processed counter for a billing provider in Redis
func AddWebhookProcessed(provider string) error {
	return cache.GetClient().HIncrBy(context.Background(), webhookProcessedKey, provider, 1).Err()
}

// AddWebhookFailed increments the failed counter for a billing provider in Redis
func AddWebhookFailed(provider string) error {
	return cache.GetClient().HIncrBy(context.Background(), webhookFailedKey, provider, 1).Err()
}

// AddWebhookRejected increments the bad-signature counter for a billing provider in Redis
func AddWebhookRejected(provider string) error {
	return cache.GetClient().HIncrBy(context.Background(), webhookRejectedKey, provider, 1).Err()
}

// WebhookCounts holds per-provider webhook delivery counters.
type WebhookCounts struct {
	Received  map[string]int64
	Processed map[string]int64
	Failed    map[string]int64
	Rejected  map[string]int64
}

// Snapshot reads all webhook counters from Redis.
func Snapshot(ctx context.Context) (*WebhookCounts, error) {
	counts := &WebhookCounts{
		Received:  map[string]int64{},
		Processed: map[string]int64{},
		Failed:    map[string]int64{},
		Rejected:  map[string]int64{},
	}

	for key, target := range map[string]map[string]int64{
		webhookReceivedKey:  counts.Received,
		webhookProcessedKey: counts.Processed,
		webhookFailedKey:    counts.Failed,
		webhookRejectedKey:  counts.Rejected,
	} {
		fields, err := cache.GetClient().HGetAll(ctx, key).Result()
		if err != nil {
			return nil, err
		}
		for provider, raw := range fields {
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				continue
			}
			target[provider] = n
		}
	}

	return counts, nil
}
