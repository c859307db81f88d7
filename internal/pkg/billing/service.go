package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2/log"

	"github.com/launchkit/launchkit/app/models"
)

// Service orchestrates webhook ingestion: adapter parse (which verifies the
// signature), deduplication against stored deliveries, reconciliation, and
// marking the stored row processed.
type Service struct {
	store      Store
	reconciler *Reconciler
	adapters   map[Provider]Adapter
}

func NewService(store Store, reconciler *Reconciler, adapters ...Adapter) *Service {
	byProvider := make(map[Provider]Adapter, len(adapters))
	for _, a := range adapters {
		byProvider[a.Provider()] = a
	}
	return &Service{store: store, reconciler: reconciler, adapters: byProvider}
}

// HandleWebhook processes one inbound delivery for a provider.
//
// Error contract for the HTTP layer: ErrInvalidSignature means reject with
// 401, ErrMalformedPayload means reject with 400; nil means acknowledge with
// 200 (including unsupported and duplicate events); any other error is
// transient and the endpoint answers 500 so the vendor redelivers.
func (s *Service) HandleWebhook(ctx context.Context, provider Provider, payload []byte, header HeaderGetter) error {
	adapter, ok := s.adapters[provider]
	if !ok {
		return fmt.Errorf("no adapter registered for provider %s", provider)
	}

	ev, err := adapter.Parse(ctx, payload, header)
	if err != nil {
		if errors.Is(err, ErrInvalidSignature) {
			return ErrInvalidSignature
		}
		if errors.Is(err, ErrUnsupportedEvent) {
			log.Debugf("[Billing] %v", err)
			return nil
		}
		if errors.Is(err, ErrMalformedPayload) {
			log.Errorf("[Billing] %s: rejecting malformed webhook: %v", provider, err)
			return err
		}
		return fmt.Errorf("parsing %s webhook: %w", provider, err)
	}

	created, err := s.store.CreateWebhookEventIfNotExists(ctx, &models.BillingWebhookEvent{
		Provider:        string(provider),
		ProviderEventID: ev.EventID,
		EventType:       ev.EventType,
		PayloadJSON:     string(payload),
	})
	if err != nil {
		return err
	}
	if !created {
		// Redeliveries of a settled event are pure no-ops. A stored row
		// without a clean processed mark means the first attempt failed
		// transiently, so this delivery gets to retry reconciliation.
		stored, err := s.store.GetWebhookEvent(ctx, provider, ev.EventID)
		if err != nil {
			return err
		}
		if stored.ProcessedAt != nil && stored.ProcessingError == "" {
			log.Infof("[Billing] %s: duplicate delivery of event %s, acknowledging", provider, ev.EventID)
			return nil
		}
	}

	if err := s.reconciler.Reconcile(ctx, ev); err != nil {
		if markErr := s.store.MarkWebhookProcessed(ctx, provider, ev.EventID, err.Error()); markErr != nil {
			log.Errorf("[Billing] %s: failed to record processing error for event %s: %v", provider, ev.EventID, markErr)
		}
		return err
	}
	return s.store.MarkWebhookProcessed(ctx, provider, ev.EventID, "")
}
