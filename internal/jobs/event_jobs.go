package jobs

import (
	"context"
	"fmt"

	"rental-marketplace-backend/internal/logger"
)

// RelayOutboxEvents publishes unpublished outbox events in id order
func (jr *JobRunner) RelayOutboxEvents() {
	jr.runWithRecovery("RelayOutboxEvents", func() {
		ctx, cancel := jobContext()
		defer cancel()

		published, err := jr.relayOutbox(ctx)
		if err != nil {
			logger.Error("Outbox relay stopped", "error", err, "published", published)
			return
		}
		logger.Info("Outbox events relayed", "published", published)
	})
}

// relayOutbox stops at the first failure so later events never overtake an earlier one
func (jr *JobRunner) relayOutbox(ctx context.Context) (int, error) {
	limit := jr.config.Billing.OutboxRelayBatchSize
	if limit <= 0 {
		limit = defaultRelayBatch
	}
	pending, err := jr.outbox.ListUnpublished(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to list unpublished events: %w", err)
	}

	published := 0
	for i := range pending {
		e := &pending[i]
		if err := jr.publisher.Publish(ctx, e); err != nil {
			return published, fmt.Errorf("failed to publish event %d: %w", e.ID, err)
		}
		if err := jr.outbox.MarkPublished(ctx, e.ID, jr.now()); err != nil {
			return published, fmt.Errorf("failed to mark event %d published: %w", e.ID, err)
		}
		published++
	}
	return published, nil
}
