package worker

import (
	"context"
	"fmt"

	"inventory-service/internal/broker"
	"inventory-service/internal/models"
	"inventory-service/internal/util"

	"go.uber.org/zap"
)

// EventSource delivers broker messages to a handler until ctx is done.
type EventSource interface {
	StartConsuming(ctx context.Context, handler broker.MessageHandler) error
	Close() error
}

// SalesProjection is the read side maintained from inventory events.
type SalesProjection interface {
	MarkEventProcessed(ctx context.Context, eventID string) (bool, error)
	IncrementSold(ctx context.Context, itemID string, quantity int) (int64, error)
	InvalidateItem(ctx context.Context, itemID string) error
}

// SalesProjector keeps per-item sold counters and cached snapshots in step
// with purchase and item events.
type SalesProjector struct {
	source       EventSource
	projection   SalesProjection
	eventHandler *broker.EventHandler
	logger       *zap.Logger
}

// NewSalesProjector creates a projector reading from source
func NewSalesProjector(source EventSource, projection SalesProjection) *SalesProjector {
	sp := &SalesProjector{
		source:       source,
		projection:   projection,
		eventHandler: broker.NewEventHandler(),
		logger:       util.GetLogger(),
	}

	sp.eventHandler.OnPurchase(sp.HandlePurchase)
	sp.eventHandler.OnItemChanged(sp.HandleItemChanged)

	return sp
}

// Start blocks consuming events until ctx is cancelled.
func (sp *SalesProjector) Start(ctx context.Context) error {
	sp.logger.Info("Starting sales projector...")
	return sp.source.StartConsuming(ctx, sp.eventHandler.HandleMessage)
}

func (sp *SalesProjector) Stop() error {
	sp.logger.Info("Stopping sales projector...")
	return sp.source.Close()
}

// HandlePurchase applies a purchase event once per event id.
func (sp *SalesProjector) HandlePurchase(ctx context.Context, event *models.PurchaseEvent) error {
	first, err := sp.projection.MarkEventProcessed(ctx, event.EventID)
	if err != nil {
		return fmt.Errorf("failed to mark event %s: %w", event.EventID, err)
	}
	if !first {
		sp.logger.Debug("Skipping duplicate event", zap.String("event_id", event.EventID))
		return nil
	}

	if event.EventType == models.EventTypeJournalWriteFailed {
		// Units left the shelf without an order row; reconciliation is manual.
		sp.logger.Error("Purchase committed without journal entry",
			zap.String("event_id", event.EventID),
			zap.String("item_id", event.ItemID),
			zap.String("buyer_id", event.BuyerID),
			zap.Int("quantity", event.Quantity),
			zap.String("unit_price", event.UnitPrice.String()),
			zap.String("reason", event.Reason))
	}

	sold, err := sp.projection.IncrementSold(ctx, event.ItemID, event.Quantity)
	if err != nil {
		return fmt.Errorf("failed to increment sold units for %s: %w", event.ItemID, err)
	}

	if err := sp.projection.InvalidateItem(ctx, event.ItemID); err != nil {
		sp.logger.Warn("Failed to invalidate cached item",
			zap.String("item_id", event.ItemID),
			zap.Error(err))
	}

	sp.logger.Debug("Projected purchase",
		zap.String("item_id", event.ItemID),
		zap.Int64("sold_total", sold),
		zap.Int("remaining", event.RemainingQuantity))
	return nil
}

// HandleItemChanged evicts the cached snapshot of the changed item.
func (sp *SalesProjector) HandleItemChanged(ctx context.Context, event *models.ItemEvent) error {
	if err := sp.projection.InvalidateItem(ctx, event.ItemID); err != nil {
		return fmt.Errorf("failed to invalidate item %s: %w", event.ItemID, err)
	}

	sp.logger.Debug("Evicted item snapshot",
		zap.String("event_type", event.EventType),
		zap.String("item_id", event.ItemID))
	return nil
}
