package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"inventory-service/internal/models"
	"inventory-service/internal/store"
	"inventory-service/internal/util"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const eventPublishTimeout = 3 * time.Second

// PurchaseResult describes a committed purchase. Order is nil when the
// journal write failed; JournalErr then carries the cause.
type PurchaseResult struct {
	Item              *models.Item  `json:"item"`
	QuantityPurchased int           `json:"quantity_purchased"`
	Order             *models.Order `json:"order,omitempty"`
	Message           string        `json:"message"`
	JournalErr        error         `json:"-"`
}

// PurchaseCoordinator turns purchase requests into conditional stock
// decrements. It holds no locks; the store's conditional write decides races.
type PurchaseCoordinator struct {
	stock   StockStore
	journal *OrderJournal
	cache   ItemCache
	events  EventPublisher
	logger  *zap.Logger
}

// NewPurchaseCoordinator wires a coordinator. cache and events may be nil.
func NewPurchaseCoordinator(
	stock StockStore,
	journal *OrderJournal,
	cache ItemCache,
	events EventPublisher,
) *PurchaseCoordinator {
	return &PurchaseCoordinator{
		stock:   stock,
		journal: journal,
		cache:   cache,
		events:  events,
		logger:  util.GetLogger(),
	}
}

// Purchase takes quantity units of itemID for buyerID. It fails with
// ErrInvalidQuantity, ErrInvalidBuyer, ErrItemNotFound or ErrInsufficientStock
// and never retries. Once the decrement commits the purchase stands, even if
// the order cannot be journaled.
func (pc *PurchaseCoordinator) Purchase(ctx context.Context, itemID string, quantity int, buyerID string) (*PurchaseResult, error) {
	ctx, span := util.StartSpan(ctx, "PurchaseCoordinator.Purchase",
		attribute.String("item_id", itemID),
		attribute.Int("quantity", quantity))
	defer span.End()

	if quantity <= 0 {
		util.PurchasesTotal.WithLabelValues(util.ResultInvalidQuantity).Inc()
		return nil, fmt.Errorf("%w: quantity must be at least 1, got %d", ErrInvalidQuantity, quantity)
	}
	if buyerID == "" {
		util.PurchasesTotal.WithLabelValues(util.ResultInvalidBuyer).Inc()
		return nil, fmt.Errorf("%w: buyer id is required", ErrInvalidBuyer)
	}

	// The pre-check only picks the error kind and skips hopeless writes.
	item, err := pc.stock.GetItemByID(ctx, itemID)
	if errors.Is(err, store.ErrNotFound) {
		util.PurchasesTotal.WithLabelValues(util.ResultNotFound).Inc()
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}
	if err != nil {
		util.PurchasesTotal.WithLabelValues(util.ResultError).Inc()
		util.RecordError(span, err)
		return nil, fmt.Errorf("failed to load item: %w", err)
	}

	if item.AvailableQuantity < quantity {
		util.PurchasesTotal.WithLabelValues(util.ResultInsufficientCheck).Inc()
		return nil, fmt.Errorf("%w: available=%d, requested=%d", ErrInsufficientStock, item.AvailableQuantity, quantity)
	}

	start := time.Now()
	affected, err := pc.stock.ConditionalDecrement(ctx, itemID, quantity)
	util.ConditionalDecrementLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		util.PurchasesTotal.WithLabelValues(util.ResultError).Inc()
		util.RecordError(span, err)
		return nil, fmt.Errorf("failed to decrement stock: %w", err)
	}

	if affected == 0 {
		util.PurchasesTotal.WithLabelValues(util.ResultInsufficientRace).Inc()
		pc.logger.Info("Purchase lost stock race",
			zap.String("item_id", itemID),
			zap.String("buyer_id", buyerID),
			zap.Int("quantity", quantity))
		return nil, fmt.Errorf("%w: the item was claimed by a concurrent purchaser", ErrInsufficientStock)
	}

	util.PurchasesTotal.WithLabelValues(util.ResultSuccess).Inc()
	util.UnitsSoldTotal.Add(float64(quantity))

	// The decrement is committed; what follows must not depend on the caller staying.
	postCtx := context.WithoutCancel(ctx)

	snapshot := pc.reloadItem(postCtx, item, quantity)
	order := models.NewCompletedOrder(snapshot, quantity, buyerID)

	result := &PurchaseResult{
		Item:              snapshot,
		QuantityPurchased: quantity,
		Message:           fmt.Sprintf("Successfully purchased %d x %s", quantity, snapshot.Name),
	}

	if err := pc.journal.Append(postCtx, order); err != nil {
		util.JournalWriteFailuresTotal.Inc()
		util.RecordError(span, err)
		pc.logger.Warn("Stock decremented but order was not journaled",
			zap.String("item_id", itemID),
			zap.String("buyer_id", buyerID),
			zap.Int("quantity", quantity),
			zap.String("unit_price", order.UnitPrice.String()),
			zap.Error(err))

		result.JournalErr = err
		pc.publishPurchase(postCtx, models.EventTypeJournalWriteFailed, order, snapshot, err.Error())
	} else {
		result.Order = order
		pc.publishPurchase(postCtx, models.EventTypeOrderCompleted, order, snapshot, "")
	}

	pc.invalidateCache(postCtx, itemID)

	pc.logger.Info("Purchase completed",
		zap.String("item_id", itemID),
		zap.String("buyer_id", buyerID),
		zap.Int("quantity", quantity),
		zap.Int("remaining", snapshot.AvailableQuantity))

	return result, nil
}

// reloadItem re-reads the item after a committed decrement. If the read fails
// the pre-check snapshot is used with this purchase subtracted.
func (pc *PurchaseCoordinator) reloadItem(ctx context.Context, before *models.Item, quantity int) *models.Item {
	after, err := pc.stock.GetItemByID(ctx, before.ID)
	if err == nil {
		return after
	}

	pc.logger.Warn("Failed to reload item after purchase",
		zap.String("item_id", before.ID),
		zap.Error(err))

	fallback := *before
	fallback.AvailableQuantity -= quantity
	return &fallback
}

func (pc *PurchaseCoordinator) publishPurchase(ctx context.Context, eventType string, order *models.Order, item *models.Item, reason string) {
	if pc.events == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, eventPublishTimeout)
	defer cancel()

	event := &models.PurchaseEvent{
		BaseEvent:         models.NewBaseEvent(eventType),
		OrderID:           order.ID,
		ItemID:            order.ItemID,
		BuyerID:           order.BuyerID,
		Quantity:          order.Quantity,
		UnitPrice:         order.UnitPrice,
		RemainingQuantity: item.AvailableQuantity,
		Reason:            reason,
	}

	if err := pc.events.PublishPurchase(ctx, event); err != nil {
		pc.logger.Error("Failed to publish purchase event",
			zap.String("event_type", eventType),
			zap.String("item_id", order.ItemID),
			zap.Error(err))
	}
}

func (pc *PurchaseCoordinator) invalidateCache(ctx context.Context, itemID string) {
	if pc.cache == nil {
		return
	}
	if err := pc.cache.InvalidateItem(ctx, itemID); err != nil {
		pc.logger.Warn("Failed to invalidate cached item",
			zap.String("item_id", itemID),
			zap.Error(err))
	}
}
