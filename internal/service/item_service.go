package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"inventory-service/internal/models"
	"inventory-service/internal/store"
	"inventory-service/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ItemService is the administrative surface over items. Every stock change
// it makes is a single store statement; nothing reads quantity and writes it back.
type ItemService struct {
	items  ItemRepository
	cache  ItemCache
	events EventPublisher
	logger *zap.Logger
}

// NewItemService creates an item service. cache and events may be nil.
func NewItemService(items ItemRepository, cache ItemCache, events EventPublisher) *ItemService {
	return &ItemService{
		items:  items,
		cache:  cache,
		events: events,
		logger: util.GetLogger(),
	}
}

// CreateItemRequest represents a request to create an item
type CreateItemRequest struct {
	Name              string          `json:"name" binding:"required"`
	Category          string          `json:"category"`
	AvailableQuantity int             `json:"available_quantity"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
}

// GetItem returns a display snapshot of the item, served from cache when possible.
func (s *ItemService) GetItem(ctx context.Context, itemID string) (*models.Item, error) {
	ctx, span := util.StartSpan(ctx, "ItemService.GetItem")
	defer span.End()

	if s.cache != nil {
		cached, err := s.cache.GetItem(ctx, itemID)
		switch {
		case err != nil:
			util.ItemCacheLookupsTotal.WithLabelValues("error").Inc()
			s.logger.Warn("Item cache read failed", zap.String("item_id", itemID), zap.Error(err))
		case cached != nil:
			util.ItemCacheLookupsTotal.WithLabelValues("hit").Inc()
			return cached, nil
		default:
			util.ItemCacheLookupsTotal.WithLabelValues("miss").Inc()
		}
	}

	item, err := s.items.GetItemByID(ctx, itemID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetItem(ctx, item); err != nil {
			s.logger.Warn("Failed to cache item", zap.String("item_id", itemID), zap.Error(err))
		}
	}
	return item, nil
}

func (s *ItemService) CreateItem(ctx context.Context, req *CreateItemRequest) (*models.Item, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidItem)
	}
	if req.AvailableQuantity < 0 {
		return nil, fmt.Errorf("%w: available_quantity must be non-negative, got %d", ErrInvalidQuantity, req.AvailableQuantity)
	}
	if !req.UnitPrice.IsPositive() {
		return nil, fmt.Errorf("%w: unit_price must be positive, got %s", ErrInvalidPrice, req.UnitPrice)
	}

	item := &models.Item{
		ID:                uuid.New().String(),
		Name:              name,
		Category:          req.Category,
		AvailableQuantity: req.AvailableQuantity,
		UnitPrice:         req.UnitPrice,
	}

	if err := s.items.CreateItem(ctx, item); err != nil {
		return nil, s.translateWriteError(item.ID, err)
	}

	util.ItemWritesTotal.WithLabelValues("create").Inc()
	s.logger.Info("Item created",
		zap.String("item_id", item.ID),
		zap.String("name", item.Name),
		zap.Int("available_quantity", item.AvailableQuantity))
	return item, nil
}

// UpdateItem overwrites the fields set in patch, including the stock level.
func (s *ItemService) UpdateItem(ctx context.Context, itemID string, patch models.ItemPatch) (*models.Item, error) {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, fmt.Errorf("%w: name must not be empty", ErrInvalidItem)
	}
	if patch.AvailableQuantity != nil && *patch.AvailableQuantity < 0 {
		return nil, fmt.Errorf("%w: available_quantity must be non-negative, got %d", ErrInvalidQuantity, *patch.AvailableQuantity)
	}
	if patch.UnitPrice != nil && !patch.UnitPrice.IsPositive() {
		return nil, fmt.Errorf("%w: unit_price must be positive, got %s", ErrInvalidPrice, patch.UnitPrice)
	}

	item, err := s.items.UpdateItem(ctx, itemID, patch)
	if err != nil {
		return nil, s.translateWriteError(itemID, err)
	}

	util.ItemWritesTotal.WithLabelValues("update").Inc()
	s.afterWrite(ctx, models.EventTypeItemUpdated, item.ID, item.AvailableQuantity, 0)
	return item, nil
}

// Restock adds delta units to the item's stock.
func (s *ItemService) Restock(ctx context.Context, itemID string, delta int) (*models.Item, error) {
	if delta <= 0 {
		return nil, fmt.Errorf("%w: restock quantity must be at least 1, got %d", ErrInvalidQuantity, delta)
	}

	item, err := s.items.RestockItem(ctx, itemID, delta)
	if err != nil {
		return nil, s.translateWriteError(itemID, err)
	}

	util.ItemWritesTotal.WithLabelValues("restock").Inc()
	s.afterWrite(ctx, models.EventTypeItemRestocked, item.ID, item.AvailableQuantity, delta)
	return item, nil
}

// DeleteItem removes the item. Journaled orders referencing it are kept.
func (s *ItemService) DeleteItem(ctx context.Context, itemID string) error {
	if err := s.items.DeleteItem(ctx, itemID); err != nil {
		return s.translateWriteError(itemID, err)
	}

	util.ItemWritesTotal.WithLabelValues("delete").Inc()
	s.afterWrite(ctx, models.EventTypeItemDeleted, itemID, 0, 0)
	return nil
}

func (s *ItemService) translateWriteError(itemID string, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	case errors.Is(err, store.ErrNegativeQuantity):
		return fmt.Errorf("%w: %w", ErrInvalidQuantity, err)
	case errors.Is(err, store.ErrNonPositivePrice):
		return fmt.Errorf("%w: %w", ErrInvalidPrice, err)
	case errors.Is(err, store.ErrDuplicate):
		return fmt.Errorf("%w: %w", ErrDuplicateItem, err)
	}
	return fmt.Errorf("failed to write item: %w", err)
}

func (s *ItemService) afterWrite(ctx context.Context, eventType, itemID string, available, delta int) {
	if s.cache != nil {
		if err := s.cache.InvalidateItem(ctx, itemID); err != nil {
			s.logger.Warn("Failed to invalidate cached item", zap.String("item_id", itemID), zap.Error(err))
		}
	}

	s.logger.Info("Item changed",
		zap.String("event_type", eventType),
		zap.String("item_id", itemID),
		zap.Int("available_quantity", available))

	if s.events == nil {
		return
	}

	event := &models.ItemEvent{
		BaseEvent:         models.NewBaseEvent(eventType),
		ItemID:            itemID,
		AvailableQuantity: available,
		Delta:             delta,
	}
	if err := s.events.PublishItemEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish item event",
			zap.String("event_type", eventType),
			zap.String("item_id", itemID),
			zap.Error(err))
	}
}
