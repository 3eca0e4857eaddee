package service

import (
	"context"

	"inventory-service/internal/models"
)

// StockStore is the storage primitive the purchase path relies on.
// ConditionalDecrement must check and write in one atomic storage operation.
type StockStore interface {
	GetItemByID(ctx context.Context, id string) (*models.Item, error)
	ConditionalDecrement(ctx context.Context, itemID string, quantity int) (int64, error)
}

type ItemRepository interface {
	StockStore
	CreateItem(ctx context.Context, item *models.Item) error
	UpdateItem(ctx context.Context, id string, patch models.ItemPatch) (*models.Item, error)
	RestockItem(ctx context.Context, id string, delta int) (*models.Item, error)
	DeleteItem(ctx context.Context, id string) error
}

type OrderRepository interface {
	AppendOrder(ctx context.Context, order *models.Order) error
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
	ListOrdersByBuyer(ctx context.Context, buyerID string) ([]models.Order, error)
}

// ItemCache holds display snapshots. It is never consulted for purchase decisions.
type ItemCache interface {
	GetItem(ctx context.Context, itemID string) (*models.Item, error)
	SetItem(ctx context.Context, item *models.Item) error
	InvalidateItem(ctx context.Context, itemID string) error
}

type EventPublisher interface {
	PublishPurchase(ctx context.Context, event *models.PurchaseEvent) error
	PublishItemEvent(ctx context.Context, event *models.ItemEvent) error
}
