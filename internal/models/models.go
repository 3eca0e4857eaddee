package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item is a sellable catalog entry and its available stock.
type Item struct {
	ID                string          `db:"id" json:"id"`
	Name              string          `db:"name" json:"name"`
	Category          string          `db:"category" json:"category,omitempty"`
	AvailableQuantity int             `db:"available_quantity" json:"available_quantity"`
	UnitPrice         decimal.Decimal `db:"unit_price" json:"unit_price"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time       `db:"updated_at" json:"updated_at"`
}

// Order is an immutable record of a completed purchase. Name and price are
// snapshots taken at purchase time.
type Order struct {
	ID        int64           `db:"id" json:"id"`
	ItemID    string          `db:"item_id" json:"item_id"`
	ItemName  string          `db:"item_name" json:"item_name"`
	Quantity  int             `db:"quantity" json:"quantity"`
	UnitPrice decimal.Decimal `db:"unit_price" json:"unit_price"`
	Total     decimal.Decimal `db:"total" json:"total"`
	Status    string          `db:"status" json:"status"`
	BuyerID   string          `db:"buyer_id" json:"buyer_id"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// Order statuses. Only completed is produced today.
const (
	OrderStatusCompleted = "completed"
	OrderStatusPending   = "pending"
	OrderStatusCancelled = "cancelled"
)

// NewCompletedOrder snapshots item into a completed order for quantity units.
func NewCompletedOrder(item *Item, quantity int, buyerID string) *Order {
	return &Order{
		ItemID:    item.ID,
		ItemName:  item.Name,
		Quantity:  quantity,
		UnitPrice: item.UnitPrice,
		Total:     item.UnitPrice.Mul(decimal.NewFromInt(int64(quantity))),
		Status:    OrderStatusCompleted,
		BuyerID:   buyerID,
	}
}

// ItemPatch carries an administrative overwrite. Nil fields are left unchanged.
type ItemPatch struct {
	Name              *string          `json:"name,omitempty"`
	Category          *string          `json:"category,omitempty"`
	AvailableQuantity *int             `json:"available_quantity,omitempty"`
	UnitPrice         *decimal.Decimal `json:"unit_price,omitempty"`
}
