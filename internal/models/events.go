package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types
const (
	EventTypeOrderCompleted     = "ORDER_COMPLETED"
	EventTypeJournalWriteFailed = "JOURNAL_WRITE_FAILED"
	EventTypeItemUpdated        = "ITEM_UPDATED"
	EventTypeItemRestocked      = "ITEM_RESTOCKED"
	EventTypeItemDeleted        = "ITEM_DELETED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

func NewBaseEvent(eventType string) BaseEvent {
	return BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now().UTC(),
	}
}

// PurchaseEvent is published after a committed decrement. OrderID is zero
// when the journal write failed.
type PurchaseEvent struct {
	BaseEvent
	OrderID           int64           `json:"order_id,omitempty"`
	ItemID            string          `json:"item_id"`
	BuyerID           string          `json:"buyer_id"`
	Quantity          int             `json:"quantity"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	RemainingQuantity int             `json:"remaining_quantity"`
	Reason            string          `json:"reason,omitempty"`
}

// ItemEvent is published after an administrative item write.
type ItemEvent struct {
	BaseEvent
	ItemID            string `json:"item_id"`
	AvailableQuantity int    `json:"available_quantity"`
	Delta             int    `json:"delta,omitempty"`
}
