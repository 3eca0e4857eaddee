package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"inventory-service/internal/models"
	"inventory-service/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventPublisher publishes inventory domain events keyed by item id.
type EventPublisher struct {
	producer *Producer
}

func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

func (ep *EventPublisher) PublishPurchase(ctx context.Context, event *models.PurchaseEvent) error {
	return ep.publish(ctx, event.ItemID, event.EventType, event)
}

func (ep *EventPublisher) PublishItemEvent(ctx context.Context, event *models.ItemEvent) error {
	return ep.publish(ctx, event.ItemID, event.EventType, event)
}

func (ep *EventPublisher) publish(ctx context.Context, itemID, eventType string, event interface{}) error {
	if err := ep.producer.PublishEvent(ctx, "item-"+itemID, event); err != nil {
		util.EventsPublishFailedTotal.WithLabelValues(eventType).Inc()
		return err
	}
	return nil
}

// EventHandler routes incoming events to registered callbacks.
type EventHandler struct {
	onPurchase    func(context.Context, *models.PurchaseEvent) error
	onItemChanged func(context.Context, *models.ItemEvent) error
	logger        *zap.Logger
}

func NewEventHandler() *EventHandler {
	return &EventHandler{logger: util.GetLogger()}
}

// OnPurchase registers a handler for ORDER_COMPLETED and JOURNAL_WRITE_FAILED events.
func (eh *EventHandler) OnPurchase(handler func(context.Context, *models.PurchaseEvent) error) {
	eh.onPurchase = handler
}

// OnItemChanged registers a handler for ITEM_UPDATED, ITEM_RESTOCKED and ITEM_DELETED events.
func (eh *EventHandler) OnItemChanged(handler func(context.Context, *models.ItemEvent) error) {
	eh.onItemChanged = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	eh.logger.Debug("Handling event",
		zap.String("type", baseEvent.EventType),
		zap.String("event_id", baseEvent.EventID))

	switch baseEvent.EventType {
	case models.EventTypeOrderCompleted, models.EventTypeJournalWriteFailed:
		if eh.onPurchase != nil {
			var event models.PurchaseEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal %s event: %w", baseEvent.EventType, err)
			}
			return eh.onPurchase(ctx, &event)
		}

	case models.EventTypeItemUpdated, models.EventTypeItemRestocked, models.EventTypeItemDeleted:
		if eh.onItemChanged != nil {
			var event models.ItemEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal %s event: %w", baseEvent.EventType, err)
			}
			return eh.onItemChanged(ctx, &event)
		}

	default:
		eh.logger.Warn("Unhandled event type", zap.String("type", baseEvent.EventType))
	}

	return nil
}
