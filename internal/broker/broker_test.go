package broker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"inventory-service/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	messages []kafka.Message
	err      error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func TestPublishPurchaseKeyedByItem(t *testing.T) {
	w := &recordingWriter{}
	publisher := NewEventPublisher(newProducer(w))

	event := &models.PurchaseEvent{
		BaseEvent: models.NewBaseEvent(models.EventTypeOrderCompleted),
		OrderID:   9,
		ItemID:    "item-1",
		BuyerID:   "buyer-1",
		Quantity:  2,
		UnitPrice: decimal.RequireFromString("4.25"),
	}

	require.NoError(t, publisher.PublishPurchase(context.Background(), event))
	require.Len(t, w.messages, 1)
	assert.Equal(t, "item-item-1", string(w.messages[0].Key))

	var decoded models.PurchaseEvent
	require.NoError(t, json.Unmarshal(w.messages[0].Value, &decoded))
	assert.Equal(t, int64(9), decoded.OrderID)
	assert.Equal(t, models.EventTypeOrderCompleted, decoded.EventType)
	assert.True(t, decoded.UnitPrice.Equal(event.UnitPrice))
}

func TestPublishWriterError(t *testing.T) {
	w := &recordingWriter{err: errors.New("broker down")}
	publisher := NewEventPublisher(newProducer(w))

	err := publisher.PublishItemEvent(context.Background(), &models.ItemEvent{
		BaseEvent: models.NewBaseEvent(models.EventTypeItemRestocked),
		ItemID:    "item-1",
	})

	assert.Error(t, err)
}

func marshalMessage(t *testing.T, v interface{}) kafka.Message {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return kafka.Message{Value: b}
}

func TestEventHandlerRouting(t *testing.T) {
	var purchases []*models.PurchaseEvent
	var itemEvents []*models.ItemEvent

	h := NewEventHandler()
	h.OnPurchase(func(_ context.Context, e *models.PurchaseEvent) error {
		purchases = append(purchases, e)
		return nil
	})
	h.OnItemChanged(func(_ context.Context, e *models.ItemEvent) error {
		itemEvents = append(itemEvents, e)
		return nil
	})

	ctx := context.Background()
	require.NoError(t, h.HandleMessage(ctx, marshalMessage(t, models.PurchaseEvent{
		BaseEvent: models.NewBaseEvent(models.EventTypeOrderCompleted), ItemID: "a", Quantity: 1,
	})))
	require.NoError(t, h.HandleMessage(ctx, marshalMessage(t, models.PurchaseEvent{
		BaseEvent: models.NewBaseEvent(models.EventTypeJournalWriteFailed), ItemID: "a", Quantity: 2,
	})))
	require.NoError(t, h.HandleMessage(ctx, marshalMessage(t, models.ItemEvent{
		BaseEvent: models.NewBaseEvent(models.EventTypeItemDeleted), ItemID: "b",
	})))
	require.NoError(t, h.HandleMessage(ctx, marshalMessage(t, models.BaseEvent{EventType: "SOMETHING_ELSE"})))

	require.Len(t, purchases, 2)
	assert.Equal(t, 2, purchases[1].Quantity)
	require.Len(t, itemEvents, 1)
	assert.Equal(t, "b", itemEvents[0].ItemID)
}

func TestEventHandlerMalformed(t *testing.T) {
	h := NewEventHandler()

	err := h.HandleMessage(context.Background(), kafka.Message{Value: []byte("{not json")})

	assert.Error(t, err)
}
