package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"inventory-service/internal/broker"
	"inventory-service/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProjection struct {
	seen        map[string]bool
	sold        map[string]int64
	invalidated []string
	markErr     error
	incrErr     error
}

func newFakeProjection() *fakeProjection {
	return &fakeProjection{seen: map[string]bool{}, sold: map[string]int64{}}
}

func (p *fakeProjection) MarkEventProcessed(_ context.Context, eventID string) (bool, error) {
	if p.markErr != nil {
		return false, p.markErr
	}
	if p.seen[eventID] {
		return false, nil
	}
	p.seen[eventID] = true
	return true, nil
}

func (p *fakeProjection) IncrementSold(_ context.Context, itemID string, quantity int) (int64, error) {
	if p.incrErr != nil {
		return 0, p.incrErr
	}
	p.sold[itemID] += int64(quantity)
	return p.sold[itemID], nil
}

func (p *fakeProjection) InvalidateItem(_ context.Context, itemID string) error {
	p.invalidated = append(p.invalidated, itemID)
	return nil
}

// sliceSource replays fixed messages, then waits for cancellation.
type sliceSource struct {
	messages []kafka.Message
	errs     []error
	closed   bool
}

func (s *sliceSource) StartConsuming(ctx context.Context, handler broker.MessageHandler) error {
	for _, msg := range s.messages {
		s.errs = append(s.errs, handler(ctx, msg))
	}
	<-ctx.Done()
	return ctx.Err()
}

func (s *sliceSource) Close() error {
	s.closed = true
	return nil
}

func purchaseEvent(eventType, itemID string, qty int) *models.PurchaseEvent {
	return &models.PurchaseEvent{
		BaseEvent: models.NewBaseEvent(eventType),
		OrderID:   7,
		ItemID:    itemID,
		BuyerID:   "alice",
		Quantity:  qty,
		UnitPrice: decimal.NewFromInt(2),
	}
}

func message(t *testing.T, event interface{}) kafka.Message {
	t.Helper()
	raw, err := json.Marshal(event)
	require.NoError(t, err)
	return kafka.Message{Value: raw}
}

func TestHandlePurchase_CountsOncePerEvent(t *testing.T) {
	projection := newFakeProjection()
	sp := NewSalesProjector(&sliceSource{}, projection)
	event := purchaseEvent(models.EventTypeOrderCompleted, "a", 3)

	require.NoError(t, sp.HandlePurchase(context.Background(), event))
	require.NoError(t, sp.HandlePurchase(context.Background(), event))

	assert.Equal(t, int64(3), projection.sold["a"])
	assert.Equal(t, []string{"a"}, projection.invalidated)
}

func TestHandlePurchase_JournalFailureStillCountsUnits(t *testing.T) {
	projection := newFakeProjection()
	sp := NewSalesProjector(&sliceSource{}, projection)

	event := purchaseEvent(models.EventTypeJournalWriteFailed, "a", 2)
	event.OrderID = 0
	event.Reason = "disk full"

	require.NoError(t, sp.HandlePurchase(context.Background(), event))
	assert.Equal(t, int64(2), projection.sold["a"])
}

func TestHandlePurchase_Errors(t *testing.T) {
	projection := newFakeProjection()
	projection.markErr = errors.New("redis down")
	sp := NewSalesProjector(&sliceSource{}, projection)

	err := sp.HandlePurchase(context.Background(), purchaseEvent(models.EventTypeOrderCompleted, "a", 1))
	assert.ErrorIs(t, err, projection.markErr)

	projection.markErr = nil
	projection.incrErr = errors.New("incr failed")
	err = sp.HandlePurchase(context.Background(), purchaseEvent(models.EventTypeOrderCompleted, "a", 1))
	assert.ErrorIs(t, err, projection.incrErr)
}

func TestStart_RoutesMessages(t *testing.T) {
	projection := newFakeProjection()
	source := &sliceSource{messages: []kafka.Message{}}
	sp := NewSalesProjector(source, projection)

	source.messages = append(source.messages,
		message(t, purchaseEvent(models.EventTypeOrderCompleted, "a", 2)),
		message(t, purchaseEvent(models.EventTypeOrderCompleted, "a", 1)),
		message(t, &models.ItemEvent{
			BaseEvent:         models.NewBaseEvent(models.EventTypeItemRestocked),
			ItemID:            "b",
			AvailableQuantity: 10,
			Delta:             10,
		}),
		kafka.Message{Value: []byte("not json")},
	)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := sp.Start(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	require.Len(t, source.errs, 4)
	assert.NoError(t, source.errs[0])
	assert.NoError(t, source.errs[1])
	assert.NoError(t, source.errs[2])
	assert.Error(t, source.errs[3])

	assert.Equal(t, int64(3), projection.sold["a"])
	assert.Equal(t, []string{"a", "a", "b"}, projection.invalidated)

	require.NoError(t, sp.Stop())
	assert.True(t, source.closed)
}
