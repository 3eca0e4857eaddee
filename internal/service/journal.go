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

// OrderJournal is the append-only record of completed purchases.
type OrderJournal struct {
	orders  OrderRepository
	timeout time.Duration
	logger  *zap.Logger
}

// NewOrderJournal creates a journal whose appends are bounded by timeout.
func NewOrderJournal(orders OrderRepository, timeout time.Duration) *OrderJournal {
	return &OrderJournal{
		orders:  orders,
		timeout: timeout,
		logger:  util.GetLogger(),
	}
}

// Append records order. It ignores ctx's cancellation and is bounded only by
// the journal timeout.
func (j *OrderJournal) Append(ctx context.Context, order *models.Order) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), j.timeout)
	defer cancel()

	ctx, span := util.StartSpan(ctx, "OrderJournal.Append",
		attribute.String("item_id", order.ItemID),
		attribute.String("buyer_id", order.BuyerID))
	defer span.End()

	if order.ID != 0 {
		return fmt.Errorf("%w: order %d already journaled", ErrJournalWrite, order.ID)
	}

	if err := j.orders.AppendOrder(ctx, order); err != nil {
		util.RecordError(span, err)
		return fmt.Errorf("%w: %w", ErrJournalWrite, err)
	}

	j.logger.Debug("Order journaled",
		zap.Int64("order_id", order.ID),
		zap.String("item_id", order.ItemID))
	return nil
}

// ListByBuyer returns buyerID's orders, newest first.
func (j *OrderJournal) ListByBuyer(ctx context.Context, buyerID string) ([]models.Order, error) {
	if buyerID == "" {
		return nil, fmt.Errorf("%w: buyer id is required", ErrInvalidBuyer)
	}

	orders, err := j.orders.ListOrdersByBuyer(ctx, buyerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func (j *OrderJournal) Get(ctx context.Context, orderID int64) (*models.Order, error) {
	order, err := j.orders.GetOrderByID(ctx, orderID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %d", ErrOrderNotFound, orderID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return order, nil
}
