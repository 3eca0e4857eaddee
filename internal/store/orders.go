package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"inventory-service/internal/models"
)

const orderColumns = "id, item_id, item_name, quantity, unit_price, total, status, buyer_id, created_at"

// AppendOrder inserts order and fills in its id and created_at.
func (s *Store) AppendOrder(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO orders (item_id, item_name, quantity, unit_price, total, status, buyer_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := s.db.QueryRowxContext(ctx, query,
		order.ItemID, order.ItemName, order.Quantity, order.UnitPrice, order.Total, order.Status, order.BuyerID,
	).Scan(&order.ID, &order.CreatedAt)
	if err != nil {
		return fmt.Errorf("append order: %w", translateError(err))
	}
	return nil
}

func (s *Store) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT "+orderColumns+" FROM orders WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("order %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListOrdersByBuyer returns the buyer's orders newest first.
func (s *Store) ListOrdersByBuyer(ctx context.Context, buyerID string) ([]models.Order, error) {
	orders := []models.Order{}
	err := s.db.SelectContext(ctx, &orders,
		"SELECT "+orderColumns+" FROM orders WHERE buyer_id = $1 ORDER BY created_at DESC, id DESC", buyerID)
	if err != nil {
		return nil, err
	}
	return orders, nil
}
