package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"inventory-service/internal/models"
)

const itemColumns = "id, name, category, available_quantity, unit_price, created_at, updated_at"

func (s *Store) GetItemByID(ctx context.Context, id string) (*models.Item, error) {
	var item models.Item
	err := s.db.GetContext(ctx, &item, "SELECT "+itemColumns+" FROM items WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("item %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// ConditionalDecrement subtracts quantity from the item's stock only if at
// least quantity units are available at the moment of the write. The check and
// the write are one statement; the returned row count is 1 on success and 0
// when the row is missing or the stock was insufficient.
func (s *Store) ConditionalDecrement(ctx context.Context, itemID string, quantity int) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE items
		SET available_quantity = available_quantity - $2, updated_at = NOW()
		WHERE id = $1 AND available_quantity >= $2`,
		itemID, quantity)
	if err != nil {
		return 0, fmt.Errorf("conditional decrement: %w", translateError(err))
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("conditional decrement rows affected: %w", err)
	}
	return affected, nil
}

func (s *Store) CreateItem(ctx context.Context, item *models.Item) error {
	query := `
		INSERT INTO items (id, name, category, available_quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`

	err := s.db.QueryRowxContext(ctx, query,
		item.ID, item.Name, item.Category, item.AvailableQuantity, item.UnitPrice,
	).Scan(&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create item: %w", translateError(err))
	}
	return nil
}

// UpdateItem overwrites the non-nil fields of patch in a single statement.
func (s *Store) UpdateItem(ctx context.Context, id string, patch models.ItemPatch) (*models.Item, error) {
	query := `
		UPDATE items SET
			name = COALESCE($2, name),
			category = COALESCE($3, category),
			available_quantity = COALESCE($4, available_quantity),
			unit_price = COALESCE($5, unit_price),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + itemColumns

	var item models.Item
	err := s.db.GetContext(ctx, &item, query,
		id, patch.Name, patch.Category, patch.AvailableQuantity, patch.UnitPrice)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("item %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("update item: %w", translateError(err))
	}
	return &item, nil
}

// RestockItem adds delta units to the item's stock.
func (s *Store) RestockItem(ctx context.Context, id string, delta int) (*models.Item, error) {
	query := `
		UPDATE items
		SET available_quantity = available_quantity + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + itemColumns

	var item models.Item
	err := s.db.GetContext(ctx, &item, query, id, delta)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("item %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("restock item: %w", translateError(err))
	}
	return &item, nil
}

func (s *Store) DeleteItem(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM items WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("item %s: %w", id, ErrNotFound)
	}
	return nil
}
