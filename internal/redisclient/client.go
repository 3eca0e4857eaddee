package redisclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"inventory-service/internal/models"

	"github.com/go-redis/redis/v8"
)

const processedEventTTL = 24 * time.Hour

type Client struct {
	rdb     *redis.Client
	itemTTL time.Duration
}

// NewClient connects to Redis and verifies the connection.
func NewClient(addr, password string, db int, itemTTL time.Duration) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return New(rdb, itemTTL), nil
}

// New wraps an existing go-redis client.
func New(rdb *redis.Client, itemTTL time.Duration) *Client {
	return &Client{rdb: rdb, itemTTL: itemTTL}
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

func itemKey(itemID string) string {
	return fmt.Sprintf("item:%s", itemID)
}

func soldKey(itemID string) string {
	return fmt.Sprintf("sold:%s", itemID)
}

func eventKey(eventID string) string {
	return fmt.Sprintf("event:%s", eventID)
}

// GetItem returns the cached snapshot, or nil on a miss.
func (c *Client) GetItem(ctx context.Context, itemID string) (*models.Item, error) {
	raw, err := c.rdb.Get(ctx, itemKey(itemID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cached item: %w", err)
	}

	var item models.Item
	if err := json.Unmarshal([]byte(raw), &item); err != nil {
		return nil, fmt.Errorf("decode cached item: %w", err)
	}
	return &item, nil
}

// SetItem caches a display snapshot of item for the configured TTL.
func (c *Client) SetItem(ctx context.Context, item *models.Item) error {
	raw, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encode item: %w", err)
	}
	return c.rdb.Set(ctx, itemKey(item.ID), string(raw), c.itemTTL).Err()
}

func (c *Client) InvalidateItem(ctx context.Context, itemID string) error {
	return c.rdb.Del(ctx, itemKey(itemID)).Err()
}

// IncrementSold adds quantity to the item's sold-unit counter and returns the new total.
func (c *Client) IncrementSold(ctx context.Context, itemID string, quantity int) (int64, error) {
	return c.rdb.IncrBy(ctx, soldKey(itemID), int64(quantity)).Result()
}

func (c *Client) GetSold(ctx context.Context, itemID string) (int64, error) {
	n, err := c.rdb.Get(ctx, soldKey(itemID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

// MarkEventProcessed records eventID and reports whether it was seen for the first time.
func (c *Client) MarkEventProcessed(ctx context.Context, eventID string) (bool, error) {
	return c.rdb.SetNX(ctx, eventKey(eventID), 1, processedEventTTL).Result()
}
