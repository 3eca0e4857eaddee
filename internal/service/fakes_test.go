package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"inventory-service/internal/models"
	"inventory-service/internal/store"
)

// memStore mimics the Postgres store: ConditionalDecrement checks and writes
// under one lock, the way the UPDATE ... WHERE statement does.
type memStore struct {
	mu          sync.Mutex
	items       map[string]models.Item
	orders      []models.Order
	nextOrderID int64

	appendErr       error
	reloadErr       error
	getCalls        int
	decrementCalls  int
	beforeDecrement func()
}

func newMemStore(items ...models.Item) *memStore {
	s := &memStore{items: make(map[string]models.Item)}
	for _, item := range items {
		s.items[item.ID] = item
	}
	return s
}

func (s *memStore) GetItemByID(_ context.Context, id string) (*models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.getCalls++
	if s.reloadErr != nil && s.getCalls > 1 {
		return nil, s.reloadErr
	}

	item, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("item %s: %w", id, store.ErrNotFound)
	}
	return &item, nil
}

func (s *memStore) ConditionalDecrement(_ context.Context, itemID string, quantity int) (int64, error) {
	if s.beforeDecrement != nil {
		s.beforeDecrement()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.decrementCalls++
	item, ok := s.items[itemID]
	if !ok || item.AvailableQuantity < quantity {
		return 0, nil
	}
	item.AvailableQuantity -= quantity
	s.items[itemID] = item
	return 1, nil
}

func (s *memStore) CreateItem(_ context.Context, item *models.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.items {
		if existing.Name == item.Name {
			return fmt.Errorf("create item: %w: items_name_key", store.ErrDuplicate)
		}
	}
	item.CreatedAt = time.Now()
	item.UpdatedAt = item.CreatedAt
	s.items[item.ID] = *item
	return nil
}

func (s *memStore) UpdateItem(_ context.Context, id string, patch models.ItemPatch) (*models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("item %s: %w", id, store.ErrNotFound)
	}
	if patch.Name != nil {
		item.Name = *patch.Name
	}
	if patch.Category != nil {
		item.Category = *patch.Category
	}
	if patch.AvailableQuantity != nil {
		if *patch.AvailableQuantity < 0 {
			return nil, store.ErrNegativeQuantity
		}
		item.AvailableQuantity = *patch.AvailableQuantity
	}
	if patch.UnitPrice != nil {
		item.UnitPrice = *patch.UnitPrice
	}
	s.items[id] = item
	return &item, nil
}

func (s *memStore) RestockItem(_ context.Context, id string, delta int) (*models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("item %s: %w", id, store.ErrNotFound)
	}
	item.AvailableQuantity += delta
	s.items[id] = item
	return &item, nil
}

func (s *memStore) DeleteItem(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return fmt.Errorf("item %s: %w", id, store.ErrNotFound)
	}
	delete(s.items, id)
	return nil
}

func (s *memStore) AppendOrder(_ context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.appendErr != nil {
		return s.appendErr
	}
	s.nextOrderID++
	order.ID = s.nextOrderID
	order.CreatedAt = time.Now()
	s.orders = append(s.orders, *order)
	return nil
}

func (s *memStore) GetOrderByID(_ context.Context, id int64) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, o := range s.orders {
		if o.ID == id {
			return &o, nil
		}
	}
	return nil, fmt.Errorf("order %d: %w", id, store.ErrNotFound)
}

func (s *memStore) ListOrdersByBuyer(_ context.Context, buyerID string) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	orders := []models.Order{}
	for _, o := range s.orders {
		if o.BuyerID == buyerID {
			orders = append(orders, o)
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID > orders[j].ID })
	return orders, nil
}

func (s *memStore) quantity(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items[id].AvailableQuantity
}

func (s *memStore) orderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

func (s *memStore) soldUnits(itemID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, o := range s.orders {
		if o.ItemID == itemID {
			total += o.Quantity
		}
	}
	return total
}

type fakeCache struct {
	mu          sync.Mutex
	items       map[string]models.Item
	invalidated []string
	getErr      error
}

func newFakeCache() *fakeCache {
	return &fakeCache{items: make(map[string]models.Item)}
}

func (c *fakeCache) GetItem(_ context.Context, itemID string) (*models.Item, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.getErr != nil {
		return nil, c.getErr
	}
	item, ok := c.items[itemID]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (c *fakeCache) SetItem(_ context.Context, item *models.Item) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[item.ID] = *item
	return nil
}

func (c *fakeCache) InvalidateItem(_ context.Context, itemID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, itemID)
	c.invalidated = append(c.invalidated, itemID)
	return nil
}

type fakePublisher struct {
	mu         sync.Mutex
	purchases  []*models.PurchaseEvent
	itemEvents []*models.ItemEvent
	err        error
}

func (p *fakePublisher) PublishPurchase(_ context.Context, event *models.PurchaseEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.purchases = append(p.purchases, event)
	return p.err
}

func (p *fakePublisher) PublishItemEvent(_ context.Context, event *models.ItemEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.itemEvents = append(p.itemEvents, event)
	return p.err
}

func (p *fakePublisher) purchaseTypes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	types := make([]string, 0, len(p.purchases))
	for _, e := range p.purchases {
		types = append(types, e.EventType)
	}
	return types
}

var errStorageDown = errors.New("storage down")

const defaultTestJournalTimeout = time.Second
