package store

import (
	"sync"

	"storiofy/pkg/domain"
)

// CartStore holds the line items the visitor intends to purchase, in
// insertion order. It is volatile by design: nothing is written to durable
// storage, so a fresh process (page reload) starts with an empty cart.
type CartStore struct {
	mu    sync.RWMutex
	items []domain.CartItem
}

// NewCartStore initializes an empty cart.
func NewCartStore() *CartStore {
	return &CartStore{}
}

// AddItem appends item, or when a line with the same ID already exists, adds
// the incoming quantity to it. The existing line keeps its position and its
// other fields; IDs stay unique across the sequence.
func (c *CartStore) AddItem(item domain.CartItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.items[i].ID == item.ID {
			c.items[i].Quantity += item.Quantity
			return
		}
	}
	c.items = append(c.items, item)
}

// RemoveItem deletes the line with the given ID. Unknown IDs are a no-op.
func (c *CartStore) RemoveItem(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.items[i].ID == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return
		}
	}
}

// UpdateQuantity replaces the quantity of the line with the given ID. Unknown
// IDs are a no-op. The value is stored as given: zero and negative quantities
// are accepted, matching the storefront's permissive behavior.
func (c *CartStore) UpdateQuantity(id string, quantity int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.items[i].ID == id {
			c.items[i].Quantity = quantity
			return
		}
	}
}

// Clear empties the cart. Idempotent.
func (c *CartStore) Clear() {
	c.mu.Lock()
	c.items = nil
	c.mu.Unlock()
}

// ItemCount returns the sum of quantities across all lines, 0 when empty.
// Computed on demand; never cached.
func (c *CartStore) ItemCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	total := 0
	for _, item := range c.items {
		total += item.Quantity
	}
	return total
}

// Items returns a copy of the lines in insertion order.
func (c *CartStore) Items() []domain.CartItem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.CartItem, len(c.items))
	copy(out, c.items)
	return out
}
