package store

import (
	"reflect"
	"testing"

	"storiofy/pkg/domain"
)

func TestAddItemMergesByLineID(t *testing.T) {
	c := NewCartStore()
	c.AddItem(domain.CartItem{ID: "line-1", BookID: "book-a", Quantity: 1})
	c.AddItem(domain.CartItem{ID: "line-2", BookID: "book-b", Quantity: 2})
	c.AddItem(domain.CartItem{ID: "line-1", BookID: "book-ignored", Quantity: 3})

	items := c.Items()
	if len(items) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(items))
	}
	if items[0].ID != "line-1" || items[1].ID != "line-2" {
		t.Fatalf("order not preserved: %+v", items)
	}
	if items[0].Quantity != 4 {
		t.Fatalf("expected merged quantity 4, got %d", items[0].Quantity)
	}
	// Only quantity is summed on merge; other fields keep their first value.
	if items[0].BookID != "book-a" {
		t.Fatalf("merge must not overwrite fields, got bookId %q", items[0].BookID)
	}
	if c.ItemCount() != 6 {
		t.Fatalf("expected item count 6, got %d", c.ItemCount())
	}
}

func TestSameBookUnderDistinctLineIDs(t *testing.T) {
	c := NewCartStore()
	c.AddItem(domain.CartItem{ID: "line-1", BookID: "book-a", Quantity: 1})
	c.AddItem(domain.CartItem{ID: "line-2", BookID: "book-a", Quantity: 1})
	if len(c.Items()) != 2 {
		t.Fatalf("distinct line IDs must not merge even for the same book")
	}
}

func TestRemoveItem(t *testing.T) {
	c := NewCartStore()
	c.AddItem(domain.CartItem{ID: "line-1", Quantity: 1})
	c.AddItem(domain.CartItem{ID: "line-2", Quantity: 2})
	c.AddItem(domain.CartItem{ID: "line-3", Quantity: 3})

	c.RemoveItem("line-2")
	items := c.Items()
	if len(items) != 2 || items[0].ID != "line-1" || items[1].ID != "line-3" {
		t.Fatalf("unexpected items after remove: %+v", items)
	}

	before := c.Items()
	c.RemoveItem("no-such-line")
	if !reflect.DeepEqual(before, c.Items()) {
		t.Fatalf("removing an unknown line must be a no-op")
	}
}

func TestUpdateQuantity(t *testing.T) {
	c := NewCartStore()
	c.AddItem(domain.CartItem{ID: "line-1", Quantity: 2})

	c.UpdateQuantity("line-1", 5)
	if c.Items()[0].Quantity != 5 {
		t.Fatalf("expected quantity 5, got %d", c.Items()[0].Quantity)
	}

	c.UpdateQuantity("no-such-line", 9)
	if len(c.Items()) != 1 || c.Items()[0].Quantity != 5 {
		t.Fatalf("updating an unknown line must be a no-op")
	}
}

func TestUpdateQuantityAcceptsNonPositiveValues(t *testing.T) {
	// Observed storefront behavior: the store does not validate quantity.
	c := NewCartStore()
	c.AddItem(domain.CartItem{ID: "line-1", Quantity: 2})

	c.UpdateQuantity("line-1", 0)
	if got := c.Items()[0].Quantity; got != 0 {
		t.Fatalf("expected stored quantity 0, got %d", got)
	}
	c.UpdateQuantity("line-1", -3)
	if got := c.Items()[0].Quantity; got != -3 {
		t.Fatalf("expected stored quantity -3, got %d", got)
	}
	if c.ItemCount() != -3 {
		t.Fatalf("item count reflects stored quantities, got %d", c.ItemCount())
	}
}

func TestClear(t *testing.T) {
	c := NewCartStore()
	c.AddItem(domain.CartItem{ID: "line-1", Quantity: 4})
	c.AddItem(domain.CartItem{ID: "line-2", Quantity: 1})

	c.Clear()
	if c.ItemCount() != 0 || len(c.Items()) != 0 {
		t.Fatalf("expected empty cart after clear")
	}
	c.Clear()
	if c.ItemCount() != 0 {
		t.Fatalf("clear must be idempotent")
	}
}

func TestItemCountEmptyCart(t *testing.T) {
	if NewCartStore().ItemCount() != 0 {
		t.Fatalf("empty cart must count 0")
	}
}
