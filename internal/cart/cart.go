// Package cart holds the shopping cart and wishlist aggregates of a session.
package cart

import (
	"github.com/shopspring/decimal"
)

// LineItem is one product entry of the cart.
type LineItem struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	UnitPrice   decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	ImageRef    string          `json:"image,omitempty"`
	Description string          `json:"description,omitempty"`
}

// Total returns UnitPrice x Quantity.
func (li LineItem) Total() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Persister receives the full item list after every mutation.
type Persister interface {
	Persist(items []LineItem)
}

// PersisterFunc adapts a function to Persister.
type PersisterFunc func(items []LineItem)

func (f PersisterFunc) Persist(items []LineItem) {
	f(items)
}

// Cart is an ordered collection of line items keyed by product id.
// It is not safe for concurrent use.
type Cart struct {
	items     []LineItem
	persister Persister
}

// New builds a cart from previously persisted items. Entries with an empty id
// or a quantity below 1 are dropped, and duplicate ids are merged.
func New(items []LineItem, persister Persister) *Cart {
	c := &Cart{persister: persister}
	for _, item := range items {
		if item.ID == "" || item.Quantity < 1 {
			continue
		}
		if i := c.indexOf(item.ID); i >= 0 {
			c.items[i].Quantity += item.Quantity
			continue
		}
		c.items = append(c.items, item)
	}
	return c
}

// AddItem appends item or, when its id is already present, increases the
// stored quantity keeping the stored name and price. A quantity below 1 adds one.
func (c *Cart) AddItem(item LineItem, quantity int) {
	if quantity < 1 {
		quantity = 1
	}

	if i := c.indexOf(item.ID); i >= 0 {
		c.items[i].Quantity += quantity
	} else {
		item.Quantity = quantity
		c.items = append(c.items, item)
	}
	c.persist()
}

// RemoveItem drops the entry with id. Removing an absent id is a no-op.
func (c *Cart) RemoveItem(id string) {
	i := c.indexOf(id)
	if i < 0 {
		return
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
	c.persist()
}

// UpdateQuantity sets the quantity of id exactly; quantity <= 0 removes it.
func (c *Cart) UpdateQuantity(id string, quantity int) {
	if quantity <= 0 {
		c.RemoveItem(id)
		return
	}

	i := c.indexOf(id)
	if i < 0 {
		return
	}
	c.items[i].Quantity = quantity
	c.persist()
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.items = nil
	c.persist()
}

// Contains reports whether id is in the cart.
func (c *Cart) Contains(id string) bool {
	return c.indexOf(id) >= 0
}

// Items returns a copy of the line items in insertion order.
func (c *Cart) Items() []LineItem {
	out := make([]LineItem, len(c.items))
	copy(out, c.items)
	return out
}

// Count is the sum of all quantities.
func (c *Cart) Count() int {
	count := 0
	for _, item := range c.items {
		count += item.Quantity
	}
	return count
}

// Subtotal is the sum of UnitPrice x Quantity over all items.
func (c *Cart) Subtotal() decimal.Decimal {
	subtotal := decimal.Zero
	for _, item := range c.items {
		subtotal = subtotal.Add(item.Total())
	}
	return subtotal
}

// IsEmpty reports whether the cart has no items.
func (c *Cart) IsEmpty() bool {
	return len(c.items) == 0
}

func (c *Cart) indexOf(id string) int {
	for i, item := range c.items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

func (c *Cart) persist() {
	if c.persister != nil {
		c.persister.Persist(c.Items())
	}
}
