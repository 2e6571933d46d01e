package cart

import "github.com/shopspring/decimal"

// WishlistItem is a product saved for later.
type WishlistItem struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	ImageRef    string          `json:"image,omitempty"`
	Description string          `json:"description,omitempty"`
}

// Wishlist is an ordered set of products keyed by id.
type Wishlist struct {
	items   []WishlistItem
	persist func([]WishlistItem)
}

// NewWishlist builds a wishlist from persisted items, dropping duplicates.
// persist, when non-nil, is called with the full list after every change.
func NewWishlist(items []WishlistItem, persist func([]WishlistItem)) *Wishlist {
	w := &Wishlist{persist: persist}
	for _, item := range items {
		if item.ID != "" && !w.Contains(item.ID) {
			w.items = append(w.items, item)
		}
	}
	return w
}

// Add saves item unless its id is already present.
func (w *Wishlist) Add(item WishlistItem) bool {
	if w.Contains(item.ID) {
		return false
	}
	w.items = append(w.items, item)
	w.save()
	return true
}

// Remove drops id; absent ids are ignored.
func (w *Wishlist) Remove(id string) {
	for i, item := range w.items {
		if item.ID == id {
			w.items = append(w.items[:i], w.items[i+1:]...)
			w.save()
			return
		}
	}
}

func (w *Wishlist) Clear() {
	w.items = nil
	w.save()
}

func (w *Wishlist) Contains(id string) bool {
	for _, item := range w.items {
		if item.ID == id {
			return true
		}
	}
	return false
}

func (w *Wishlist) Count() int {
	return len(w.items)
}

// Items returns a copy of the saved products.
func (w *Wishlist) Items() []WishlistItem {
	out := make([]WishlistItem, len(w.items))
	copy(out, w.items)
	return out
}

func (w *Wishlist) save() {
	if w.persist != nil {
		w.persist(w.Items())
	}
}
