// Package store persists small JSON documents per browser session. It stands
// in for the browser's local storage: reads and writes never fail the caller,
// and a backend that stops accepting writes degrades the session to memory.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by a Backend when the key holds no value.
var ErrNotFound = errors.New("store: key not found")

// Backend is the durable side of a Store.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Keys shared by every session.
const (
	KeyCart          = "dermasense-cart"
	KeyWishlist      = "dermasense-wishlist"
	KeyHistory       = "medical-history"
	KeyAddress       = "deliveryAddress"
	KeyCurrentOrder  = "currentOrder"
	KeyCheckoutState = "checkout-state"
)
