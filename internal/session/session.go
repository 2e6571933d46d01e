// Package session wires a session's persisted store to the cart, wishlist,
// medical history and checkout aggregates.
package session

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/example/carcino/internal/cart"
	"github.com/example/carcino/internal/checkout"
	"github.com/example/carcino/internal/history"
	"github.com/example/carcino/internal/order"
	"github.com/example/carcino/internal/store"
)

// NewID returns a fresh anonymous session id.
func NewID() string {
	return uuid.NewString()
}

// Manager opens sessions over a store registry.
type Manager struct {
	registry *store.Registry
	gateway  checkout.Gateway
	now      func() time.Time
}

// NewManager builds a Manager charging payments through gateway.
func NewManager(registry *store.Registry, gateway checkout.Gateway) *Manager {
	return &Manager{registry: registry, gateway: gateway, now: time.Now}
}

// Open returns the session with id. Aggregates are rebuilt from the store on each
// call, so concurrent requests of one session race with last write wins.
func (m *Manager) Open(ctx context.Context, id string) *Session {
	return &Session{
		ID:      id,
		ctx:     ctx,
		store:   m.registry.Open(id),
		gateway: m.gateway,
		now:     m.now,
	}
}

// Session is the state of one browser session for the duration of a request.
type Session struct {
	ID string

	ctx     context.Context
	store   *store.Store
	gateway checkout.Gateway
	now     func() time.Time
}

// Degraded reports whether the session fell back to memory-only storage.
func (s *Session) Degraded() bool {
	return s.store.Degraded()
}

func (s *Session) Cart() *cart.Cart {
	items := store.Load(s.ctx, s.store, store.KeyCart, []cart.LineItem(nil))
	return cart.New(items, cart.PersisterFunc(func(items []cart.LineItem) {
		store.Save(s.ctx, s.store, store.KeyCart, items)
	}))
}

func (s *Session) Wishlist() *cart.Wishlist {
	items := store.Load(s.ctx, s.store, store.KeyWishlist, []cart.WishlistItem(nil))
	return cart.NewWishlist(items, func(items []cart.WishlistItem) {
		store.Save(s.ctx, s.store, store.KeyWishlist, items)
	})
}

func (s *Session) History() *history.Log {
	items := store.Load(s.ctx, s.store, store.KeyHistory, []history.Item(nil))
	return history.NewLog(items, func(items []history.Item) {
		store.Save(s.ctx, s.store, store.KeyHistory, items)
	})
}

// Address returns the transient delivery address, or nil.
func (s *Session) Address() *order.DeliveryAddress {
	return store.Load[*order.DeliveryAddress](s.ctx, s.store, store.KeyAddress, nil)
}

// CurrentOrder returns the last completed order.
func (s *Session) CurrentOrder() (order.Record, bool) {
	record := store.Load(s.ctx, s.store, store.KeyCurrentOrder, order.Record{})
	return record, record.OrderID != ""
}

// Checkout resumes the session's checkout over a freshly loaded cart.
func (s *Session) Checkout(opts ...checkout.Option) *checkout.Sequencer {
	snapshot := store.Load(s.ctx, s.store, store.KeyCheckoutState, checkout.Snapshot{})
	return checkout.NewSequencer(
		snapshot.Resume(s.now()),
		s.Cart(),
		s.Address(),
		persistence{s},
		s.gateway,
		append([]checkout.Option{checkout.WithClock(s.now)}, opts...)...,
	)
}

type persistence struct {
	s *Session
}

func (p persistence) SaveState(snapshot checkout.Snapshot) {
	store.Save(p.s.ctx, p.s.store, store.KeyCheckoutState, snapshot)
}

func (p persistence) SaveAddress(addr *order.DeliveryAddress) {
	if addr == nil {
		p.s.store.Delete(p.s.ctx, store.KeyAddress)
		return
	}
	store.Save(p.s.ctx, p.s.store, store.KeyAddress, addr)
}

func (p persistence) SaveOrder(record order.Record) {
	store.Save(p.s.ctx, p.s.store, store.KeyCurrentOrder, record)
}
