package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/carcino/internal/cart"
	"github.com/example/carcino/internal/catalog"
	"github.com/example/carcino/internal/order"
)

// CartHandler manages the session cart and wishlist.
type CartHandler struct {
	catalog *catalog.Catalog
}

// NewCartHandler constructs CartHandler.
func NewCartHandler(cat *catalog.Catalog) *CartHandler {
	return &CartHandler{catalog: cat}
}

type cartItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

func cartView(c *cart.Cart) fiber.Map {
	return fiber.Map{
		"items":    c.Items(),
		"count":    c.Count(),
		"subtotal": c.Subtotal(),
		"quote":    order.NewQuote(c.Subtotal()),
	}
}

// GetCart returns the cart with its price quote.
func (h *CartHandler) GetCart(c *fiber.Ctx) error {
	s, err := currentSession(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": cartView(s.Cart())})
}

// AddItem adds a catalog product to the cart.
func (h *CartHandler) AddItem(c *fiber.Ctx) error {
	var req cartItemRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	product, ok := h.catalog.Product(req.ProductID)
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "product not found")
	}
	if !product.InStock {
		return fiber.NewError(fiber.StatusConflict, "product is out of stock")
	}

	s, err := currentSession(c)
	if err != nil {
		return err
	}

	crt := s.Cart()
	crt.AddItem(cart.LineItem{
		ID:          product.ID,
		Name:        product.Name,
		UnitPrice:   product.Price,
		ImageRef:    product.Image,
		Description: product.Description,
	}, req.Quantity)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": cartView(crt)})
}

// UpdateItem sets the quantity of a cart line. Zero or less removes it.
func (h *CartHandler) UpdateItem(c *fiber.Ctx) error {
	var req quantityRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	s, err := currentSession(c)
	if err != nil {
		return err
	}

	crt := s.Cart()
	if !crt.Contains(c.Params("id")) {
		return fiber.NewError(fiber.StatusNotFound, "item not in cart")
	}
	crt.UpdateQuantity(c.Params("id"), req.Quantity)

	return c.JSON(fiber.Map{"success": true, "data": cartView(crt)})
}

// RemoveItem drops a line from the cart.
func (h *CartHandler) RemoveItem(c *fiber.Ctx) error {
	s, err := currentSession(c)
	if err != nil {
		return err
	}

	crt := s.Cart()
	crt.RemoveItem(c.Params("id"))
	return c.JSON(fiber.Map{"success": true, "data": cartView(crt)})
}

// ClearCart empties the cart.
func (h *CartHandler) ClearCart(c *fiber.Ctx) error {
	s, err := currentSession(c)
	if err != nil {
		return err
	}

	crt := s.Cart()
	crt.Clear()
	return c.JSON(fiber.Map{"success": true, "data": cartView(crt)})
}

// GetWishlist lists saved products.
func (h *CartHandler) GetWishlist(c *fiber.Ctx) error {
	s, err := currentSession(c)
	if err != nil {
		return err
	}

	w := s.Wishlist()
	return c.JSON(fiber.Map{"success": true, "data": w.Items(), "count": w.Count()})
}

// AddWishlistItem saves a catalog product for later.
func (h *CartHandler) AddWishlistItem(c *fiber.Ctx) error {
	var req cartItemRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	product, ok := h.catalog.Product(req.ProductID)
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "product not found")
	}

	s, err := currentSession(c)
	if err != nil {
		return err
	}

	w := s.Wishlist()
	added := w.Add(cart.WishlistItem{
		ID:          product.ID,
		Name:        product.Name,
		Price:       product.Price,
		ImageRef:    product.Image,
		Description: product.Description,
	})

	status := fiber.StatusCreated
	if !added {
		status = fiber.StatusOK
	}
	return c.Status(status).JSON(fiber.Map{"success": true, "added": added, "data": w.Items(), "count": w.Count()})
}

// RemoveWishlistItem drops a saved product.
func (h *CartHandler) RemoveWishlistItem(c *fiber.Ctx) error {
	s, err := currentSession(c)
	if err != nil {
		return err
	}

	w := s.Wishlist()
	w.Remove(c.Params("id"))
	return c.JSON(fiber.Map{"success": true, "data": w.Items(), "count": w.Count()})
}

// ClearWishlist removes every saved product.
func (h *CartHandler) ClearWishlist(c *fiber.Ctx) error {
	s, err := currentSession(c)
	if err != nil {
		return err
	}

	w := s.Wishlist()
	w.Clear()
	return c.JSON(fiber.Map{"success": true, "data": w.Items(), "count": 0})
}

// MoveWishlistItemToCart adds a saved product to the cart and removes it
// from the wishlist.
func (h *CartHandler) MoveWishlistItemToCart(c *fiber.Ctx) error {
	s, err := currentSession(c)
	if err != nil {
		return err
	}

	w := s.Wishlist()
	id := c.Params("id")
	var saved *cart.WishlistItem
	for _, item := range w.Items() {
		if item.ID == id {
			item := item
			saved = &item
			break
		}
	}
	if saved == nil {
		return fiber.NewError(fiber.StatusNotFound, "item not in wishlist")
	}

	crt := s.Cart()
	crt.AddItem(cart.LineItem{
		ID:          saved.ID,
		Name:        saved.Name,
		UnitPrice:   saved.Price,
		ImageRef:    saved.ImageRef,
		Description: saved.Description,
	}, 1)
	w.Remove(id)

	return c.JSON(fiber.Map{"success": true, "data": cartView(crt), "wishlist": w.Items()})
}
