package handlers

import (
	"net/http"

	"github.com/01moynul/tshirtstore-golang/internal/middleware"
	"github.com/01moynul/tshirtstore-golang/internal/shop"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

//
// --- Cart Handlers (Login Required) ---
//

// AddToCartInput defines the JSON for adding an item to the cart.
// Quantity defaults to 1.
type AddToCartInput struct {
	ProductID int64 `json:"productId" binding:"required,min=1"`
	Quantity  *int  `json:"quantity"`
}

// AddToCart is the handler for POST /v1/cart/items
func (h *Handlers) AddToCart(c *gin.Context) {
	var input AddToCartInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badInput(c, err)
		return
	}
	qty := 1
	if input.Quantity != nil {
		qty = *input.Quantity
	}

	item, err := h.Carts.Add(c.Request.Context(), middleware.CallerFrom(c), input.ProductID, qty)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Item added to cart", "item": item})
}

// CartItemResponse is one priced line of GET /v1/cart.
type CartItemResponse struct {
	ItemID    int64           `json:"itemId"`
	ProductID int64           `json:"productId"`
	Name      string          `json:"name"`
	ImageURL  *string         `json:"imageUrl,omitempty"`
	Price     decimal.Decimal `json:"price"` // current effective price
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"lineTotal"`
	Stock     int             `json:"stock"`
}

func cartItemResponses(lines []shop.CartLine) []CartItemResponse {
	items := make([]CartItemResponse, 0, len(lines))
	for _, l := range lines {
		items = append(items, CartItemResponse{
			ItemID:    l.Item.ID,
			ProductID: l.Product.ID,
			Name:      l.Product.Name,
			ImageURL:  l.Product.ImageURL,
			Price:     l.UnitPrice(),
			Quantity:  l.Item.Quantity,
			LineTotal: l.LineTotal(),
			Stock:     l.Product.StockQuantity,
		})
	}
	return items
}

// GetCart is the handler for GET /v1/cart
func (h *Handlers) GetCart(c *gin.Context) {
	summary, err := h.Carts.Totals(c.Request.Context(), middleware.CallerFrom(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":      cartItemResponses(summary.Lines),
		"subtotal":   summary.Total,
		"totalItems": summary.Count,
	})
}

// UpdateCartItemInput uses a pointer so an explicit 0 can be told apart
// from a missing field; 0 removes the line.
type UpdateCartItemInput struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// UpdateCartItem is the handler for PATCH /v1/cart/items/:id
func (h *Handlers) UpdateCartItem(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var input UpdateCartItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badInput(c, err)
		return
	}

	exists, err := h.Carts.SetQuantity(c.Request.Context(), middleware.CallerFrom(c), id, *input.Quantity)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !exists {
		c.JSON(http.StatusOK, gin.H{"message": "Cart item removed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart item quantity updated"})
}

// DeleteCartItem is the handler for DELETE /v1/cart/items/:id
func (h *Handlers) DeleteCartItem(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.Carts.Remove(c.Request.Context(), middleware.CallerFrom(c), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart item removed"})
}
