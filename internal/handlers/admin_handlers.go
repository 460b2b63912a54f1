package handlers

import (
	"net/http"

	"github.com/01moynul/tshirtstore-golang/internal/middleware"
	"github.com/01moynul/tshirtstore-golang/internal/shop"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

//
// --- Admin: Product Management Handlers ---
//

// ProductInput is the JSON body for creating or replacing a product.
type ProductInput struct {
	CategoryID      int64            `json:"categoryId" binding:"required,min=1"`
	Name            string           `json:"name" binding:"required,max=200"`
	Description     string           `json:"description"`
	SKU             string           `json:"sku" binding:"max=50"`
	ImageURL        string           `json:"imageUrl" binding:"max=255"`
	Price           decimal.Decimal  `json:"price"`
	DiscountedPrice *decimal.Decimal `json:"discountedPrice"`
	StockQuantity   int              `json:"stock" binding:"min=0"`
	IsActive        *bool            `json:"isActive"`
}

func (in ProductInput) toShop() shop.ProductInput {
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	return shop.ProductInput{
		CategoryID:      in.CategoryID,
		Name:            in.Name,
		Description:     in.Description,
		SKU:             in.SKU,
		ImageURL:        in.ImageURL,
		Price:           in.Price,
		DiscountedPrice: in.DiscountedPrice,
		StockQuantity:   in.StockQuantity,
		IsActive:        active,
	}
}

// AdminProducts is the handler for GET /v1/admin/products
func (h *Handlers) AdminProducts(c *gin.Context) {
	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badInput(c, err)
		return
	}

	res, err := h.Catalog.AdminList(c.Request.Context(), middleware.CallerFrom(c), q.page())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// CreateProduct is the handler for POST /v1/admin/products
func (h *Handlers) CreateProduct(c *gin.Context) {
	var input ProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badInput(c, err)
		return
	}

	product, err := h.Catalog.CreateProduct(c.Request.Context(), middleware.CallerFrom(c), input.toShop())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"product": product})
}

// UpdateProduct is the handler for PUT /v1/admin/products/:id
// Existing orders keep the price they were placed at.
func (h *Handlers) UpdateProduct(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var input ProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badInput(c, err)
		return
	}

	product, err := h.Catalog.UpdateProduct(c.Request.Context(), middleware.CallerFrom(c), id, input.toShop())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product})
}
