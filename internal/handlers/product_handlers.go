package handlers

import (
	"net/http"

	"github.com/01moynul/tshirtstore-golang/internal/middleware"
	"github.com/01moynul/tshirtstore-golang/internal/shop"
	"github.com/gin-gonic/gin"
)

//
// --- Public Catalog Handlers ---
//

// Home is the handler for GET /v1/home
func (h *Handlers) Home(c *gin.Context) {
	home, err := h.Catalog.Home(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, home)
}

type productQuery struct {
	pageQuery
	CategoryID int64  `form:"category_id" binding:"omitempty,min=1"`
	Search     string `form:"search" binding:"max=100"`
	Sort       string `form:"sort" binding:"omitempty,oneof=newest price_low price_high name"`
}

// ListProducts is the handler for GET /v1/products
func (h *Handlers) ListProducts(c *gin.Context) {
	var q productQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badInput(c, err)
		return
	}

	res, err := h.Catalog.Browse(c.Request.Context(), shop.ProductFilter{
		CategoryID: q.CategoryID,
		Search:     q.Search,
		Sort:       q.Sort,
		Page:       q.page(),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GetProduct is the handler for GET /v1/products/:id
// The response carries related products and approved reviews.
func (h *Handlers) GetProduct(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	detail, err := h.Catalog.Detail(c.Request.Context(), middleware.CallerFrom(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}
