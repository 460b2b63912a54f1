package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/01moynul/tshirtstore-golang/internal/media"
	"github.com/01moynul/tshirtstore-golang/internal/shop"
	"github.com/gin-gonic/gin"
)

// Handlers struct holds all dependencies for our handlers.
type Handlers struct {
	Accounts *shop.Accounts
	Catalog  *shop.Catalog
	Carts    *shop.CartStore
	Orders   *shop.OrderEngine
	Reviews  *shop.ReviewLedger
	Board    *shop.AdminBoard
	Media    *media.Store
	Log      *slog.Logger

	// CheckoutTimeout bounds the checkout transaction.
	CheckoutTimeout time.Duration
}

// respondError is the single place where domain errors become HTTP responses.
func (h *Handlers) respondError(c *gin.Context, err error) {
	var (
		ve *shop.ValidationError
		se *shop.StockError
	)
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Error(), "field": ve.Field})
	case errors.Is(err, shop.ErrUnauthenticated), errors.Is(err, shop.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, shop.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, shop.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.As(err, &se):
		c.JSON(http.StatusConflict, gin.H{
			"error":     se.Error(),
			"productId": se.ProductID,
			"product":   se.ProductName,
			"requested": se.Requested,
			"available": se.Available,
		})
	case errors.Is(err, shop.ErrConflict),
		errors.Is(err, shop.ErrDuplicateReview),
		errors.Is(err, shop.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, shop.ErrEmptyCart):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, media.ErrUnsupportedType):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, media.ErrTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		h.Log.ErrorContext(c.Request.Context(), "request failed",
			slog.String("path", c.FullPath()), slog.Any("err", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// badInput answers a failed bind.
func badInput(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
}

// paramID parses a positive integer path parameter, answering 400 otherwise.
func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return id, true
}

type pageQuery struct {
	Page    int `form:"page" binding:"omitempty,min=1"`
	PerPage int `form:"per_page" binding:"omitempty,min=1,max=100"`
}

func (q pageQuery) page() shop.Page {
	return shop.Page{Number: q.Page, PerPage: q.PerPage}
}
