package handlers

import (
	"net/http"

	"github.com/01moynul/tshirtstore-golang/internal/middleware"
	"github.com/gin-gonic/gin"
)

//
// --- Review Handlers (Login Required) ---
//

type AddReviewInput struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment" binding:"max=500"`
}

// AddReview is the handler for POST /v1/products/:id/reviews
// A user may review each product once.
func (h *Handlers) AddReview(c *gin.Context) {
	productID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var input AddReviewInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badInput(c, err)
		return
	}

	review, err := h.Reviews.Add(c.Request.Context(), middleware.CallerFrom(c), productID, input.Rating, input.Comment)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Review submitted", "review": review})
}
