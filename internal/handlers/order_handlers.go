package handlers

import (
	"context"
	"net/http"

	"github.com/01moynul/tshirtstore-golang/internal/middleware"
	"github.com/01moynul/tshirtstore-golang/internal/models"
	"github.com/01moynul/tshirtstore-golang/internal/shop"
	"github.com/gin-gonic/gin"
)

//
// --- Order Handlers (Login Required) ---
//

// CheckoutInput is the JSON body for POST /v1/checkout.
type CheckoutInput struct {
	ShippingAddress string `json:"shippingAddress" binding:"required,max=1000"`
	BillingAddress  string `json:"billingAddress" binding:"required,max=1000"`
	PaymentMethod   string `json:"paymentMethod" binding:"required,oneof=credit_card paypal"`
}

// Checkout is the handler for POST /v1/checkout
// The whole cart becomes one order or nothing changes.
func (h *Handlers) Checkout(c *gin.Context) {
	var input CheckoutInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badInput(c, err)
		return
	}

	ctx := c.Request.Context()
	if h.CheckoutTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.CheckoutTimeout)
		defer cancel()
	}

	order, err := h.Orders.Checkout(ctx, middleware.CallerFrom(c), shop.CheckoutInput{
		ShippingAddress: input.ShippingAddress,
		BillingAddress:  input.BillingAddress,
		PaymentMethod:   input.PaymentMethod,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":     "Order placed successfully",
		"orderId":     order.ID,
		"orderNumber": order.OrderNumber,
		"order":       order,
	})
}

// GetMyOrders is the handler for GET /v1/orders
func (h *Handlers) GetMyOrders(c *gin.Context) {
	orders, err := h.Orders.History(c.Request.Context(), middleware.CallerFrom(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// GetOrder is the handler for GET /v1/orders/:id
// Owners see their own orders; admins see any.
func (h *Handlers) GetOrder(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	order, err := h.Orders.Order(c.Request.Context(), middleware.CallerFrom(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

//
// --- Admin: Order Management ---
//

// AdminOrders is the handler for GET /v1/admin/orders
func (h *Handlers) AdminOrders(c *gin.Context) {
	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badInput(c, err)
		return
	}

	res, err := h.Orders.List(c.Request.Context(), middleware.CallerFrom(c), q.page())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type UpdateOrderStatusInput struct {
	Status string `json:"status" binding:"required,oneof=pending confirmed shipped delivered cancelled"`
}

// UpdateOrderStatus is the handler for PATCH /v1/admin/orders/:id/status
func (h *Handlers) UpdateOrderStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var input UpdateOrderStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badInput(c, err)
		return
	}

	order, err := h.Orders.AdvanceStatus(c.Request.Context(), middleware.CallerFrom(c), id, models.OrderStatus(input.Status))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order status updated", "order": order})
}

type UpdatePaymentStatusInput struct {
	PaymentStatus string `json:"paymentStatus" binding:"required,oneof=pending paid failed refunded"`
}

// UpdatePaymentStatus is the handler for PATCH /v1/admin/orders/:id/payment
func (h *Handlers) UpdatePaymentStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var input UpdatePaymentStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badInput(c, err)
		return
	}

	order, err := h.Orders.SetPaymentStatus(c.Request.Context(), middleware.CallerFrom(c), id, models.PaymentStatus(input.PaymentStatus))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Payment status updated", "order": order})
}
