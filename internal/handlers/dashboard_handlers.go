package handlers

import (
	"net/http"

	"github.com/01moynul/tshirtstore-golang/internal/middleware"
	"github.com/gin-gonic/gin"
)

//
// --- Admin Dashboard Stats ---
//

// GetDashboard returns store-wide KPIs and the latest orders
// GET /v1/admin/dashboard
func (h *Handlers) GetDashboard(c *gin.Context) {
	stats, err := h.Board.Dashboard(c.Request.Context(), middleware.CallerFrom(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
