package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetAdminStats returns the admin dashboard summary.
func (h *Handler) GetAdminStats(c *gin.Context) {
	stats, err := h.svc.Dashboard.AdminStats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// --- Order reports: every total skips CANCELLED orders ---

func (h *Handler) GetTotalRevenue(c *gin.Context) {
	total, err := h.svc.Orders.TotalRevenue(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, total)
}

func (h *Handler) GetDoctorRevenue(c *gin.Context) {
	id, ok := pathID(c, "doctorId")
	if !ok {
		return
	}
	total, err := h.svc.Orders.RevenueByDoctor(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, total)
}

func (h *Handler) GetRevenueByDateRange(c *gin.Context) {
	from, to, ok := dateRange(c)
	if !ok {
		return
	}
	total, err := h.svc.Orders.RevenueByDateRange(c.Request.Context(), from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, total)
}

func (h *Handler) GetOrderCountByStatus(c *gin.Context) {
	n, err := h.svc.Orders.CountByStatus(c.Request.Context(), c.Param("status"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

func (h *Handler) GetTopSellingProducts(c *gin.Context) {
	rows, err := h.svc.Orders.TopSelling(c.Request.Context(), queryInt(c, "limit", 5))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// --- Sample reports ---

func (h *Handler) GetProductSampleQuantity(c *gin.Context) {
	id, ok := pathID(c, "productId")
	if !ok {
		return
	}
	n, err := h.svc.Samples.TotalQuantityForProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

func (h *Handler) GetDoctorSampleQuantity(c *gin.Context) {
	id, ok := pathID(c, "doctorId")
	if !ok {
		return
	}
	n, err := h.svc.Samples.TotalQuantityForDoctor(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

func (h *Handler) GetTopSampleProducts(c *gin.Context) {
	rows, err := h.svc.Samples.TopProducts(c.Request.Context(), queryInt(c, "limit", 5))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}
