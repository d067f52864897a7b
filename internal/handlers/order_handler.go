package handlers

import (
	"net/http"

	"medtrack/internal/dto"
	"medtrack/internal/models"

	"github.com/gin-gonic/gin"
)

func (h *Handler) respondOrder(c *gin.Context, status int, order *models.Order, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(status, dto.FromOrder(*order))
}

func (h *Handler) respondOrders(c *gin.Context, orders []models.Order, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromOrders(orders))
}

func (h *Handler) GetOrders(c *gin.Context) {
	orders, err := h.svc.Orders.List(c.Request.Context())
	h.respondOrders(c, orders, err)
}

func (h *Handler) GetOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	order, err := h.svc.Orders.Get(c.Request.Context(), id)
	h.respondOrder(c, http.StatusOK, order, err)
}

func (h *Handler) GetOrderByNumber(c *gin.Context) {
	order, err := h.svc.Orders.GetByNumber(c.Request.Context(), c.Param("number"))
	h.respondOrder(c, http.StatusOK, order, err)
}

func (h *Handler) GetOrdersByDoctor(c *gin.Context) {
	id, ok := pathID(c, "doctorId")
	if !ok {
		return
	}
	orders, err := h.svc.Orders.ByDoctor(c.Request.Context(), id)
	h.respondOrders(c, orders, err)
}

func (h *Handler) GetOrdersByVisit(c *gin.Context) {
	id, ok := pathID(c, "visitId")
	if !ok {
		return
	}
	orders, err := h.svc.Orders.ByVisit(c.Request.Context(), id)
	h.respondOrders(c, orders, err)
}

func (h *Handler) GetOrdersByStatus(c *gin.Context) {
	orders, err := h.svc.Orders.ByStatus(c.Request.Context(), c.Param("status"))
	h.respondOrders(c, orders, err)
}

func (h *Handler) GetOrdersByPaymentStatus(c *gin.Context) {
	orders, err := h.svc.Orders.ByPaymentStatus(c.Request.Context(), c.Param("status"))
	h.respondOrders(c, orders, err)
}

func (h *Handler) GetOrdersByDateRange(c *gin.Context) {
	from, to, ok := dateRange(c)
	if !ok {
		return
	}
	orders, err := h.svc.Orders.ByDateRange(c.Request.Context(), from, to)
	h.respondOrders(c, orders, err)
}

func (h *Handler) GetOrdersByDoctorDateRange(c *gin.Context) {
	id, ok := pathID(c, "doctorId")
	if !ok {
		return
	}
	from, to, ok := dateRange(c)
	if !ok {
		return
	}
	orders, err := h.svc.Orders.ByDoctorDateRange(c.Request.Context(), id, from, to)
	h.respondOrders(c, orders, err)
}

func (h *Handler) GetRecentOrders(c *gin.Context) {
	orders, err := h.svc.Orders.Recent(c.Request.Context(), queryInt(c, "limit", 10))
	h.respondOrders(c, orders, err)
}

func (h *Handler) CreateOrder(c *gin.Context) {
	var req dto.OrderRequest
	if !bindJSON(c, &req) {
		return
	}
	order, err := h.svc.Orders.Create(c.Request.Context(), req)
	h.respondOrder(c, http.StatusCreated, order, err)
}

// PatchOrder also serves PUT; totals are never recomputed.
func (h *Handler) PatchOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.OrderPatchRequest
	if !bindJSON(c, &req) {
		return
	}
	order, err := h.svc.Orders.Patch(c.Request.Context(), id, req)
	h.respondOrder(c, http.StatusOK, order, err)
}

func (h *Handler) DeleteOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Orders.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
