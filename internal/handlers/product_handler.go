package handlers

import (
	"net/http"

	"medtrack/internal/dto"
	"medtrack/internal/models"

	"github.com/gin-gonic/gin"
)

// --- GET: List all products ---
func (h *Handler) GetProducts(c *gin.Context) {
	products, err := h.svc.Products.List(c.Request.Context())
	h.respondProducts(c, products, err)
}

func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	product, err := h.svc.Products.Get(c.Request.Context(), id)
	h.respondProduct(c, product, err)
}

func (h *Handler) GetProductsByCategory(c *gin.Context) {
	products, err := h.svc.Products.ByCategory(c.Request.Context(), c.Param("category"))
	h.respondProducts(c, products, err)
}

func (h *Handler) SearchProducts(c *gin.Context) {
	products, err := h.svc.Products.Search(c.Request.Context(), c.Query("name"))
	h.respondProducts(c, products, err)
}

// --- POST: Add a new product ---
func (h *Handler) AddProduct(c *gin.Context) {
	var req dto.ProductRequest
	if !bindJSON(c, &req) {
		return
	}
	product, err := h.svc.Products.Create(c.Request.Context(), req)
	h.respondProduct(c, product, err)
}

// --- PUT: Update price, stock or descriptive fields ---
func (h *Handler) UpdateProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.ProductUpdateRequest
	if !bindJSON(c, &req) {
		return
	}
	product, err := h.svc.Products.Update(c.Request.Context(), id, req)
	h.respondProduct(c, product, err)
}

// --- DELETE: Remove product ---
func (h *Handler) DeleteProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Products.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) respondProduct(c *gin.Context, product *models.Product, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromProduct(*product))
}

func (h *Handler) respondProducts(c *gin.Context, products []models.Product, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromProducts(products))
}
