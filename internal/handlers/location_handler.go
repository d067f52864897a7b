package handlers

import (
	"net/http"

	"medtrack/internal/dto"
	"medtrack/internal/models"

	"github.com/gin-gonic/gin"
)

func (h *Handler) GetLocations(c *gin.Context) {
	locations, err := h.svc.Locations.List(c.Request.Context(), queryBool(c, "activeOnly"))
	h.respondLocations(c, locations, err)
}

func (h *Handler) GetLocation(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	location, err := h.svc.Locations.Get(c.Request.Context(), id)
	h.respondLocation(c, location, err)
}

func (h *Handler) GetLocationsByCity(c *gin.Context) {
	locations, err := h.svc.Locations.ByCity(c.Request.Context(), c.Param("city"))
	h.respondLocations(c, locations, err)
}

func (h *Handler) SearchLocations(c *gin.Context) {
	locations, err := h.svc.Locations.Search(c.Request.Context(), c.Query("q"), queryBool(c, "activeOnly"))
	h.respondLocations(c, locations, err)
}

func (h *Handler) CreateLocation(c *gin.Context) {
	var req dto.LocationRequest
	if !bindJSON(c, &req) {
		return
	}
	location, err := h.svc.Locations.Create(c.Request.Context(), req)
	h.respondLocation(c, location, err)
}

func (h *Handler) CreateLocationsBulk(c *gin.Context) {
	var req dto.BulkLocationRequest
	if !bindJSON(c, &req) {
		return
	}
	locations, err := h.svc.Locations.CreateBulk(c.Request.Context(), req.Locations)
	h.respondLocations(c, locations, err)
}

func (h *Handler) UpdateLocation(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.LocationUpdateRequest
	if !bindJSON(c, &req) {
		return
	}
	location, err := h.svc.Locations.Update(c.Request.Context(), id, req)
	h.respondLocation(c, location, err)
}

func (h *Handler) ActivateLocation(c *gin.Context)   { h.setLocationActive(c, true) }
func (h *Handler) DeactivateLocation(c *gin.Context) { h.setLocationActive(c, false) }

func (h *Handler) setLocationActive(c *gin.Context, active bool) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	location, err := h.svc.Locations.SetActive(c.Request.Context(), id, active)
	h.respondLocation(c, location, err)
}

func (h *Handler) DeleteLocation(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Locations.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) respondLocation(c *gin.Context, location *models.Location, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromLocation(*location))
}

func (h *Handler) respondLocations(c *gin.Context, locations []models.Location, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromLocations(locations))
}
