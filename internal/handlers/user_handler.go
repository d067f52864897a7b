package handlers

import (
	"encoding/json"
	"net/http"

	"medtrack/internal/dto"
	"medtrack/internal/models"

	"github.com/gin-gonic/gin"
)

func (h *Handler) GetUsers(c *gin.Context) {
	users, err := h.svc.Users.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromUsers(users))
}

func (h *Handler) GetUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	user, err := h.svc.Users.Get(c.Request.Context(), id)
	h.respondUser(c, user, err)
}

func (h *Handler) GetUsersByRole(c *gin.Context) {
	users, err := h.svc.Users.ListByRole(c.Request.Context(), c.Param("role"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromUsers(users))
}

func (h *Handler) GetUsersByLocation(c *gin.Context) {
	id, ok := pathID(c, "locationId")
	if !ok {
		return
	}
	users, err := h.svc.Users.ByLocation(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromUsers(users))
}

func (h *Handler) CreateUser(c *gin.Context) {
	var req dto.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.svc.Users.Create(c.Request.Context(), req)
	h.respondUser(c, user, err)
}

func (h *Handler) UpdateUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.UserUpdateRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.svc.Users.Update(c.Request.Context(), id, req)
	h.respondUser(c, user, err)
}

func (h *Handler) DeleteUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Users.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ActivateUser(c *gin.Context)   { h.setUserActive(c, true) }
func (h *Handler) DeactivateUser(c *gin.Context) { h.setUserActive(c, false) }

func (h *Handler) setUserActive(c *gin.Context, active bool) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	user, err := h.svc.Users.SetActive(c.Request.Context(), id, active)
	h.respondUser(c, user, err)
}

func (h *Handler) GetUserLocations(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	locations, err := h.svc.Users.Locations(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromLocations(locations))
}

// AssignUserLocations replaces the user's locations. The body is either a
// bare array of ids or {"locationIds": [...]}.
func (h *Handler) AssignUserLocations(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Request body is required"})
		return
	}
	ids, ok := decodeLocationIDs(raw)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Body must be an array of location ids or {\"locationIds\": [...]}"})
		return
	}
	user, err := h.svc.Users.AssignLocations(c.Request.Context(), id, ids)
	h.respondUser(c, user, err)
}

func decodeLocationIDs(raw []byte) ([]uint, bool) {
	var ids []uint
	if err := json.Unmarshal(raw, &ids); err == nil {
		return ids, true
	}
	var wrapped struct {
		LocationIDs *[]uint `json:"locationIds"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil || wrapped.LocationIDs == nil {
		return nil, false
	}
	return *wrapped.LocationIDs, true
}

func (h *Handler) AddUserLocation(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	locationID, ok := pathID(c, "locationId")
	if !ok {
		return
	}
	user, err := h.svc.Users.AddLocation(c.Request.Context(), id, locationID)
	h.respondUser(c, user, err)
}

func (h *Handler) RemoveUserLocation(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	locationID, ok := pathID(c, "locationId")
	if !ok {
		return
	}
	user, err := h.svc.Users.RemoveLocation(c.Request.Context(), id, locationID)
	h.respondUser(c, user, err)
}

func (h *Handler) respondUser(c *gin.Context, user *models.User, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromUser(*user))
}
