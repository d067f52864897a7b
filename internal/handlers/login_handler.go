package handlers

import (
	"net/http"

	"medtrack/internal/dto"
	"medtrack/internal/middleware"
	"medtrack/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Handler serves the MedTrack API on top of the service layer.
type Handler struct {
	svc *services.Services
	db  *gorm.DB
}

func New(svc *services.Services, db *gorm.DB) *Handler {
	RegisterValidators()
	return &Handler{svc: svc, db: db}
}

func (h *Handler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.svc.Auth.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Register creates a bootstrap ADMIN account. Any requested role is ignored.
func (h *Handler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.svc.Auth.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromUser(*user))
}

func (h *Handler) Me(c *gin.Context) {
	userID, _, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}
	user, err := h.svc.Users.Get(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromUser(*user))
}
