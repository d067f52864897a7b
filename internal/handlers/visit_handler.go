package handlers

import (
	"net/http"

	"medtrack/internal/dto"
	"medtrack/internal/middleware"
	"medtrack/internal/models"

	"github.com/gin-gonic/gin"
)

// repID returns the caller's id when the caller is a REP. REPs only ever see
// and touch their own visits; managers and admins see all of them.
func repID(c *gin.Context) (uint, bool) {
	userID, role, ok := middleware.CurrentUser(c)
	if !ok || role != models.RoleRep {
		return 0, false
	}
	return userID, true
}

func ownVisits(c *gin.Context, visits []models.Visit) []models.Visit {
	self, isRep := repID(c)
	if !isRep {
		return visits
	}
	own := make([]models.Visit, 0, len(visits))
	for _, v := range visits {
		if v.UserID == self {
			own = append(own, v)
		}
	}
	return own
}

func (h *Handler) respondVisits(c *gin.Context, visits []models.Visit, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromVisits(ownVisits(c, visits)))
}

func (h *Handler) respondVisit(c *gin.Context, visit *models.Visit, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromVisit(*visit))
}

// visitUserID reads the {userId} path parameter, substituting the caller for REPs.
func visitUserID(c *gin.Context) (uint, bool) {
	if self, isRep := repID(c); isRep {
		return self, true
	}
	return pathID(c, "userId")
}

// loadOwnVisit fetches a visit and rejects REPs acting on someone else's.
func (h *Handler) loadOwnVisit(c *gin.Context) (*models.Visit, bool) {
	id, ok := pathID(c, "id")
	if !ok {
		return nil, false
	}
	visit, err := h.svc.Visits.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	if self, isRep := repID(c); isRep && visit.UserID != self {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return nil, false
	}
	return visit, true
}

func forbidOtherRep(c *gin.Context, userID uint) bool {
	if self, isRep := repID(c); isRep && userID != self {
		c.JSON(http.StatusForbidden, gin.H{"error": "REPs can only record their own visits"})
		return true
	}
	return false
}

func (h *Handler) GetVisits(c *gin.Context) {
	if self, isRep := repID(c); isRep {
		visits, err := h.svc.Visits.ByUser(c.Request.Context(), self)
		h.respondVisits(c, visits, err)
		return
	}
	visits, err := h.svc.Visits.List(c.Request.Context())
	h.respondVisits(c, visits, err)
}

func (h *Handler) GetVisit(c *gin.Context) {
	visit, ok := h.loadOwnVisit(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, dto.FromVisit(*visit))
}

func (h *Handler) GetMyVisits(c *gin.Context) {
	userID, _, _ := middleware.CurrentUser(c)
	visits, err := h.svc.Visits.ByUser(c.Request.Context(), userID)
	h.respondVisits(c, visits, err)
}

func (h *Handler) GetVisitsByUser(c *gin.Context) {
	userID, ok := visitUserID(c)
	if !ok {
		return
	}
	visits, err := h.svc.Visits.ByUser(c.Request.Context(), userID)
	h.respondVisits(c, visits, err)
}

func (h *Handler) GetVisitsByUserDateRange(c *gin.Context) {
	userID, ok := visitUserID(c)
	if !ok {
		return
	}
	from, to, ok := dateRange(c)
	if !ok {
		return
	}
	visits, err := h.svc.Visits.ByUserDateRange(c.Request.Context(), userID, from, to)
	h.respondVisits(c, visits, err)
}

func (h *Handler) GetActiveVisits(c *gin.Context) {
	userID, ok := visitUserID(c)
	if !ok {
		return
	}
	visits, err := h.svc.Visits.ActiveByUser(c.Request.Context(), userID)
	h.respondVisits(c, visits, err)
}

func (h *Handler) GetVisitsByDoctor(c *gin.Context) {
	id, ok := pathID(c, "doctorId")
	if !ok {
		return
	}
	visits, err := h.svc.Visits.ByDoctor(c.Request.Context(), id)
	h.respondVisits(c, visits, err)
}

func (h *Handler) GetVisitsByDoctorDateRange(c *gin.Context) {
	id, ok := pathID(c, "doctorId")
	if !ok {
		return
	}
	from, to, ok := dateRange(c)
	if !ok {
		return
	}
	visits, err := h.svc.Visits.ByDoctorDateRange(c.Request.Context(), id, from, to)
	h.respondVisits(c, visits, err)
}

func (h *Handler) GetVisitsByLocation(c *gin.Context) {
	id, ok := pathID(c, "locationId")
	if !ok {
		return
	}
	visits, err := h.svc.Visits.ByLocation(c.Request.Context(), id)
	h.respondVisits(c, visits, err)
}

func (h *Handler) GetVisitsByDate(c *gin.Context) {
	date, ok := pathDate(c, "date")
	if !ok {
		return
	}
	visits, err := h.svc.Visits.ByDate(c.Request.Context(), date)
	h.respondVisits(c, visits, err)
}

func (h *Handler) GetVisitsByDateRange(c *gin.Context) {
	from, to, ok := dateRange(c)
	if !ok {
		return
	}
	visits, err := h.svc.Visits.ByDateRange(c.Request.Context(), from, to)
	h.respondVisits(c, visits, err)
}

func (h *Handler) GetVisitsByStatus(c *gin.Context) {
	visits, err := h.svc.Visits.ByStatus(c.Request.Context(), c.Param("status"))
	h.respondVisits(c, visits, err)
}

func (h *Handler) CreateVisit(c *gin.Context) {
	var req dto.VisitRequest
	if !bindJSON(c, &req) {
		return
	}
	if forbidOtherRep(c, req.UserID) {
		return
	}
	visit, err := h.svc.Visits.Create(c.Request.Context(), req)
	h.respondVisit(c, visit, err)
}

func (h *Handler) StartVisit(c *gin.Context) {
	var req dto.StartVisitRequest
	if !bindJSON(c, &req) {
		return
	}
	if forbidOtherRep(c, req.UserID) {
		return
	}
	visit, err := h.svc.Visits.Start(c.Request.Context(), req)
	h.respondVisit(c, visit, err)
}

// EndVisit accepts an empty body or {"notes": "..."}.
func (h *Handler) EndVisit(c *gin.Context) {
	visit, ok := h.loadOwnVisit(c)
	if !ok {
		return
	}
	var req dto.EndVisitRequest
	if c.Request.ContentLength != 0 {
		if !bindJSON(c, &req) {
			return
		}
	}
	ended, err := h.svc.Visits.End(c.Request.Context(), visit.ID, req.Notes)
	h.respondVisit(c, ended, err)
}

func (h *Handler) UpdateVisit(c *gin.Context) {
	visit, ok := h.loadOwnVisit(c)
	if !ok {
		return
	}
	var req dto.VisitUpdateRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.UserID != nil && forbidOtherRep(c, *req.UserID) {
		return
	}
	updated, err := h.svc.Visits.Update(c.Request.Context(), visit.ID, req)
	h.respondVisit(c, updated, err)
}

func (h *Handler) DeleteVisit(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Visits.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
