package handlers

import (
	"net/http"

	"medtrack/internal/dto"
	"medtrack/internal/models"

	"github.com/gin-gonic/gin"
)

func (h *Handler) GetDoctors(c *gin.Context) {
	doctors, err := h.svc.Doctors.List(c.Request.Context())
	h.respondDoctors(c, doctors, err)
}

func (h *Handler) GetDoctor(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	doctor, err := h.svc.Doctors.Get(c.Request.Context(), id)
	h.respondDoctor(c, doctor, err)
}

func (h *Handler) GetDoctorsBySpecialty(c *gin.Context) {
	doctors, err := h.svc.Doctors.BySpecialty(c.Request.Context(), c.Param("specialty"))
	h.respondDoctors(c, doctors, err)
}

func (h *Handler) GetDoctorsByHospital(c *gin.Context) {
	doctors, err := h.svc.Doctors.ByHospital(c.Request.Context(), c.Param("hospital"))
	h.respondDoctors(c, doctors, err)
}

func (h *Handler) SearchDoctors(c *gin.Context) {
	doctors, err := h.svc.Doctors.Search(c.Request.Context(), c.Query("name"))
	h.respondDoctors(c, doctors, err)
}

func (h *Handler) CreateDoctor(c *gin.Context) {
	var req dto.DoctorRequest
	if !bindJSON(c, &req) {
		return
	}
	doctor, err := h.svc.Doctors.Create(c.Request.Context(), req)
	h.respondDoctor(c, doctor, err)
}

func (h *Handler) UpdateDoctor(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.DoctorUpdateRequest
	if !bindJSON(c, &req) {
		return
	}
	doctor, err := h.svc.Doctors.Update(c.Request.Context(), id, req)
	h.respondDoctor(c, doctor, err)
}

func (h *Handler) DeleteDoctor(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Doctors.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) respondDoctor(c *gin.Context, doctor *models.Doctor, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromDoctor(*doctor))
}

func (h *Handler) respondDoctors(c *gin.Context, doctors []models.Doctor, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromDoctors(doctors))
}
