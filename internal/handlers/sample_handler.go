package handlers

import (
	"net/http"

	"medtrack/internal/dto"
	"medtrack/internal/models"

	"github.com/gin-gonic/gin"
)

func (h *Handler) respondSample(c *gin.Context, sample *models.Sample, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromSample(*sample))
}

func (h *Handler) respondSamples(c *gin.Context, samples []models.Sample, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromSamples(samples))
}

func (h *Handler) GetSamples(c *gin.Context) {
	samples, err := h.svc.Samples.List(c.Request.Context())
	h.respondSamples(c, samples, err)
}

func (h *Handler) GetSample(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	sample, err := h.svc.Samples.Get(c.Request.Context(), id)
	h.respondSample(c, sample, err)
}

func (h *Handler) GetSamplesByDoctor(c *gin.Context) {
	id, ok := pathID(c, "doctorId")
	if !ok {
		return
	}
	samples, err := h.svc.Samples.ByDoctor(c.Request.Context(), id)
	h.respondSamples(c, samples, err)
}

func (h *Handler) GetSamplesByProduct(c *gin.Context) {
	id, ok := pathID(c, "productId")
	if !ok {
		return
	}
	samples, err := h.svc.Samples.ByProduct(c.Request.Context(), id)
	h.respondSamples(c, samples, err)
}

func (h *Handler) GetSamplesByVisit(c *gin.Context) {
	id, ok := pathID(c, "visitId")
	if !ok {
		return
	}
	samples, err := h.svc.Samples.ByVisit(c.Request.Context(), id)
	h.respondSamples(c, samples, err)
}

func (h *Handler) GetSamplesByDate(c *gin.Context) {
	date, ok := pathDate(c, "date")
	if !ok {
		return
	}
	samples, err := h.svc.Samples.ByDate(c.Request.Context(), date)
	h.respondSamples(c, samples, err)
}

func (h *Handler) GetSamplesByDateRange(c *gin.Context) {
	from, to, ok := dateRange(c)
	if !ok {
		return
	}
	samples, err := h.svc.Samples.ByDateRange(c.Request.Context(), from, to)
	h.respondSamples(c, samples, err)
}

func (h *Handler) GetSamplesByDoctorDateRange(c *gin.Context) {
	id, ok := pathID(c, "doctorId")
	if !ok {
		return
	}
	from, to, ok := dateRange(c)
	if !ok {
		return
	}
	samples, err := h.svc.Samples.ByDoctorDateRange(c.Request.Context(), id, from, to)
	h.respondSamples(c, samples, err)
}

func (h *Handler) GetSamplesByProductDateRange(c *gin.Context) {
	id, ok := pathID(c, "productId")
	if !ok {
		return
	}
	from, to, ok := dateRange(c)
	if !ok {
		return
	}
	samples, err := h.svc.Samples.ByProductDateRange(c.Request.Context(), id, from, to)
	h.respondSamples(c, samples, err)
}

func (h *Handler) GetSampleByDoctorAndProduct(c *gin.Context) {
	doctorID, ok := pathID(c, "doctorId")
	if !ok {
		return
	}
	productID, ok := pathID(c, "productId")
	if !ok {
		return
	}
	sample, err := h.svc.Samples.ByDoctorAndProduct(c.Request.Context(), doctorID, productID)
	h.respondSample(c, sample, err)
}

func (h *Handler) CreateSample(c *gin.Context) {
	var req dto.SampleRequest
	if !bindJSON(c, &req) {
		return
	}
	sample, err := h.svc.Samples.Create(c.Request.Context(), req)
	h.respondSample(c, sample, err)
}

func (h *Handler) UpdateSample(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.SampleUpdateRequest
	if !bindJSON(c, &req) {
		return
	}
	sample, err := h.svc.Samples.Update(c.Request.Context(), id, req)
	h.respondSample(c, sample, err)
}

func (h *Handler) DeleteSample(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Samples.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
