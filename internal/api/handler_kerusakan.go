package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"inventrack-backend/internal/service"
)

// GetKerusakan handles GET /api/kerusakan.
func (h *Handler) GetKerusakan(c *gin.Context) {
	ok(c, http.StatusOK, h.svc.Store().Kerusakan())
}

// PostKerusakan handles POST /api/kerusakan.
func (h *Handler) PostKerusakan(c *gin.Context) {
	var in service.DamageInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}

	rep, err := h.svc.ReportDamage(in)
	if err != nil {
		fail(c, statusFor(err), err)
		return
	}
	ok(c, http.StatusCreated, rep)
}

type damageStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// PatchKerusakanStatus handles PATCH /api/kerusakan/:id/status.
func (h *Handler) PatchKerusakanStatus(c *gin.Context) {
	var req damageStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}

	rep, err := h.svc.UpdateDamageStatus(c.Param("id"), req.Status)
	if err != nil {
		fail(c, statusFor(err), err)
		return
	}
	ok(c, http.StatusOK, rep)
}
