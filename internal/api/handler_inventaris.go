package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"inventrack-backend/internal/model"
	"inventrack-backend/internal/service"
)

// GetInventaris handles GET /api/inventaris. The optional status query
// filters by availability.
func (h *Handler) GetInventaris(c *gin.Context) {
	status := c.Query("status")
	if status == "" {
		ok(c, http.StatusOK, h.svc.Store().Inventaris())
		return
	}

	items := []model.InventoryItem{}
	for _, item := range h.svc.Store().Inventaris() {
		if model.StatusEquals(item.Status, status) {
			items = append(items, item)
		}
	}
	ok(c, http.StatusOK, items)
}

// PostInventaris handles POST /api/inventaris.
func (h *Handler) PostInventaris(c *gin.Context) {
	var in service.InventarisInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}

	item, err := h.svc.AddInventaris(in)
	if err != nil {
		fail(c, statusFor(err), err)
		return
	}
	ok(c, http.StatusCreated, item)
}

// PutInventaris handles PUT /api/inventaris/:id.
func (h *Handler) PutInventaris(c *gin.Context) {
	var in service.InventarisInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}

	item, err := h.svc.UpdateInventaris(c.Param("id"), in)
	if err != nil {
		fail(c, statusFor(err), err)
		return
	}
	ok(c, http.StatusOK, item)
}

// DeleteInventaris handles DELETE /api/inventaris/:id.
func (h *Handler) DeleteInventaris(c *gin.Context) {
	if err := h.svc.DeleteInventaris(c.Param("id")); err != nil {
		fail(c, statusFor(err), err)
		return
	}
	c.Status(http.StatusNoContent)
}
