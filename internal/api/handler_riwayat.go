package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetRiwayat handles GET /api/riwayat.
func (h *Handler) GetRiwayat(c *gin.Context) {
	ok(c, http.StatusOK, h.svc.Store().Riwayat())
}
