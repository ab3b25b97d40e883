package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"inventrack-backend/internal/service"
)

// GetPeminjaman handles GET /api/peminjaman. Only active loans live here;
// completed ones are in riwayat.
func (h *Handler) GetPeminjaman(c *gin.Context) {
	ok(c, http.StatusOK, h.svc.Store().Peminjaman())
}

// GetOverdue handles GET /api/peminjaman/overdue.
func (h *Handler) GetOverdue(c *gin.Context) {
	ok(c, http.StatusOK, h.svc.OverdueLoans(time.Now()))
}

// PostPeminjaman handles POST /api/peminjaman.
func (h *Handler) PostPeminjaman(c *gin.Context) {
	var in service.LoanInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}

	loan, err := h.svc.CreateLoan(in)
	if err != nil {
		fail(c, statusFor(err), err)
		return
	}
	ok(c, http.StatusCreated, loan)
}

// PostReturn handles POST /api/peminjaman/:id/return.
func (h *Handler) PostReturn(c *gin.Context) {
	var in service.ReturnInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}

	record, err := h.svc.ReturnLoan(c.Param("id"), in)
	if err != nil {
		fail(c, statusFor(err), err)
		return
	}
	ok(c, http.StatusOK, record)
}
