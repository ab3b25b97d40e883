package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"inventrack-backend/internal/backup"
)

func backupStatus(err error) int {
	if errors.Is(err, backup.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// GetBackups handles GET /api/backups.
func (h *Handler) GetBackups(c *gin.Context) {
	ok(c, http.StatusOK, h.backups.List())
}

type createBackupRequest struct {
	Reason string `json:"reason"`
}

// PostBackup handles POST /api/backups.
func (h *Handler) PostBackup(c *gin.Context) {
	var req createBackupRequest
	// The body is optional; an empty reason becomes "manual".
	_ = c.ShouldBindJSON(&req)
	if req.Reason == "" {
		req.Reason = "manual"
	}

	snap, err := h.backups.Create(req.Reason)
	if err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}
	ok(c, http.StatusCreated, snap)
}

// PostBackupRestore handles POST /api/backups/:id/restore.
func (h *Handler) PostBackupRestore(c *gin.Context) {
	if err := h.backups.Restore(c.Param("id")); err != nil {
		fail(c, backupStatus(err), err)
		return
	}
	ok(c, http.StatusOK, gin.H{"restored": c.Param("id")})
}

// DeleteBackup handles DELETE /api/backups/:id.
func (h *Handler) DeleteBackup(c *gin.Context) {
	if err := h.backups.Delete(c.Param("id")); err != nil {
		fail(c, backupStatus(err), err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetBackupExport handles GET /api/backups/:id/export, returning the raw
// snapshot JSON as a download.
func (h *Handler) GetBackupExport(c *gin.Context) {
	raw, err := h.backups.Export(c.Param("id"))
	if err != nil {
		fail(c, backupStatus(err), err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+c.Param("id")+`.json"`)
	c.Data(http.StatusOK, "application/json", raw)
}

// PostBackupImport handles POST /api/backups/import with a snapshot JSON
// body.
func (h *Handler) PostBackupImport(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}

	snap, err := h.backups.Import(raw)
	if err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	ok(c, http.StatusCreated, snap)
}
