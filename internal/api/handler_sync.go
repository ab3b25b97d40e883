package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"inventrack-backend/internal/syncmgr"
)

// GetSyncStatus handles GET /api/sync/status.
func (h *Handler) GetSyncStatus(c *gin.Context) {
	ok(c, http.StatusOK, h.sync.Status())
}

// PostSyncPull handles POST /api/sync/pull: a full refresh from the remote
// sheet, replacing local data.
func (h *Handler) PostSyncPull(c *gin.Context) {
	if !h.sync.Configured() {
		fail(c, http.StatusServiceUnavailable, syncmgr.ErrNotConfigured)
		return
	}
	if err := h.sync.PullAll(c.Request.Context()); err != nil {
		fail(c, http.StatusBadGateway, err)
		return
	}
	ok(c, http.StatusOK, h.sync.Status())
}

// PostSyncPush handles POST /api/sync/push: a manual full push of all four
// collections.
func (h *Handler) PostSyncPush(c *gin.Context) {
	if err := h.sync.PushAll(c.Request.Context()); err != nil {
		switch {
		case errors.Is(err, syncmgr.ErrNotConfigured):
			fail(c, http.StatusServiceUnavailable, err)
		case errors.Is(err, syncmgr.ErrPushInProgress):
			fail(c, http.StatusConflict, err)
		case errors.Is(err, syncmgr.ErrNothingToSync):
			fail(c, http.StatusUnprocessableEntity, err)
		default:
			fail(c, http.StatusBadGateway, err)
		}
		return
	}
	ok(c, http.StatusOK, h.sync.Status())
}

// PostCleanOrphans handles POST /api/maintenance/clean-orphans.
func (h *Handler) PostCleanOrphans(c *gin.Context) {
	changed, err := h.svc.CleanOrphans()
	if err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"changed": changed})
}
