package api

import (
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"

	"inventrack-backend/internal/backup"
	"inventrack-backend/internal/service"
	"inventrack-backend/internal/syncmgr"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	svc     *service.Service
	backups *backup.Manager
	sync    *syncmgr.Manager
	webpush *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(svc *service.Service, backups *backup.Manager, sync *syncmgr.Manager, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		svc:     svc,
		backups: backups,
		sync:    sync,
		webpush: webpushOptions,
	}
}

func ok(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func fail(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"success": false, "error": err.Error()})
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch err {
	case service.ErrNotFound:
		return http.StatusNotFound
	case service.ErrNotAvailable, service.ErrInvalidStatus:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
