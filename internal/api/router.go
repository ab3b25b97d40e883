package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"inventrack-backend/internal/backup"
	"inventrack-backend/internal/mw"
	"inventrack-backend/internal/service"
	"inventrack-backend/internal/syncmgr"
)

// RouterConfig carries the middleware tunables.
type RouterConfig struct {
	RateLimitPerSec float64
	RateLimitBurst  int
	CacheTTL        time.Duration
}

// NewRouter creates and configures a new Gin router.
func NewRouter(svc *service.Service, backups *backup.Manager, sync *syncmgr.Manager, webpushOptions *webpush.Options, cfg RouterConfig) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(svc, backups, sync, webpushOptions)

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	cacheStore := cache.New(cfg.CacheTTL, 2*cfg.CacheTTL)
	caching := mw.Cache(cacheStore, cfg.CacheTTL)

	api := r.Group("/api")
	api.Use(rateLimiter)

	// Collection routes share one cache; any successful mutation in this
	// group flushes it.
	data := api.Group("")
	data.Use(caching)
	{
		data.GET("/inventaris", handler.GetInventaris)
		data.POST("/inventaris", handler.PostInventaris)
		data.PUT("/inventaris/:id", handler.PutInventaris)
		data.DELETE("/inventaris/:id", handler.DeleteInventaris)

		data.GET("/peminjaman", handler.GetPeminjaman)
		data.GET("/peminjaman/overdue", handler.GetOverdue)
		data.POST("/peminjaman", handler.PostPeminjaman)
		data.POST("/peminjaman/:id/return", handler.PostReturn)

		data.GET("/kerusakan", handler.GetKerusakan)
		data.POST("/kerusakan", handler.PostKerusakan)
		data.PATCH("/kerusakan/:id/status", handler.PatchKerusakanStatus)

		data.GET("/riwayat", handler.GetRiwayat)

		// Pulls and restores replace local data, so they live in the
		// cached group to trigger the flush.
		data.POST("/sync/pull", handler.PostSyncPull)
		data.POST("/sync/push", handler.PostSyncPush)
		data.POST("/maintenance/clean-orphans", handler.PostCleanOrphans)

		data.GET("/backups", handler.GetBackups)
		data.POST("/backups", handler.PostBackup)
		data.POST("/backups/import", handler.PostBackupImport)
		data.POST("/backups/:id/restore", handler.PostBackupRestore)
		data.GET("/backups/:id/export", handler.GetBackupExport)
		data.DELETE("/backups/:id", handler.DeleteBackup)
	}

	{
		// Status must reflect the background queue, so it is never cached.
		api.GET("/sync/status", handler.GetSyncStatus)

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
