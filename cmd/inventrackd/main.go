package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"inventrack-backend/config"
	"inventrack-backend/internal/api"
	"inventrack-backend/internal/backup"
	"inventrack-backend/internal/codec"
	"inventrack-backend/internal/db"
	"inventrack-backend/internal/localstore"
	"inventrack-backend/internal/notification"
	"inventrack-backend/internal/remote"
	"inventrack-backend/internal/service"
	"inventrack-backend/internal/syncmgr"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/joho/godotenv"
)

func main() {
	// Setup logger
	logger := log.New(os.Stdout, "inventrack-backend ", log.LstdFlags)

	// A .env file can override the environment for local development.
	if err := godotenv.Load(); err == nil {
		logger.Println("loaded environment overrides from .env")
	}

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	// Initialize database
	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	// Encryption at rest is optional; without a secret, collections are
	// stored as plain JSON.
	var cdc codec.Codec
	if cfg.Codec.Enabled {
		if cfg.Codec.Secret == "" {
			logger.Fatalf("codec.enabled requires codec.secret to be set")
		}
		cdc = codec.NewAES(cfg.Codec.Secret)
		logger.Println("storage encryption enabled")
	}

	store := localstore.New(gormDB, cdc, cfg.Sync.Debounce)
	if cdc != nil {
		if n := store.MigrateToEncoded(); n > 0 {
			logger.Printf("re-encoded %d plain collections", n)
		}
	}

	backups := backup.New(store)
	svc := service.New(store, backups)

	// Remote sync is optional; without a URL the manager reports offline
	// and all pushes are no-ops.
	var mgr *syncmgr.Manager
	if cfg.Sync.URL != "" {
		client := remote.New(cfg.Sync.URL, cfg.Sync.RequestTimeout)
		mgr = syncmgr.New(client, store, cfg.Sync.Settle, cfg.Sync.RequestTimeout)
		logger.Println("remote sync configured")
	} else {
		mgr = syncmgr.New(nil, store, cfg.Sync.Settle, cfg.Sync.RequestTimeout)
		logger.Println("no sync URL configured, running in offline mode")
	}
	store.OnSync(mgr.Enqueue)

	// Create a context that can be cancelled
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Web push is optional too; reminders need VAPID keys.
	var webpushOptions *webpush.Options
	if cfg.Push.PublicKey != "" && cfg.Push.PrivateKey != "" {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}

		pool := notification.NewWorkerPool(cfg.WorkerPool.Size, gormDB, webpushOptions)
		pool.Start(ctx)

		checker := notification.NewChecker(svc, pool, cfg.Notifier.CheckInterval)
		checker.Start(ctx)
		logger.Println("overdue-loan notifications enabled")
	} else {
		logger.Println("VAPID keys not configured, notifications disabled")
	}

	// Refresh from the remote sheet in the background at startup.
	if mgr.Configured() {
		go func() {
			if err := mgr.PullAll(ctx); err != nil {
				logger.Printf("initial pull failed: %v", err)
			}
		}()
	}

	// Initialize router
	router := api.NewRouter(svc, backups, mgr, webpushOptions, api.RouterConfig{
		RateLimitPerSec: cfg.Server.RateLimitPerSec,
		RateLimitBurst:  cfg.Server.RateLimitBurst,
		CacheTTL:        time.Duration(cfg.Server.CacheTTLSeconds) * time.Second,
	})
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start the server in a goroutine
	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	// Setup signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	// Block until a signal is received.
	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	// Create a deadline to wait for.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}
