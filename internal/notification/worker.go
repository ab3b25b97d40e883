package notification

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"

	"inventrack-backend/internal/model"
	"inventrack-backend/internal/service"
)

// Sender defines the interface for sending a web push notification.
type Sender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of Sender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// WorkerPool manages a pool of workers that broadcast overdue-loan
// reminders to every registered push subscription.
type WorkerPool struct {
	size    int
	jobs    chan model.Loan
	db      *gorm.DB
	webpush *webpush.Options
	sender  Sender
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, db *gorm.DB, webpushOptions *webpush.Options) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan model.Loan, size), // Buffered channel
		db:      db,
		webpush: webpushOptions,
		sender:  &WebPushSender{}, // Use the real sender by default
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

// worker is the actual worker goroutine.
func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("Worker %d started", id)
	for {
		select {
		case loan := <-wp.jobs:
			log.Printf("Worker %d processing overdue loan %s", id, loan.ID)
			wp.notifyOverdue(ctx, loan)
		case <-ctx.Done():
			log.Printf("Worker %d shutting down", id)
			return
		}
	}
}

// Dispatch sends a job to the worker pool.
func (wp *WorkerPool) Dispatch(loan model.Loan) {
	wp.jobs <- loan
}

// notifyOverdue fetches all subscriptions and sends a reminder for the loan.
func (wp *WorkerPool) notifyOverdue(ctx context.Context, loan model.Loan) {
	var subscriptions []model.PushSubscription
	if err := wp.db.WithContext(ctx).Find(&subscriptions).Error; err != nil {
		log.Printf("Error fetching subscriptions for loan %s: %v", loan.ID, err)
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	log.Printf("Sending %d notifications for overdue loan %s", len(subscriptions), loan.ID)

	label := loan.LaptopNama
	if label == "" {
		label = loan.LaptopID
	}
	message := fmt.Sprintf("Peminjaman terlambat: %s oleh %s (jatuh tempo %s)",
		label, loan.Nama, loan.TanggalKembali)
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, []byte(message))
	}
}

// sendNotification sends a single web push notification.
func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		log.Printf("Error sending notification to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	// Handle expired subscriptions
	if resp.StatusCode == 410 {
		log.Printf("Subscription for endpoint %s is expired. Deleting.", sub.Endpoint)
		if err := wp.db.WithContext(ctx).Delete(&sub).Error; err != nil {
			log.Printf("Failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
	}
}

// Checker periodically scans for overdue loans and dispatches a reminder
// once per loan per process lifetime.
type Checker struct {
	svc      *service.Service
	pool     *WorkerPool
	interval time.Duration

	mu       sync.Mutex
	notified map[string]bool
}

// NewChecker creates a Checker.
func NewChecker(svc *service.Service, pool *WorkerPool, interval time.Duration) *Checker {
	return &Checker{
		svc:      svc,
		pool:     pool,
		interval: interval,
		notified: make(map[string]bool),
	}
}

// Start runs the check loop until the context is cancelled. The first scan
// happens after one interval.
func (c *Checker) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.CheckOnce(time.Now())
			case <-ctx.Done():
				return
			}
		}
	}()
}

// CheckOnce scans for overdue loans at the given time and dispatches jobs
// for loans not yet notified. Returns the number of jobs dispatched.
func (c *Checker) CheckOnce(now time.Time) int {
	overdue := c.svc.OverdueLoans(now)

	c.mu.Lock()
	defer c.mu.Unlock()
	dispatched := 0
	for _, loan := range overdue {
		if c.notified[loan.ID] {
			continue
		}
		c.notified[loan.ID] = true
		c.pool.Dispatch(loan)
		dispatched++
	}
	return dispatched
}
