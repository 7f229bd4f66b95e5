package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/rs/zerolog"

	"laundry-coordinator/internal/log"
	"laundry-coordinator/internal/metrics"
	"laundry-coordinator/internal/model"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// SubscriptionStore is the part of the store the workers need.
type SubscriptionStore interface {
	SubscriptionsForUser(ctx context.Context, userID string) ([]model.PushSubscription, error)
	DeleteSubscription(ctx context.Context, endpoint string) error
}

// WorkerPool delivers notification intents in the background. Delivery is
// best-effort: a full queue drops the intent and failures are only logged.
type WorkerPool struct {
	size    int
	jobs    chan Intent
	store   SubscriptionStore
	webpush *webpush.Options
	sender  NotificationSender
	logger  zerolog.Logger
	wg      sync.WaitGroup
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size, queue int, store SubscriptionStore, webpushOptions *webpush.Options) *WorkerPool {
	if size <= 0 {
		size = 1
	}
	if queue < size {
		queue = size
	}
	return &WorkerPool{
		size:    size,
		jobs:    make(chan Intent, queue),
		store:   store,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
		logger:  log.WithComponent("notification"),
	}
}

// Start launches the worker goroutines. They exit when ctx is cancelled.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		wp.wg.Add(1)
		go wp.worker(ctx, i)
	}
}

// Wait blocks until every worker has exited.
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	defer wp.wg.Done()
	wp.logger.Debug().Int("worker", id).Msg("worker started")
	for {
		select {
		case in := <-wp.jobs:
			wp.deliver(ctx, in)
		case <-ctx.Done():
			wp.logger.Debug().Int("worker", id).Msg("worker shutting down")
			return
		}
	}
}

// Notify enqueues an intent without blocking.
func (wp *WorkerPool) Notify(ctx context.Context, in Intent) {
	select {
	case wp.jobs <- in:
	default:
		metrics.RecordNotification(string(in.Kind), "dropped")
		wp.logger.Warn().
			Str(log.FieldUserID, in.UserID).
			Str("kind", string(in.Kind)).
			Msg("notification queue full, dropping intent")
	}
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan Intent {
	return wp.jobs
}

func (wp *WorkerPool) deliver(ctx context.Context, in Intent) {
	subs, err := wp.store.SubscriptionsForUser(ctx, in.UserID)
	if err != nil {
		metrics.RecordNotification(string(in.Kind), "failed")
		wp.logger.Error().Err(err).Str(log.FieldUserID, in.UserID).Msg("failed to fetch subscriptions")
		return
	}
	if len(subs) == 0 {
		metrics.RecordNotification(string(in.Kind), "no_subscription")
		wp.logger.Debug().Str(log.FieldUserID, in.UserID).Msg("user has no push subscriptions")
		return
	}

	body, err := json.Marshal(Render(in))
	if err != nil {
		wp.logger.Error().Err(err).Msg("failed to encode notification")
		return
	}

	for _, sub := range subs {
		wp.sendNotification(ctx, in, sub, body)
	}
}

// sendNotification sends a single web push notification.
func (wp *WorkerPool) sendNotification(ctx context.Context, in Intent, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		metrics.RecordNotification(string(in.Kind), "failed")
		wp.logger.Warn().Err(err).Str("endpoint", sub.Endpoint).Msg("failed to send notification")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone {
		metrics.RecordNotification(string(in.Kind), "expired")
		wp.logger.Info().Str("endpoint", sub.Endpoint).Msg("subscription expired, deleting")
		if err := wp.store.DeleteSubscription(ctx, sub.Endpoint); err != nil {
			wp.logger.Error().Err(err).Str("endpoint", sub.Endpoint).Msg("failed to delete expired subscription")
		}
		return
	}
	if resp.StatusCode >= 400 {
		metrics.RecordNotification(string(in.Kind), "failed")
		wp.logger.Warn().Int("status", resp.StatusCode).Str("endpoint", sub.Endpoint).Msg("push service rejected notification")
		return
	}
	metrics.RecordNotification(string(in.Kind), "sent")
}
