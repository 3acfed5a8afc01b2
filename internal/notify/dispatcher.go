// Package notify fans workflow transitions out to in-app notifications and
// email. Delivery is fire-and-forget from the caller's perspective: a state
// transition already persisted must never be rolled back because a
// notification failed.
package notify

import (
	"context"
	"log"
	"time"

	"github.com/nextplay-sports/platform-api/internal/email"
	"github.com/nextplay-sports/platform-api/internal/models"
)

const (
	maxAttempts  = 3
	retryBackoff = 30 * time.Second
	queueSize    = 256
)

// NotificationStore is the slice of the store the dispatcher writes to.
type NotificationStore interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
}

type queuedEmail struct {
	msg     *email.Message
	attempt int
}

type Dispatcher struct {
	store NotificationStore
	email email.Service
	queue chan queuedEmail

	// backoff is shortened in tests
	backoff time.Duration
}

func NewDispatcher(store NotificationStore, emailSvc email.Service) *Dispatcher {
	d := &Dispatcher{
		store:   store,
		email:   emailSvc,
		queue:   make(chan queuedEmail, queueSize),
		backoff: retryBackoff,
	}
	go d.worker()
	return d
}

// Notify persists an in-app notification row. Errors are returned so callers
// can log them, but workflows treat the call as best-effort.
func (d *Dispatcher) Notify(ctx context.Context, userID string, typ models.NotificationType, title, message, link string) error {
	return d.store.CreateNotification(ctx, &models.Notification{
		UserID:  userID,
		Type:    typ,
		Title:   title,
		Message: message,
		Link:    link,
	})
}

// NotifyEmail enqueues a templated email. Returns immediately; failed sends
// are retried a bounded number of times by the worker, then dropped with a
// logged warning.
func (d *Dispatcher) NotifyEmail(to, toName string, tmpl email.Template, vars map[string]string) {
	msg := &email.Message{To: to, ToName: toName, Template: tmpl, Variables: vars}
	select {
	case d.queue <- queuedEmail{msg: msg, attempt: 1}:
	default:
		log.Printf("notify: email queue full, dropping template=%s to=%s", tmpl, to)
	}
}

func (d *Dispatcher) worker() {
	for q := range d.queue {
		err := d.email.Send(context.Background(), q.msg)
		if err == nil {
			continue
		}
		if q.attempt >= maxAttempts {
			log.Printf("notify: giving up on email template=%s to=%s after %d attempts: %v", q.msg.Template, q.msg.To, q.attempt, err)
			continue
		}
		log.Printf("notify: email send failed (attempt %d), will retry: %v", q.attempt, err)
		q.attempt++
		// requeue after a delay without blocking the worker loop
		go func(q queuedEmail) {
			time.Sleep(d.backoff)
			select {
			case d.queue <- q:
			default:
				log.Printf("notify: email queue full on retry, dropping template=%s to=%s", q.msg.Template, q.msg.To)
			}
		}(q)
	}
}
