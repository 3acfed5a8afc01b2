package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nextplay-sports/platform-api/internal/email"
	"github.com/nextplay-sports/platform-api/internal/models"
)

type fakeNotificationStore struct {
	mu   sync.Mutex
	rows []*models.Notification
	err  error
}

func (f *fakeNotificationStore) CreateNotification(ctx context.Context, n *models.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.rows = append(f.rows, n)
	return nil
}

// fakeEmailService fails the first failN sends, then succeeds.
type fakeEmailService struct {
	mu       sync.Mutex
	failN    int
	attempts int
}

func (f *fakeEmailService) Send(ctx context.Context, m *email.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts++
	if f.attempts <= f.failN {
		return errors.New("smtp 421 try again")
	}
	return nil
}

func (f *fakeEmailService) sendCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attempts
}

func newTestDispatcher(st *fakeNotificationStore, em *fakeEmailService) *Dispatcher {
	d := &Dispatcher{
		store:   st,
		email:   em,
		queue:   make(chan queuedEmail, queueSize),
		backoff: time.Millisecond,
	}
	go d.worker()
	return d
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestNotify_PersistsRow(t *testing.T) {
	st := &fakeNotificationStore{}
	d := newTestDispatcher(st, &fakeEmailService{})

	err := d.Notify(context.Background(), "USR00AAAAA", models.NotificationRenewal, "Renewal", "renews soon", "/membership")
	assert.NoError(t, err)
	assert.Len(t, st.rows, 1)
	assert.Equal(t, "USR00AAAAA", st.rows[0].UserID)
	assert.Nil(t, st.rows[0].DismissedAt)
}

func TestNotify_StoreErrorSurfaces(t *testing.T) {
	st := &fakeNotificationStore{err: errors.New("db down")}
	d := newTestDispatcher(st, &fakeEmailService{})

	err := d.Notify(context.Background(), "USR00AAAAA", models.NotificationRenewal, "t", "m", "")
	assert.Error(t, err)
}

func TestNotifyEmail_Delivers(t *testing.T) {
	em := &fakeEmailService{}
	d := newTestDispatcher(&fakeNotificationStore{}, em)

	d.NotifyEmail("a@example.com", "Ada", email.TemplateMembershipRenewal, map[string]string{"days": "7"})

	waitFor(t, func() bool { return em.sendCount() == 1 })
}

func TestNotifyEmail_RetriesTransientFailure(t *testing.T) {
	em := &fakeEmailService{failN: 2}
	d := newTestDispatcher(&fakeNotificationStore{}, em)

	d.NotifyEmail("a@example.com", "Ada", email.TemplateEvalComplete, nil)

	// two failures, then the third attempt lands
	waitFor(t, func() bool { return em.sendCount() == 3 })
}

func TestNotifyEmail_GivesUpAfterMaxAttempts(t *testing.T) {
	em := &fakeEmailService{failN: 100}
	d := newTestDispatcher(&fakeNotificationStore{}, em)

	d.NotifyEmail("a@example.com", "Ada", email.TemplateEvalComplete, nil)

	waitFor(t, func() bool { return em.sendCount() == maxAttempts })
	// no further attempts after the cap
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, maxAttempts, em.sendCount())
}
