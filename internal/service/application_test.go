package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nextplay-sports/platform-api/internal/apperr"
	"github.com/nextplay-sports/platform-api/internal/email"
	"github.com/nextplay-sports/platform-api/internal/models"
)

func newAppService(st *fakeAppStore, id *fakeIdentity, n *fakeNotifier) *ApplicationService {
	return NewApplicationService(st, id, n, "https://app.example.com", 72*time.Hour, func() string { return "tok-fixed" })
}

func seedApplication(st *fakeAppStore) *models.CoachApplication {
	a := &models.CoachApplication{
		Email:      "coach@example.com",
		FirstName:  "Casey",
		LastName:   "Jones",
		Sport:      "soccer",
		Experience: "10 years club coaching",
	}
	_ = st.CreateCoachApplication(context.Background(), a)
	return a
}

func TestApprove_HappyPath(t *testing.T) {
	st := newFakeAppStore()
	id := &fakeIdentity{}
	n := &fakeNotifier{}
	svc := newAppService(st, id, n)
	a := seedApplication(st)

	coach, err := svc.Approve(context.Background(), a.ID, "USR00ADMIN")
	assert.NoError(t, err)
	assert.Equal(t, models.RoleCoach, coach.Role)
	assert.Equal(t, "coach@example.com", coach.Email)

	// profile carries the application answers
	assert.Equal(t, "soccer", st.profiles[coach.ID].Sport)

	// terminal state recorded with the reviewer
	got, _ := svc.Get(context.Background(), a.ID)
	assert.Equal(t, models.ApplicationApproved, got.Status)
	assert.Equal(t, "USR00ADMIN", got.ReviewedBy)

	// setup token saved and mailed with the link
	assert.Equal(t, "tok-fixed", st.tokens[coach.ID])
	assert.Len(t, n.emails, 1)
	assert.Equal(t, email.TemplateCoachWelcome, n.emails[0].tmpl)
	assert.Contains(t, n.emails[0].vars["setup_link"], "token=tok-fixed")

	assert.Len(t, n.notes, 1)
	assert.Equal(t, models.NotificationCoachApproved, n.notes[0].typ)
}

func TestApprove_AlreadyApproved(t *testing.T) {
	st := newFakeAppStore()
	id := &fakeIdentity{}
	svc := newAppService(st, id, &fakeNotifier{})
	a := seedApplication(st)

	_, err := svc.Approve(context.Background(), a.ID, "USR00ADMIN")
	assert.NoError(t, err)

	// the duplicate approval must not create a second account
	_, err = svc.Approve(context.Background(), a.ID, "USR00ADMN2")
	assert.True(t, apperr.IsConflict(err))
	assert.Len(t, id.users, 1)
}

func TestApprove_RejectedIsTerminal(t *testing.T) {
	st := newFakeAppStore()
	svc := newAppService(st, &fakeIdentity{}, &fakeNotifier{})
	a := seedApplication(st)

	assert.NoError(t, svc.Reject(context.Background(), a.ID, "USR00ADMIN"))

	_, err := svc.Approve(context.Background(), a.ID, "USR00ADMIN")
	assert.True(t, apperr.IsConflict(err))
}

func TestApprove_IdentityFailureAborts(t *testing.T) {
	st := newFakeAppStore()
	id := &fakeIdentity{err: errors.New("db down")}
	n := &fakeNotifier{}
	svc := newAppService(st, id, n)
	a := seedApplication(st)

	_, err := svc.Approve(context.Background(), a.ID, "USR00ADMIN")
	assert.True(t, apperr.IsExternal(err))

	// nothing moved: application stays pending and retryable
	got, _ := svc.Get(context.Background(), a.ID)
	assert.Equal(t, models.ApplicationPending, got.Status)
	assert.Empty(t, st.profiles)
	assert.Empty(t, n.emails)
}

func TestApprove_ProfileFailureLeavesOrphan(t *testing.T) {
	st := newFakeAppStore()
	st.profileErr = errors.New("db down")
	id := &fakeIdentity{}
	svc := newAppService(st, id, &fakeNotifier{})
	a := seedApplication(st)

	// the approval still lands; the orphaned account is reconciliation's job
	coach, err := svc.Approve(context.Background(), a.ID, "USR00ADMIN")
	assert.NoError(t, err)
	assert.NotNil(t, coach)
	assert.Empty(t, st.profiles)

	got, _ := svc.Get(context.Background(), a.ID)
	assert.Equal(t, models.ApplicationApproved, got.Status)
}

func TestApprove_MissingApplication(t *testing.T) {
	svc := newAppService(newFakeAppStore(), &fakeIdentity{}, &fakeNotifier{})
	_, err := svc.Approve(context.Background(), 404, "USR00ADMIN")
	assert.True(t, apperr.IsNotFound(err))
}

func TestReject(t *testing.T) {
	st := newFakeAppStore()
	svc := newAppService(st, &fakeIdentity{}, &fakeNotifier{})
	a := seedApplication(st)

	assert.NoError(t, svc.Reject(context.Background(), a.ID, "USR00ADMIN"))

	got, _ := svc.Get(context.Background(), a.ID)
	assert.Equal(t, models.ApplicationRejected, got.Status)

	err := svc.Reject(context.Background(), a.ID, "USR00ADMIN")
	assert.True(t, apperr.IsConflict(err))
}

func TestList_FilterByStatus(t *testing.T) {
	st := newFakeAppStore()
	svc := newAppService(st, &fakeIdentity{}, &fakeNotifier{})
	a := seedApplication(st)
	b := &models.CoachApplication{Email: "other@example.com"}
	_ = st.CreateCoachApplication(context.Background(), b)
	assert.NoError(t, svc.Reject(context.Background(), b.ID, "USR00ADMIN"))

	pending := models.ApplicationPending
	got, err := svc.List(context.Background(), &pending)
	assert.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, a.ID, got[0].ID)
}

func TestReconcileOrphans(t *testing.T) {
	st := newFakeAppStore()
	st.orphans = []*models.User{{ID: "USR00GHOST", Email: "ghost@example.com", Role: models.RoleCoach}}
	st.admins = []*models.User{{ID: "USR00ADMIN"}, {ID: "USR00ADMN2"}}
	n := &fakeNotifier{}
	svc := newAppService(st, &fakeIdentity{}, n)

	count, err := svc.ReconcileOrphans(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Len(t, n.notes, 2)
	for _, note := range n.notes {
		assert.Equal(t, models.NotificationOrphanAccount, note.typ)
		assert.Contains(t, note.message, "USR00GHOST")
	}
}

func TestReconcileOrphans_Clean(t *testing.T) {
	n := &fakeNotifier{}
	svc := newAppService(newFakeAppStore(), &fakeIdentity{}, n)

	count, err := svc.ReconcileOrphans(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Empty(t, n.notes)
}
