package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"

	"github.com/nextplay-sports/platform-api/internal/apperr"
	"github.com/nextplay-sports/platform-api/internal/cache"
	"github.com/nextplay-sports/platform-api/internal/email"
	"github.com/nextplay-sports/platform-api/internal/entitlements"
	"github.com/nextplay-sports/platform-api/internal/models"
)

func gateFor(tier models.Tier) *entitlements.Gate {
	fs := newFakeMembershipStore()
	if tier != models.TierFree {
		fs.current = &models.Membership{ID: 1, UserID: "USR00ATHLE", Tier: tier, Status: models.MembershipActive}
	}
	return entitlements.NewGate(entitlements.NewResolver(fs, cache.NewTTL[models.Tier](time.Minute)))
}

func newEvalService(es *fakeEvalStore, users *fakeUsers, tier models.Tier, n *fakeNotifier) *EvaluationService {
	return NewEvaluationService(es, users, gateFor(tier), n, "https://app.example.com")
}

func seedInProgress(es *fakeEvalStore, coachID string) *models.Evaluation {
	e := &models.Evaluation{AthleteID: "USR00ATHLE", Status: models.EvaluationPending, PurchasedAt: time.Now()}
	_ = es.CreateEvaluation(context.Background(), e)
	_, _ = es.ClaimEvaluation(context.Background(), e.ID, coachID, time.Now())
	return e
}

func TestPurchase_RequiresProTier(t *testing.T) {
	svc := newEvalService(newFakeEvalStore(), &fakeUsers{}, models.TierFree, &fakeNotifier{})

	_, err := svc.Purchase(context.Background(), "USR00ATHLE", "pay_123", "")
	assert.Error(t, err)
	assert.True(t, apperr.IsAuthorization(err))
}

func TestPurchase_CreatesPendingEvaluation(t *testing.T) {
	es := newFakeEvalStore()
	svc := newEvalService(es, &fakeUsers{}, models.TierProMonthly, &fakeNotifier{})

	e, err := svc.Purchase(context.Background(), "USR00ATHLE", "pay_123", "focus on footwork")
	assert.NoError(t, err)
	assert.Equal(t, models.EvaluationPending, e.Status)
	assert.Nil(t, e.CoachID)
	assert.Equal(t, "pay_123", e.PaymentRef)
	assert.False(t, e.PurchasedAt.IsZero())
}

func TestClaim_FirstCoachWins(t *testing.T) {
	es := newFakeEvalStore()
	svc := newEvalService(es, &fakeUsers{}, models.TierProMonthly, &fakeNotifier{})
	e, _ := svc.Purchase(context.Background(), "USR00ATHLE", "pay_123", "")

	got, err := svc.Claim(context.Background(), e.ID, "USR00COACH")
	assert.NoError(t, err)
	assert.Equal(t, models.EvaluationInProgress, got.Status)
	assert.Equal(t, "USR00COACH", *got.CoachID)
	assert.NotNil(t, got.ClaimedAt)
}

func TestClaim_LoserGetsConflict(t *testing.T) {
	es := newFakeEvalStore()
	svc := newEvalService(es, &fakeUsers{}, models.TierProMonthly, &fakeNotifier{})
	e, _ := svc.Purchase(context.Background(), "USR00ATHLE", "pay_123", "")

	_, err := svc.Claim(context.Background(), e.ID, "USR00COACH")
	assert.NoError(t, err)

	_, err = svc.Claim(context.Background(), e.ID, "USR00OTHER")
	assert.True(t, apperr.IsConflict(err))

	// the workload is untouched by the losing claim
	got, _ := es.GetEvaluationByID(context.Background(), e.ID)
	assert.Equal(t, "USR00COACH", *got.CoachID)
}

func TestClaim_ReplayByWinnerSucceeds(t *testing.T) {
	es := newFakeEvalStore()
	svc := newEvalService(es, &fakeUsers{}, models.TierProMonthly, &fakeNotifier{})
	e, _ := svc.Purchase(context.Background(), "USR00ATHLE", "pay_123", "")

	_, err := svc.Claim(context.Background(), e.ID, "USR00COACH")
	assert.NoError(t, err)

	// retried request (e.g. client timeout) is not a conflict for the winner
	got, err := svc.Claim(context.Background(), e.ID, "USR00COACH")
	assert.NoError(t, err)
	assert.Equal(t, "USR00COACH", *got.CoachID)
}

func TestClaim_MissingEvaluation(t *testing.T) {
	svc := newEvalService(newFakeEvalStore(), &fakeUsers{}, models.TierProMonthly, &fakeNotifier{})
	_, err := svc.Claim(context.Background(), 404, "USR00COACH")
	assert.True(t, apperr.IsNotFound(err))
}

func TestComplete_AssignedCoach(t *testing.T) {
	es := newFakeEvalStore()
	users := &fakeUsers{users: map[string]*models.User{
		"USR00ATHLE": {ID: "USR00ATHLE", Email: "athlete@example.com", FirstName: "Ada"},
	}}
	n := &fakeNotifier{}
	svc := newEvalService(es, users, models.TierProMonthly, n)
	e := seedInProgress(es, "USR00COACH")

	results := datatypes.JSON(`{"speed": 8, "footwork": 7}`)
	got, err := svc.Complete(context.Background(), e.ID, "USR00COACH", results, "eval-reports/USR00COACH/r.pdf")
	assert.NoError(t, err)
	assert.Equal(t, models.EvaluationCompleted, got.Status)
	assert.NotNil(t, got.CompletedAt)
	assert.Equal(t, "eval-reports/USR00COACH/r.pdf", got.ReportKey)

	// athlete gets both an in-app notification and an email
	assert.Len(t, n.notes, 1)
	assert.Equal(t, "USR00ATHLE", n.notes[0].userID)
	assert.Equal(t, models.NotificationEvalComplete, n.notes[0].typ)
	assert.Len(t, n.emails, 1)
	assert.Equal(t, email.TemplateEvalComplete, n.emails[0].tmpl)
}

func TestComplete_WrongCoachDenied(t *testing.T) {
	es := newFakeEvalStore()
	svc := newEvalService(es, &fakeUsers{}, models.TierProMonthly, &fakeNotifier{})
	e := seedInProgress(es, "USR00COACH")

	_, err := svc.Complete(context.Background(), e.ID, "USR00OTHER", nil, "")
	assert.True(t, apperr.IsAuthorization(err))
}

func TestComplete_PendingIsConflict(t *testing.T) {
	es := newFakeEvalStore()
	svc := newEvalService(es, &fakeUsers{}, models.TierProMonthly, &fakeNotifier{})
	e, _ := svc.Purchase(context.Background(), "USR00ATHLE", "pay_123", "")

	_, err := svc.Complete(context.Background(), e.ID, "USR00COACH", nil, "")
	assert.Error(t, err)
	// unclaimed: the caller is not the assigned coach
	assert.True(t, apperr.IsAuthorization(err))
}

func TestComplete_AlreadyCompletedIsConflict(t *testing.T) {
	es := newFakeEvalStore()
	users := &fakeUsers{users: map[string]*models.User{"USR00ATHLE": {ID: "USR00ATHLE"}}}
	svc := newEvalService(es, users, models.TierProMonthly, &fakeNotifier{})
	e := seedInProgress(es, "USR00COACH")

	_, err := svc.Complete(context.Background(), e.ID, "USR00COACH", nil, "")
	assert.NoError(t, err)

	_, err = svc.Complete(context.Background(), e.ID, "USR00COACH", nil, "")
	assert.True(t, apperr.IsConflict(err))
}

func TestComplete_NotificationFailureDoesNotFail(t *testing.T) {
	es := newFakeEvalStore()
	users := &fakeUsers{} // athlete lookup fails, email is skipped
	n := &fakeNotifier{err: assert.AnError}
	svc := newEvalService(es, users, models.TierProMonthly, n)
	e := seedInProgress(es, "USR00COACH")

	got, err := svc.Complete(context.Background(), e.ID, "USR00COACH", nil, "")
	assert.NoError(t, err)
	assert.Equal(t, models.EvaluationCompleted, got.Status)
}

func TestStalenessCheck(t *testing.T) {
	es := newFakeEvalStore()
	coach := "USR00COACH"
	es.stale = []*models.Evaluation{
		{ID: 1, AthleteID: "USR00ATHLE", Status: models.EvaluationPending},
		{ID: 2, AthleteID: "USR00ATHLE", Status: models.EvaluationInProgress, CoachID: &coach},
	}
	es.admins = []*models.User{{ID: "USR00ADMIN"}, {ID: "USR00ADMN2"}}
	n := &fakeNotifier{}
	svc := newEvalService(es, &fakeUsers{}, models.TierProMonthly, n)

	count, err := svc.StalenessCheck(context.Background(), time.Now())
	assert.NoError(t, err)
	assert.Equal(t, 2, count)
	// both admins get a note per stale evaluation; nothing is reassigned
	assert.Len(t, n.notes, 4)
	for _, note := range n.notes {
		assert.Equal(t, models.NotificationEvalStale, note.typ)
	}
	// advisory only: the stale rows themselves are untouched
	assert.Equal(t, models.EvaluationPending, es.stale[0].Status)
	assert.Nil(t, es.stale[0].CoachID)
}

func TestStalenessCheck_NothingStale(t *testing.T) {
	es := newFakeEvalStore()
	n := &fakeNotifier{}
	svc := newEvalService(es, &fakeUsers{}, models.TierProMonthly, n)

	count, err := svc.StalenessCheck(context.Background(), time.Now())
	assert.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Empty(t, n.notes)
}
