package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/nextplay-sports/platform-api/internal/email"
	"github.com/nextplay-sports/platform-api/internal/models"
	"github.com/nextplay-sports/platform-api/internal/store"
)

/* ------------------ notifier ------------------ */

type noteCall struct {
	userID  string
	typ     models.NotificationType
	title   string
	message string
	link    string
}

type emailCall struct {
	to   string
	tmpl email.Template
	vars map[string]string
}

type fakeNotifier struct {
	mu     sync.Mutex
	notes  []noteCall
	emails []emailCall
	err    error
}

func (f *fakeNotifier) Notify(ctx context.Context, userID string, typ models.NotificationType, title, message, link string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.notes = append(f.notes, noteCall{userID, typ, title, message, link})
	return nil
}

func (f *fakeNotifier) NotifyEmail(to, toName string, tmpl email.Template, vars map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emails = append(f.emails, emailCall{to, tmpl, vars})
}

/* ------------------ users ------------------ */

type fakeUsers struct {
	users map[string]*models.User
}

func (f *fakeUsers) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

/* ------------------ membership store ------------------ */

type fakeMembershipStore struct {
	current     *models.Membership
	currentErr  error
	upserted    []*models.Membership
	updates     map[uint]map[string]interface{}
	expiring    []*models.Membership
	expiringErr error
	reminders   map[string]bool
	reminderErr error
	expired     int64
}

func newFakeMembershipStore() *fakeMembershipStore {
	return &fakeMembershipStore{
		updates:   map[uint]map[string]interface{}{},
		reminders: map[string]bool{},
	}
}

func (f *fakeMembershipStore) GetCurrentMembership(ctx context.Context, userID string) (*models.Membership, error) {
	if f.currentErr != nil {
		return nil, f.currentErr
	}
	if f.current == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return f.current, nil
}

func (f *fakeMembershipStore) UpsertActiveMembership(ctx context.Context, m *models.Membership) error {
	f.upserted = append(f.upserted, m)
	f.current = m
	return nil
}

func (f *fakeMembershipStore) UpdateMembershipFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	f.updates[id] = fields
	return nil
}

func (f *fakeMembershipStore) ListMembershipsExpiringWithin(ctx context.Context, window time.Duration) ([]*models.Membership, error) {
	return f.expiring, f.expiringErr
}

func (f *fakeMembershipStore) ExpireLapsedMemberships(ctx context.Context) (int64, error) {
	return f.expired, nil
}

func (f *fakeMembershipStore) RecordReminder(ctx context.Context, membershipID uint, bucket models.ReminderBucket) (bool, error) {
	if f.reminderErr != nil {
		return false, f.reminderErr
	}
	key := fmt.Sprintf("%d-%s", membershipID, bucket)
	if f.reminders[key] {
		return false, nil
	}
	f.reminders[key] = true
	return true, nil
}

/* ------------------ evaluation store ------------------ */

// fakeEvalStore mirrors the conditional-update semantics of the real store:
// claim and complete only mutate when the guard matches, and report whether
// any row moved.
type fakeEvalStore struct {
	mu     sync.Mutex
	nextID uint
	evals  map[uint]*models.Evaluation
	admins []*models.User
	stale  []*models.Evaluation
}

func newFakeEvalStore() *fakeEvalStore {
	return &fakeEvalStore{evals: map[uint]*models.Evaluation{}}
}

func (f *fakeEvalStore) CreateEvaluation(ctx context.Context, e *models.Evaluation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	e.ID = f.nextID
	cp := *e
	f.evals[e.ID] = &cp
	return nil
}

func (f *fakeEvalStore) GetEvaluationByID(ctx context.Context, id uint) (*models.Evaluation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.evals[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *e
	return &cp, nil
}

func (f *fakeEvalStore) ClaimEvaluation(ctx context.Context, id uint, coachID string, now time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.evals[id]
	if !ok || e.Status != models.EvaluationPending || e.CoachID != nil {
		return false, nil
	}
	cid := coachID
	e.CoachID = &cid
	e.Status = models.EvaluationInProgress
	e.ClaimedAt = &now
	return true, nil
}

func (f *fakeEvalStore) CompleteEvaluation(ctx context.Context, id uint, coachID string, fields map[string]interface{}, now time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.evals[id]
	if !ok || e.Status != models.EvaluationInProgress || e.CoachID == nil || *e.CoachID != coachID {
		return false, nil
	}
	e.Status = models.EvaluationCompleted
	e.CompletedAt = &now
	if v, ok := fields["report_key"]; ok {
		e.ReportKey = v.(string)
	}
	return true, nil
}

func (f *fakeEvalStore) ListEvaluations(ctx context.Context, filter store.EvaluationListFilter) ([]*models.Evaluation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Evaluation
	for _, e := range f.evals {
		if filter.AthleteID != nil && e.AthleteID != *filter.AthleteID {
			continue
		}
		if filter.CoachID != nil && (e.CoachID == nil || *e.CoachID != *filter.CoachID) {
			continue
		}
		if filter.Status != nil && e.Status != *filter.Status {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeEvalStore) ListUnclaimedEvaluations(ctx context.Context) ([]*models.Evaluation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Evaluation
	for _, e := range f.evals {
		if e.Status == models.EvaluationPending && e.CoachID == nil {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeEvalStore) ListStaleEvaluations(ctx context.Context, cutoff time.Time) ([]*models.Evaluation, error) {
	return f.stale, nil
}

func (f *fakeEvalStore) ListAdmins(ctx context.Context) ([]*models.User, error) {
	return f.admins, nil
}

/* ------------------ application store ------------------ */

type fakeAppStore struct {
	nextID     uint
	apps       map[uint]*models.CoachApplication
	profiles   map[string]*models.CoachProfile
	profileErr error
	tokens     map[string]string // userID -> token
	tokenErr   error
	orphans    []*models.User
	admins     []*models.User
}

func newFakeAppStore() *fakeAppStore {
	return &fakeAppStore{
		apps:     map[uint]*models.CoachApplication{},
		profiles: map[string]*models.CoachProfile{},
		tokens:   map[string]string{},
	}
}

func (f *fakeAppStore) CreateCoachApplication(ctx context.Context, a *models.CoachApplication) error {
	f.nextID++
	a.ID = f.nextID
	if a.Status == "" {
		a.Status = models.ApplicationPending
	}
	cp := *a
	f.apps[a.ID] = &cp
	return nil
}

func (f *fakeAppStore) GetCoachApplicationByID(ctx context.Context, id uint) (*models.CoachApplication, error) {
	a, ok := f.apps[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAppStore) ListCoachApplications(ctx context.Context, status *models.ApplicationStatus) ([]*models.CoachApplication, error) {
	var out []*models.CoachApplication
	for _, a := range f.apps {
		if status != nil && a.Status != *status {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeAppStore) MarkApplicationReviewed(ctx context.Context, id uint, status models.ApplicationStatus, reviewerID string, now time.Time) (bool, error) {
	a, ok := f.apps[id]
	if !ok || a.Status != models.ApplicationPending {
		return false, nil
	}
	a.Status = status
	a.ReviewedBy = reviewerID
	a.ReviewedAt = &now
	return true, nil
}

func (f *fakeAppStore) CreateCoachProfile(ctx context.Context, cp *models.CoachProfile) error {
	if f.profileErr != nil {
		return f.profileErr
	}
	f.profiles[cp.UserID] = cp
	return nil
}

func (f *fakeAppStore) ListOrphanedCoachAccounts(ctx context.Context) ([]*models.User, error) {
	return f.orphans, nil
}

func (f *fakeAppStore) ListAdmins(ctx context.Context) ([]*models.User, error) {
	return f.admins, nil
}

func (f *fakeAppStore) SaveSetupToken(ctx context.Context, userID, plainToken string, expiresAt time.Time) error {
	if f.tokenErr != nil {
		return f.tokenErr
	}
	f.tokens[userID] = plainToken
	return nil
}

/* ------------------ identity ------------------ */

type fakeIdentity struct {
	nextN int
	err   error
	users []*models.User
}

func (f *fakeIdentity) CreateUser(ctx context.Context, emailAddr, password, firstName, lastName string, role models.Role, picture string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.users {
		if u.Email == emailAddr {
			return nil, errors.New("duplicate key value violates unique constraint \"idx_users_email\"")
		}
	}
	f.nextN++
	u := &models.User{
		ID:        fmt.Sprintf("USR00TST%02d", f.nextN),
		Email:     emailAddr,
		FirstName: firstName,
		LastName:  lastName,
		Role:      role,
		Active:    true,
	}
	f.users = append(f.users, u)
	return u, nil
}
