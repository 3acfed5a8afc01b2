package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/nextplay-sports/platform-api/internal/apperr"
	"github.com/nextplay-sports/platform-api/internal/email"
	"github.com/nextplay-sports/platform-api/internal/models"
	"github.com/nextplay-sports/platform-api/internal/store"
)

// ApplicationStore is the slice of the store the approval workflow uses.
type ApplicationStore interface {
	CreateCoachApplication(ctx context.Context, a *models.CoachApplication) error
	GetCoachApplicationByID(ctx context.Context, id uint) (*models.CoachApplication, error)
	ListCoachApplications(ctx context.Context, status *models.ApplicationStatus) ([]*models.CoachApplication, error)
	MarkApplicationReviewed(ctx context.Context, id uint, status models.ApplicationStatus, reviewerID string, now time.Time) (bool, error)
	CreateCoachProfile(ctx context.Context, cp *models.CoachProfile) error
	ListOrphanedCoachAccounts(ctx context.Context) ([]*models.User, error)
	ListAdmins(ctx context.Context) ([]*models.User, error)
	SaveSetupToken(ctx context.Context, userID, plainToken string, expiresAt time.Time) error
}

// Identity is the account provisioning collaborator; UserService implements
// it against the local users table.
type Identity interface {
	CreateUser(ctx context.Context, email, password, firstName, lastName string, role models.Role, picture string) (*models.User, error)
}

type ApplicationService struct {
	store    ApplicationStore
	identity Identity
	notifier Notifier
	frontend string
	setupTTL time.Duration
	tokenGen func() string
}

func NewApplicationService(st ApplicationStore, identity Identity, notifier Notifier, frontendBaseURL string, setupTTL time.Duration, tokenGen func() string) *ApplicationService {
	return &ApplicationService{
		store:    st,
		identity: identity,
		notifier: notifier,
		frontend: frontendBaseURL,
		setupTTL: setupTTL,
		tokenGen: tokenGen,
	}
}

// Submit records a public coach application in pending state.
func (s *ApplicationService) Submit(ctx context.Context, a *models.CoachApplication) error {
	return s.store.CreateCoachApplication(ctx, a)
}

func (s *ApplicationService) Get(ctx context.Context, id uint) (*models.CoachApplication, error) {
	a, err := s.store.GetCoachApplicationByID(ctx, id)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, apperr.NotFound("application not found")
		}
		return nil, err
	}
	return a, nil
}

func (s *ApplicationService) List(ctx context.Context, status *models.ApplicationStatus) ([]*models.CoachApplication, error) {
	return s.store.ListCoachApplications(ctx, status)
}

// Approve provisions a coach from a pending application. Ordered side
// effects: account, coach profile, status transition, password-setup email.
// Identity creation failure aborts the whole operation; later failures are
// logged, not rolled back — the reconciliation job picks up the orphans.
func (s *ApplicationService) Approve(ctx context.Context, appID uint, reviewerID string) (*models.User, error) {
	a, err := s.Get(ctx, appID)
	if err != nil {
		return nil, err
	}
	switch a.Status {
	case models.ApplicationApproved:
		return nil, apperr.Conflict("application already approved")
	case models.ApplicationRejected:
		return nil, apperr.Conflict("application already rejected")
	}

	// step 1: identity. Abort here on failure — nothing else has happened
	// yet. A concurrent approval loses on the users.email unique index.
	coach, err := s.identity.CreateUser(ctx, a.Email, "", a.FirstName, a.LastName, models.RoleCoach, "")
	if err != nil {
		return nil, apperr.External("identity", err)
	}

	// steps past identity creation are not rolled back on failure
	if err := s.store.CreateCoachProfile(ctx, &models.CoachProfile{
		UserID:     coach.ID,
		Sport:      a.Sport,
		Experience: a.Experience,
		Credential: a.Credential,
		Extra:      a.Extra,
	}); err != nil {
		log.Printf("application: coach profile for %s (app %d) failed, leaving orphan for reconciliation: %v", coach.ID, a.ID, err)
	}

	moved, err := s.store.MarkApplicationReviewed(ctx, a.ID, models.ApplicationApproved, reviewerID, time.Now())
	if err != nil {
		log.Printf("application: marking app %d approved failed: %v", a.ID, err)
	} else if !moved {
		// another reviewer raced us between the read and this update; the
		// duplicate account was already prevented by the email index
		return nil, apperr.Conflict("application already approved")
	}

	// step 6: password-setup email, best-effort
	token := s.tokenGen()
	if err := s.store.SaveSetupToken(ctx, coach.ID, token, time.Now().Add(s.setupTTL)); err != nil {
		log.Printf("application: setup token for %s failed: %v", coach.ID, err)
	} else {
		s.notifier.NotifyEmail(a.Email, a.FirstName, email.TemplateCoachWelcome, map[string]string{
			"setup_link": fmt.Sprintf("%s/setup-password?token=%s", s.frontend, token),
		})
	}
	if err := s.notifier.Notify(ctx, coach.ID, models.NotificationCoachApproved,
		"Welcome aboard", "Your coach application was approved.", s.frontend+"/coach"); err != nil {
		log.Printf("application: welcome notification for %s: %v", coach.ID, err)
	}

	return coach, nil
}

// Reject is the other terminal transition. One-way like approval.
func (s *ApplicationService) Reject(ctx context.Context, appID uint, reviewerID string) error {
	a, err := s.Get(ctx, appID)
	if err != nil {
		return err
	}
	switch a.Status {
	case models.ApplicationApproved:
		return apperr.Conflict("application already approved")
	case models.ApplicationRejected:
		return apperr.Conflict("application already rejected")
	}
	moved, err := s.store.MarkApplicationReviewed(ctx, appID, models.ApplicationRejected, reviewerID, time.Now())
	if err != nil {
		return err
	}
	if !moved {
		return apperr.Conflict("application already reviewed")
	}
	return nil
}

// ReconcileOrphans is the scheduled check for coach accounts whose approval
// died partway (account exists, no coach profile). Advisory: admins get a
// notification and fix it by hand.
func (s *ApplicationService) ReconcileOrphans(ctx context.Context) (int, error) {
	orphans, err := s.store.ListOrphanedCoachAccounts(ctx)
	if err != nil {
		return 0, err
	}
	if len(orphans) == 0 {
		return 0, nil
	}
	admins, err := s.store.ListAdmins(ctx)
	if err != nil {
		return 0, err
	}
	for _, o := range orphans {
		msg := fmt.Sprintf("Coach account %s (%s) has no coach profile; its approval may have partially failed.", o.ID, o.Email)
		for _, a := range admins {
			if err := s.notifier.Notify(ctx, a.ID, models.NotificationOrphanAccount, "Orphaned coach account", msg, s.frontend+"/admin/coaches"); err != nil {
				log.Printf("application: orphan notification to admin %s: %v", a.ID, err)
			}
		}
	}
	return len(orphans), nil
}
