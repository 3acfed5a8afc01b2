package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/nextplay-sports/platform-api/internal/apperr"
	"github.com/nextplay-sports/platform-api/internal/email"
	"github.com/nextplay-sports/platform-api/internal/entitlements"
	"github.com/nextplay-sports/platform-api/internal/models"
	"github.com/nextplay-sports/platform-api/internal/store"
	"gorm.io/datatypes"
)

// staleCutoff: evaluations sitting longer than this in pending (since
// purchase) or in_progress (since claim) are flagged for admins.
const staleCutoff = 48 * time.Hour

// EvaluationStore is the slice of the store the workflow uses.
type EvaluationStore interface {
	CreateEvaluation(ctx context.Context, e *models.Evaluation) error
	GetEvaluationByID(ctx context.Context, id uint) (*models.Evaluation, error)
	ClaimEvaluation(ctx context.Context, id uint, coachID string, now time.Time) (bool, error)
	CompleteEvaluation(ctx context.Context, id uint, coachID string, fields map[string]interface{}, now time.Time) (bool, error)
	ListEvaluations(ctx context.Context, f store.EvaluationListFilter) ([]*models.Evaluation, error)
	ListUnclaimedEvaluations(ctx context.Context) ([]*models.Evaluation, error)
	ListStaleEvaluations(ctx context.Context, cutoff time.Time) ([]*models.Evaluation, error)
	ListAdmins(ctx context.Context) ([]*models.User, error)
}

type EvaluationService struct {
	store    EvaluationStore
	users    UserGetter
	gate     *entitlements.Gate
	notifier Notifier
	frontend string
}

func NewEvaluationService(st EvaluationStore, users UserGetter, gate *entitlements.Gate, notifier Notifier, frontendBaseURL string) *EvaluationService {
	return &EvaluationService{
		store:    st,
		users:    users,
		gate:     gate,
		notifier: notifier,
		frontend: frontendBaseURL,
	}
}

// Purchase creates a pending evaluation after payment verification. The
// server-side gate check here uses the same resolution logic as the UI
// endpoint, so a client cannot bypass tier gating.
func (s *EvaluationService) Purchase(ctx context.Context, athleteID, paymentRef, notes string) (*models.Evaluation, error) {
	if !s.gate.HasAccess(ctx, athleteID, "evaluation_request") {
		return nil, apperr.Authorization("upgrade required to request evaluations")
	}
	e := &models.Evaluation{
		AthleteID:   athleteID,
		Status:      models.EvaluationPending,
		PaymentRef:  paymentRef,
		Notes:       notes,
		PurchasedAt: time.Now(),
	}
	if err := s.store.CreateEvaluation(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// Claim transitions pending → in_progress for the winning coach. Exactly one
// of two concurrent claims succeeds; the loser gets a ConflictError, never a
// silent overwrite.
func (s *EvaluationService) Claim(ctx context.Context, evalID uint, coachID string) (*models.Evaluation, error) {
	won, err := s.store.ClaimEvaluation(ctx, evalID, coachID, time.Now())
	if err != nil {
		return nil, err
	}
	if !won {
		e, err := s.store.GetEvaluationByID(ctx, evalID)
		if err != nil {
			if store.IsNotFound(err) {
				return nil, apperr.NotFound("evaluation not found")
			}
			return nil, err
		}
		if e.CoachID != nil && *e.CoachID == coachID {
			// replayed claim by the winner; treat as success
			return e, nil
		}
		return nil, apperr.Conflict("evaluation already claimed by another coach")
	}
	return s.store.GetEvaluationByID(ctx, evalID)
}

// Complete transitions in_progress → completed for the assigned coach and
// fans out athlete notifications. The fan-out is best-effort: the transition
// is already persisted and is never rolled back on notification failure.
func (s *EvaluationService) Complete(ctx context.Context, evalID uint, coachID string, results datatypes.JSON, reportKey string) (*models.Evaluation, error) {
	fields := map[string]interface{}{}
	if results != nil {
		fields["results"] = results
	}
	if reportKey != "" {
		fields["report_key"] = reportKey
	}
	done, err := s.store.CompleteEvaluation(ctx, evalID, coachID, fields, time.Now())
	if err != nil {
		return nil, err
	}
	if !done {
		e, err := s.store.GetEvaluationByID(ctx, evalID)
		if err != nil {
			if store.IsNotFound(err) {
				return nil, apperr.NotFound("evaluation not found")
			}
			return nil, err
		}
		if e.CoachID == nil || *e.CoachID != coachID {
			return nil, apperr.Authorization("only the assigned coach can submit results")
		}
		return nil, apperr.Conflict(fmt.Sprintf("evaluation is %s, not in_progress", e.Status))
	}

	e, err := s.store.GetEvaluationByID(ctx, evalID)
	if err != nil {
		return nil, err
	}
	s.fanOutCompleted(ctx, e)
	return e, nil
}

func (s *EvaluationService) fanOutCompleted(ctx context.Context, e *models.Evaluation) {
	link := fmt.Sprintf("%s/evaluations/%d", s.frontend, e.ID)
	coachName := ""
	if e.Coach != nil {
		coachName = e.Coach.FirstName + " " + e.Coach.LastName
	}
	if err := s.notifier.Notify(ctx, e.AthleteID, models.NotificationEvalComplete,
		"Evaluation complete", "Your evaluation has been completed.", link); err != nil {
		log.Printf("evaluation: in-app notification for %d: %v", e.ID, err)
	}
	athlete, err := s.users.GetUserByID(ctx, e.AthleteID)
	if err != nil {
		log.Printf("evaluation: looking up athlete %s for email: %v", e.AthleteID, err)
		return
	}
	s.notifier.NotifyEmail(athlete.Email, athlete.FirstName, email.TemplateEvalComplete, map[string]string{
		"coach_name": coachName,
		"link":       link,
	})
}

func (s *EvaluationService) Get(ctx context.Context, id uint) (*models.Evaluation, error) {
	e, err := s.store.GetEvaluationByID(ctx, id)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, apperr.NotFound("evaluation not found")
		}
		return nil, err
	}
	return e, nil
}

func (s *EvaluationService) List(ctx context.Context, f store.EvaluationListFilter) ([]*models.Evaluation, error) {
	return s.store.ListEvaluations(ctx, f)
}

func (s *EvaluationService) ListUnclaimed(ctx context.Context) ([]*models.Evaluation, error) {
	return s.store.ListUnclaimedEvaluations(ctx)
}

// StalenessCheck is the scheduled advisory entry point: evaluations without
// progress for 48h generate admin notifications but are never auto-moved;
// reassignment stays a human decision.
func (s *EvaluationService) StalenessCheck(ctx context.Context, now time.Time) (int, error) {
	stale, err := s.store.ListStaleEvaluations(ctx, now.Add(-staleCutoff))
	if err != nil {
		return 0, err
	}
	if len(stale) == 0 {
		return 0, nil
	}
	admins, err := s.store.ListAdmins(ctx)
	if err != nil {
		return 0, err
	}
	for _, e := range stale {
		msg := fmt.Sprintf("Evaluation #%d has been %s for over 48 hours.", e.ID, e.Status)
		link := fmt.Sprintf("%s/admin/evaluations/%d", s.frontend, e.ID)
		for _, a := range admins {
			if err := s.notifier.Notify(ctx, a.ID, models.NotificationEvalStale, "Stale evaluation", msg, link); err != nil {
				log.Printf("evaluation: stale notification to admin %s: %v", a.ID, err)
			}
		}
	}
	return len(stale), nil
}
