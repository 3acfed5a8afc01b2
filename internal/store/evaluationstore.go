package store

import (
	"context"
	"time"

	"github.com/nextplay-sports/platform-api/internal/models"
)

type EvaluationListFilter struct {
	AthleteID *string
	CoachID   *string
	Status    *models.EvaluationStatus
}

func (s *Store) CreateEvaluation(ctx context.Context, e *models.Evaluation) error {
	return s.DB.WithContext(ctx).Create(e).Error
}

func (s *Store) GetEvaluationByID(ctx context.Context, id uint) (*models.Evaluation, error) {
	var e models.Evaluation
	if err := s.DB.WithContext(ctx).
		Preload("Athlete").Preload("Coach").
		First(&e, id).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

// ClaimEvaluation atomically assigns the evaluation to coachID iff it is
// still pending and unclaimed. Returns false when another coach won the row;
// the conditional UPDATE is the correctness mechanism for concurrent claims.
func (s *Store) ClaimEvaluation(ctx context.Context, id uint, coachID string, now time.Time) (bool, error) {
	res := s.DB.WithContext(ctx).Model(&models.Evaluation{}).
		Where("id = ? AND status = ? AND coach_id IS NULL", id, models.EvaluationPending).
		Updates(map[string]interface{}{
			"coach_id":   coachID,
			"claimed_at": now,
			"status":     models.EvaluationInProgress,
			"updated_at": now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// CompleteEvaluation transitions in_progress → completed, guarded on the
// submitting coach owning the claim.
func (s *Store) CompleteEvaluation(ctx context.Context, id uint, coachID string, fields map[string]interface{}, now time.Time) (bool, error) {
	fields["status"] = models.EvaluationCompleted
	fields["completed_at"] = now
	fields["updated_at"] = now
	res := s.DB.WithContext(ctx).Model(&models.Evaluation{}).
		Where("id = ? AND status = ? AND coach_id = ?", id, models.EvaluationInProgress, coachID).
		Updates(fields)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *Store) ListEvaluations(ctx context.Context, f EvaluationListFilter) ([]*models.Evaluation, error) {
	q := s.DB.WithContext(ctx).Model(&models.Evaluation{}).
		Preload("Athlete").Preload("Coach")

	if f.AthleteID != nil && *f.AthleteID != "" {
		q = q.Where("athlete_id = ?", *f.AthleteID)
	}
	if f.CoachID != nil && *f.CoachID != "" {
		q = q.Where("coach_id = ?", *f.CoachID)
	}
	if f.Status != nil && *f.Status != "" {
		q = q.Where("status = ?", *f.Status)
	}

	var out []*models.Evaluation
	if err := q.Order("purchased_at desc, id desc").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ListUnclaimedEvaluations returns the pending queue coaches pick from.
func (s *Store) ListUnclaimedEvaluations(ctx context.Context) ([]*models.Evaluation, error) {
	var out []*models.Evaluation
	err := s.DB.WithContext(ctx).Model(&models.Evaluation{}).
		Preload("Athlete").
		Where("status = ? AND coach_id IS NULL", models.EvaluationPending).
		Order("purchased_at asc").
		Find(&out).Error
	return out, err
}

// ListStaleEvaluations returns evaluations sitting too long without progress:
// pending past the cutoff since purchase, or in_progress past the cutoff
// since claim. Staleness is advisory; no transition happens here.
func (s *Store) ListStaleEvaluations(ctx context.Context, cutoff time.Time) ([]*models.Evaluation, error) {
	var out []*models.Evaluation
	err := s.DB.WithContext(ctx).Model(&models.Evaluation{}).
		Preload("Athlete").Preload("Coach").
		Where("(status = ? AND purchased_at < ?) OR (status = ? AND claimed_at < ?)",
			models.EvaluationPending, cutoff,
			models.EvaluationInProgress, cutoff).
		Order("purchased_at asc").
		Find(&out).Error
	return out, err
}
