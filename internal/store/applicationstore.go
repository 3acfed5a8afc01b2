package store

import (
	"context"
	"time"

	"github.com/nextplay-sports/platform-api/internal/models"
)

/* ------------------ Coach applications ------------------ */

func (s *Store) CreateCoachApplication(ctx context.Context, a *models.CoachApplication) error {
	a.Status = models.ApplicationPending
	a.CreatedAt = time.Now()
	a.UpdatedAt = time.Now()
	return s.DB.WithContext(ctx).Create(a).Error
}

func (s *Store) GetCoachApplicationByID(ctx context.Context, id uint) (*models.CoachApplication, error) {
	var a models.CoachApplication
	if err := s.DB.WithContext(ctx).First(&a, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Store) ListCoachApplications(ctx context.Context, status *models.ApplicationStatus) ([]*models.CoachApplication, error) {
	q := s.DB.WithContext(ctx).Model(&models.CoachApplication{})
	if status != nil && *status != "" {
		q = q.Where("status = ?", *status)
	}
	var out []*models.CoachApplication
	if err := q.Order("created_at desc").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// MarkApplicationReviewed transitions pending → approved|rejected. The
// conditional WHERE on status = 'pending' makes the transition one-way; a
// second reviewer racing on the same row gets false back.
func (s *Store) MarkApplicationReviewed(ctx context.Context, id uint, status models.ApplicationStatus, reviewerID string, now time.Time) (bool, error) {
	res := s.DB.WithContext(ctx).Model(&models.CoachApplication{}).
		Where("id = ? AND status = ?", id, models.ApplicationPending).
		Updates(map[string]interface{}{
			"status":      status,
			"reviewed_by": reviewerID,
			"reviewed_at": now,
			"updated_at":  now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
