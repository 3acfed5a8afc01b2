package store

import (
	"context"
	"time"

	"github.com/nextplay-sports/platform-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

/* ------------------ Memberships ------------------ */

// GetCurrentMembership returns the user's active or trialing membership.
// gorm.ErrRecordNotFound means the user is on the free tier.
func (s *Store) GetCurrentMembership(ctx context.Context, userID string) (*models.Membership, error) {
	var m models.Membership
	err := s.DB.WithContext(ctx).
		Where("user_id = ? AND status IN ?", userID, []models.MembershipStatus{models.MembershipActive, models.MembershipTrialing}).
		Order("created_at desc").
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// UpsertActiveMembership cancels any live membership for the user before
// creating the new one, preserving at most one active row per user. Old rows
// are kept for audit, never deleted.
func (s *Store) UpsertActiveMembership(ctx context.Context, m *models.Membership) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Membership{}).
			Where("user_id = ? AND status IN ?", m.UserID, []models.MembershipStatus{models.MembershipActive, models.MembershipTrialing}).
			Updates(map[string]interface{}{"status": models.MembershipCancelled, "updated_at": time.Now()}).Error; err != nil {
			return err
		}
		return tx.Create(m).Error
	})
}

func (s *Store) UpdateMembershipFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now()
	return s.DB.WithContext(ctx).Model(&models.Membership{}).Where("id = ?", id).Updates(fields).Error
}

// ListMembershipsExpiringWithin returns live paid memberships whose end_date
// falls within the window. Free-tier and untracked (nil end_date) rows are
// excluded; the renewal job never touches them.
func (s *Store) ListMembershipsExpiringWithin(ctx context.Context, window time.Duration) ([]*models.Membership, error) {
	var res []*models.Membership
	err := s.DB.WithContext(ctx).
		Where("status IN ? AND tier <> ? AND end_date IS NOT NULL AND end_date <= ?",
			[]models.MembershipStatus{models.MembershipActive, models.MembershipTrialing},
			models.TierFree,
			time.Now().Add(window)).
		Find(&res).Error
	return res, err
}

// ExpireLapsedMemberships transitions live memberships whose end_date has
// passed to expired. This is the batch job the lifecycle evaluator defers to;
// evaluateStatus itself never mutates.
func (s *Store) ExpireLapsedMemberships(ctx context.Context) (int64, error) {
	res := s.DB.WithContext(ctx).Model(&models.Membership{}).
		Where("status IN ? AND end_date IS NOT NULL AND end_date < ?",
			[]models.MembershipStatus{models.MembershipActive, models.MembershipTrialing},
			time.Now()).
		Updates(map[string]interface{}{"status": models.MembershipExpired, "updated_at": time.Now()})
	return res.RowsAffected, res.Error
}

/* ------------------ Renewal reminders ------------------ */

// RecordReminder inserts the sent-reminder marker for (membership, bucket).
// Returns false when the marker already exists: the reminder was sent by an
// earlier run and must not be sent again.
func (s *Store) RecordReminder(ctx context.Context, membershipID uint, bucket models.ReminderBucket) (bool, error) {
	r := models.MembershipReminder{
		MembershipID: membershipID,
		Bucket:       bucket,
		SentAt:       time.Now(),
	}
	res := s.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&r)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
