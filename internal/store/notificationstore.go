package store

import (
	"context"
	"time"

	"github.com/nextplay-sports/platform-api/internal/models"
)

/* ------------------ Notifications ------------------ */

func (s *Store) CreateNotification(ctx context.Context, n *models.Notification) error {
	n.CreatedAt = time.Now()
	return s.DB.WithContext(ctx).Create(n).Error
}

// ListNotificationsForUser returns the user's notifications, newest first.
// Dismissed rows are excluded unless includeDismissed is set.
func (s *Store) ListNotificationsForUser(ctx context.Context, userID string, includeDismissed bool) ([]*models.Notification, error) {
	q := s.DB.WithContext(ctx).Where("user_id = ?", userID).Order("created_at desc")
	if !includeDismissed {
		q = q.Where("dismissed_at IS NULL")
	}
	var out []*models.Notification
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// DismissNotification marks a notification read. Only the owner may dismiss;
// the WHERE on user_id enforces that at the row level.
func (s *Store) DismissNotification(ctx context.Context, id string, userID string) (bool, error) {
	res := s.DB.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ? AND dismissed_at IS NULL", id, userID).
		Update("dismissed_at", time.Now())
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
