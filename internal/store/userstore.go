package store

import (
	"context"
	"time"

	"github.com/nextplay-sports/platform-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

/* ------------------ User CRUD ------------------ */

func (s *Store) CreateUser(ctx context.Context, u *models.User, ud *models.UserDetails) error {
	// create user and empty details in a transaction
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(u).Error; err != nil {
			return err
		}
		ud.AdditionalInfo = map[string]interface{}{}
		if err := tx.Create(ud).Error; err != nil {
			return err
		}
		return nil
	})
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.DB.WithContext(ctx).Preload("UserDetails").Where("email = ?", email).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := s.DB.WithContext(ctx).Preload("UserDetails").First(&u, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) UpdateUserFields(ctx context.Context, id string, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now()
	return s.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields).Error
}

func (s *Store) UpdateUserDetailsFields(ctx context.Context, id string, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now()
	tx := s.DB.WithContext(ctx)
	// ensure the details row exists before the partial update
	_ = tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.UserDetails{UserID: id}).Error
	return tx.Model(&models.UserDetails{}).Where("user_id = ?", id).Updates(fields).Error
}

func (s *Store) ListUsersAdmin(ctx context.Context) ([]*models.User, error) {
	var res []*models.User
	if err := s.DB.WithContext(ctx).Order("created_at desc").Find(&res).Error; err != nil {
		return nil, err
	}
	return res, nil
}

/* ------------------ Relations (parent / recruiter links) ------------------ */

func (s *Store) AddRelation(ctx context.Context, parentID, athleteID, recruiterID string) error {
	return s.DB.WithContext(ctx).Create(&models.Relation{
		ParentID:    parentID,
		UserID:      athleteID,
		RecruiterID: recruiterID,
	}).Error
}

func (s *Store) IsParentOf(ctx context.Context, parentID, athleteID string) (bool, error) {
	var cnt int64
	err := s.DB.WithContext(ctx).Table("relations").
		Where("user_id = ? AND parent_id = ?", athleteID, parentID).
		Count(&cnt).Error
	return cnt > 0, err
}

// ListAthletesForParent returns all athletes linked to a guardian account.
func (s *Store) ListAthletesForParent(ctx context.Context, parentID string) ([]*models.User, error) {
	var athletes []models.User
	err := s.DB.WithContext(ctx).
		Table("users").
		Select("users.*").
		Joins("JOIN relations r ON r.user_id = users.id").
		Where("r.parent_id = ?", parentID).
		Order("users.created_at DESC").
		Find(&athletes).Error
	if err != nil {
		return nil, err
	}
	out := make([]*models.User, len(athletes))
	for i := range athletes {
		out[i] = &athletes[i]
	}
	return out, nil
}

/* ------------------ Coach profiles ------------------ */

func (s *Store) CreateCoachProfile(ctx context.Context, cp *models.CoachProfile) error {
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = time.Now()
	return s.DB.WithContext(ctx).Create(cp).Error
}

func (s *Store) GetCoachProfile(ctx context.Context, userID string) (*models.CoachProfile, error) {
	var cp models.CoachProfile
	if err := s.DB.WithContext(ctx).First(&cp, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &cp, nil
}

// ListOrphanedCoachAccounts returns coach users with no coach_profile row.
// The reconciliation job uses this to detect partially applied approvals.
func (s *Store) ListOrphanedCoachAccounts(ctx context.Context) ([]*models.User, error) {
	var res []*models.User
	err := s.DB.WithContext(ctx).
		Table("users").
		Select("users.*").
		Joins("LEFT JOIN coach_profiles cp ON cp.user_id = users.id").
		Where("users.role = ? AND cp.user_id IS NULL", models.RoleCoach).
		Find(&res).Error
	return res, err
}

func (s *Store) ListAdmins(ctx context.Context) ([]*models.User, error) {
	var res []*models.User
	if err := s.DB.WithContext(ctx).Where("role = ?", models.RoleAdmin).Find(&res).Error; err != nil {
		return nil, err
	}
	return res, nil
}
