package postgres

import (
	"context"
	"errors"

	"github.com/fitness360/notification-svc/internal/domain/common/errorz"
	"github.com/fitness360/notification-svc/internal/domain/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PreferenceStorage struct {
	db *gorm.DB
}

func NewPreferenceStorage(db *gorm.DB) *PreferenceStorage {
	return &PreferenceStorage{
		db: db,
	}
}

// GetByUser returns every stored type preference of the user ordered by type.
func (s *PreferenceStorage) GetByUser(ctx context.Context, userID string) ([]entity.NotificationPreference, error) {
	var preferences []entity.NotificationPreference
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("type").Find(&preferences).Error
	return preferences, err
}

func (s *PreferenceStorage) Get(ctx context.Context, userID string, notificationType entity.NotificationType) (*entity.NotificationPreference, error) {
	var preference entity.NotificationPreference
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND type = ?", userID, notificationType).
		First(&preference).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errorz.ErrPreferenceNotFound
	}
	if err != nil {
		return nil, err
	}
	return &preference, nil
}

func (s *PreferenceStorage) Save(ctx context.Context, preference *entity.NotificationPreference) error {
	return upsertPreference(s.db.WithContext(ctx), preference)
}

// SaveMany upserts all rows in one transaction; either every row is written or none.
func (s *PreferenceStorage) SaveMany(ctx context.Context, preferences []entity.NotificationPreference) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range preferences {
			if err := upsertPreference(tx, &preferences[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func upsertPreference(db *gorm.DB, preference *entity.NotificationPreference) error {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "type"}},
		DoUpdates: clause.AssignmentColumns([]string{"channels", "enabled", "updated_at"}),
	}).Create(preference).Error
}
