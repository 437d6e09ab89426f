package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/fitness360/notification-svc/internal/domain/common/errorz"
	"github.com/fitness360/notification-svc/internal/domain/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingsStorage struct {
	db *gorm.DB
}

func NewSettingsStorage(db *gorm.DB) *SettingsStorage {
	return &SettingsStorage{
		db: db,
	}
}

func (s *SettingsStorage) Get(ctx context.Context, userID string) (*entity.UserNotificationSettings, error) {
	var settings entity.UserNotificationSettings
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errorz.ErrSettingsNotFound
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

// Save writes the whole settings row. Nil window bounds and mute are stored as NULL.
func (s *SettingsStorage) Save(ctx context.Context, settings *entity.UserNotificationSettings) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"email", "push", "whatsapp", "allowed_start_time", "allowed_end_time", "muted_until", "updated_at",
		}),
	}).Create(settings).Error
}

// ClearExpiredMutes resets muted_until for every mute that ended at or before now
// and returns the affected user ids.
func (s *SettingsStorage) ClearExpiredMutes(ctx context.Context, now time.Time) ([]string, error) {
	var userIDs []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		expired := tx.Model(&entity.UserNotificationSettings{}).Where("muted_until IS NOT NULL AND muted_until <= ?", now)
		if err := expired.Clauses(clause.Locking{Strength: "UPDATE"}).Pluck("user_id", &userIDs).Error; err != nil {
			return err
		}
		if len(userIDs) == 0 {
			return nil
		}
		return tx.Model(&entity.UserNotificationSettings{}).
			Where("user_id IN ?", userIDs).
			UpdateColumns(map[string]interface{}{"muted_until": nil, "updated_at": now}).Error
	})
	if err != nil {
		return nil, err
	}
	return userIDs, nil
}
