package postgres

import (
	"context"
	"errors"

	"github.com/fitness360/notification-svc/internal/domain/common/errorz"
	"github.com/fitness360/notification-svc/internal/domain/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TemplateStorage struct {
	db *gorm.DB
}

func NewTemplateStorage(db *gorm.DB) *TemplateStorage {
	return &TemplateStorage{
		db: db,
	}
}

func (s *TemplateStorage) Get(ctx context.Context, notificationType entity.NotificationType, language string) (*entity.NotificationTemplate, error) {
	var template entity.NotificationTemplate
	err := s.db.WithContext(ctx).
		Where("type = ? AND language = ?", notificationType, language).
		First(&template).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errorz.ErrTemplateNotFound
	}
	if err != nil {
		return nil, err
	}
	return &template, nil
}

// Upsert inserts the template or overwrites title, content and variables of the
// existing (type, language) row. The stored row is read back so the caller sees its id.
func (s *TemplateStorage) Upsert(ctx context.Context, template *entity.NotificationTemplate) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "type"}, {Name: "language"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "content", "variables", "updated_at"}),
		}).Create(template).Error
		if err != nil {
			return err
		}
		return tx.Where("type = ? AND language = ?", template.Type, template.Language).First(template).Error
	})
}

func (s *TemplateStorage) Delete(ctx context.Context, notificationType entity.NotificationType, language string) error {
	res := s.db.WithContext(ctx).
		Where("type = ? AND language = ?", notificationType, language).
		Delete(&entity.NotificationTemplate{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errorz.ErrTemplateNotFound
	}
	return nil
}

func (s *TemplateStorage) List(ctx context.Context, language string) ([]entity.NotificationTemplate, error) {
	var templates []entity.NotificationTemplate
	err := s.db.WithContext(ctx).Where("language = ?", language).Order("type").Find(&templates).Error
	return templates, err
}
