package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/fitness360/notification-svc/internal/domain/common/errorz"
	"github.com/fitness360/notification-svc/internal/domain/dto"
	"github.com/fitness360/notification-svc/internal/domain/entity"
	"gorm.io/gorm"
)

type NotificationStorage struct {
	db *gorm.DB
}

func NewNotificationStorage(db *gorm.DB) *NotificationStorage {
	return &NotificationStorage{
		db: db,
	}
}

func (s *NotificationStorage) Create(ctx context.Context, notification *entity.Notification) error {
	return s.db.WithContext(ctx).Create(notification).Error
}

func (s *NotificationStorage) GetByID(ctx context.Context, id string) (*entity.Notification, error) {
	var notification entity.Notification
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&notification).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errorz.ErrNotificationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &notification, nil
}

// GetLatestSince returns the newest notification of the given type created at or after since.
func (s *NotificationStorage) GetLatestSince(ctx context.Context, userID string, notificationType entity.NotificationType, since time.Time) (*entity.Notification, error) {
	var notification entity.Notification
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND type = ? AND created_at >= ?", userID, notificationType, since).
		Order("created_at desc").
		Limit(1).
		Take(&notification).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errorz.ErrNotificationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &notification, nil
}

// IncrementGroupCount bumps group_count in a single statement so concurrent increments are not lost.
func (s *NotificationStorage) IncrementGroupCount(ctx context.Context, id string, at time.Time) error {
	res := s.db.WithContext(ctx).
		Model(&entity.Notification{}).
		Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"group_count": gorm.Expr("group_count + 1"),
			"updated_at":  at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errorz.ErrNotificationNotFound
	}
	return nil
}

func (s *NotificationStorage) UpdateStatus(ctx context.Context, id string, status entity.NotificationStatus, errorMessage *string, at time.Time) error {
	res := s.db.WithContext(ctx).
		Model(&entity.Notification{}).
		Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"status":        status,
			"error_message": errorMessage,
			"updated_at":    at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errorz.ErrNotificationNotFound
	}
	return nil
}

// GetByUser returns one page of the user's notifications, newest first, and the total matching the filter.
func (s *NotificationStorage) GetByUser(ctx context.Context, userID string, filter dto.NotificationFilter) ([]entity.Notification, int64, error) {
	query := s.db.WithContext(ctx).Model(&entity.Notification{}).Where("user_id = ?", userID)
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var notifications []entity.Notification
	err := query.
		Order("created_at desc").
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Find(&notifications).Error
	return notifications, total, err
}

func (s *NotificationStorage) CountUnread(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&entity.Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Count(&count).Error
	return count, err
}

// MarkAsRead sets read_at once; marking an already read notification keeps the first timestamp.
func (s *NotificationStorage) MarkAsRead(ctx context.Context, id string, at time.Time) error {
	res := s.db.WithContext(ctx).
		Model(&entity.Notification{}).
		Where("id = ?", id).
		UpdateColumn("read_at", gorm.Expr("COALESCE(read_at, ?)", at))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errorz.ErrNotificationNotFound
	}
	return nil
}

func (s *NotificationStorage) MarkAllAsRead(ctx context.Context, userID string, at time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Model(&entity.Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		UpdateColumn("read_at", at)
	return res.RowsAffected, res.Error
}
