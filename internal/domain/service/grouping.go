package service

import (
	"context"
	"errors"
	"time"

	"github.com/fitness360/notification-svc/internal/domain/common/errorz"
	"github.com/fitness360/notification-svc/internal/domain/entity"
	"github.com/fitness360/notification-svc/pkg/logger/types"
)

// GroupingWindow is how far back a repeated (user, type) send collapses into the
// previous notification. It is the same for every type.
const GroupingWindow = 300 * time.Second

type groupingStorage interface {
	GetLatestSince(ctx context.Context, userID string, notificationType entity.NotificationType, since time.Time) (*entity.Notification, error)
	IncrementGroupCount(ctx context.Context, id string, at time.Time) error
}

type GroupingService struct {
	storage groupingStorage
	window  time.Duration
	logger  *types.Logger
	now     func() time.Time
}

func NewGroupingService(storage groupingStorage, logger *types.Logger) *GroupingService {
	return &GroupingService{
		storage: storage,
		window:  GroupingWindow,
		logger:  logger,
		now:     time.Now,
	}
}

// TryGroup folds a new send into the most recent notification of the same
// (user, type) created inside the window. It returns that notification's id and
// true when grouped. Concurrent callers may both miss and create separate rows.
func (s *GroupingService) TryGroup(ctx context.Context, userID string, notificationType entity.NotificationType) (string, bool, error) {
	now := s.now()
	latest, err := s.storage.GetLatestSince(ctx, userID, notificationType, now.Add(-s.window))
	if errors.Is(err, errorz.ErrNotificationNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	if err = s.storage.IncrementGroupCount(ctx, latest.ID, now); err != nil {
		return "", false, err
	}
	s.logger.Debugf("notification grouped (id=%s, user_id=%s, type=%s)", latest.ID, userID, notificationType)
	return latest.ID, true, nil
}
