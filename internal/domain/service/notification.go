package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/fitness360/notification-svc/internal/domain/common/errorz"
	"github.com/fitness360/notification-svc/internal/domain/dto"
	"github.com/fitness360/notification-svc/internal/domain/entity"
	"github.com/fitness360/notification-svc/internal/domain/utils/validator"
	"github.com/fitness360/notification-svc/pkg/logger/types"
	"github.com/google/uuid"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

const (
	reasonUserNotFound      = "user not found"
	reasonNoChannels        = "no channels available"
	reasonNoReachable       = "no reachable channels"
	reasonAllChannelsFailed = "failed to send through all channels"
	reasonSomeFailed        = "failed to send through some channels"
)

type notificationStorage interface {
	Create(ctx context.Context, notification *entity.Notification) error
	GetByID(ctx context.Context, id string) (*entity.Notification, error)
	UpdateStatus(ctx context.Context, id string, status entity.NotificationStatus, errorMessage *string, at time.Time) error
	GetByUser(ctx context.Context, userID string, filter dto.NotificationFilter) ([]entity.Notification, int64, error)
	CountUnread(ctx context.Context, userID string) (int64, error)
	MarkAsRead(ctx context.Context, id string, at time.Time) error
	MarkAllAsRead(ctx context.Context, userID string, at time.Time) (int64, error)
}

type channelResolver interface {
	ResolveChannels(ctx context.Context, userID string, notificationType entity.NotificationType, priority entity.Priority) (entity.Resolution, error)
}

type notificationGrouper interface {
	TryGroup(ctx context.Context, userID string, notificationType entity.NotificationType) (string, bool, error)
}

type templateRenderer interface {
	Render(ctx context.Context, notificationType entity.NotificationType, variables map[string]interface{}, language string) (*dto.RenderedTemplate, error)
}

type channelDispatcher interface {
	Dispatch(ctx context.Context, user entity.User, title, content string, channels []entity.Channel) DispatchResult
}

type feedPublisher interface {
	Publish(userID string, notification entity.Notification)
}

// NotificationService is the entry point for sending notifications and for reading
// a user's inbox.
type NotificationService struct {
	storage    notificationStorage
	users      userStorage
	resolver   channelResolver
	grouper    notificationGrouper
	renderer   templateRenderer
	dispatcher channelDispatcher
	feed       feedPublisher

	logger *types.Logger
	now    func() time.Time
}

func NewNotificationService(
	storage notificationStorage,
	users userStorage,
	resolver channelResolver,
	grouper notificationGrouper,
	renderer templateRenderer,
	dispatcher channelDispatcher,
	logger *types.Logger,
) *NotificationService {
	return &NotificationService{
		storage:    storage,
		users:      users,
		resolver:   resolver,
		grouper:    grouper,
		renderer:   renderer,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// SetFeed registers a live feed that receives delivered and grouped notifications.
func (s *NotificationService) SetFeed(feed feedPublisher) {
	s.feed = feed
}

// SendNotification runs the delivery pipeline: user lookup, grouping, preference
// resolution, rendering, dispatch. Business outcomes (blocked, grouped, partial or
// total channel failure) come back as a status; only infrastructure errors are returned.
func (s *NotificationService) SendNotification(ctx context.Context, req dto.SendNotification) (*dto.SendResult, error) {
	if req.Priority == "" {
		req.Priority = entity.PriorityMedium
	}
	if err := validator.Struct(req); err != nil {
		return nil, err
	}
	if !req.UsesTemplate() && req.Content == "" {
		return nil, errorz.NewValidationError("content", "required when no template is used")
	}

	user, err := s.users.Get(ctx, req.UserID)
	if errors.Is(err, errorz.ErrUserNotFound) {
		return s.fail(ctx, req, reasonUserNotFound, "USER_NOT_FOUND")
	}
	if err != nil {
		return nil, err
	}

	groupID, grouped, err := s.grouper.TryGroup(ctx, req.UserID, req.Type)
	if err != nil {
		return nil, err
	}
	if grouped {
		s.publish(ctx, req.UserID, groupID)
		notificationsTotal.WithLabelValues(string(entity.StatusGrouped), "").Inc()
		return &dto.SendResult{Status: entity.StatusGrouped, NotificationID: groupID}, nil
	}

	resolution, err := s.resolver.ResolveChannels(ctx, req.UserID, req.Type, req.Priority)
	if err != nil {
		return nil, err
	}
	if resolution.Blocked && req.Priority != entity.PriorityCritical {
		s.logger.Infof("notification blocked (user_id=%s, type=%s, reason=%s)", req.UserID, req.Type, resolution.Reason)
		return s.fail(ctx, req, string(resolution.Reason), string(resolution.Reason))
	}

	if req.UsesTemplate() {
		rendered, errRender := s.renderer.Render(ctx, req.Type, req.Variables, req.Language)
		if errorz.IsTemplateError(errRender) {
			return s.fail(ctx, req, errRender.Error(), "TEMPLATE_ERROR")
		}
		if errRender != nil {
			return nil, errRender
		}
		req.Title, req.Content = rendered.Title, rendered.Content
	}

	now := s.now()
	notification := &entity.Notification{
		ID:         uuid.NewString(),
		UserID:     req.UserID,
		Type:       req.Type,
		Title:      req.Title,
		Content:    req.Content,
		Priority:   req.Priority,
		Status:     entity.StatusPending,
		GroupCount: 1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err = s.storage.Create(ctx, notification); err != nil {
		return nil, err
	}

	result := &dto.SendResult{NotificationID: notification.ID}
	var errorMessage string
	if len(resolution.Channels) == 0 {
		result.Status, errorMessage = entity.StatusFailed, reasonNoChannels
	} else {
		outcome := s.dispatcher.Dispatch(ctx, *user, notification.Title, notification.Content, resolution.Channels)
		result.Attempted, result.Succeeded = outcome.Attempted, outcome.Succeeded
		result.Status, errorMessage = aggregate(outcome)
	}
	result.Reason = errorMessage

	if err = s.storage.UpdateStatus(ctx, notification.ID, result.Status, nilIfEmpty(errorMessage), s.now()); err != nil {
		return nil, err
	}

	notification.Status = result.Status
	notification.ErrorMessage = nilIfEmpty(errorMessage)
	if result.Status != entity.StatusFailed && s.feed != nil {
		s.feed.Publish(notification.UserID, *notification)
	}

	notificationsTotal.WithLabelValues(string(result.Status), "").Inc()
	s.logger.Infof("notification processed (id=%s, user_id=%s, status=%s, attempted=%d, succeeded=%d)",
		notification.ID, notification.UserID, result.Status, result.Attempted, result.Succeeded)
	return result, nil
}

// GetUserNotifications returns one page of the user's notifications, newest first.
func (s *NotificationService) GetUserNotifications(ctx context.Context, userID string, filter dto.NotificationFilter) (*dto.NotificationPage, error) {
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, errorz.NewValidationError("type", "unknown notification type")
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = defaultPageLimit
	}
	if filter.Limit > maxPageLimit {
		filter.Limit = maxPageLimit
	}

	items, total, err := s.storage.GetByUser(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []entity.Notification{}
	}

	return &dto.NotificationPage{
		Items:      items,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(filter.Limit))),
	}, nil
}

func (s *NotificationService) GetUnreadCount(ctx context.Context, userID string) (*dto.UnreadCount, error) {
	count, err := s.storage.CountUnread(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &dto.UnreadCount{Count: count}, nil
}

func (s *NotificationService) MarkAsRead(ctx context.Context, id string) error {
	return s.storage.MarkAsRead(ctx, id, s.now())
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID string) (int64, error) {
	return s.storage.MarkAllAsRead(ctx, userID, s.now())
}

// fail persists a FAILED notification for a send that never reached a channel.
func (s *NotificationService) fail(ctx context.Context, req dto.SendNotification, reason, metricReason string) (*dto.SendResult, error) {
	now := s.now()
	notification := &entity.Notification{
		ID:           uuid.NewString(),
		UserID:       req.UserID,
		Type:         req.Type,
		Title:        req.Title,
		Content:      req.Content,
		Priority:     req.Priority,
		Status:       entity.StatusFailed,
		GroupCount:   1,
		ErrorMessage: &reason,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.storage.Create(ctx, notification); err != nil {
		return nil, err
	}

	notificationsTotal.WithLabelValues(string(entity.StatusFailed), metricReason).Inc()
	return &dto.SendResult{
		Status:         entity.StatusFailed,
		NotificationID: notification.ID,
		Reason:         reason,
	}, nil
}

func (s *NotificationService) publish(ctx context.Context, userID, id string) {
	if s.feed == nil {
		return
	}
	notification, err := s.storage.GetByID(ctx, id)
	if err != nil {
		s.logger.Warnf("failed to load grouped notification for feed (id=%s): %v", id, err)
		return
	}
	s.feed.Publish(userID, *notification)
}

// aggregate maps a dispatch outcome to the notification's final status.
func aggregate(outcome DispatchResult) (entity.NotificationStatus, string) {
	switch {
	case outcome.Attempted == 0:
		return entity.StatusFailed, reasonNoReachable
	case outcome.Succeeded == outcome.Attempted:
		return entity.StatusSent, ""
	case outcome.Succeeded == 0:
		return entity.StatusFailed, describeFailures(reasonAllChannelsFailed, outcome.Failures)
	default:
		return entity.StatusPartiallySent, describeFailures(reasonSomeFailed, outcome.Failures)
	}
}

func describeFailures(summary string, failures []ChannelFailure) string {
	if len(failures) == 0 {
		return summary
	}
	parts := make([]string, 0, len(failures))
	for _, f := range failures {
		parts = append(parts, string(f.Channel)+": "+f.Err.Error())
	}
	return summary + " (" + strings.Join(parts, "; ") + ")"
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
