package rest

import (
	"context"
	"net/http"

	"github.com/fitness360/notification-svc/internal/domain/dto"
	"github.com/fitness360/notification-svc/internal/domain/entity"
	"github.com/fitness360/notification-svc/pkg/logger/types"
)

type notificationService interface {
	SendNotification(ctx context.Context, req dto.SendNotification) (*dto.SendResult, error)
	GetUserNotifications(ctx context.Context, userID string, filter dto.NotificationFilter) (*dto.NotificationPage, error)
	GetUnreadCount(ctx context.Context, userID string) (*dto.UnreadCount, error)
	MarkAsRead(ctx context.Context, id string) error
	MarkAllAsRead(ctx context.Context, userID string) (int64, error)
}

type preferenceService interface {
	GetPreferences(ctx context.Context, userID string) (*dto.UserPreferences, error)
	UpdateChannel(ctx context.Context, userID string, req dto.UpdateChannel) error
	ToggleType(ctx context.Context, userID string, req dto.ToggleType) error
	UpdateMany(ctx context.Context, userID string, req dto.UpdateMany) error
	Mute(ctx context.Context, userID string, req dto.Mute) (*entity.UserNotificationSettings, error)
	Unmute(ctx context.Context, userID string) error
	UpdateSettings(ctx context.Context, userID string, req dto.UpdateSettings) (*entity.UserNotificationSettings, error)
}

type templateService interface {
	UpsertTemplate(ctx context.Context, req dto.UpsertTemplate) (*entity.NotificationTemplate, error)
	GetTemplate(ctx context.Context, notificationType entity.NotificationType, language string) (*entity.NotificationTemplate, error)
	DeleteTemplate(ctx context.Context, notificationType entity.NotificationType, language string) error
	ListTemplates(ctx context.Context, language string) ([]entity.NotificationTemplate, error)
	Render(ctx context.Context, notificationType entity.NotificationType, variables map[string]interface{}, language string) (*dto.RenderedTemplate, error)
}

type feedServer interface {
	Serve(w http.ResponseWriter, r *http.Request, userID string) error
}

type Handler struct {
	notifications notificationService
	preferences   preferenceService
	templates     templateService
	feed          feedServer
	logger        *types.Logger
}

func NewHandler(
	notifications notificationService,
	preferences preferenceService,
	templates templateService,
	feed feedServer,
	logger *types.Logger,
) *Handler {
	return &Handler{
		notifications: notifications,
		preferences:   preferences,
		templates:     templates,
		feed:          feed,
		logger:        logger,
	}
}
