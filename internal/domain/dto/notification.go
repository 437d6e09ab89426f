package dto

import (
	"github.com/fitness360/notification-svc/internal/domain/entity"
)

// SendNotification is a request to deliver one notification. When Variables is set or
// Title is empty the title and content come from the (Type, Language) template.
type SendNotification struct {
	UserID    string                  `json:"userId" validate:"required,max=64"`
	Type      entity.NotificationType `json:"type" validate:"required,notification_type"`
	Title     string                  `json:"title,omitempty" validate:"omitempty,min=3,max=100"`
	Content   string                  `json:"content,omitempty" validate:"omitempty,min=10,max=500"`
	Priority  entity.Priority         `json:"priority,omitempty" validate:"omitempty,priority"`
	Variables map[string]interface{}  `json:"variables,omitempty"`
	Language  string                  `json:"language,omitempty" validate:"omitempty,language"`
}

// UsesTemplate reports whether the content must be rendered from a template.
func (r SendNotification) UsesTemplate() bool {
	return r.Variables != nil || r.Title == ""
}

type SendResult struct {
	Status         entity.NotificationStatus `json:"status"`
	NotificationID string                    `json:"notificationId,omitempty"`
	Reason         string                    `json:"reason,omitempty"`
	Attempted      int                       `json:"attempted"`
	Succeeded      int                       `json:"succeeded"`
}

type NotificationFilter struct {
	Type  entity.NotificationType
	Page  int
	Limit int
}

type NotificationPage struct {
	Items      []entity.Notification `json:"items"`
	Total      int64                 `json:"total"`
	Page       int                   `json:"page"`
	Limit      int                   `json:"limit"`
	TotalPages int                   `json:"totalPages"`
}

type UnreadCount struct {
	Count int64 `json:"count"`
}
