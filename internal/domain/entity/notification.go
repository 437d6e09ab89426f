package entity

import (
	"time"
)

type NotificationType string

const (
	WorkoutReminder    NotificationType = "WORKOUT_REMINDER"
	TrainingReminder   NotificationType = "TRAINING_REMINDER"
	AssessmentReminder NotificationType = "ASSESSMENT_REMINDER"
	SystemUpdate       NotificationType = "SYSTEM_UPDATE"
)

// NotificationTypes lists every known notification type in display order.
var NotificationTypes = []NotificationType{
	WorkoutReminder,
	TrainingReminder,
	AssessmentReminder,
	SystemUpdate,
}

func (t NotificationType) Valid() bool {
	for _, known := range NotificationTypes {
		if t == known {
			return true
		}
	}
	return false
}

type Priority string

const (
	PriorityLow      Priority = "LOW"
	PriorityMedium   Priority = "MEDIUM"
	PriorityHigh     Priority = "HIGH"
	PriorityCritical Priority = "CRITICAL"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

type NotificationStatus string

const (
	StatusPending       NotificationStatus = "PENDING"
	StatusSent          NotificationStatus = "SENT"
	StatusPartiallySent NotificationStatus = "PARTIALLY_SENT"
	StatusFailed        NotificationStatus = "FAILED"
	StatusGrouped       NotificationStatus = "GROUPED"
)

// Notification is a single delivery unit. GroupCount is never below 1 and grows
// while repeated sends of the same type land inside the grouping window.
type Notification struct {
	ID           string             `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       string             `gorm:"not null;index:idx_notifications_user_type_created,priority:1" json:"userId"`
	Type         NotificationType   `gorm:"not null;index:idx_notifications_user_type_created,priority:2" json:"type"`
	Title        string             `json:"title"`
	Content      string             `json:"content"`
	Priority     Priority           `gorm:"not null;default:MEDIUM" json:"priority"`
	Status       NotificationStatus `gorm:"not null;index" json:"status"`
	GroupCount   int                `gorm:"not null;default:1" json:"groupCount"`
	ErrorMessage *string            `json:"errorMessage,omitempty"`
	ReadAt       *time.Time         `json:"readAt,omitempty"`
	CreatedAt    time.Time          `gorm:"index:idx_notifications_user_type_created,priority:3" json:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt"`
}
