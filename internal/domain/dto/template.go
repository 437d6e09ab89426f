package dto

import (
	"github.com/fitness360/notification-svc/internal/domain/entity"
)

type UpsertTemplate struct {
	Type      entity.NotificationType `json:"type" validate:"required,notification_type"`
	Title     string                  `json:"title" validate:"required,max=200,placeholders"`
	Content   string                  `json:"content" validate:"required,max=2000,placeholders"`
	Language  string                  `json:"language,omitempty" validate:"omitempty,language"`
	Variables []string                `json:"variables" validate:"dive,identifier"`
}

type RenderTemplate struct {
	Variables map[string]interface{} `json:"variables"`
	Language  string                 `json:"language,omitempty" validate:"omitempty,language"`
}

type RenderedTemplate struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}
