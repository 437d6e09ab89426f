package entity

import (
	"time"

	"github.com/lib/pq"
)

// NotificationTemplate is a localized title/content pair with {{name}} placeholders.
// Variables is advisory; rendering scans for unresolved placeholders itself.
type NotificationTemplate struct {
	ID        string           `gorm:"type:uuid;primaryKey" json:"id"`
	Type      NotificationType `gorm:"not null;uniqueIndex:idx_templates_type_language" json:"type"`
	Language  string           `gorm:"size:5;not null;uniqueIndex:idx_templates_type_language" json:"language"`
	Title     string           `gorm:"not null" json:"title"`
	Content   string           `gorm:"not null" json:"content"`
	Variables pq.StringArray   `gorm:"type:text[]" json:"variables"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}
