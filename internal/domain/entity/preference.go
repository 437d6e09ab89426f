package entity

import (
	"time"

	"github.com/lib/pq"
)

// NotificationPreference holds the channels a user accepts for one notification type.
// A missing row means every channel is allowed.
type NotificationPreference struct {
	UserID    string           `gorm:"primaryKey" json:"userId"`
	Type      NotificationType `gorm:"primaryKey" json:"type"`
	Channels  pq.StringArray   `gorm:"type:text[];not null" json:"channels"`
	Enabled   bool             `gorm:"not null" json:"enabled"`
	CreatedAt time.Time        `json:"-"`
	UpdatedAt time.Time        `json:"-"`
}

func (p NotificationPreference) ChannelSet() []Channel {
	return ChannelsFromStrings(p.Channels)
}

func (p NotificationPreference) Has(channel Channel) bool {
	for _, c := range p.ChannelSet() {
		if c == channel {
			return true
		}
	}
	return false
}

// UserNotificationSettings holds the per-user toggles that apply to every type.
type UserNotificationSettings struct {
	UserID           string     `gorm:"primaryKey" json:"userId"`
	Email            bool       `gorm:"not null" json:"email"`
	Push             bool       `gorm:"not null" json:"push"`
	WhatsApp         bool       `gorm:"column:whatsapp;not null" json:"whatsapp"`
	AllowedStartTime *string    `gorm:"size:5" json:"allowedStartTime,omitempty"`
	AllowedEndTime   *string    `gorm:"size:5" json:"allowedEndTime,omitempty"`
	MutedUntil       *time.Time `gorm:"index" json:"mutedUntil,omitempty"`
	CreatedAt        time.Time  `json:"-"`
	UpdatedAt        time.Time  `json:"-"`
}

// DefaultSettings returns the settings a user has before any explicit write.
func DefaultSettings(userID string) UserNotificationSettings {
	return UserNotificationSettings{
		UserID:   userID,
		Email:    true,
		Push:     true,
		WhatsApp: true,
	}
}

// Toggled reports whether the global switch for channel is on.
func (s UserNotificationSettings) Toggled(channel Channel) bool {
	switch channel {
	case ChannelEmail:
		return s.Email
	case ChannelPush:
		return s.Push
	case ChannelWhatsApp:
		return s.WhatsApp
	}
	return false
}
