package dto

import (
	"github.com/fitness360/notification-svc/internal/domain/entity"
)

type TypePreference struct {
	Type     entity.NotificationType `json:"type" validate:"required,notification_type"`
	Channels []entity.Channel        `json:"channels" validate:"dive,channel"`
	Enabled  bool                    `json:"enabled"`
}

// UserPreferences is the cached view of everything that gates delivery for a user.
type UserPreferences struct {
	UserID      string                          `json:"userId"`
	Settings    entity.UserNotificationSettings `json:"settings"`
	Preferences []TypePreference                `json:"preferences"`
}

// Preference returns the row for type t, if the user has one.
func (p UserPreferences) Preference(t entity.NotificationType) (TypePreference, bool) {
	for _, pref := range p.Preferences {
		if pref.Type == t {
			return pref, true
		}
	}
	return TypePreference{}, false
}

type UpdateChannel struct {
	Type    entity.NotificationType `json:"type" validate:"required,notification_type"`
	Channel entity.Channel          `json:"channel" validate:"required,channel"`
	Enabled bool                    `json:"enabled"`
}

type ToggleType struct {
	Type    entity.NotificationType `json:"type" validate:"required,notification_type"`
	Enabled bool                    `json:"enabled"`
}

type UpdateMany struct {
	Preferences []TypePreference `json:"preferences" validate:"required,dive"`
}

type Mute struct {
	Duration int `json:"duration" validate:"min=1,max=1440"`
}

type UpdateSettings struct {
	Email            *bool   `json:"email,omitempty"`
	Push             *bool   `json:"push,omitempty"`
	WhatsApp         *bool   `json:"whatsapp,omitempty"`
	AllowedStartTime *string `json:"allowedStartTime,omitempty" validate:"omitempty,hhmm"`
	AllowedEndTime   *string `json:"allowedEndTime,omitempty" validate:"omitempty,hhmm"`
}
