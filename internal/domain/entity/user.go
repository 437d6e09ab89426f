package entity

// User is the subset of the user directory needed to reach someone.
// Empty contact fields mean the channel cannot be used.
type User struct {
	ID          string `gorm:"type:uuid;primaryKey" json:"id"`
	Email       string `json:"email,omitempty"`
	PhoneNumber string `gorm:"column:phone" json:"phoneNumber,omitempty"`
	PushToken   string `json:"pushToken,omitempty"`
}

// Reachable reports whether the user has the contact info the channel needs.
func (u User) Reachable(channel Channel) bool {
	switch channel {
	case ChannelEmail:
		return u.Email != ""
	case ChannelPush:
		return u.PushToken != ""
	case ChannelWhatsApp:
		return u.PhoneNumber != ""
	}
	return false
}
