package postgres

import "github.com/fitness360/notification-svc/internal/domain/entity"

// Migrations is a list of all gorm migrations for the database.
var Migrations = []interface{}{
	&entity.User{},
	&entity.Notification{},
	&entity.NotificationPreference{},
	&entity.UserNotificationSettings{},
	&entity.NotificationTemplate{},
}
