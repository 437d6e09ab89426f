package postgres

import (
	"context"
	"errors"

	"github.com/fitness360/notification-svc/internal/domain/common/errorz"
	"github.com/fitness360/notification-svc/internal/domain/entity"
	"gorm.io/gorm"
)

// UserStorage reads the contact data other services keep in the users table.
type UserStorage struct {
	db *gorm.DB
}

func NewUserStorage(db *gorm.DB) *UserStorage {
	return &UserStorage{
		db: db,
	}
}

// Get is a function that gets a user from the database by id.
func (s *UserStorage) Get(ctx context.Context, id string) (*entity.User, error) {
	var user entity.User
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errorz.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
