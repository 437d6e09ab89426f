package preferences

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fitness360/notification-svc/internal/domain/dto"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix  = "notification:preferences:"
	DefaultTTL = 300 * time.Second
)

// TTL converts a number of seconds to a cache lifetime, falling back to DefaultTTL.
func TTL(seconds int) time.Duration {
	if seconds <= 0 {
		return DefaultTTL
	}
	return time.Duration(seconds) * time.Second
}

// Storage caches the merged preferences of a user as JSON.
type Storage struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewStorage(client *redis.Client, ttl time.Duration) *Storage {
	return &Storage{
		redis: client,
		ttl:   ttl,
	}
}

func Key(userID string) string {
	return keyPrefix + userID
}

// Get returns nil, nil on a cache miss.
func (s *Storage) Get(ctx context.Context, userID string) (*dto.UserPreferences, error) {
	data, err := s.redis.Get(ctx, Key(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var preferences dto.UserPreferences
	if err := json.Unmarshal(data, &preferences); err != nil {
		return nil, fmt.Errorf("failed to decode cached preferences of %s: %w", userID, err)
	}
	return &preferences, nil
}

func (s *Storage) Set(ctx context.Context, userID string, preferences *dto.UserPreferences) error {
	data, err := json.Marshal(preferences)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, Key(userID), data, s.ttl).Err()
}

func (s *Storage) Clear(ctx context.Context, userID string) error {
	return s.redis.Del(ctx, Key(userID)).Err()
}
