package preferences

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fitness360/notification-svc/internal/domain/dto"
	"github.com/fitness360/notification-svc/internal/domain/entity"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStorage(t *testing.T) (*Storage, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStorage(client, DefaultTTL), mr
}

func TestStorage(t *testing.T) {
	ctx := context.Background()
	s, mr := newStorage(t)
	const userID = "5f0c2a1e-7d57-4bb6-9f0e-2f6a0f7b1a11"

	got, err := s.Get(ctx, userID)
	require.NoError(t, err)
	assert.Nil(t, got, "miss returns nil without error")

	start := "08:00"
	prefs := &dto.UserPreferences{
		UserID: userID,
		Settings: entity.UserNotificationSettings{
			UserID: userID, Email: true, Push: false, WhatsApp: true, AllowedStartTime: &start,
		},
		Preferences: []dto.TypePreference{
			{Type: entity.WorkoutReminder, Channels: []entity.Channel{entity.ChannelEmail}, Enabled: true},
		},
	}
	require.NoError(t, s.Set(ctx, userID, prefs))

	assert.True(t, mr.Exists("notification:preferences:"+userID))
	assert.Equal(t, DefaultTTL, mr.TTL("notification:preferences:"+userID))

	got, err = s.Get(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, prefs.Settings.WhatsApp, got.Settings.WhatsApp)
	assert.Equal(t, "08:00", *got.Settings.AllowedStartTime)
	pref, ok := got.Preference(entity.WorkoutReminder)
	require.True(t, ok)
	assert.Equal(t, []entity.Channel{entity.ChannelEmail}, pref.Channels)

	require.NoError(t, s.Clear(ctx, userID))
	assert.False(t, mr.Exists("notification:preferences:"+userID))
}

func TestStorage_Expires(t *testing.T) {
	ctx := context.Background()
	s, mr := newStorage(t)

	require.NoError(t, s.Set(ctx, "u1", &dto.UserPreferences{UserID: "u1"}))
	mr.FastForward(DefaultTTL + time.Second)

	got, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStorage_CorruptEntry(t *testing.T) {
	s, mr := newStorage(t)
	require.NoError(t, mr.Set(Key("u1"), "{not json"))

	_, err := s.Get(context.Background(), "u1")
	assert.Error(t, err)
}

func TestTTL(t *testing.T) {
	assert.Equal(t, DefaultTTL, TTL(0))
	assert.Equal(t, 60*time.Second, TTL(60))
}
