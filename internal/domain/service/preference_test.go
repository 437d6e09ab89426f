package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fitness360/notification-svc/internal/domain/common/errorz"
	"github.com/fitness360/notification-svc/internal/domain/dto"
	"github.com/fitness360/notification-svc/internal/domain/entity"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const userID = "6f1c1a9e-1111-4c55-9a3e-000000000001"

type preferenceFixture struct {
	svc         *PreferenceService
	preferences *memPreferences
	settings    *memSettings
	cache       *memCache
	clock       *clock
}

func newPreferenceFixture(t *testing.T) *preferenceFixture {
	t.Helper()
	f := &preferenceFixture{
		preferences: newMemPreferences(),
		settings:    newMemSettings(),
		cache:       newMemCache(),
		clock:       newClock(time.Date(2024, 3, 10, 13, 0, 0, 0, time.UTC)),
	}
	users := newMemUsers(entity.User{ID: userID, Email: "ana@example.com"})
	f.svc = NewPreferenceService(f.preferences, f.settings, f.cache, users, time.UTC, testLogger())
	f.svc.now = f.clock.Now
	return f
}

func strPtr(s string) *string { return &s }

func TestResolveChannels_NoPreferenceRowAllowsAllChannels(t *testing.T) {
	f := newPreferenceFixture(t)

	res, err := f.svc.ResolveChannels(context.Background(), userID, entity.WorkoutReminder, entity.PriorityMedium)
	require.NoError(t, err)
	assert.False(t, res.Blocked)
	assert.Equal(t, entity.AllChannels, res.Channels)
}

func TestResolveChannels_FallbackIntersectsGlobalToggles(t *testing.T) {
	f := newPreferenceFixture(t)
	settings := entity.DefaultSettings(userID)
	settings.Push = false
	f.settings.rows[userID] = settings

	res, err := f.svc.ResolveChannels(context.Background(), userID, entity.SystemUpdate, entity.PriorityLow)
	require.NoError(t, err)
	assert.False(t, res.Blocked)
	assert.Equal(t, []entity.Channel{entity.ChannelEmail, entity.ChannelWhatsApp}, res.Channels)
}

func TestResolveChannels_TypeRowIntersectsToggles(t *testing.T) {
	f := newPreferenceFixture(t)
	settings := entity.DefaultSettings(userID)
	settings.Email = false
	f.settings.rows[userID] = settings
	f.preferences.rows[prefKey{userID, entity.WorkoutReminder}] = entity.NotificationPreference{
		UserID:   userID,
		Type:     entity.WorkoutReminder,
		Channels: pq.StringArray{"EMAIL", "PUSH"},
		Enabled:  true,
	}

	res, err := f.svc.ResolveChannels(context.Background(), userID, entity.WorkoutReminder, entity.PriorityHigh)
	require.NoError(t, err)
	assert.Equal(t, []entity.Channel{entity.ChannelPush}, res.Channels)
}

func TestResolveChannels_Gates(t *testing.T) {
	future := time.Date(2024, 3, 10, 14, 0, 0, 0, time.UTC)
	past := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		settings   func(s *entity.UserNotificationSettings)
		preference *entity.NotificationPreference
		priority   entity.Priority
		blocked    bool
		reason     entity.BlockReason
	}{
		{
			name:     "muted",
			settings: func(s *entity.UserNotificationSettings) { s.MutedUntil = &future },
			priority: entity.PriorityHigh,
			blocked:  true,
			reason:   entity.ReasonMuted,
		},
		{
			name:     "mute already expired",
			settings: func(s *entity.UserNotificationSettings) { s.MutedUntil = &past },
			priority: entity.PriorityMedium,
		},
		{
			name: "outside window",
			settings: func(s *entity.UserNotificationSettings) {
				s.AllowedStartTime, s.AllowedEndTime = strPtr("14:00"), strPtr("16:00")
			},
			priority: entity.PriorityMedium,
			blocked:  true,
			reason:   entity.ReasonOutsideWindow,
		},
		{
			name: "window start is inclusive",
			settings: func(s *entity.UserNotificationSettings) {
				s.AllowedStartTime, s.AllowedEndTime = strPtr("13:00"), strPtr("16:00")
			},
			priority: entity.PriorityMedium,
		},
		{
			name: "window end is exclusive",
			settings: func(s *entity.UserNotificationSettings) {
				s.AllowedStartTime, s.AllowedEndTime = strPtr("08:00"), strPtr("13:00")
			},
			priority: entity.PriorityMedium,
			blocked:  true,
			reason:   entity.ReasonOutsideWindow,
		},
		{
			name: "half configured window is ignored",
			settings: func(s *entity.UserNotificationSettings) {
				s.AllowedStartTime = strPtr("14:00")
			},
			priority: entity.PriorityMedium,
		},
		{
			name: "mute wins over window",
			settings: func(s *entity.UserNotificationSettings) {
				s.MutedUntil = &future
				s.AllowedStartTime, s.AllowedEndTime = strPtr("14:00"), strPtr("16:00")
			},
			priority: entity.PriorityLow,
			blocked:  true,
			reason:   entity.ReasonMuted,
		},
		{
			name:     "type disabled",
			settings: func(s *entity.UserNotificationSettings) {},
			preference: &entity.NotificationPreference{
				UserID: userID, Type: entity.WorkoutReminder, Channels: pq.StringArray{"EMAIL"}, Enabled: false,
			},
			priority: entity.PriorityHigh,
			blocked:  true,
			reason:   entity.ReasonTypeDisabled,
		},
		{
			name: "critical ignores every gate",
			settings: func(s *entity.UserNotificationSettings) {
				s.MutedUntil = &future
				s.AllowedStartTime, s.AllowedEndTime = strPtr("14:00"), strPtr("16:00")
				s.Email, s.Push, s.WhatsApp = false, false, false
			},
			preference: &entity.NotificationPreference{
				UserID: userID, Type: entity.WorkoutReminder, Channels: pq.StringArray{}, Enabled: false,
			},
			priority: entity.PriorityCritical,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newPreferenceFixture(t)
			settings := entity.DefaultSettings(userID)
			tc.settings(&settings)
			f.settings.rows[userID] = settings
			if tc.preference != nil {
				f.preferences.rows[prefKey{userID, tc.preference.Type}] = *tc.preference
			}

			res, err := f.svc.ResolveChannels(context.Background(), userID, entity.WorkoutReminder, tc.priority)
			require.NoError(t, err)
			assert.Equal(t, tc.blocked, res.Blocked)
			assert.Equal(t, tc.reason, res.Reason)
			if !tc.blocked {
				assert.NotEmpty(t, res.Channels)
			}
			if tc.priority == entity.PriorityCritical {
				assert.Equal(t, entity.AllChannels, res.Channels)
			}
		})
	}
}

func TestResolveChannels_UsesLocalTime(t *testing.T) {
	f := newPreferenceFixture(t)
	saoPaulo := time.FixedZone("BRT", -3*60*60)
	f.svc.location = saoPaulo

	settings := entity.DefaultSettings(userID)
	// 13:00 UTC is 10:00 local
	settings.AllowedStartTime, settings.AllowedEndTime = strPtr("09:00"), strPtr("11:00")
	f.settings.rows[userID] = settings

	res, err := f.svc.ResolveChannels(context.Background(), userID, entity.WorkoutReminder, entity.PriorityMedium)
	require.NoError(t, err)
	assert.False(t, res.Blocked)
}

func TestResolveChannels_CacheAside(t *testing.T) {
	f := newPreferenceFixture(t)
	ctx := context.Background()

	_, err := f.svc.ResolveChannels(ctx, userID, entity.WorkoutReminder, entity.PriorityMedium)
	require.NoError(t, err)
	assert.Equal(t, 1, f.cache.sets)
	assert.Equal(t, 0, f.cache.hits)

	_, err = f.svc.ResolveChannels(ctx, userID, entity.WorkoutReminder, entity.PriorityMedium)
	require.NoError(t, err)
	assert.Equal(t, 1, f.cache.sets)
	assert.Equal(t, 1, f.cache.hits)

	require.NoError(t, f.svc.ToggleType(ctx, userID, dto.ToggleType{Type: entity.WorkoutReminder, Enabled: false}))
	assert.Equal(t, 1, f.cache.clears)

	res, err := f.svc.ResolveChannels(ctx, userID, entity.WorkoutReminder, entity.PriorityMedium)
	require.NoError(t, err)
	assert.True(t, res.Blocked)
	assert.Equal(t, entity.ReasonTypeDisabled, res.Reason)
	assert.Equal(t, 2, f.cache.sets)
}

func TestResolveChannels_CacheErrorPropagates(t *testing.T) {
	f := newPreferenceFixture(t)
	f.cache.getErr = errors.New("connection refused")

	_, err := f.svc.ResolveChannels(context.Background(), userID, entity.WorkoutReminder, entity.PriorityMedium)
	require.Error(t, err)
}

func TestUpdateChannel(t *testing.T) {
	ctx := context.Background()

	t.Run("disabling a channel without a row keeps the others", func(t *testing.T) {
		f := newPreferenceFixture(t)
		err := f.svc.UpdateChannel(ctx, userID, dto.UpdateChannel{
			Type: entity.WorkoutReminder, Channel: entity.ChannelWhatsApp, Enabled: false,
		})
		require.NoError(t, err)

		row := f.preferences.rows[prefKey{userID, entity.WorkoutReminder}]
		assert.True(t, row.Enabled)
		assert.Equal(t, pq.StringArray{"EMAIL", "PUSH"}, row.Channels)
		assert.Equal(t, 1, f.cache.clears)
	})

	t.Run("enabling an existing channel is a no-op on the set", func(t *testing.T) {
		f := newPreferenceFixture(t)
		f.preferences.rows[prefKey{userID, entity.WorkoutReminder}] = entity.NotificationPreference{
			UserID: userID, Type: entity.WorkoutReminder, Channels: pq.StringArray{"PUSH"}, Enabled: true,
		}
		err := f.svc.UpdateChannel(ctx, userID, dto.UpdateChannel{
			Type: entity.WorkoutReminder, Channel: entity.ChannelPush, Enabled: true,
		})
		require.NoError(t, err)
		assert.Equal(t, pq.StringArray{"PUSH"}, f.preferences.rows[prefKey{userID, entity.WorkoutReminder}].Channels)
	})

	t.Run("removing the last channel of an enabled type is rejected", func(t *testing.T) {
		f := newPreferenceFixture(t)
		f.preferences.rows[prefKey{userID, entity.WorkoutReminder}] = entity.NotificationPreference{
			UserID: userID, Type: entity.WorkoutReminder, Channels: pq.StringArray{"PUSH"}, Enabled: true,
		}
		err := f.svc.UpdateChannel(ctx, userID, dto.UpdateChannel{
			Type: entity.WorkoutReminder, Channel: entity.ChannelPush, Enabled: false,
		})
		require.ErrorIs(t, err, errorz.ErrValidation)
		assert.Equal(t, 0, f.preferences.saves)
		assert.Equal(t, 0, f.cache.clears)
	})

	t.Run("unknown user", func(t *testing.T) {
		f := newPreferenceFixture(t)
		err := f.svc.UpdateChannel(ctx, "missing", dto.UpdateChannel{
			Type: entity.WorkoutReminder, Channel: entity.ChannelPush, Enabled: true,
		})
		require.ErrorIs(t, err, errorz.ErrNotFound)
	})
}

func TestToggleType_EnablingEmptyRowRestoresChannels(t *testing.T) {
	f := newPreferenceFixture(t)
	f.preferences.rows[prefKey{userID, entity.SystemUpdate}] = entity.NotificationPreference{
		UserID: userID, Type: entity.SystemUpdate, Channels: pq.StringArray{}, Enabled: false,
	}

	err := f.svc.ToggleType(context.Background(), userID, dto.ToggleType{Type: entity.SystemUpdate, Enabled: true})
	require.NoError(t, err)

	row := f.preferences.rows[prefKey{userID, entity.SystemUpdate}]
	assert.True(t, row.Enabled)
	assert.Equal(t, pq.StringArray{"EMAIL", "PUSH", "WHATSAPP"}, row.Channels)
}

func TestUpdateMany(t *testing.T) {
	ctx := context.Background()

	t.Run("enabled with empty channels is rejected before any write", func(t *testing.T) {
		f := newPreferenceFixture(t)
		err := f.svc.UpdateMany(ctx, userID, dto.UpdateMany{Preferences: []dto.TypePreference{
			{Type: entity.WorkoutReminder, Channels: []entity.Channel{entity.ChannelEmail}, Enabled: true},
			{Type: entity.SystemUpdate, Channels: nil, Enabled: true},
		}})

		var ve *errorz.ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, "preferences[1].channels", ve.Field)
		assert.Empty(t, f.preferences.rows)
	})

	t.Run("writes every row and invalidates once", func(t *testing.T) {
		f := newPreferenceFixture(t)
		err := f.svc.UpdateMany(ctx, userID, dto.UpdateMany{Preferences: []dto.TypePreference{
			{Type: entity.WorkoutReminder, Channels: []entity.Channel{entity.ChannelEmail, entity.ChannelEmail}, Enabled: true},
			{Type: entity.SystemUpdate, Channels: nil, Enabled: false},
		}})
		require.NoError(t, err)

		assert.Len(t, f.preferences.rows, 2)
		assert.Equal(t, pq.StringArray{"EMAIL"}, f.preferences.rows[prefKey{userID, entity.WorkoutReminder}].Channels)
		assert.Equal(t, 1, f.cache.clears)
	})
}

func TestMuteAndUnmute(t *testing.T) {
	f := newPreferenceFixture(t)
	ctx := context.Background()

	_, err := f.svc.Mute(ctx, userID, dto.Mute{Duration: 0})
	require.ErrorIs(t, err, errorz.ErrValidation)

	settings, err := f.svc.Mute(ctx, userID, dto.Mute{Duration: 30})
	require.NoError(t, err)
	require.NotNil(t, settings.MutedUntil)
	assert.Equal(t, f.clock.Now().Add(30*time.Minute), *settings.MutedUntil)

	res, err := f.svc.ResolveChannels(ctx, userID, entity.WorkoutReminder, entity.PriorityMedium)
	require.NoError(t, err)
	assert.Equal(t, entity.ReasonMuted, res.Reason)

	require.NoError(t, f.svc.Unmute(ctx, userID))
	res, err = f.svc.ResolveChannels(ctx, userID, entity.WorkoutReminder, entity.PriorityMedium)
	require.NoError(t, err)
	assert.False(t, res.Blocked)
}

func TestUpdateSettings(t *testing.T) {
	ctx := context.Background()
	off := false

	t.Run("start must precede end", func(t *testing.T) {
		f := newPreferenceFixture(t)
		_, err := f.svc.UpdateSettings(ctx, userID, dto.UpdateSettings{
			AllowedStartTime: strPtr("18:00"),
			AllowedEndTime:   strPtr("08:00"),
		})
		require.ErrorIs(t, err, errorz.ErrValidation)
		assert.Empty(t, f.settings.rows)
	})

	t.Run("malformed time", func(t *testing.T) {
		f := newPreferenceFixture(t)
		_, err := f.svc.UpdateSettings(ctx, userID, dto.UpdateSettings{AllowedStartTime: strPtr("8h")})
		require.ErrorIs(t, err, errorz.ErrValidation)
	})

	t.Run("partial update keeps other fields", func(t *testing.T) {
		f := newPreferenceFixture(t)
		_, err := f.svc.UpdateSettings(ctx, userID, dto.UpdateSettings{
			AllowedStartTime: strPtr("08:00"),
			AllowedEndTime:   strPtr("20:00"),
		})
		require.NoError(t, err)

		settings, err := f.svc.UpdateSettings(ctx, userID, dto.UpdateSettings{WhatsApp: &off})
		require.NoError(t, err)
		assert.False(t, settings.WhatsApp)
		assert.True(t, settings.Email)
		assert.Equal(t, "08:00", *settings.AllowedStartTime)
		assert.Equal(t, 2, f.cache.clears)
	})

	t.Run("empty bound clears the window", func(t *testing.T) {
		f := newPreferenceFixture(t)
		s := entity.DefaultSettings(userID)
		s.AllowedStartTime, s.AllowedEndTime = strPtr("08:00"), strPtr("09:00")
		f.settings.rows[userID] = s

		settings, err := f.svc.UpdateSettings(ctx, userID, dto.UpdateSettings{AllowedStartTime: strPtr("")})
		require.NoError(t, err)
		assert.Nil(t, settings.AllowedStartTime)
	})
}

func TestClearExpiredMutes(t *testing.T) {
	f := newPreferenceFixture(t)
	ctx := context.Background()

	_, err := f.svc.Mute(ctx, userID, dto.Mute{Duration: 5})
	require.NoError(t, err)
	_, err = f.svc.GetPreferences(ctx, userID)
	require.NoError(t, err)
	require.Contains(t, f.cache.entries, userID)

	n, err := f.svc.ClearExpiredMutes(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	f.clock.Advance(6 * time.Minute)
	n, err = f.svc.ClearExpiredMutes(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NotContains(t, f.cache.entries, userID)
	assert.Nil(t, f.settings.rows[userID].MutedUntil)
}

func TestGetPreferences_UnknownUser(t *testing.T) {
	f := newPreferenceFixture(t)
	_, err := f.svc.GetPreferences(context.Background(), "missing")
	require.ErrorIs(t, err, errorz.ErrUserNotFound)
}
