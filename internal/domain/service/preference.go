package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fitness360/notification-svc/internal/domain/common/errorz"
	"github.com/fitness360/notification-svc/internal/domain/dto"
	"github.com/fitness360/notification-svc/internal/domain/entity"
	"github.com/fitness360/notification-svc/internal/domain/utils/validator"
	"github.com/fitness360/notification-svc/pkg/logger/types"
	"github.com/lib/pq"
)

type preferenceStorage interface {
	GetByUser(ctx context.Context, userID string) ([]entity.NotificationPreference, error)
	Get(ctx context.Context, userID string, notificationType entity.NotificationType) (*entity.NotificationPreference, error)
	Save(ctx context.Context, preference *entity.NotificationPreference) error
	SaveMany(ctx context.Context, preferences []entity.NotificationPreference) error
}

type settingsStorage interface {
	Get(ctx context.Context, userID string) (*entity.UserNotificationSettings, error)
	Save(ctx context.Context, settings *entity.UserNotificationSettings) error
	ClearExpiredMutes(ctx context.Context, now time.Time) ([]string, error)
}

type preferenceCache interface {
	Get(ctx context.Context, userID string) (*dto.UserPreferences, error)
	Set(ctx context.Context, userID string, preferences *dto.UserPreferences) error
	Clear(ctx context.Context, userID string) error
}

type userStorage interface {
	Get(ctx context.Context, id string) (*entity.User, error)
}

// PreferenceService owns per-user delivery preferences. Reads go through the cache,
// every write deletes the user's cache entry so the next read repopulates from the store.
type PreferenceService struct {
	preferences preferenceStorage
	settings    settingsStorage
	cache       preferenceCache
	users       userStorage

	location *time.Location
	logger   *types.Logger
	now      func() time.Time
}

func NewPreferenceService(
	preferences preferenceStorage,
	settings settingsStorage,
	cache preferenceCache,
	users userStorage,
	location *time.Location,
	logger *types.Logger,
) *PreferenceService {
	if location == nil {
		location = time.Local
	}
	return &PreferenceService{
		preferences: preferences,
		settings:    settings,
		cache:       cache,
		users:       users,
		location:    location,
		logger:      logger,
		now:         time.Now,
	}
}

// GetPreferences returns the user's settings and per-type preferences.
func (s *PreferenceService) GetPreferences(ctx context.Context, userID string) (*dto.UserPreferences, error) {
	if _, err := s.users.Get(ctx, userID); err != nil {
		return nil, err
	}
	return s.load(ctx, userID)
}

// ResolveChannels decides which channels may carry a notification of the given type
// and priority. Checks run in order: mute, allowed window, type preference. CRITICAL
// skips every check and gets the full channel set.
func (s *PreferenceService) ResolveChannels(
	ctx context.Context,
	userID string,
	notificationType entity.NotificationType,
	priority entity.Priority,
) (entity.Resolution, error) {
	if priority == entity.PriorityCritical {
		return entity.Resolution{Channels: append([]entity.Channel(nil), entity.AllChannels...)}, nil
	}

	prefs, err := s.load(ctx, userID)
	if err != nil {
		return entity.Resolution{}, err
	}
	settings := prefs.Settings
	now := s.now()

	if settings.MutedUntil != nil && settings.MutedUntil.After(now) {
		return entity.Resolution{Blocked: true, Reason: entity.ReasonMuted}, nil
	}

	if inside, configured := s.withinWindow(settings, now); configured && !inside {
		return entity.Resolution{Blocked: true, Reason: entity.ReasonOutsideWindow}, nil
	}

	candidates := entity.AllChannels
	if pref, ok := prefs.Preference(notificationType); ok {
		if !pref.Enabled {
			return entity.Resolution{Blocked: true, Reason: entity.ReasonTypeDisabled}, nil
		}
		candidates = pref.Channels
	}

	channels := make([]entity.Channel, 0, len(candidates))
	for _, channel := range candidates {
		if settings.Toggled(channel) {
			channels = append(channels, channel)
		}
	}
	return entity.Resolution{Channels: channels}, nil
}

// UpdateChannel switches a single channel on or off for one notification type.
func (s *PreferenceService) UpdateChannel(ctx context.Context, userID string, req dto.UpdateChannel) error {
	if err := validator.Struct(req); err != nil {
		return err
	}
	if _, err := s.users.Get(ctx, userID); err != nil {
		return err
	}

	pref, err := s.preferenceOrDefault(ctx, userID, req.Type)
	if err != nil {
		return err
	}

	channels := pref.ChannelSet()
	if req.Enabled {
		if !pref.Has(req.Channel) {
			channels = append(channels, req.Channel)
		}
	} else {
		kept := channels[:0]
		for _, c := range channels {
			if c != req.Channel {
				kept = append(kept, c)
			}
		}
		channels = kept
	}
	if pref.Enabled && len(channels) == 0 {
		return errorz.NewValidationError("channel", "an enabled type needs at least one channel")
	}

	pref.Channels = pq.StringArray(entity.ChannelsToStrings(channels))
	if err = s.preferences.Save(ctx, pref); err != nil {
		return err
	}
	return s.invalidate(ctx, userID)
}

// ToggleType enables or disables a notification type as a whole. Enabling a type
// that has no channels left restores the full channel set.
func (s *PreferenceService) ToggleType(ctx context.Context, userID string, req dto.ToggleType) error {
	if err := validator.Struct(req); err != nil {
		return err
	}
	if _, err := s.users.Get(ctx, userID); err != nil {
		return err
	}

	pref, err := s.preferenceOrDefault(ctx, userID, req.Type)
	if err != nil {
		return err
	}

	pref.Enabled = req.Enabled
	if pref.Enabled && len(pref.ChannelSet()) == 0 {
		pref.Channels = pq.StringArray(entity.ChannelsToStrings(entity.AllChannels))
	}
	if err = s.preferences.Save(ctx, pref); err != nil {
		return err
	}
	return s.invalidate(ctx, userID)
}

// UpdateMany replaces several type preferences at once. Nothing is written when any
// entry is invalid.
func (s *PreferenceService) UpdateMany(ctx context.Context, userID string, req dto.UpdateMany) error {
	if err := validator.Struct(req); err != nil {
		return err
	}
	for i, pref := range req.Preferences {
		if pref.Enabled && len(pref.Channels) == 0 {
			return errorz.NewValidationError(
				fmt.Sprintf("preferences[%d].channels", i),
				"at least one channel must be specified",
			)
		}
	}
	if _, err := s.users.Get(ctx, userID); err != nil {
		return err
	}

	rows := make([]entity.NotificationPreference, 0, len(req.Preferences))
	for _, pref := range req.Preferences {
		rows = append(rows, entity.NotificationPreference{
			UserID:   userID,
			Type:     pref.Type,
			Channels: pq.StringArray(entity.ChannelsToStrings(entity.UniqueChannels(pref.Channels))),
			Enabled:  pref.Enabled,
		})
	}
	if err := s.preferences.SaveMany(ctx, rows); err != nil {
		return err
	}
	return s.invalidate(ctx, userID)
}

// Mute silences every non-critical notification for the given number of minutes.
func (s *PreferenceService) Mute(ctx context.Context, userID string, req dto.Mute) (*entity.UserNotificationSettings, error) {
	if err := validator.Struct(req); err != nil {
		return nil, err
	}

	settings, err := s.settingsOrDefault(ctx, userID)
	if err != nil {
		return nil, err
	}

	until := s.now().Add(time.Duration(req.Duration) * time.Minute)
	settings.MutedUntil = &until
	if err = s.settings.Save(ctx, settings); err != nil {
		return nil, err
	}
	return settings, s.invalidate(ctx, userID)
}

func (s *PreferenceService) Unmute(ctx context.Context, userID string) error {
	settings, err := s.settingsOrDefault(ctx, userID)
	if err != nil {
		return err
	}

	settings.MutedUntil = nil
	if err = s.settings.Save(ctx, settings); err != nil {
		return err
	}
	return s.invalidate(ctx, userID)
}

// UpdateSettings writes the global channel toggles and the allowed window. An empty
// window bound clears it.
func (s *PreferenceService) UpdateSettings(ctx context.Context, userID string, req dto.UpdateSettings) (*entity.UserNotificationSettings, error) {
	if err := validator.Struct(req); err != nil {
		return nil, err
	}

	settings, err := s.settingsOrDefault(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Email != nil {
		settings.Email = *req.Email
	}
	if req.Push != nil {
		settings.Push = *req.Push
	}
	if req.WhatsApp != nil {
		settings.WhatsApp = *req.WhatsApp
	}
	if req.AllowedStartTime != nil {
		settings.AllowedStartTime = emptyToNil(*req.AllowedStartTime)
	}
	if req.AllowedEndTime != nil {
		settings.AllowedEndTime = emptyToNil(*req.AllowedEndTime)
	}

	if settings.AllowedStartTime != nil && settings.AllowedEndTime != nil &&
		*settings.AllowedStartTime >= *settings.AllowedEndTime {
		return nil, errorz.NewValidationError("allowedStartTime", "must be earlier than allowedEndTime")
	}

	if err = s.settings.Save(ctx, settings); err != nil {
		return nil, err
	}
	return settings, s.invalidate(ctx, userID)
}

// ClearExpiredMutes resets mutes that already ended and drops the affected cache entries.
func (s *PreferenceService) ClearExpiredMutes(ctx context.Context) (int, error) {
	userIDs, err := s.settings.ClearExpiredMutes(ctx, s.now())
	if err != nil {
		return 0, err
	}
	for _, userID := range userIDs {
		if err = s.invalidate(ctx, userID); err != nil {
			return 0, err
		}
	}
	return len(userIDs), nil
}

func (s *PreferenceService) load(ctx context.Context, userID string) (*dto.UserPreferences, error) {
	cached, err := s.cache.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read preference cache: %w", err)
	}
	if cached != nil {
		return cached, nil
	}

	settings, err := s.settings.Get(ctx, userID)
	if errors.Is(err, errorz.ErrSettingsNotFound) {
		defaults := entity.DefaultSettings(userID)
		settings = &defaults
	} else if err != nil {
		return nil, err
	}

	rows, err := s.preferences.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	prefs := &dto.UserPreferences{
		UserID:      userID,
		Settings:    *settings,
		Preferences: make([]dto.TypePreference, 0, len(rows)),
	}
	for _, row := range rows {
		prefs.Preferences = append(prefs.Preferences, dto.TypePreference{
			Type:     row.Type,
			Channels: row.ChannelSet(),
			Enabled:  row.Enabled,
		})
	}

	if err = s.cache.Set(ctx, userID, prefs); err != nil {
		s.logger.Warnf("failed to cache preferences (user_id=%s): %v", userID, err)
	}
	return prefs, nil
}

func (s *PreferenceService) invalidate(ctx context.Context, userID string) error {
	if err := s.cache.Clear(ctx, userID); err != nil {
		return fmt.Errorf("failed to invalidate preference cache: %w", err)
	}
	return nil
}

func (s *PreferenceService) preferenceOrDefault(ctx context.Context, userID string, t entity.NotificationType) (*entity.NotificationPreference, error) {
	pref, err := s.preferences.Get(ctx, userID, t)
	if errors.Is(err, errorz.ErrPreferenceNotFound) {
		return &entity.NotificationPreference{
			UserID:   userID,
			Type:     t,
			Channels: pq.StringArray(entity.ChannelsToStrings(entity.AllChannels)),
			Enabled:  true,
		}, nil
	}
	return pref, err
}

func (s *PreferenceService) settingsOrDefault(ctx context.Context, userID string) (*entity.UserNotificationSettings, error) {
	if _, err := s.users.Get(ctx, userID); err != nil {
		return nil, err
	}
	settings, err := s.settings.Get(ctx, userID)
	if errors.Is(err, errorz.ErrSettingsNotFound) {
		defaults := entity.DefaultSettings(userID)
		return &defaults, nil
	}
	return settings, err
}

// withinWindow reports whether now falls inside [start, end) of the user's allowed
// window. configured is false when no complete, well-formed window is set.
func (s *PreferenceService) withinWindow(settings entity.UserNotificationSettings, now time.Time) (inside bool, configured bool) {
	if settings.AllowedStartTime == nil || settings.AllowedEndTime == nil {
		return false, false
	}
	start, errStart := minuteOfDay(*settings.AllowedStartTime)
	end, errEnd := minuteOfDay(*settings.AllowedEndTime)
	if errStart != nil || errEnd != nil || start >= end {
		s.logger.Warnf("ignoring malformed allowed window %q-%q (user_id=%s)",
			*settings.AllowedStartTime, *settings.AllowedEndTime, settings.UserID)
		return false, false
	}

	local := now.In(s.location)
	current := local.Hour()*60 + local.Minute()
	return current >= start && current < end, true
}

func minuteOfDay(hhmm string) (int, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

func emptyToNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
