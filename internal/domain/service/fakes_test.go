package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/fitness360/notification-svc/internal/domain/common/errorz"
	"github.com/fitness360/notification-svc/internal/domain/dto"
	"github.com/fitness360/notification-svc/internal/domain/entity"
	"github.com/fitness360/notification-svc/pkg/logger/types"
	"go.uber.org/zap"
)

func testLogger() *types.Logger {
	return &types.Logger{SugaredLogger: zap.NewNop().Sugar(), Name: "test"}
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock(t time.Time) *clock { return &clock{now: t} }

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type memUsers struct {
	users map[string]entity.User
	err   error
}

func newMemUsers(users ...entity.User) *memUsers {
	m := &memUsers{users: make(map[string]entity.User)}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *memUsers) Get(_ context.Context, id string) (*entity.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, errorz.ErrUserNotFound
	}
	return &u, nil
}

type memNotifications struct {
	mu   sync.Mutex
	rows []*entity.Notification
}

func (m *memNotifications) Create(_ context.Context, n *entity.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row := *n
	m.rows = append(m.rows, &row)
	return nil
}

func (m *memNotifications) find(id string) *entity.Notification {
	for _, row := range m.rows {
		if row.ID == id {
			return row
		}
	}
	return nil
}

func (m *memNotifications) GetByID(_ context.Context, id string) (*entity.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row := m.find(id)
	if row == nil {
		return nil, errorz.ErrNotificationNotFound
	}
	copied := *row
	return &copied, nil
}

func (m *memNotifications) UpdateStatus(_ context.Context, id string, status entity.NotificationStatus, errorMessage *string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row := m.find(id)
	if row == nil {
		return errorz.ErrNotificationNotFound
	}
	row.Status, row.ErrorMessage, row.UpdatedAt = status, errorMessage, at
	return nil
}

func (m *memNotifications) GetLatestSince(_ context.Context, userID string, t entity.NotificationType, since time.Time) (*entity.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *entity.Notification
	for _, row := range m.rows {
		if row.UserID != userID || row.Type != t || row.CreatedAt.Before(since) {
			continue
		}
		if latest == nil || !row.CreatedAt.Before(latest.CreatedAt) {
			latest = row
		}
	}
	if latest == nil {
		return nil, errorz.ErrNotificationNotFound
	}
	copied := *latest
	return &copied, nil
}

func (m *memNotifications) IncrementGroupCount(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row := m.find(id)
	if row == nil {
		return errorz.ErrNotificationNotFound
	}
	row.GroupCount++
	row.UpdatedAt = at
	return nil
}

func (m *memNotifications) GetByUser(_ context.Context, userID string, filter dto.NotificationFilter) ([]entity.Notification, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var matched []entity.Notification
	for _, row := range m.rows {
		if row.UserID == userID && (filter.Type == "" || row.Type == filter.Type) {
			matched = append(matched, *row)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := int64(len(matched))
	start := (filter.Page - 1) * filter.Limit
	if start >= len(matched) {
		return nil, total, nil
	}
	end := start + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (m *memNotifications) CountUnread(_ context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, row := range m.rows {
		if row.UserID == userID && row.ReadAt == nil {
			count++
		}
	}
	return count, nil
}

func (m *memNotifications) MarkAsRead(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row := m.find(id)
	if row == nil {
		return errorz.ErrNotificationNotFound
	}
	row.ReadAt = &at
	return nil
}

func (m *memNotifications) MarkAllAsRead(_ context.Context, userID string, at time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var updated int64
	for _, row := range m.rows {
		if row.UserID == userID && row.ReadAt == nil {
			row.ReadAt = &at
			updated++
		}
	}
	return updated, nil
}

func (m *memNotifications) all() []entity.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]entity.Notification, 0, len(m.rows))
	for _, row := range m.rows {
		out = append(out, *row)
	}
	return out
}

type prefKey struct {
	userID string
	t      entity.NotificationType
}

type memPreferences struct {
	rows  map[prefKey]entity.NotificationPreference
	saves int
}

func newMemPreferences() *memPreferences {
	return &memPreferences{rows: make(map[prefKey]entity.NotificationPreference)}
}

func (m *memPreferences) GetByUser(_ context.Context, userID string) ([]entity.NotificationPreference, error) {
	var out []entity.NotificationPreference
	for _, t := range entity.NotificationTypes {
		if row, ok := m.rows[prefKey{userID, t}]; ok {
			out = append(out, row)
		}
	}
	return out, nil
}

func (m *memPreferences) Get(_ context.Context, userID string, t entity.NotificationType) (*entity.NotificationPreference, error) {
	row, ok := m.rows[prefKey{userID, t}]
	if !ok {
		return nil, errorz.ErrPreferenceNotFound
	}
	return &row, nil
}

func (m *memPreferences) Save(_ context.Context, p *entity.NotificationPreference) error {
	m.saves++
	m.rows[prefKey{p.UserID, p.Type}] = *p
	return nil
}

func (m *memPreferences) SaveMany(_ context.Context, prefs []entity.NotificationPreference) error {
	m.saves++
	for _, p := range prefs {
		m.rows[prefKey{p.UserID, p.Type}] = p
	}
	return nil
}

type memSettings struct {
	rows map[string]entity.UserNotificationSettings
}

func newMemSettings() *memSettings {
	return &memSettings{rows: make(map[string]entity.UserNotificationSettings)}
}

func (m *memSettings) Get(_ context.Context, userID string) (*entity.UserNotificationSettings, error) {
	row, ok := m.rows[userID]
	if !ok {
		return nil, errorz.ErrSettingsNotFound
	}
	return &row, nil
}

func (m *memSettings) Save(_ context.Context, s *entity.UserNotificationSettings) error {
	m.rows[s.UserID] = *s
	return nil
}

func (m *memSettings) ClearExpiredMutes(_ context.Context, now time.Time) ([]string, error) {
	var cleared []string
	for id, row := range m.rows {
		if row.MutedUntil != nil && !row.MutedUntil.After(now) {
			row.MutedUntil = nil
			m.rows[id] = row
			cleared = append(cleared, id)
		}
	}
	sort.Strings(cleared)
	return cleared, nil
}

type memCache struct {
	entries map[string]dto.UserPreferences
	gets    int
	hits    int
	sets    int
	clears  int
	getErr  error
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string]dto.UserPreferences)}
}

func (m *memCache) Get(_ context.Context, userID string) (*dto.UserPreferences, error) {
	m.gets++
	if m.getErr != nil {
		return nil, m.getErr
	}
	entry, ok := m.entries[userID]
	if !ok {
		return nil, nil
	}
	m.hits++
	return &entry, nil
}

func (m *memCache) Set(_ context.Context, userID string, prefs *dto.UserPreferences) error {
	m.sets++
	m.entries[userID] = *prefs
	return nil
}

func (m *memCache) Clear(_ context.Context, userID string) error {
	m.clears++
	delete(m.entries, userID)
	return nil
}

type memTemplates struct {
	rows map[string]entity.NotificationTemplate
}

func newMemTemplates(templates ...entity.NotificationTemplate) *memTemplates {
	m := &memTemplates{rows: make(map[string]entity.NotificationTemplate)}
	for _, t := range templates {
		m.rows[string(t.Type)+"/"+t.Language] = t
	}
	return m
}

func (m *memTemplates) Get(_ context.Context, t entity.NotificationType, language string) (*entity.NotificationTemplate, error) {
	row, ok := m.rows[string(t)+"/"+language]
	if !ok {
		return nil, errorz.ErrTemplateNotFound
	}
	return &row, nil
}

func (m *memTemplates) Upsert(_ context.Context, tpl *entity.NotificationTemplate) error {
	key := string(tpl.Type) + "/" + tpl.Language
	if existing, ok := m.rows[key]; ok {
		tpl.ID = existing.ID
	}
	m.rows[key] = *tpl
	return nil
}

func (m *memTemplates) Delete(_ context.Context, t entity.NotificationType, language string) error {
	key := string(t) + "/" + language
	if _, ok := m.rows[key]; !ok {
		return errorz.ErrTemplateNotFound
	}
	delete(m.rows, key)
	return nil
}

func (m *memTemplates) List(_ context.Context, language string) ([]entity.NotificationTemplate, error) {
	var out []entity.NotificationTemplate
	for _, row := range m.rows {
		if row.Language == language {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out, nil
}

// fakeSender records calls and fails when err is set.
type fakeSender struct {
	mu    sync.Mutex
	calls []string
	err   error
	panic bool
}

func (f *fakeSender) record(to string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, to)
	if f.panic {
		panic("adapter exploded")
	}
	return f.err
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeEmail struct{ fakeSender }

func (f *fakeEmail) Send(_ context.Context, to, _, _ string) error { return f.record(to) }

type fakePush struct{ fakeSender }

func (f *fakePush) Send(_ context.Context, token, _, _ string) error { return f.record(token) }

type fakeMessage struct{ fakeSender }

func (f *fakeMessage) Send(_ context.Context, to, _ string) error { return f.record(to) }

var errAdapter = errors.New("adapter unavailable")

type recordingFeed struct {
	mu        sync.Mutex
	published []entity.Notification
}

func (f *recordingFeed) Publish(_ string, n entity.Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, n)
}
