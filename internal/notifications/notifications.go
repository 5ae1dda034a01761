package notifications

import (
	"aclue/internal/model"
	"aclue/internal/storage"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"log/slog"
	"strings"
	"sync"
	"time"
)

const (
	MaxNotifications = 100

	DefaultPollingInterval = 30 * time.Second

	errorToastDuration   = 10 * time.Second
	defaultToastDuration = 5 * time.Second
)

var ErrNotSupported = errors.New("notifications are not supported on this platform")

// Backend is the part of the API client the manager talks to.
type Backend interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, payload any) (*model.Envelope, error)
}

// Platform is the native notification surface.
type Platform interface {
	Supported() bool
	Permission() model.Permission
	RequestPermission(ctx context.Context) (model.Permission, error)
	Notify(ctx context.Context, n model.Notification) error
}

// PushService registers this client for server-sent push messages.
type PushService interface {
	Subscribe(ctx context.Context) (*model.PushSubscription, error)
	Current(ctx context.Context) (*model.PushSubscription, error)
	Unsubscribe(ctx context.Context, sub *model.PushSubscription) error
}

type Toaster interface {
	Toast(n model.Notification, d time.Duration)
}

type Option func(*Manager)

func WithPlatform(p Platform) Option {
	return func(m *Manager) { m.platform = p }
}

func WithPushService(p PushService) Option {
	return func(m *Manager) { m.push = p }
}

func WithToaster(t Toaster) Option {
	return func(m *Manager) { m.toaster = t }
}

func WithPollingInterval(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.interval = d
		}
	}
}

func WithBrowserNotifications(enabled bool) Option {
	return func(m *Manager) { m.browserEnabled = enabled }
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

type Manager struct {
	store    storage.Storage
	key      string
	backend  Backend
	platform Platform
	push     PushService
	toaster  Toaster
	validate *validator.Validate
	log      *slog.Logger
	now      func() time.Time
	interval time.Duration

	mu             sync.Mutex
	items          []model.Notification
	browserEnabled bool
}

// New builds a manager and loads the persisted list stored under key.
func New(ctx context.Context, store storage.Storage, key string, backend Backend, log *slog.Logger, opts ...Option) *Manager {
	m := &Manager{
		store:          store,
		key:            key,
		backend:        backend,
		log:            log,
		now:            time.Now,
		interval:       DefaultPollingInterval,
		validate:       validator.New(validator.WithRequiredStructEnabled()),
		browserEnabled: true,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.toaster == nil {
		m.toaster = NewLogToaster(log)
	}

	m.items = m.load(ctx)
	return m
}

func (m *Manager) load(ctx context.Context) []model.Notification {
	raw, err := m.store.Get(ctx, m.key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			m.log.Error("failed to load notifications", slog.String("error", err.Error()))
		}
		return nil
	}

	var items []model.Notification
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		m.log.Warn("stored notifications are corrupt, starting empty", slog.String("error", err.Error()))
		return nil
	}
	return items
}

// persist writes the whole list. Callers hold m.mu.
func (m *Manager) persist(ctx context.Context) {
	items := m.items
	if items == nil {
		items = []model.Notification{}
	}

	b, err := json.Marshal(items)
	if err != nil {
		m.log.Error("failed to encode notifications", slog.String("error", err.Error()))
		return
	}
	if err := m.store.Set(ctx, m.key, string(b)); err != nil {
		m.log.Error("failed to persist notifications", slog.String("error", err.Error()))
	}
}

func (m *Manager) newID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("%d-%s", m.now().UnixMilli(), suffix)
}

// Show records a new unread notification and presents it.
func (m *Manager) Show(ctx context.Context, in model.NotificationInput) (model.Notification, error) {
	if err := m.validate.Struct(in); err != nil {
		return model.Notification{}, fmt.Errorf("invalid notification: %w", err)
	}
	if in.Type == "" {
		in.Type = model.NotificationInfo
	}

	n := model.Notification{
		ID:          m.newID(),
		Type:        in.Type,
		Title:       in.Title,
		Message:     in.Message,
		Timestamp:   m.now(),
		ActionURL:   in.ActionURL,
		ActionLabel: in.ActionLabel,
		UserID:      in.UserID,
		Metadata:    in.Metadata,
	}

	m.mu.Lock()
	items := make([]model.Notification, 0, len(m.items)+1)
	items = append(items, n)
	items = append(items, m.items...)
	if len(items) > MaxNotifications {
		items = items[:MaxNotifications]
	}
	m.items = items
	m.persist(ctx)
	native := m.browserEnabled
	m.mu.Unlock()

	if native {
		m.notifyNative(ctx, n)
	}
	m.toaster.Toast(n, toastDuration(n.Type))

	return n, nil
}

func (m *Manager) notifyNative(ctx context.Context, n model.Notification) {
	if m.platform == nil || !m.platform.Supported() {
		return
	}
	if m.platform.Permission() != model.PermissionGranted {
		return
	}
	if err := m.platform.Notify(ctx, n); err != nil {
		m.log.Warn("native notification failed", slog.String("id", n.ID), slog.String("error", err.Error()))
	}
}

func toastDuration(t model.NotificationType) time.Duration {
	if t == model.NotificationError {
		return errorToastDuration
	}
	return defaultToastDuration
}

// MarkAsRead is a no-op for unknown ids.
func (m *Manager) MarkAsRead(ctx context.Context, id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.items {
		if m.items[i].ID == id {
			if m.items[i].Read {
				return
			}
			m.items[i].Read = true
			m.persist(ctx)
			return
		}
	}
}

func (m *Manager) MarkAllAsRead(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.items {
		m.items[i].Read = true
	}
	m.persist(ctx)
}

func (m *Manager) Delete(ctx context.Context, id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.items {
		if m.items[i].ID == id {
			items := make([]model.Notification, 0, len(m.items)-1)
			items = append(items, m.items[:i]...)
			items = append(items, m.items[i+1:]...)
			m.items = items
			m.persist(ctx)
			return
		}
	}
}

func (m *Manager) ClearAll(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items = nil
	m.persist(ctx)
}

// List returns a copy of the notifications, newest first.
func (m *Manager) List() []model.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]model.Notification, len(m.items))
	copy(out, m.items)
	return out
}

// UnreadCount is derived from the list on every call.
func (m *Manager) UnreadCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for _, n := range m.items {
		if !n.Read {
			count++
		}
	}
	return count
}

func (m *Manager) SetBrowserNotifications(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.browserEnabled = enabled
}

func (m *Manager) BrowserNotifications() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.browserEnabled
}
