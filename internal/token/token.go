package token

import (
	"aclue/internal/config"
	"aclue/internal/model"
	"aclue/internal/storage"
	"context"
	"encoding/json"
	"errors"
	"github.com/golang-jwt/jwt/v5"
	"log/slog"
	"sync"
	"time"
)

// Manager is the single source of truth for the client's credentials. It is
// hydrated from storage lazily, on first read.
type Manager struct {
	store storage.Storage
	keys  config.StorageKeys
	log   *slog.Logger

	mu       sync.RWMutex
	hydrated bool
	access   string
	refresh  string
	// set when a Clear could not empty storage; storage is not trusted
	// again until the next SetTokens
	stale    bool

	now func() time.Time
}

func NewManager(store storage.Storage, keys config.StorageKeys, log *slog.Logger) *Manager {
	return &Manager{
		store: store,
		keys:  keys,
		log:   log,
		now:   time.Now,
	}
}

// hydrate reads both tokens from storage once. Caller must hold the write lock.
func (m *Manager) hydrate(ctx context.Context) {
	if m.hydrated {
		return
	}
	m.access = m.read(ctx, m.keys.AccessToken)
	m.refresh = m.read(ctx, m.keys.RefreshToken)
	m.hydrated = true
}

func (m *Manager) read(ctx context.Context, key string) string {
	v, err := m.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			m.log.Warn("failed to read token storage",
				slog.String("key", key),
				slog.String("error", err.Error()))
		}
		return ""
	}
	return v
}

func (m *Manager) ensureHydrated(ctx context.Context) {
	m.mu.RLock()
	done := m.hydrated
	m.mu.RUnlock()
	if done {
		return
	}

	m.mu.Lock()
	m.hydrate(ctx)
	m.mu.Unlock()
}

// AccessToken returns the in-memory token, falling back to storage in case it
// was written there by someone else. Empty means absent.
func (m *Manager) AccessToken(ctx context.Context) string {
	m.ensureHydrated(ctx)

	m.mu.RLock()
	v, stale := m.access, m.stale
	m.mu.RUnlock()
	if v != "" || stale {
		return v
	}
	return m.read(ctx, m.keys.AccessToken)
}

func (m *Manager) RefreshToken(ctx context.Context) string {
	m.ensureHydrated(ctx)

	m.mu.RLock()
	v, stale := m.refresh, m.stale
	m.mu.RUnlock()
	if v != "" || stale {
		return v
	}
	return m.read(ctx, m.keys.RefreshToken)
}

func (m *Manager) Tokens(ctx context.Context) model.TokenPair {
	return model.TokenPair{
		AccessToken:  m.AccessToken(ctx),
		RefreshToken: m.RefreshToken(ctx),
	}
}

// SetTokens replaces both tokens. Memory is always updated; the returned error
// only reports a failed durable write.
func (m *Manager) SetTokens(ctx context.Context, access, refresh string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.access = access
	m.refresh = refresh
	m.hydrated = true
	m.stale = false

	if err := m.store.Set(ctx, m.keys.AccessToken, access); err != nil {
		m.log.Error("failed to persist access token", slog.String("error", err.Error()))
		return err
	}
	if err := m.store.Set(ctx, m.keys.RefreshToken, refresh); err != nil {
		m.log.Error("failed to persist refresh token", slog.String("error", err.Error()))
		// keep storage consistent with the pair invariant
		_ = m.store.Remove(ctx, m.keys.AccessToken)
		return err
	}
	return nil
}

// Clear drops both tokens and the cached profile. The next read hydrates again.
func (m *Manager) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.access = ""
	m.refresh = ""

	if err := m.store.Remove(ctx, m.keys.AccessToken, m.keys.RefreshToken, m.keys.User); err != nil {
		m.log.Error("failed to clear token storage", slog.String("error", err.Error()))
		m.hydrated = true
		m.stale = true
		return err
	}

	m.hydrated = false
	m.stale = false
	return nil
}

func (m *Manager) SetUser(ctx context.Context, user *model.User) error {
	if user == nil {
		return nil
	}
	b, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return m.store.Set(ctx, m.keys.User, string(b))
}

// User returns the cached profile, if any.
func (m *Manager) User(ctx context.Context) (*model.User, bool) {
	m.mu.RLock()
	stale := m.stale
	m.mu.RUnlock()
	if stale {
		return nil, false
	}

	raw := m.read(ctx, m.keys.User)
	if raw == "" {
		return nil, false
	}

	var u model.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		m.log.Warn("cached user is corrupt", slog.String("error", err.Error()))
		return nil, false
	}
	return &u, true
}

// AccessTokenExpiry reads the exp claim of a JWT access token. The signature
// is not checked: the client never holds the signing key.
func (m *Manager) AccessTokenExpiry(ctx context.Context) (time.Time, bool) {
	raw := m.AccessToken(ctx)
	if raw == "" {
		return time.Time{}, false
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// Authenticated reports whether an access token is held and, when it carries
// an expiry, has not yet expired.
func (m *Manager) Authenticated(ctx context.Context) bool {
	if m.AccessToken(ctx) == "" {
		return false
	}
	exp, ok := m.AccessTokenExpiry(ctx)
	if !ok {
		return true
	}
	return m.now().Before(exp)
}
