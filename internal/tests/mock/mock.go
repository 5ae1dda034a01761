package mock

import (
	"aclue/internal/model"
	"context"
	"encoding/json"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
	"sync"
	"time"
)

// ===================== STORAGE =====================

type MockStorage struct {
	mock.Mock
}

func NewMockStorage() *MockStorage {
	return &MockStorage{}
}

func (m *MockStorage) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockStorage) Set(ctx context.Context, key string, value string) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockStorage) Remove(ctx context.Context, keys ...string) error {
	args := m.Called(ctx, keys)
	return args.Error(0)
}

// ===================== REDIS CLIENT =====================

type MockRedisClient struct {
	mock.Mock
}

func NewMockRedisClient() *MockRedisClient {
	return &MockRedisClient{}
}

func (m *MockRedisClient) Get(ctx context.Context, key string) *redis.StringCmd {
	args := m.Called(ctx, key)
	return args.Get(0).(*redis.StringCmd)
}

func (m *MockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	args := m.Called(ctx, key, value, expiration)
	return args.Get(0).(*redis.StatusCmd)
}

func (m *MockRedisClient) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	args := m.Called(ctx, keys)
	return args.Get(0).(*redis.IntCmd)
}

func (m *MockRedisClient) Ping(ctx context.Context) *redis.StatusCmd {
	args := m.Called(ctx)
	return args.Get(0).(*redis.StatusCmd)
}

func (m *MockRedisClient) Close() error {
	args := m.Called()
	return args.Error(0)
}

// ===================== BACKEND =====================

type MockBackend struct {
	mock.Mock
}

func NewMockBackend() *MockBackend {
	return &MockBackend{}
}

// Get copies the value configured with Return into out. A []model.Notification
// is copied as is or encoded record by record into a *[]json.RawMessage; a
// string is decoded into out as JSON.
func (m *MockBackend) Get(ctx context.Context, path string, out any) error {
	args := m.Called(ctx, path, out)

	switch src := args.Get(0).(type) {
	case []model.Notification:
		switch dst := out.(type) {
		case *[]model.Notification:
			*dst = append((*dst)[:0], src...)
		case *[]json.RawMessage:
			*dst = (*dst)[:0]
			for _, n := range src {
				b, err := json.Marshal(n)
				if err != nil {
					return err
				}
				*dst = append(*dst, b)
			}
		}
	case string:
		if err := json.Unmarshal([]byte(src), out); err != nil {
			return err
		}
	}
	return args.Error(1)
}

func (m *MockBackend) Post(ctx context.Context, path string, body any) (*model.Envelope, error) {
	args := m.Called(ctx, path, body)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Envelope), args.Error(1)
}

// ===================== PLATFORM =====================

type MockPlatform struct {
	mock.Mock
}

func NewMockPlatform() *MockPlatform {
	return &MockPlatform{}
}

func (m *MockPlatform) Supported() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockPlatform) Permission() model.Permission {
	args := m.Called()
	return args.Get(0).(model.Permission)
}

func (m *MockPlatform) RequestPermission(ctx context.Context) (model.Permission, error) {
	args := m.Called(ctx)
	return args.Get(0).(model.Permission), args.Error(1)
}

func (m *MockPlatform) Notify(ctx context.Context, n model.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

// ===================== PUSH SERVICE =====================

type MockPushService struct {
	mock.Mock
}

func NewMockPushService() *MockPushService {
	return &MockPushService{}
}

func (m *MockPushService) Subscribe(ctx context.Context) (*model.PushSubscription, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PushSubscription), args.Error(1)
}

func (m *MockPushService) Current(ctx context.Context) (*model.PushSubscription, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PushSubscription), args.Error(1)
}

func (m *MockPushService) Unsubscribe(ctx context.Context, sub *model.PushSubscription) error {
	args := m.Called(ctx, sub)
	return args.Error(0)
}

// ===================== TOASTER =====================

type Toast struct {
	Notification model.Notification
	Duration     time.Duration
}

// MockToaster records every toast instead of asserting expectations.
type MockToaster struct {
	mu     sync.Mutex
	toasts []Toast
}

func NewMockToaster() *MockToaster {
	return &MockToaster{}
}

func (m *MockToaster) Toast(n model.Notification, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.toasts = append(m.toasts, Toast{Notification: n, Duration: d})
}

func (m *MockToaster) Toasts() []Toast {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Toast, len(m.toasts))
	copy(out, m.toasts)
	return out
}

// ===================== NAVIGATOR =====================

type MockNavigator struct {
	mu     sync.Mutex
	routes []string
}

func NewMockNavigator() *MockNavigator {
	return &MockNavigator{}
}

func (m *MockNavigator) RedirectToLogin(route string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes = append(m.routes, route)
}

func (m *MockNavigator) Redirects() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, len(m.routes))
	copy(out, m.routes)
	return out
}
