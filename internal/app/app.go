package app

import (
	"aclue/internal/api"
	"aclue/internal/config"
	"aclue/internal/notifications"
	"aclue/internal/storage"
	"aclue/internal/storage/file"
	"aclue/internal/storage/memory"
	redis2 "aclue/internal/storage/redis"
	"aclue/internal/token"
	"aclue/pkg/client/redis"
	"context"
	"fmt"
	"log/slog"
)

type App struct {
	Storage       storage.Storage
	Tokens        *token.Manager
	Client        *api.Client
	Notifications *notifications.Manager

	log     *slog.Logger
	closers []func() error
}

func New(ctx context.Context, cfg config.Config, log *slog.Logger) (*App, error) {
	a := &App{log: log}

	store, err := a.newStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.Storage = store

	a.Tokens = token.NewManager(store, cfg.Storage.Keys, log)
	a.Client = api.New(cfg.API, a.Tokens, log, api.WithNavigator(&logNavigator{log: log}))
	a.Notifications = notifications.New(ctx, store, cfg.Storage.Keys.Notifications, a.Client, log,
		notifications.WithPollingInterval(cfg.Notifications.PollingInterval),
		notifications.WithBrowserNotifications(!cfg.Notifications.BrowserDisabled))

	return a, nil
}

func (a *App) newStorage(ctx context.Context, cfg config.Config) (storage.Storage, error) {
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		return memory.New(), nil

	case config.DriverFile:
		return file.New(cfg.Storage.Path), nil

	case config.DriverRedis:
		client, err := redis.NewClient(ctx, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("redis storage: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		return redis2.NewRepositoryRedis(client, cfg.Redis.Prefix, cfg.Redis.TTL), nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// Run polls for notifications until ctx is done.
func (a *App) Run(ctx context.Context) {
	a.Notifications.Run(ctx)
}

func (a *App) Close() {
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			a.log.Error("failed to close resource", slog.String("error", err.Error()))
		}
	}
}

// logNavigator stands in for the login redirect when there is no UI.
type logNavigator struct {
	log *slog.Logger
}

func (n *logNavigator) RedirectToLogin(route string) {
	n.log.Warn("session expired, sign in again", slog.String("route", route))
}
