package main

import (
	"aclue/internal/app"
	"aclue/internal/config"
	"context"
	"github.com/joho/godotenv"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {

	_ = godotenv.Load(".env")

	cfg := config.GetConfig()
	log := setupSlog(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	application, err := app.New(ctx, *cfg, log)
	if err != nil {
		log.Error("failed to start", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer application.Close()

	logSession(ctx, application, log)

	log.Info("client started",
		slog.String("env", cfg.Env),
		slog.String("api", cfg.API.BaseURL),
		slog.String("storage", cfg.Storage.Driver))

	application.Run(ctx)

	log.Info("Gracefully stopped")
}

func logSession(ctx context.Context, a *app.App, log *slog.Logger) {
	if !a.Tokens.Authenticated(ctx) {
		log.Info("no active session")
		return
	}

	attrs := []any{slog.Int("unread_notifications", a.Notifications.UnreadCount())}
	if exp, ok := a.Tokens.AccessTokenExpiry(ctx); ok {
		attrs = append(attrs, slog.Duration("access_expires_in", time.Until(exp).Round(time.Second)))
	}
	if u, ok := a.Tokens.User(ctx); ok {
		attrs = append(attrs, slog.String("user_id", u.ID))
	}
	log.Info("session restored", attrs...)
}

func setupSlog(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envDev:
		log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return log
}
