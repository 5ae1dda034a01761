package notifications

import (
	"aclue/internal/model"
	"context"
	"log/slog"
	"time"
)

// LogToaster presents toasts as log records. It is the default for headless
// clients.
type LogToaster struct {
	log *slog.Logger
}

func NewLogToaster(log *slog.Logger) *LogToaster {
	return &LogToaster{log: log}
}

func (t *LogToaster) Toast(n model.Notification, d time.Duration) {
	level := slog.LevelInfo
	switch n.Type {
	case model.NotificationWarning:
		level = slog.LevelWarn
	case model.NotificationError:
		level = slog.LevelError
	}

	t.log.Log(context.Background(), level, n.Title,
		slog.String("message", n.Message),
		slog.String("type", string(n.Type)),
		slog.Duration("duration", d))
}
