package notifications

import (
	"aclue/internal/model"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

const notificationsPath = "/api/notifications"

// Poll fetches server notifications once and merges them into the list.
func (m *Manager) Poll(ctx context.Context) error {
	var records []json.RawMessage
	if err := m.backend.Get(ctx, notificationsPath, &records); err != nil {
		return fmt.Errorf("poll notifications: %w", err)
	}

	incoming := m.decodeRecords(records)
	if len(incoming) == 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	before := len(m.items)
	m.items = Merge(m.items, incoming)
	m.persist(ctx)

	m.log.Debug("notifications polled",
		slog.Int("received", len(incoming)),
		slog.Int("before", before),
		slog.Int("after", len(m.items)))

	return nil
}

// decodeRecords skips records that cannot be decoded or carry no id.
func (m *Manager) decodeRecords(records []json.RawMessage) []model.Notification {
	out := make([]model.Notification, 0, len(records))
	for _, raw := range records {
		var n model.Notification
		if err := json.Unmarshal(raw, &n); err != nil {
			m.log.Warn("skipping malformed server notification", slog.String("error", err.Error()))
			continue
		}
		if n.ID == "" {
			m.log.Warn("skipping server notification without id")
			continue
		}
		out = append(out, n)
	}
	return out
}

// Run polls every interval until ctx is done. Failures are logged only.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.log.Info("notification polling started", slog.Duration("interval", m.interval))

	for {
		select {
		case <-ctx.Done():
			m.log.Info("notification polling stopped")
			return
		case <-ticker.C:
			if err := m.Poll(ctx); err != nil {
				m.log.Debug("notification poll failed", slog.String("error", err.Error()))
			}
		}
	}
}
