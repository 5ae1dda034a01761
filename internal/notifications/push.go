package notifications

import (
	"aclue/internal/model"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
)

const (
	subscribePath   = "/api/notifications/subscribe"
	unsubscribePath = "/api/notifications/unsubscribe"
)

func (m *Manager) RequestPermission(ctx context.Context) (model.Permission, error) {
	if m.platform == nil || !m.platform.Supported() {
		return model.PermissionDenied, ErrNotSupported
	}
	return m.platform.RequestPermission(ctx)
}

// Subscribe registers with the push service and relays the subscription to
// the backend. A failure is also shown to the user as an error notification.
func (m *Manager) Subscribe(ctx context.Context) (*model.PushSubscription, error) {
	sub, err := m.subscribe(ctx)
	if err != nil {
		m.log.Error("push subscribe failed", slog.String("error", err.Error()))
		m.reportFailure(ctx, "Subscription failed", "Could not enable push notifications.", err)
		return nil, err
	}

	m.log.Info("push subscription registered")
	return sub, nil
}

func (m *Manager) subscribe(ctx context.Context) (*model.PushSubscription, error) {
	if m.push == nil {
		return nil, ErrNotSupported
	}

	sub, err := m.push.Subscribe(ctx)
	if err != nil {
		return nil, fmt.Errorf("push subscribe: %w", err)
	}
	if _, err := m.backend.Post(ctx, subscribePath, sub); err != nil {
		return nil, fmt.Errorf("relay subscription: %w", err)
	}
	return sub, nil
}

// Unsubscribe drops the current push subscription, if any, and tells the
// backend to forget its endpoint.
func (m *Manager) Unsubscribe(ctx context.Context) error {
	if err := m.unsubscribe(ctx); err != nil {
		m.log.Error("push unsubscribe failed", slog.String("error", err.Error()))
		m.reportFailure(ctx, "Unsubscribe failed", "Could not disable push notifications.", err)
		return err
	}
	return nil
}

func (m *Manager) unsubscribe(ctx context.Context) error {
	if m.push == nil {
		return ErrNotSupported
	}

	sub, err := m.push.Current(ctx)
	if err != nil {
		return fmt.Errorf("push subscription lookup: %w", err)
	}
	if sub == nil {
		return nil
	}

	if err := m.push.Unsubscribe(ctx, sub); err != nil {
		return fmt.Errorf("push unsubscribe: %w", err)
	}
	if _, err := m.backend.Post(ctx, unsubscribePath, map[string]string{"endpoint": sub.Endpoint}); err != nil {
		return fmt.Errorf("relay unsubscribe: %w", err)
	}

	m.log.Info("push subscription removed")
	return nil
}

func (m *Manager) reportFailure(ctx context.Context, title, message string, cause error) {
	if _, err := m.Show(ctx, model.NotificationInput{
		Type:     model.NotificationError,
		Title:    title,
		Message:  message,
		Metadata: map[string]any{"error": cause.Error()},
	}); err != nil {
		m.log.Error("failed to show error notification", slog.String("error", err.Error()))
	}
}

// pushPayload accepts the field names used by the different push senders.
type pushPayload struct {
	Title       string                 `json:"title"`
	Message     string                 `json:"message"`
	Body        string                 `json:"body"`
	Type        model.NotificationType `json:"type"`
	ActionURL   string                 `json:"actionUrl"`
	URL         string                 `json:"url"`
	ActionLabel string                 `json:"actionLabel"`
	UserID      string                 `json:"userId"`
	Metadata    map[string]any         `json:"metadata"`
}

var errEmptyPush = errors.New("push payload has neither title nor message")

// HandlePush turns a push message into a notification through Show.
func (m *Manager) HandlePush(ctx context.Context, payload []byte) (model.Notification, error) {
	var p pushPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		m.log.Warn("malformed push payload", slog.String("error", err.Error()))
		return model.Notification{}, fmt.Errorf("decode push payload: %w", err)
	}
	if p.Title == "" && p.Message == "" && p.Body == "" {
		return model.Notification{}, errEmptyPush
	}

	in := model.NotificationInput{
		Type:        p.Type,
		Title:       p.Title,
		Message:     p.Message,
		ActionURL:   p.ActionURL,
		ActionLabel: p.ActionLabel,
		UserID:      p.UserID,
		Metadata:    p.Metadata,
	}
	if in.Message == "" {
		in.Message = p.Body
	}
	if in.ActionURL == "" {
		in.ActionURL = p.URL
	}

	switch in.Type {
	case model.NotificationInfo, model.NotificationSuccess, model.NotificationWarning, model.NotificationError:
	default:
		in.Type = model.NotificationInfo
	}

	return m.Show(ctx, in)
}
