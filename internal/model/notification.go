package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

type NotificationType string

const (
	NotificationInfo    NotificationType = "info"
	NotificationSuccess NotificationType = "success"
	NotificationWarning NotificationType = "warning"
	NotificationError   NotificationType = "error"
)

type Notification struct {
	ID          string           `json:"id"`
	Type        NotificationType `json:"type"`
	Title       string           `json:"title"`
	Message     string           `json:"message"`
	Timestamp   time.Time        `json:"timestamp"`
	Read        bool             `json:"read"`
	ActionURL   string           `json:"actionUrl,omitempty"`
	ActionLabel string           `json:"actionLabel,omitempty"`
	UserID      string           `json:"userId,omitempty"`
	Metadata    map[string]any   `json:"metadata,omitempty"`
}

// UnmarshalJSON accepts the timestamp forms backends send: RFC 3339, ISO
// 8601 without a zone (taken as UTC) and unix milliseconds.
func (n *Notification) UnmarshalJSON(b []byte) error {
	type plain Notification
	aux := struct {
		*plain
		Timestamp json.RawMessage `json:"timestamp"`
	}{plain: (*plain)(n)}

	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}

	ts, err := parseTimestamp(aux.Timestamp)
	if err != nil {
		return fmt.Errorf("notification %s: %w", n.ID, err)
	}
	n.Timestamp = ts
	return nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

func parseTimestamp(raw json.RawMessage) (time.Time, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return time.Time{}, nil
	}

	if raw[0] != '"' {
		ms, err := strconv.ParseInt(string(raw), 10, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("timestamp %s: %w", raw, err)
		}
		return time.UnixMilli(ms).UTC(), nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}, err
	}
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// NotificationInput carries the caller-supplied fields of a new notification.
type NotificationInput struct {
	Type        NotificationType `json:"type" validate:"omitempty,oneof=info success warning error"`
	Title       string           `json:"title"`
	Message     string           `json:"message"`
	ActionURL   string           `json:"actionUrl,omitempty" validate:"omitempty,uri"`
	ActionLabel string           `json:"actionLabel,omitempty"`
	UserID      string           `json:"userId,omitempty"`
	Metadata    map[string]any   `json:"metadata,omitempty"`
}

// Permission mirrors the platform notification permission states.
type Permission string

const (
	PermissionDefault Permission = "default"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

type PushKeys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

// PushSubscription is the JSON form of a platform push subscription.
type PushSubscription struct {
	Endpoint       string   `json:"endpoint"`
	ExpirationTime *int64   `json:"expirationTime"`
	Keys           PushKeys `json:"keys"`
}
