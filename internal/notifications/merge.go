package notifications

import (
	"aclue/internal/model"
	"slices"
)

// Merge adds the incoming notifications whose id is not already known, newest
// first, keeping at most MaxNotifications. Neither input is modified.
func Merge(existing, incoming []model.Notification) []model.Notification {
	seen := make(map[string]struct{}, len(existing)+len(incoming))
	for _, n := range existing {
		seen[n.ID] = struct{}{}
	}

	out := make([]model.Notification, 0, len(existing)+len(incoming))
	for _, n := range incoming {
		if _, ok := seen[n.ID]; ok {
			continue
		}
		seen[n.ID] = struct{}{}
		out = append(out, n)
	}
	out = append(out, existing...)

	slices.SortStableFunc(out, func(a, b model.Notification) int {
		return b.Timestamp.Compare(a.Timestamp)
	})

	if len(out) > MaxNotifications {
		out = out[:MaxNotifications]
	}
	return out
}
