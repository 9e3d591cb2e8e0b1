package notify

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/nhle/campus-companion/internal/model"
	"github.com/nhle/campus-companion/internal/store"
)

// Fetcher wraps the store with the notification subsystem's fail-silent
// policy: read failures degrade to an empty result or zero count, write
// failures report false, and every failure is logged rather than
// propagated. Callers cannot distinguish "no data" from "error"; the
// feature is best-effort and never surfaces errors to the user.
type Fetcher struct {
	store store.Store
	log   *logrus.Entry
}

// NewFetcher creates a Fetcher over the given store.
func NewFetcher(s store.Store, log *logrus.Logger) *Fetcher {
	return &Fetcher{
		store: s,
		log:   log.WithField("component", "notify"),
	}
}

// LoadNotifications returns up to limit of the user's newest eligible
// notifications, or an empty list on any backend error.
func (f *Fetcher) LoadNotifications(ctx context.Context, userID string, limit int) []model.Notification {
	notifications, err := f.store.LoadNotifications(ctx, userID, limit)
	if err != nil {
		f.log.WithError(err).WithField("user_id", userID).
			Warn("loading notifications failed")
		return nil
	}
	return notifications
}

// UnreadCount returns the user's unread eligible notification count,
// or zero on any backend error.
func (f *Fetcher) UnreadCount(ctx context.Context, userID string) int {
	count, err := f.store.UnreadCount(ctx, userID)
	if err != nil {
		f.log.WithError(err).WithField("user_id", userID).
			Warn("counting unread notifications failed")
		return 0
	}
	return count
}

// MarkRead marks a single notification read and reports success.
func (f *Fetcher) MarkRead(ctx context.Context, notificationID, userID string) bool {
	if err := f.store.MarkRead(ctx, notificationID, userID); err != nil {
		f.log.WithError(err).WithField("notification_id", notificationID).
			Warn("marking notification read failed")
		return false
	}
	return true
}

// MarkAllRead marks the given notifications read in bulk and reports
// success. An empty id set succeeds without a backend round trip.
func (f *Fetcher) MarkAllRead(ctx context.Context, userID string, notificationIDs []string) bool {
	if len(notificationIDs) == 0 {
		return true
	}
	if err := f.store.MarkAllRead(ctx, userID, notificationIDs); err != nil {
		f.log.WithError(err).WithField("count", len(notificationIDs)).
			Warn("marking notifications read failed")
		return false
	}
	return true
}
