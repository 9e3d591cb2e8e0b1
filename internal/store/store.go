package store

import (
	"context"

	"github.com/nhle/campus-companion/internal/model"
)

// Store defines the persistence contract against the hosted backend for
// notification content and per-user delivery records.
//
// Read operations apply the eligibility gate (published, unexpired) at
// the wall-clock time of the call. All methods return errors; the
// fail-silent policy the UI relies on lives one layer up, in the
// notify package.
type Store interface {
	// LoadNotifications returns the newest eligible notifications
	// delivered to userID, joined with their delivery records, capped
	// at limit.
	LoadNotifications(ctx context.Context, userID string, limit int) ([]model.Notification, error)

	// UnreadCount returns the number of unread, eligible deliveries
	// for userID.
	UnreadCount(ctx context.Context, userID string) (int, error)

	// MarkRead marks a single delivery read. Marking an already-read
	// delivery succeeds trivially.
	MarkRead(ctx context.Context, notificationID, userID string) error

	// MarkAllRead marks the given deliveries read in one statement.
	// An empty id set is a no-op that succeeds.
	MarkAllRead(ctx context.Context, userID string, notificationIDs []string) error

	// CreateNotification inserts notification content and returns its
	// id. Used by the admin publisher and by tests; the student client
	// never creates content.
	CreateNotification(ctx context.Context, n model.Notification) (string, error)

	// AddDelivery targets an existing notification at a user.
	AddDelivery(ctx context.Context, notificationID, userID string) error

	// Close releases the underlying database connection.
	Close() error
}
