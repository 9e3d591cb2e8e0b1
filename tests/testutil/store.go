package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/campus-companion/internal/model"
	"github.com/nhle/campus-companion/internal/store"
)

// NewTestStore creates an in-memory SQLite store with all migrations
// applied. It automatically closes the store when the test completes.
func NewTestStore(t *testing.T) *store.SQLStore {
	t.Helper()

	s, err := store.NewSQLStore("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// Deliver creates a notification from the template and targets it at
// userID, returning the notification id.
func Deliver(t *testing.T, s *store.SQLStore, userID string, n model.Notification) string {
	t.Helper()

	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.Title == "" {
		n.Title = "test notification"
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	ctx := context.Background()
	id, err := s.CreateNotification(ctx, n)
	if err != nil {
		t.Fatalf("creating notification: %v", err)
	}
	if err := s.AddDelivery(ctx, id, userID); err != nil {
		t.Fatalf("adding delivery: %v", err)
	}

	return id
}
