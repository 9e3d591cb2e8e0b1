package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/campus-companion/internal/model"
	"github.com/nhle/campus-companion/tests/testutil"
)

const userID = "s1000001"

func TestLoadNotificationsExcludesExpired(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	expired := testutil.Deliver(t, s, userID, model.Notification{
		Title:       "expired",
		IsPublished: true,
		ExpiresAt:   &past,
	})
	live := testutil.Deliver(t, s, userID, model.Notification{
		Title:       "live",
		IsPublished: true,
		ExpiresAt:   &future,
	})

	// Expiry excludes a notification even once it has been read.
	require.NoError(t, s.MarkRead(ctx, expired, userID))

	notifications, err := s.LoadNotifications(ctx, userID, 10)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, live, notifications[0].ID)

	count, err := s.UnreadCount(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestLoadNotificationsExcludesUnpublished(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	testutil.Deliver(t, s, userID, model.Notification{
		Title:       "draft",
		IsPublished: false,
	})
	published := testutil.Deliver(t, s, userID, model.Notification{
		Title:       "published",
		IsPublished: true,
	})

	notifications, err := s.LoadNotifications(ctx, userID, 10)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, published, notifications[0].ID)

	count, err := s.UnreadCount(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestLoadNotificationsNewestFirst(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	var ids []string
	for i := 0; i < 5; i++ {
		id := testutil.Deliver(t, s, userID, model.Notification{
			IsPublished: true,
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		})
		ids = append(ids, id)
	}

	notifications, err := s.LoadNotifications(ctx, userID, 10)
	require.NoError(t, err)
	require.Len(t, notifications, 5)

	for i, n := range notifications {
		// Newest first: position 0 holds the last created id.
		assert.Equal(t, ids[len(ids)-1-i], n.ID)
		if i > 0 {
			assert.False(t, n.CreatedAt.After(notifications[i-1].CreatedAt))
		}
	}
}

func TestLoadNotificationsLimit(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		testutil.Deliver(t, s, userID, model.Notification{IsPublished: true})
	}

	notifications, err := s.LoadNotifications(ctx, userID, 3)
	require.NoError(t, err)
	assert.Len(t, notifications, 3)
}

func TestLoadNotificationsScopedToUser(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	testutil.Deliver(t, s, "someone-else", model.Notification{IsPublished: true})

	notifications, err := s.LoadNotifications(ctx, userID, 10)
	require.NoError(t, err)
	assert.Empty(t, notifications)

	count, err := s.UnreadCount(ctx, userID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestMarkReadDecrementsCount(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	first := testutil.Deliver(t, s, userID, model.Notification{IsPublished: true})
	testutil.Deliver(t, s, userID, model.Notification{IsPublished: true})

	count, err := s.UnreadCount(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	require.NoError(t, s.MarkRead(ctx, first, userID))

	count, err = s.UnreadCount(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Marking an already-read notification succeeds trivially.
	require.NoError(t, s.MarkRead(ctx, first, userID))
	count, err = s.UnreadCount(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMarkReadSetsReadAt(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	id := testutil.Deliver(t, s, userID, model.Notification{IsPublished: true})
	require.NoError(t, s.MarkRead(ctx, id, userID))

	notifications, err := s.LoadNotifications(ctx, userID, 10)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.True(t, notifications[0].IsRead)
	require.NotNil(t, notifications[0].ReadAt)
	assert.WithinDuration(t, time.Now(), *notifications[0].ReadAt, time.Minute)
}

func TestMarkAllReadEmptySetIsNoOp(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	testutil.Deliver(t, s, userID, model.Notification{IsPublished: true})

	require.NoError(t, s.MarkAllRead(ctx, userID, nil))

	count, err := s.UnreadCount(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMarkAllReadSubset(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	first := testutil.Deliver(t, s, userID, model.Notification{IsPublished: true})
	second := testutil.Deliver(t, s, userID, model.Notification{IsPublished: true})
	testutil.Deliver(t, s, userID, model.Notification{IsPublished: true})

	require.NoError(t, s.MarkAllRead(ctx, userID, []string{first, second}))

	count, err := s.UnreadCount(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestExpiryEvaluatedAtQueryTime(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	// Created at T with expires_at = T+1h; "querying" at T+2h is
	// simulated by an expiry already in the past.
	expiry := time.Now().Add(-time.Hour)
	testutil.Deliver(t, s, userID, model.Notification{
		Title:       "stale exam reminder",
		Type:        model.TypeExamReminder,
		IsPublished: true,
		CreatedAt:   time.Now().Add(-2 * time.Hour),
		ExpiresAt:   &expiry,
	})

	notifications, err := s.LoadNotifications(ctx, userID, 10)
	require.NoError(t, err)
	assert.Empty(t, notifications)

	count, err := s.UnreadCount(ctx, userID)
	require.NoError(t, err)
	assert.Zero(t, count)
}
