package notify

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/campus-companion/internal/model"
	"github.com/nhle/campus-companion/internal/realtime"
	"github.com/nhle/campus-companion/tests/testutil"
)

const userID = "s1000001"

// newTestCenter wires a Center to an in-memory store. The check loop is
// not started; tests drive Check directly.
func newTestCenter(t *testing.T) (*Center, *fixtureStore) {
	t.Helper()

	s := testutil.NewTestStore(t)
	c := NewCenter(NewFetcher(s, quietLogger()), nil, quietLogger())
	return c, &fixtureStore{t: t, store: s}
}

// fixtureStore seeds deliveries with created_at stamps safely after the
// center's sign-in watermark.
type fixtureStore struct {
	t     *testing.T
	store interface {
		CreateNotification(ctx context.Context, n model.Notification) (string, error)
		AddDelivery(ctx context.Context, notificationID, userID string) error
	}
	seq int
}

// deliver creates and targets a published notification created the
// given offset from now.
func (f *fixtureStore) deliver(offset time.Duration, priority model.Priority) string {
	f.t.Helper()
	f.seq++

	ctx := context.Background()
	id, err := f.store.CreateNotification(ctx, model.Notification{
		Title:       fmt.Sprintf("notification %d", f.seq),
		Priority:    priority,
		IsPublished: true,
		CreatedAt:   time.Now().Add(offset),
	})
	require.NoError(f.t, err)
	require.NoError(f.t, f.store.AddDelivery(ctx, id, userID))

	return id
}

func popupIDs(c *Center) []string {
	var ids []string
	for _, p := range c.Popups() {
		ids = append(ids, p.ID)
	}
	return ids
}

func TestCheckPushesNewUnreadAsPopups(t *testing.T) {
	c, fs := newTestCenter(t)
	ctx := context.Background()

	c.SignIn(userID)
	id := fs.deliver(time.Second, model.PriorityNormal)

	c.Check(ctx)

	require.Len(t, c.Popups(), 1)
	assert.Equal(t, id, c.Popups()[0].ID)
	assert.True(t, c.Popups()[0].ShowAsPopup)
	assert.Equal(t, 1, c.UnreadCount())
}

func TestCheckIgnoresNotificationsBeforeSignIn(t *testing.T) {
	c, fs := newTestCenter(t)
	ctx := context.Background()

	fs.deliver(-time.Minute, model.PriorityNormal)
	c.SignIn(userID)

	c.Check(ctx)

	// The backlog never pops up, but it still counts as unread.
	assert.Empty(t, c.Popups())
	assert.Equal(t, 1, c.UnreadCount())
}

func TestPushDedupesByID(t *testing.T) {
	c, fs := newTestCenter(t)
	ctx := context.Background()

	c.SignIn(userID)
	// Created far enough ahead that it stays past the watermark across
	// both checks.
	id := fs.deliver(time.Minute, model.PriorityNormal)

	c.Check(ctx)
	c.Check(ctx)

	require.Len(t, c.Popups(), 1)
	assert.Equal(t, id, c.Popups()[0].ID)
}

func TestQueueCappedAtThreeOldestEvicted(t *testing.T) {
	c, fs := newTestCenter(t)
	ctx := context.Background()

	c.SignIn(userID)
	oldest := fs.deliver(time.Second, model.PriorityNormal)
	second := fs.deliver(2*time.Second, model.PriorityNormal)
	third := fs.deliver(3*time.Second, model.PriorityNormal)
	newest := fs.deliver(4*time.Second, model.PriorityNormal)

	c.Check(ctx)

	ids := popupIDs(c)
	require.Len(t, ids, MaxPopups)
	assert.Equal(t, []string{newest, third, second}, ids)
	assert.NotContains(t, ids, oldest)
}

func TestUrgentPopupNeverAutoDismissed(t *testing.T) {
	c, fs := newTestCenter(t)
	c.dismissAfter = 20 * time.Millisecond
	ctx := context.Background()

	c.SignIn(userID)
	urgent := fs.deliver(time.Second, model.PriorityUrgent)
	fs.deliver(2*time.Second, model.PriorityNormal)

	c.Check(ctx)
	require.Len(t, c.Popups(), 2)

	time.Sleep(100 * time.Millisecond)

	ids := popupIDs(c)
	require.Len(t, ids, 1)
	assert.Equal(t, urgent, ids[0])
}

func TestDismissRemovesWithoutMarkingRead(t *testing.T) {
	c, fs := newTestCenter(t)
	ctx := context.Background()

	c.SignIn(userID)
	id := fs.deliver(time.Second, model.PriorityNormal)

	c.Check(ctx)
	require.Len(t, c.Popups(), 1)

	c.Dismiss(id)
	c.RefreshCount(ctx)

	assert.Empty(t, c.Popups())
	// Dismissed-but-unread stays counted.
	assert.Equal(t, 1, c.UnreadCount())
}

func TestMarkReadAndDismiss(t *testing.T) {
	c, fs := newTestCenter(t)
	ctx := context.Background()

	c.SignIn(userID)
	id := fs.deliver(time.Second, model.PriorityNormal)

	c.Check(ctx)
	require.Equal(t, 1, c.UnreadCount())

	assert.True(t, c.MarkReadAndDismiss(ctx, id))
	assert.Empty(t, c.Popups())
	assert.Zero(t, c.UnreadCount())
}

func TestMarkReadFailureLeavesPopupInPlace(t *testing.T) {
	c := NewCenter(NewFetcher(errStore{}, quietLogger()), nil, quietLogger())
	c.SignIn(userID)

	// Seed a popup directly; the backend is unreachable.
	c.mu.Lock()
	c.pushPopupLocked(model.Notification{
		ID:          "n1",
		Title:       "unreachable",
		Priority:    model.PriorityUrgent,
		IsPublished: true,
		CreatedAt:   time.Now(),
	})
	c.mu.Unlock()

	assert.False(t, c.MarkReadAndDismiss(context.Background(), "n1"))
	assert.Len(t, c.Popups(), 1)
}

func TestSignOutClearsSessionState(t *testing.T) {
	c, fs := newTestCenter(t)
	ctx := context.Background()

	c.SignIn(userID)
	fs.deliver(time.Second, model.PriorityNormal)
	fs.deliver(2*time.Second, model.PriorityNormal)

	c.Check(ctx)
	require.Len(t, c.Popups(), 2)
	require.Equal(t, 2, c.UnreadCount())

	c.SignOut()

	assert.Empty(t, c.Popups())
	assert.Zero(t, c.UnreadCount())

	// Checks after sign-out are no-ops.
	c.Check(ctx)
	assert.Empty(t, c.Popups())
}

func TestRealtimeEventTriggersCheckForCurrentUserOnly(t *testing.T) {
	s := testutil.NewTestStore(t)
	events := make(chan realtime.Event, 2)
	c := NewCenter(NewFetcher(s, quietLogger()), events, quietLogger())
	// Park the ticker so only realtime events drive the loop.
	c.SetPollInterval(time.Hour)
	fs := &fixtureStore{t: t, store: s}

	wait := c.Start()
	defer c.Stop()

	c.SignIn(userID)
	// The sign-in check has finished once its count snapshot arrives.
	_, ok := wait().(UnreadCountMsg)
	require.True(t, ok)

	id := fs.deliver(time.Second, model.PriorityNormal)

	// Someone else's delivery never reaches this session.
	events <- realtime.Event{UserID: "someone-else", NotificationID: id}
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, c.Popups())

	events <- realtime.Event{UserID: userID, NotificationID: id}
	assert.Eventually(t, func() bool {
		popups := c.Popups()
		return len(popups) == 1 && popups[0].ID == id
	}, time.Second, 10*time.Millisecond)
}

func TestClosedRealtimeFeedLeavesLoopRunning(t *testing.T) {
	s := testutil.NewTestStore(t)
	events := make(chan realtime.Event)
	c := NewCenter(NewFetcher(s, quietLogger()), events, quietLogger())
	c.SetPollInterval(time.Hour)
	fs := &fixtureStore{t: t, store: s}

	wait := c.Start()
	defer c.Stop()

	c.SignIn(userID)
	_, ok := wait().(UnreadCountMsg)
	require.True(t, ok)

	close(events)

	id := fs.deliver(time.Second, model.PriorityNormal)
	c.Trigger()

	assert.Eventually(t, func() bool {
		popups := c.Popups()
		return len(popups) == 1 && popups[0].ID == id
	}, time.Second, 10*time.Millisecond)
}

func TestStartAfterStopResumesChecks(t *testing.T) {
	c, fs := newTestCenter(t)
	c.SetPollInterval(time.Hour)

	wait := c.Start()
	c.SignIn(userID)
	_, ok := wait().(UnreadCountMsg)
	require.True(t, ok)

	c.Stop()

	require.NotNil(t, c.Start())
	defer c.Stop()

	id := fs.deliver(time.Second, model.PriorityNormal)
	c.Trigger()

	assert.Eventually(t, func() bool {
		popups := c.Popups()
		return len(popups) == 1 && popups[0].ID == id
	}, time.Second, 10*time.Millisecond)
}

func TestCheckWithoutUserIsNoOp(t *testing.T) {
	c, fs := newTestCenter(t)
	fs.deliver(time.Second, model.PriorityNormal)

	c.Check(context.Background())

	assert.Empty(t, c.Popups())
	assert.Zero(t, c.UnreadCount())
}
