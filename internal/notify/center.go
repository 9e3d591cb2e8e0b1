package notify

import (
	"context"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/nhle/campus-companion/internal/model"
	"github.com/nhle/campus-companion/internal/realtime"
)

const (
	// MaxPopups caps the popup queue; pushing beyond it evicts the
	// oldest entries.
	MaxPopups = 3

	// checkLimit is how many recent notifications each check fetches.
	checkLimit = 10

	// defaultPollInterval is how often the check loop runs while a
	// user is signed in.
	defaultPollInterval = 30 * time.Second

	// defaultDismissAfter is how long a non-urgent popup stays on
	// screen before it is auto-dismissed.
	defaultDismissAfter = 8 * time.Second
)

// PopupsChangedMsg is a tea.Msg carrying a snapshot of the popup queue,
// newest first.
type PopupsChangedMsg struct {
	Popups []model.PopupNotification
}

// UnreadCountMsg is a tea.Msg carrying the latest unread count.
type UnreadCountMsg struct {
	Count int
}

// Center is the session-scoped notification state machine. It owns the
// unread count, the bounded popup queue, and the last-checked
// watermark, and it is the only writer of all three.
//
// Two event sources feed the same check routine: a periodic ticker and
// the backend's realtime insert feed. Both merely trigger a re-derive
// from backend state, so duplicate or out-of-order triggers are
// harmless. Backend failures are logged and treated as "no change".
type Center struct {
	fetcher *Fetcher
	events  <-chan realtime.Event
	log     *logrus.Entry

	pollInterval time.Duration
	dismissAfter time.Duration

	mu          sync.Mutex
	userID      string
	unread      int
	popups      []model.PopupNotification
	lastChecked time.Time
	timers      map[string]*time.Timer
	running     bool

	msgCh     chan tea.Msg
	triggerCh chan struct{}
	stopCh    chan struct{}
}

// NewCenter creates a Center over the given fetcher. events may be nil
// when no realtime feed is available; the poll loop then stands alone.
func NewCenter(f *Fetcher, events <-chan realtime.Event, log *logrus.Logger) *Center {
	return &Center{
		fetcher:      f,
		events:       events,
		log:          log.WithField("component", "notify.center"),
		pollInterval: defaultPollInterval,
		dismissAfter: defaultDismissAfter,
		timers:       make(map[string]*time.Timer),
		msgCh:        make(chan tea.Msg, 16),
		triggerCh:    make(chan struct{}, 16),
	}
}

// SetPollInterval overrides the periodic check interval. It must be
// called before Start.
func (c *Center) SetPollInterval(d time.Duration) {
	if d > 0 {
		c.pollInterval = d
	}
}

// Start launches the check loop and returns a command that subscribes
// the UI to state snapshots. Calling Start on a running Center is a
// no-op; a stopped Center can be started again.
func (c *Center) Start() tea.Cmd {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return nil
	}
	c.running = true
	c.stopCh = make(chan struct{})
	stopCh := c.stopCh
	c.mu.Unlock()

	go c.run(stopCh)

	return c.waitForMsg()
}

// Stop halts the check loop and cancels all pending dismiss timers.
// In-flight backend calls are not cancelled; their results are dropped.
func (c *Center) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return
	}
	close(c.stopCh)
	c.running = false
	c.cancelTimersLocked()
}

// SignIn binds the center to a user and nudges an immediate check. The
// watermark starts at the sign-in instant, so only notifications
// created afterwards produce popups; the existing backlog is surfaced
// through the unread count and the list view.
func (c *Center) SignIn(userID string) {
	c.mu.Lock()
	c.userID = userID
	c.lastChecked = time.Now()
	c.mu.Unlock()

	c.Trigger()
}

// SignOut clears all session state: the unread count drops to zero, the
// popup queue empties, and every dismiss timer is cancelled. Nothing is
// persisted or restored.
func (c *Center) SignOut() {
	c.mu.Lock()
	c.userID = ""
	c.unread = 0
	c.popups = nil
	c.cancelTimersLocked()
	c.mu.Unlock()

	c.emit(UnreadCountMsg{Count: 0})
	c.emit(PopupsChangedMsg{Popups: nil})
}

// Trigger requests an out-of-band check, the same way a realtime event
// does. It never blocks; a full trigger queue means a check is already
// pending.
func (c *Center) Trigger() {
	select {
	case c.triggerCh <- struct{}{}:
	default:
	}
}

// run is the single state-update loop. The ticker, the realtime feed,
// and manual triggers all converge here so popup and count state is
// only ever re-derived in one place.
func (c *Center) run(stopCh <-chan struct{}) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			c.Check(context.Background())
		case <-c.triggerCh:
			c.Check(context.Background())
		case ev, ok := <-c.events:
			if !ok {
				// Realtime feed closed; keep polling.
				c.events = nil
				continue
			}
			if ev.UserID == c.CurrentUser() {
				c.Check(context.Background())
			}
		}
	}
}

// Check fetches the user's most recent notifications, pushes unread
// ones created after the watermark as popups, advances the watermark,
// and refreshes the unread count. With no signed-in user it does
// nothing.
func (c *Center) Check(ctx context.Context) {
	userID := c.CurrentUser()
	if userID == "" {
		return
	}

	notifications := c.fetcher.LoadNotifications(ctx, userID, checkLimit)
	now := time.Now()

	c.mu.Lock()
	if c.userID != userID {
		// Signed out (or switched) while the fetch was in flight.
		c.mu.Unlock()
		return
	}
	changed := false
	// Results arrive newest-first; push oldest-first so the newest
	// notification ends up at the head of the queue.
	for i := len(notifications) - 1; i >= 0; i-- {
		n := notifications[i]
		if n.IsRead || !n.CreatedAt.After(c.lastChecked) {
			continue
		}
		if c.pushPopupLocked(n) {
			changed = true
		}
	}
	c.lastChecked = now
	popups := c.snapshotLocked()
	c.mu.Unlock()

	if changed {
		c.emit(PopupsChangedMsg{Popups: popups})
	}

	c.RefreshCount(ctx)
}

// RefreshCount re-queries the unread count and publishes it. The count
// is always re-derived from the backend; the popup queue never feeds
// it.
func (c *Center) RefreshCount(ctx context.Context) {
	userID := c.CurrentUser()
	if userID == "" {
		return
	}

	count := c.fetcher.UnreadCount(ctx, userID)

	c.mu.Lock()
	if c.userID != userID {
		c.mu.Unlock()
		return
	}
	c.unread = count
	c.mu.Unlock()

	c.emit(UnreadCountMsg{Count: count})
}

// pushPopupLocked queues a notification for popup display. Pushing an
// id that is already queued is a no-op. The queue is truncated to
// MaxPopups, cancelling the timers of evicted entries, and non-urgent
// popups get an auto-dismiss timer keyed by id. Caller holds c.mu.
func (c *Center) pushPopupLocked(n model.Notification) bool {
	for _, p := range c.popups {
		if p.ID == n.ID {
			return false
		}
	}

	popup := model.PopupNotification{Notification: n, ShowAsPopup: true}
	c.popups = append([]model.PopupNotification{popup}, c.popups...)

	if len(c.popups) > MaxPopups {
		for _, evicted := range c.popups[MaxPopups:] {
			c.cancelTimerLocked(evicted.ID)
		}
		c.popups = c.popups[:MaxPopups]
	}

	// Urgent popups stay until the user acts on them.
	if n.Priority != model.PriorityUrgent {
		id := n.ID
		c.timers[id] = time.AfterFunc(c.dismissAfter, func() {
			c.Dismiss(id)
		})
	}

	return true
}

// Dismiss removes a popup by id without marking it read: the
// notification stays unread, remains counted, and reappears in the
// list view. Dismissing an unknown id is a no-op.
func (c *Center) Dismiss(id string) {
	c.mu.Lock()
	c.cancelTimerLocked(id)
	removed := false
	for i, p := range c.popups {
		if p.ID == id {
			c.popups = append(c.popups[:i], c.popups[i+1:]...)
			removed = true
			break
		}
	}
	popups := c.snapshotLocked()
	c.mu.Unlock()

	if removed {
		c.emit(PopupsChangedMsg{Popups: popups})
	}
}

// MarkReadAndDismiss writes the read state through to the backend. Only
// on success is the popup removed and the unread count refreshed; on
// failure the popup stays in place and the next tap retries.
func (c *Center) MarkReadAndDismiss(ctx context.Context, id string) bool {
	userID := c.CurrentUser()
	if userID == "" {
		return false
	}

	if !c.fetcher.MarkRead(ctx, id, userID) {
		return false
	}

	c.Dismiss(id)
	c.RefreshCount(ctx)
	return true
}

// MarkAllRead writes read state for the given ids through to the
// backend and refreshes the unread count on success.
func (c *Center) MarkAllRead(ctx context.Context, ids []string) bool {
	userID := c.CurrentUser()
	if userID == "" {
		return false
	}

	if !c.fetcher.MarkAllRead(ctx, userID, ids) {
		return false
	}

	c.RefreshCount(ctx)
	return true
}

// MarkReadAndDismissCmd wraps MarkReadAndDismiss for the Bubble Tea
// runtime; resulting state changes arrive as Center messages.
func (c *Center) MarkReadAndDismissCmd(id string) tea.Cmd {
	return func() tea.Msg {
		c.MarkReadAndDismiss(context.Background(), id)
		return nil
	}
}

// MarkAllReadCmd wraps MarkAllRead for the Bubble Tea runtime.
func (c *Center) MarkAllReadCmd(ids []string) tea.Cmd {
	return func() tea.Msg {
		c.MarkAllRead(context.Background(), ids)
		return nil
	}
}

// CurrentUser returns the signed-in user id, or "" when signed out.
func (c *Center) CurrentUser() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID
}

// UnreadCount returns the last published unread count.
func (c *Center) UnreadCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.unread
}

// Popups returns a snapshot of the popup queue, newest first.
func (c *Center) Popups() []model.PopupNotification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// snapshotLocked copies the popup queue. Caller holds c.mu.
func (c *Center) snapshotLocked() []model.PopupNotification {
	popups := make([]model.PopupNotification, len(c.popups))
	copy(popups, c.popups)
	return popups
}

// cancelTimerLocked stops and forgets the dismiss timer for id, if any.
// Caller holds c.mu.
func (c *Center) cancelTimerLocked(id string) {
	if t, ok := c.timers[id]; ok {
		t.Stop()
		delete(c.timers, id)
	}
}

// cancelTimersLocked stops every pending dismiss timer. Caller holds
// c.mu.
func (c *Center) cancelTimersLocked() {
	for id, t := range c.timers {
		t.Stop()
		delete(c.timers, id)
	}
}

// emit publishes a message to the UI without blocking. Dropping is safe:
// every message is a full snapshot, so the next one supersedes it.
func (c *Center) emit(msg tea.Msg) {
	select {
	case c.msgCh <- msg:
	default:
	}
}

// waitForMsg returns a command that waits for the next Center message.
func (c *Center) waitForMsg() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-c.msgCh
		if !ok {
			return nil
		}
		return msg
	}
}

// WaitForNext returns a command that waits for the next Center message.
// The UI should re-issue it after handling each one to keep listening.
func (c *Center) WaitForNext() tea.Cmd {
	return c.waitForMsg()
}
