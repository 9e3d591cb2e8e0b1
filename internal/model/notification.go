package model

import "time"

// NotificationType categorizes a notification. The type drives icon
// selection in the UI only; no behavior branches on it.
type NotificationType string

const (
	TypeExamReminder    NotificationType = "exam_reminder"
	TypeEvent           NotificationType = "event"
	TypeOpportunity     NotificationType = "opportunity"
	TypeTimetableUpdate NotificationType = "timetable_update"
	TypeAnnouncement    NotificationType = "announcement"
	TypeCustom          NotificationType = "custom"
)

// Icon returns the glyph shown next to notifications of this type.
func (t NotificationType) Icon() string {
	switch t {
	case TypeExamReminder:
		return "📝"
	case TypeEvent:
		return "📅"
	case TypeOpportunity:
		return "💼"
	case TypeTimetableUpdate:
		return "🕑"
	case TypeAnnouncement:
		return "📣"
	default:
		return "🔔"
	}
}

// Priority ranks a notification. It drives display color and popup
// auto-dismiss behavior: urgent popups are never auto-dismissed.
type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityHigh   Priority = "high"
	PriorityNormal Priority = "normal"
	PriorityLow    Priority = "low"
)

// Notification is a campus notice joined with the current user's
// delivery record. Content fields are owned by the backend and
// read-mostly; IsRead and ReadAt belong to the per-user delivery row
// and are the only fields the client ever mutates.
type Notification struct {
	// ID is the unique identifier of the notification content row.
	ID string `db:"id" json:"id"`

	// Title and Message are the display strings.
	Title   string `db:"title" json:"title"`
	Message string `db:"message" json:"message"`

	// Type categorizes the notification for icon selection.
	Type NotificationType `db:"type" json:"type"`

	// Priority ranks the notification for color and dismissal rules.
	Priority Priority `db:"priority" json:"priority"`

	// IsPublished gates visibility together with ExpiresAt.
	IsPublished bool `db:"is_published" json:"is_published"`

	// ExpiresAt, when set, hides the notification once it has passed.
	// The gate is evaluated against the client's wall clock at query
	// time, so a notification can appear in one fetch and be filtered
	// in the next.
	ExpiresAt *time.Time `db:"expires_at" json:"expires_at,omitempty"`

	// CreatedAt orders notifications newest-first and feeds the
	// relative-time display.
	CreatedAt time.Time `db:"created_at" json:"created_at"`

	// IsRead reflects the user's delivery record.
	IsRead bool `db:"is_read" json:"is_read"`

	// ReadAt is set at the moment the user marks the notification read.
	ReadAt *time.Time `db:"read_at" json:"read_at,omitempty"`
}

// Eligible reports whether the notification may be shown at the given
// wall-clock time: it must be published and either carry no expiry or
// expire strictly after now.
func (n Notification) Eligible(now time.Time) bool {
	if !n.IsPublished {
		return false
	}
	if n.ExpiresAt == nil {
		return true
	}
	return n.ExpiresAt.After(now)
}

// PopupNotification wraps a Notification queued for transient popup
// display. It is client-local, never persisted, and never the source
// of truth for read state.
type PopupNotification struct {
	Notification

	// ShowAsPopup marks the wrapped notification as popup-eligible.
	ShowAsPopup bool
}
