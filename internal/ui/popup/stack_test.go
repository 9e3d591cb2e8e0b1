package popup

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/campus-companion/internal/model"
)

func popups(titles ...string) []model.PopupNotification {
	out := make([]model.PopupNotification, len(titles))
	for i, title := range titles {
		out[i] = model.PopupNotification{
			Notification: model.Notification{
				ID:        title,
				Title:     title,
				Priority:  model.PriorityNormal,
				CreatedAt: time.Now(),
			},
			ShowAsPopup: true,
		}
	}
	return out
}

func TestNewestReturnsHeadOfQueue(t *testing.T) {
	m := New(80)

	_, ok := m.Newest()
	assert.False(t, ok)

	m.SetPopups(popups("second", "first"))
	p, ok := m.Newest()
	require.True(t, ok)
	assert.Equal(t, "second", p.ID)
	assert.Equal(t, 2, m.Count())
}

func TestViewRendersEachCard(t *testing.T) {
	m := New(80)
	m.SetPopups(popups("exam moved", "club fair"))

	view := m.View()
	assert.Contains(t, view, "exam moved")
	assert.Contains(t, view, "club fair")

	// Only the newest card carries the action hints.
	assert.Equal(t, 1, strings.Count(view, "x dismiss"))
}

func TestViewEmptyWhenNoPopups(t *testing.T) {
	m := New(80)
	assert.Empty(t, m.View())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "long…", truncate("longer", 5))
}
