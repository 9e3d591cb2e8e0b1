package notify

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/nhle/campus-companion/internal/model"
)

// errStore fails every operation, standing in for an unreachable
// backend.
type errStore struct{}

var errBackend = errors.New("backend unreachable")

func (errStore) LoadNotifications(context.Context, string, int) ([]model.Notification, error) {
	return nil, errBackend
}

func (errStore) UnreadCount(context.Context, string) (int, error) {
	return 0, errBackend
}

func (errStore) MarkRead(context.Context, string, string) error {
	return errBackend
}

func (errStore) MarkAllRead(context.Context, string, []string) error {
	return errBackend
}

func (errStore) CreateNotification(context.Context, model.Notification) (string, error) {
	return "", errBackend
}

func (errStore) AddDelivery(context.Context, string, string) error {
	return errBackend
}

func (errStore) Close() error { return nil }

// quietLogger returns a logger that swallows all output.
func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestFetcherDegradesToEmptyOnError(t *testing.T) {
	f := NewFetcher(errStore{}, quietLogger())
	ctx := context.Background()

	assert.Empty(t, f.LoadNotifications(ctx, "s1", 10))
	assert.Zero(t, f.UnreadCount(ctx, "s1"))
	assert.False(t, f.MarkRead(ctx, "n1", "s1"))
	assert.False(t, f.MarkAllRead(ctx, "s1", []string{"n1"}))
}

func TestFetcherMarkAllReadEmptySetSucceeds(t *testing.T) {
	// The empty set short-circuits before reaching the (broken) store.
	f := NewFetcher(errStore{}, quietLogger())

	assert.True(t, f.MarkAllRead(context.Background(), "s1", nil))
}
