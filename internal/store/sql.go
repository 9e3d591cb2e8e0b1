package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/nhle/campus-companion/internal/model"
)

// SQLStore implements Store over a sqlx database handle. The same
// queries serve both the hosted PostgreSQL backend and a local SQLite
// database: statements are written with ? bindvars and passed through
// Rebind for the active driver.
type SQLStore struct {
	db     *sqlx.DB
	driver string
}

// NewSQLStore opens a database connection for the given driver
// ("postgres" or "sqlite") and DSN. For SQLite it also enables WAL
// mode, turns on foreign keys, and applies pending migrations; hosted
// PostgreSQL schemas are owned by the backend and left untouched.
func NewSQLStore(driver, dsn string) (*SQLStore, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", driver, err)
	}

	s := &SQLStore{db: db, driver: driver}

	if driver == "sqlite" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enabling WAL mode: %w", err)
		}
		if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enabling foreign keys: %w", err)
		}
		if err := s.runMigrations(); err != nil {
			db.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// LoadNotifications returns the newest eligible notifications delivered
// to userID, capped at limit. The publish/expiry gate is evaluated
// against the current wall-clock time.
func (s *SQLStore) LoadNotifications(
	ctx context.Context,
	userID string,
	limit int,
) ([]model.Notification, error) {
	const query = `
		SELECT n.id, n.title, n.message, n.type, n.priority,
		       n.is_published, n.expires_at, n.created_at,
		       un.is_read, un.read_at
		FROM user_notifications un
		JOIN notifications n ON n.id = un.notification_id
		WHERE un.user_id = ?
		  AND n.is_published = ?
		  AND (n.expires_at IS NULL OR n.expires_at > ?)
		ORDER BY n.created_at DESC
		LIMIT ?`

	var notifications []model.Notification
	err := s.db.SelectContext(ctx, &notifications, s.db.Rebind(query),
		userID, true, time.Now().UTC(), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying notifications for user %s: %w", userID, err)
	}

	return notifications, nil
}

// UnreadCount returns the number of unread, eligible deliveries for
// userID, applying the same publish/expiry gate as LoadNotifications.
func (s *SQLStore) UnreadCount(ctx context.Context, userID string) (int, error) {
	const query = `
		SELECT COUNT(*)
		FROM user_notifications un
		JOIN notifications n ON n.id = un.notification_id
		WHERE un.user_id = ?
		  AND un.is_read = ?
		  AND n.is_published = ?
		  AND (n.expires_at IS NULL OR n.expires_at > ?)`

	var count int
	err := s.db.GetContext(ctx, &count, s.db.Rebind(query),
		userID, false, true, time.Now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("counting unread notifications for user %s: %w", userID, err)
	}

	return count, nil
}

// MarkRead marks a single delivery read, setting read_at to now. The
// update is idempotent: re-marking an already-read delivery rewrites
// the same row and still succeeds.
func (s *SQLStore) MarkRead(ctx context.Context, notificationID, userID string) error {
	const query = `
		UPDATE user_notifications
		SET is_read = ?, read_at = ?
		WHERE notification_id = ? AND user_id = ?`

	_, err := s.db.ExecContext(ctx, s.db.Rebind(query),
		true, time.Now().UTC(), notificationID, userID,
	)
	if err != nil {
		return fmt.Errorf("marking notification %s read: %w", notificationID, err)
	}

	return nil
}

// MarkAllRead marks the given deliveries read in a single statement.
// An empty id set short-circuits without touching the database.
func (s *SQLStore) MarkAllRead(
	ctx context.Context,
	userID string,
	notificationIDs []string,
) error {
	if len(notificationIDs) == 0 {
		return nil
	}

	query, args, err := sqlx.In(`
		UPDATE user_notifications
		SET is_read = ?, read_at = ?
		WHERE user_id = ? AND notification_id IN (?)`,
		true, time.Now().UTC(), userID, notificationIDs,
	)
	if err != nil {
		return fmt.Errorf("expanding mark-all-read statement: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, s.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("marking %d notifications read: %w", len(notificationIDs), err)
	}

	return nil
}

// CreateNotification inserts notification content and returns its id.
func (s *SQLStore) CreateNotification(
	ctx context.Context,
	n model.Notification,
) (string, error) {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.Type == "" {
		n.Type = model.TypeCustom
	}
	if n.Priority == "" {
		n.Priority = model.PriorityNormal
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	const query = `
		INSERT INTO notifications
			(id, title, message, type, priority, is_published, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	var expiresAt interface{}
	if n.ExpiresAt != nil {
		expiresAt = n.ExpiresAt.UTC()
	}

	_, err := s.db.ExecContext(ctx, s.db.Rebind(query),
		n.ID, n.Title, n.Message, string(n.Type), string(n.Priority),
		n.IsPublished, expiresAt, n.CreatedAt.UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("creating notification: %w", err)
	}

	return n.ID, nil
}

// AddDelivery targets an existing notification at a user. On the hosted
// backend the insert fires the delivery trigger that raises the
// realtime NOTIFY event.
func (s *SQLStore) AddDelivery(ctx context.Context, notificationID, userID string) error {
	const query = `
		INSERT INTO user_notifications
			(id, notification_id, user_id, is_read, created_at)
		VALUES (?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, s.db.Rebind(query),
		uuid.New().String(), notificationID, userID, false, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("delivering notification %s to user %s: %w", notificationID, userID, err)
	}

	return nil
}
