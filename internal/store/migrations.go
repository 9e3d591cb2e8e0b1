package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations for the local
// SQLite database. Each migration's version must be sequential starting
// from 1. Hosted PostgreSQL deployments own their schema (see
// schema/postgres.sql) and are never migrated by the client.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS notifications (
	id           TEXT PRIMARY KEY,
	title        TEXT NOT NULL,
	message      TEXT NOT NULL DEFAULT '',
	type         TEXT NOT NULL DEFAULT 'custom',
	priority     TEXT NOT NULL DEFAULT 'normal',
	is_published BOOLEAN NOT NULL DEFAULT 1,
	expires_at   DATETIME,
	created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS user_notifications (
	id              TEXT PRIMARY KEY,
	notification_id TEXT NOT NULL REFERENCES notifications(id),
	user_id         TEXT NOT NULL,
	is_read         BOOLEAN NOT NULL DEFAULT 0,
	read_at         DATETIME,
	created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (notification_id, user_id)
);

CREATE INDEX IF NOT EXISTS idx_user_notifications_user
	ON user_notifications(user_id);
CREATE INDEX IF NOT EXISTS idx_user_notifications_unread
	ON user_notifications(user_id, is_read);
CREATE INDEX IF NOT EXISTS idx_notifications_created
	ON notifications(created_at);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}
