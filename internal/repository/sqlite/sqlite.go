// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// The schema carries the consistency rules that a managed backend would
// otherwise enforce: UNIQUE(external_id) on users, UNIQUE(activity_id, user_id)
// on likes, CHECK(is_public = 0 OR is_completed = 1) on tasks, and cascading
// foreign keys from projects to tasks and activities.
//
// modernc.org/sqlite is a pure Go translation of SQLite, so no C toolchain is
// needed to build or cross-compile.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and implements every repository interface.
type DB struct {
	conn *sql.DB
}

// New opens the database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/tracker.db"  → file-based database (persistent)
//   - ":memory:"         → in-memory database (tests)
//
// Connection-scoped pragmas (foreign keys, busy timeout) are passed in the DSN
// so every pooled connection gets them, not just the first one. Transactions
// start with BEGIN IMMEDIATE so two writers never deadlock on a lock upgrade.
//
// The parent directory of a file database is created if missing.
func New(dbPath string) (*DB, error) {
	if err := ensureDir(dbPath); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Each connection to ":memory:" is a separate, empty database.
	if isMemory(dbPath) {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	if !isMemory(dbPath) {
		if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
			conn.Close()
			return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
		}
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

func dsn(dbPath string) string {
	params := "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_txlock=immediate&_time_format=sqlite"
	if strings.Contains(dbPath, "?") {
		return dbPath + "&" + params
	}
	return dbPath + "?" + params
}

func ensureDir(dbPath string) error {
	if isMemory(dbPath) || strings.HasPrefix(dbPath, "file:") {
		return nil
	}
	path, _, _ := strings.Cut(dbPath, "?")
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("sqlite: creating directory %s: %w", dir, err)
	}
	return nil
}

func isMemory(dbPath string) bool {
	return strings.HasPrefix(dbPath, ":memory:") || strings.Contains(dbPath, "mode=memory")
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping reports whether the database is reachable. Used by the health check.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// migrate runs all database migrations.
//
// CREATE TABLE IF NOT EXISTS is idempotent, so this runs on every start.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id           TEXT PRIMARY KEY,
			external_id  TEXT NOT NULL UNIQUE,
			email        TEXT NOT NULL DEFAULT '',
			display_name TEXT NOT NULL,
			avatar_url   TEXT NOT NULL DEFAULT '',
			created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS certifications (
			id               TEXT PRIMARY KEY,
			name             TEXT NOT NULL,
			description      TEXT NOT NULL DEFAULT '',
			category         TEXT NOT NULL DEFAULT '',
			difficulty_level TEXT NOT NULL DEFAULT '',
			estimated_period INTEGER NOT NULL DEFAULT 0,
			passing_score    INTEGER NOT NULL DEFAULT 0,
			fee              INTEGER NOT NULL DEFAULT 0,
			is_active        INTEGER NOT NULL DEFAULT 1
		);
	`)
	if err != nil {
		return fmt.Errorf("creating certifications table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS projects (
			id                  TEXT PRIMARY KEY,
			user_id             TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			certification_id    TEXT NOT NULL REFERENCES certifications(id),
			name                TEXT NOT NULL,
			target_date         DATETIME,
			status              TEXT NOT NULL DEFAULT 'active'
			                    CHECK (status IN ('active', 'pending', 'done')),
			progress_percentage INTEGER NOT NULL DEFAULT 0
			                    CHECK (progress_percentage BETWEEN 0 AND 100),
			total_tasks         INTEGER,
			completed_tasks     INTEGER,
			studied_hours       INTEGER NOT NULL DEFAULT 0 CHECK (studied_hours >= 0),
			is_public           INTEGER NOT NULL DEFAULT 0,
			created_at          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_projects_user_id ON projects(user_id, created_at);
		CREATE INDEX IF NOT EXISTS idx_projects_public ON projects(certification_id, is_public);
	`)
	if err != nil {
		return fmt.Errorf("creating projects table: %w", err)
	}

	// Added after the first release; older databases lack the column.
	if err := db.addColumnIfNotExists("projects", "total_estimated_hours", "INTEGER"); err != nil {
		return fmt.Errorf("adding total_estimated_hours to projects: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS tasks (
			id               TEXT PRIMARY KEY,
			user_id          TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			project_id       TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
			title            TEXT NOT NULL,
			description      TEXT,
			estimated_hours  INTEGER NOT NULL CHECK (estimated_hours > 0),
			is_completed     INTEGER NOT NULL DEFAULT 0,
			completed_at     DATETIME,
			is_public        INTEGER NOT NULL DEFAULT 0,
			order_index      INTEGER NOT NULL DEFAULT 0,
			notes            TEXT,
			copy_count       INTEGER NOT NULL DEFAULT 0,
			original_task_id TEXT REFERENCES tasks(id) ON DELETE SET NULL,
			created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			CHECK (is_public = 0 OR is_completed = 1)
		);
		CREATE INDEX IF NOT EXISTS idx_tasks_project_order ON tasks(project_id, order_index, created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating tasks table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS activities (
			id                   TEXT PRIMARY KEY,
			user_id              TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			project_id           TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
			completed_task_title TEXT,
			message              TEXT,
			likes_count          INTEGER NOT NULL DEFAULT 0,
			created_at           DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_activities_user ON activities(user_id, created_at);

		CREATE TABLE IF NOT EXISTS likes (
			id          TEXT PRIMARY KEY,
			activity_id TEXT NOT NULL REFERENCES activities(id) ON DELETE CASCADE,
			user_id     TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (activity_id, user_id)
		);
	`)
	if err != nil {
		return fmt.Errorf("creating activities/likes tables: %w", err)
	}

	return nil
}

// addColumnIfNotExists adds a column to a table only if it doesn't already exist.
// Running it twice is a no-op.
func (db *DB) addColumnIfNotExists(table, column, definition string) error {
	var count int
	err := db.conn.QueryRow(
		`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`,
		table, column,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("checking column %s.%s: %w", table, column, err)
	}
	if count > 0 {
		return nil
	}
	_, err = db.conn.Exec(fmt.Sprintf(
		`ALTER TABLE %s ADD COLUMN %s %s`, table, column, definition,
	))
	return err
}

// withTx runs fn inside a transaction, committing on nil and rolling back
// otherwise. fn must only use tx: with a single pooled connection (":memory:")
// a query on db.conn would wait forever for the connection tx holds.
func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing transaction: %w", err)
	}
	return nil
}

// now returns the current time in UTC. Timestamps are always stored in UTC so
// that their text form sorts chronologically.
func now() time.Time {
	return time.Now().UTC()
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

func intPtr(ni sql.NullInt64) *int {
	if !ni.Valid {
		return nil
	}
	n := int(ni.Int64)
	return &n
}

// rowsAffectedOrNotFound turns a zero-row write into a NotFound error.
func rowsAffectedOrNotFound(result sql.Result, notFound error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
