package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sakif/cert-tracker/internal/model"
)

// newTestDB returns a fresh in-memory database that is closed when the test ends.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// newFileTestDB is for tests that need several real connections.
func newFileTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create file test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestUser(t *testing.T, db *DB, externalID, name string) *model.User {
	t.Helper()
	u, err := db.CreateIfMissing(context.Background(), &model.User{
		ExternalID:  externalID,
		Email:       name + "@example.com",
		DisplayName: name,
	})
	if err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

func createTestCertification(t *testing.T, db *DB, id string, period int) *model.Certification {
	t.Helper()
	c := &model.Certification{
		ID:              id,
		Name:            "Cert " + id,
		Category:        "cloud",
		DifficultyLevel: "beginner",
		EstimatedPeriod: period,
		IsActive:        true,
	}
	if err := db.UpsertCertification(context.Background(), c); err != nil {
		t.Fatalf("failed to create test certification: %v", err)
	}
	return c
}

func createTestProject(t *testing.T, db *DB, userID, certID, name string) *model.Project {
	t.Helper()
	p := &model.Project{
		UserID:          userID,
		CertificationID: certID,
		Name:            name,
		Status:          model.ProjectActive,
	}
	if err := db.CreateProject(context.Background(), p); err != nil {
		t.Fatalf("failed to create test project: %v", err)
	}
	return p
}

func createTestTask(t *testing.T, db *DB, userID, projectID, title string, hours, order int) *model.Task {
	t.Helper()
	task := &model.Task{
		UserID:         userID,
		ProjectID:      projectID,
		Title:          title,
		EstimatedHours: hours,
		OrderIndex:     order,
	}
	if err := db.CreateTask(context.Background(), task); err != nil {
		t.Fatalf("failed to create test task: %v", err)
	}
	return task
}

func TestNew_MigrationsAreIdempotent(t *testing.T) {
	db := newTestDB(t)

	if err := db.migrate(); err != nil {
		t.Fatalf("second migrate() error = %v", err)
	}
	if err := db.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
}

func TestNew_FileDatabase(t *testing.T) {
	db := newFileTestDB(t)

	var mode string
	if err := db.conn.QueryRow(`PRAGMA journal_mode`).Scan(&mode); err != nil {
		t.Fatalf("reading journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want wal", mode)
	}
}

func TestNew_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "tracker.db")
	db, err := New(path)
	if err != nil {
		t.Fatalf("New(%q): %v", path, err)
	}
	db.Close()

	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		t.Errorf("parent directory not created: %v", err)
	}
}

func TestForeignKeysEnforced(t *testing.T) {
	db := newTestDB(t)
	u := createTestUser(t, db, "ext-1", "alice")

	p := &model.Project{
		UserID:          u.ID,
		CertificationID: "no-such-cert",
		Name:            "orphan",
		Status:          model.ProjectActive,
	}
	if err := db.CreateProject(context.Background(), p); err == nil {
		t.Fatal("CreateProject() with unknown certification should fail")
	}
}

func TestDSN(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{":memory:", ":memory:?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_txlock=immediate&_time_format=sqlite"},
		{"file:x.db?mode=rwc", "file:x.db?mode=rwc&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_txlock=immediate&_time_format=sqlite"},
	}
	for _, tt := range tests {
		if got := dsn(tt.in); got != tt.want {
			t.Errorf("dsn(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
