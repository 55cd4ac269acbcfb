package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sakif/cert-tracker/internal/model"
	"github.com/sakif/cert-tracker/internal/repository/sqlite"
)

// fixedNow is the clock every service under test reads.
var fixedNow = time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// stack wires every service to one in-memory database.
type stack struct {
	db         *sqlite.DB
	identity   *IdentityService
	catalog    *CatalogService
	projects   *ProjectService
	tasks      *TaskService
	activities *ActivityService
	public     *PublicService
}

func newStack(t *testing.T) *stack {
	t.Helper()
	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := testLogger()
	s := &stack{
		db:         db,
		identity:   NewIdentityService(db, logger),
		catalog:    NewCatalogService(db, nil, logger),
		projects:   NewProjectService(db, db, logger),
		tasks:      NewTaskService(db, db, logger),
		activities: NewActivityService(db, logger),
		public:     NewPublicService(db, logger),
	}
	s.projects.now = func() time.Time { return fixedNow }
	s.tasks.now = func() time.Time { return fixedNow }
	return s
}

func (s *stack) user(t *testing.T, externalID, name string) *model.User {
	t.Helper()
	u, err := s.identity.Resolve(context.Background(), model.ExternalIdentity{
		ID:       externalID,
		Email:    name + "@example.com",
		FullName: name,
	})
	require.NoError(t, err)
	return u
}

func (s *stack) cert(t *testing.T, id string, periodDays int) {
	t.Helper()
	_, err := s.catalog.Seed(context.Background(), []model.Certification{{
		ID:              id,
		Name:            "Cert " + id,
		Category:        "cloud",
		DifficultyLevel: "beginner",
		EstimatedPeriod: periodDays,
		IsActive:        true,
	}})
	require.NoError(t, err)
}

func (s *stack) project(t *testing.T, userID, certID, name string) *model.Project {
	t.Helper()
	p, err := s.projects.Create(context.Background(), userID, CreateProjectInput{
		CertificationID: certID,
		Name:            name,
	})
	require.NoError(t, err)
	return p
}

func (s *stack) task(t *testing.T, userID, projectID, title string, hours int) *model.Task {
	t.Helper()
	task, err := s.tasks.Create(context.Background(), userID, CreateTaskInput{
		ProjectID:      projectID,
		Title:          title,
		EstimatedHours: hours,
	})
	require.NoError(t, err)
	return task
}

func ptr[T any](v T) *T { return &v }
