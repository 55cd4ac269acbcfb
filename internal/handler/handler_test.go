package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sakif/cert-tracker/internal/auth"
	"github.com/sakif/cert-tracker/internal/cache"
	"github.com/sakif/cert-tracker/internal/model"
	sqliteRepo "github.com/sakif/cert-tracker/internal/repository/sqlite"
	"github.com/sakif/cert-tracker/internal/service"
	"github.com/sakif/cert-tracker/internal/session"
)

const testSecret = "handler-test-secret-0123456789"

// env wires real services to an in-memory database.
type env struct {
	db         *sqliteRepo.DB
	logger     *slog.Logger
	tokens     *auth.TokenService
	hub        *session.Hub
	identity   *service.IdentityService
	auth       *service.AuthService
	catalog    *service.CatalogService
	projects   *service.ProjectService
	tasks      *service.TaskService
	activities *service.ActivityService
	public     *service.PublicService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db, err := sqliteRepo.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tokens, err := auth.NewTokenService(testSecret, 0)
	require.NoError(t, err)

	hub := session.NewHub()
	t.Cleanup(hub.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	identity := service.NewIdentityService(db, logger)
	return &env{
		db:         db,
		logger:     logger,
		tokens:     tokens,
		hub:        hub,
		identity:   identity,
		auth:       service.NewAuthService(identity, tokens, logger),
		catalog:    service.NewCatalogService(db, cache.Noop{}, logger),
		projects:   service.NewProjectService(db, db, logger),
		tasks:      service.NewTaskService(db, db, logger),
		activities: service.NewActivityService(db, logger),
		public:     service.NewPublicService(db, logger),
	}
}

func (e *env) user(t *testing.T, externalID, name string) *model.User {
	t.Helper()
	u, err := e.identity.Resolve(context.Background(), model.ExternalIdentity{ID: externalID, FullName: name})
	require.NoError(t, err)
	return u
}

func (e *env) cert(t *testing.T, id string, periodDays int) {
	t.Helper()
	_, err := e.catalog.Seed(context.Background(), []model.Certification{{
		ID:              id,
		Name:            "Cert " + id,
		Category:        "cloud",
		DifficultyLevel: "associate",
		EstimatedPeriod: periodDays,
		IsActive:        true,
	}})
	require.NoError(t, err)
}

func (e *env) project(t *testing.T, userID, certID, name string) *model.Project {
	t.Helper()
	p, err := e.projects.Create(context.Background(), userID, service.CreateProjectInput{
		CertificationID: certID,
		Name:            name,
	})
	require.NoError(t, err)
	return p
}

func (e *env) task(t *testing.T, userID, projectID, title string) *model.Task {
	t.Helper()
	task, err := e.tasks.Create(context.Background(), userID, service.CreateTaskInput{
		ProjectID:      projectID,
		Title:          title,
		EstimatedHours: 2,
	})
	require.NoError(t, err)
	return task
}

// request builds a request carrying userID (if any) and path values the way
// chi would set them.
func request(method, target, body, userID string, pathValues ...string) *http.Request {
	var r io.Reader
	if body != "" {
		r = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, target, r)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req = req.WithContext(auth.WithUserID(req.Context(), userID))
	}
	for i := 0; i+1 < len(pathValues); i += 2 {
		req.SetPathValue(pathValues[i], pathValues[i+1])
	}
	return req
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), "body: %s", rec.Body.String())
	return v
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field"`
}
