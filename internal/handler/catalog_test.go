package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/cert-tracker/internal/handler"
	"github.com/sakif/cert-tracker/internal/model"
)

func TestCatalogHandler_ListAndGet(t *testing.T) {
	e := newEnv(t)
	h := handler.NewCatalogHandler(e.catalog, e.public, e.logger)
	e.cert(t, "aws-saa", 90)
	e.cert(t, "cka", 60)

	rec := httptest.NewRecorder()
	h.HandleList(rec, request(http.MethodGet, "/api/certifications", "", ""))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]model.Certification](t, rec), 2)

	rec = httptest.NewRecorder()
	h.HandleGet(rec, request(http.MethodGet, "/", "", "", "id", "cka"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 60, decode[model.Certification](t, rec).EstimatedPeriod)

	rec = httptest.NewRecorder()
	h.HandleGet(rec, request(http.MethodGet, "/", "", "", "id", "nope"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCatalogHandler_PublicViewHidesPrivateWork(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	h := handler.NewCatalogHandler(e.catalog, e.public, e.logger)
	alice := e.user(t, "g-alice", "Alice")
	e.cert(t, "aws-saa", 90)

	shared := e.project(t, alice.ID, "aws-saa", "Shared")
	hidden := e.project(t, alice.ID, "aws-saa", "Hidden")
	public := true
	_, err := e.projects.Update(ctx, alice.ID, shared.ID, model.ProjectUpdate{IsPublic: &public})
	require.NoError(t, err)

	published := e.task(t, alice.ID, shared.ID, "Published")
	e.task(t, alice.ID, shared.ID, "Private")
	_, err = e.tasks.ToggleCompletion(ctx, alice.ID, published.ID)
	require.NoError(t, err)
	_, err = e.tasks.TogglePublic(ctx, alice.ID, published.ID)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.HandlePublicProjects(rec, request(http.MethodGet, "/", "", "", "id", "aws-saa"))
	require.Equal(t, http.StatusOK, rec.Code)
	projects := decode[[]model.PublicProject](t, rec)
	require.Len(t, projects, 1)
	assert.Equal(t, "Shared", projects[0].Name)
	assert.Equal(t, "Alice", projects[0].OwnerName)
	require.Len(t, projects[0].Tasks, 1)
	assert.Equal(t, "Published", projects[0].Tasks[0].Title)

	rec = httptest.NewRecorder()
	h.HandlePublicTasks(rec, request(http.MethodGet, "/", "", "", "id", shared.ID))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]model.PublicTask](t, rec), 1)

	rec = httptest.NewRecorder()
	h.HandlePublicTasks(rec, request(http.MethodGet, "/", "", "", "id", hidden.ID))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
