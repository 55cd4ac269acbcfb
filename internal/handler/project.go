package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sakif/cert-tracker/internal/apperror"
	"github.com/sakif/cert-tracker/internal/auth"
	"github.com/sakif/cert-tracker/internal/model"
	"github.com/sakif/cert-tracker/internal/service"
)

// ProjectHandler serves the signed-in user's study projects. Every route is
// behind auth.RequireAuth; the user ID from the context scopes each call.
type ProjectHandler struct {
	projects *service.ProjectService
	logger   *slog.Logger
}

func NewProjectHandler(projects *service.ProjectService, logger *slog.Logger) *ProjectHandler {
	return &ProjectHandler{projects: projects, logger: logger}
}

type createProjectRequest struct {
	CertificationID string  `json:"certificationId"`
	Name            string  `json:"name"`
	TargetDate      *string `json:"targetDate"`
}

// updateProjectRequest distinguishes an absent targetDate (leave unchanged)
// from an explicit null (clear it), so that field is kept raw.
type updateProjectRequest struct {
	Name         *string              `json:"name"`
	TargetDate   json.RawMessage      `json:"targetDate"`
	Status       *model.ProjectStatus `json:"status"`
	StudiedHours *int                 `json:"studiedHours"`
	IsPublic     *bool                `json:"isPublic"`
}

func (req updateProjectRequest) toUpdate() (model.ProjectUpdate, error) {
	u := model.ProjectUpdate{
		Name:         req.Name,
		Status:       req.Status,
		StudiedHours: req.StudiedHours,
		IsPublic:     req.IsPublic,
	}
	if len(req.TargetDate) > 0 {
		if string(req.TargetDate) == "null" {
			u.ClearTargetDate = true
			return u, nil
		}
		var s string
		if err := json.Unmarshal(req.TargetDate, &s); err != nil {
			return u, apperror.ValidationFailed("targetDate", "targetDate must be a date string or null")
		}
		t, err := parseDate("targetDate", s)
		if err != nil {
			return u, err
		}
		u.TargetDate = &t
	}
	return u, nil
}

// HandleList returns the user's projects, newest first.
//
// HTTP: GET /api/projects
func (h *ProjectHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	projects, err := h.projects.List(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

// HandleGet returns one project.
//
// HTTP: GET /api/projects/{id}
func (h *ProjectHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	project, err := h.projects.Get(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

// HandleCreate starts a project for a certification.
//
// HTTP: POST /api/projects
// REQUEST BODY: {"certificationId": "aws-saa", "name": "SAA prep", "targetDate": "2026-06-08"}
//
// targetDate is optional; without it the certification's estimated period
// decides the default.
func (h *ProjectHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req createProjectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	in := service.CreateProjectInput{CertificationID: req.CertificationID, Name: req.Name}
	if req.TargetDate != nil {
		t, err := parseDate("targetDate", *req.TargetDate)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		in.TargetDate = &t
	}

	project, err := h.projects.Create(r.Context(), userID, in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

// HandleUpdate applies a partial update.
//
// HTTP: PATCH /api/projects/{id}
func (h *ProjectHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req updateProjectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	update, err := req.toUpdate()
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	project, err := h.projects.Update(r.Context(), userID, r.PathValue("id"), update)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

// HandleDelete removes a project together with its tasks and activities.
//
// HTTP: DELETE /api/projects/{id}
func (h *ProjectHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	if err := h.projects.Delete(r.Context(), userID, r.PathValue("id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleRecompute re-derives the task counters and progress percentage.
//
// HTTP: POST /api/projects/{id}/progress
func (h *ProjectHandler) HandleRecompute(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	progress, err := h.projects.RecomputeProgress(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}
