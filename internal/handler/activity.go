package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/cert-tracker/internal/auth"
	"github.com/sakif/cert-tracker/internal/service"
)

type ActivityHandler struct {
	activities *service.ActivityService
	logger     *slog.Logger
}

func NewActivityHandler(activities *service.ActivityService, logger *slog.Logger) *ActivityHandler {
	return &ActivityHandler{activities: activities, logger: logger}
}

type createActivityRequest struct {
	ProjectID          string  `json:"projectId"`
	CompletedTaskTitle *string `json:"completedTaskTitle"`
	Message            *string `json:"message"`
}

// HandleList returns a user's feed, newest first. ?user= selects whose
// activities to show; it defaults to the viewer.
//
// HTTP: GET /api/activities
func (h *ActivityHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := auth.UserIDFromContext(r.Context())

	activities, err := h.activities.List(r.Context(), viewerID, r.URL.Query().Get("user"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, activities)
}

// HTTP: POST /api/activities
func (h *ActivityHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	posterID, _ := auth.UserIDFromContext(r.Context())

	var req createActivityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	activity, err := h.activities.Create(r.Context(), posterID, service.CreateActivityInput{
		ProjectID:          req.ProjectID,
		CompletedTaskTitle: req.CompletedTaskTitle,
		Message:            req.Message,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, activity)
}

// HandleToggleLike likes or unlikes an activity for the viewer. The route
// uses optional auth: an anonymous like is a domain rule violation (422)
// rather than a 401.
//
// HTTP: POST /api/activities/{id}/like
func (h *ActivityHandler) HandleToggleLike(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := auth.UserIDFromContext(r.Context())

	result, err := h.activities.ToggleLike(r.Context(), viewerID, r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
