package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/cert-tracker/internal/auth"
	"github.com/sakif/cert-tracker/internal/model"
	"github.com/sakif/cert-tracker/internal/service"
)

// TaskHandler serves tasks. Creation, listing and reordering are nested under
// a project; everything else addresses the task directly.
type TaskHandler struct {
	tasks  *service.TaskService
	logger *slog.Logger
}

func NewTaskHandler(tasks *service.TaskService, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{tasks: tasks, logger: logger}
}

type createTaskRequest struct {
	Title          string  `json:"title"`
	Description    *string `json:"description"`
	EstimatedHours int     `json:"estimatedHours"`
	OrderIndex     *int    `json:"orderIndex"`
	Notes          *string `json:"notes"`
}

type updateTaskRequest struct {
	Title          *string `json:"title"`
	Description    *string `json:"description"`
	EstimatedHours *int    `json:"estimatedHours"`
	IsCompleted    *bool   `json:"isCompleted"`
	IsPublic       *bool   `json:"isPublic"`
	OrderIndex     *int    `json:"orderIndex"`
	Notes          *string `json:"notes"`
}

type reorderRequest struct {
	TaskIDs []string `json:"taskIds"`
}

// HandleList returns a project's tasks in display order.
//
// HTTP: GET /api/projects/{id}/tasks
func (h *TaskHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	tasks, err := h.tasks.List(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

// HandleCreate adds a task to a project. Without orderIndex the task goes
// last.
//
// HTTP: POST /api/projects/{id}/tasks
func (h *TaskHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req createTaskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	task, err := h.tasks.Create(r.Context(), userID, service.CreateTaskInput{
		ProjectID:      r.PathValue("id"),
		Title:          req.Title,
		Description:    req.Description,
		EstimatedHours: req.EstimatedHours,
		OrderIndex:     req.OrderIndex,
		Notes:          req.Notes,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

// HandleReorder sets every listed task's position to its index in taskIds.
//
// HTTP: PUT /api/projects/{id}/tasks/order
// REQUEST BODY: {"taskIds": ["c3", "a1", "b2"]}
func (h *TaskHandler) HandleReorder(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req reorderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.tasks.Reorder(r.Context(), userID, r.PathValue("id"), req.TaskIDs); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HTTP: GET /api/tasks/{id}
func (h *TaskHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	task, err := h.tasks.Get(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// HandleUpdate applies a partial update.
//
// HTTP: PATCH /api/tasks/{id}
func (h *TaskHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req updateTaskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	task, err := h.tasks.Update(r.Context(), userID, r.PathValue("id"), model.TaskUpdate{
		Title:          req.Title,
		Description:    req.Description,
		EstimatedHours: req.EstimatedHours,
		IsCompleted:    req.IsCompleted,
		IsPublic:       req.IsPublic,
		OrderIndex:     req.OrderIndex,
		Notes:          req.Notes,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// HTTP: DELETE /api/tasks/{id}
func (h *TaskHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	if err := h.tasks.Delete(r.Context(), userID, r.PathValue("id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleToggleCompletion flips the completed flag.
//
// HTTP: POST /api/tasks/{id}/completion
func (h *TaskHandler) HandleToggleCompletion(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	task, err := h.tasks.ToggleCompletion(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// HandleTogglePublic flips visibility of a completed task; incomplete tasks
// answer 422.
//
// HTTP: POST /api/tasks/{id}/publication
func (h *TaskHandler) HandleTogglePublic(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	task, err := h.tasks.TogglePublic(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}
