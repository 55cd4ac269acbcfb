package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sakif/cert-tracker/internal/apperror"
	"github.com/sakif/cert-tracker/internal/model"
	"github.com/sakif/cert-tracker/internal/repository"
)

const (
	MaxTaskTitleLength = 200
	MaxTaskNotesLength = 5000
)

// CreateTaskInput is the data a user supplies for a new task. A nil
// OrderIndex appends the task after the project's current last task.
type CreateTaskInput struct {
	ProjectID      string
	Title          string
	Description    *string
	EstimatedHours int
	OrderIndex     *int
	Notes          *string
}

// TaskService manages tasks and keeps the parent project's progress current:
// every change that can alter the task counts recomputes the project before
// returning.
type TaskService struct {
	tasks    repository.TaskRepository
	projects repository.ProjectRepository
	logger   *slog.Logger
	now      func() time.Time
}

func NewTaskService(tasks repository.TaskRepository, projects repository.ProjectRepository, logger *slog.Logger) *TaskService {
	return &TaskService{
		tasks:    tasks,
		projects: projects,
		logger:   logger,
		now:      time.Now,
	}
}

// List returns the project's tasks in display order. A project the user does
// not own is NotFound.
func (s *TaskService) List(ctx context.Context, userID, projectID string) ([]model.Task, error) {
	if _, err := s.projects.GetProject(ctx, userID, projectID); err != nil {
		return nil, err
	}
	tasks, err := s.tasks.ListTasks(ctx, userID, projectID)
	if err != nil {
		s.logger.Error("failed to list tasks",
			slog.String("projectID", projectID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/task: listing tasks: %w", err)
	}
	return tasks, nil
}

func (s *TaskService) Get(ctx context.Context, userID, taskID string) (*model.Task, error) {
	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return nil, apperror.ValidationFailed("id", "task ID is required")
	}
	return s.tasks.GetTask(ctx, userID, taskID)
}

func (s *TaskService) Create(ctx context.Context, userID string, in CreateTaskInput) (*model.Task, error) {
	title, err := validateTaskTitle(in.Title)
	if err != nil {
		return nil, err
	}
	if in.EstimatedHours <= 0 {
		return nil, apperror.ValidationFailed("estimatedHours", "estimated hours must be a positive integer")
	}
	notes, err := validateNotes(in.Notes)
	if err != nil {
		return nil, err
	}
	projectID := strings.TrimSpace(in.ProjectID)
	if projectID == "" {
		return nil, apperror.ValidationFailed("projectId", "project is required")
	}

	var order int
	if in.OrderIndex != nil {
		if *in.OrderIndex < 0 {
			return nil, apperror.ValidationFailed("orderIndex", "order index cannot be negative")
		}
		order = *in.OrderIndex
	} else {
		// Read-then-insert: two concurrent creates may get the same index.
		// Ties are broken by creation time when listing.
		order, err = s.tasks.NextOrderIndex(ctx, userID, projectID)
		if err != nil {
			return nil, fmt.Errorf("service/task: computing order index: %w", err)
		}
	}

	task := &model.Task{
		UserID:         userID,
		ProjectID:      projectID,
		Title:          title,
		Description:    trimOptional(in.Description),
		EstimatedHours: in.EstimatedHours,
		OrderIndex:     order,
		Notes:          notes,
	}
	if err := s.tasks.CreateTask(ctx, task); err != nil {
		return nil, err
	}

	s.logger.Info("task created",
		slog.String("id", task.ID),
		slog.String("projectID", projectID),
	)

	if err := s.recompute(ctx, userID, projectID); err != nil {
		return nil, err
	}
	return task, nil
}

// Update applies a partial update. Completion changes follow the same state
// machine as ToggleCompletion, and publishing an incomplete task is rejected.
// The project's counters are recomputed when completion or the estimate changes.
func (s *TaskService) Update(ctx context.Context, userID, taskID string, update model.TaskUpdate) (*model.Task, error) {
	task, err := s.tasks.GetTask(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	if update.Title != nil {
		title, err := validateTaskTitle(*update.Title)
		if err != nil {
			return nil, err
		}
		task.Title = title
	}
	if update.Description != nil {
		task.Description = trimOptional(update.Description)
	}
	hoursChanged := false
	if update.EstimatedHours != nil {
		if *update.EstimatedHours <= 0 {
			return nil, apperror.ValidationFailed("estimatedHours", "estimated hours must be a positive integer")
		}
		hoursChanged = *update.EstimatedHours != task.EstimatedHours
		task.EstimatedHours = *update.EstimatedHours
	}
	if update.OrderIndex != nil {
		if *update.OrderIndex < 0 {
			return nil, apperror.ValidationFailed("orderIndex", "order index cannot be negative")
		}
		task.OrderIndex = *update.OrderIndex
	}
	if update.Notes != nil {
		notes, err := validateNotes(update.Notes)
		if err != nil {
			return nil, err
		}
		task.Notes = notes
	}

	completionChanged := false
	if update.IsCompleted != nil {
		completionChanged = task.SetCompleted(*update.IsCompleted, s.now().UTC())
	}
	if update.IsPublic != nil {
		if *update.IsPublic && !task.IsCompleted {
			return nil, apperror.DomainRule("only completed tasks may be published")
		}
		task.IsPublic = *update.IsPublic
	}

	if err := s.tasks.SaveTask(ctx, task); err != nil {
		return nil, err
	}
	s.logger.Info("task updated", slog.String("id", task.ID))

	if completionChanged || hoursChanged {
		if err := s.recompute(ctx, userID, task.ProjectID); err != nil {
			return nil, err
		}
	}
	return task, nil
}

func (s *TaskService) Delete(ctx context.Context, userID, taskID string) error {
	task, err := s.tasks.GetTask(ctx, userID, taskID)
	if err != nil {
		return err
	}
	if err := s.tasks.DeleteTask(ctx, userID, taskID); err != nil {
		return err
	}

	s.logger.Info("task deleted",
		slog.String("id", taskID),
		slog.String("projectID", task.ProjectID),
	)
	return s.recompute(ctx, userID, task.ProjectID)
}

// ToggleCompletion flips the completion flag. Un-completing a task also
// unpublishes it.
func (s *TaskService) ToggleCompletion(ctx context.Context, userID, taskID string) (*model.Task, error) {
	task, err := s.tasks.GetTask(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	task.SetCompleted(!task.IsCompleted, s.now().UTC())
	if err := s.tasks.SaveTask(ctx, task); err != nil {
		return nil, err
	}

	s.logger.Info("task completion toggled",
		slog.String("id", task.ID),
		slog.Bool("completed", task.IsCompleted),
	)

	if err := s.recompute(ctx, userID, task.ProjectID); err != nil {
		return nil, err
	}
	return task, nil
}

// TogglePublic flips visibility of a completed task. An incomplete task is a
// domain rule violation and is left untouched.
func (s *TaskService) TogglePublic(ctx context.Context, userID, taskID string) (*model.Task, error) {
	task, err := s.tasks.TogglePublic(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("task visibility toggled",
		slog.String("id", task.ID),
		slog.Bool("public", task.IsPublic),
	)
	return task, nil
}

// Reorder assigns each task its 0-based position in orderedIDs. Either every
// task is moved or none is.
func (s *TaskService) Reorder(ctx context.Context, userID, projectID string, orderedIDs []string) error {
	seen := make(map[string]struct{}, len(orderedIDs))
	for _, id := range orderedIDs {
		if strings.TrimSpace(id) == "" {
			return apperror.ValidationFailed("taskIds", "task IDs must not be empty")
		}
		if _, dup := seen[id]; dup {
			return apperror.ValidationFailed("taskIds", fmt.Sprintf("task %s appears more than once", id))
		}
		seen[id] = struct{}{}
	}

	if err := s.tasks.ReorderTasks(ctx, userID, projectID, orderedIDs); err != nil {
		return err
	}
	s.logger.Info("tasks reordered",
		slog.String("projectID", projectID),
		slog.Int("count", len(orderedIDs)),
	)
	return nil
}

func (s *TaskService) recompute(ctx context.Context, userID, projectID string) error {
	if _, err := s.projects.RecomputeProgress(ctx, userID, projectID); err != nil {
		s.logger.Error("failed to recompute progress",
			slog.String("projectID", projectID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("service/task: recomputing progress for %s: %w", projectID, err)
	}
	return nil
}

func validateTaskTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", apperror.ValidationFailed("title", "task title is required")
	}
	if utf8.RuneCountInString(title) > MaxTaskTitleLength {
		return "", apperror.ValidationFailed("title",
			fmt.Sprintf("task title must be %d characters or less", MaxTaskTitleLength))
	}
	return title, nil
}

func validateNotes(notes *string) (*string, error) {
	notes = trimOptional(notes)
	if notes != nil && utf8.RuneCountInString(*notes) > MaxTaskNotesLength {
		return nil, apperror.ValidationFailed("notes",
			fmt.Sprintf("notes must be %d characters or less", MaxTaskNotesLength))
	}
	return notes, nil
}

// trimOptional trims s and maps blank to nil.
func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
