// Package repository declares the storage contracts the services depend on.
//
// Every mutating method that takes a userID uses it as part of the write
// predicate, so ownership is checked by the same statement that performs the
// write. A row that exists but belongs to someone else is reported exactly
// like a missing row: apperror.ErrNotFound.
package repository

import (
	"context"

	"github.com/sakif/cert-tracker/internal/model"
)

type UserRepository interface {
	// CreateIfMissing inserts the user unless a row with the same external id
	// already exists, then returns the stored row either way.
	CreateIfMissing(ctx context.Context, user *model.User) (*model.User, error)
	GetUserByExternalID(ctx context.Context, externalID string) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

type CertificationRepository interface {
	ListActiveCertifications(ctx context.Context) ([]model.Certification, error)
	GetCertification(ctx context.Context, id string) (*model.Certification, error)
	UpsertCertification(ctx context.Context, cert *model.Certification) error
}

type ProjectRepository interface {
	CreateProject(ctx context.Context, project *model.Project) error
	GetProject(ctx context.Context, userID, projectID string) (*model.Project, error)
	ListProjects(ctx context.Context, userID string) ([]model.Project, error)
	UpdateProject(ctx context.Context, userID, projectID string, update model.ProjectUpdate) error
	DeleteProject(ctx context.Context, userID, projectID string) error
	RecomputeProgress(ctx context.Context, userID, projectID string) (*model.Progress, error)
}

type TaskRepository interface {
	CreateTask(ctx context.Context, task *model.Task) error
	GetTask(ctx context.Context, userID, taskID string) (*model.Task, error)
	ListTasks(ctx context.Context, userID, projectID string) ([]model.Task, error)
	// NextOrderIndex returns max(order_index)+1 for the project, or 1 if it
	// has no tasks. Not atomic with the following insert.
	NextOrderIndex(ctx context.Context, userID, projectID string) (int, error)
	// SaveTask writes every mutable field of the task.
	SaveTask(ctx context.Context, task *model.Task) error
	// TogglePublic flips is_public only when the task is completed. It
	// returns ErrDomainRule when the task exists but is not completed.
	TogglePublic(ctx context.Context, userID, taskID string) (*model.Task, error)
	DeleteTask(ctx context.Context, userID, taskID string) error
	ReorderTasks(ctx context.Context, userID, projectID string, orderedIDs []string) error
}

type ActivityRepository interface {
	CreateActivity(ctx context.Context, activity *model.Activity) error
	ListActivities(ctx context.Context, viewerID, targetUserID string) ([]model.Activity, error)
	ToggleLike(ctx context.Context, viewerID, activityID string) (*model.LikeResult, error)
}

type PublicRepository interface {
	ListPublicProjects(ctx context.Context, certificationID string) ([]model.Project, error)
	GetPublicProject(ctx context.Context, projectID string) (*model.Project, error)
	ListPublicTasks(ctx context.Context, projectID string) ([]model.PublicTask, error)
}
