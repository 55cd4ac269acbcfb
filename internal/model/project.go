package model

import (
	"math"
	"time"
)

// ProjectStatus is the lifecycle state a user assigns to a project.
type ProjectStatus string

const (
	ProjectActive  ProjectStatus = "active"
	ProjectPending ProjectStatus = "pending"
	ProjectDone    ProjectStatus = "done"
)

// Valid reports whether s is one of the known statuses.
func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectActive, ProjectPending, ProjectDone:
		return true
	}
	return false
}

// Project is a user's study plan for one certification.
//
// ProgressPercentage, TotalTasks, CompletedTasks and TotalEstimatedHours are
// derived from the project's tasks and only written by progress recomputation.
// TotalTasks and CompletedTasks stay nil until the first recomputation.
// StudiedHours is entered by the user and is independent of the derived fields.
type Project struct {
	ID                  string                `json:"id"`
	UserID              string                `json:"userId"`
	CertificationID     string                `json:"certificationId"`
	Name                string                `json:"name"`
	TargetDate          *time.Time            `json:"targetDate"`
	Status              ProjectStatus         `json:"status"`
	ProgressPercentage  int                   `json:"progressPercentage"`
	TotalTasks          *int                  `json:"totalTasks"`
	CompletedTasks      *int                  `json:"completedTasks"`
	TotalEstimatedHours *int                  `json:"totalEstimatedHours"`
	StudiedHours        int                   `json:"studiedHours"`
	IsPublic            bool                  `json:"isPublic"`
	CreatedAt           time.Time             `json:"createdAt"`
	UpdatedAt           time.Time             `json:"updatedAt"`
	Certification       *CertificationSummary `json:"certification,omitempty"`
	OwnerName           string                `json:"ownerName,omitempty"`
}

// ProjectUpdate carries a partial update. Nil fields are left untouched.
// ClearTargetDate removes the target date and wins over TargetDate.
type ProjectUpdate struct {
	Name            *string
	TargetDate      *time.Time
	ClearTargetDate bool
	Status          *ProjectStatus
	StudiedHours    *int
	IsPublic        *bool
}

// Empty reports whether the update changes nothing.
func (u ProjectUpdate) Empty() bool {
	return u.Name == nil && u.TargetDate == nil && !u.ClearTargetDate &&
		u.Status == nil && u.StudiedHours == nil && u.IsPublic == nil
}

// Progress is the result of counting a project's tasks.
type Progress struct {
	TotalTasks          int `json:"totalTasks"`
	CompletedTasks      int `json:"completedTasks"`
	ProgressPercentage  int `json:"progressPercentage"`
	TotalEstimatedHours int `json:"totalEstimatedHours"`
}

// NewProgress derives the percentage from the counts: 0 when there are no
// tasks, otherwise completed/total*100 rounded half up.
func NewProgress(total, completed, estimatedHours int) Progress {
	return Progress{
		TotalTasks:          total,
		CompletedTasks:      completed,
		ProgressPercentage:  ProgressPercentage(completed, total),
		TotalEstimatedHours: estimatedHours,
	}
}

// ProgressPercentage returns round(completed/total*100), or 0 if total is 0.
func ProgressPercentage(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Floor(float64(completed)/float64(total)*100 + 0.5))
}
