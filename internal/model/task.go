package model

import "time"

// Task is a unit of study work inside a project.
//
// Completion state machine:
//
//	incomplete -> complete    sets CompletedAt
//	complete   -> incomplete  clears CompletedAt and forces IsPublic=false
//
// so IsPublic implies IsCompleted at all times.
type Task struct {
	ID             string     `json:"id"`
	UserID         string     `json:"userId"`
	ProjectID      string     `json:"projectId"`
	Title          string     `json:"title"`
	Description    *string    `json:"description"`
	EstimatedHours int        `json:"estimatedHours"`
	IsCompleted    bool       `json:"isCompleted"`
	CompletedAt    *time.Time `json:"completedAt"`
	IsPublic       bool       `json:"isPublic"`
	OrderIndex     int        `json:"orderIndex"`
	Notes          *string    `json:"notes"`
	CopyCount      int        `json:"copyCount"`
	OriginalTaskID *string    `json:"originalTaskId"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// SetCompleted applies a completion transition. It reports whether the
// completion flag actually changed. Setting the current value is a no-op.
func (t *Task) SetCompleted(completed bool, now time.Time) bool {
	if t.IsCompleted == completed {
		return false
	}
	t.IsCompleted = completed
	if completed {
		at := now
		t.CompletedAt = &at
	} else {
		t.CompletedAt = nil
		t.IsPublic = false
	}
	return true
}

// TaskUpdate carries a partial update. Nil fields are left untouched.
type TaskUpdate struct {
	Title          *string
	Description    *string
	EstimatedHours *int
	IsCompleted    *bool
	IsPublic       *bool
	OrderIndex     *int
	Notes          *string
}

// PublicTask is the projection of a task shown to other users.
type PublicTask struct {
	ID             string     `json:"id"`
	ProjectID      string     `json:"projectId"`
	Title          string     `json:"title"`
	Description    *string    `json:"description"`
	EstimatedHours int        `json:"estimatedHours"`
	IsCompleted    bool       `json:"isCompleted"`
	CompletedAt    *time.Time `json:"completedAt"`
	OrderIndex     int        `json:"orderIndex"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// PublicProject is a public project together with its public tasks.
type PublicProject struct {
	Project
	Tasks []PublicTask `json:"tasks"`
}
