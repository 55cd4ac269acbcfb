package model

import "time"

// Activity is a community feed post about progress on a project.
//
// CompletedTaskTitle is a text snapshot, not a reference: renaming or deleting
// the task later does not change the post.
type Activity struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"userId"`
	ProjectID          string    `json:"projectId"`
	CompletedTaskTitle *string   `json:"completedTaskTitle"`
	Message            *string   `json:"message"`
	LikesCount         int       `json:"likesCount"`
	CreatedAt          time.Time `json:"createdAt"`

	// Joined for feed reads.
	PosterName   string `json:"posterName,omitempty"`
	PosterAvatar string `json:"posterAvatar,omitempty"`
	ProjectName  string `json:"projectName,omitempty"`
	IsLiked      bool   `json:"isLiked"`
}

// LikeResult is the state of a (viewer, activity) pair after a toggle.
type LikeResult struct {
	ActivityID string `json:"activityId"`
	Liked      bool   `json:"liked"`
	LikesCount int    `json:"likesCount"`
}
