package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/sakif/cert-tracker/internal/apperror"
	"github.com/sakif/cert-tracker/internal/model"
	"github.com/sakif/cert-tracker/internal/repository"
)

const MaxActivityMessageLength = 1000

type CreateActivityInput struct {
	ProjectID          string
	CompletedTaskTitle *string
	Message            *string
}

// ActivityService manages the community feed.
type ActivityService struct {
	activities repository.ActivityRepository
	logger     *slog.Logger
}

func NewActivityService(activities repository.ActivityRepository, logger *slog.Logger) *ActivityService {
	return &ActivityService{activities: activities, logger: logger}
}

// List returns targetUserID's posts as seen by viewerID. An empty target
// means the viewer's own feed.
func (s *ActivityService) List(ctx context.Context, viewerID, targetUserID string) ([]model.Activity, error) {
	target := strings.TrimSpace(targetUserID)
	if target == "" {
		target = viewerID
	}

	activities, err := s.activities.ListActivities(ctx, viewerID, target)
	if err != nil {
		s.logger.Error("failed to list activities",
			slog.String("target", target),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/activity: listing activities: %w", err)
	}
	return activities, nil
}

// Create posts progress on one of the poster's own projects.
func (s *ActivityService) Create(ctx context.Context, posterID string, in CreateActivityInput) (*model.Activity, error) {
	projectID := strings.TrimSpace(in.ProjectID)
	if projectID == "" {
		return nil, apperror.ValidationFailed("projectId", "project is required")
	}
	message := trimOptional(in.Message)
	if message != nil && utf8.RuneCountInString(*message) > MaxActivityMessageLength {
		return nil, apperror.ValidationFailed("message",
			fmt.Sprintf("message must be %d characters or less", MaxActivityMessageLength))
	}

	activity := &model.Activity{
		UserID:             posterID,
		ProjectID:          projectID,
		CompletedTaskTitle: trimOptional(in.CompletedTaskTitle),
		Message:            message,
	}
	if err := s.activities.CreateActivity(ctx, activity); err != nil {
		return nil, err
	}

	s.logger.Info("activity created",
		slog.String("id", activity.ID),
		slog.String("userID", posterID),
	)
	return activity, nil
}

// ToggleLike likes the activity for viewerID, or removes the like if it is
// already there.
func (s *ActivityService) ToggleLike(ctx context.Context, viewerID, activityID string) (*model.LikeResult, error) {
	if strings.TrimSpace(viewerID) == "" {
		return nil, apperror.DomainRule("sign in to like activities")
	}
	activityID = strings.TrimSpace(activityID)
	if activityID == "" {
		return nil, apperror.ValidationFailed("id", "activity ID is required")
	}

	res, err := s.activities.ToggleLike(ctx, viewerID, activityID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("like toggled",
		slog.String("activityID", activityID),
		slog.Bool("liked", res.Liked),
	)
	return res, nil
}
