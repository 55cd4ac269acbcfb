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

const MaxProjectNameLength = 200

// CreateProjectInput is the data a user supplies for a new project.
type CreateProjectInput struct {
	CertificationID string
	Name            string
	TargetDate      *time.Time
}

// ProjectService manages a user's study projects.
type ProjectService struct {
	projects repository.ProjectRepository
	certs    repository.CertificationRepository
	logger   *slog.Logger
	now      func() time.Time
}

func NewProjectService(projects repository.ProjectRepository, certs repository.CertificationRepository, logger *slog.Logger) *ProjectService {
	return &ProjectService{
		projects: projects,
		certs:    certs,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *ProjectService) List(ctx context.Context, userID string) ([]model.Project, error) {
	projects, err := s.projects.ListProjects(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list projects",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/project: listing projects: %w", err)
	}
	return projects, nil
}

func (s *ProjectService) Get(ctx context.Context, userID, projectID string) (*model.Project, error) {
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return nil, apperror.ValidationFailed("id", "project ID is required")
	}
	return s.projects.GetProject(ctx, userID, projectID)
}

// Create starts a project for a certification. Without an explicit target
// date the deadline is today plus the certification's estimated period.
func (s *ProjectService) Create(ctx context.Context, userID string, in CreateProjectInput) (*model.Project, error) {
	name, err := validateProjectName(in.Name)
	if err != nil {
		return nil, err
	}
	certID := strings.TrimSpace(in.CertificationID)
	if certID == "" {
		return nil, apperror.ValidationFailed("certificationId", "certification is required")
	}

	cert, err := s.certs.GetCertification(ctx, certID)
	if err != nil {
		return nil, err
	}

	target := in.TargetDate
	if target == nil {
		target = defaultTargetDate(s.now(), cert.EstimatedPeriod)
	}

	project := &model.Project{
		UserID:          userID,
		CertificationID: cert.ID,
		Name:            name,
		TargetDate:      target,
		Status:          model.ProjectActive,
	}
	if err := s.projects.CreateProject(ctx, project); err != nil {
		s.logger.Error("failed to create project",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/project: creating project: %w", err)
	}

	s.logger.Info("project created",
		slog.String("id", project.ID),
		slog.String("userID", userID),
		slog.String("certificationID", cert.ID),
	)

	// Re-read so the response carries the joined certification summary.
	return s.projects.GetProject(ctx, userID, project.ID)
}

// Update applies a partial update and returns the stored project. An empty
// update writes nothing and returns the project as stored.
func (s *ProjectService) Update(ctx context.Context, userID, projectID string, update model.ProjectUpdate) (*model.Project, error) {
	if update.Name != nil {
		name, err := validateProjectName(*update.Name)
		if err != nil {
			return nil, err
		}
		update.Name = &name
	}
	if update.Status != nil && !update.Status.Valid() {
		return nil, apperror.ValidationFailed("status",
			fmt.Sprintf("status must be one of %s, %s, %s", model.ProjectActive, model.ProjectPending, model.ProjectDone))
	}
	if update.StudiedHours != nil && *update.StudiedHours < 0 {
		return nil, apperror.ValidationFailed("studiedHours", "studied hours cannot be negative")
	}

	if update.Empty() {
		return s.projects.GetProject(ctx, userID, projectID)
	}

	if err := s.projects.UpdateProject(ctx, userID, projectID, update); err != nil {
		return nil, err
	}

	s.logger.Info("project updated", slog.String("id", projectID))
	return s.projects.GetProject(ctx, userID, projectID)
}

func (s *ProjectService) Delete(ctx context.Context, userID, projectID string) error {
	if err := s.projects.DeleteProject(ctx, userID, projectID); err != nil {
		return err
	}
	s.logger.Info("project deleted", slog.String("id", projectID))
	return nil
}

// RecomputeProgress re-derives the project's counters from its tasks.
func (s *ProjectService) RecomputeProgress(ctx context.Context, userID, projectID string) (*model.Progress, error) {
	return s.projects.RecomputeProgress(ctx, userID, projectID)
}

func validateProjectName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperror.ValidationFailed("name", "project name is required")
	}
	if utf8.RuneCountInString(name) > MaxProjectNameLength {
		return "", apperror.ValidationFailed("name",
			fmt.Sprintf("project name must be %d characters or less", MaxProjectNameLength))
	}
	return name, nil
}

// defaultTargetDate returns the UTC calendar date periodDays after now, or nil
// when the certification has no estimated period.
func defaultTargetDate(now time.Time, periodDays int) *time.Time {
	if periodDays <= 0 {
		return nil
	}
	y, m, d := now.UTC().Date()
	t := time.Date(y, m, d+periodDays, 0, 0, 0, 0, time.UTC)
	return &t
}
