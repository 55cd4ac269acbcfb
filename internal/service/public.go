package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/sakif/cert-tracker/internal/apperror"
	"github.com/sakif/cert-tracker/internal/model"
	"github.com/sakif/cert-tracker/internal/repository"
)

// publicFanOut bounds concurrent task reads when assembling the public view.
const publicFanOut = 4

// PublicService exposes other users' public progress. It never returns
// private projects or non-public tasks.
type PublicService struct {
	public repository.PublicRepository
	logger *slog.Logger
}

func NewPublicService(public repository.PublicRepository, logger *slog.Logger) *PublicService {
	return &PublicService{public: public, logger: logger}
}

// ListProjects returns the public projects for a certification, each with its
// public tasks. Task lists are fetched concurrently; the first failure
// cancels the rest.
func (s *PublicService) ListProjects(ctx context.Context, certificationID string) ([]model.PublicProject, error) {
	certificationID = strings.TrimSpace(certificationID)
	if certificationID == "" {
		return nil, apperror.ValidationFailed("certificationId", "certification ID is required")
	}

	projects, err := s.public.ListPublicProjects(ctx, certificationID)
	if err != nil {
		s.logger.Error("failed to list public projects",
			slog.String("certificationID", certificationID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/public: listing projects: %w", err)
	}

	out := make([]model.PublicProject, len(projects))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(publicFanOut)

	for i := range projects {
		out[i].Project = projects[i]
		g.Go(func() error {
			tasks, err := s.public.ListPublicTasks(gctx, projects[i].ID)
			if err != nil {
				return fmt.Errorf("service/public: listing tasks of %s: %w", projects[i].ID, err)
			}
			out[i].Tasks = tasks
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Error("failed to assemble public view", slog.String("error", err.Error()))
		return nil, err
	}
	return out, nil
}

// ListTasks returns the public tasks of a public project. A private or
// missing project is NotFound.
func (s *PublicService) ListTasks(ctx context.Context, projectID string) ([]model.PublicTask, error) {
	if _, err := s.public.GetPublicProject(ctx, projectID); err != nil {
		return nil, err
	}
	tasks, err := s.public.ListPublicTasks(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("service/public: listing tasks of %s: %w", projectID, err)
	}
	return tasks, nil
}
