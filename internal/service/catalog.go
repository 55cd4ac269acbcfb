package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/cert-tracker/internal/apperror"
	"github.com/sakif/cert-tracker/internal/cache"
	"github.com/sakif/cert-tracker/internal/model"
	"github.com/sakif/cert-tracker/internal/repository"
)

const (
	catalogCacheKey = "catalog:active"
	catalogCacheTTL = 10 * time.Minute
)

// CatalogService serves the read-only certification catalog.
type CatalogService struct {
	certs  repository.CertificationRepository
	cache  cache.Cache
	logger *slog.Logger
}

func NewCatalogService(certs repository.CertificationRepository, c cache.Cache, logger *slog.Logger) *CatalogService {
	if c == nil {
		c = cache.Noop{}
	}
	return &CatalogService{certs: certs, cache: c, logger: logger}
}

// List returns the active certifications. A cache failure is logged and the
// database is used instead.
func (s *CatalogService) List(ctx context.Context) ([]model.Certification, error) {
	if b, ok, err := s.cache.Get(ctx, catalogCacheKey); err != nil {
		s.logger.Warn("catalog cache read failed", slog.String("error", err.Error()))
	} else if ok {
		var certs []model.Certification
		if err := json.Unmarshal(b, &certs); err == nil {
			return certs, nil
		}
		s.logger.Warn("discarding undecodable catalog cache entry")
	}

	certs, err := s.certs.ListActiveCertifications(ctx)
	if err != nil {
		s.logger.Error("failed to list certifications", slog.String("error", err.Error()))
		return nil, fmt.Errorf("service/catalog: listing certifications: %w", err)
	}

	if b, err := json.Marshal(certs); err == nil {
		if err := s.cache.Set(ctx, catalogCacheKey, b, catalogCacheTTL); err != nil {
			s.logger.Warn("catalog cache write failed", slog.String("error", err.Error()))
		}
	}
	return certs, nil
}

func (s *CatalogService) Get(ctx context.Context, id string) (*model.Certification, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "certification ID is required")
	}
	return s.certs.GetCertification(ctx, id)
}

// Seed upserts catalog entries by ID and drops the cached list. Every entry is
// validated before anything is written.
func (s *CatalogService) Seed(ctx context.Context, certs []model.Certification) (int, error) {
	for i := range certs {
		c := &certs[i]
		c.ID = strings.TrimSpace(c.ID)
		c.Name = strings.TrimSpace(c.Name)
		if c.ID == "" {
			return 0, apperror.ValidationFailed("id", fmt.Sprintf("certification #%d has no id", i+1))
		}
		if c.Name == "" {
			return 0, apperror.ValidationFailed("name", fmt.Sprintf("certification %s has no name", c.ID))
		}
		if c.EstimatedPeriod < 0 {
			return 0, apperror.ValidationFailed("estimatedPeriod",
				fmt.Sprintf("certification %s has a negative estimated period", c.ID))
		}
	}

	for i := range certs {
		if err := s.certs.UpsertCertification(ctx, &certs[i]); err != nil {
			return i, fmt.Errorf("service/catalog: seeding %s: %w", certs[i].ID, err)
		}
	}

	if err := s.cache.Delete(ctx, catalogCacheKey); err != nil {
		s.logger.Warn("catalog cache invalidation failed", slog.String("error", err.Error()))
	}

	s.logger.Info("catalog seeded", slog.Int("count", len(certs)))
	return len(certs), nil
}
