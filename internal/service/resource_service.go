package service

import (
	"context"
	"fmt"
	"log/slog"

	app_errors "velym/backend/internal/errors"
	"velym/backend/internal/model"
	"velym/backend/internal/repository"
	"velym/backend/internal/resources"
)

type ResourceService struct {
	repo      repository.ResourceRepository
	catalogue *resources.Catalogue
}

func NewResourceService(repo repository.ResourceRepository, catalogue *resources.Catalogue) *ResourceService {
	return &ResourceService{repo: repo, catalogue: catalogue}
}

// Seed inserts catalogue entries missing from the store.
func (s *ResourceService) Seed(ctx context.Context) error {
	if err := s.repo.SeedResources(ctx, s.catalogue.Resources); err != nil {
		return fmt.Errorf("could not seed resources: %w", err)
	}
	slog.Info("Resource directory seeded", "entries", len(s.catalogue.Resources))
	return nil
}

// MentalHealth lists resources, optionally narrowed to a category and a
// free-text query.
func (s *ResourceService) MentalHealth(ctx context.Context, category, query string) ([]model.Resource, error) {
	if category != "" && category != "All" && !resources.ValidCategory(category) {
		return nil, fmt.Errorf("%w: unknown category %q", app_errors.ErrValidation, category)
	}
	if category == "All" {
		category = ""
	}
	list, err := s.repo.ListResources(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("could not list resources: %w", err)
	}
	return resources.Search(list, query), nil
}

// Tools returns the external tool directory.
func (s *ResourceService) Tools() []model.ToolGroup {
	return s.catalogue.Tools
}
