package services

import (
	"context"
	"errors"
	"strings"

	"cif-onboarding/internal/adapters/persistence/models"
	"cif-onboarding/internal/adapters/persistence/repositories"
	"cif-onboarding/internal/core/domain"
)

const (
	minSearchLength = 2
	maxSearchResult = 50
)

// ErrUnknownOptionCategory is returned for categories the forms do not use
var ErrUnknownOptionCategory = errors.New("unknown option category")

// OptionService serves the reference lists shown in onboarding forms
type OptionService struct {
	optionRepo repositories.OptionRepository
}

// NewOptionService creates a new option service
func NewOptionService(optionRepo repositories.OptionRepository) *OptionService {
	return &OptionService{optionRepo: optionRepo}
}

// List returns every active option of a category
func (s *OptionService) List(ctx context.Context, category string) ([]*models.Option, error) {
	if !domain.OptionCategory(category).Valid() {
		return nil, ErrUnknownOptionCategory
	}
	return s.optionRepo.ListByCategory(ctx, category)
}

// Search filters a category by description. Queries shorter than two
// characters return nothing rather than the whole list.
func (s *OptionService) Search(ctx context.Context, category, query string) ([]*models.Option, error) {
	if !domain.OptionCategory(category).Valid() {
		return nil, ErrUnknownOptionCategory
	}
	query = strings.TrimSpace(query)
	if len([]rune(query)) < minSearchLength {
		return []*models.Option{}, nil
	}
	return s.optionRepo.Search(ctx, category, query, maxSearchResult)
}
