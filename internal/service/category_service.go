package service

import (
	"context"

	"sitehub/internal/models"
	"sitehub/internal/repository"
	"sitehub/internal/validation"
)

type CategoryService struct {
	repo repository.CategoryRepository
}

func NewCategoryService(repo repository.CategoryRepository) *CategoryService {
	return &CategoryService{repo: repo}
}

func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	return s.repo.List(ctx)
}

func (s *CategoryService) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	return s.repo.GetBySlug(ctx, slug)
}

// Create stores a category, deriving its slug from the name when none is given.
func (s *CategoryService) Create(ctx context.Context, form validation.CategoryForm) (*models.Category, error) {
	if err := validation.Check(&form).Err(); err != nil {
		return nil, err
	}
	category := &models.Category{Name: form.Name, Slug: models.Slugify(form.Slug)}
	category.EnsureSlug()
	if category.Slug == "" {
		return nil, models.NewFieldValidationError(map[string][]string{"name": {"Enter a name containing letters or numbers."}})
	}
	if err := s.repo.Create(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// Rename changes a category's name and keeps its slug.
func (s *CategoryService) Rename(ctx context.Context, id uint, form validation.CategoryForm) (*models.Category, error) {
	if err := validation.Check(&form).Err(); err != nil {
		return nil, err
	}
	category, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	category.Name = form.Name
	if err := s.repo.Update(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *CategoryService) Delete(ctx context.Context, id uint) error {
	return s.repo.Delete(ctx, id)
}
