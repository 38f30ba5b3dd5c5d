package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/langufy-api/internal/models"
	"github.com/noah-isme/langufy-api/internal/repository"
	appErrors "github.com/noah-isme/langufy-api/pkg/errors"
)

type categoryRepository interface {
	Create(ctx context.Context, category *models.Category) error
	List(ctx context.Context) ([]models.Category, error)
	FindByID(ctx context.Context, id string) (*models.Category, error)
	Update(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, id string) error
	CountWords(ctx context.Context, id string) (int, error)
}

type categoryWordLister interface {
	ListByCategory(ctx context.Context, categoryID string) ([]models.Word, error)
}

// CategoryService manages dictionary categories.
type CategoryService struct {
	repo      categoryRepository
	words     categoryWordLister
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCategoryService constructs a CategoryService. cache may be nil.
func NewCategoryService(repo categoryRepository, words categoryWordLister, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *CategoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CategoryService{repo: repo, words: words, cache: cache, validator: newValidator(validate), logger: logger}
}

// Create stores a new category with a unique name.
func (s *CategoryService) Create(ctx context.Context, req models.CreateCategoryRequest) (*models.Category, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid category payload")
	}

	category := &models.Category{Name: req.Name}
	if err := s.repo.Create(ctx, category); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "category name already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create category")
	}
	s.cache.InvalidateDictionary(ctx)
	return category, nil
}

// List returns every category. The second value reports a cache hit.
func (s *CategoryService) List(ctx context.Context) ([]models.Category, bool, error) {
	var cached []models.Category
	if s.cache.Get(ctx, cacheKeyCategories, &cached) {
		return cached, true, nil
	}

	categories, err := s.repo.List(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list categories")
	}
	s.cache.Set(ctx, cacheKeyCategories, categories)
	return categories, false, nil
}

// Get returns a category by ID.
func (s *CategoryService) Get(ctx context.Context, id string) (*models.Category, error) {
	category, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "category not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load category")
	}
	return category, nil
}

// Update renames a category.
func (s *CategoryService) Update(ctx context.Context, id string, req models.UpdateCategoryRequest) (*models.Category, error) {
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		req.Name = &trimmed
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid category payload")
	}

	category, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name == nil || *req.Name == category.Name {
		return category, nil
	}

	category.Name = *req.Name
	if err := s.repo.Update(ctx, category); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, appErrors.Clone(appErrors.ErrConflict, "category name already exists")
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "category not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update category")
	}
	s.cache.InvalidateDictionary(ctx)
	return category, nil
}

// Delete removes an empty category. Categories still holding words are
// rejected with PRECONDITION_FAILED.
func (s *CategoryService) Delete(ctx context.Context, id string) error {
	category, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	total, err := s.repo.CountWords(ctx, category.ID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count category words")
	}
	if total > 0 {
		return s.inUse(total)
	}

	if err := s.repo.Delete(ctx, category.ID); err != nil {
		switch {
		case errors.Is(err, repository.ErrReferenced):
			return s.inUse(0)
		case errors.Is(err, sql.ErrNoRows):
			return appErrors.Clone(appErrors.ErrNotFound, "category not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete category")
	}
	s.cache.InvalidateDictionary(ctx)
	return nil
}

// ListWords returns the words of a category. The second value reports a
// cache hit.
func (s *CategoryService) ListWords(ctx context.Context, id string) ([]models.Word, bool, error) {
	key := categoryWordsCacheKey(id)
	var cached []models.Word
	if s.cache.Get(ctx, key, &cached) {
		return cached, true, nil
	}

	category, err := s.Get(ctx, id)
	if err != nil {
		return nil, false, err
	}
	words, err := s.words.ListByCategory(ctx, category.ID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list category words")
	}
	s.cache.Set(ctx, key, words)
	return words, false, nil
}

func (s *CategoryService) inUse(total int) error {
	appErr := appErrors.Clone(appErrors.ErrPreconditionFailed, "category still has words")
	if total > 0 {
		appErr.Details = map[string]int{"words": total}
	}
	return appErr
}
