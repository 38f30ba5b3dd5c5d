package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/langufy-api/internal/ai"
	"github.com/noah-isme/langufy-api/internal/dto"
	"github.com/noah-isme/langufy-api/internal/models"
	"github.com/noah-isme/langufy-api/internal/repository"
	appErrors "github.com/noah-isme/langufy-api/pkg/errors"
)

// DefaultFallbackCategory holds words synthesised by the definition provider.
const DefaultFallbackCategory = "Gemini Generated"

type wordRepository interface {
	Create(ctx context.Context, word *models.Word) error
	CreateInCategoryNamed(ctx context.Context, categoryName string, word *models.Word) error
	FindByID(ctx context.Context, id string) (*models.Word, error)
	List(ctx context.Context) ([]models.Word, error)
	Search(ctx context.Context, term string) ([]models.Word, error)
	Update(ctx context.Context, word *models.Word) error
	Delete(ctx context.Context, id string) error
}

type wordCategoryLookup interface {
	FindByID(ctx context.Context, id string) (*models.Category, error)
}

// DefinitionProvider synthesises a translation for a term missing from the
// dictionary.
type DefinitionProvider interface {
	Define(ctx context.Context, term string) (*ai.Definition, error)
}

// WordConfig tunes the lookup fallback.
type WordConfig struct {
	FallbackCategory string
	// ExposeUpstreamDetails attaches provider status and payload to errors.
	ExposeUpstreamDetails bool
}

// WordService manages dictionary words and the lookup fallback.
type WordService struct {
	repo       wordRepository
	categories wordCategoryLookup
	provider   DefinitionProvider
	cache      *CacheService
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
	cfg        WordConfig
}

// NewWordService constructs a WordService. cache and metrics may be nil.
func NewWordService(repo wordRepository, categories wordCategoryLookup, provider DefinitionProvider, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg WordConfig) *WordService {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.FallbackCategory = strings.TrimSpace(cfg.FallbackCategory)
	if cfg.FallbackCategory == "" {
		cfg.FallbackCategory = DefaultFallbackCategory
	}
	return &WordService{
		repo:       repo,
		categories: categories,
		provider:   provider,
		cache:      cache,
		metrics:    metrics,
		validator:  newValidator(validate),
		logger:     logger,
		cfg:        cfg,
	}
}

// Search returns the words whose English term contains the query. When the
// dictionary has no match the definition provider is asked once and its
// answer is stored under the fallback category.
func (s *WordService) Search(ctx context.Context, query dto.SearchWordsQuery) ([]models.Word, error) {
	query.Q = strings.TrimSpace(query.Q)
	if err := s.validator.Struct(query); err != nil {
		return nil, validationError(err, "search term must be between 1 and 255 characters")
	}

	words, err := s.repo.Search(ctx, query.Q)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to search words")
	}
	if len(words) > 0 {
		s.metrics.RecordSearch(true)
		return words, nil
	}
	s.metrics.RecordSearch(false)

	definition, err := s.define(ctx, query.Q)
	if err != nil {
		return nil, err
	}

	word := &models.Word{
		English: query.Q,
		Uzbek:   definition.Uzbek,
	}
	if text := strings.TrimSpace(definition.Definition); text != "" {
		word.Definition = &text
	}
	if err := s.repo.CreateInCategoryNamed(ctx, s.cfg.FallbackCategory, word); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store generated word")
	}
	s.cache.InvalidateDictionary(ctx)

	s.logger.Info("stored generated word",
		zap.String("term", word.English),
		zap.String("word_id", word.ID),
		zap.String("category", s.cfg.FallbackCategory),
	)
	return []models.Word{*word}, nil
}

func (s *WordService) define(ctx context.Context, term string) (*ai.Definition, error) {
	start := time.Now()
	definition, err := s.provider.Define(ctx, term)
	elapsed := time.Since(start)
	if err == nil {
		s.metrics.ObserveProviderCall(ProviderOutcomeSuccess, elapsed)
		return definition, nil
	}

	var upstream *ai.UpstreamError
	var malformed *ai.MalformedResponseError
	switch {
	case errors.As(err, &malformed):
		s.metrics.ObserveProviderCall(ProviderOutcomeMalformed, elapsed)
		s.logger.Warn("malformed definition provider response", zap.String("term", term), zap.Error(err))
		appErr := appErrors.Wrap(err, appErrors.ErrMalformedUpstream.Code, appErrors.ErrMalformedUpstream.Status, appErrors.ErrMalformedUpstream.Message)
		if s.cfg.ExposeUpstreamDetails {
			appErr.Details = map[string]string{"raw": malformed.Raw}
		}
		return nil, appErr
	case errors.As(err, &upstream):
		s.metrics.ObserveProviderCall(ProviderOutcomeUpstream, elapsed)
		s.logger.Warn("definition provider call failed", zap.String("term", term), zap.Int("status", upstream.StatusCode), zap.Error(err))
		appErr := appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, appErrors.ErrUpstream.Message)
		if s.cfg.ExposeUpstreamDetails {
			appErr.Details = map[string]interface{}{"status": upstream.StatusCode, "body": upstream.Body}
		}
		return nil, appErr
	default:
		s.metrics.ObserveProviderCall(ProviderOutcomeUpstream, elapsed)
		s.logger.Warn("definition provider call failed", zap.String("term", term), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, appErrors.ErrUpstream.Message)
	}
}

// Create stores a word in an existing category.
func (s *WordService) Create(ctx context.Context, req models.CreateWordRequest) (*models.Word, error) {
	req.English = strings.TrimSpace(req.English)
	req.Uzbek = strings.TrimSpace(req.Uzbek)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid word payload")
	}

	category, err := s.requireCategory(ctx, req.CategoryID)
	if err != nil {
		return nil, err
	}

	word := &models.Word{
		English:    req.English,
		Uzbek:      req.Uzbek,
		Definition: req.Definition,
		CategoryID: category.ID,
	}
	if err := s.repo.Create(ctx, word); err != nil {
		if errors.Is(err, repository.ErrMissingReference) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "category not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create word")
	}
	word.Category = category
	s.cache.InvalidateDictionary(ctx)
	return word, nil
}

// List returns every word with its category. The second value reports a
// cache hit.
func (s *WordService) List(ctx context.Context) ([]models.Word, bool, error) {
	var cached []models.Word
	if s.cache.Get(ctx, cacheKeyWords, &cached) {
		return cached, true, nil
	}

	words, err := s.repo.List(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list words")
	}
	s.cache.Set(ctx, cacheKeyWords, words)
	return words, false, nil
}

// Get returns a word by ID.
func (s *WordService) Get(ctx context.Context, id string) (*models.Word, error) {
	word, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "word not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load word")
	}
	return word, nil
}

// Update applies a partial update. The category is re-validated on every
// update, even when unchanged.
func (s *WordService) Update(ctx context.Context, id string, req models.UpdateWordRequest) (*models.Word, error) {
	if req.English != nil {
		trimmed := strings.TrimSpace(*req.English)
		req.English = &trimmed
	}
	if req.Uzbek != nil {
		trimmed := strings.TrimSpace(*req.Uzbek)
		req.Uzbek = &trimmed
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid word payload")
	}

	word, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.English != nil {
		word.English = *req.English
	}
	if req.Uzbek != nil {
		word.Uzbek = *req.Uzbek
	}
	if req.Definition != nil {
		word.Definition = req.Definition
	}
	if req.CategoryID != nil {
		word.CategoryID = *req.CategoryID
	}

	category, err := s.requireCategory(ctx, word.CategoryID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, word); err != nil {
		switch {
		case errors.Is(err, repository.ErrMissingReference):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "category not found")
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "word not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update word")
	}
	word.Category = category
	s.cache.InvalidateDictionary(ctx)
	return word, nil
}

// Delete removes a word.
func (s *WordService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "word not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete word")
	}
	s.cache.InvalidateDictionary(ctx)
	return nil
}

func (s *WordService) requireCategory(ctx context.Context, id string) (*models.Category, error) {
	category, err := s.categories.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "category not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load category")
	}
	return category, nil
}
