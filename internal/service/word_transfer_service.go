package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/langufy-api/internal/dto"
	"github.com/noah-isme/langufy-api/internal/models"
	"github.com/noah-isme/langufy-api/internal/repository"
	appErrors "github.com/noah-isme/langufy-api/pkg/errors"
	"github.com/noah-isme/langufy-api/pkg/export"
	"github.com/noah-isme/langufy-api/pkg/importer"
)

// MaxImportRows bounds a single word list upload.
const MaxImportRows = 5000

var wordExportHeaders = []string{"English", "Uzbek", "Definition"}

type wordBatchRepository interface {
	CreateBatch(ctx context.Context, words []*models.Word) error
	ListByCategory(ctx context.Context, categoryID string) ([]models.Word, error)
}

// WordTransferService imports word lists into a category and exports a
// category's words as documents.
type WordTransferService struct {
	words      wordBatchRepository
	categories wordCategoryLookup
	cache      *CacheService
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewWordTransferService constructs a WordTransferService.
func NewWordTransferService(words wordBatchRepository, categories wordCategoryLookup, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *WordTransferService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WordTransferService{words: words, categories: categories, cache: cache, validator: newValidator(validate), logger: logger}
}

// Import parses an uploaded XLSX or CSV file and inserts its valid rows into
// the category in one transaction. Invalid rows are reported and skipped.
func (s *WordTransferService) Import(ctx context.Context, categoryID, filename string, r io.Reader) (*dto.ImportWordsResult, error) {
	category, err := s.category(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	format, err := importer.FormatFromFilename(filename)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "file must be .xlsx or .csv")
	}
	rows, err := importer.Parse(r, format)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "could not read uploaded file")
	}
	if len(rows) > MaxImportRows {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("upload has %d rows, at most %d are allowed", len(rows), MaxImportRows))
	}

	result := &dto.ImportWordsResult{CategoryID: category.ID, Processed: len(rows), Errors: []dto.ImportRowError{}}
	words := make([]*models.Word, 0, len(rows))
	for _, row := range rows {
		req := models.CreateWordRequest{English: row.English, Uzbek: row.Uzbek, CategoryID: category.ID}
		if row.Definition != "" {
			definition := row.Definition
			req.Definition = &definition
		}
		if err := s.validator.Struct(req); err != nil {
			result.Errors = append(result.Errors, dto.ImportRowError{Line: row.Line, Message: rowProblem(err)})
			continue
		}
		words = append(words, &models.Word{
			English:    req.English,
			Uzbek:      req.Uzbek,
			Definition: req.Definition,
			CategoryID: category.ID,
		})
	}

	if err := s.words.CreateBatch(ctx, words); err != nil {
		if errors.Is(err, repository.ErrMissingReference) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "category not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to import words")
	}
	result.Created = len(words)
	result.Skipped = len(result.Errors)
	if result.Created > 0 {
		s.cache.InvalidateDictionary(ctx)
	}

	s.logger.Info("imported word list",
		zap.String("category_id", category.ID),
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

// Export renders the category's words as CSV or PDF.
func (s *WordTransferService) Export(ctx context.Context, categoryID, rawFormat string) (*export.Document, error) {
	format, err := export.ParseFormat(rawFormat)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "format must be csv or pdf")
	}

	category, err := s.category(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	words, err := s.words.ListByCategory(ctx, category.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list category words")
	}

	data := export.Dataset{
		Title:   category.Name,
		Headers: wordExportHeaders,
		Rows:    make([]map[string]string, 0, len(words)),
	}
	for _, word := range words {
		definition := ""
		if word.Definition != nil {
			definition = *word.Definition
		}
		data.Rows = append(data.Rows, map[string]string{
			"English":    word.English,
			"Uzbek":      word.Uzbek,
			"Definition": definition,
		})
	}

	doc, err := export.Render(format, category.Name+" words", data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	return doc, nil
}

func (s *WordTransferService) category(ctx context.Context, id string) (*models.Category, error) {
	category, err := s.categories.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "category not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load category")
	}
	return category, nil
}

func rowProblem(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err.Error()
	}
	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		problems = append(problems, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return strings.Join(problems, "; ")
}
