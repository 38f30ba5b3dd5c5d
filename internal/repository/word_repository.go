package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/langufy-api/internal/models"
)

const wordWithCategorySelect = `SELECT w.id, w.english, w.uzbek, w.definition, w.category_id, w.created_at, w.updated_at,
c.name AS category_name, c.created_at AS category_created_at, c.updated_at AS category_updated_at
FROM words w
JOIN categories c ON c.id = w.category_id`

type wordRow struct {
	models.Word
	CategoryName      string    `db:"category_name"`
	CategoryCreatedAt time.Time `db:"category_created_at"`
	CategoryUpdatedAt time.Time `db:"category_updated_at"`
}

func (r wordRow) toModel() models.Word {
	word := r.Word
	word.Category = &models.Category{
		ID:        r.CategoryID,
		Name:      r.CategoryName,
		CreatedAt: r.CategoryCreatedAt,
		UpdatedAt: r.CategoryUpdatedAt,
	}
	return word
}

func toWords(rows []wordRow) []models.Word {
	words := make([]models.Word, 0, len(rows))
	for _, row := range rows {
		words = append(words, row.toModel())
	}
	return words
}

// WordRepository persists dictionary words.
type WordRepository struct {
	db *sqlx.DB
}

// NewWordRepository constructs a WordRepository.
func NewWordRepository(db *sqlx.DB) *WordRepository {
	return &WordRepository{db: db}
}

// Create inserts a word. A missing category yields ErrMissingReference.
func (r *WordRepository) Create(ctx context.Context, word *models.Word) error {
	stampNewWord(word)
	if _, err := r.db.NamedExecContext(ctx, insertWordQuery, word); err != nil {
		return fmt.Errorf("create word: %w", translate(err, true))
	}
	return nil
}

// CreateBatch inserts all words in one transaction.
func (r *WordRepository) CreateBatch(ctx context.Context, words []*models.Word) (err error) {
	if len(words) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin word batch transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareNamedContext(ctx, insertWordQuery)
	if err != nil {
		return fmt.Errorf("prepare word insert: %w", err)
	}
	defer stmt.Close()

	for _, word := range words {
		stampNewWord(word)
		if _, err = stmt.ExecContext(ctx, word); err != nil {
			err = translate(err, true)
			return fmt.Errorf("insert word %q: %w", word.English, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit word batch: %w", err)
	}
	return nil
}

// CreateInCategoryNamed resolves or creates the named category and inserts
// the word under it, atomically.
func (r *WordRepository) CreateInCategoryNamed(ctx context.Context, categoryName string, word *models.Word) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin word transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	category, err := getOrCreateCategory(ctx, tx, categoryName)
	if err != nil {
		return err
	}

	word.CategoryID = category.ID
	stampNewWord(word)
	if _, err = tx.NamedExecContext(ctx, insertWordQuery, word); err != nil {
		err = translate(err, true)
		return fmt.Errorf("create word: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit word: %w", err)
	}
	word.Category = category
	return nil
}

// FindByID returns a word with its category.
func (r *WordRepository) FindByID(ctx context.Context, id string) (*models.Word, error) {
	var row wordRow
	if err := r.db.GetContext(ctx, &row, wordWithCategorySelect+` WHERE w.id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find word: %w", err)
	}
	word := row.toModel()
	return &word, nil
}

// List returns every word with its category in creation order.
func (r *WordRepository) List(ctx context.Context) ([]models.Word, error) {
	var rows []wordRow
	if err := r.db.SelectContext(ctx, &rows, wordWithCategorySelect+` ORDER BY w.created_at, w.id`); err != nil {
		return nil, fmt.Errorf("list words: %w", err)
	}
	return toWords(rows), nil
}

// ListByCategory returns the words of one category in creation order.
func (r *WordRepository) ListByCategory(ctx context.Context, categoryID string) ([]models.Word, error) {
	var rows []wordRow
	query := wordWithCategorySelect + ` WHERE w.category_id = $1 ORDER BY w.created_at, w.id`
	if err := r.db.SelectContext(ctx, &rows, query, categoryID); err != nil {
		return nil, fmt.Errorf("list category words: %w", err)
	}
	return toWords(rows), nil
}

// Search returns words whose English term contains term, case-insensitively.
// LIKE wildcards in term match literally.
func (r *WordRepository) Search(ctx context.Context, term string) ([]models.Word, error) {
	var rows []wordRow
	query := wordWithCategorySelect + ` WHERE w.english ILIKE $1 ESCAPE '\' ORDER BY w.created_at, w.id`
	if err := r.db.SelectContext(ctx, &rows, query, "%"+EscapeLike(term)+"%"); err != nil {
		return nil, fmt.Errorf("search words: %w", err)
	}
	return toWords(rows), nil
}

// Update persists word changes.
func (r *WordRepository) Update(ctx context.Context, word *models.Word) error {
	word.UpdatedAt = time.Now().UTC()
	const query = `UPDATE words SET english = :english, uzbek = :uzbek, definition = :definition, category_id = :category_id, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, word)
	if err != nil {
		return fmt.Errorf("update word: %w", translate(err, true))
	}
	return requireAffected(res)
}

// Delete removes a word.
func (r *WordRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM words WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete word: %w", err)
	}
	return requireAffected(res)
}

// EscapeLike escapes LIKE metacharacters using backslash.
func EscapeLike(term string) string {
	return likeEscaper.Replace(term)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

const insertWordQuery = `INSERT INTO words (id, english, uzbek, definition, category_id, created_at, updated_at)
VALUES (:id, :english, :uzbek, :definition, :category_id, :created_at, :updated_at)`

func stampNewWord(word *models.Word) {
	if word.ID == "" {
		word.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	word.CreatedAt = now
	word.UpdatedAt = now
}
