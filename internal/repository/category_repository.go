package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/langufy-api/internal/models"
)

const categoryColumns = `id, name, created_at, updated_at`

// CategoryRepository persists dictionary categories.
type CategoryRepository struct {
	db *sqlx.DB
}

// NewCategoryRepository constructs a CategoryRepository.
func NewCategoryRepository(db *sqlx.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// Create inserts a category. Duplicate names yield a *DuplicateError.
func (r *CategoryRepository) Create(ctx context.Context, category *models.Category) error {
	if category.ID == "" {
		category.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	category.CreatedAt = now
	category.UpdatedAt = now

	const query = `INSERT INTO categories (id, name, created_at, updated_at) VALUES (:id, :name, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, category); err != nil {
		return fmt.Errorf("create category: %w", translate(err, true))
	}
	return nil
}

// List returns every category ordered by name.
func (r *CategoryRepository) List(ctx context.Context) ([]models.Category, error) {
	const query = `SELECT ` + categoryColumns + ` FROM categories ORDER BY name`
	categories := []models.Category{}
	if err := r.db.SelectContext(ctx, &categories, query); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// FindByID returns a category by identifier.
func (r *CategoryRepository) FindByID(ctx context.Context, id string) (*models.Category, error) {
	const query = `SELECT ` + categoryColumns + ` FROM categories WHERE id = $1`
	var category models.Category
	if err := r.db.GetContext(ctx, &category, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find category: %w", err)
	}
	return &category, nil
}

// Update renames a category.
func (r *CategoryRepository) Update(ctx context.Context, category *models.Category) error {
	category.UpdatedAt = time.Now().UTC()
	const query = `UPDATE categories SET name = :name, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, category)
	if err != nil {
		return fmt.Errorf("update category: %w", translate(err, true))
	}
	return requireAffected(res)
}

// Delete removes a category. It fails with ErrReferenced while words remain.
func (r *CategoryRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", translate(err, false))
	}
	return requireAffected(res)
}

// CountWords returns how many words reference the category.
func (r *CategoryRepository) CountWords(ctx context.Context, id string) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM words WHERE category_id = $1`, id); err != nil {
		return 0, fmt.Errorf("count category words: %w", err)
	}
	return total, nil
}

// getOrCreateCategory resolves a category by name inside tx, inserting it
// first when absent. Concurrent callers converge on the same row.
func getOrCreateCategory(ctx context.Context, tx *sqlx.Tx, name string) (*models.Category, error) {
	now := time.Now().UTC()
	const insert = `INSERT INTO categories (id, name, created_at, updated_at) VALUES ($1, $2, $3, $3) ON CONFLICT (name) DO NOTHING`
	if _, err := tx.ExecContext(ctx, insert, uuid.NewString(), name, now); err != nil {
		return nil, fmt.Errorf("insert category: %w", err)
	}

	var category models.Category
	const query = `SELECT ` + categoryColumns + ` FROM categories WHERE name = $1`
	if err := tx.GetContext(ctx, &category, query, name); err != nil {
		return nil, fmt.Errorf("resolve category: %w", err)
	}
	return &category, nil
}
