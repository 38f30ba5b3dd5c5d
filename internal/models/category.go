package models

import "time"

// Category groups dictionary words.
type Category struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// CreateCategoryRequest payload for creating a category.
type CreateCategoryRequest struct {
	Name string `json:"name" validate:"required,min=1,max=255"`
}

// UpdateCategoryRequest is a partial update.
type UpdateCategoryRequest struct {
	Name *string `json:"name" validate:"omitempty,min=1,max=255"`
}
