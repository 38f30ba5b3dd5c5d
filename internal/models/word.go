package models

import "time"

// Word is a dictionary entry translating an English term into Uzbek.
type Word struct {
	ID         string    `db:"id" json:"id"`
	English    string    `db:"english" json:"english"`
	Uzbek      string    `db:"uzbek" json:"uzbek"`
	Definition *string   `db:"definition" json:"definition,omitempty"`
	CategoryID string    `db:"category_id" json:"category_id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
	Category   *Category `db:"-" json:"category,omitempty"`
}

// CreateWordRequest payload for creating a word.
type CreateWordRequest struct {
	English    string  `json:"english" validate:"required,min=1,max=255"`
	Uzbek      string  `json:"uzbek" validate:"required,min=1,max=255"`
	Definition *string `json:"definition"`
	CategoryID string  `json:"category_id" validate:"required,uuid"`
}

// UpdateWordRequest is a partial update; nil fields are left unchanged.
type UpdateWordRequest struct {
	English    *string `json:"english" validate:"omitempty,min=1,max=255"`
	Uzbek      *string `json:"uzbek" validate:"omitempty,min=1,max=255"`
	Definition *string `json:"definition"`
	CategoryID *string `json:"category_id" validate:"omitempty,uuid"`
}
