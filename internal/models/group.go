package models

import "time"

// Group is a named set of users administered by its owner.
type Group struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Description  *string   `db:"description" json:"description,omitempty"`
	OwnerID      string    `db:"owner_id" json:"owner_id"`
	MembersCount int       `db:"members_count" json:"members_count"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// MemberSummary is the public view of a group member.
type MemberSummary struct {
	ID       string   `db:"id" json:"id"`
	FullName string   `db:"full_name" json:"full_name"`
	Email    string   `db:"email" json:"email"`
	Role     UserRole `db:"role" json:"role"`
}

// GroupDetail is a group with its member summaries.
type GroupDetail struct {
	Group
	Members []MemberSummary `json:"members"`
}

// CreateGroupRequest payload for creating a group.
type CreateGroupRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=255"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}

// UpdateGroupRequest is a partial update; nil fields are left unchanged.
type UpdateGroupRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}

// GroupMemberRequest identifies the user to add or remove.
type GroupMemberRequest struct {
	UserID string `json:"user_id" validate:"required,uuid"`
}
