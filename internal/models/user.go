package models

import "time"

// UserRole represents the available roles, ordered from least to most privileged.
type UserRole string

const (
	RoleStudent    UserRole = "student"
	RoleTeacher    UserRole = "teacher"
	RoleAdmin      UserRole = "admin"
	RoleSuperAdmin UserRole = "superadmin"
)

var roleRanks = map[UserRole]int{
	RoleStudent:    1,
	RoleTeacher:    2,
	RoleAdmin:      3,
	RoleSuperAdmin: 4,
}

// Rank returns the privilege level of the role; unknown roles rank 0.
func (r UserRole) Rank() int {
	return roleRanks[r]
}

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	return r.Rank() > 0
}

// HasPermission reports whether r is at least as privileged as required.
func (r UserRole) HasPermission(required UserRole) bool {
	return r.Valid() && r.Rank() >= required.Rank()
}

// UserStatus toggles whether an account may sign in.
type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusInactive UserStatus = "inactive"
)

// User represents an application user stored in the users table.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	Username     string     `db:"username" json:"username"`
	FullName     string     `db:"full_name" json:"full_name"`
	PhoneNumber  string     `db:"phone_number" json:"phone_number"`
	Role         UserRole   `db:"role" json:"role"`
	Status       UserStatus `db:"status" json:"status"`
	PasswordHash string     `db:"password_hash" json:"-"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// IsActive reports whether the account is enabled.
func (u *User) IsActive() bool {
	return u != nil && u.Status == UserStatusActive
}

// UpdateUserRequest is a partial profile update; nil fields are left unchanged.
type UpdateUserRequest struct {
	Email       *string   `json:"email" validate:"omitempty,email,max=255"`
	Username    *string   `json:"username" validate:"omitempty,username"`
	FullName    *string   `json:"full_name" validate:"omitempty,min=1,max=255"`
	PhoneNumber *string   `json:"phone_number" validate:"omitempty,min=1,max=50"`
	Role        *UserRole `json:"role" validate:"omitempty,oneof=student teacher admin superadmin"`
}
