package models

import "github.com/golang-jwt/jwt/v5"

// Token types carried in the "typ" claim.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// RegisterRequest creates a new account.
type RegisterRequest struct {
	Email       string   `json:"email" validate:"required,email,max=255"`
	Username    string   `json:"username" validate:"required,username"`
	FullName    string   `json:"full_name" validate:"required,min=1,max=255"`
	PhoneNumber string   `json:"phone_number" validate:"required,min=1,max=50"`
	Password    string   `json:"password" validate:"required,min=6,max=72"`
	Role        UserRole `json:"role" validate:"omitempty,oneof=student teacher admin superadmin"`
	IP          string   `json:"-"`
	UserAgent   string   `json:"-"`
}

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// RefreshTokenRequest exchanges a refresh token for a new token pair.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// ChangePasswordRequest payload for updating password.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6,max=72"`
}

// AuthResponse returns an issued token pair and, when known, the user.
type AuthResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	User         *User  `json:"user,omitempty"`
}

// JWTClaims represents the JWT payload for access and refresh tokens.
type JWTClaims struct {
	UserID    string   `json:"user_id"`
	Role      UserRole `json:"role"`
	TokenType string   `json:"typ"`
	jwt.RegisteredClaims
}
