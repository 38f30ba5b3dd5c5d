package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/langufy-api/internal/models"
	"github.com/noah-isme/langufy-api/internal/repository"
	appErrors "github.com/noah-isme/langufy-api/pkg/errors"
)

func newTestAuthService(repo authUserRepository) *AuthService {
	return NewAuthService(repo, nil, zap.NewNop(), NewMetricsService(), AuthConfig{
		Secret:             "secret",
		Algorithm:          "HS256",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "langufy-test",
		MaxUsers:           3,
	})
}

func registerRequest(i int) models.RegisterRequest {
	return models.RegisterRequest{
		Email:       fmt.Sprintf("user%d@example.com", i),
		Username:    fmt.Sprintf("user%d", i),
		FullName:    fmt.Sprintf("User %d", i),
		PhoneNumber: "+998901234567",
		Password:    "secret123",
	}
}

func hashedUser(t *testing.T, id, email, password string, status models.UserStatus) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{
		ID:           id,
		Email:        email,
		Username:     id,
		FullName:     "Test User",
		Role:         models.RoleStudent,
		Status:       status,
		PasswordHash: string(hash),
	}
}

func TestAuthServiceRegisterCapsUsers(t *testing.T) {
	repo := newFakeUserStore()
	svc := newTestAuthService(repo)

	for i := 1; i <= 3; i++ {
		res, err := svc.Register(context.Background(), registerRequest(i))
		require.NoError(t, err)
		assert.NotEmpty(t, res.AccessToken)
		assert.NotEmpty(t, res.RefreshToken)
		assert.Equal(t, models.RoleStudent, res.User.Role)
		assert.Equal(t, models.UserStatusActive, res.User.Status)
	}

	_, err := svc.Register(context.Background(), registerRequest(4))
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrRegistrationClosed))

	// Rejected even when the payload is invalid.
	_, err = svc.Register(context.Background(), models.RegisterRequest{})
	assert.True(t, errors.Is(err, appErrors.ErrRegistrationClosed))

	count, _ := repo.Count(context.Background())
	assert.Equal(t, 3, count)
	assert.Equal(t, []string{models.AuditActionRegister, models.AuditActionRegister, models.AuditActionRegister}, repo.actions())
}

func TestAuthServiceRegisterStoreLimitRace(t *testing.T) {
	repo := newFakeUserStore()
	repo.createErr = fmt.Errorf("create user: %w", repository.ErrUserLimitReached)
	svc := newTestAuthService(repo)

	_, err := svc.Register(context.Background(), registerRequest(1))
	assert.True(t, errors.Is(err, appErrors.ErrRegistrationClosed))
}

func TestAuthServiceRegisterConflicts(t *testing.T) {
	repo := newFakeUserStore()
	svc := newTestAuthService(repo)

	_, err := svc.Register(context.Background(), registerRequest(1))
	require.NoError(t, err)

	dupEmail := registerRequest(2)
	dupEmail.Email = "user1@example.com"
	_, err = svc.Register(context.Background(), dupEmail)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrConflict))
	assert.Contains(t, err.Error(), "email")

	dupUsername := registerRequest(2)
	dupUsername.Username = "  USER1 "
	_, err = svc.Register(context.Background(), dupUsername)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrConflict))
	assert.Contains(t, err.Error(), "username")
}

func TestAuthServiceRegisterStoreUniqueViolation(t *testing.T) {
	repo := newFakeUserStore()
	repo.createErr = fmt.Errorf("create user: %w", &repository.DuplicateError{Constraint: "users_username_key", Err: repository.ErrDuplicate})
	svc := newTestAuthService(repo)

	_, err := svc.Register(context.Background(), registerRequest(1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrConflict))
	assert.Contains(t, err.Error(), "username")
}

func TestAuthServiceRegisterValidation(t *testing.T) {
	svc := newTestAuthService(newFakeUserStore())

	req := registerRequest(1)
	req.Username = "a!"
	_, err := svc.Register(context.Background(), req)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Equal(t, map[string]string{"Username": "username"}, appErr.Details)
}

func TestAuthServiceLogin(t *testing.T) {
	active := hashedUser(t, "u1", "active@example.com", "password", models.UserStatusActive)
	inactive := hashedUser(t, "u2", "inactive@example.com", "password", models.UserStatusInactive)
	svc := newTestAuthService(newFakeUserStore(active, inactive))

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "active@example.com", Password: "password"})
	require.NoError(t, err)
	assert.Equal(t, "bearer", res.TokenType)
	assert.Equal(t, int64(3600), res.ExpiresIn)

	claims, err := svc.ValidateToken(res.AccessToken, models.TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "active@example.com", Password: "wrong"})
	assert.True(t, errors.Is(err, appErrors.ErrInvalidCredentials))

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "missing@example.com", Password: "password"})
	assert.True(t, errors.Is(err, appErrors.ErrInvalidCredentials))

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "inactive@example.com", Password: "wrong"})
	assert.True(t, errors.Is(err, appErrors.ErrInvalidCredentials))

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "inactive@example.com", Password: "password"})
	assert.True(t, errors.Is(err, appErrors.ErrInactiveAccount))
}

func TestAuthServiceValidateToken(t *testing.T) {
	user := hashedUser(t, "u1", "a@example.com", "password", models.UserStatusActive)
	svc := newTestAuthService(newFakeUserStore(user))

	pair, err := svc.Login(context.Background(), models.LoginRequest{Email: "a@example.com", Password: "password"})
	require.NoError(t, err)

	_, err = svc.ValidateToken(pair.RefreshToken, models.TokenTypeAccess)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))

	_, err = svc.ValidateToken("not-a-token", models.TokenTypeAccess)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))

	other := newTestAuthService(newFakeUserStore())
	other.config.Secret = "different"
	_, err = other.ValidateToken(pair.AccessToken, models.TokenTypeAccess)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))

	svc.now = func() time.Time { return time.Now().UTC().Add(2 * time.Hour) }
	_, err = svc.ValidateToken(pair.AccessToken, models.TokenTypeAccess)
	assert.True(t, errors.Is(err, appErrors.ErrTokenExpired))
	assert.Equal(t, 401, appErrors.FromError(err).Status)
}

func TestAuthServiceRejectsUnexpectedAlgorithm(t *testing.T) {
	svc := newTestAuthService(newFakeUserStore())
	claims := &models.JWTClaims{
		UserID:    "u1",
		TokenType: models.TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = svc.ValidateToken(token, models.TokenTypeAccess)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
}

func TestAuthServiceRefresh(t *testing.T) {
	user := hashedUser(t, "u1", "a@example.com", "password", models.UserStatusActive)
	repo := newFakeUserStore(user)
	svc := newTestAuthService(repo)

	pair, err := svc.Login(context.Background(), models.LoginRequest{Email: "a@example.com", Password: "password"})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), models.RefreshTokenRequest{RefreshToken: pair.RefreshToken})
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)

	_, err = svc.Refresh(context.Background(), models.RefreshTokenRequest{RefreshToken: pair.AccessToken})
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))

	require.NoError(t, repo.Delete(context.Background(), "u1"))
	_, err = svc.Refresh(context.Background(), models.RefreshTokenRequest{RefreshToken: pair.RefreshToken})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}
