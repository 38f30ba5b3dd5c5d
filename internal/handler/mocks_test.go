package handler

import (
	"context"
	"database/sql"
	"io"
	"sync"

	"github.com/noah-isme/langufy-api/internal/dto"
	"github.com/noah-isme/langufy-api/internal/models"
	appErrors "github.com/noah-isme/langufy-api/pkg/errors"
	"github.com/noah-isme/langufy-api/pkg/export"
)

type authServiceMock struct {
	registerErr error
	lastReg     models.RegisterRequest
}

func (m *authServiceMock) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	m.lastReg = req
	if m.registerErr != nil {
		return nil, m.registerErr
	}
	return &models.AuthResponse{AccessToken: "access", RefreshToken: "refresh", TokenType: "bearer", ExpiresIn: 3600}, nil
}

func (m *authServiceMock) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	return &models.AuthResponse{AccessToken: "access", RefreshToken: "refresh", TokenType: "bearer"}, nil
}

func (m *authServiceMock) Refresh(ctx context.Context, req models.RefreshTokenRequest) (*models.AuthResponse, error) {
	return &models.AuthResponse{AccessToken: "access-2", RefreshToken: "refresh-2", TokenType: "bearer"}, nil
}

type userServiceMock struct {
	deleted  []string
	pwErr    error
	updateFn func(id string, req models.UpdateUserRequest) (*models.User, error)
}

func (m *userServiceMock) Update(ctx context.Context, id string, req models.UpdateUserRequest, meta models.RequestMeta) (*models.User, error) {
	if m.updateFn != nil {
		return m.updateFn(id, req)
	}
	return &models.User{ID: id}, nil
}

func (m *userServiceMock) ChangePassword(ctx context.Context, id string, req models.ChangePasswordRequest, meta models.RequestMeta) error {
	return m.pwErr
}

func (m *userServiceMock) Delete(ctx context.Context, id string, meta models.RequestMeta) error {
	m.deleted = append(m.deleted, id)
	return nil
}

type groupServiceMock struct {
	created []models.CreateGroupRequest
	getErr  error
	added   []models.GroupMemberRequest
}

func (m *groupServiceMock) Create(ctx context.Context, caller *models.User, req models.CreateGroupRequest, meta models.RequestMeta) (*models.Group, error) {
	m.created = append(m.created, req)
	return &models.Group{ID: "g-1", Name: req.Name, OwnerID: caller.ID}, nil
}

func (m *groupServiceMock) Get(ctx context.Context, caller *models.User, id string) (*models.GroupDetail, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return &models.GroupDetail{Group: models.Group{ID: id}, Members: []models.MemberSummary{}}, nil
}

func (m *groupServiceMock) ListMine(ctx context.Context, caller *models.User) ([]models.Group, error) {
	return []models.Group{{ID: "g-1"}, {ID: "g-2"}}, nil
}

func (m *groupServiceMock) Update(ctx context.Context, caller *models.User, id string, req models.UpdateGroupRequest, meta models.RequestMeta) (*models.Group, error) {
	return &models.Group{ID: id}, nil
}

func (m *groupServiceMock) Delete(ctx context.Context, caller *models.User, id string, meta models.RequestMeta) error {
	return nil
}

func (m *groupServiceMock) AddMember(ctx context.Context, caller *models.User, id string, req models.GroupMemberRequest, meta models.RequestMeta) (*models.Group, error) {
	m.added = append(m.added, req)
	return &models.Group{ID: id, MembersCount: len(m.added)}, nil
}

func (m *groupServiceMock) RemoveMember(ctx context.Context, caller *models.User, id string, req models.GroupMemberRequest, meta models.RequestMeta) (*models.Group, error) {
	return &models.Group{ID: id}, nil
}

type categoryServiceMock struct {
	hit       bool
	deleteErr error
}

func (m *categoryServiceMock) Create(ctx context.Context, req models.CreateCategoryRequest) (*models.Category, error) {
	return &models.Category{ID: "c-1", Name: req.Name}, nil
}

func (m *categoryServiceMock) List(ctx context.Context) ([]models.Category, bool, error) {
	return []models.Category{{ID: "c-1", Name: "Animals"}}, m.hit, nil
}

func (m *categoryServiceMock) Get(ctx context.Context, id string) (*models.Category, error) {
	return &models.Category{ID: id}, nil
}

func (m *categoryServiceMock) Update(ctx context.Context, id string, req models.UpdateCategoryRequest) (*models.Category, error) {
	return &models.Category{ID: id}, nil
}

func (m *categoryServiceMock) Delete(ctx context.Context, id string) error {
	return m.deleteErr
}

func (m *categoryServiceMock) ListWords(ctx context.Context, id string) ([]models.Word, bool, error) {
	return []models.Word{{ID: "w-1", CategoryID: id}}, m.hit, nil
}

type transferServiceMock struct {
	filename string
	content  string
}

func (m *transferServiceMock) Import(ctx context.Context, categoryID, filename string, r io.Reader) (*dto.ImportWordsResult, error) {
	m.filename = filename
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	m.content = string(raw)
	return &dto.ImportWordsResult{CategoryID: categoryID, Processed: 1, Created: 1, Errors: []dto.ImportRowError{}}, nil
}

func (m *transferServiceMock) Export(ctx context.Context, categoryID, format string) (*export.Document, error) {
	f, err := export.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	return &export.Document{Filename: "animals-words." + string(f), ContentType: f.ContentType(), Payload: []byte("English,Uzbek,Definition\n")}, nil
}

type wordServiceMock struct {
	queries []dto.SearchWordsQuery
}

func (m *wordServiceMock) Search(ctx context.Context, query dto.SearchWordsQuery) ([]models.Word, error) {
	m.queries = append(m.queries, query)
	return []models.Word{{ID: "w-1", English: query.Q}}, nil
}

func (m *wordServiceMock) Create(ctx context.Context, req models.CreateWordRequest) (*models.Word, error) {
	return &models.Word{ID: "w-2", English: req.English, Uzbek: req.Uzbek, CategoryID: req.CategoryID}, nil
}

func (m *wordServiceMock) List(ctx context.Context) ([]models.Word, bool, error) {
	return []models.Word{}, false, nil
}

func (m *wordServiceMock) Get(ctx context.Context, id string) (*models.Word, error) {
	return &models.Word{ID: id}, nil
}

func (m *wordServiceMock) Update(ctx context.Context, id string, req models.UpdateWordRequest) (*models.Word, error) {
	return &models.Word{ID: id}, nil
}

func (m *wordServiceMock) Delete(ctx context.Context, id string) error {
	return nil
}

type tokenStub map[string]*models.JWTClaims

func (s tokenStub) ValidateToken(token, tokenType string) (*models.JWTClaims, error) {
	claims, ok := s[token]
	if !ok {
		return nil, appErrors.ErrUnauthorized
	}
	return claims, nil
}

type userLoaderStub map[string]*models.User

func (s userLoaderStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	user, ok := s[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

type auditRecorder struct {
	mu      sync.Mutex
	entries []*models.AuditLog
}

func (a *auditRecorder) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, log)
	return nil
}

func (a *auditRecorder) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.entries))
	for _, e := range a.entries {
		out = append(out, e.Action)
	}
	return out
}

type pingStub struct {
	err error
}

func (p pingStub) PingContext(ctx context.Context) error {
	return p.err
}
