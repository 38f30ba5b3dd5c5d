package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/langufy-api/internal/middleware"
	"github.com/noah-isme/langufy-api/internal/models"
	appErrors "github.com/noah-isme/langufy-api/pkg/errors"
	"github.com/noah-isme/langufy-api/pkg/response"
)

const (
	teacherToken = "teacher-token"
	studentToken = "student-token"

	groupID    = "6f1c2b9e-3a4d-4c8e-9b7a-1d2e3f405162"
	categoryID = "0b7e4f3a-9c2d-4e1f-8a6b-5c4d3e2f1a09"
	wordID     = "d2a4c6e8-1b3d-4f5a-9c7e-2b4d6f8a0c1e"
)

type testAPI struct {
	router     *gin.Engine
	auth       *authServiceMock
	users      *userServiceMock
	groups     *groupServiceMock
	categories *categoryServiceMock
	transfer   *transferServiceMock
	words      *wordServiceMock
	audit      *auditRecorder
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	api := &testAPI{
		auth:       &authServiceMock{},
		users:      &userServiceMock{},
		groups:     &groupServiceMock{},
		categories: &categoryServiceMock{},
		transfer:   &transferServiceMock{},
		words:      &wordServiceMock{},
		audit:      &auditRecorder{},
	}

	tokens := tokenStub{
		teacherToken: {UserID: "u-teacher", Role: models.RoleTeacher, TokenType: models.TokenTypeAccess},
		studentToken: {UserID: "u-student", Role: models.RoleStudent, TokenType: models.TokenTypeAccess},
	}
	loader := userLoaderStub{
		"u-teacher": {ID: "u-teacher", Email: "t@example.com", Role: models.RoleTeacher, Status: models.UserStatusActive},
		"u-student": {ID: "u-student", Email: "s@example.com", Role: models.RoleStudent, Status: models.UserStatusActive},
	}

	r := gin.New()
	r.Use(middleware.WithResponseMeta())
	RegisterRoutes(r, Handlers{
		Auth:       NewAuthHandler(api.auth),
		User:       NewUserHandler(api.users),
		Group:      NewGroupHandler(api.groups),
		Category:   NewCategoryHandler(api.categories, api.transfer),
		Word:       NewWordHandler(api.words),
		Operations: NewMetricsHandler(nil, pingStub{}, nil),
	}, RouteOptions{
		Tokens: tokens,
		Users:  loader,
		Audit:  api.audit,
	})
	api.router = r
	return api
}

func (a *testAPI) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestRegisterReturnsCreatedWithMessage(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodPost, "/api/register", "", map[string]string{
		"email":    "ann@example.com",
		"username": "ann",
		"password": "secret1",
	})

	require.Equal(t, http.StatusCreated, w.Code)
	body := decodeEnvelope(t, w)
	assert.Equal(t, "user registered", body["meta"].(map[string]interface{})["message"])
	assert.Equal(t, "bearer", body["data"].(map[string]interface{})["token_type"])
	assert.Equal(t, "ann@example.com", api.auth.lastReg.Email)
}

func TestRegisterPropagatesServiceError(t *testing.T) {
	api := newTestAPI(t)
	api.auth.registerErr = appErrors.Clone(appErrors.ErrRegistrationClosed, "")

	w := api.do(http.MethodPost, "/api/register", "", map[string]string{"email": "x@example.com"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "REGISTRATION_CLOSED")
}

func TestRegisterRejectsMalformedJSON(t *testing.T) {
	api := newTestAPI(t)
	req := httptest.NewRequest(http.MethodPost, "/api/register", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	api.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
}

func TestUserRoutesRequireBearerToken(t *testing.T) {
	api := newTestAPI(t)

	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodGet, "/api/user_detail", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodGet, "/api/user_detail", "bogus", nil).Code)

	w := api.do(http.MethodGet, "/api/user_detail", teacherToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u-teacher", decodeEnvelope(t, w)["data"].(map[string]interface{})["id"])
}

func TestUpdatePasswordAndDelete(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodPatch, "/api/update_password", studentToken, map[string]string{"old_password": "a", "new_password": "bbbbbb"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "password updated")

	api.users.pwErr = appErrors.Clone(appErrors.ErrInvalidCredentials, "old password is incorrect")
	w = api.do(http.MethodPatch, "/api/update_password", studentToken, map[string]string{"old_password": "a", "new_password": "bbbbbb"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(http.MethodDelete, "/api/delete_user", studentToken, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{"u-student"}, api.users.deleted)
}

func TestGroupCreateRequiresTeacherRole(t *testing.T) {
	api := newTestAPI(t)
	payload := map[string]string{"name": "Math101"}

	assert.Equal(t, http.StatusForbidden, api.do(http.MethodPost, "/api/groups/", studentToken, payload).Code)
	assert.Empty(t, api.groups.created)

	for _, path := range []string{"/api/groups/", "/api/groups"} {
		w := api.do(http.MethodPost, path, teacherToken, payload)
		require.Equal(t, http.StatusCreated, w.Code, path)
		assert.Equal(t, "u-teacher", decodeEnvelope(t, w)["data"].(map[string]interface{})["owner_id"])
	}
	assert.Len(t, api.groups.created, 2)
}

func TestGroupListAndMembers(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodGet, "/api/groups/", studentToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, decodeEnvelope(t, w)["meta"].(map[string]interface{})["total"])

	w = api.do(http.MethodPost, "/api/groups/"+groupID+"/members", teacherToken, map[string]string{"user_id": "u-student"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u-student", api.groups.added[0].UserID)

	api.groups.getErr = appErrors.Clone(appErrors.ErrForbidden, "not a member of this group")
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodGet, "/api/groups/"+groupID, studentToken, nil).Code)
}

func TestCategoryListReportsCacheHit(t *testing.T) {
	api := newTestAPI(t)
	api.categories.hit = true

	w := api.do(http.MethodGet, "/api/categories/", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	meta := decodeEnvelope(t, w)["meta"].(map[string]interface{})
	assert.Equal(t, true, meta["cache_hit"])
	assert.Contains(t, meta, "processing_time_ms")
}

func TestCategoryDeleteWithWordsFailsPrecondition(t *testing.T) {
	api := newTestAPI(t)
	api.categories.deleteErr = appErrors.WithDetails(appErrors.ErrPreconditionFailed, map[string]int{"words": 3})

	w := api.do(http.MethodDelete, "/api/categories/"+categoryID, "", nil)

	assert.Equal(t, http.StatusPreconditionFailed, w.Code)
	assert.Empty(t, api.audit.actions())
}

func TestDictionaryMutationsAreAudited(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodPost, "/api/words/", "", map[string]string{"english": "cat", "uzbek": "mushuk", "category_id": categoryID})
	require.Equal(t, http.StatusCreated, w.Code)
	w = api.do(http.MethodDelete, "/api/words/"+wordID, "", nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	assert.Equal(t, []string{models.AuditActionWordCreate, models.AuditActionWordDelete}, api.audit.actions())
	require.NotNil(t, api.audit.entries[1].ResourceID)
	assert.Equal(t, wordID, *api.audit.entries[1].ResourceID)
}

func TestWordSearchRoutes(t *testing.T) {
	api := newTestAPI(t)

	for _, path := range []string{"/api/words/search/?q=hello", "/api/words/search?q=hello"} {
		w := api.do(http.MethodGet, path, "", nil)
		require.Equal(t, http.StatusOK, w.Code, path)
		var env struct {
			Data []models.Word          `json:"data"`
			Meta map[string]interface{} `json:"meta"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
		assert.Equal(t, "hello", env.Data[0].English)
		assert.EqualValues(t, 1, env.Meta["total"])
	}
	assert.Len(t, api.words.queries, 2)

	w := api.do(http.MethodGet, "/api/words/"+wordID, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCategoryImportReadsMultipartFile(t *testing.T) {
	api := newTestAPI(t)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "animals.csv")
	require.NoError(t, err)
	_, _ = part.Write([]byte("English,Uzbek,Definition\ncat,mushuk,\n"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/categories/"+categoryID+"/import", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()
	api.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "animals.csv", api.transfer.filename)
	assert.Contains(t, api.transfer.content, "cat,mushuk")
	assert.Equal(t, []string{models.AuditActionWordImport}, api.audit.actions())
}

func TestCategoryImportRequiresFile(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodPost, "/api/categories/"+categoryID+"/import", "", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, api.audit.actions())
}

func TestCategoryExportSendsAttachment(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodGet, "/api/categories/"+categoryID+"/export?format=pdf", "", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="animals-words.pdf"`, w.Header().Get("Content-Disposition"))
}

func TestMalformedPathIDIsValidationError(t *testing.T) {
	api := newTestAPI(t)

	cases := []struct {
		method string
		path   string
		token  string
		body   interface{}
	}{
		{http.MethodGet, "/api/groups/not-a-uuid", teacherToken, nil},
		{http.MethodPost, "/api/groups/not-a-uuid/members", teacherToken, map[string]string{"user_id": "u-student"}},
		{http.MethodGet, "/api/words/not-a-uuid", "", nil},
		{http.MethodDelete, "/api/words/not-a-uuid", "", nil},
		{http.MethodGet, "/api/categories/not-a-uuid/words", "", nil},
		{http.MethodGet, "/api/categories/not-a-uuid/export", "", nil},
	}
	for _, tc := range cases {
		w := api.do(tc.method, tc.path, tc.token, tc.body)
		require.Equal(t, http.StatusBadRequest, w.Code, tc.path)
		var env response.Envelope
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
		assert.Equal(t, appErrors.ErrValidation.Code, env.Error.Code, tc.path)
	}
	assert.Empty(t, api.groups.added)
	assert.Empty(t, api.audit.actions())
}

func TestReadyReportsDatabaseFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewMetricsHandler(nil, pingStub{err: errors.New("connection refused")}, nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/ready", nil)

	handler.Ready(c)

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")

	degraded := NewMetricsHandler(nil, pingStub{}, PingFunc(func(context.Context) error { return errors.New("redis down") }))
	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/ready", nil)

	degraded.Ready(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "redis down")

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	handler.Prometheus(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHandlersRejectMissingUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewGroupHandler(&groupServiceMock{})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/groups/", nil)

	handler.List(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	var env response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, appErrors.ErrUnauthorized.Code, env.Error.Code)
}
