package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/langufy-api/internal/dto"
	"github.com/noah-isme/langufy-api/internal/middleware"
	"github.com/noah-isme/langufy-api/internal/models"
	appErrors "github.com/noah-isme/langufy-api/pkg/errors"
	"github.com/noah-isme/langufy-api/pkg/export"
	"github.com/noah-isme/langufy-api/pkg/response"
)

// maxUploadBytes bounds word list uploads.
const maxUploadBytes = 10 << 20

type categoryService interface {
	Create(ctx context.Context, req models.CreateCategoryRequest) (*models.Category, error)
	List(ctx context.Context) ([]models.Category, bool, error)
	Get(ctx context.Context, id string) (*models.Category, error)
	Update(ctx context.Context, id string, req models.UpdateCategoryRequest) (*models.Category, error)
	Delete(ctx context.Context, id string) error
	ListWords(ctx context.Context, id string) ([]models.Word, bool, error)
}

type wordTransferService interface {
	Import(ctx context.Context, categoryID, filename string, r io.Reader) (*dto.ImportWordsResult, error)
	Export(ctx context.Context, categoryID, format string) (*export.Document, error)
}

// CategoryHandler exposes dictionary category endpoints.
type CategoryHandler struct {
	service  categoryService
	transfer wordTransferService
}

// NewCategoryHandler constructs a category handler.
func NewCategoryHandler(svc categoryService, transfer wordTransferService) *CategoryHandler {
	return &CategoryHandler{service: svc, transfer: transfer}
}

// Create godoc
// @Summary Create category
// @Tags Categories
// @Accept json
// @Produce json
// @Param payload body models.CreateCategoryRequest true "Category payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /api/categories/ [post]
func (h *CategoryHandler) Create(c *gin.Context) {
	var req models.CreateCategoryRequest
	if !bindJSON(c, &req, "invalid category payload") {
		return
	}
	category, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, category)
}

// List godoc
// @Summary List categories
// @Tags Categories
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /api/categories/ [get]
func (h *CategoryHandler) List(c *gin.Context) {
	categories, hit, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, categories, middleware.ResponseMeta(c))
}

// Get godoc
// @Summary Get category
// @Tags Categories
// @Produce json
// @Param id path string true "Category ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /api/categories/{id} [get]
func (h *CategoryHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	category, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, category, nil)
}

// Update godoc
// @Summary Update category
// @Tags Categories
// @Accept json
// @Produce json
// @Param id path string true "Category ID"
// @Param payload body models.UpdateCategoryRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /api/categories/{id} [put]
func (h *CategoryHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req models.UpdateCategoryRequest
	if !bindJSON(c, &req, "invalid category payload") {
		return
	}
	category, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, category, nil)
}

// Delete godoc
// @Summary Delete category
// @Description Only categories without words can be deleted
// @Tags Categories
// @Param id path string true "Category ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /api/categories/{id} [delete]
func (h *CategoryHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Words godoc
// @Summary List category words
// @Tags Categories
// @Produce json
// @Param id path string true "Category ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /api/categories/{id}/words [get]
func (h *CategoryHandler) Words(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	words, hit, err := h.service.ListWords(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, words, middleware.ResponseMeta(c))
}

// Import godoc
// @Summary Import words
// @Description Upload an .xlsx or .csv word list (English, Uzbek, Definition columns)
// @Tags Categories
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Category ID"
// @Param file formData file true "Word list"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /api/categories/{id}/import [post]
func (h *CategoryHandler) Import(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)
	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "multipart field \"file\" is required"))
		return
	}
	file, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "could not open uploaded file"))
		return
	}
	defer file.Close()

	result, err := h.transfer.Import(c.Request.Context(), id, header.Filename, file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Export godoc
// @Summary Export words
// @Tags Categories
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Category ID"
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /api/categories/{id}/export [get]
func (h *CategoryHandler) Export(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var query dto.ExportWordsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export query"))
		return
	}
	doc, err := h.transfer.Export(c.Request.Context(), id, query.Format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, doc.Filename, doc.ContentType, doc.Payload)
}
