package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/langufy-api/internal/dto"
	"github.com/noah-isme/langufy-api/internal/middleware"
	"github.com/noah-isme/langufy-api/internal/models"
	appErrors "github.com/noah-isme/langufy-api/pkg/errors"
	"github.com/noah-isme/langufy-api/pkg/response"
)

type wordService interface {
	Search(ctx context.Context, query dto.SearchWordsQuery) ([]models.Word, error)
	Create(ctx context.Context, req models.CreateWordRequest) (*models.Word, error)
	List(ctx context.Context) ([]models.Word, bool, error)
	Get(ctx context.Context, id string) (*models.Word, error)
	Update(ctx context.Context, id string, req models.UpdateWordRequest) (*models.Word, error)
	Delete(ctx context.Context, id string) error
}

// WordHandler exposes dictionary word endpoints.
type WordHandler struct {
	service wordService
}

// NewWordHandler constructs a word handler.
func NewWordHandler(svc wordService) *WordHandler {
	return &WordHandler{service: svc}
}

// Search godoc
// @Summary Search words
// @Description Case-insensitive substring search on the English term. Unknown terms are defined by the AI provider and stored.
// @Tags Words
// @Produce json
// @Param q query string true "Search term"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /api/words/search/ [get]
func (h *WordHandler) Search(c *gin.Context) {
	var query dto.SearchWordsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid search query"))
		return
	}
	words, err := h.service.Search(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, words, map[string]interface{}{"total": len(words)})
}

// Create godoc
// @Summary Create word
// @Tags Words
// @Accept json
// @Produce json
// @Param payload body models.CreateWordRequest true "Word payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /api/words/ [post]
func (h *WordHandler) Create(c *gin.Context) {
	var req models.CreateWordRequest
	if !bindJSON(c, &req, "invalid word payload") {
		return
	}
	word, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, word)
}

// List godoc
// @Summary List words
// @Tags Words
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /api/words/ [get]
func (h *WordHandler) List(c *gin.Context) {
	words, hit, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, words, middleware.ResponseMeta(c))
}

// Get godoc
// @Summary Get word
// @Tags Words
// @Produce json
// @Param id path string true "Word ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /api/words/{id} [get]
func (h *WordHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	word, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, word, nil)
}

// Update godoc
// @Summary Update word
// @Tags Words
// @Accept json
// @Produce json
// @Param id path string true "Word ID"
// @Param payload body models.UpdateWordRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /api/words/{id} [put]
func (h *WordHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req models.UpdateWordRequest
	if !bindJSON(c, &req, "invalid word payload") {
		return
	}
	word, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, word, nil)
}

// Delete godoc
// @Summary Delete word
// @Tags Words
// @Param id path string true "Word ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /api/words/{id} [delete]
func (h *WordHandler) Delete(c *gin.Context) {
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
