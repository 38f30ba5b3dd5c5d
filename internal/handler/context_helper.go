package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/noah-isme/langufy-api/internal/middleware"
	"github.com/noah-isme/langufy-api/internal/models"
	appErrors "github.com/noah-isme/langufy-api/pkg/errors"
	"github.com/noah-isme/langufy-api/pkg/response"
)

// currentUser returns the authenticated user, writing a 401 when absent.
func currentUser(c *gin.Context) (*models.User, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	return user, true
}

func requestMeta(c *gin.Context) models.RequestMeta {
	return models.RequestMeta{IP: c.ClientIP(), UserAgent: c.GetHeader("User-Agent")}
}

// bindJSON decodes the body into dest, writing a 400 on malformed input.
func bindJSON(c *gin.Context, dest interface{}, message string) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message))
		return false
	}
	return true
}

// pathID returns the :id parameter, writing a 400 when it is not a UUID.
func pathID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		response.Error(c, appErrors.WithDetails(
			appErrors.Clone(appErrors.ErrValidation, "invalid id"),
			map[string]string{"id": "uuid"},
		))
		return "", false
	}
	return id, true
}
