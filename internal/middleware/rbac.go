package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/langufy-api/internal/models"
	appErrors "github.com/noah-isme/langufy-api/pkg/errors"
	"github.com/noah-isme/langufy-api/pkg/response"
)

// RequireRole allows callers whose role is at least minimum.
func RequireRole(minimum models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if !user.Role.HasPermission(minimum) {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "requires role "+string(minimum)+" or higher"))
			c.Abort()
			return
		}
		c.Next()
	}
}
