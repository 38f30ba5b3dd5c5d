package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/langufy-api/internal/middleware"
	"github.com/noah-isme/langufy-api/internal/models"
	"github.com/noah-isme/langufy-api/pkg/middleware/ratelimit"
)

// Handlers groups every HTTP handler mounted under /api.
type Handlers struct {
	Auth       *AuthHandler
	User       *UserHandler
	Group      *GroupHandler
	Category   *CategoryHandler
	Word       *WordHandler
	Operations *MetricsHandler
}

// RouteOptions carries the cross-cutting dependencies of the API routes.
type RouteOptions struct {
	Tokens          middleware.TokenValidator
	Users           middleware.UserLoader
	Audit           middleware.AuditWriter
	Logger          *zap.Logger
	RateLimit       int
	RateLimitWindow time.Duration
}

// RegisterRoutes mounts the operational endpoints and the /api surface on r.
// Collection routes answer with and without a trailing slash.
func RegisterRoutes(r *gin.Engine, h Handlers, opts RouteOptions) {
	if h.Operations != nil {
		r.GET("/health", h.Operations.Health)
		r.GET("/ready", h.Operations.Ready)
		r.GET("/metrics", h.Operations.Prometheus)
	}

	api := r.Group("/api")
	limited := ratelimit.LimitByIP(opts.RateLimit, opts.RateLimitWindow)

	api.POST("/register", limited, h.Auth.Register)
	api.POST("/user_login", limited, h.Auth.Login)
	api.POST("/refresh_token", limited, h.Auth.Refresh)

	secured := api.Group("")
	secured.Use(middleware.JWT(opts.Tokens, opts.Users))

	secured.GET("/user_detail", h.User.Detail)
	secured.PATCH("/update_user", h.User.Update)
	secured.PATCH("/update_password", h.User.UpdatePassword)
	secured.DELETE("/delete_user", h.User.Delete)

	groups := secured.Group("/groups")
	collection(groups, "POST", middleware.RequireRole(models.RoleTeacher), h.Group.Create)
	collection(groups, "GET", h.Group.List)
	groups.GET("/:id", h.Group.Get)
	groups.PUT("/:id", h.Group.Update)
	groups.DELETE("/:id", h.Group.Delete)
	groups.POST("/:id/members", h.Group.AddMember)
	groups.DELETE("/:id/members", h.Group.RemoveMember)

	audit := func(action string) gin.HandlerFunc {
		return middleware.Audit(opts.Audit, opts.Logger, action, "dictionary")
	}

	categories := api.Group("/categories")
	collection(categories, "POST", audit(models.AuditActionCategoryCreate), h.Category.Create)
	collection(categories, "GET", h.Category.List)
	categories.GET("/:id", h.Category.Get)
	categories.PUT("/:id", audit(models.AuditActionCategoryUpdate), h.Category.Update)
	categories.DELETE("/:id", audit(models.AuditActionCategoryDelete), h.Category.Delete)
	categories.GET("/:id/words", h.Category.Words)
	categories.POST("/:id/import", audit(models.AuditActionWordImport), h.Category.Import)
	categories.GET("/:id/export", h.Category.Export)

	words := api.Group("/words")
	collection(words, "POST", audit(models.AuditActionWordCreate), h.Word.Create)
	collection(words, "GET", h.Word.List)
	words.GET("/search", limited, h.Word.Search)
	words.GET("/search/", limited, h.Word.Search)
	words.GET("/:id", h.Word.Get)
	words.PUT("/:id", audit(models.AuditActionWordUpdate), h.Word.Update)
	words.DELETE("/:id", audit(models.AuditActionWordDelete), h.Word.Delete)
}

func collection(group *gin.RouterGroup, method string, handlers ...gin.HandlerFunc) {
	group.Handle(method, "", handlers...)
	group.Handle(method, "/", handlers...)
}
