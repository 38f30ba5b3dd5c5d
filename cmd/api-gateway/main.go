package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/langufy-api/api/swagger"
	"github.com/noah-isme/langufy-api/internal/ai"
	"github.com/noah-isme/langufy-api/internal/handler"
	internalmiddleware "github.com/noah-isme/langufy-api/internal/middleware"
	"github.com/noah-isme/langufy-api/internal/repository"
	"github.com/noah-isme/langufy-api/internal/service"
	"github.com/noah-isme/langufy-api/migrations"
	"github.com/noah-isme/langufy-api/pkg/cache"
	"github.com/noah-isme/langufy-api/pkg/config"
	"github.com/noah-isme/langufy-api/pkg/database"
	"github.com/noah-isme/langufy-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/langufy-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/langufy-api/pkg/middleware/requestid"
)

// @title Langufy API
// @version 1.0.0
// @description Vocabulary learning backend: accounts, study groups and an English-Uzbek dictionary
// @BasePath /
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	if err := database.Migrate(db, migrations.FS); err != nil {
		logr.Fatal("failed to apply migrations", zap.Error(err))
	}

	var cacheClient redis.UniversalClient
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(context.Background(), cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, dictionary cache disabled", zap.Error(err))
		} else {
			defer client.Close()
			cacheClient = client
		}
	}

	validate := validator.New()
	metrics := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	wordRepo := repository.NewWordRepository(db)
	cacheRepo := repository.NewCacheRepository(cacheClient)

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, cacheClient != nil)
	authSvc := service.NewAuthService(userRepo, validate, logr, metrics, service.AuthConfig{
		Secret:             cfg.JWT.Secret,
		Algorithm:          cfg.JWT.Algorithm,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "langufy-api",
		MaxUsers:           cfg.Accounts.MaxUsers,
	})
	userSvc := service.NewUserService(userRepo, validate, logr)
	groupSvc := service.NewGroupService(groupRepo, userRepo, validate, logr)
	categorySvc := service.NewCategoryService(categoryRepo, wordRepo, cacheSvc, validate, logr)
	provider := ai.NewGeminiClient(cfg.AI.URL, cfg.AI.Token, cfg.AI.Timeout, nil)
	wordSvc := service.NewWordService(wordRepo, categoryRepo, provider, cacheSvc, metrics, validate, logr, service.WordConfig{
		FallbackCategory:      cfg.Dictionary.FallbackCategory,
		ExposeUpstreamDetails: cfg.Debug,
	})
	transferSvc := service.NewWordTransferService(wordRepo, categoryRepo, cacheSvc, validate, logr)

	var cachePing handler.Pinger
	if cacheClient != nil {
		cachePing = handler.PingFunc(cacheRepo.Ping)
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics))
	r.Use(internalmiddleware.WithResponseMeta())

	handler.RegisterRoutes(r, handler.Handlers{
		Auth:       handler.NewAuthHandler(authSvc),
		User:       handler.NewUserHandler(userSvc),
		Group:      handler.NewGroupHandler(groupSvc),
		Category:   handler.NewCategoryHandler(categorySvc, transferSvc),
		Word:       handler.NewWordHandler(wordSvc),
		Operations: handler.NewMetricsHandler(metrics, db, cachePing),
	}, handler.RouteOptions{
		Tokens:          authSvc,
		Users:           userRepo,
		Audit:           userRepo,
		Logger:          logr,
		RateLimit:       cfg.RateLimit.Requests,
		RateLimitWindow: cfg.RateLimit.Window,
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "cache", cacheClient != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
