package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/student-directory-api/api/swagger"
	"github.com/noah-isme/student-directory-api/internal/handler"
	"github.com/noah-isme/student-directory-api/internal/middleware"
	"github.com/noah-isme/student-directory-api/internal/repository"
	"github.com/noah-isme/student-directory-api/internal/service"
	"github.com/noah-isme/student-directory-api/pkg/cache"
	"github.com/noah-isme/student-directory-api/pkg/config"
	"github.com/noah-isme/student-directory-api/pkg/database"
	"github.com/noah-isme/student-directory-api/pkg/jobs"
	"github.com/noah-isme/student-directory-api/pkg/logger"
	"github.com/noah-isme/student-directory-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/student-directory-api/pkg/middleware/requestid"
)

const tokenPurgeInterval = time.Hour

// @title Student Directory API
// @version 1.0.0
// @description Student registration, multi-identifier login, profile directory and ranked search
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	if cfg.JWT.Secret == "" {
		logr.Fatal("JWT_SECRET must be set")
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	rdb, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, search cache disabled", zap.Error(err))
		rdb = nil
	}
	if rdb != nil {
		defer rdb.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	batchRepo := repository.NewBatchRepository(db)
	programRepo := repository.NewProgramRepository(db)
	registrationRepo := repository.NewRegistrationRepository(db)
	tokenRepo := repository.NewTokenRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	cacheSvc := service.NewCacheService(repository.NewCacheRepository(rdb), metrics, cfg.Search.CacheTTL, logr, cfg.Search.CacheEnabled && rdb != nil)
	auditSvc := service.NewAuditService(auditRepo, logr, jobs.QueueConfig{
		Workers:    cfg.Audit.Workers,
		BufferSize: cfg.Audit.BufferSize,
		MaxRetries: cfg.Audit.MaxRetries,
		RetryDelay: cfg.Audit.RetryDelay,
	})
	auditSvc.Start(ctx)
	defer auditSvc.Stop()

	validate := service.NewValidator()
	resolver := service.NewCredentialResolver(userRepo, profileRepo, logr)
	authSvc := service.NewAuthService(resolver, userRepo, profileRepo, tokenRepo, auditSvc, metrics, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	registrationSvc := service.NewRegistrationService(userRepo, profileRepo, batchRepo, programRepo, registrationRepo, cacheSvc, auditSvc, metrics, validate, logr)
	profileSvc := service.NewProfileService(profileRepo, batchRepo, programRepo, cacheSvc, auditSvc, metrics, validate, logr)
	searchSvc := service.NewSearchService(profileRepo, cacheSvc, metrics, logr, service.SearchConfig{
		Limit:    cfg.Search.ResultLimit,
		CacheTTL: cfg.Search.CacheTTL,
	})

	go purgeExpiredTokens(ctx, tokenRepo, logr)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(cors.New(cfg.CORSOrigins))
	r.Use(logger.GinMiddleware(logr))
	r.Use(middleware.Metrics(metrics))
	r.Use(middleware.WithResponseMeta())

	opsHandler := handler.NewMetricsHandler(metrics.Handler(), readinessChecks(db, rdb))
	r.GET("/health", opsHandler.Health)
	r.GET("/ready", opsHandler.Ready)
	r.GET("/metrics", opsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	authHandler := handler.NewAuthHandler(authSvc)
	registrationHandler := handler.NewRegistrationHandler(registrationSvc)
	profileHandler := handler.NewProfileHandler(profileSvc)
	searchHandler := handler.NewSearchHandler(searchSvc)

	api := r.Group(cfg.APIPrefix)
	api.POST("/register", registrationHandler.Register)
	api.POST("/login", authHandler.Login)
	api.POST("/auth/token", authHandler.Login)
	api.POST("/auth/token/refresh", authHandler.Refresh)
	api.POST("/logout", authHandler.Logout)

	api.GET("/search", searchHandler.Search)

	profiles := api.Group("/profile")
	profiles.GET("", profileHandler.List)
	profiles.GET("/export", profileHandler.Export)
	profiles.GET("/:id", profileHandler.Get)
	secured := profiles.Group("", middleware.JWT(authSvc))
	secured.PUT("/:id", profileHandler.Update)
	secured.PATCH("/:id", profileHandler.Patch)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Error("server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

func readinessChecks(db *sqlx.DB, rdb *redis.Client) map[string]handler.ReadinessCheck {
	checks := map[string]handler.ReadinessCheck{
		"postgres": db.PingContext,
	}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}
	}
	return checks
}

func purgeExpiredTokens(ctx context.Context, tokens *repository.TokenRepository, logr *zap.Logger) {
	ticker := time.NewTicker(tokenPurgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := tokens.PurgeExpired(ctx, now.UTC())
			if err != nil {
				logr.Warn("token purge failed", zap.Error(err))
				continue
			}
			if n > 0 {
				logr.Info("expired tokens purged", zap.Int64("rows", n))
			}
		}
	}
}
