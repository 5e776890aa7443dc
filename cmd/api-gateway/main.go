package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/taxirank/rank-api/api/swagger"
	"github.com/taxirank/rank-api/internal/handler"
	"github.com/taxirank/rank-api/internal/middleware"
	"github.com/taxirank/rank-api/internal/models"
	"github.com/taxirank/rank-api/internal/repository"
	"github.com/taxirank/rank-api/internal/service"
	"github.com/taxirank/rank-api/pkg/cache"
	"github.com/taxirank/rank-api/pkg/config"
	"github.com/taxirank/rank-api/pkg/database"
	"github.com/taxirank/rank-api/pkg/export"
	"github.com/taxirank/rank-api/pkg/logger"
	corsmiddleware "github.com/taxirank/rank-api/pkg/middleware/cors"
	reqidmiddleware "github.com/taxirank/rank-api/pkg/middleware/requestid"
)

// @title Taxi Rank Administration API
// @version 1.0.0
// @description Rank admin onboarding, bindings and reporting
// @BasePath /api/v1
// @schemes http

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
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, rank cache disabled", "error", err)
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	rankRepo := repository.NewRankRepository(db)
	bindingRepo := repository.NewBindingRepository(db)
	registrationRepo := repository.NewRegistrationRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(userRepo, auditRepo, cfg.JWT, validate, logr)
	rankSvc := service.NewRankService(rankRepo, cacheRepo, metricsSvc, cfg.Ranks.CacheTTL, logr)
	bindingSvc := service.NewBindingService(bindingRepo, userRepo, rankRepo, auditRepo, validate, logr)
	registrationSvc := service.NewRegistrationService(registrationRepo, userRepo, rankRepo, bindingSvc, auditRepo, validate, logr, cfg.Registrations.DefaultDesignation)
	assignmentSvc := service.NewAssignmentService(assignmentRepo, bindingSvc, rankRepo, auditRepo, validate, logr)
	userSvc := service.NewUserService(userRepo, bindingSvc, logr)
	exportSvc := service.NewExportService(bindingSvc, export.NewCSVExporter(), export.NewPDFExporter(), logr)

	authHandler := handler.NewAuthHandler(authSvc)
	rankHandler := handler.NewRankHandler(rankSvc, bindingSvc)
	userHandler := handler.NewUserHandler(userSvc)
	bindingHandler := handler.NewBindingHandler(bindingSvc)
	registrationHandler := handler.NewRegistrationHandler(registrationSvc, metricsSvc, cfg.Registrations.Enabled)
	assignmentHandler := handler.NewAssignmentHandler(assignmentSvc, metricsSvc)
	exportHandler := handler.NewExportHandler(exportSvc, cfg.Exports.Enabled)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	api.POST("/auth/login", authHandler.Login)
	api.POST("/registrations", registrationHandler.Submit)

	auth := api.Group("")
	auth.Use(middleware.JWT(authSvc))

	auth.GET("/users/me", userHandler.Me)
	auth.GET("/users", middleware.RequireRoles(models.RoleSuperAdmin), userHandler.List)
	auth.GET("/users/:id", middleware.RBAC(string(models.RoleSuperAdmin), "SELF"), userHandler.Get)
	auth.GET("/users/:id/bindings", middleware.RBAC(string(models.RoleSuperAdmin), "SELF"), bindingHandler.ListForUser)

	auth.GET("/ranks", rankHandler.List)
	auth.GET("/ranks/code/:code", rankHandler.GetByCode)
	auth.GET("/ranks/:id", rankHandler.Get)
	auth.GET("/ranks/:id/admins", middleware.RequireRoles(models.RoleSuperAdmin), rankHandler.Admins)
	auth.DELETE("/ranks/cache", middleware.RequireRoles(models.RoleSuperAdmin), rankHandler.EvictCache)

	auth.GET("/registrations", middleware.RequireRoles(models.RoleSuperAdmin), registrationHandler.List)
	auth.GET("/registrations/:id", middleware.RequireRoles(models.RoleSuperAdmin), registrationHandler.Get)
	auth.POST("/registrations/:id/review", middleware.RequireRoles(models.RoleSuperAdmin), registrationHandler.Review)

	auth.POST("/assignments", middleware.RequireRoles(models.RoleAdmin), assignmentHandler.Submit)
	auth.GET("/assignments", middleware.RequireRoles(models.RoleSuperAdmin), assignmentHandler.List)
	auth.GET("/assignments/mine", middleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin), assignmentHandler.Mine)
	auth.GET("/assignments/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin), assignmentHandler.Get)
	auth.POST("/assignments/:id/review", middleware.RequireRoles(models.RoleSuperAdmin), assignmentHandler.Review)
	auth.POST("/assignments/:id/cancel", middleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin), assignmentHandler.Cancel)

	auth.POST("/bindings", middleware.RequireRoles(models.RoleSuperAdmin), bindingHandler.Assign)
	auth.GET("/bindings", middleware.RequireRoles(models.RoleSuperAdmin), bindingHandler.Roster)
	auth.PATCH("/bindings/:user_id/:rank_id", middleware.RequireRoles(models.RoleSuperAdmin), bindingHandler.UpdatePermissions)
	auth.DELETE("/bindings/:user_id/:rank_id", middleware.RequireRoles(models.RoleSuperAdmin), bindingHandler.Remove)

	auth.GET("/exports/roster", middleware.RequireRoles(models.RoleSuperAdmin), exportHandler.Roster)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
