package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/gearguard/gearguard-api/api/swagger"
	"github.com/gearguard/gearguard-api/internal/authz"
	"github.com/gearguard/gearguard-api/internal/handler"
	"github.com/gearguard/gearguard-api/internal/middleware"
	"github.com/gearguard/gearguard-api/internal/repository"
	"github.com/gearguard/gearguard-api/internal/service"
	"github.com/gearguard/gearguard-api/pkg/cache"
	"github.com/gearguard/gearguard-api/pkg/config"
	"github.com/gearguard/gearguard-api/pkg/database"
	"github.com/gearguard/gearguard-api/pkg/jobs"
	"github.com/gearguard/gearguard-api/pkg/logger"
	corsmiddleware "github.com/gearguard/gearguard-api/pkg/middleware/cors"
	reqidmiddleware "github.com/gearguard/gearguard-api/pkg/middleware/requestid"
	"github.com/gearguard/gearguard-api/pkg/storage"
)

// @title GearGuard API
// @version 1.0.0
// @description Maintenance request tracking API
// @BasePath /api
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
	defer db.Close() //nolint:errcheck

	metricsService := service.NewMetricsService()

	var cacheService *service.CacheService
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		} else {
			defer redisClient.Close() //nolint:errcheck
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			cacheService = service.NewCacheService(cacheRepo, metricsService, logr, cfg.Cache.TTL)
		}
	}

	userRepo := repository.NewUserRepository(db)
	teamRepo := repository.NewTeamRepository(db)
	departmentRepo := repository.NewDepartmentRepository(db)
	equipmentRepo := repository.NewEquipmentRepository(db)
	requestRepo := repository.NewRequestRepository(db)
	dashboardRepo := repository.NewDashboardRepository(userRepo, teamRepo, equipmentRepo, requestRepo)

	authService := service.NewAuthService(userRepo, cfg.JWT, logr)
	userService := service.NewUserService(userRepo, logr)
	teamService := service.NewTeamService(teamRepo, logr)
	departmentService := service.NewDepartmentService(departmentRepo, logr)
	equipmentService := service.NewEquipmentService(equipmentRepo, teamRepo, logr)
	requestService := service.NewRequestService(requestRepo, equipmentRepo, userRepo, cacheService, metricsService, logr, cfg.Board)
	dashboardService := service.NewDashboardService(dashboardRepo, cacheService, logr)
	exportService := service.NewExportService(requestRepo, logr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := storage.NewLocalStorage(cfg.Export.Dir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init export storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.JWT.Secret, cfg.Export.URLTTL)
	reportQueue := jobs.NewQueue("reports", exportService.ProcessReportJob, jobs.QueueConfig{
		Workers: cfg.Export.Workers,
		Logger:  logr,
	})
	reportQueue.Start(ctx)
	defer reportQueue.Stop()
	exportService.EnableAsync(store, signer, reportQueue)

	go cleanupExports(ctx, store, cfg.Export.FileTTL, logr)

	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	teamHandler := handler.NewTeamHandler(teamService)
	departmentHandler := handler.NewDepartmentHandler(departmentService)
	equipmentHandler := handler.NewEquipmentHandler(equipmentService)
	requestHandler := handler.NewRequestHandler(requestService)
	dashboardHandler := handler.NewDashboardHandler(dashboardService)
	reportHandler := handler.NewReportHandler(exportService)
	metricsHandler := handler.NewMetricsHandler(metricsService)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Serve)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.GET("/me", middleware.JWT(authService), authHandler.Me)
	}

	// Signed token carries its own auth.
	api.GET("/requests/report/download", reportHandler.Download)

	protected := api.Group("")
	protected.Use(middleware.JWT(authService))

	users := protected.Group("/users")
	{
		users.GET("", middleware.RequireRoles(authz.RolesFor(authz.ActionUserList)...), userHandler.List)
		users.GET("/:id", userHandler.Get)
		users.POST("", middleware.RequireRoles(authz.RolesFor(authz.ActionUserCreate)...), userHandler.Create)
		users.PUT("/:id", middleware.RequireRoles(authz.RolesFor(authz.ActionUserUpdate)...), userHandler.Update)
		users.DELETE("/:id", middleware.RequireRoles(authz.RolesFor(authz.ActionUserDelete)...), userHandler.Delete)
	}

	teams := protected.Group("/teams")
	{
		teams.GET("", teamHandler.List)
		teams.GET("/:id", teamHandler.Get)
		teams.POST("", middleware.RequireRoles(authz.RolesFor(authz.ActionTeamCreate)...), teamHandler.Create)
		teams.PUT("/:id", middleware.RequireRoles(authz.RolesFor(authz.ActionTeamUpdate)...), teamHandler.Update)
		teams.DELETE("/:id", middleware.RequireRoles(authz.RolesFor(authz.ActionTeamDelete)...), teamHandler.Delete)
	}

	departments := protected.Group("/departments")
	{
		departments.GET("", departmentHandler.List)
		departments.GET("/:id", departmentHandler.Get)
		departments.POST("", middleware.RequireRoles(authz.RolesFor(authz.ActionDepartmentCreate)...), departmentHandler.Create)
		departments.PUT("/:id", middleware.RequireRoles(authz.RolesFor(authz.ActionDepartmentUpdate)...), departmentHandler.Update)
		departments.DELETE("/:id", middleware.RequireRoles(authz.RolesFor(authz.ActionDepartmentDelete)...), departmentHandler.Delete)
	}

	equipment := protected.Group("/equipment")
	{
		equipment.GET("", equipmentHandler.List)
		equipment.GET("/:id", equipmentHandler.Get)
		equipment.POST("", middleware.RequireRoles(authz.RolesFor(authz.ActionEquipmentCreate)...), equipmentHandler.Create)
		equipment.PUT("/:id", middleware.RequireRoles(authz.RolesFor(authz.ActionEquipmentUpdate)...), equipmentHandler.Update)
		equipment.DELETE("/:id", middleware.RequireRoles(authz.RolesFor(authz.ActionEquipmentDelete)...), equipmentHandler.Delete)
	}

	requests := protected.Group("/requests")
	{
		requests.POST("", requestHandler.Create)
		requests.GET("", middleware.RequireRoles(authz.RolesFor(authz.ActionRequestListAll)...), requestHandler.ListAll)
		requests.GET("/my", requestHandler.ListMine)
		requests.GET("/team", middleware.RequireRoles(authz.RolesFor(authz.ActionRequestTeam)...), requestHandler.ListTeam)
		requests.GET("/board", middleware.RequireRoles(authz.RolesFor(authz.ActionRequestTeam)...), requestHandler.Board)
		requests.GET("/stats", middleware.RequireRoles(authz.RolesFor(authz.ActionRequestStats)...), requestHandler.Stats)
		requests.GET("/report", middleware.RequireRoles(authz.RolesFor(authz.ActionRequestExport)...), reportHandler.TeamReport)
		requests.POST("/report/jobs", middleware.RequireRoles(authz.RolesFor(authz.ActionRequestExport)...), reportHandler.EnqueueTeamReport)
		requests.GET("/:id", requestHandler.Get)
		requests.PATCH("/:id", requestHandler.Update)
	}

	admin := protected.Group("/admin")
	{
		admin.GET("/stats", middleware.RequireRoles(authz.RolesFor(authz.ActionAdminStats)...), dashboardHandler.Stats)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

// cleanupExports periodically removes stale report files.
func cleanupExports(ctx context.Context, store *storage.LocalStorage, ttl time.Duration, logr *zap.Logger) {
	if ttl <= 0 {
		return
	}
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := store.CleanupOlderThan(ttl)
			if err != nil {
				logr.Sugar().Warnw("export cleanup failed", "error", err)
				continue
			}
			if len(deleted) > 0 {
				logr.Sugar().Infow("export cleanup", "deleted", len(deleted))
			}
		}
	}
}
