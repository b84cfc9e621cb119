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
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/siwes-logbook-api/api/swagger"
	"github.com/noah-isme/siwes-logbook-api/internal/handler"
	"github.com/noah-isme/siwes-logbook-api/internal/middleware"
	"github.com/noah-isme/siwes-logbook-api/internal/models"
	"github.com/noah-isme/siwes-logbook-api/internal/repository"
	"github.com/noah-isme/siwes-logbook-api/internal/service"
	"github.com/noah-isme/siwes-logbook-api/pkg/cache"
	"github.com/noah-isme/siwes-logbook-api/pkg/config"
	"github.com/noah-isme/siwes-logbook-api/pkg/database"
	"github.com/noah-isme/siwes-logbook-api/pkg/jobs"
	"github.com/noah-isme/siwes-logbook-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/siwes-logbook-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/siwes-logbook-api/pkg/middleware/requestid"
	"github.com/noah-isme/siwes-logbook-api/pkg/storage"
)

// @title SIWES Logbook API
// @version 1.0.0
// @description Daily log lifecycle engine for SIWES work placements
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect to redis", "error", err)
		}
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		defer cacheRepo.Close() //nolint:errcheck
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.DefaultTTL, logr, true)
	}

	validate := validator.New()

	logRepo := repository.NewLogRepository(db)
	placementRepo := repository.NewPlacementRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)

	geofenceSvc := service.NewGeofenceService()
	tokenSvc := service.NewTokenService(service.TokenConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	var placementSource service.PlacementSource = placementRepo
	if cacheSvc != nil {
		placementSource = service.NewCachedPlacementReader(placementSource, cacheSvc, cfg.Cache.PlacementTTL)
	}
	logSvc := service.NewLogService(logRepo, placementSource, enrollmentRepo, geofenceSvc, validate, logr, cfg.Program.Weeks)
	syncSvc := service.NewSyncService(logRepo, logSvc, logr)
	reviewSvc := service.NewReviewService(logRepo, cacheSvc, logr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var exportSvc *service.ExportService
	var exportQueue *jobs.Queue
	if cfg.Exports.Enabled {
		store, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init export storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
		exportJobRepo := repository.NewExportJobRepository(db)
		exportSvc = service.NewExportService(exportJobRepo, logRepo, store, signer, logr)
		exportQueue = jobs.NewQueue("logbook-exports", exportSvc.Process, jobs.QueueConfig{
			Workers:    cfg.Exports.WorkerConcurrency,
			MaxRetries: cfg.Exports.WorkerRetries,
			Logger:     logr,
		})
		exportQueue.Start(ctx)
		defer exportQueue.Stop()
		exportSvc.SetQueue(exportQueue)
	}

	logHandler := handler.NewLogHandler(logSvc)
	syncHandler := handler.NewSyncHandler(syncSvc, metricsSvc)
	reviewHandler := handler.NewReviewHandler(reviewSvc)

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
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(tokenSvc))

	reviewerRoles := middleware.RequireRoles(models.RoleSupervisor, models.RoleAdmin)
	studentRole := middleware.RequireRoles(models.RoleStudent)

	logs := api.Group("/logs")
	{
		logs.POST("", studentRole, logHandler.Create)
		logs.GET("", studentRole, logHandler.List)
		logs.POST("/sync", studentRole, syncHandler.Sync)
		logs.POST("/sync/ack", studentRole, syncHandler.Acknowledge)
		logs.GET("/unsynced", studentRole, syncHandler.Unsynced)
		logs.POST("/bulk-verify", reviewerRoles, reviewHandler.BulkVerify)

		logs.GET("/:id", logHandler.Get)
		logs.PUT("/:id", studentRole, logHandler.Update)
		logs.DELETE("/:id", studentRole, logHandler.Delete)
		logs.POST("/:id/verify", reviewerRoles, reviewHandler.Verify)
		logs.POST("/:id/flag", reviewerRoles, reviewHandler.Flag)
		logs.POST("/:id/unflag", reviewerRoles, reviewHandler.Unflag)
	}

	review := api.Group("/review", reviewerRoles)
	{
		review.GET("/pending", reviewHandler.Pending)
		review.GET("/flagged", reviewHandler.Flagged)
		review.GET("/statistics", reviewHandler.Statistics)
	}

	placements := api.Group("/placements", reviewerRoles)
	{
		placements.GET("/:id/weeks", logHandler.WeekSummary)
		placements.GET("/:id/weeks/:week/logs", logHandler.WeekLogs)
	}

	if exportSvc != nil {
		exportHandler := handler.NewExportHandler(exportSvc)
		logs.POST("/export", exportHandler.Create)
		exports := api.Group("/exports")
		{
			exports.GET("/:id", exportHandler.Status)
		}
		// Download auth rides on the signed token, not the bearer token,
		// so mobile clients can hand the link to a system downloader.
		r.GET(cfg.APIPrefix+"/exports/:id/download", exportHandler.Download)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
