package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/nestlearn/planner-api/api/swagger"
	"github.com/nestlearn/planner-api/internal/handler"
	"github.com/nestlearn/planner-api/internal/middleware"
	"github.com/nestlearn/planner-api/internal/repository"
	"github.com/nestlearn/planner-api/internal/service"
	"github.com/nestlearn/planner-api/pkg/cache"
	"github.com/nestlearn/planner-api/pkg/config"
	"github.com/nestlearn/planner-api/pkg/database"
	"github.com/nestlearn/planner-api/pkg/jobs"
	"github.com/nestlearn/planner-api/pkg/logger"
	corsmiddleware "github.com/nestlearn/planner-api/pkg/middleware/cors"
	reqidmiddleware "github.com/nestlearn/planner-api/pkg/middleware/requestid"
)

// @title NestLearn Planner API
// @version 0.1.0
// @description Adaptive scheduling and proposal engine for household learning
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
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, availability cache disabled", zap.Error(err))
		redisClient = nil
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	// Repositories.
	availabilityRepo := repository.NewAvailabilityRepository(db)
	commitmentRepo := repository.NewCommitmentRepository(db)
	blackoutRepo := repository.NewBlackoutRepository(db)
	curriculumRepo := repository.NewCurriculumRepository(db)
	velocityRepo := repository.NewVelocityRepository(db)
	planRepo := repository.NewPlanRepository(db)
	learnerRepo := repository.NewLearnerRepository(db)

	// A nil redis client degrades the cache repository to a no-op store.
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services.
	cacheEnabled := cfg.Cache.Enabled && redisClient != nil
	availabilityCache := service.NewAvailabilityCache(cacheRepo, cfg.Cache.TTL, cacheEnabled, metricsSvc, logr)

	gapSvc := service.NewGapService(availabilityRepo, commitmentRepo, blackoutRepo, learnerRepo, availabilityCache, logr)
	velocitySvc := service.NewVelocityService(velocityRepo, curriculumRepo, commitmentRepo, learnerRepo, logr)
	needsSvc := service.NewNeedsService(curriculumRepo, velocityRepo, commitmentRepo, curriculumRepo, logr)
	planSvc := service.NewPlanService(planRepo, commitmentRepo, gapSvc, needsSvc, learnerRepo, availabilityCache, cfg.Planner, validate, logr)
	rescheduleSvc := service.NewRescheduleService(commitmentRepo, gapSvc, cfg.Reschedule, cfg.Planner.MinGapMinutes, logr)
	blackoutSvc := service.NewBlackoutService(blackoutRepo, learnerRepo, availabilityCache, validate, logr)
	exportSvc := service.NewExportService(planRepo, logr)

	// Background recompute queue.
	recomputeQueue := jobs.NewQueue("velocity-recompute", func(ctx context.Context, job jobs.Job) error {
		payload, ok := job.Payload.(handler.VelocityRecomputePayload)
		if !ok {
			return fmt.Errorf("unexpected payload for job %s", job.ID)
		}
		updates, err := velocitySvc.RecomputeFamily(ctx, payload.FamilyID, payload.SinceWeeks)
		if err != nil {
			return err
		}
		metricsSvc.ObserveVelocityUpdates(len(updates))
		return nil
	}, jobs.QueueConfig{
		Workers:    cfg.Jobs.Workers,
		MaxRetries: cfg.Jobs.MaxRetries,
		RetryDelay: cfg.Jobs.RetryDelay,
		Logger:     logr,
	})
	recomputeQueue.Start(context.Background())
	defer recomputeQueue.Stop()

	// Handlers.
	planHandler := handler.NewPlanHandler(planSvc, exportSvc, metricsSvc)
	velocityHandler := handler.NewVelocityHandler(velocitySvc, recomputeQueue, metricsSvc, cfg.Velocity)
	rescheduleHandler := handler.NewRescheduleHandler(rescheduleSvc)
	blackoutHandler := handler.NewBlackoutHandler(blackoutSvc)
	gapHandler := handler.NewGapHandler(gapSvc, cfg.Planner.MinGapMinutes)

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
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.POST("/plans/propose", planHandler.Propose)
		api.PATCH("/plans/:id/apply", planHandler.Apply)
		api.GET("/plans/:id/export", planHandler.Export)
		api.POST("/velocity/recompute", velocityHandler.Recompute)
		api.GET("/commitments/:id/suggestions", rescheduleHandler.Suggestions)
		api.POST("/blackouts", blackoutHandler.Create)
		api.GET("/learners/:id/gaps", gapHandler.Gaps)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Info("server starting", zap.String("addr", addr), zap.String("env", cfg.Env))
	if err := r.Run(addr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}
