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
	"go.uber.org/zap"

	_ "github.com/noah-isme/competency-api/api/swagger"
	"github.com/noah-isme/competency-api/internal/handler"
	"github.com/noah-isme/competency-api/internal/middleware"
	"github.com/noah-isme/competency-api/internal/models"
	"github.com/noah-isme/competency-api/internal/repository"
	"github.com/noah-isme/competency-api/internal/scoring"
	"github.com/noah-isme/competency-api/internal/service"
	"github.com/noah-isme/competency-api/pkg/cache"
	"github.com/noah-isme/competency-api/pkg/config"
	"github.com/noah-isme/competency-api/pkg/database"
	"github.com/noah-isme/competency-api/pkg/jobs"
	"github.com/noah-isme/competency-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/competency-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/competency-api/pkg/middleware/requestid"
)

// @title Competency Assessment API
// @version 1.0.0
// @description Scores employee competency assessments against position requirement templates.
// @BasePath /api/v1
// @schemes http https
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	metricsSvc := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if cfg.GradeBands.CacheEnabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, grade band cache disabled", zap.Error(err))
		} else {
			repo := repository.NewCacheRepository(client, logr)
			defer repo.Close() //nolint:errcheck
			cacheRepo = repo
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.GradeBands.CacheTTL, logr, cacheRepo != nil)

	validate := validator.New()
	scale := scoring.RatingScale{Min: cfg.Scale.MinLevel, Max: cfg.Scale.MaxLevel, MinRequired: cfg.Scale.MinRequiredLevel}

	competencyRepo := repository.NewCompetencyRepository(db)
	gradeBandRepo := repository.NewGradeBandRepository(db)
	templateRepo := repository.NewTemplateRepository(db)
	assessmentRepo := repository.NewAssessmentRepository(db)

	authSvc := service.NewAuthService(logr, service.AuthConfig{AccessTokenSecret: cfg.JWT.Secret})
	competencySvc := service.NewCompetencyService(competencyRepo, logr)
	gradeBandSvc := service.NewGradeBandService(gradeBandRepo, cacheSvc, cfg.GradeBands.CacheTTL, validate, logr)
	templateSvc := service.NewTemplateService(templateRepo, competencySvc, scale, validate, logr)
	assessmentSvc := service.NewAssessmentService(assessmentRepo, templateRepo, competencySvc, gradeBandSvc, scale, metricsSvc, validate, logr)

	var queue *jobs.Queue
	if cfg.Recalculation.Enabled {
		queue = jobs.NewQueue("recalculation", assessmentSvc.HandleRecalculationJob, jobs.QueueConfig{
			Workers:    cfg.Recalculation.WorkerConcurrency,
			MaxRetries: cfg.Recalculation.WorkerRetries,
			RetryDelay: 2 * time.Second,
			Logger:     logr,
		})
		// workers outlive the signal context so shutdown can drain them
		queue.Start(context.WithoutCancel(ctx))
		assessmentSvc.SetRecalculationQueue(queue)
	}

	// the service warns when the active table has gaps or overlaps
	if _, err := gradeBandSvc.Coverage(ctx); err != nil {
		logr.Warn("grade band coverage check failed", zap.Error(err))
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS))
	r.Use(middleware.Metrics(metricsSvc))

	metricsHandler := handler.NewMetricsHandler(metricsSvc, db)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	registerRoutes(r.Group(cfg.APIPrefix), authSvc, routeHandlers{
		competencies: handler.NewCompetencyHandler(competencySvc),
		gradeBands:   handler.NewGradeBandHandler(gradeBandSvc),
		templates:    handler.NewTemplateHandler(templateSvc),
		assessments:  handler.NewAssessmentHandler(assessmentSvc),
		metrics:      metricsHandler,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	if queue != nil {
		if err := queue.Wait(shutdownCtx); err != nil {
			logr.Warn("recalculation queue not drained before deadline", zap.Error(err))
		}
		queue.Stop()
	}
}

type routeHandlers struct {
	competencies *handler.CompetencyHandler
	gradeBands   *handler.GradeBandHandler
	templates    *handler.TemplateHandler
	assessments  *handler.AssessmentHandler
	metrics      *handler.MetricsHandler
}

func registerRoutes(api *gin.RouterGroup, auth middleware.TokenValidator, h routeHandlers) {
	api.Use(middleware.JWT(auth))

	readers := middleware.RequireRoles(models.RoleHR, models.RoleManager, models.RoleEmployee)
	assessors := middleware.RequireRoles(models.RoleHR, models.RoleManager)
	hr := middleware.RequireRoles(models.RoleHR)
	admin := middleware.RequireRoles()

	api.GET("/competencies/:flavor", readers, h.competencies.Tree)

	bands := api.Group("/grade-bands")
	bands.GET("", readers, h.gradeBands.List)
	bands.GET("/coverage", hr, h.gradeBands.Coverage)
	bands.GET("/lookup", readers, h.gradeBands.Lookup)
	bands.GET("/:id", readers, h.gradeBands.Get)
	bands.POST("", admin, h.gradeBands.Create)
	bands.PUT("/:id", admin, h.gradeBands.Update)
	bands.DELETE("/:id", admin, h.gradeBands.Delete)

	templates := api.Group("/templates")
	templates.GET("", readers, h.templates.List)
	templates.GET("/:id", readers, h.templates.Get)
	templates.POST("", hr, h.templates.Create)
	templates.PUT("/:id", hr, h.templates.Update)
	templates.DELETE("/:id", hr, h.templates.Delete)

	assessments := api.Group("/assessments")
	assessments.GET("", assessors, h.assessments.List)
	assessments.POST("", assessors, h.assessments.Create)
	assessments.POST("/recalculate", hr, h.assessments.RecalculateTemplate)
	assessments.GET("/:id", readers, h.assessments.Get)
	assessments.PUT("/:id/ratings", assessors, h.assessments.UpdateRatings)
	assessments.POST("/:id/submit", assessors, h.assessments.Submit)
	assessments.POST("/:id/reopen", hr, h.assessments.Reopen)
	assessments.POST("/:id/recalculate", hr, h.assessments.Recalculate)
	assessments.DELETE("/:id", hr, h.assessments.Delete)

	api.GET("/metrics/summary", admin, h.metrics.Summary)
}
