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
	"go.uber.org/zap"

	_ "github.com/noah-isme/codepulse-api/api/swagger"
	"github.com/noah-isme/codepulse-api/internal/handler"
	"github.com/noah-isme/codepulse-api/internal/middleware"
	githubprovider "github.com/noah-isme/codepulse-api/internal/provider/github"
	leetcodeprovider "github.com/noah-isme/codepulse-api/internal/provider/leetcode"
	"github.com/noah-isme/codepulse-api/internal/repository"
	"github.com/noah-isme/codepulse-api/internal/service"
	"github.com/noah-isme/codepulse-api/pkg/cache"
	"github.com/noah-isme/codepulse-api/pkg/config"
	"github.com/noah-isme/codepulse-api/pkg/database"
	"github.com/noah-isme/codepulse-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/codepulse-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/codepulse-api/pkg/middleware/requestid"
)

const shutdownTimeout = 15 * time.Second

// @title CodePulse API
// @version 1.0.0
// @description Student coding activity metrics from GitHub and LeetCode
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	metricsSvc := service.NewMetricsService()
	deps := map[string]handler.Pinger{"postgres": db}

	store, closeStore, err := newCacheStore(ctx, cfg, logr)
	if err != nil {
		logr.Fatal("failed to init cache", zap.Error(err))
	}
	defer closeStore()
	if pinger, ok := store.(handler.Pinger); ok {
		deps["redis"] = pinger
	}

	ghClient, err := githubprovider.NewClient(cfg.GitHub, logr.Named("github"), githubprovider.WithObserver(metricsSvc))
	if err != nil {
		logr.Fatal("failed to init github client", zap.Error(err))
	}
	lcClient := leetcodeprovider.NewClient(cfg.LeetCode, logr.Named("leetcode"), leetcodeprovider.WithObserver(metricsSvc))

	students := repository.NewStudentRepository(db)
	metricsRepo := repository.NewStudentMetricsRepository(db)
	githubRepo := repository.NewGithubDataRepository(db)
	leetcodeRepo := repository.NewLeetCodeDataRepository(db)

	validate := validator.New()
	gate := service.NewStalenessGate(cfg.Metrics.StaleAfter, nil)
	cacheSvc := service.NewCacheService(store, metricsSvc, cfg.Cache.ProviderTTL, logr, cfg.Cache.Enabled)

	githubSvc := service.NewGithubSyncService(students, githubRepo, ghClient, cacheSvc, gate, validate, service.GithubSyncConfig{
		CommitConcurrency: cfg.GitHub.CommitConcurrency,
		ProviderCacheTTL:  cfg.Cache.ProviderTTL,
	}, logr)
	leetcodeSvc := service.NewLeetCodeSyncService(students, leetcodeRepo, lcClient, gate, validate, logr)
	studentMetricsSvc := service.NewStudentMetricsService(students, metricsRepo, githubSvc, leetcodeSvc, cacheSvc, gate, validate, logr)
	reportSvc := service.NewProgressReportService(students, metricsRepo, gate, logr)
	classSvc := service.NewClassAnalyticsService(students, metricsRepo, cacheSvc, metricsSvc, cfg.Cache.ClassStatsTTL, logr)
	validationSvc := service.NewPlatformValidationService(students, githubRepo, leetcodeRepo, ghClient, lcClient, cacheSvc, gate, validate, service.PlatformValidationConfig{
		BatchSize:  cfg.Validation.BatchSize,
		BatchDelay: cfg.Validation.BatchDelay,
	}, logr)

	refresher := service.NewMetricsRefresher(students, studentMetricsSvc, service.RefresherConfig{
		Workers:   cfg.Refresh.Workers,
		Retries:   cfg.Refresh.Retries,
		Scheduled: cfg.Refresh.Scheduled,
		Interval:  cfg.Refresh.Interval,
	}, logr.Named("refresher"))
	metricsSvc.TrackQueueDepth(refresher.Pending)
	refresher.Start(ctx)
	defer refresher.Stop()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/ready", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc, "/metrics", "/health"))
	r.Use(middleware.WithResponseMeta())

	registerRoutes(r, cfg, routeHandlers{
		metrics:   handler.NewMetricsHandler(metricsSvc, deps),
		students:  handler.NewStudentMetricsHandler(studentMetricsSvc, reportSvc, classSvc),
		classes:   handler.NewClassHandler(classSvc, validationSvc, refresher),
		github:    handler.NewGithubHandler(githubSvc),
		leetcode:  handler.NewLeetCodeHandler(leetcodeSvc),
		analytics: handler.NewAnalyticsHandler(classSvc, metricsSvc),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "cache_driver", cfg.Cache.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Errorw("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

// newCacheStore selects the cache driver. Redis failures are fatal only when Redis was requested.
func newCacheStore(ctx context.Context, cfg *config.Config, logr *zap.Logger) (cache.Store, func(), error) {
	if cfg.Cache.Driver != config.CacheDriverRedis {
		return cache.NewMemoryStore(), func() {}, nil
	}
	client, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	repo := repository.NewCacheRepository(client, cfg.Cache.KeyPrefix, logr.Named("cache"))
	if cfg.Cache.FlushOnStart {
		if err := repo.Clear(ctx); err != nil {
			_ = repo.Close()
			return nil, nil, err
		}
		logr.Info("redis cache flushed", zap.String("prefix", cfg.Cache.KeyPrefix))
	}
	return repo, func() { _ = repo.Close() }, nil
}
