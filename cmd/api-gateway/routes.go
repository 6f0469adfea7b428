package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/noah-isme/codepulse-api/internal/handler"
	"github.com/noah-isme/codepulse-api/pkg/config"
)

type routeHandlers struct {
	metrics   *handler.MetricsHandler
	students  *handler.StudentMetricsHandler
	classes   *handler.ClassHandler
	github    *handler.GithubHandler
	leetcode  *handler.LeetCodeHandler
	analytics *handler.AnalyticsHandler
}

func registerRoutes(r *gin.Engine, cfg *config.Config, h routeHandlers) {
	r.GET("/health", h.metrics.Health)
	r.GET("/ready", h.metrics.Ready)
	r.GET("/metrics", h.metrics.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	metrics := api.Group("/metrics")
	metrics.GET("/overview", h.analytics.Overview)
	metrics.POST("/:userId", h.students.Update)
	metrics.GET("/:userId", h.students.Get)
	metrics.POST("/:userId/refresh", h.students.Refresh)
	metrics.GET("/:userId/report", h.students.Report)
	metrics.GET("/:userId/compare", h.students.Compare)

	classes := api.Group("/classes/:classId")
	classes.GET("/averages", h.classes.Averages)
	classes.GET("/overview", h.classes.Overview)
	classes.POST("/validate-platforms", h.classes.ValidatePlatforms)
	classes.POST("/refresh", h.classes.Refresh)

	github := api.Group("/github/:userId")
	github.GET("/repos", h.github.Repos)
	github.GET("/summary", h.github.Summary)

	api.GET("/leetcode/:userId", h.leetcode.Profile)
	api.GET("/analytics/system", h.analytics.System)
}
