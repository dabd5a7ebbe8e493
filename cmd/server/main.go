package main

import (
	"context"
	"log"
	"path/filepath"

	"github.com/bk001juma/api-matengenezo/internal/cache"
	"github.com/bk001juma/api-matengenezo/internal/config"
	"github.com/bk001juma/api-matengenezo/internal/database"
	"github.com/bk001juma/api-matengenezo/internal/handler"
	"github.com/bk001juma/api-matengenezo/internal/middleware"
	"github.com/bk001juma/api-matengenezo/internal/ratelimit"
	"github.com/bk001juma/api-matengenezo/internal/report"
	"github.com/bk001juma/api-matengenezo/internal/scheduler"
	"github.com/bk001juma/api-matengenezo/internal/storage"
	"github.com/bk001juma/api-matengenezo/internal/upload"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := config.Load()

	// Initialize database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto migrate
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// Initialize Redis cache
	redisCache, err := cache.NewRedisCache(cfg.RedisURL)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v", err)
		// Continue without Redis: no token-version cache, no rate limiting (fail-open)
	}

	var kv storage.KV
	var limiter middleware.Checker
	if redisCache != nil {
		defer redisCache.Close()
		kv = redisCache
		limiter = ratelimit.NewLimiter(redisCache, map[string]ratelimit.ActionConfig{
			ratelimit.ActionReportSubmit: {Limit: cfg.SubmitLimit, Window: cfg.SubmitWindow},
		})
	}

	images, err := upload.NewLocalStore(cfg.UploadDir, cfg.AppURL)
	if err != nil {
		log.Fatalf("Failed to initialize upload store: %v", err)
	}

	// Stores and services
	users := storage.NewUsers(db, kv)
	locations := storage.NewLocations(db)
	reportService := report.NewService(locations, storage.NewReports(db), images)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(users, cfg.JWTSecret, cfg.AdminEmails)
	reportHandler := handler.NewReportHandler(reportService)
	exportHandler := handler.NewExportHandler(reportService)
	locationHandler := handler.NewLocationHandler(locations)
	adminHandler := handler.NewAdminHandler(db, reportService)

	// Background sweep of orphaned staged uploads
	var sweeper *scheduler.SweepScheduler
	if cfg.SweepEnabled {
		sweeper = scheduler.NewSweepScheduler(images, scheduler.SchedulerConfig{
			Interval: cfg.SweepInterval,
			MaxAge:   cfg.StagingMaxAge,
			OnSwept:  middleware.RecordStagingSweep,
		})
		go sweeper.Start(context.Background())
		log.Println("Background staging sweeper started")
	}

	// Setup router
	r := gin.Default()
	r.Use(middleware.MetricsMiddleware())

	// CORS middleware
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Prometheus metrics
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Sweeper status
	r.GET("/scheduler/status", func(c *gin.Context) {
		if sweeper != nil {
			c.JSON(200, sweeper.GetStatus())
		} else {
			c.JSON(200, gin.H{"enabled": false, "message": "Sweeper is disabled"})
		}
	})

	// Published report images
	r.Static(upload.URLPrefix+"/reports", filepath.Join(images.Root(), "reports"))

	// API routes
	api := r.Group("/api")
	{
		// Auth
		api.POST("/register", middleware.RateLimit(limiter, ratelimit.ActionRegister), authHandler.Register)
		api.POST("/login", middleware.RateLimit(limiter, ratelimit.ActionLogin), authHandler.Login)
		api.POST("/token/refresh", authHandler.RefreshToken)
	}

	authed := api.Group("", middleware.AuthMiddleware(cfg.JWTSecret, users))
	{
		authed.GET("/user", authHandler.Me)
		authed.POST("/logout", authHandler.Logout)

		// Reports
		authed.POST("/reports", middleware.RateLimit(limiter, ratelimit.ActionReportSubmit), reportHandler.Submit)
		authed.GET("/reports", reportHandler.List)
		authed.GET("/reports/export", exportHandler.Export)

		// Locations
		authed.GET("/locations", locationHandler.List)
		authed.POST("/locations/match", locationHandler.Match)
	}

	admin := authed.Group("/admin", middleware.AdminMiddleware())
	{
		admin.GET("/stats", adminHandler.GetStats)
		admin.GET("/reports", adminHandler.ListReports)
		admin.PATCH("/reports/:id/status", adminHandler.UpdateReportStatus)

		admin.POST("/locations", locationHandler.Create)
		admin.PUT("/locations/:id", locationHandler.Update)
		admin.DELETE("/locations/:id", locationHandler.Delete)
	}

	log.Printf("API server starting on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
