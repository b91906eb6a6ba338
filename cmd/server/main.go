package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alimgiray/prdash/internal/handlers"
	"github.com/alimgiray/prdash/internal/middleware"
	"github.com/alimgiray/prdash/internal/repositories"
	"github.com/alimgiray/prdash/internal/services"
	"github.com/alimgiray/prdash/internal/workers"
	"github.com/alimgiray/prdash/pkg/config"
	"github.com/alimgiray/prdash/pkg/database"
	"github.com/alimgiray/prdash/pkg/logger"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	if err := config.Load(); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cfg := config.AppConfig

	if err := logger.Configure(cfg.Log.Level, cfg.Log.File); err != nil {
		log.Fatalf("Failed to configure logger: %v", err)
	}

	// Set Gin mode
	gin.SetMode(cfg.Server.Mode)

	// Initialize database
	if err := database.Init(cfg.Database.Path); err != nil {
		logger.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	// Initialize dependencies
	kvRepo := repositories.NewKVRepository(database.DB)
	notificationRepo := repositories.NewNotificationRepository(database.DB)
	settingsService := services.NewSettingsService(kvRepo)
	credentialService := services.NewCredentialService(kvRepo)
	seedStores(cfg, settingsService, credentialService)

	var githubOpts []services.GitHubOption
	if cfg.GitHub.BaseURL != "" {
		githubOpts = append(githubOpts, services.WithBaseURL(cfg.GitHub.BaseURL))
	}
	fetcherFactory := services.NewGitHubFetcherFactory(githubOpts...)

	builder := services.NewSnapshotBuilder(fetcherFactory, cfg.Fetch.MaxConcurrency, time.Duration(cfg.Fetch.TimeoutSeconds)*time.Second)
	dashboardService, err := services.NewDashboardService(
		settingsService, credentialService, builder, services.NewNotificationDiffEngine(),
		fetcherFactory, cfg.Notification.IconURL, cfg.Notification.QueueSize,
	)
	if err != nil {
		logger.Fatalf("Failed to initialize dashboard: %v", err)
	}
	defer dashboardService.Close()

	sink := services.MultiSink{services.LogSink{}, services.NewStoreSink(notificationRepo)}
	notificationService := services.NewNotificationService(notificationRepo, sink, cfg.Notification.IconURL)

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	schedulerService, err := services.NewSchedulerService(func() {
		if err := dashboardService.Refresh(appCtx); err != nil {
			logger.WithError(err).Warn("Refresh skipped")
		}
	})
	if err != nil {
		logger.Fatalf("Failed to initialize scheduler: %v", err)
	}

	// Initialize worker manager
	workerManager := workers.NewWorkerManager(schedulerService, dashboardService, settingsService, credentialService, notificationService)

	// Initialize router
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger())

	// Setup routes
	setupRoutes(router, dashboardService, settingsService, credentialService, schedulerService, notificationService, workerManager)

	// Start workers
	if err := workerManager.StartAll(); err != nil {
		logger.Fatalf("Failed to start workers: %v", err)
	}

	// Setup server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		logger.Infof("Server starting on :%s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shut down")
	}

	cancel()
	workerManager.StopAll()
	logger.Info("Server stopped")
}

// seedStores fills empty stores from the environment
func seedStores(cfg *config.Config, settingsService *services.SettingsService, credentialService *services.CredentialService) {
	seed, err := cfg.SeedSettings()
	if err != nil {
		logger.Fatalf("Failed to load dashboard seed: %v", err)
	}
	if seed != nil {
		stored, err := settingsService.Seed(seed)
		if err != nil {
			logger.Fatalf("Failed to seed settings: %v", err)
		}
		if stored {
			logger.Infof("Seeded settings with %d repositories", len(seed.Repos))
		}
	}

	if cfg.GitHub.Token != "" {
		stored, err := credentialService.Seed(cfg.GitHub.Token)
		if err != nil {
			logger.Fatalf("Failed to seed credential: %v", err)
		}
		if stored {
			logger.Info("Seeded GitHub token from the environment")
		}
	}
}

func setupRoutes(
	router *gin.Engine,
	dashboardService *services.DashboardService,
	settingsService *services.SettingsService,
	credentialService *services.CredentialService,
	schedulerService *services.SchedulerService,
	notificationService *services.NotificationService,
	workerManager *workers.WorkerManager,
) {
	// Initialize handlers
	dashboardHandler := handlers.NewDashboardHandler(dashboardService, services.NewExportService(), schedulerService)
	settingsHandler := handlers.NewSettingsHandler(settingsService, credentialService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	healthHandler := handlers.NewHealthHandler(workerManager)
	notFoundHandler := handlers.NewNotFoundHandler()

	// Credential routes stay open so a token can be configured
	router.PUT("/api/token", settingsHandler.SetToken)
	router.DELETE("/api/token", settingsHandler.ClearToken)

	// Protected routes
	api := router.Group("/api")
	api.Use(middleware.AuthRequired(dashboardService))
	{
		api.GET("/user", dashboardHandler.CurrentUser)
		api.GET("/prs", dashboardHandler.PullRequests)
		api.GET("/prs/export.xlsx", dashboardHandler.Export)
		api.POST("/refresh", dashboardHandler.Refresh)
		api.GET("/settings", settingsHandler.GetSettings)
		api.PUT("/settings", settingsHandler.UpdateSettings)
		api.GET("/notifications", notificationHandler.ListNotifications)
	}

	router.GET("/notifications/:id/open", notificationHandler.OpenNotification)

	// Health check endpoint
	router.GET("/health", healthHandler.HealthCheck)

	router.NoRoute(notFoundHandler.NotFound)
}
