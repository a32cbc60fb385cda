package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sentitrack/sentitrack/internal/alerts"
	"github.com/sentitrack/sentitrack/internal/analysis"
	"github.com/sentitrack/sentitrack/internal/api"
	"github.com/sentitrack/sentitrack/internal/auth"
	"github.com/sentitrack/sentitrack/internal/config"
	"github.com/sentitrack/sentitrack/internal/datastore"
	"github.com/sentitrack/sentitrack/internal/kpi"
	"github.com/sentitrack/sentitrack/internal/llm"
	"github.com/sentitrack/sentitrack/internal/monitoring"
	"github.com/sentitrack/sentitrack/internal/notifications"
	"github.com/sentitrack/sentitrack/internal/scheduler"
	"github.com/sentitrack/sentitrack/internal/session"
	"github.com/sentitrack/sentitrack/internal/sources"
	"github.com/sentitrack/sentitrack/internal/storage"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load environment variables from .env file if it exists
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logrus.SetLevel(logrus.InfoLevel)
	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.SetFormatter(&logrus.JSONFormatter{})

	logrus.Info("Starting SentiTrack")

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStartup()

	db, err := datastore.Open(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		logrus.Fatalf("Failed to open data store: %v", err)
	}
	if err := datastore.AutoMigrate(db); err != nil {
		logrus.Fatalf("Failed to migrate data store: %v", err)
	}
	repo := datastore.NewRepository(db)

	// The brand context cache is optional; without it every request reads the store.
	var cache session.Cache
	if cfg.RedisAddr != "" {
		redisCache, err := session.NewRedisCache(startupCtx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.BrandContextTTL)
		if err != nil {
			logrus.Warnf("Brand context cache unavailable, continuing without it: %v", err)
		} else {
			defer redisCache.Close()
			cache = redisCache
		}
	}

	gemini := llm.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiBaseURL)
	if !gemini.IsConfigured() {
		logrus.Warn("GEMINI_API_KEY not set, analysis and mitigation will use fallbacks")
	}

	archive, err := storage.OpenArchive(startupCtx, cfg.StorageAccount, cfg.StorageContainer, cfg.DigestDir)
	if err != nil {
		logrus.Fatalf("Failed to initialize storage: %v", err)
	}

	notificationService := notifications.NewService(cfg)
	kpiService := kpi.NewService(repo)
	alertService := alerts.NewService(repo, gemini, notificationService)
	analyzer := analysis.NewAnalyzer(gemini, repo)

	collector := sources.NewCollector(repo, cfg.CollectionLookback,
		sources.NewHackerNewsSource(""),
		sources.NewRedditSource(cfg.RedditClientID, cfg.RedditClientSecret),
	)

	monitoringService := monitoring.NewService(cfg, monitoring.Deps{
		Collector:     collector,
		Brands:        repo,
		KPIs:          kpiService,
		Alerts:        alertService,
		Analyzer:      analyzer,
		Archive:       archive,
		Notifications: notificationService,
	})

	schedulerService := scheduler.NewService(cfg, monitoringService)
	if err := schedulerService.Start(); err != nil {
		logrus.Fatalf("Failed to start scheduler: %v", err)
	}
	defer schedulerService.Stop()

	apiServer := api.NewServer(api.Deps{
		Verifier:  auth.NewVerifier(cfg.JWTSecret),
		Brands:    session.NewResolver(repo, cache),
		Accounts:  repo,
		Dashboard: kpiService,
		Alerts:    alertService,
		Jobs:      monitoringService,
	})
	server := apiServer.NewHTTPServer(fmt.Sprintf(":%s", cfg.Port))

	go func() {
		logrus.Infof("HTTP server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	logrus.Info("Server exited")
}
