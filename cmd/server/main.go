package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/avatarctic/avatar-proxy/configs"
	"github.com/avatarctic/avatar-proxy/internal/application/services"
	"github.com/avatarctic/avatar-proxy/internal/core/ports"
	"github.com/avatarctic/avatar-proxy/internal/infrastructure/fetch"
	"github.com/avatarctic/avatar-proxy/internal/infrastructure/health"
	"github.com/avatarctic/avatar-proxy/internal/infrastructure/httpserver"
	"github.com/avatarctic/avatar-proxy/internal/infrastructure/memcache"
	"github.com/avatarctic/avatar-proxy/internal/infrastructure/redis"
	"github.com/avatarctic/avatar-proxy/internal/infrastructure/slackdir"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Setup logger
	logger := logrus.New()
	if cfg.Log.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(level)
	}

	logger.Info("Starting avatar proxy...")

	// Select the cache store backing the whole resolution pipeline
	var cache ports.Cache
	var healthCheckers []ports.HealthChecker
	if cfg.Cache.Backend == "redis" {
		redisClient, err := redis.NewRedisClient(&cfg.Redis)
		if err != nil {
			logger.Fatal("Failed to connect to Redis:", err)
		}
		defer redisClient.Close()

		logger.Info("Connected to Redis successfully")
		cache = redis.NewRedisCache(redisClient, cfg.Cache.KeyPrefix)
		healthCheckers = append(healthCheckers, health.NewRedisHealthChecker(redisClient))
	} else {
		logger.Info("Using in-process memory cache")
		cache = memcache.NewMemoryCache()
	}

	// Directory client and downloader
	directoryClient := slackdir.NewClient(&cfg.Slack, logger)
	healthCheckers = append(healthCheckers, health.NewDirectoryHealthChecker(directoryClient))
	downloader := fetch.NewDownloader(cfg.Fallback.DownloadTimeout, logger)

	// Wire the resolution pipeline: roster -> url -> image
	directoryService := services.NewDirectoryService(directoryClient, cache, cfg.Cache.TTL, logger)
	urlService := services.NewImageURLService(directoryService, cache, cfg.Cache.TTL, cfg.Fallback, logger)
	avatarService := services.NewAvatarImageService(urlService, downloader, cache, cfg.Cache.TTL, cfg.Cache.NegativeTTL, logger)

	// Create server configuration
	serverConfig := &httpserver.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	deps := httpserver.ServerDeps{
		AvatarService:  avatarService,
		HealthCheckers: healthCheckers,
	}

	server := httpserver.NewServer(serverConfig, logger, deps)

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("Failed to start server:", err)
		}
	}()

	logger.Infof("Server started on %s:%s", cfg.Server.Host, cfg.Server.Port)

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown:", err)
	}

	logger.Info("Server exited")
}
