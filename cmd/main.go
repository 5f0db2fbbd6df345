package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/anloi/smarthome/server/adapters/adafruit"
	mongoadapter "github.com/anloi/smarthome/server/adapters/mongo"
	"github.com/anloi/smarthome/server/domain/entities"
	"github.com/anloi/smarthome/server/domain/repositories"
	"github.com/anloi/smarthome/server/internal/api"
	"github.com/anloi/smarthome/server/internal/auth"
	"github.com/anloi/smarthome/server/internal/config"
	"github.com/anloi/smarthome/server/internal/mailer"
	"github.com/anloi/smarthome/server/internal/metrics"
	syncjob "github.com/anloi/smarthome/server/internal/sync"
	"github.com/anloi/smarthome/server/internal/websocket"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}
	auth.SetSecret(cfg.JWTSecret)

	// Connect to MongoDB
	mongoClient, err := mongoadapter.NewClient(cfg.MongoURI, cfg.MongoDatabase, logger)
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 10*time.Second)
	userRepo, err := mongoadapter.NewUserRepository(startupCtx, mongoClient.Database)
	cancelStartup()
	if err != nil {
		logger.Fatal("Failed to initialize user repository", zap.Error(err))
	}
	deviceRepo := mongoadapter.NewDeviceRepository(mongoClient.Database)

	feedRepos := make(map[string]repositories.FeedRepository, len(entities.Feeds))
	for _, feed := range entities.Feeds {
		feedRepos[feed.Slug] = mongoadapter.NewFeedRepository(mongoClient.Database, feed)
	}

	// Upstream feed client and sync job
	feedClient := adafruit.NewClient(cfg.AIOUsername, cfg.AIOKey, logger,
		adafruit.WithBaseURL(cfg.AIOBaseURL))

	syncMetrics := metrics.NewSyncMetrics("smarthome")

	hub := websocket.NewHub(logger)
	hub.OnClientCount(func(n int) {
		syncMetrics.WebsocketClients.Set(float64(n))
	})
	go hub.Run()

	syncer := syncjob.New(
		feedClient,
		entities.Feeds,
		feedRepos,
		cfg.SyncMode,
		cfg.SyncInterval,
		cfg.SyncUTCOffset,
		logger,
		syncjob.WithEventSink(hub),
		syncjob.WithMetrics(syncMetrics),
	)
	syncCtx, stopSync := context.WithCancel(context.Background())
	go syncer.Run(syncCtx)

	mail := mailer.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.EmailFrom, logger)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Initialize API routes
	server := api.NewServer(userRepo, deviceRepo, feedRepos, mail, syncer, hub, cfg.FrontendURL, logger)
	server.InitRoutes(e)

	// Graceful shutdown
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.String("port", cfg.Port))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")
	stopSync()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := mongoClient.Close(ctx); err != nil {
		logger.Error("Failed to close MongoDB connection", zap.Error(err))
	}

	logger.Info("Server exited")
}
