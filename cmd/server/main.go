package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/notifyng/dispatch/internal/config"
	"github.com/notifyng/dispatch/internal/handlers"
	"github.com/notifyng/dispatch/internal/notify"
	"github.com/notifyng/dispatch/internal/repository"
	"github.com/notifyng/dispatch/internal/routes"
	"github.com/notifyng/dispatch/internal/services"
	"github.com/notifyng/dispatch/pkg/logger"
	"github.com/notifyng/dispatch/pkg/metrics"
	"github.com/notifyng/dispatch/pkg/rabbitmq"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logr := logger.New(cfg.LogLevel)

	// Initialize database
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		logr.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}

	// Initialize Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisURL,
	})
	defer redisClient.Close()

	metricsCollector := metrics.New()

	// Initialize RabbitMQ
	mqManager, err := rabbitmq.NewManager(cfg.RabbitMQURL, logr)
	if err != nil {
		logr.Error("failed to connect to RabbitMQ", slog.Any("error", err))
		os.Exit(1)
	}
	defer mqManager.Close()

	if err := mqManager.DeclareStatusTopology(
		"notifications.status",
		map[string]string{
			"status.email.queue":  "email",
			"status.sms.queue":    "sms",
			"status.in_app.queue": "in_app",
			"status.push.queue":   "push",
		},
		"status.failed.queue",
	); err != nil {
		logr.Error("failed to declare rabbitmq topology", slog.Any("error", err))
		os.Exit(1)
	}

	// Initialize repositories
	attemptStore, err := repository.NewAttemptStore(db)
	if err != nil {
		logr.Error("failed to initialize attempt store", slog.Any("error", err))
		os.Exit(1)
	}
	redisRepo := repository.NewRedisRepository(redisClient)
	tokenStore := repository.NewTokenStore(redisClient)

	// Initialize services
	idempotencyService := services.NewIdempotencyService(redisRepo)
	userClient := services.NewUserClient(cfg.UserServiceURL, cfg.UserServiceAPIKey, redisRepo, cfg.ContactCacheTTL)
	templateClient := services.NewTemplateClient(cfg.TemplateServiceURL, 5*time.Second)
	publisher := services.NewPublisher(mqManager.Connection(), logr)

	senders := notify.Senders{
		Email: services.NewSendGridSender(cfg.SendGridAPIKey, cfg.FromEmail, ""),
		SMS:   services.NewTermiiSender(cfg.TermiiAPIKey, cfg.TermiiSenderID, ""),
		Push:  services.NewFCMSender(cfg.FCMServerKey, ""),
	}

	orchestrator := notify.NewOrchestrator(userClient, templateClient, attemptStore, tokenStore, senders, publisher, logr)

	// Initialize handlers
	notificationHandler := handlers.NewNotificationHandler(orchestrator, idempotencyService, attemptStore, metricsCollector)
	statusHandler := handlers.NewStatusHandler(attemptStore)

	// Initialize router
	router := gin.Default()
	router.Use(metricsCollector.GinMiddleware())
	router.GET("/metrics", gin.WrapH(metricsCollector.Handler()))

	// Setup routes
	routes.SetupRoutes(router, notificationHandler, statusHandler, redisClient)

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Error("server listen failed", slog.Any("error", err))
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logr.Info("shutting down server")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Error("server forced to shutdown", slog.Any("error", err))
	}

	// Let in-flight channel sends reach their terminal status before exit.
	orchestrator.Wait()

	logr.Info("server exiting")
}
