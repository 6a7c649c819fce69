package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sony/gobreaker"

	"github.com/notifyng/dispatch/internal/handlers"
	"github.com/notifyng/dispatch/internal/middleware"
)

// SetupRoutes configures the routes for the application.
func SetupRoutes(
	router *gin.Engine,
	notificationHandler *handlers.NotificationHandler,
	statusHandler *handlers.StatusHandler,
	redisClient *redis.Client,
) {
	router.Use(middleware.CorrelationIDMiddleware())

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{})

	v1 := router.Group("/v1")
	v1.Use(middleware.AuthMiddleware())
	v1.Use(middleware.RateLimitMiddleware(redisClient, 100, time.Minute))
	v1.Use(middleware.CircuitBreakerMiddleware(cb))
	{
		notifications := v1.Group("/notifications")
		{
			notifications.POST("/dispatch", notificationHandler.DispatchNotification)
			notifications.GET("/:base_key/status", statusHandler.GetStatus)
		}
	}

	router.GET("/health", handlers.HealthCheck)
}
