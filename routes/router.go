package routes

import (
	handlers "tripmate/internal/handlers/shared"
	"tripmate/internal/middleware"
	"tripmate/internal/services"
	"tripmate/pkg/logger"
	"tripmate/pkg/metrics"
	"tripmate/pkg/websocket"

	"github.com/gin-gonic/gin"
)

type RouterConfig struct {
	CORSAllowedOrigins []string
	TrustedProxies     []string
	WebSocketPath      string
	// Metrics is optional. When set it is exposed on MetricsPath.
	Metrics     *metrics.Metrics
	MetricsPath string
}

type Handlers struct {
	Chat      *handlers.ChatHandler
	Payment   *handlers.PaymentHandler
	Health    *handlers.HealthHandler
	WebSocket *websocket.Handler
}

// SetupRouter builds the engine with global middleware and every route group
func SetupRouter(config RouterConfig, h Handlers, authService services.AuthService, log *logger.Logger) (*gin.Engine, error) {
	router := gin.New()
	if err := router.SetTrustedProxies(config.TrustedProxies); err != nil {
		return nil, err
	}

	// Global middleware
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware(log))
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.CORSMiddleware(config.CORSAllowedOrigins))
	if config.Metrics != nil {
		router.Use(middleware.MetricsMiddleware(config.Metrics))
	}

	router.GET("/health", h.Health.Health)

	if config.Metrics != nil {
		path := config.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		router.GET(path, gin.WrapH(config.Metrics.Handler()))
	}

	if h.WebSocket != nil {
		path := config.WebSocketPath
		if path == "" {
			path = "/ws"
		}
		SetupWebSocketRoutes(router, path, h.WebSocket)
	}

	v1 := router.Group("/api/v1")
	{
		SetupChatRoutes(v1, h.Chat, authService)
		SetupPaymentRoutes(v1, h.Payment, authService)
	}

	return router, nil
}
