package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"tripmate/internal/config"
	handlers "tripmate/internal/handlers/shared"
	"tripmate/internal/repositories/mongodb"
	"tripmate/internal/services"
	"tripmate/pkg/cache"
	"tripmate/pkg/database"
	"tripmate/pkg/logger"
	"tripmate/pkg/metrics"
	"tripmate/pkg/payment"
	"tripmate/pkg/websocket"
	"tripmate/routes"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := logger.NewLogger(&logger.Config{
		Level:   logger.LogLevel(cfg.App.LogLevel),
		Format:  cfg.App.LogFormat,
		AppName: cfg.App.Name,
		Version: cfg.App.Version,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, appLogger); err != nil {
		appLogger.WithError(err).Fatal("Server exited with error")
	}
}

func run(ctx context.Context, cfg *config.Config, appLogger *logger.Logger) error {
	// Database
	db, err := database.NewMongoDB(ctx, &database.DatabaseConfig{
		URI:            cfg.Database.URI,
		Database:       cfg.Database.Database,
		MaxPoolSize:    cfg.Database.MaxPoolSize,
		MinPoolSize:    cfg.Database.MinPoolSize,
		ConnectTimeout: cfg.Database.ConnectTimeout,
		SocketTimeout:  cfg.Database.SocketTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	defer func() {
		if err := db.Close(context.Background()); err != nil {
			appLogger.WithError(err).Warn("Failed to close MongoDB connection")
		}
	}()

	if cfg.Database.RunMigrations {
		if err := database.NewMigrator(db.Database, appLogger).Up(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	healthChecks := map[string]handlers.Pinger{"mongodb": db}

	// Cache and order locks. Without Redis both stay in-process.
	var userCache services.CacheService
	var orderLocks services.Locker = services.NewKeyedMutex()
	if cfg.Redis.Enabled {
		redisCache, err := cache.NewRedisCache(ctx, &cache.RedisConfig{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		defer redisCache.Close()

		userCache = services.NewCacheService(redisCache, cfg.App.Name, appLogger)
		orderLocks = cache.NewLocker(redisCache.Client(), cfg.Redis.LockTTL, appLogger)
		healthChecks["redis"] = redisCache
	}

	// Repositories
	chatRepo := mongodb.NewChatRepository(db.Database)
	paymentRepo := mongodb.NewPaymentRepository(db.Database)
	userRepo := mongodb.NewUserRepository(db.Database, userCache, cfg.Redis.UserCacheTTL)

	// Payment provider
	provider, err := newOrderProvider(cfg.Payment)
	if err != nil {
		return err
	}

	var appMetrics *metrics.Metrics
	if cfg.Metrics.Enabled {
		appMetrics = metrics.New(cfg.Metrics.Namespace)
	}

	// Services
	authService := services.NewAuthService(userRepo, cfg.Security.JWTSecret, appLogger)
	hub := websocket.NewHub(appMetrics, appLogger)
	chatService := services.NewChatService(chatRepo, authService, hub, cfg.WebSocket.EventTimeout, appMetrics, appLogger)
	paymentService := services.NewPaymentService(paymentRepo, provider, orderLocks, services.PaymentServiceConfig{
		Currency:       cfg.Payment.Currency,
		AppName:        cfg.Payment.Checkout.AppName,
		ThemeColor:     cfg.Payment.Checkout.ThemeColor,
		PaymentMethods: cfg.Payment.Checkout.PaymentMethods,
	}, appMetrics, appLogger)

	// Handlers
	wsHandler := websocket.NewHandler(chatService, &websocket.Config{
		ReadBufferSize:    cfg.WebSocket.ReadBufferSize,
		WriteBufferSize:   cfg.WebSocket.WriteBufferSize,
		HandshakeTimeout:  cfg.WebSocket.HandshakeTimeout,
		WriteTimeout:      cfg.WebSocket.WriteTimeout,
		PongTimeout:       cfg.WebSocket.PongTimeout,
		MaxMessageSize:    cfg.WebSocket.MaxMessageSize,
		SendQueueSize:     cfg.WebSocket.SendQueueSize,
		EnableCompression: cfg.WebSocket.EnableCompression,
		AllowedOrigins:    cfg.WebSocket.AllowedOrigins,
		MessageRate:       cfg.WebSocket.MessageRate,
		MessageBurst:      cfg.WebSocket.MessageBurst,
	}, appMetrics, appLogger)

	router, err := routes.SetupRouter(routes.RouterConfig{
		CORSAllowedOrigins: cfg.Security.CORSAllowedOrigins,
		TrustedProxies:     cfg.Security.TrustedProxies,
		WebSocketPath:      cfg.WebSocket.Path,
		Metrics:            appMetrics,
		MetricsPath:        cfg.Metrics.Path,
	}, routes.Handlers{
		Chat:      handlers.NewChatHandler(chatService, appLogger),
		Payment:   handlers.NewPaymentHandler(paymentService, appLogger),
		Health:    handlers.NewHealthHandler(healthChecks, cfg.Database.QueryTimeout),
		WebSocket: wsHandler,
	}, authService, appLogger)
	if err != nil {
		return fmt.Errorf("failed to set up router: %w", err)
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.App.Port),
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		appLogger.WithFields(map[string]interface{}{
			"port":     cfg.App.Port,
			"provider": provider.Name(),
			"redis":    cfg.Redis.Enabled,
		}).Info("Starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	appLogger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

func newOrderProvider(cfg *config.PaymentConfig) (payment.OrderProvider, error) {
	switch cfg.Provider {
	case config.PaymentProviderRazorpay:
		return payment.NewRazorpayProvider(cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret, cfg.Razorpay.Webhook, cfg.ProviderTimeout), nil
	case config.PaymentProviderLocal:
		return payment.NewLocalProvider(cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret, cfg.Razorpay.Webhook), nil
	default:
		return nil, fmt.Errorf("unknown payment provider %q", cfg.Provider)
	}
}
