package routes

import (
	handlers "tripmate/internal/handlers/shared"
	"tripmate/internal/middleware"
	"tripmate/internal/services"

	"github.com/gin-gonic/gin"
)

// SetupPaymentRoutes sets up routes for the order ledger and payment verifier
func SetupPaymentRoutes(r *gin.RouterGroup, paymentHandler *handlers.PaymentHandler, authService services.AuthService) {
	payments := r.Group("/payments")

	// Public routes (provider callbacks and checkout bootstrap)
	{
		payments.GET("/config", paymentHandler.GetCheckoutConfig)
		payments.POST("/webhook", paymentHandler.HandleWebhook)
		payments.GET("/health", paymentHandler.Health)
	}

	// Protected routes (require authentication)
	protected := payments.Group("")
	protected.Use(middleware.AuthRequired(authService))
	{
		protected.POST("/create-order", paymentHandler.CreateOrder)
		protected.POST("/verify", paymentHandler.VerifyPayment)
		protected.GET("/history/:user_id", paymentHandler.GetPaymentHistory)
		protected.GET("/payment/:payment_id", paymentHandler.GetPayment)
	}
}
