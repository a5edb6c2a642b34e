package handlers

import (
	"net/http"

	"tripmate/internal/models"
	"tripmate/internal/services"
	"tripmate/internal/utils"
	"tripmate/internal/validators"
	"tripmate/pkg/logger"

	"github.com/gin-gonic/gin"
)

const (
	WebhookSignatureHeader = "X-Razorpay-Signature"
	maxWebhookBodyBytes    = 1 << 20
)

type PaymentHandler struct {
	paymentService services.PaymentService
	logger         *logger.Logger
}

func NewPaymentHandler(paymentService services.PaymentService, log *logger.Logger) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		logger:         log,
	}
}

// CreateOrder opens a provider order and records it as pending
func (h *PaymentHandler) CreateOrder(c *gin.Context) {
	var request models.CreateOrderRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return
	}

	if errs := validators.ValidateCreateOrder(&request); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.Fields())
		return
	}

	order, err := h.paymentService.CreateOrder(c.Request.Context(), &request)
	if err != nil {
		h.respondCreateOrderError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// VerifyPayment checks a checkout signature and settles the payment
func (h *PaymentHandler) VerifyPayment(c *gin.Context) {
	var request models.VerifyPaymentRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return
	}

	if errs := validators.ValidateVerifyPayment(&request); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.Fields())
		return
	}

	result, err := h.paymentService.VerifyPayment(c.Request.Context(), &request)
	if err != nil {
		h.respondError(c, err, "Failed to verify payment")
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *PaymentHandler) GetPaymentHistory(c *gin.Context) {
	limit := utils.GetLimitParam(c, utils.DefaultPaymentHistoryLimit, utils.MaxPaymentHistoryLimit)

	records, err := h.paymentService.GetPaymentHistory(c.Request.Context(), c.Param("user_id"), limit)
	if err != nil {
		h.respondError(c, err, "Failed to get payment history")
		return
	}
	if records == nil {
		records = []*models.PaymentRecord{}
	}

	c.JSON(http.StatusOK, records)
}

func (h *PaymentHandler) GetPayment(c *gin.Context) {
	record, err := h.paymentService.GetPayment(c.Request.Context(), c.Param("payment_id"))
	if err != nil {
		h.respondError(c, err, "Failed to get payment")
		return
	}

	c.JSON(http.StatusOK, record)
}

// GetCheckoutConfig returns the public checkout options. No secrets.
func (h *PaymentHandler) GetCheckoutConfig(c *gin.Context) {
	c.JSON(http.StatusOK, h.paymentService.CheckoutConfig())
}

// HandleWebhook verifies the signature over the raw body, so it must not be
// bound or re-encoded before the check.
func (h *PaymentHandler) HandleWebhook(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBodyBytes)
	payload, err := c.GetRawData()
	if err != nil {
		utils.BadRequestResponse(c, "Invalid webhook body")
		return
	}

	if err := h.paymentService.HandleWebhook(c.Request.Context(), payload, c.GetHeader(WebhookSignatureHeader)); err != nil {
		h.respondError(c, err, "Failed to process webhook")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": utils.StatusSuccess})
}

func (h *PaymentHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"service":  "payments",
		"provider": h.paymentService.ProviderName(),
	})
}

// respondError logs infrastructure failures with full detail and sends only
// the taxonomy label to the client.
func (h *PaymentHandler) respondError(c *gin.Context, err error, message string) {
	status, _, _ := utils.ErrorCode(err)
	if status >= http.StatusInternalServerError {
		h.logger.WithContext(c.Request.Context()).WithError(err).Error(message)
	}
	utils.AbortWithError(c, err)
}

// respondCreateOrderError reports provider and storage failures as 500. The
// error code still names the failing dependency.
func (h *PaymentHandler) respondCreateOrderError(c *gin.Context, err error) {
	status, code, message := utils.ErrorCode(err)
	if status < http.StatusInternalServerError {
		utils.AbortWithError(c, err)
		return
	}

	h.logger.WithContext(c.Request.Context()).WithError(err).Error("Failed to create order")
	utils.ErrorResponse(c, http.StatusInternalServerError, code, message)
	c.Abort()
}
