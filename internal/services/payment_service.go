package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"tripmate/internal/models"
	"tripmate/internal/repositories/interfaces"
	"tripmate/internal/utils"
	"tripmate/internal/validators"
	"tripmate/pkg/logger"
	"tripmate/pkg/metrics"
	"tripmate/pkg/payment"
)

type PaymentService interface {
	CreateOrder(ctx context.Context, req *models.CreateOrderRequest) (*models.Order, error)
	VerifyPayment(ctx context.Context, req *models.VerifyPaymentRequest) (*models.VerificationResult, error)
	GetPaymentHistory(ctx context.Context, userID string, limit int) ([]*models.PaymentRecord, error)
	GetPayment(ctx context.Context, paymentID string) (*models.PaymentRecord, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
	CheckoutConfig() *CheckoutConfig
	ProviderName() string
}

type PaymentServiceConfig struct {
	Currency       string
	AppName        string
	ThemeColor     string
	PaymentMethods []string
}

// CheckoutConfig is the public part of the provider setup the client needs
// to open the checkout widget.
type CheckoutConfig struct {
	KeyID          string   `json:"key_id"`
	Currency       string   `json:"currency"`
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	ThemeColor     string   `json:"theme_color"`
	PaymentMethods []string `json:"payment_methods"`
	Provider       string   `json:"provider"`
}

type paymentService struct {
	paymentRepo interfaces.PaymentRepository
	provider    payment.OrderProvider
	orderLocks  Locker
	config      PaymentServiceConfig
	now         func() time.Time
	metrics     *metrics.Metrics
	logger      *logger.Logger
}

func NewPaymentService(
	paymentRepo interfaces.PaymentRepository,
	provider payment.OrderProvider,
	orderLocks Locker,
	config PaymentServiceConfig,
	m *metrics.Metrics,
	log *logger.Logger,
) PaymentService {
	if config.Currency == "" {
		config.Currency = utils.DefaultCurrency
	}
	return &paymentService{
		paymentRepo: paymentRepo,
		provider:    provider,
		orderLocks:  orderLocks,
		config:      config,
		now:         time.Now,
		metrics:     m,
		logger:      log,
	}
}

// Order ledger

func (s *paymentService) CreateOrder(ctx context.Context, req *models.CreateOrderRequest) (*models.Order, error) {
	if errs := validators.ValidateCreateOrder(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", utils.ErrValidation, errs.Error())
	}

	tripID, _ := req.Notes.TripID()
	userID, _ := req.Notes.UserID()

	currency := req.Currency
	if currency == "" {
		currency = s.config.Currency
	}
	receipt := req.Receipt
	if receipt == "" {
		receipt = utils.GenerateReceiptID(tripID, userID)
	}

	created, err := s.provider.CreateOrder(ctx, &payment.OrderRequest{
		Amount:   req.Amount,
		Currency: currency,
		Receipt:  receipt,
		Notes:    req.Notes,
	})
	if err != nil {
		s.logger.WithError(err).WithField("receipt", receipt).Error("Payment provider failed to create order")
		s.metrics.RecordOrder("provider_error")
		return nil, fmt.Errorf("%w: create order: %w", utils.ErrProvider, err)
	}

	order := &models.Order{
		OrderID:  created.OrderID,
		Amount:   req.Amount,
		Currency: currency,
		Receipt:  receipt,
		Status:   models.OrderStatusCreated,
		Notes:    req.Notes,
		TripID:   tripID,
		UserID:   userID,
		Provider: s.provider.Name(),
	}
	if err := s.paymentRepo.CreateOrder(ctx, order); err != nil {
		s.metrics.RecordOrder("storage_error")
		return nil, err
	}

	record := &models.PaymentRecord{
		PaymentID: fmt.Sprintf("%s%d_%s_%s", utils.PaymentRecordPrefix, s.now().Unix(), tripID, utils.GenerateRandomString(6)),
		OrderID:   order.OrderID,
		TripID:    tripID,
		UserID:    userID,
		Amount:    models.MinorToMajor(order.Amount),
		Currency:  currency,
		Status:    models.PaymentStatusPending,
		Notes:     req.Notes,
	}
	if err := s.paymentRepo.CreatePaymentRecord(ctx, record); err != nil {
		// The order exists without a record; verify will report not_found.
		s.logger.WithError(err).WithField("order_id", order.OrderID).Error("Failed to create payment record")
		s.metrics.RecordOrder("storage_error")
		return nil, err
	}

	s.logger.LogPaymentEvent(order.OrderID, "order_created", record.Amount, currency)
	s.metrics.RecordOrder("created")

	return order, nil
}

func (s *paymentService) GetPaymentHistory(ctx context.Context, userID string, limit int) ([]*models.PaymentRecord, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user_id is required", utils.ErrValidation)
	}
	limit = utils.ClampLimit(limit, utils.DefaultPaymentHistoryLimit, utils.MaxPaymentHistoryLimit)

	return s.paymentRepo.GetByUserID(ctx, userID, limit)
}

func (s *paymentService) GetPayment(ctx context.Context, paymentID string) (*models.PaymentRecord, error) {
	if paymentID == "" {
		return nil, fmt.Errorf("%w: payment_id is required", utils.ErrValidation)
	}
	return s.paymentRepo.GetByPaymentID(ctx, paymentID)
}

// Payment verifier

// VerifyPayment checks the checkout signature and settles the matching
// record. A rejected signature or an unknown record is reported in the
// result; only infrastructure failures come back as errors.
func (s *paymentService) VerifyPayment(ctx context.Context, req *models.VerifyPaymentRequest) (*models.VerificationResult, error) {
	if errs := validators.ValidateVerifyPayment(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", utils.ErrValidation, errs.Error())
	}

	result := &models.VerificationResult{
		PaymentID: req.PaymentID,
		OrderID:   req.OrderID,
		Amount:    req.Amount,
		Currency:  req.Currency,
		TripID:    req.TripID,
		UserID:    req.UserID,
	}

	if !s.provider.VerifyPaymentSignature(req.OrderID, req.PaymentID, req.Signature) {
		s.logger.LogSecurityEvent("payment_signature_mismatch", "medium", map[string]interface{}{
			"order_id":   req.OrderID,
			"payment_id": req.PaymentID,
			"trip_id":    req.TripID,
		})
		result.Status = models.VerificationStatusFailed
		result.Message = utils.MsgSignatureMismatch
		s.metrics.RecordVerification("signature_mismatch")
		return result, nil
	}

	release, err := s.orderLocks.Acquire(ctx, utils.LockOrderPrefix+req.OrderID)
	if err != nil {
		return nil, fmt.Errorf("%w: acquire order lock: %w", utils.ErrStorage, err)
	}
	defer release()

	record, err := s.paymentRepo.MarkPaid(ctx, interfaces.MarkPaidParams{
		OrderID:           req.OrderID,
		TripID:            req.TripID,
		UserID:            req.UserID,
		ProviderPaymentID: req.PaymentID,
		Signature:         req.Signature,
	})
	switch {
	case err == nil:
		result.Verified = true
		result.Status = models.VerificationStatusSuccess
		result.Message = "payment verified successfully"
		s.logger.LogPaymentEvent(req.OrderID, "payment_verified", record.Amount, record.Currency)

	case errors.Is(err, utils.ErrAlreadyPaid):
		result.Verified = true
		result.Status = models.VerificationStatusSuccess
		result.Message = "payment already verified"

	case errors.Is(err, utils.ErrNotFound):
		result.Status = models.VerificationStatusNotFound
		result.Message = "payment record not found"
		s.metrics.RecordVerification(string(result.Status))
		return result, nil

	case errors.Is(err, utils.ErrInvalidTransition):
		result.Status = models.VerificationStatusFailed
		result.Message = fmt.Sprintf("payment is %s", record.Status)
		s.metrics.RecordVerification(string(result.Status))
		return result, nil

	default:
		s.metrics.RecordVerification("error")
		return nil, err
	}

	s.metrics.RecordVerification(string(result.Status))
	s.reconcileClaim(result, record)
	return result, nil
}

// reconcileClaim reports the ledger's amount and currency. A differing claim
// from the client is logged, not trusted.
func (s *paymentService) reconcileClaim(result *models.VerificationResult, record *models.PaymentRecord) {
	claimedAmount, claimedCurrency := result.Amount, result.Currency

	if (claimedAmount != 0 && math.Abs(claimedAmount-record.Amount) > 0.005) ||
		(claimedCurrency != "" && claimedCurrency != record.Currency) {
		s.logger.WithFields(map[string]interface{}{
			"order_id":         record.OrderID,
			"claimed_amount":   claimedAmount,
			"claimed_currency": claimedCurrency,
			"amount":           record.Amount,
			"currency":         record.Currency,
		}).Warn("Verified payment differs from client claim")
	}

	result.Amount = record.Amount
	result.Currency = record.Currency
}

// HandleWebhook applies provider-pushed payment outcomes. Events for records
// that are already settled are acknowledged without change.
func (s *paymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.provider.ValidateWebhook(payload, signature)
	if err != nil {
		if errors.Is(err, payment.ErrInvalidSignature) {
			s.metrics.RecordWebhook("", "rejected")
			s.logger.LogSecurityEvent("webhook_signature_mismatch", "high", nil)
			return fmt.Errorf("%w: webhook", utils.ErrSignatureMismatch)
		}
		return fmt.Errorf("%w: %w", utils.ErrValidation, err)
	}

	log := s.logger.WithFields(map[string]interface{}{
		"event_id":   event.EventID,
		"event_type": event.EventType,
		"order_id":   event.OrderID,
	})

	if event.OrderID == "" {
		log.Info("Ignoring webhook without order id")
		s.metrics.RecordWebhook(event.EventType, "ignored")
		return nil
	}

	switch event.EventType {
	case utils.WebhookPaymentCaptured:
		// Settled below under the order lock.
	case utils.WebhookPaymentFailed:
		s.logFailedAttempt(ctx, log, event)
		s.metrics.RecordWebhook(event.EventType, "acknowledged")
		return nil
	default:
		log.Debug("Ignoring unhandled webhook event")
		s.metrics.RecordWebhook(event.EventType, "ignored")
		return nil
	}

	release, err := s.orderLocks.Acquire(ctx, utils.LockOrderPrefix+event.OrderID)
	if err != nil {
		return fmt.Errorf("%w: acquire order lock: %w", utils.ErrStorage, err)
	}
	defer release()

	_, err = s.paymentRepo.MarkPaid(ctx, interfaces.MarkPaidParams{
		OrderID:           event.OrderID,
		ProviderPaymentID: event.PaymentID,
	})

	switch {
	case err == nil:
		log.Info("Webhook applied")
		s.metrics.RecordWebhook(event.EventType, "applied")
		return nil
	case errors.Is(err, utils.ErrAlreadyPaid), errors.Is(err, utils.ErrInvalidTransition):
		log.WithError(err).Info("Webhook for settled payment acknowledged")
		s.metrics.RecordWebhook(event.EventType, "acknowledged")
		return nil
	default:
		// Not found and storage errors are returned so the provider retries.
		s.metrics.RecordWebhook(event.EventType, "error")
		return err
	}
}

// logFailedAttempt records a declined attempt. The record stays pending: the
// customer may retry the same order and a later capture must still settle it.
func (s *paymentService) logFailedAttempt(ctx context.Context, log *logger.Logger, event *payment.WebhookEvent) {
	entry := log.WithFields(map[string]interface{}{
		"payment_id": event.PaymentID,
		"reason":     event.ErrorReason,
	})

	record, err := s.paymentRepo.GetByOrderID(ctx, event.OrderID)
	if err != nil {
		entry.WithError(err).Warn("Payment attempt failed for unknown or unreadable record")
		return
	}
	entry.WithFields(map[string]interface{}{
		"status":  record.Status,
		"trip_id": record.TripID,
		"user_id": record.UserID,
	}).Info("Payment attempt failed")
}

func (s *paymentService) CheckoutConfig() *CheckoutConfig {
	return &CheckoutConfig{
		KeyID:          s.provider.KeyID(),
		Currency:       s.config.Currency,
		Name:           s.config.AppName,
		Description:    "Trip booking payment",
		ThemeColor:     s.config.ThemeColor,
		PaymentMethods: s.config.PaymentMethods,
		Provider:       s.provider.Name(),
	}
}

func (s *paymentService) ProviderName() string {
	return s.provider.Name()
}
