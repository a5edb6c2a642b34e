package interfaces

import (
	"context"

	"tripmate/internal/models"
)

// MarkPaidParams identifies the record to settle. TripID and UserID narrow
// the match when set; the webhook path only knows the order id.
type MarkPaidParams struct {
	OrderID           string
	TripID            string
	UserID            string
	ProviderPaymentID string
	Signature         string
}

// PaymentRepository is the order ledger. MarkPaid is the only status
// mutation; it compare-and-swaps on pending.
type PaymentRepository interface {
	CreateOrder(ctx context.Context, order *models.Order) error

	CreatePaymentRecord(ctx context.Context, record *models.PaymentRecord) error
	GetByPaymentID(ctx context.Context, paymentID string) (*models.PaymentRecord, error)
	GetByOrderID(ctx context.Context, orderID string) (*models.PaymentRecord, error)
	GetByUserID(ctx context.Context, userID string, limit int) ([]*models.PaymentRecord, error)

	MarkPaid(ctx context.Context, params MarkPaidParams) (*models.PaymentRecord, error)
}
