package payment

import (
	"context"
	"errors"
)

var (
	ErrInvalidSignature = errors.New("invalid signature")
	ErrProviderTimeout  = errors.New("payment provider timed out")
)

// OrderProvider allocates order ids and owns the secrets used to check
// payment confirmations and webhooks.
type OrderProvider interface {
	Name() string
	KeyID() string
	CreateOrder(ctx context.Context, request *OrderRequest) (*OrderResponse, error)
	VerifyPaymentSignature(orderID, paymentID, signature string) bool
	ValidateWebhook(payload []byte, signature string) (*WebhookEvent, error)
}

type OrderRequest struct {
	Amount   int64                  `json:"amount"` // minor units
	Currency string                 `json:"currency"`
	Receipt  string                 `json:"receipt"`
	Notes    map[string]interface{} `json:"notes"`
}

type OrderResponse struct {
	OrderID   string `json:"id"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Receipt   string `json:"receipt"`
	Status    string `json:"status"`
	CreatedAt int64  `json:"created_at"`
}

type WebhookEvent struct {
	EventID     string `json:"event_id"`
	EventType   string `json:"event_type"`
	PaymentID   string `json:"payment_id"`
	OrderID     string `json:"order_id"`
	Status      string `json:"status"`
	ErrorReason string `json:"error_reason,omitempty"`
	CreatedAt   int64  `json:"created_at"`
}
