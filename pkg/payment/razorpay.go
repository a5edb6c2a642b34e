package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/razorpay/razorpay-go"
)

const ProviderRazorpay = "razorpay"

type RazorpayProvider struct {
	client        *razorpay.Client
	keyID         string
	keySecret     string
	webhookSecret string
	timeout       time.Duration
}

func NewRazorpayProvider(keyID, keySecret, webhookSecret string, timeout time.Duration) *RazorpayProvider {
	return &RazorpayProvider{
		client:        razorpay.NewClient(keyID, keySecret),
		keyID:         keyID,
		keySecret:     keySecret,
		webhookSecret: webhookSecret,
		timeout:       timeout,
	}
}

func (r *RazorpayProvider) Name() string {
	return ProviderRazorpay
}

func (r *RazorpayProvider) KeyID() string {
	return r.keyID
}

func (r *RazorpayProvider) CreateOrder(ctx context.Context, request *OrderRequest) (*OrderResponse, error) {
	orderData := map[string]interface{}{
		"amount":   request.Amount,
		"currency": request.Currency,
		"receipt":  request.Receipt,
		"notes":    request.Notes,
	}

	type result struct {
		order map[string]interface{}
		err   error
	}

	// The SDK call takes no context, so the deadline is enforced here.
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	done := make(chan result, 1)
	go func() {
		order, err := r.client.Order.Create(orderData, nil)
		done <- result{order: order, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrProviderTimeout, ctx.Err())
	case res := <-done:
		if res.err != nil {
			return nil, fmt.Errorf("failed to create order: %w", res.err)
		}
		return orderFromResponse(res.order)
	}
}

func (r *RazorpayProvider) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	return VerifySignature(r.keySecret, orderID, paymentID, signature)
}

func (r *RazorpayProvider) ValidateWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	return validateWebhook(r.webhookSecret, payload, signature)
}

// orderFromResponse reads the decoded JSON map returned by the SDK. Numbers
// arrive as float64.
func orderFromResponse(order map[string]interface{}) (*OrderResponse, error) {
	id, ok := order["id"].(string)
	if !ok || id == "" {
		return nil, fmt.Errorf("provider response has no order id")
	}

	amount, err := toInt64(order["amount"])
	if err != nil {
		return nil, fmt.Errorf("provider response amount: %w", err)
	}

	createdAt, err := toInt64(order["created_at"])
	if err != nil {
		createdAt = time.Now().Unix()
	}

	currency, _ := order["currency"].(string)
	receipt, _ := order["receipt"].(string)
	status, _ := order["status"].(string)

	return &OrderResponse{
		OrderID:   id,
		Amount:    amount,
		Currency:  currency,
		Receipt:   receipt,
		Status:    status,
		CreatedAt: createdAt,
	}, nil
}

func toInt64(v interface{}) (int64, error) {
	switch n := v.(type) {
	case float64:
		return int64(n), nil
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case json.Number:
		return n.Int64()
	default:
		return 0, fmt.Errorf("unexpected numeric type %T", v)
	}
}
