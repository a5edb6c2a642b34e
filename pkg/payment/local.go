package payment

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	ProviderLocal    = "local"
	LocalOrderPrefix = "order_local_"
)

// LocalProvider synthesizes order ids without calling out. Signatures are
// still checked with the configured secret.
type LocalProvider struct {
	keyID         string
	keySecret     string
	webhookSecret string
	now           func() time.Time
}

func NewLocalProvider(keyID, keySecret, webhookSecret string) *LocalProvider {
	return &LocalProvider{
		keyID:         keyID,
		keySecret:     keySecret,
		webhookSecret: webhookSecret,
		now:           time.Now,
	}
}

func (l *LocalProvider) Name() string {
	return ProviderLocal
}

func (l *LocalProvider) KeyID() string {
	return l.keyID
}

func (l *LocalProvider) CreateOrder(ctx context.Context, request *OrderRequest) (*OrderResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &OrderResponse{
		OrderID:   LocalOrderPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")[:14],
		Amount:    request.Amount,
		Currency:  request.Currency,
		Receipt:   request.Receipt,
		Status:    "created",
		CreatedAt: l.now().Unix(),
	}, nil
}

func (l *LocalProvider) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	return VerifySignature(l.keySecret, orderID, paymentID, signature)
}

func (l *LocalProvider) ValidateWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	return validateWebhook(l.webhookSecret, payload, signature)
}
