package payment

import (
	"encoding/json"
	"fmt"
	"time"
)

type webhookPayload struct {
	ID        string `json:"id"`
	Event     string `json:"event"`
	CreatedAt int64  `json:"created_at"`
	Payload   struct {
		Payment struct {
			Entity struct {
				ID               string `json:"id"`
				OrderID          string `json:"order_id"`
				Status           string `json:"status"`
				ErrorDescription string `json:"error_description"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

func validateWebhook(secret string, payload []byte, signature string) (*WebhookEvent, error) {
	if !VerifyWebhookSignature(secret, payload, signature) {
		return nil, ErrInvalidSignature
	}

	var body webhookPayload
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, fmt.Errorf("failed to unmarshal webhook payload: %w", err)
	}
	if body.Event == "" {
		return nil, fmt.Errorf("webhook payload has no event type")
	}

	createdAt := body.CreatedAt
	if createdAt == 0 {
		createdAt = time.Now().Unix()
	}

	entity := body.Payload.Payment.Entity
	return &WebhookEvent{
		EventID:     body.ID,
		EventType:   body.Event,
		PaymentID:   entity.ID,
		OrderID:     entity.OrderID,
		Status:      entity.Status,
		ErrorReason: entity.ErrorDescription,
		CreatedAt:   createdAt,
	}, nil
}
