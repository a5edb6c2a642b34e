package interfaces

import (
	"context"
	"time"

	"tripmate/internal/models"
)

type ChatRepository interface {
	Create(ctx context.Context, message *models.ChatMessage) error
	// GetRecentByTrip returns the limit most recent messages of a trip in
	// ascending timestamp order.
	GetRecentByTrip(ctx context.Context, tripID string, limit int) ([]*models.ChatMessage, error)
	// GetLatestTimestamp returns the zero time when the trip has no messages.
	GetLatestTimestamp(ctx context.Context, tripID string) (time.Time, error)
}
