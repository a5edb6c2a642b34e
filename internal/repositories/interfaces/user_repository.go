package interfaces

import (
	"context"

	"tripmate/internal/models"
)

type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}
