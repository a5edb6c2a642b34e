package services

import (
	"context"
	"errors"
	"fmt"

	"tripmate/internal/models"
	"tripmate/internal/repositories/interfaces"
	"tripmate/internal/utils"
	"tripmate/pkg/logger"
)

// AuthService resolves bearer tokens issued by the account service to users.
type AuthService interface {
	ValidateToken(ctx context.Context, token string) (*utils.JWTClaims, error)
	ResolveUser(ctx context.Context, token string) (*models.User, error)
}

type authService struct {
	userRepo  interfaces.UserRepository
	jwtSecret string
	logger    *logger.Logger
}

func NewAuthService(userRepo interfaces.UserRepository, jwtSecret string, log *logger.Logger) AuthService {
	return &authService{
		userRepo:  userRepo,
		jwtSecret: jwtSecret,
		logger:    log,
	}
}

func (s *authService) ValidateToken(ctx context.Context, token string) (*utils.JWTClaims, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: missing token", utils.ErrUnauthorized)
	}

	claims, err := utils.ValidateToken(token, s.jwtSecret)
	if err != nil {
		s.logger.WithContext(ctx).LogSecurityEvent("invalid_token", "low", map[string]interface{}{
			"reason": err.Error(),
		})
		return nil, fmt.Errorf("%w: %s", utils.ErrUnauthorized, utils.MsgInvalidToken)
	}

	return claims, nil
}

// ResolveUser maps a token to its user. Unknown subjects are treated as
// unauthorized; storage failures are passed through.
func (s *authService) ResolveUser(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.ValidateToken(ctx, token)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown user", utils.ErrUnauthorized)
		}
		return nil, err
	}

	return user, nil
}
