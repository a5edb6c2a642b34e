package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tripmate/internal/models"
	"tripmate/internal/repositories/interfaces"
	"tripmate/internal/services"
	"tripmate/internal/utils"
	"tripmate/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type userRepository struct {
	collection *mongo.Collection
	cache      services.CacheService
	cacheTTL   time.Duration
}

// NewUserRepository reads users by email. cache may be nil.
func NewUserRepository(db *mongo.Database, cache services.CacheService, cacheTTL time.Duration) interfaces.UserRepository {
	return &userRepository{
		collection: db.Collection(database.CollectionUsers),
		cache:      cache,
		cacheTTL:   cacheTTL,
	}
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	cacheKey := utils.CacheUserEmailPrefix + email
	if r.cache != nil {
		var user models.User
		if err := r.cache.Get(ctx, cacheKey, &user); err == nil {
			return &user, nil
		}
	}

	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: user %s", utils.ErrNotFound, email)
		}
		return nil, fmt.Errorf("%w: failed to get user by email: %w", utils.ErrStorage, err)
	}

	if r.cache != nil {
		// Cache write failures only cost a future lookup.
		_ = r.cache.Set(ctx, cacheKey, user, r.cacheTTL)
	}

	return &user, nil
}
