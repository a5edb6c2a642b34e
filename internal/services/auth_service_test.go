package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"tripmate/internal/models"
	"tripmate/internal/utils"
	"tripmate/pkg/logger"
)

func TestResolveUser(t *testing.T) {
	users := &memUserRepo{users: map[string]*models.User{
		"ana@example.com": {ID: primitive.NewObjectID(), Email: "ana@example.com", Username: "ana"},
	}}
	auth := NewAuthService(users, testJWTSecret, logger.Discard())

	token, err := utils.GenerateAccessToken("ana@example.com", testJWTSecret, time.Minute)
	require.NoError(t, err)

	user, err := auth.ResolveUser(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "ana", user.Username)

	_, err = auth.ResolveUser(context.Background(), "")
	assert.ErrorIs(t, err, utils.ErrUnauthorized)
}

func TestResolveUserPassesStorageErrors(t *testing.T) {
	users := &memUserRepo{err: errors.Join(utils.ErrStorage, errors.New("down"))}
	auth := NewAuthService(users, testJWTSecret, logger.Discard())

	token, err := utils.GenerateAccessToken("ana@example.com", testJWTSecret, time.Minute)
	require.NoError(t, err)

	_, err = auth.ResolveUser(context.Background(), token)
	assert.ErrorIs(t, err, utils.ErrStorage)
	assert.NotErrorIs(t, err, utils.ErrUnauthorized)
}
