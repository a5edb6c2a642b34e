package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"tripmate/pkg/logger"
)

func versionCursor(mt *mtest.T, docs ...bson.D) bson.D {
	return mtest.CreateCursorResponse(0, mt.DB.Name()+"."+CollectionMigrations, mtest.FirstBatch, docs...)
}

func TestMigratorUp(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("fresh database runs every step", func(mt *mtest.T) {
		responses := []bson.D{versionCursor(mt)}
		for range getMigrations() {
			responses = append(responses, mtest.CreateSuccessResponse(), mtest.CreateSuccessResponse())
		}
		mt.AddMockResponses(responses...)

		require.NoError(mt, NewMigrator(mt.DB, logger.Discard()).Up(context.Background()))

		var created []string
		for _, event := range mt.GetAllStartedEvents() {
			if event.CommandName == "createIndexes" {
				created = append(created, event.Command.Lookup("createIndexes").StringValue())
			}
		}
		assert.Equal(mt, []string{CollectionUsers, CollectionChatMessages, CollectionOrders, CollectionPayments}, created)
	})

	mt.Run("up to date database does nothing", func(mt *mtest.T) {
		latest := getMigrations()[len(getMigrations())-1].Version
		mt.AddMockResponses(versionCursor(mt, bson.D{{Key: "version", Value: latest}}))

		require.NoError(mt, NewMigrator(mt.DB, logger.Discard()).Up(context.Background()))
		assert.Len(mt, mt.GetAllStartedEvents(), 1)
	})

	mt.Run("partial run resumes after recorded version", func(mt *mtest.T) {
		mt.AddMockResponses(
			versionCursor(mt, bson.D{{Key: "version", Value: 3}}),
			mtest.CreateSuccessResponse(),
			mtest.CreateSuccessResponse(),
		)

		require.NoError(mt, NewMigrator(mt.DB, logger.Discard()).Up(context.Background()))
		started := mt.GetAllStartedEvents()
		require.Len(mt, started, 3)
		assert.Equal(mt, CollectionPayments, started[1].Command.Lookup("createIndexes").StringValue())
	})

	mt.Run("failed step stops the run", func(mt *mtest.T) {
		mt.AddMockResponses(
			versionCursor(mt),
			mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Name: "BadValue", Message: "boom"}),
		)

		err := NewMigrator(mt.DB, logger.Discard()).Up(context.Background())
		require.Error(mt, err)
		assert.Contains(mt, err.Error(), "migration 1 failed")
	})
}
