package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tripmate/internal/models"
	"tripmate/internal/repositories/interfaces"
	"tripmate/internal/utils"
	"tripmate/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type chatRepository struct {
	collection *mongo.Collection
}

func NewChatRepository(db *mongo.Database) interfaces.ChatRepository {
	return &chatRepository{
		collection: db.Collection(database.CollectionChatMessages),
	}
}

func (r *chatRepository) Create(ctx context.Context, message *models.ChatMessage) error {
	if message.ID.IsZero() {
		message.ID = primitive.NewObjectID()
	}

	_, err := r.collection.InsertOne(ctx, message)
	if err != nil {
		return fmt.Errorf("%w: failed to create chat message: %w", utils.ErrStorage, err)
	}

	return nil
}

func (r *chatRepository) GetRecentByTrip(ctx context.Context, tripID string, limit int) ([]*models.ChatMessage, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{"trip_id": tripID}, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get chat history: %w", utils.ErrStorage, err)
	}
	defer cursor.Close(ctx)

	messages := make([]*models.ChatMessage, 0, limit)
	for cursor.Next(ctx) {
		var message models.ChatMessage
		if err := cursor.Decode(&message); err != nil {
			return nil, fmt.Errorf("%w: failed to decode chat message: %w", utils.ErrStorage, err)
		}
		messages = append(messages, &message)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("%w: chat history cursor: %w", utils.ErrStorage, err)
	}

	// Newest first from the query; callers want oldest first.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

func (r *chatRepository) GetLatestTimestamp(ctx context.Context, tripID string) (time.Time, error) {
	opts := options.FindOne().
		SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}).
		SetProjection(bson.M{"timestamp": 1})

	var latest struct {
		Timestamp time.Time `bson:"timestamp"`
	}
	err := r.collection.FindOne(ctx, bson.M{"trip_id": tripID}, opts).Decode(&latest)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("%w: failed to get latest chat timestamp: %w", utils.ErrStorage, err)
	}

	return latest.Timestamp, nil
}
