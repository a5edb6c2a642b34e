package mongodb

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"tripmate/internal/models"
	"tripmate/internal/repositories/interfaces"
	"tripmate/internal/utils"
)

func toDoc(t testing.TB, v interface{}) bson.D {
	t.Helper()
	raw, err := bson.Marshal(v)
	require.NoError(t, err)
	var doc bson.D
	require.NoError(t, bson.Unmarshal(raw, &doc))
	return doc
}

func ns(mt *mtest.T, collection string) string {
	return mt.DB.Name() + "." + collection
}

func commandError() bson.D {
	return mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Name: "BadValue", Message: "boom"})
}

func TestChatRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("create assigns id", func(mt *mtest.T) {
		repo := NewChatRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		msg := &models.ChatMessage{TripID: "t1", Text: "hi", Timestamp: time.Now().UTC()}
		require.NoError(mt, repo.Create(context.Background(), msg))
		assert.False(mt, msg.ID.IsZero())
	})

	mt.Run("create storage error", func(mt *mtest.T) {
		repo := NewChatRepository(mt.DB)
		mt.AddMockResponses(commandError())

		err := repo.Create(context.Background(), &models.ChatMessage{TripID: "t1", Text: "hi"})
		assert.ErrorIs(mt, err, utils.ErrStorage)
	})

	mt.Run("recent messages come back oldest first", func(mt *mtest.T) {
		repo := NewChatRepository(mt.DB)
		base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

		var docs []bson.D
		for i := 3; i >= 1; i-- {
			docs = append(docs, toDoc(mt, models.ChatMessage{
				ID:        primitive.NewObjectID(),
				TripID:    "t1",
				Text:      string(rune('a' + i - 1)),
				Timestamp: base.Add(time.Duration(i) * time.Second),
			}))
		}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt, "chat_messages"), mtest.FirstBatch, docs...))

		messages, err := repo.GetRecentByTrip(context.Background(), "t1", 3)
		require.NoError(mt, err)
		require.Len(mt, messages, 3)
		assert.Equal(mt, "a", messages[0].Text)
		assert.Equal(mt, "c", messages[2].Text)
		assert.True(mt, messages[0].Timestamp.Before(messages[1].Timestamp))
	})

	mt.Run("latest timestamp of empty trip is zero", func(mt *mtest.T) {
		repo := NewChatRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt, "chat_messages"), mtest.FirstBatch))

		latest, err := repo.GetLatestTimestamp(context.Background(), "t1")
		require.NoError(mt, err)
		assert.True(mt, latest.IsZero())
	})

	mt.Run("latest timestamp", func(mt *mtest.T) {
		repo := NewChatRepository(mt.DB)
		stamp := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt, "chat_messages"), mtest.FirstBatch,
			bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "timestamp", Value: stamp}}))

		latest, err := repo.GetLatestTimestamp(context.Background(), "t1")
		require.NoError(mt, err)
		assert.True(mt, stamp.Equal(latest))
	})
}

func pendingRecord(status models.PaymentStatus) models.PaymentRecord {
	return models.PaymentRecord{
		PaymentID: "pay_1_t1_abcdef",
		OrderID:   "order_1",
		TripID:    "t1",
		UserID:    "u1",
		Amount:    15000,
		Currency:  "INR",
		Status:    status,
		CreatedAt: time.Now().UTC(),
	}
}

func TestPaymentRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	params := interfaces.MarkPaidParams{OrderID: "order_1", TripID: "t1", UserID: "u1", ProviderPaymentID: "pay_rzp", Signature: "sig"}

	mt.Run("create order", func(mt *mtest.T) {
		repo := NewPaymentRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		order := &models.Order{OrderID: "order_1", Amount: 100, Receipt: "r1", Status: models.OrderStatusCreated}
		require.NoError(mt, repo.CreateOrder(context.Background(), order))
		assert.False(mt, order.CreatedAt.IsZero())
	})

	mt.Run("duplicate receipt", func(mt *mtest.T) {
		repo := NewPaymentRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "E11000 duplicate key error"}))

		err := repo.CreateOrder(context.Background(), &models.Order{OrderID: "order_1", Receipt: "r1"})
		assert.ErrorIs(mt, err, utils.ErrDuplicateReceipt)
	})

	mt.Run("create payment record defaults to pending", func(mt *mtest.T) {
		repo := NewPaymentRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		record := &models.PaymentRecord{PaymentID: "pay_1", OrderID: "order_1"}
		require.NoError(mt, repo.CreatePaymentRecord(context.Background(), record))
		assert.Equal(mt, models.PaymentStatusPending, record.Status)
	})

	mt.Run("mark paid wins the swap", func(mt *mtest.T) {
		repo := NewPaymentRepository(mt.DB)
		updated := pendingRecord(models.PaymentStatusSuccess)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: toDoc(mt, updated)}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
		)

		record, err := repo.MarkPaid(context.Background(), params)
		require.NoError(mt, err)
		assert.Equal(mt, models.PaymentStatusSuccess, record.Status)

		events := mt.GetAllStartedEvents()
		require.Len(mt, events, 2)
		assert.Equal(mt, "findAndModify", events[0].CommandName)
		query := events[0].Command.Lookup("query").Document()
		assert.Equal(mt, string(models.PaymentStatusPending), query.Lookup("status").StringValue())
		assert.Equal(mt, "t1", query.Lookup("trip_id").StringValue())
		assert.Equal(mt, "update", events[1].CommandName)
	})

	mt.Run("mark paid already paid", func(mt *mtest.T) {
		repo := NewPaymentRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(),
			mtest.CreateCursorResponse(0, ns(mt, "payments"), mtest.FirstBatch, toDoc(mt, pendingRecord(models.PaymentStatusSuccess))),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
		)

		record, err := repo.MarkPaid(context.Background(), params)
		assert.ErrorIs(mt, err, utils.ErrAlreadyPaid)
		require.NotNil(mt, record)
		assert.Equal(mt, models.PaymentStatusSuccess, record.Status)
	})

	mt.Run("mark paid missing record", func(mt *mtest.T) {
		repo := NewPaymentRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(),
			mtest.CreateCursorResponse(0, ns(mt, "payments"), mtest.FirstBatch),
		)

		_, err := repo.MarkPaid(context.Background(), params)
		assert.ErrorIs(mt, err, utils.ErrNotFound)
	})

	mt.Run("mark paid on failed record", func(mt *mtest.T) {
		repo := NewPaymentRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(),
			mtest.CreateCursorResponse(0, ns(mt, "payments"), mtest.FirstBatch, toDoc(mt, pendingRecord(models.PaymentStatusFailed))),
		)

		record, err := repo.MarkPaid(context.Background(), params)
		assert.ErrorIs(mt, err, utils.ErrInvalidTransition)
		assert.Equal(mt, models.PaymentStatusFailed, record.Status)
	})

	mt.Run("mark paid storage error", func(mt *mtest.T) {
		repo := NewPaymentRepository(mt.DB)
		mt.AddMockResponses(commandError())

		_, err := repo.MarkPaid(context.Background(), params)
		assert.ErrorIs(mt, err, utils.ErrStorage)
	})

	mt.Run("history by user", func(mt *mtest.T) {
		repo := NewPaymentRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt, "payments"), mtest.FirstBatch,
			toDoc(mt, pendingRecord(models.PaymentStatusSuccess)),
			toDoc(mt, pendingRecord(models.PaymentStatusPending)),
		))

		records, err := repo.GetByUserID(context.Background(), "u1", 10)
		require.NoError(mt, err)
		require.Len(mt, records, 2)
		assert.Equal(mt, models.PaymentStatusSuccess, records[0].Status)
	})

	mt.Run("payment by id", func(mt *mtest.T) {
		repo := NewPaymentRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt, "payments"), mtest.FirstBatch,
			toDoc(mt, pendingRecord(models.PaymentStatusPending))))

		record, err := repo.GetByPaymentID(context.Background(), "pay_1_t1_abcdef")
		require.NoError(mt, err)
		assert.Equal(mt, "order_1", record.OrderID)
	})
}

type memCache struct {
	data map[string][]byte
	sets int
}

func (m *memCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.data[key]
	if !ok {
		return utils.ErrNotFound
	}
	return json.Unmarshal(raw, dest)
}

func (m *memCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.sets++
	m.data[key] = raw
	return nil
}

func (m *memCache) Delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func TestUserRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("cache miss reads mongo and fills cache", func(mt *mtest.T) {
		cache := &memCache{data: make(map[string][]byte)}
		repo := NewUserRepository(mt.DB, cache, time.Minute)
		user := models.User{ID: primitive.NewObjectID(), Email: "ana@example.com", Username: "ana"}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt, "users"), mtest.FirstBatch, toDoc(mt, user)))

		got, err := repo.GetByEmail(context.Background(), "ana@example.com")
		require.NoError(mt, err)
		assert.Equal(mt, "ana", got.Username)
		assert.Equal(mt, 1, cache.sets)

		// Served from cache; no mock response is queued.
		again, err := repo.GetByEmail(context.Background(), "ana@example.com")
		require.NoError(mt, err)
		assert.Equal(mt, user.ID, again.ID)
	})

	mt.Run("unknown email", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB, nil, time.Minute)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt, "users"), mtest.FirstBatch))

		_, err := repo.GetByEmail(context.Background(), "ghost@example.com")
		assert.ErrorIs(mt, err, utils.ErrNotFound)
	})
}
