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
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type paymentRepository struct {
	orders   *mongo.Collection
	payments *mongo.Collection
	now      func() time.Time
}

func NewPaymentRepository(db *mongo.Database) interfaces.PaymentRepository {
	return &paymentRepository{
		orders:   db.Collection(database.CollectionOrders),
		payments: db.Collection(database.CollectionPayments),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Orders
func (r *paymentRepository) CreateOrder(ctx context.Context, order *models.Order) error {
	now := r.now()
	order.CreatedAt = now
	order.UpdatedAt = now

	_, err := r.orders.InsertOne(ctx, order)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: order %s or receipt %s", utils.ErrDuplicateReceipt, order.OrderID, order.Receipt)
		}
		return fmt.Errorf("%w: failed to create order: %w", utils.ErrStorage, err)
	}

	return nil
}

// Payment records
func (r *paymentRepository) CreatePaymentRecord(ctx context.Context, record *models.PaymentRecord) error {
	now := r.now()
	record.CreatedAt = now
	record.UpdatedAt = now
	if record.Status == "" {
		record.Status = models.PaymentStatusPending
	}

	_, err := r.payments.InsertOne(ctx, record)
	if err != nil {
		return fmt.Errorf("%w: failed to create payment record: %w", utils.ErrStorage, err)
	}

	return nil
}

func (r *paymentRepository) GetByPaymentID(ctx context.Context, paymentID string) (*models.PaymentRecord, error) {
	return r.findRecord(ctx, bson.M{"payment_id": paymentID})
}

func (r *paymentRepository) GetByOrderID(ctx context.Context, orderID string) (*models.PaymentRecord, error) {
	return r.findRecord(ctx, bson.M{"order_id": orderID})
}

func (r *paymentRepository) GetByUserID(ctx context.Context, userID string, limit int) ([]*models.PaymentRecord, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.payments.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get payment history: %w", utils.ErrStorage, err)
	}
	defer cursor.Close(ctx)

	records := make([]*models.PaymentRecord, 0)
	for cursor.Next(ctx) {
		var record models.PaymentRecord
		if err := cursor.Decode(&record); err != nil {
			return nil, fmt.Errorf("%w: failed to decode payment record: %w", utils.ErrStorage, err)
		}
		records = append(records, &record)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("%w: payment history cursor: %w", utils.ErrStorage, err)
	}

	return records, nil
}

// MarkPaid moves a pending record to success and its order to paid. The
// status predicate in the update filter makes concurrent callers race on a
// single document write, so at most one of them wins.
func (r *paymentRepository) MarkPaid(ctx context.Context, params interfaces.MarkPaidParams) (*models.PaymentRecord, error) {
	match := bson.M{"order_id": params.OrderID}
	if params.TripID != "" {
		match["trip_id"] = params.TripID
	}
	if params.UserID != "" {
		match["user_id"] = params.UserID
	}

	now := r.now()
	set := bson.M{
		"status":            models.PaymentStatusSuccess,
		"verification_date": now,
		"updated_at":        now,
	}
	if params.ProviderPaymentID != "" {
		set["provider_payment_id"] = params.ProviderPaymentID
	}
	if params.Signature != "" {
		set["provider_signature"] = params.Signature
	}

	record, err := r.compareAndSwap(ctx, match, models.PaymentStatusPending, set)
	if err != nil {
		if errors.Is(err, utils.ErrAlreadyPaid) {
			// A previous winner may have died before flipping the order.
			if orderErr := r.markOrderPaid(ctx, params.OrderID); orderErr != nil {
				return nil, orderErr
			}
		}
		return record, err
	}

	if err := r.markOrderPaid(ctx, params.OrderID); err != nil {
		return nil, err
	}

	return record, nil
}

// compareAndSwap applies set to the record matching filter only while it is
// in status from. When nothing matched it reports why: ErrNotFound when no
// record exists, ErrAlreadyPaid (with the record) when it already succeeded,
// ErrInvalidTransition otherwise.
func (r *paymentRepository) compareAndSwap(ctx context.Context, match bson.M, from models.PaymentStatus, set bson.M) (*models.PaymentRecord, error) {
	filter := bson.M{"status": from}
	for k, v := range match {
		filter[k] = v
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var record models.PaymentRecord
	err := r.payments.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&record)
	if err == nil {
		return &record, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: failed to update payment status: %w", utils.ErrStorage, err)
	}

	current, err := r.findRecord(ctx, match)
	if err != nil {
		return nil, err
	}

	switch current.Status {
	case models.PaymentStatusSuccess:
		return current, fmt.Errorf("%w: order %s", utils.ErrAlreadyPaid, current.OrderID)
	default:
		return current, fmt.Errorf("%w: order %s is %s", utils.ErrInvalidTransition, current.OrderID, current.Status)
	}
}

func (r *paymentRepository) markOrderPaid(ctx context.Context, orderID string) error {
	_, err := r.orders.UpdateOne(
		ctx,
		bson.M{"order_id": orderID, "status": models.OrderStatusCreated},
		bson.M{"$set": bson.M{"status": models.OrderStatusPaid, "updated_at": r.now()}},
	)
	if err != nil {
		return fmt.Errorf("%w: failed to mark order paid: %w", utils.ErrStorage, err)
	}
	return nil
}

func (r *paymentRepository) findRecord(ctx context.Context, filter bson.M) (*models.PaymentRecord, error) {
	var record models.PaymentRecord
	err := r.payments.FindOne(ctx, filter).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: payment record", utils.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: failed to get payment record: %w", utils.ErrStorage, err)
	}

	return &record, nil
}
