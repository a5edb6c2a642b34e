package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"tripmate/internal/models"
	"tripmate/internal/repositories/interfaces"
	"tripmate/internal/utils"
	"tripmate/pkg/payment"
)

type memChatRepo struct {
	mu       sync.Mutex
	messages []*models.ChatMessage
	failNext error
}

func (r *memChatRepo) Create(ctx context.Context, message *models.ChatMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failNext != nil {
		err := r.failNext
		r.failNext = nil
		return err
	}
	message.ID = primitive.NewObjectID()
	stored := *message
	r.messages = append(r.messages, &stored)
	return nil
}

func (r *memChatRepo) GetRecentByTrip(ctx context.Context, tripID string, limit int) ([]*models.ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*models.ChatMessage
	for _, m := range r.messages {
		if m.TripID == tripID {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (r *memChatRepo) GetLatestTimestamp(ctx context.Context, tripID string) (time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var latest time.Time
	for _, m := range r.messages {
		if m.TripID == tripID && m.Timestamp.After(latest) {
			latest = m.Timestamp
		}
	}
	return latest, nil
}

type memUserRepo struct {
	users map[string]*models.User
	err   error
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	user, ok := r.users[email]
	if !ok {
		return nil, fmt.Errorf("%w: user %s", utils.ErrNotFound, email)
	}
	return user, nil
}

type memPaymentRepo struct {
	mu          sync.Mutex
	orders      map[string]*models.Order
	records     map[string]*models.PaymentRecord // by order id
	transitions int
	failOrder   error
	failMark    error
}

func newMemPaymentRepo() *memPaymentRepo {
	return &memPaymentRepo{
		orders:  make(map[string]*models.Order),
		records: make(map[string]*models.PaymentRecord),
	}
}

func (r *memPaymentRepo) CreateOrder(ctx context.Context, order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failOrder != nil {
		return r.failOrder
	}
	for _, o := range r.orders {
		if o.Receipt == order.Receipt {
			return fmt.Errorf("%w: %s", utils.ErrDuplicateReceipt, order.Receipt)
		}
	}
	order.CreatedAt = time.Now().UTC()
	order.UpdatedAt = order.CreatedAt
	stored := *order
	r.orders[order.OrderID] = &stored
	return nil
}

func (r *memPaymentRepo) CreatePaymentRecord(ctx context.Context, record *models.PaymentRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *record
	r.records[record.OrderID] = &stored
	return nil
}

func (r *memPaymentRepo) GetByPaymentID(ctx context.Context, paymentID string) (*models.PaymentRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.PaymentID == paymentID {
			copied := *rec
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("%w: payment record", utils.ErrNotFound)
}

func (r *memPaymentRepo) GetByOrderID(ctx context.Context, orderID string) (*models.PaymentRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[orderID]
	if !ok {
		return nil, fmt.Errorf("%w: payment record", utils.ErrNotFound)
	}
	copied := *rec
	return &copied, nil
}

func (r *memPaymentRepo) GetByUserID(ctx context.Context, userID string, limit int) ([]*models.PaymentRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.PaymentRecord
	for _, rec := range r.records {
		if rec.UserID == userID {
			copied := *rec
			out = append(out, &copied)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memPaymentRepo) MarkPaid(ctx context.Context, params interfaces.MarkPaidParams) (*models.PaymentRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failMark != nil {
		return nil, r.failMark
	}

	rec, ok := r.records[params.OrderID]
	if !ok || (params.TripID != "" && rec.TripID != params.TripID) || (params.UserID != "" && rec.UserID != params.UserID) {
		return nil, fmt.Errorf("%w: payment record", utils.ErrNotFound)
	}
	switch rec.Status {
	case models.PaymentStatusSuccess:
		copied := *rec
		return &copied, utils.ErrAlreadyPaid
	case models.PaymentStatusPending:
	default:
		copied := *rec
		return &copied, utils.ErrInvalidTransition
	}

	now := time.Now().UTC()
	rec.Status = models.PaymentStatusSuccess
	rec.ProviderPaymentID = params.ProviderPaymentID
	rec.ProviderSignature = params.Signature
	rec.VerificationDate = &now
	r.transitions++
	if order, ok := r.orders[params.OrderID]; ok {
		order.Status = models.OrderStatusPaid
	}

	copied := *rec
	return &copied, nil
}

type failingProvider struct {
	*payment.LocalProvider
	err error
}

func (p *failingProvider) CreateOrder(ctx context.Context, request *payment.OrderRequest) (*payment.OrderResponse, error) {
	return nil, p.err
}

type recordingSession struct {
	id     string
	mu     sync.Mutex
	frames [][]byte
	closed bool
}

func (s *recordingSession) ID() string { return s.id }

func (s *recordingSession) Send(payload []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.frames = append(s.frames, payload)
	return true
}

func (s *recordingSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *recordingSession) Frames() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]byte(nil), s.frames...)
}
