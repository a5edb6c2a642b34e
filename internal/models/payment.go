package models

import (
	"fmt"
	"time"
)

type OrderStatus string
type PaymentStatus string

const (
	OrderStatusCreated OrderStatus = "created"
	OrderStatusPaid    OrderStatus = "paid"

	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusSuccess   PaymentStatus = "success"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

const (
	NoteTripID = "tripId"
	NoteUserID = "userId"
)

// Notes is the free-form metadata attached to an order. Only tripId and
// userId are interpreted; everything else is passed through to the provider.
type Notes map[string]interface{}

func (n Notes) String(key string) (string, error) {
	raw, ok := n[key]
	if !ok || raw == nil {
		return "", fmt.Errorf("notes.%s is required", key)
	}
	value, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("notes.%s must be a string", key)
	}
	if value == "" {
		return "", fmt.Errorf("notes.%s must not be empty", key)
	}
	return value, nil
}

func (n Notes) TripID() (string, error) {
	return n.String(NoteTripID)
}

func (n Notes) UserID() (string, error) {
	return n.String(NoteUserID)
}

type Order struct {
	OrderID   string      `json:"id" bson:"order_id"`
	Amount    int64       `json:"amount" bson:"amount"` // minor units
	Currency  string      `json:"currency" bson:"currency"`
	Receipt   string      `json:"receipt" bson:"receipt"`
	Status    OrderStatus `json:"status" bson:"status"`
	Notes     Notes       `json:"notes" bson:"notes"`
	TripID    string      `json:"trip_id" bson:"trip_id"`
	UserID    string      `json:"user_id" bson:"user_id"`
	Provider  string      `json:"provider" bson:"provider"`
	CreatedAt time.Time   `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time   `json:"updated_at" bson:"updated_at"`
}

type PaymentRecord struct {
	PaymentID         string        `json:"payment_id" bson:"payment_id"`
	OrderID           string        `json:"order_id" bson:"order_id"`
	TripID            string        `json:"trip_id" bson:"trip_id"`
	UserID            string        `json:"user_id" bson:"user_id"`
	Amount            float64       `json:"amount" bson:"amount"` // major units
	Currency          string        `json:"currency" bson:"currency"`
	Status            PaymentStatus `json:"status" bson:"status"`
	ProviderPaymentID string        `json:"provider_payment_id,omitempty" bson:"provider_payment_id,omitempty"`
	ProviderSignature string        `json:"provider_signature,omitempty" bson:"provider_signature,omitempty"`
	Notes             Notes         `json:"notes" bson:"notes"`
	CreatedAt         time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at" bson:"updated_at"`
	VerificationDate  *time.Time    `json:"verification_date,omitempty" bson:"verification_date,omitempty"`
}

// MinorToMajor converts paise/cents to rupees/dollars.
func MinorToMajor(amount int64) float64 {
	return float64(amount) / 100
}

type CreateOrderRequest struct {
	Amount   int64  `json:"amount" validate:"required,gt=0"` // minor units
	Currency string `json:"currency" validate:"omitempty,currency_code"`
	Receipt  string `json:"receipt" validate:"omitempty,max=40"`
	Notes    Notes  `json:"notes" validate:"notes_keys"`
}

type VerifyPaymentRequest struct {
	PaymentID string  `json:"payment_id" validate:"required,max=64"`
	OrderID   string  `json:"order_id" validate:"required,max=64"`
	Signature string  `json:"signature" validate:"required,max=128"`
	TripID    string  `json:"trip_id" validate:"required"`
	UserID    string  `json:"user_id" validate:"required"`
	Amount    float64 `json:"amount" validate:"gte=0"` // major units, informational
	Currency  string  `json:"currency" validate:"omitempty,currency_code"`
}

// VerificationStatus is the outcome reported to callers of verify. It is
// wider than PaymentStatus so that a missing record is distinguishable from
// a rejected signature.
type VerificationStatus string

const (
	VerificationStatusSuccess  VerificationStatus = "success"
	VerificationStatusFailed   VerificationStatus = "failed"
	VerificationStatusNotFound VerificationStatus = "not_found"
)

type VerificationResult struct {
	Verified  bool               `json:"verified"`
	PaymentID string             `json:"payment_id"`
	OrderID   string             `json:"order_id"`
	Amount    float64            `json:"amount"`
	Currency  string             `json:"currency"`
	TripID    string             `json:"trip_id"`
	UserID    string             `json:"user_id"`
	Status    VerificationStatus `json:"status"`
	Message   string             `json:"message"`
}
