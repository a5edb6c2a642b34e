package utils

import "time"

// Application Constants
const (
	AppName    = "TripMate"
	AppVersion = "1.0.0"

	DefaultCurrency = "INR"

	// Chat
	DefaultChatHistoryLimit = 50
	MaxChatHistoryLimit     = 100
	MaxChatMessageLength    = 2000

	// Payments
	DefaultPaymentHistoryLimit = 10
	MaxPaymentHistoryLimit     = 100
	PaymentRecordPrefix        = "pay_"

	JWTAccessTokenTTL = 30 * time.Minute
)

// HTTP Status Messages
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Error Messages
const (
	MsgInvalidToken       = "invalid token"
	MsgInternalServer     = "internal server error"
	MsgUnauthorized       = "unauthorized"
	MsgNotFound           = "not found"
	MsgValidationFailed   = "validation failed"
	MsgStorageUnavailable = "storage unavailable"
	MsgProviderFailed     = "payment provider unavailable"
	MsgSignatureMismatch  = "signature verification failed"
)

// Cache Keys
const (
	CacheUserEmailPrefix = "user:email:"
	LockOrderPrefix      = "lock:order:"
)

// Realtime event types
const (
	EventJoinRoom       = "join_room"
	EventLeaveRoom      = "leave_room"
	EventSendMessage    = "send_message"
	EventReceiveMessage = "receive_message"
)

// Provider webhook event types
const (
	WebhookPaymentCaptured = "payment.captured"
	WebhookPaymentFailed   = "payment.failed"
)
