package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// Logger is an immutable set of fields over a shared logrus logger.
// WithField and friends return a child; the parent is never changed.
type Logger struct {
	logger *logrus.Logger
	fields logrus.Fields
}

type LogLevel string

const (
	DebugLevel LogLevel = "debug"
	InfoLevel  LogLevel = "info"
	WarnLevel  LogLevel = "warn"
	ErrorLevel LogLevel = "error"
)

type Config struct {
	Level   LogLevel `json:"level"`
	Format  string   `json:"format"` // json, text
	AppName string   `json:"app_name"`
	Version string   `json:"version"`
}

type contextKey string

const (
	RequestIDKey contextKey = "request_id"
	UserIDKey    contextKey = "user_id"
)

func NewLogger(config *Config) (*Logger, error) {
	base := logrus.New()
	base.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(string(config.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	base.SetLevel(level)

	if config.Format == "json" {
		base.SetFormatter(&JSONFormatter{AppName: config.AppName, Version: config.Version})
	} else {
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return &Logger{logger: base, fields: logrus.Fields{}}, nil
}

// Discard returns a logger that writes nothing.
func Discard() *Logger {
	base := logrus.New()
	base.SetOutput(io.Discard)
	return &Logger{logger: base, fields: logrus.Fields{}}
}

func (l *Logger) SetOutput(output io.Writer) {
	l.logger.SetOutput(output)
}

func (l *Logger) WithField(key string, value interface{}) *Logger {
	return l.WithFields(map[string]interface{}{key: value})
}

func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	merged := make(logrus.Fields, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &Logger{logger: l.logger, fields: merged}
}

// WithContext adds the request and user ids the middleware stored on ctx.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}
	fields := map[string]interface{}{}
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok && requestID != "" {
		fields["request_id"] = requestID
	}
	if userID, ok := ctx.Value(UserIDKey).(string); ok && userID != "" {
		fields["user_id"] = userID
	}
	if len(fields) == 0 {
		return l
	}
	return l.WithFields(fields)
}

func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}
	return l.WithField("error", err.Error())
}

func (l *Logger) entry() *logrus.Entry {
	return l.logger.WithFields(l.fields)
}

func (l *Logger) Debug(msg string) { l.entry().Debug(msg) }
func (l *Logger) Info(msg string) { l.entry().Info(msg) }
func (l *Logger) Warn(msg string) { l.entry().Warn(msg) }
func (l *Logger) Error(msg string) { l.entry().Error(msg) }
func (l *Logger) Fatal(msg string) { l.entry().Fatal(msg) }

func (l *Logger) Infof(format string, args ...interface{}) {
	l.entry().Infof(format, args...)
}

func (l *Logger) LogChatEvent(tripID, event string, details map[string]interface{}) {
	fields := map[string]interface{}{
		"type":    "chat_event",
		"trip_id": tripID,
		"event":   event,
	}
	for k, v := range details {
		fields[k] = v
	}
	l.WithFields(fields).Info("Chat event")
}

// LogPaymentEvent records a ledger change. amount is in major units.
func (l *Logger) LogPaymentEvent(orderID, event string, amount float64, currency string) {
	l.WithFields(map[string]interface{}{
		"type":     "payment_event",
		"order_id": orderID,
		"event":    event,
		"amount":   amount,
		"currency": currency,
	}).Info("Payment event")
}

func (l *Logger) LogAPIRequest(method, route string, status int, duration time.Duration, userID string) {
	fields := map[string]interface{}{
		"type":        "api_request",
		"method":      method,
		"route":       route,
		"status_code": status,
		"duration_ms": duration.Milliseconds(),
	}
	if userID != "" {
		fields["user_id"] = userID
	}

	entry := l.WithFields(fields)
	switch {
	case status >= 500:
		entry.Error("API request failed")
	case status >= 400:
		entry.Warn("API request rejected")
	default:
		entry.Info("API request")
	}
}

// LogSecurityEvent logs at error for high and critical severity, warn otherwise.
func (l *Logger) LogSecurityEvent(eventType, severity string, details map[string]interface{}) {
	fields := map[string]interface{}{
		"type":       "security_event",
		"event_type": eventType,
		"severity":   severity,
	}
	for k, v := range details {
		fields[k] = v
	}

	entry := l.WithFields(fields)
	if severity == "high" || severity == "critical" {
		entry.Error("Security event")
		return
	}
	entry.Warn("Security event")
}
