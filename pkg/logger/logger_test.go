package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferedLogger(t *testing.T) (*Logger, *bytes.Buffer) {
	t.Helper()
	log, err := NewLogger(&Config{Level: DebugLevel, Format: "json", AppName: "tripmate", Version: "test"})
	require.NoError(t, err)
	buf := &bytes.Buffer{}
	log.SetOutput(buf)
	return log, buf
}

func TestJSONFormatterIncludesFields(t *testing.T) {
	log, buf := newBufferedLogger(t)

	log.WithField("trip_id", "t1").Info("hello")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "hello", entry["message"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "t1", entry["trip_id"])
	assert.Equal(t, "tripmate", entry["app"])
}

func TestWithFieldDoesNotMutateParent(t *testing.T) {
	log, buf := newBufferedLogger(t)

	child := log.WithField("a", 1)
	_ = child.WithField("b", 2)
	child.Info("child")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Contains(t, entry, "a")
	assert.NotContains(t, entry, "b")
}

func TestWithContextExtractsRequestID(t *testing.T) {
	log, buf := newBufferedLogger(t)

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-1")
	log.WithContext(ctx).Warn("ctx")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "req-1", entry["request_id"])
}

func TestLogPaymentEvent(t *testing.T) {
	log, buf := newBufferedLogger(t)

	log.LogPaymentEvent("order_1", "verified", 15000, "INR")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "order_1", entry["order_id"])
	assert.Equal(t, "payment_event", entry["type"])
}

func TestWithErrorNil(t *testing.T) {
	log := Discard()
	assert.Same(t, log, log.WithError(nil))
}

func TestReservedKeysWinOverFields(t *testing.T) {
	log, buf := newBufferedLogger(t)

	log.WithField("level", "spoofed").WithField("app", "other").Info("hello")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "tripmate", entry["app"])
}

func TestLogAPIRequestLevelFollowsStatus(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{200, "info"},
		{404, "warning"},
		{503, "error"},
	}

	for _, tt := range tests {
		log, buf := newBufferedLogger(t)
		log.LogAPIRequest("GET", "/api/v1/chat/:trip_id", tt.status, 0, "u1")

		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, tt.level, entry["level"])
		assert.Equal(t, "/api/v1/chat/:trip_id", entry["route"])
		assert.Equal(t, "u1", entry["user_id"])
	}
}
