package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"tripmate/pkg/logger"
	"tripmate/pkg/metrics"
)

// Event is the JSON frame exchanged over the socket in both directions.
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// EventDispatcher handles decoded inbound events. Dispatch is called from the
// session's read goroutine, so events from one session arrive in order.
type EventDispatcher interface {
	Dispatch(session Session, event *Event)
	Disconnected(session Session)
}

type Client struct {
	id         string
	conn       *websocket.Conn
	send       chan []byte
	done       chan struct{}
	closeOnce  sync.Once
	dispatcher EventDispatcher
	limiter    *rate.Limiter
	config     *Config
	metrics    *metrics.Metrics
	logger     *logger.Logger
}

func NewClient(conn *websocket.Conn, dispatcher EventDispatcher, config *Config, m *metrics.Metrics, log *logger.Logger) *Client {
	id := uuid.NewString()
	return &Client{
		id:         id,
		conn:       conn,
		send:       make(chan []byte, config.SendQueueSize),
		done:       make(chan struct{}),
		dispatcher: dispatcher,
		limiter:    config.newLimiter(),
		config:     config,
		metrics:    m,
		logger:     log.WithField("session_id", id),
	}
}

func (c *Client) ID() string {
	return c.id
}

// Send queues payload for the write pump. It reports false when the session
// is closed or its queue is full.
func (c *Client) Send(payload []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

func (c *Client) readPump() {
	defer func() {
		c.dispatcher.Disconnected(c)
		c.Close()
		c.conn.Close()
		c.metrics.SessionClosed()
	}()

	c.conn.SetReadLimit(c.config.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.config.PongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.config.PongTimeout))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.WithError(err).Warn("WebSocket read error")
			}
			return
		}

		var event Event
		if err := json.Unmarshal(message, &event); err != nil || event.Type == "" {
			c.logger.WithError(err).Debug("Ignoring malformed websocket frame")
			continue
		}

		if c.limiter != nil && !c.limiter.Allow() {
			c.metrics.EventThrottled()
			c.logger.WithField("event", event.Type).Debug("Dropping websocket event over rate limit")
			continue
		}

		c.dispatcher.Dispatch(c, &event)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(c.config.pingPeriod())
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
			// One JSON document per frame.
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.Close()
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}

		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
