package websocket

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"tripmate/pkg/logger"
	"tripmate/pkg/metrics"
)

type Config struct {
	ReadBufferSize    int
	WriteBufferSize   int
	HandshakeTimeout  time.Duration
	WriteTimeout      time.Duration
	PongTimeout       time.Duration
	MaxMessageSize    int64
	SendQueueSize     int
	EnableCompression bool
	AllowedOrigins    []string
	// MessageRate caps inbound events per second per session. Zero disables it.
	MessageRate  float64
	MessageBurst int
}

func (c *Config) pingPeriod() time.Duration {
	return (c.PongTimeout * 9) / 10
}

func (c *Config) newLimiter() *rate.Limiter {
	if c.MessageRate <= 0 {
		return nil
	}
	burst := c.MessageBurst
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(c.MessageRate), burst)
}

type Handler struct {
	dispatcher EventDispatcher
	upgrader   websocket.Upgrader
	config     *Config
	metrics    *metrics.Metrics
	logger     *logger.Logger
}

func NewHandler(dispatcher EventDispatcher, config *Config, m *metrics.Metrics, log *logger.Logger) *Handler {
	return &Handler{
		dispatcher: dispatcher,
		upgrader: websocket.Upgrader{
			ReadBufferSize:    config.ReadBufferSize,
			WriteBufferSize:   config.WriteBufferSize,
			HandshakeTimeout:  config.HandshakeTimeout,
			EnableCompression: config.EnableCompression,
			CheckOrigin:       originChecker(config.AllowedOrigins),
		},
		config:  config,
		metrics: m,
		logger:  log,
	}
}

// HandleWebSocket upgrades the request. Connections are anonymous; each
// send_message event carries its own token.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	client := NewClient(conn, h.dispatcher, h.config, h.metrics, h.logger)
	h.metrics.SessionOpened()
	h.logger.WithField("session_id", client.ID()).Debug("WebSocket session connected")

	go client.writePump()
	go client.readPump()
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(r *http.Request) bool { return true }
	}

	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		if origin == "*" {
			return func(r *http.Request) bool { return true }
		}
		set[origin] = struct{}{}
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
