package config

import (
	"time"
)

type WebSocketConfig struct {
	Path              string        `yaml:"path"`
	ReadBufferSize    int           `yaml:"read_buffer_size"`
	WriteBufferSize   int           `yaml:"write_buffer_size"`
	HandshakeTimeout  time.Duration `yaml:"handshake_timeout"`
	WriteTimeout      time.Duration `yaml:"write_timeout"`
	PongTimeout       time.Duration `yaml:"pong_timeout"`
	MaxMessageSize    int64         `yaml:"max_message_size"`
	SendQueueSize     int           `yaml:"send_queue_size"`
	EnableCompression bool          `yaml:"enable_compression"`
	AllowedOrigins    []string      `yaml:"allowed_origins"`
	EventTimeout      time.Duration `yaml:"event_timeout"`
	MessageRate       float64       `yaml:"message_rate"`
	MessageBurst      int           `yaml:"message_burst"`
}

func loadWebSocketConfig() *WebSocketConfig {
	return &WebSocketConfig{
		Path:              getEnv("WEBSOCKET_PATH", "/ws"),
		ReadBufferSize:    getEnvAsInt("WEBSOCKET_READ_BUFFER_SIZE", 1024),
		WriteBufferSize:   getEnvAsInt("WEBSOCKET_WRITE_BUFFER_SIZE", 1024),
		HandshakeTimeout:  getEnvAsDuration("WEBSOCKET_HANDSHAKE_TIMEOUT", 10*time.Second),
		WriteTimeout:      getEnvAsDuration("WEBSOCKET_WRITE_TIMEOUT", 10*time.Second),
		PongTimeout:       getEnvAsDuration("WEBSOCKET_PONG_TIMEOUT", 60*time.Second),
		MaxMessageSize:    int64(getEnvAsInt("WEBSOCKET_MAX_MESSAGE_SIZE", 4096)),
		SendQueueSize:     getEnvAsInt("WEBSOCKET_SEND_QUEUE_SIZE", 256),
		EnableCompression: getEnvAsBool("WEBSOCKET_ENABLE_COMPRESSION", false),
		AllowedOrigins:    getEnvAsSlice("WEBSOCKET_ALLOWED_ORIGINS", []string{"*"}),
		EventTimeout:      getEnvAsDuration("WEBSOCKET_EVENT_TIMEOUT", 10*time.Second),
		MessageRate:       getEnvAsFloat("WEBSOCKET_MESSAGE_RATE", 20),
		MessageBurst:      getEnvAsInt("WEBSOCKET_MESSAGE_BURST", 40),
	}
}
