package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"tripmate/internal/models"
	"tripmate/internal/repositories/interfaces"
	"tripmate/internal/utils"
	"tripmate/internal/validators"
	"tripmate/pkg/logger"
	"tripmate/pkg/metrics"
	"tripmate/pkg/websocket"
)

// RoomRegistry is the subset of websocket.Hub the relay drives.
type RoomRegistry interface {
	Join(session websocket.Session, roomID string)
	Leave(session websocket.Session, roomID string)
	Disconnect(session websocket.Session)
	Broadcast(roomID string, payload []byte) int
}

// ChatService stores trip chat messages and relays them to connected
// sessions. It is the websocket event dispatcher.
type ChatService interface {
	websocket.EventDispatcher

	AppendMessage(ctx context.Context, tripID, userID, username, text string) (*models.ChatMessage, error)
	GetHistory(ctx context.Context, tripID string, limit int) ([]*models.ChatMessage, error)
	SendMessage(ctx context.Context, req *SendMessageRequest) (*models.ChatMessage, error)
}

type SendMessageRequest struct {
	TripID  string `json:"trip_id"`
	Message string `json:"message"`
	Token   string `json:"token"`
}

type roomRequest struct {
	TripID string `json:"trip_id"`
}

type chatService struct {
	chatRepo     interfaces.ChatRepository
	authService  AuthService
	rooms        RoomRegistry
	tripLocks    *KeyedMutex
	eventTimeout time.Duration
	now          func() time.Time
	metrics      *metrics.Metrics
	logger       *logger.Logger

	// lastStamps holds the newest timestamp of each trip with a live lock
	// entry; it is dropped when the trip goes idle and reseeded from the store.
	stampMu    sync.Mutex
	lastStamps map[string]time.Time
}

func NewChatService(
	chatRepo interfaces.ChatRepository,
	authService AuthService,
	rooms RoomRegistry,
	eventTimeout time.Duration,
	m *metrics.Metrics,
	log *logger.Logger,
) ChatService {
	s := &chatService{
		chatRepo:     chatRepo,
		authService:  authService,
		rooms:        rooms,
		tripLocks:    NewKeyedMutex(),
		eventTimeout: eventTimeout,
		now:          time.Now,
		metrics:      m,
		logger:       log,
		lastStamps:   make(map[string]time.Time),
	}
	s.tripLocks.onIdle = s.forgetTimestamp
	return s
}

// Message store

func (s *chatService) AppendMessage(ctx context.Context, tripID, userID, username, text string) (*models.ChatMessage, error) {
	tripID = validators.SanitizeInput(tripID)
	release, err := s.tripLocks.Acquire(ctx, tripID)
	if err != nil {
		return nil, err
	}
	defer release()

	return s.appendLocked(ctx, tripID, userID, username, text)
}

func (s *chatService) GetHistory(ctx context.Context, tripID string, limit int) ([]*models.ChatMessage, error) {
	tripID = validators.SanitizeInput(tripID)
	if tripID == "" {
		return nil, fmt.Errorf("%w: trip_id is required", utils.ErrValidation)
	}
	limit = utils.ClampLimit(limit, utils.DefaultChatHistoryLimit, utils.MaxChatHistoryLimit)

	return s.chatRepo.GetRecentByTrip(ctx, tripID, limit)
}

// appendLocked must run under the trip lock. Timestamps are millisecond
// precision (what the store keeps) and never move backwards within a trip,
// so timestamp order and insertion order agree.
func (s *chatService) appendLocked(ctx context.Context, tripID, userID, username, text string) (*models.ChatMessage, error) {
	req := &validators.ChatMessageRequest{TripID: tripID, Text: text}
	if errs := validators.ValidateChatMessage(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", utils.ErrValidation, errs.Error())
	}

	last, err := s.lastTimestamp(ctx, req.TripID)
	if err != nil {
		return nil, err
	}

	timestamp := s.now().UTC().Truncate(time.Millisecond)
	if timestamp.Before(last) {
		timestamp = last
	}

	message := &models.ChatMessage{
		TripID:    req.TripID,
		UserID:    userID,
		Username:  username,
		Text:      req.Text,
		Timestamp: timestamp,
	}

	if err := s.chatRepo.Create(ctx, message); err != nil {
		return nil, err
	}

	s.stampMu.Lock()
	s.lastStamps[req.TripID] = timestamp
	s.stampMu.Unlock()

	return message, nil
}

func (s *chatService) lastTimestamp(ctx context.Context, tripID string) (time.Time, error) {
	s.stampMu.Lock()
	last, ok := s.lastStamps[tripID]
	s.stampMu.Unlock()
	if ok {
		return last, nil
	}

	return s.chatRepo.GetLatestTimestamp(ctx, tripID)
}

func (s *chatService) forgetTimestamp(tripID string) {
	s.stampMu.Lock()
	delete(s.lastStamps, tripID)
	s.stampMu.Unlock()
}

// Realtime relay

// SendMessage authenticates, persists, then broadcasts. Append and broadcast
// happen under one per-trip lock so every room member sees messages in
// stored order. Nothing is broadcast when any step fails. The trip id is
// trimmed before it keys the lock, the store or the room.
func (s *chatService) SendMessage(ctx context.Context, req *SendMessageRequest) (*models.ChatMessage, error) {
	tripID := validators.SanitizeInput(req.TripID)
	if tripID == "" || req.Message == "" || req.Token == "" {
		return nil, fmt.Errorf("%w: trip_id, message and token are required", utils.ErrValidation)
	}

	user, err := s.authService.ResolveUser(ctx, req.Token)
	if err != nil {
		return nil, err
	}

	release, err := s.tripLocks.Acquire(ctx, tripID)
	if err != nil {
		return nil, err
	}
	defer release()

	message, err := s.appendLocked(ctx, tripID, user.ID.Hex(), user.DisplayName(), req.Message)
	if err != nil {
		return nil, err
	}

	payload, err := encodeEvent(utils.EventReceiveMessage, message)
	if err != nil {
		return nil, err
	}
	delivered := s.rooms.Broadcast(message.TripID, payload)
	s.metrics.RecordChatMessage("stored", delivered)

	s.logger.LogChatEvent(message.TripID, "message_sent", map[string]interface{}{
		"message_id": message.ID.Hex(),
		"user_id":    message.UserID,
		"delivered":  delivered,
	})

	return message, nil
}

func (s *chatService) Dispatch(session websocket.Session, event *websocket.Event) {
	log := s.logger.WithFields(map[string]interface{}{
		"session_id": session.ID(),
		"event":      event.Type,
	})

	switch event.Type {
	case utils.EventJoinRoom:
		tripID, ok := roomTripID(event)
		if !ok {
			log.Debug("Ignoring join_room without trip_id")
			return
		}
		s.rooms.Join(session, tripID)
		log.WithField("trip_id", tripID).Debug("Session joined room")

	case utils.EventLeaveRoom:
		if tripID, ok := roomTripID(event); ok {
			s.rooms.Leave(session, tripID)
		}

	case utils.EventSendMessage:
		var req SendMessageRequest
		if err := decodeEventData(event, &req); err != nil {
			log.WithError(err).Debug("Ignoring malformed send_message")
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), s.eventTimeout)
		defer cancel()

		// Senders get no error frame; failures are only logged.
		if _, err := s.SendMessage(ctx, &req); err != nil {
			entry := log.WithError(err).WithField("trip_id", req.TripID)
			switch {
			case errors.Is(err, utils.ErrUnauthorized):
				s.metrics.RecordChatMessage("unauthorized", 0)
				entry.Info("Dropped chat message")
			case errors.Is(err, utils.ErrValidation):
				s.metrics.RecordChatMessage("rejected", 0)
				entry.Info("Dropped chat message")
			default:
				s.metrics.RecordChatMessage("failed", 0)
				entry.Error("Failed to relay chat message")
			}
		}

	default:
		log.Debug("Ignoring unknown websocket event")
	}
}

func (s *chatService) Disconnected(session websocket.Session) {
	s.rooms.Disconnect(session)
}

func roomTripID(event *websocket.Event) (string, bool) {
	var req roomRequest
	if err := decodeEventData(event, &req); err != nil {
		return "", false
	}
	tripID := validators.SanitizeInput(req.TripID)
	return tripID, tripID != ""
}

func decodeEventData(event *websocket.Event, dest interface{}) error {
	if len(event.Data) == 0 {
		return fmt.Errorf("event %s has no data", event.Type)
	}
	return json.Unmarshal(event.Data, dest)
}

func encodeEvent(eventType string, data interface{}) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", eventType, err)
	}
	return json.Marshal(websocket.Event{Type: eventType, Data: raw})
}
