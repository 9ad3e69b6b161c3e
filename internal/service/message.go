package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"carpool/internal/domain"
	"carpool/internal/repository"
)

// MessageService handles trip chat: persistence first, realtime fan-out after.
type MessageService struct {
	messageRepo repository.MessageRepository
	tripRepo    repository.TripRepository
	events      EventPublisher
}

// NewMessageService creates a new MessageService.
func NewMessageService(messageRepo repository.MessageRepository, tripRepo repository.TripRepository, events EventPublisher) *MessageService {
	return &MessageService{
		messageRepo: messageRepo,
		tripRepo:    tripRepo,
		events:      events,
	}
}

// SendMessageRequest contains the parameters for sending a chat message.
type SendMessageRequest struct {
	TripID      string
	SenderID    string
	RecipientID string
	MessageText string
	MessageType string
}

// SendMessage persists a message between two trip participants and emits a
// NewMessage event. Both sender and recipient must belong to the trip.
func (s *MessageService) SendMessage(ctx context.Context, req SendMessageRequest) (*domain.Message, error) {
	if req.TripID == "" || req.RecipientID == "" {
		return nil, ErrMissingFields
	}
	if req.MessageText == "" {
		return nil, ErrEmptyMessage
	}
	if len(req.MessageText) > domain.MaxMessageLength {
		return nil, ErrMessageTooLong
	}

	trip, err := s.tripRepo.GetByID(ctx, req.TripID)
	if err != nil {
		return nil, err
	}

	if !trip.HasParticipant(req.SenderID) {
		return nil, ErrNotTripParticipant
	}
	if !trip.HasParticipant(req.RecipientID) {
		return nil, ErrNotTripParticipant
	}

	msgType := domain.MessageType(req.MessageType)
	switch msgType {
	case domain.MessageTypeText, domain.MessageTypeLocationShare, domain.MessageTypePhoto:
	default:
		msgType = domain.MessageTypeText
	}

	msg := &domain.Message{
		ID:          uuid.New().String(),
		TripID:      req.TripID,
		SenderID:    req.SenderID,
		RecipientID: req.RecipientID,
		MessageText: req.MessageText,
		MessageType: msgType,
		CreatedAt:   time.Now(),
	}

	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, err
	}

	if s.events != nil {
		s.events.Publish(domain.NewMessageEvent(msg))
	}

	return msg, nil
}

// GetMessages retrieves a trip's chat history for a participant.
func (s *MessageService) GetMessages(ctx context.Context, tripID, userID string) ([]*domain.Message, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}

	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if !trip.HasParticipant(userID) {
		return nil, ErrNotTripParticipant
	}

	return s.messageRepo.GetByTripID(ctx, tripID)
}

// MarkMessagesRead marks the user's unread incoming messages in the trip as
// read and returns the number updated.
func (s *MessageService) MarkMessagesRead(ctx context.Context, tripID, userID string) (int, error) {
	if tripID == "" {
		return 0, ErrInvalidTripID
	}

	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return 0, err
	}
	if !trip.HasParticipant(userID) {
		return 0, ErrNotTripParticipant
	}

	return s.messageRepo.MarkRead(ctx, tripID, userID)
}
