package repository

import (
	"context"

	"carpool/internal/domain"
)

// MessageRepository defines the persistence operations for trip chat messages.
type MessageRepository interface {
	// Create persists a new message.
	Create(ctx context.Context, msg *domain.Message) error

	// GetByTripID retrieves a trip's messages in chronological order.
	GetByTripID(ctx context.Context, tripID string) ([]*domain.Message, error)

	// MarkRead marks all unread messages addressed to recipientID in the
	// trip as read. Returns the number of messages updated.
	MarkRead(ctx context.Context, tripID, recipientID string) (int, error)
}
