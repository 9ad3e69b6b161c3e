package postgres

import (
	"context"
	"database/sql"
	"time"

	"carpool/internal/domain"
)

// MessageRepository is a PostgreSQL implementation of repository.MessageRepository.
type MessageRepository struct {
	q Querier
}

// NewMessageRepository creates a new PostgreSQL message repository.
func NewMessageRepository(db *sql.DB) *MessageRepository {
	return &MessageRepository{q: db}
}

// Create persists a new message.
func (r *MessageRepository) Create(ctx context.Context, msg *domain.Message) error {
	query := `
		INSERT INTO messages (id, trip_id, sender_id, recipient_id, message_text, message_type, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.q.ExecContext(ctx, query,
		msg.ID,
		msg.TripID,
		msg.SenderID,
		msg.RecipientID,
		msg.MessageText,
		msg.MessageType,
		msg.IsRead,
		msg.CreatedAt,
	)

	return err
}

// GetByTripID retrieves a trip's messages in chronological order.
func (r *MessageRepository) GetByTripID(ctx context.Context, tripID string) ([]*domain.Message, error) {
	query := `
		SELECT id, trip_id, sender_id, recipient_id, message_text, message_type, is_read, read_at, created_at
		FROM messages WHERE trip_id = $1 ORDER BY created_at ASC
	`

	rows, err := r.q.QueryContext(ctx, query, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*domain.Message
	for rows.Next() {
		var msg domain.Message
		var readAt sql.NullTime

		err := rows.Scan(
			&msg.ID,
			&msg.TripID,
			&msg.SenderID,
			&msg.RecipientID,
			&msg.MessageText,
			&msg.MessageType,
			&msg.IsRead,
			&readAt,
			&msg.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		if readAt.Valid {
			msg.ReadAt = readAt.Time
		}
		messages = append(messages, &msg)
	}

	return messages, rows.Err()
}

// MarkRead marks all unread messages addressed to recipientID in the trip as read.
func (r *MessageRepository) MarkRead(ctx context.Context, tripID, recipientID string) (int, error) {
	query := `
		UPDATE messages
		SET is_read = TRUE, read_at = $3
		WHERE trip_id = $1 AND recipient_id = $2 AND is_read = FALSE
	`

	result, err := r.q.ExecContext(ctx, query, tripID, recipientID, time.Now())
	if err != nil {
		return 0, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	return int(affected), nil
}
