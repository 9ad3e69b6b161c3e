package domain

import "time"

// MessageType distinguishes chat payload kinds.
type MessageType string

const (
	MessageTypeText          MessageType = "text"
	MessageTypeLocationShare MessageType = "location_share"
	MessageTypePhoto         MessageType = "photo"
)

// MaxMessageLength bounds the chat message body.
const MaxMessageLength = 500

// Message is a chat message between two participants of a trip.
type Message struct {
	ID          string
	TripID      string
	SenderID    string
	RecipientID string
	MessageText string
	MessageType MessageType
	IsRead      bool
	ReadAt      time.Time
	CreatedAt   time.Time
}
